// Package step gates progression through the multi-step flow: it computes the
// required fields of the active module, which of them are still missing from
// the answer set, and the aggregate pass/fail that blocks the next-step and
// submit actions. Backward navigation is never gated.
package step

import (
	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
)

// Missing identifies a required field with no usable value, paired with its
// display label for error reporting.
type Missing struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// RequiredFieldsOf returns the ids of all fields declared required inside the
// module, in declaration order through sections and field groups. Companion
// fields of allowCustom selects are excluded here because their requiredness
// depends on the live answer; MissingOf applies that rule.
func RequiredFieldsOf(m schema.Module) []string {
	var out []string
	for _, field := range m.Fields() {
		if field.Required {
			out = append(out, field.ID)
		}
	}
	return out
}

// MissingOf lists the required fields of the module that have no value in the
// answer set.
//
// "No value" means absent or an empty string, nothing else. A checkbox left
// at false and a checkbox-group with an empty selection both pass, an
// inherited quirk this implementation preserves on purpose (a required
// checkbox can therefore never block progression).
//
// A required allowCustom select whose current value is the custom sentinel
// additionally requires its <id>_custom companion to be filled.
func MissingOf(m schema.Module, set answers.AnswerSet) []Missing {
	var out []Missing
	for _, field := range m.Fields() {
		if !field.Required {
			continue
		}
		if isMissing(set, field.ID) {
			out = append(out, Missing{ID: field.ID, Label: labelOf(m, field.ID)})
			continue
		}
		if field.Type == schema.FieldTypeSelect && field.AllowCustom {
			if v, ok := set.Get(field.ID); ok {
				if s, _ := v.AsString(); s == schema.CustomSentinel {
					companion := schema.CustomFieldID(field.ID)
					if isMissing(set, companion) {
						out = append(out, Missing{ID: companion, Label: labelOf(m, companion)})
					}
				}
			}
		}
	}
	return out
}

// IsStepValid reports whether the module can be advanced past: true iff
// nothing is missing, vacuously true when the module declares no required
// fields.
func IsStepValid(m schema.Module, set answers.AnswerSet) bool {
	return len(MissingOf(m, set)) == 0
}

func isMissing(set answers.AnswerSet, fieldID string) bool {
	v, ok := set.Get(fieldID)
	if !ok {
		return true
	}
	return v.IsEmptyString()
}

// labelOf resolves a field id to its display label by searching the module's
// sections and field groups for the first matching field. Ids with no
// declaration in this module; companions, or fields living in another,
// currently hidden module, fall back to the id itself.
func labelOf(m schema.Module, fieldID string) string {
	for _, field := range m.Fields() {
		if field.ID == fieldID {
			return field.Label
		}
	}
	return fieldID
}
