package visibility

import (
	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
)

// IsVisible evaluates a node's condition against the current answers.
//
// A nil condition is always visible. Comparison is strict string equality
// with no type coercion, so a numeric or boolean answer never equals a string
// condition value. An unset field compares unequal to everything, which makes
// notEquals conditions visible by default, an asymmetry the contract fixes
// deliberately. A condition referencing a field that exists nowhere in the
// schema behaves the same way: not-visible for equals, visible for notEquals.
func IsVisible(cond *schema.Condition, set answers.AnswerSet) bool {
	if cond == nil {
		return true
	}

	current, present := set[cond.Field]

	switch cond.Operator {
	case schema.OperatorEquals:
		return present && equalsString(current, cond.Value.One)
	case schema.OperatorNotEquals:
		return !present || !equalsString(current, cond.Value.One)
	case schema.OperatorIn:
		return present && inList(current, cond.Value.Many)
	case schema.OperatorNotIn:
		return !present || !inList(current, cond.Value.Many)
	default:
		// Unknown operators fail open: an unrecognised condition is treated
		// as unconditional.
		return true
	}
}

func equalsString(v answers.Value, want string) bool {
	s, ok := v.AsString()
	return ok && s == want
}

func inList(v answers.Value, list []string) bool {
	s, ok := v.AsString()
	if !ok {
		return false
	}
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// VisibleModules projects the ordered list of currently visible step modules.
func VisibleModules(s schema.Schema, set answers.AnswerSet) []schema.Module {
	var out []schema.Module
	for _, module := range s.Steps() {
		if IsVisible(module.VisibleWhen, set) {
			out = append(out, module)
		}
	}
	return out
}

// VisibleSections projects a module's currently visible sections.
func VisibleSections(m schema.Module, set answers.AnswerSet) []schema.Section {
	var out []schema.Section
	for _, section := range m.Sections {
		if IsVisible(section.VisibleWhen, set) {
			out = append(out, section)
		}
	}
	return out
}

// VisibleFields projects a group's currently visible fields. Field groups
// themselves carry no visibility of their own.
func VisibleFields(g schema.FieldGroup, set answers.AnswerSet) []schema.Field {
	var out []schema.Field
	for _, field := range g.Fields {
		if IsVisible(field.VisibleWhen, set) {
			out = append(out, field)
		}
	}
	return out
}
