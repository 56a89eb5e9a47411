// Package answers models the mutable answer set of a case, the flat mapping
// from field id to user-entered value, along with the persistence contract the
// form engine depends on. Values are a tagged union of the four wire shapes rather
// than an untyped map, and decoded payloads can be checked against the
// schema's declared field types.
package answers

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/clinforms/go-crf/pkg/schema"
)

// AnswerSet maps field ids to their current values. It is created empty,
// mutated field by field while the case is a draft, and becomes read-only once
// the case is submitted. The engine never clears answers for fields that
// become invisible; hidden-but-filled fields still drive sibling visibility.
type AnswerSet map[string]Value

// New returns an empty answer set.
func New() AnswerSet {
	return make(AnswerSet)
}

// Get returns the value for a field id.
func (a AnswerSet) Get(fieldID string) (Value, bool) {
	v, ok := a[fieldID]
	return v, ok
}

// Set stores a value, replacing any previous one.
func (a AnswerSet) Set(fieldID string, v Value) {
	a[fieldID] = v
}

// Delete removes a field's answer entirely.
func (a AnswerSet) Delete(fieldID string) {
	delete(a, fieldID)
}

// Clone returns an independent copy. Stores and autosave snapshots clone so
// in-flight saves never observe later edits.
func (a AnswerSet) Clone() AnswerSet {
	if a == nil {
		return nil
	}
	out := make(AnswerSet, len(a))
	for k, v := range a {
		if v.kind == KindStringList {
			v.list = append([]string(nil), v.list...)
		}
		out[k] = v
	}
	return out
}

// DecodeJSON parses a wholesale answer payload: a flat JSON object whose
// values are strings, numbers, booleans, or string arrays.
func DecodeJSON(data []byte) (AnswerSet, error) {
	if len(data) == 0 {
		return New(), nil
	}
	var set AnswerSet
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("answers: decode payload: %w", err)
	}
	if set == nil {
		set = New()
	}
	return set, nil
}

// EncodeJSON serialises the set to the flat wire object.
func (a AnswerSet) EncodeJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("answers: encode payload: %w", err)
	}
	return data, nil
}

// Mismatch reports a stored value whose shape disagrees with the schema's
// declared field type.
type Mismatch struct {
	FieldID string
	Kind    Kind
	Want    schema.FieldType
}

func (m Mismatch) String() string {
	return fmt.Sprintf("field %q holds %s, schema declares %s", m.FieldID, m.Kind, m.Want)
}

// Conform checks a loaded answer set against the schema's field declarations.
// Unknown field ids are ignored (answers may outlive schema versions, and
// allowCustom companions are not declared). Mismatches are advisory, sorted by
// field id for stable output.
func Conform(set AnswerSet, s schema.Schema) []Mismatch {
	var out []Mismatch
	s.WalkFields(func(f schema.Field) bool {
		v, ok := set[f.ID]
		if !ok {
			return true
		}
		if !kindMatches(v.Kind(), f) {
			out = append(out, Mismatch{FieldID: f.ID, Kind: v.Kind(), Want: f.Type})
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].FieldID < out[j].FieldID })
	return out
}

func kindMatches(k Kind, f schema.Field) bool {
	switch f.Type {
	case schema.FieldTypeNumber:
		// Numeric inputs arrive as strings from text widgets; both are valid.
		return k == KindNumber || k == KindString
	case schema.FieldTypeCheckbox:
		// Glyph-authored checkboxes carry options and collect multiple values;
		// a bare checkbox is a single toggle.
		if len(f.Options) > 0 {
			return k == KindStringList
		}
		return k == KindBool
	case schema.FieldTypeCheckboxGroup:
		return k == KindStringList
	default:
		return k == KindString
	}
}
