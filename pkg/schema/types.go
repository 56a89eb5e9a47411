package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FieldType enumerates the closed set of input kinds a form can declare.
type FieldType string

const (
	FieldTypeText          FieldType = "text"
	FieldTypeTextarea      FieldType = "textarea"
	FieldTypeNumber        FieldType = "number"
	FieldTypeDate          FieldType = "date"
	FieldTypeTime          FieldType = "time"
	FieldTypeDateTime      FieldType = "datetime"
	FieldTypeRadio         FieldType = "radio"
	FieldTypeCheckbox      FieldType = "checkbox"
	FieldTypeCheckboxGroup FieldType = "checkbox-group"
	FieldTypeSelect        FieldType = "select"
)

// IsChoice reports whether the type carries an options list.
func (t FieldType) IsChoice() bool {
	switch t {
	case FieldTypeRadio, FieldTypeCheckboxGroup, FieldTypeSelect:
		return true
	}
	return false
}

// Operator is the comparison applied by a visibility condition.
type Operator string

const (
	OperatorEquals    Operator = "equals"
	OperatorNotEquals Operator = "notEquals"
	// In and NotIn are accepted on field-level conditions only.
	OperatorIn    Operator = "in"
	OperatorNotIn Operator = "notIn"
)

// ConditionValue holds the right-hand side of a condition: a single string for
// equals/notEquals, a string list for in/notIn. The JSON form is a bare string
// or a string array to match the published schema shape.
type ConditionValue struct {
	One  string
	Many []string
}

// MarshalJSON emits a string when the value is scalar, an array otherwise.
func (v ConditionValue) MarshalJSON() ([]byte, error) {
	if v.Many != nil {
		return json.Marshal(v.Many)
	}
	return json.Marshal(v.One)
}

// UnmarshalJSON accepts a string or an array of strings.
func (v *ConditionValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var many []string
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return fmt.Errorf("schema: condition value: %w", err)
		}
		v.One = ""
		v.Many = many
		return nil
	}
	var one string
	if err := json.Unmarshal(trimmed, &one); err != nil {
		return fmt.Errorf("schema: condition value: %w", err)
	}
	v.One = one
	v.Many = nil
	return nil
}

// Condition makes a node's visibility depend on another field's current
// answer. It is evaluated against the answer set, never against the schema.
type Condition struct {
	Field    string         `json:"field"`
	Operator Operator       `json:"operator"`
	Value    ConditionValue `json:"value"`
}

// Option is a single selectable value/label pair for choice fields.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Field is the atomic input unit of a form.
//
// Choice types (radio, checkbox-group, select) carry a non-empty Options list.
// A select with AllowCustom set gains an implicit companion field whose id is
// CustomFieldID(ID); the companion becomes required while the select holds the
// CustomSentinel value.
type Field struct {
	ID          string     `json:"id"`
	Type        FieldType  `json:"type"`
	Label       string     `json:"label"`
	Required    bool       `json:"required,omitempty"`
	Options     []Option   `json:"options,omitempty"`
	Unit        string     `json:"unit,omitempty"`
	Placeholder string     `json:"placeholder,omitempty"`
	HelpText    string     `json:"helpText,omitempty"`
	AllowCustom bool       `json:"allowCustom,omitempty"`
	VisibleWhen *Condition `json:"visibleWhen,omitempty"`
}

// FieldGroup is a purely presentational grouping of fields. Groups have no
// independent visibility.
type FieldGroup struct {
	ID     string  `json:"id"`
	Title  string  `json:"title,omitempty"`
	Fields []Field `json:"fields"`
}

// Section is a titled grouping of field groups inside a module.
type Section struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	VisibleWhen *Condition   `json:"visibleWhen,omitempty"`
	FieldGroups []FieldGroup `json:"fieldGroups"`
}

// Module is the top-level step unit of the multi-step flow: one screen at a
// time.
type Module struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	VisibleWhen *Condition `json:"visibleWhen,omitempty"`
	Sections    []Section  `json:"sections"`
}

// Schema is the complete definition of a form. Instances are immutable once
// loaded or parsed; authoring edits produce a new version rather than mutating
// in place.
//
// Modules is the published, multi-step shape. Sections is the flat authoring
// variant produced by the markdown parser, which cannot express modules. A
// schema populates one or the other; Steps bridges both for the step engine.
type Schema struct {
	FormID      string    `json:"formId"`
	Title       string    `json:"title"`
	Version     string    `json:"version"`
	Description string    `json:"description,omitempty"`
	Modules     []Module  `json:"modules,omitempty"`
	Sections    []Section `json:"sections,omitempty"`
}

// Steps returns the ordered step modules. Flat schemas collapse into a single
// synthetic module so the evaluator and validator can treat both shapes alike.
func (s Schema) Steps() []Module {
	if len(s.Modules) > 0 {
		return s.Modules
	}
	if len(s.Sections) == 0 {
		return nil
	}
	return []Module{{
		ID:       s.FormID,
		Title:    s.Title,
		Sections: s.Sections,
	}}
}

// CustomSentinel is the select value that reveals the free-text companion of
// an allowCustom field.
const CustomSentinel = "other"

// CustomFieldID derives the implicit companion field id for an allowCustom
// select.
func CustomFieldID(fieldID string) string {
	return fieldID + "_custom"
}
