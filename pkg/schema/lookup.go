package schema

import "fmt"

// WalkFields visits every field in schema order, including fields of the flat
// section variant. Returning false stops the walk.
func (s Schema) WalkFields(visit func(Field) bool) {
	for _, module := range s.Steps() {
		for _, section := range module.Sections {
			for _, group := range section.FieldGroups {
				for _, field := range group.Fields {
					if !visit(field) {
						return
					}
				}
			}
		}
	}
}

// FieldByID returns the first field with the given id, searching all modules.
func (s Schema) FieldByID(id string) (Field, bool) {
	var (
		found Field
		ok    bool
	)
	s.WalkFields(func(f Field) bool {
		if f.ID == id {
			found = f
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// Fields flattens a module's fields in declaration order.
func (m Module) Fields() []Field {
	var out []Field
	for _, section := range m.Sections {
		for _, group := range section.FieldGroups {
			out = append(out, group.Fields...)
		}
	}
	return out
}

// Issue describes a structural problem found by Validate. Issues are advisory:
// a schema with issues still evaluates, with dangling references resolving to
// not-visible at runtime.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Validate lints the schema: choice fields must carry options, allowCustom is
// select-only, every visibleWhen must reference a declared field, and the
// membership operators (in/notIn) are accepted on field conditions only.
func (s Schema) Validate() []Issue {
	ids := make(map[string]struct{})
	s.WalkFields(func(f Field) bool {
		ids[f.ID] = struct{}{}
		if f.AllowCustom {
			ids[CustomFieldID(f.ID)] = struct{}{}
		}
		return true
	})

	var issues []Issue
	checkCondition := func(path string, cond *Condition, fieldLevel bool) {
		if cond == nil {
			return
		}
		if _, ok := ids[cond.Field]; !ok {
			issues = append(issues, Issue{
				Path:    path,
				Field:   cond.Field,
				Message: fmt.Sprintf("visibleWhen references unknown field %q", cond.Field),
			})
		}
		if !fieldLevel && (cond.Operator == OperatorIn || cond.Operator == OperatorNotIn) {
			issues = append(issues, Issue{
				Path:    path,
				Field:   cond.Field,
				Message: fmt.Sprintf("operator %q is only valid on field conditions", cond.Operator),
			})
		}
	}

	for mi, module := range s.Steps() {
		modulePath := fmt.Sprintf("modules[%d]", mi)
		checkCondition(modulePath, module.VisibleWhen, false)
		for si, section := range module.Sections {
			sectionPath := fmt.Sprintf("%s.sections[%d]", modulePath, si)
			checkCondition(sectionPath, section.VisibleWhen, false)
			for gi, group := range section.FieldGroups {
				for fi, field := range group.Fields {
					fieldPath := fmt.Sprintf("%s.fieldGroups[%d].fields[%d]", sectionPath, gi, fi)
					checkCondition(fieldPath, field.VisibleWhen, true)
					if field.Type.IsChoice() && len(field.Options) == 0 {
						issues = append(issues, Issue{
							Path:    fieldPath,
							Field:   field.ID,
							Message: fmt.Sprintf("%s field has no options", field.Type),
						})
					}
					if field.AllowCustom && field.Type != FieldTypeSelect {
						issues = append(issues, Issue{
							Path:    fieldPath,
							Field:   field.ID,
							Message: "allowCustom is only valid on select fields",
						})
					}
				}
			}
		}
	}
	return issues
}
