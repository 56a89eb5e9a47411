package schema_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clinforms/go-crf/pkg/schema"
)

func TestSchemaJSONShape(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"formId": "crf-utstein",
		"title": "Cardiac Arrest Registry",
		"version": "1.0.0",
		"modules": [{
			"id": "baseline",
			"title": "Baseline",
			"visibleWhen": {"field": "arrestType", "operator": "equals", "value": "OHCA"},
			"sections": [{
				"id": "patient",
				"title": "Patient",
				"fieldGroups": [{
					"id": "patient_main",
					"fields": [{
						"id": "age",
						"type": "number",
						"label": "Age",
						"required": true,
						"unit": "years"
					}, {
						"id": "hospital",
						"type": "select",
						"label": "Hospital",
						"allowCustom": true,
						"options": [
							{"value": "general", "label": "General"},
							{"value": "other", "label": "Other"}
						]
					}]
				}]
			}]
		}]
	}`)

	var s schema.Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}

	if got, want := s.FormID, "crf-utstein"; got != want {
		t.Fatalf("formId = %q, want %q", got, want)
	}
	module := s.Modules[0]
	if module.VisibleWhen == nil || module.VisibleWhen.Value.One != "OHCA" {
		t.Fatalf("module visibleWhen not decoded: %+v", module.VisibleWhen)
	}
	field := module.Sections[0].FieldGroups[0].Fields[0]
	if field.Type != schema.FieldTypeNumber || field.Unit != "years" {
		t.Fatalf("unexpected field: %+v", field)
	}

	// Round trip must preserve the wire shape.
	encoded, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var again schema.Schema
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("unmarshal round trip: %v", err)
	}
	if diff := cmp.Diff(s, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestConditionValueListForm(t *testing.T) {
	t.Parallel()

	var cond schema.Condition
	raw := []byte(`{"field": "rhythm", "operator": "in", "value": ["vf", "vt"]}`)
	if err := json.Unmarshal(raw, &cond); err != nil {
		t.Fatalf("unmarshal condition: %v", err)
	}
	if diff := cmp.Diff([]string{"vf", "vt"}, cond.Value.Many); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	encoded, err := json.Marshal(cond)
	if err != nil {
		t.Fatalf("marshal condition: %v", err)
	}
	var again schema.Condition
	if err := json.Unmarshal(encoded, &again); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if diff := cmp.Diff(cond, again); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStepsCollapsesFlatSchemas(t *testing.T) {
	t.Parallel()

	flat := schema.Schema{
		FormID:  "crf-basic",
		Title:   "Basic",
		Version: "1",
		Sections: []schema.Section{{
			ID:    "demographics",
			Title: "Demographics",
			FieldGroups: []schema.FieldGroup{{
				ID:     "demographics_fields",
				Fields: []schema.Field{{ID: "name", Type: schema.FieldTypeText, Label: "Name"}},
			}},
		}},
	}

	steps := flat.Steps()
	if len(steps) != 1 {
		t.Fatalf("expected 1 synthetic step, got %d", len(steps))
	}
	if steps[0].ID != "crf-basic" || len(steps[0].Sections) != 1 {
		t.Fatalf("unexpected synthetic module: %+v", steps[0])
	}

	if got := (schema.Schema{}).Steps(); got != nil {
		t.Fatalf("empty schema should have no steps, got %v", got)
	}
}

func TestCustomFieldID(t *testing.T) {
	t.Parallel()

	if got, want := schema.CustomFieldID("hospital"), "hospital_custom"; got != want {
		t.Fatalf("CustomFieldID = %q, want %q", got, want)
	}
}
