// Package testsupport bundles shared fixtures for the engine's test suites: a
// small cardiac-arrest registry schema with branching modules and a matching
// markdown authoring document.
package testsupport

import (
	"encoding/json"
	"testing"

	"github.com/clinforms/go-crf/pkg/schema"
)

// RegistrySchema returns a three-module case-report form. The second and third
// modules branch on arrestType, which makes the fixture useful for visibility
// and step-flow tests.
func RegistrySchema() schema.Schema {
	return schema.Schema{
		FormID:  "crf-registry",
		Title:   "Cardiac Arrest Registry",
		Version: "1.0.0",
		Modules: []schema.Module{
			{
				ID:    "base",
				Title: "Baseline",
				Sections: []schema.Section{{
					ID:    "patient",
					Title: "Patient",
					FieldGroups: []schema.FieldGroup{{
						ID: "patient_fields",
						Fields: []schema.Field{
							{ID: "patientName", Type: schema.FieldTypeText, Label: "Patient Name", Required: true},
							{ID: "age", Type: schema.FieldTypeNumber, Label: "Age", Unit: "years"},
							{ID: "arrestType", Type: schema.FieldTypeRadio, Label: "Arrest Type", Required: true,
								Options: []schema.Option{
									{Value: "OHCA", Label: "Out-of-hospital"},
									{Value: "IHCA", Label: "In-hospital"},
								}},
						},
					}},
				}},
			},
			{
				ID:    "ohca",
				Title: "Out-of-hospital Details",
				VisibleWhen: &schema.Condition{
					Field:    "arrestType",
					Operator: schema.OperatorEquals,
					Value:    schema.ConditionValue{One: "OHCA"},
				},
				Sections: []schema.Section{{
					ID:    "prehospital",
					Title: "Pre-hospital",
					FieldGroups: []schema.FieldGroup{{
						ID: "prehospital_fields",
						Fields: []schema.Field{
							{ID: "bystanderCPR", Type: schema.FieldTypeRadio, Label: "Bystander CPR", Required: true,
								Options: []schema.Option{
									{Value: "yes", Label: "Yes"},
									{Value: "no", Label: "No"},
								}},
							{ID: "responseTime", Type: schema.FieldTypeNumber, Label: "Response Time", Unit: "min"},
						},
					}},
				}},
			},
			{
				ID:    "ihca",
				Title: "In-hospital Details",
				VisibleWhen: &schema.Condition{
					Field:    "arrestType",
					Operator: schema.OperatorEquals,
					Value:    schema.ConditionValue{One: "IHCA"},
				},
				Sections: []schema.Section{{
					ID:    "ward",
					Title: "Ward",
					FieldGroups: []schema.FieldGroup{{
						ID: "ward_fields",
						Fields: []schema.Field{
							{ID: "location", Type: schema.FieldTypeSelect, Label: "Location", Required: true,
								AllowCustom: true,
								Options: []schema.Option{
									{Value: "icu", Label: "ICU"},
									{Value: "er", Label: "Emergency Room"},
									{Value: "ward", Label: "General Ward"},
								}},
						},
					}},
				}},
			},
			{
				ID:    "outcome",
				Title: "Outcome",
				Sections: []schema.Section{{
					ID:    "disposition",
					Title: "Disposition",
					FieldGroups: []schema.FieldGroup{{
						ID: "disposition_fields",
						Fields: []schema.Field{
							{ID: "rosc", Type: schema.FieldTypeCheckbox, Label: "ROSC achieved"},
							{ID: "dischargeDate", Type: schema.FieldTypeDate, Label: "Discharge Date",
								VisibleWhen: &schema.Condition{
									Field:    "rosc",
									Operator: schema.OperatorEquals,
									Value:    schema.ConditionValue{One: "true"},
								}},
						},
					}},
				}},
			},
		},
	}
}

// RegistryMarkdown is an authoring document whose parse result resembles the
// baseline module of RegistrySchema.
const RegistryMarkdown = "### Cardiac Arrest Registry\n" +
	"#### Patient\n" +
	"1. **Patient Name：**[填空]\n" +
	"2. **Age：**[数字]\n" +
	"3. **Arrest Type：**\n" +
	"○ OHCA\n" +
	"○ IHCA\n" +
	"#### Outcome\n" +
	"1. **Interventions：**\n" +
	"□ CPR\n" +
	"□ Defibrillation\n" +
	"2. **Notes：**[长文本]\n"

// MustJSON marshals the value or fails the test.
func MustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return raw
}
