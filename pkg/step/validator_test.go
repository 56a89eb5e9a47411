package step_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/step"
)

func moduleWith(fields ...schema.Field) schema.Module {
	return schema.Module{
		ID:    "m",
		Title: "Step",
		Sections: []schema.Section{{
			ID:    "s",
			Title: "Section",
			FieldGroups: []schema.FieldGroup{{
				ID:     "g",
				Fields: fields,
			}},
		}},
	}
}

func TestRequiredFieldsOf(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "name", Type: schema.FieldTypeText, Label: "Name", Required: true},
		schema.Field{ID: "note", Type: schema.FieldTypeTextarea, Label: "Note"},
		schema.Field{ID: "age", Type: schema.FieldTypeNumber, Label: "Age", Required: true},
	)

	if diff := cmp.Diff([]string{"name", "age"}, step.RequiredFieldsOf(m)); diff != "" {
		t.Fatalf("required fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingOfReportsAbsentAndEmpty(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "name", Type: schema.FieldTypeText, Label: "Name", Required: true},
		schema.Field{ID: "age", Type: schema.FieldTypeNumber, Label: "Age", Required: true},
	)

	set := answers.New()
	set.Set("name", answers.String("")) // present but empty

	got := step.MissingOf(m, set)
	want := []step.Missing{
		{ID: "name", Label: "Name"},
		{ID: "age", Label: "Age"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
	if step.IsStepValid(m, set) {
		t.Fatalf("step must be invalid while fields are missing")
	}

	set.Set("name", answers.String("Zhang"))
	set.Set("age", answers.Number(63))
	if !step.IsStepValid(m, set) {
		t.Fatalf("step should be valid once filled")
	}
}

func TestNullAnswerBlocksRequiredField(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "name", Type: schema.FieldTypeText, Label: "Name", Required: true},
	)

	// A persisted payload can carry explicit nulls; they must read as
	// unanswered, not as some zero value.
	set, err := answers.DecodeJSON([]byte(`{"name": null}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if step.IsStepValid(m, set) {
		t.Fatalf("null answer must not satisfy a required field")
	}
	got := step.MissingOf(m, set)
	want := []step.Missing{{ID: "name", Label: "Name"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}
}

func TestMissingOfIgnoresBooleansAndArrays(t *testing.T) {
	t.Parallel()

	// Documents inherited behaviour: the emptiness check is literal string
	// emptiness, so a required checkbox at false and a required
	// checkbox-group with zero selections never register as missing.
	m := moduleWith(
		schema.Field{ID: "consent", Type: schema.FieldTypeCheckbox, Label: "Consent", Required: true},
		schema.Field{ID: "interventions", Type: schema.FieldTypeCheckboxGroup, Label: "Interventions", Required: true,
			Options: []schema.Option{{Value: "cpr", Label: "CPR"}}},
	)

	set := answers.New()
	set.Set("consent", answers.Bool(false))
	set.Set("interventions", answers.StringList())

	if got := step.MissingOf(m, set); len(got) != 0 {
		t.Fatalf("bool/array values must not count as missing, got %v", got)
	}
	if !step.IsStepValid(m, set) {
		t.Fatalf("step must be valid despite false/empty answers")
	}
}

func TestVacuouslyValidWithoutRequiredFields(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "note", Type: schema.FieldTypeTextarea, Label: "Note"},
	)

	if !step.IsStepValid(m, answers.New()) {
		t.Fatalf("module without required fields must be valid")
	}

	set := answers.New()
	set.Set("unrelated", answers.String("x"))
	if !step.IsStepValid(m, set) {
		t.Fatalf("validity must not depend on unrelated answers")
	}
}

func TestCustomCompanionRequiredOnlyForSentinel(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "hospital", Type: schema.FieldTypeSelect, Label: "Hospital", Required: true, AllowCustom: true,
			Options: []schema.Option{
				{Value: "general", Label: "General"},
				{Value: "other", Label: "Other"},
			}},
	)

	set := answers.New()
	set.Set("hospital", answers.String("other"))

	got := step.MissingOf(m, set)
	// Companion has no declared field, so its id doubles as the label.
	want := []step.Missing{{ID: "hospital_custom", Label: "hospital_custom"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("missing mismatch (-want +got):\n%s", diff)
	}

	// A concrete option clears the companion requirement even if the
	// companion is still empty.
	set.Set("hospital", answers.String("general"))
	if got := step.MissingOf(m, set); len(got) != 0 {
		t.Fatalf("non-sentinel value must not require the companion, got %v", got)
	}

	set.Set("hospital", answers.String("other"))
	set.Set("hospital_custom", answers.String("County Hospital"))
	if got := step.MissingOf(m, set); len(got) != 0 {
		t.Fatalf("filled companion should satisfy the rule, got %v", got)
	}
}

func TestMissingEqualsValidAgreement(t *testing.T) {
	t.Parallel()

	m := moduleWith(
		schema.Field{ID: "name", Type: schema.FieldTypeText, Label: "Name", Required: true},
	)

	sets := []answers.AnswerSet{
		answers.New(),
		func() answers.AnswerSet { s := answers.New(); s.Set("name", answers.String("")); return s }(),
		func() answers.AnswerSet { s := answers.New(); s.Set("name", answers.String("x")); return s }(),
	}
	for i, set := range sets {
		missing := step.MissingOf(m, set)
		if (len(missing) == 0) != step.IsStepValid(m, set) {
			t.Fatalf("case %d: MissingOf and IsStepValid disagree", i)
		}
	}
}
