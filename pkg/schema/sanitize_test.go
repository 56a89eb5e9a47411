package schema_test

import (
	"testing"

	"github.com/clinforms/go-crf/pkg/schema"
)

func TestSanitizeStripsMarkup(t *testing.T) {
	t.Parallel()

	s := schema.Schema{
		Title: `Registry <script>alert(1)</script>`,
		Modules: []schema.Module{{
			ID:    "m1",
			Title: "<b>Step</b>",
			Sections: []schema.Section{{
				ID:    "s1",
				Title: "Section",
				FieldGroups: []schema.FieldGroup{{
					ID: "g1",
					Fields: []schema.Field{{
						ID:       "age",
						Type:     schema.FieldTypeNumber,
						Label:    `Age <img src=x onerror="x()">`,
						HelpText: "<a href='http://x'>help</a>",
						Options:  []schema.Option{{Value: "v", Label: "<i>italic</i>"}},
					}},
				}},
			}},
		}},
	}

	clean := schema.Sanitize(s)
	if clean.Title != "Registry" {
		t.Fatalf("title = %q", clean.Title)
	}
	if clean.Modules[0].Title != "Step" {
		t.Fatalf("module title = %q", clean.Modules[0].Title)
	}
	field := clean.Modules[0].Sections[0].FieldGroups[0].Fields[0]
	if field.Label != "Age" {
		t.Fatalf("label = %q", field.Label)
	}
	if field.HelpText != "help" {
		t.Fatalf("helpText = %q", field.HelpText)
	}
	if field.Options[0].Label != "italic" {
		t.Fatalf("option label = %q", field.Options[0].Label)
	}

	// Original is untouched.
	if s.Modules[0].Title != "<b>Step</b>" {
		t.Fatalf("sanitize mutated its input")
	}
}
