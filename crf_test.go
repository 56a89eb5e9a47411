package crf_test

import (
	"context"
	"testing"

	crf "github.com/clinforms/go-crf"
	"github.com/clinforms/go-crf/pkg/loader"
	"github.com/clinforms/go-crf/pkg/openapi"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/testsupport"
)

func TestParseMarkdownFacade(t *testing.T) {
	t.Parallel()

	s := crf.ParseMarkdown(testsupport.RegistryMarkdown, "crf-registry", "1.0.0")
	if s.Title != "Cardiac Arrest Registry" {
		t.Fatalf("title = %q", s.Title)
	}
	if len(s.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(s.Sections))
	}
	if _, ok := s.FieldByID("Arrest_Type"); !ok {
		t.Fatalf("parsed fields not reachable through lookup")
	}
}

func TestNewSessionFacade(t *testing.T) {
	t.Parallel()

	sess := crf.NewSession(testsupport.RegistrySchema())
	if len(sess.VisibleSteps()) != 2 {
		t.Fatalf("unanswered branch fields should hide both detail modules")
	}
}

func TestFixtureSurvivesDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	raw := testsupport.MustJSON(t, testsupport.RegistrySchema())
	s, err := loader.Decode(raw, "registry.json")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(s.Modules) != 4 {
		t.Fatalf("expected 4 modules, got %d", len(s.Modules))
	}
	if issues := s.Validate(); len(issues) != 0 {
		t.Fatalf("fixture should lint clean: %v", issues)
	}
}

func TestNewOpenAPIConverterFacade(t *testing.T) {
	t.Parallel()

	doc := []byte(`{"openapi":"3.0.3","info":{"title":"t","version":"1"},"paths":{},"components":{"schemas":{"Tiny":{"type":"object","title":"Tiny","properties":{"name":{"type":"string"}}}}}}`)
	s, err := crf.NewOpenAPIConverter().Convert(context.Background(), doc, openapi.ConvertRequest{
		Component: "Tiny",
		FormID:    "tiny",
		Version:   "1",
	})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	field, ok := s.FieldByID("name")
	if !ok || field.Type != schema.FieldTypeText {
		t.Fatalf("unexpected field: %+v", field)
	}
}
