// Package crf is the entry point for the clinical case-report form engine: it
// wires the public contracts under pkg/ to the implementations under
// internal/ so consumers never import internal packages directly.
package crf

import (
	"context"

	internalparser "github.com/clinforms/go-crf/internal/markdown/parser"
	internalconverter "github.com/clinforms/go-crf/internal/openapi/converter"
	"github.com/clinforms/go-crf/pkg/loader"
	pkgmarkdown "github.com/clinforms/go-crf/pkg/markdown"
	pkgopenapi "github.com/clinforms/go-crf/pkg/openapi"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/session"
)

// NewMarkdownParser constructs the authoring-format parser backed by the
// internal implementation.
func NewMarkdownParser(options ...pkgmarkdown.Option) pkgmarkdown.Parser {
	cfg := pkgmarkdown.NewOptions(options...)
	return internalparser.New(cfg)
}

// ParseMarkdown is shorthand for one-off conversions of an authored document.
func ParseMarkdown(markdown, formID, version string) schema.Schema {
	return NewMarkdownParser().Parse(markdown, formID, version)
}

// NewOpenAPIConverter constructs the OpenAPI-to-form converter backed by the
// internal implementation.
func NewOpenAPIConverter(options ...pkgopenapi.Option) pkgopenapi.Converter {
	cfg := pkgopenapi.NewOptions(options...)
	return internalconverter.New(cfg)
}

// LoadSchema reads and decodes a schema document from disk.
func LoadSchema(ctx context.Context, path string) (schema.Schema, error) {
	return loader.New().Load(ctx, schema.SourceFromFile(path))
}

// NewSession starts a fill session over a schema.
func NewSession(s schema.Schema, options ...session.Option) *session.Session {
	return session.New(s, options...)
}
