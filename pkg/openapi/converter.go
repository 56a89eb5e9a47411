// Package openapi defines the contract for deriving a form schema from an
// OpenAPI document: a named component schema (or a request body) is mapped
// onto a single-module form whose fields mirror the object's properties. The
// implementation lives under internal/openapi/converter; construction helpers
// live in the top-level crf package to avoid import cycles.
package openapi

import (
	"context"

	"github.com/clinforms/go-crf/pkg/schema"
)

// Converter turns an OpenAPI document into a form schema.
type Converter interface {
	Convert(ctx context.Context, doc []byte, opts ConvertRequest) (schema.Schema, error)
}

// ConvertRequest names the piece of the document to convert and the identity
// the resulting schema should carry.
type ConvertRequest struct {
	// Component selects components.schemas[Component]. When empty, the request
	// body of the first POST operation is used instead.
	Component string
	FormID    string
	Version   string
}

// Options configures converter construction.
type Options struct {
	// ResolveReferences controls whether $ref pointers are resolved eagerly.
	// Defaults to true.
	ResolveReferences bool
}

// Option mutates Options during construction.
type Option func(*Options)

// WithReferenceResolution toggles eager reference resolution.
func WithReferenceResolution(enabled bool) Option {
	return func(opts *Options) {
		opts.ResolveReferences = enabled
	}
}

// NewOptions applies Option functions over the defaults.
func NewOptions(options ...Option) Options {
	cfg := Options{ResolveReferences: true}
	for _, opt := range options {
		opt(&cfg)
	}
	return cfg
}
