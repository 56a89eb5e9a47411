// Package markdown defines the contract for the authoring-format parser: a
// best-effort, line-oriented conversion of loosely formatted markdown into a
// flat-section form schema. The implementation lives under
// internal/markdown/parser; construction helpers live in the top-level crf
// package to avoid import cycles.
package markdown

import (
	"time"

	"github.com/clinforms/go-crf/pkg/schema"
)

// Parser converts an authored markdown document into a Schema.
//
// The contract is "never fails, always returns a schema": malformed input
// degrades to omission (unrecognised lines are dropped, fields with no
// resolvable label are skipped) and even garbage input yields a structurally
// valid, possibly empty schema. There is deliberately no error return.
type Parser interface {
	Parse(markdown, formID, version string) schema.Schema
}

// Options configures parser construction.
type Options struct {
	// Clock supplies the timestamp used for fallback ids when a slug comes
	// out empty (labels with no ASCII word characters). Defaults to time.Now.
	// Two fields parsed within the same millisecond can collide; ids are
	// compatibility-sensitive, so the scheme stays as published rather
	// than being fixed.
	Clock func() time.Time
}

// Option mutates Options during construction.
type Option func(*Options)

// WithClock overrides the fallback-id clock, chiefly for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(opts *Options) {
		opts.Clock = clock
	}
}

// NewOptions applies Option functions over the defaults.
func NewOptions(options ...Option) Options {
	cfg := Options{Clock: time.Now}
	for _, opt := range options {
		opt(&cfg)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return cfg
}
