// Package schema defines the data model for clinical case-report forms:
// modules (steps) containing sections, field groups, and fields, plus the
// conditional-visibility rules that link them to live answers. The types are
// pure data; evaluation lives in pkg/visibility and pkg/step. Schemas are
// immutable once parsed or loaded; authoring changes produce a new version.
package schema
