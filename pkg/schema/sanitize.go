package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(textPolicy.Sanitize(trimmed))
}

// Sanitize returns a copy of the schema with all author-facing strings
// (titles, descriptions, labels, help text, option labels) stripped of markup.
// Authored documents pass through untrusted hands before publication, so
// loaders run this before handing a schema to the engine.
func Sanitize(s Schema) Schema {
	out := s
	out.Title = sanitizeText(s.Title)
	out.Description = sanitizeText(s.Description)
	out.Modules = sanitizeModules(s.Modules)
	out.Sections = sanitizeSections(s.Sections)
	return out
}

func sanitizeModules(modules []Module) []Module {
	if modules == nil {
		return nil
	}
	out := make([]Module, len(modules))
	for i, module := range modules {
		module.Title = sanitizeText(module.Title)
		module.Description = sanitizeText(module.Description)
		module.Sections = sanitizeSections(module.Sections)
		out[i] = module
	}
	return out
}

func sanitizeSections(sections []Section) []Section {
	if sections == nil {
		return nil
	}
	out := make([]Section, len(sections))
	for i, section := range sections {
		section.Title = sanitizeText(section.Title)
		section.Description = sanitizeText(section.Description)
		groups := make([]FieldGroup, len(section.FieldGroups))
		for gi, group := range section.FieldGroups {
			group.Title = sanitizeText(group.Title)
			fields := make([]Field, len(group.Fields))
			for fi, field := range group.Fields {
				field.Label = sanitizeText(field.Label)
				field.HelpText = sanitizeText(field.HelpText)
				field.Placeholder = sanitizeText(field.Placeholder)
				if field.Options != nil {
					options := make([]Option, len(field.Options))
					for oi, option := range field.Options {
						option.Label = sanitizeText(option.Label)
						options[oi] = option
					}
					field.Options = options
				}
				fields[fi] = field
			}
			group.Fields = fields
			groups[gi] = group
		}
		section.FieldGroups = groups
		out[i] = section
	}
	return out
}
