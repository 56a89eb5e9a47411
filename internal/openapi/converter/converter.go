package converter

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"

	pkgopenapi "github.com/clinforms/go-crf/pkg/openapi"
	"github.com/clinforms/go-crf/pkg/schema"
)

// Converter implements pkgopenapi.Converter using kin-openapi.
type Converter struct {
	options pkgopenapi.Options
}

// Ensure the implementation satisfies the public interface.
var _ pkgopenapi.Converter = (*Converter)(nil)

// New constructs a Converter with the given options.
func New(options pkgopenapi.Options) *Converter {
	return &Converter{options: options}
}

// Convert loads the document, locates the requested object schema, and maps
// its properties onto a single-module form. Nested object properties become
// their own sections; scalar properties land in a default section.
func (c *Converter) Convert(ctx context.Context, doc []byte, req pkgopenapi.ConvertRequest) (schema.Schema, error) {
	if err := ctx.Err(); err != nil {
		return schema.Schema{}, err
	}
	if len(doc) == 0 {
		return schema.Schema{}, errors.New("openapi converter: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: c.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(doc)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("openapi converter: load document: %w", err)
	}
	if c.options.ResolveReferences {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return schema.Schema{}, fmt.Errorf("openapi converter: validate: %w", err)
		}
	}

	root, title, err := c.locate(spec, req)
	if err != nil {
		return schema.Schema{}, err
	}

	out := schema.Schema{
		FormID:      req.FormID,
		Title:       title,
		Version:     req.Version,
		Description: root.Description,
	}
	module := schema.Module{
		ID:    req.FormID,
		Title: title,
	}

	var defaultFields []schema.Field
	for _, name := range sortedPropertyNames(root) {
		property := root.Properties[name]
		if property == nil || property.Value == nil {
			continue
		}
		if isObject(property.Value) {
			module.Sections = append(module.Sections, convertSection(name, property.Value))
			continue
		}
		defaultFields = append(defaultFields, convertField(name, property.Value, required(root, name)))
	}
	if len(defaultFields) > 0 {
		// The default section goes first so scalar properties lead the form.
		sections := []schema.Section{{
			ID:    req.FormID + "_general",
			Title: title,
			FieldGroups: []schema.FieldGroup{{
				ID:     req.FormID + "_general_fields",
				Fields: defaultFields,
			}},
		}}
		module.Sections = append(sections, module.Sections...)
	}

	out.Modules = []schema.Module{module}
	return out, nil
}

// locate returns the object schema the request names plus a display title.
func (c *Converter) locate(spec *openapi3.T, req pkgopenapi.ConvertRequest) (*openapi3.Schema, string, error) {
	if req.Component != "" {
		if spec.Components == nil || spec.Components.Schemas[req.Component] == nil {
			return nil, "", fmt.Errorf("openapi converter: component schema %q not found", req.Component)
		}
		ref := spec.Components.Schemas[req.Component]
		if ref.Value == nil {
			return nil, "", fmt.Errorf("openapi converter: component schema %q is an unresolved reference", req.Component)
		}
		title := ref.Value.Title
		if title == "" {
			title = req.Component
		}
		return ref.Value, title, nil
	}

	if spec.Paths != nil {
		for _, path := range spec.Paths.InMatchingOrder() {
			item := spec.Paths.Value(path)
			if item == nil || item.Post == nil {
				continue
			}
			body := requestBodySchema(item.Post.RequestBody)
			if body == nil {
				continue
			}
			title := body.Title
			if title == "" {
				title = item.Post.Summary
			}
			return body, title, nil
		}
	}
	return nil, "", errors.New("openapi converter: no component named and no POST request body found")
}

func requestBodySchema(ref *openapi3.RequestBodyRef) *openapi3.Schema {
	if ref == nil || ref.Value == nil {
		return nil
	}
	for _, mediaType := range []string{"application/json", "application/x-www-form-urlencoded", "multipart/form-data"} {
		if mt, ok := ref.Value.Content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	for _, mt := range ref.Value.Content {
		if mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

func convertSection(name string, src *openapi3.Schema) schema.Section {
	title := src.Title
	if title == "" {
		title = name
	}
	var fields []schema.Field
	for _, propName := range sortedPropertyNames(src) {
		property := src.Properties[propName]
		if property == nil || property.Value == nil || isObject(property.Value) {
			// One level of nesting only; deeper objects have no form shape.
			continue
		}
		fields = append(fields, convertField(propName, property.Value, required(src, propName)))
	}
	return schema.Section{
		ID:          name,
		Title:       title,
		Description: src.Description,
		FieldGroups: []schema.FieldGroup{{
			ID:     name + "_fields",
			Fields: fields,
		}},
	}
}

func convertField(name string, src *openapi3.Schema, isRequired bool) schema.Field {
	field := schema.Field{
		ID:       name,
		Label:    labelOf(name, src),
		Required: isRequired,
		HelpText: src.Description,
	}

	switch typeOf(src) {
	case "boolean":
		field.Type = schema.FieldTypeCheckbox
	case "number", "integer":
		field.Type = schema.FieldTypeNumber
	case "array":
		field.Type = schema.FieldTypeCheckboxGroup
		if src.Items != nil && src.Items.Value != nil {
			field.Options = enumOptions(src.Items.Value.Enum)
		}
	default:
		field.Type = stringFieldType(src)
		if len(src.Enum) > 0 {
			field.Type = schema.FieldTypeSelect
			field.Options = enumOptions(src.Enum)
		}
	}
	return field
}

func stringFieldType(src *openapi3.Schema) schema.FieldType {
	switch src.Format {
	case "date":
		return schema.FieldTypeDate
	case "time":
		return schema.FieldTypeTime
	case "date-time":
		return schema.FieldTypeDateTime
	}
	if src.MaxLength != nil && *src.MaxLength > longTextThreshold {
		return schema.FieldTypeTextarea
	}
	return schema.FieldTypeText
}

// Strings allowed to grow past a form input's comfortable width render as a
// multi-line widget.
const longTextThreshold = 255

func enumOptions(values []any) []schema.Option {
	if len(values) == 0 {
		return nil
	}
	options := make([]schema.Option, 0, len(values))
	for _, v := range values {
		label := fmt.Sprintf("%v", v)
		options = append(options, schema.Option{Value: label, Label: label})
	}
	return options
}

func labelOf(name string, src *openapi3.Schema) string {
	if src.Title != "" {
		return src.Title
	}
	return name
}

func typeOf(src *openapi3.Schema) string {
	if src.Type == nil {
		return ""
	}
	values := src.Type.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func isObject(src *openapi3.Schema) bool {
	return typeOf(src) == "object" || (typeOf(src) == "" && len(src.Properties) > 0)
}

func required(parent *openapi3.Schema, name string) bool {
	for _, r := range parent.Required {
		if r == name {
			return true
		}
	}
	return false
}

func sortedPropertyNames(src *openapi3.Schema) []string {
	names := make([]string, 0, len(src.Properties))
	for name := range src.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
