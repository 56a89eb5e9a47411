package parser

import (
	"fmt"
	"regexp"
	"strings"

	pkgmarkdown "github.com/clinforms/go-crf/pkg/markdown"
	"github.com/clinforms/go-crf/pkg/schema"
)

// Parser implements pkgmarkdown.Parser with a single-pass, stateful scan over
// the document's physical lines.
type Parser struct {
	options pkgmarkdown.Options
}

// Ensure the implementation satisfies the public interface.
var _ pkgmarkdown.Parser = (*Parser)(nil)

// New constructs a Parser with the given options.
func New(options pkgmarkdown.Options) *Parser {
	if options.Clock == nil {
		options = pkgmarkdown.NewOptions()
	}
	return &Parser{options: options}
}

var (
	fieldLinePattern   = regexp.MustCompile(`^\d+\.`)
	fieldLabelPattern  = regexp.MustCompile(`^\d+\.\s+\*\*(.+?)：?\*\*`)
	checkGlyphPattern  = regexp.MustCompile(`^[□☐]`)
	radioGlyphPattern  = regexp.MustCompile(`^[○◯]`)
	optionLinePattern  = regexp.MustCompile(`^[□☐○◯]\s+(.+)$`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
	nonWordRunePattern = regexp.MustCompile(`\W`)
)

// Parse converts the document into a flat-section schema. It never fails:
// lines that fit no production are dropped and the worst possible outcome is
// a schema with an empty section list.
func (p *Parser) Parse(markdown, formID, version string) schema.Schema {
	out := schema.Schema{
		FormID:  formID,
		Version: version,
	}

	lines := strings.Split(markdown, "\n")

	var (
		current       *schema.Section
		currentFields []schema.Field
	)
	closeSection := func() {
		if current == nil {
			return
		}
		current.FieldGroups = []schema.FieldGroup{{
			ID:     current.ID + "_fields",
			Fields: currentFields,
		}}
		out.Sections = append(out.Sections, *current)
		current = nil
		currentFields = nil
	}

	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "### ") {
			// Last occurrence wins; repeated titles are not an error.
			out.Title = strings.TrimSpace(strings.TrimPrefix(line, "### "))
			continue
		}

		if strings.HasPrefix(line, "#### ") {
			closeSection()
			title := strings.TrimSpace(strings.TrimPrefix(line, "#### "))
			current = &schema.Section{
				ID:    p.sectionID(title),
				Title: title,
			}
			continue
		}

		if current != nil && fieldLinePattern.MatchString(line) {
			if field, ok := p.parseField(line, lines, i); ok {
				currentFields = append(currentFields, field)
			}
		}
	}
	closeSection()

	return out
}

func (p *Parser) parseField(line string, allLines []string, index int) (schema.Field, bool) {
	match := fieldLabelPattern.FindStringSubmatch(line)
	if match == nil {
		return schema.Field{}, false
	}
	label := strings.TrimSpace(match[1])

	// The bold markers make '*' a given, so parsed fields come out required in
	// practice. Kept for compatibility with the authoring convention.
	required := strings.Contains(line, "(必填)") || strings.Contains(line, "*")

	fieldType := schema.FieldTypeText
	var options []schema.Option

	// Glyphs on the very next physical line decide choice types before any
	// inline tag is considered.
	if next := index + 1; next < len(allLines) {
		nextLine := strings.TrimSpace(allLines[next])
		switch {
		case checkGlyphPattern.MatchString(nextLine):
			options = p.parseOptions(allLines, next)
			if len(options) > 0 {
				fieldType = schema.FieldTypeCheckbox
			}
		case radioGlyphPattern.MatchString(nextLine):
			options = p.parseOptions(allLines, next)
			if len(options) > 0 {
				fieldType = schema.FieldTypeRadio
			}
		}
	}

	if len(options) == 0 {
		options = nil
		switch {
		case strings.Contains(line, "[填空]") || strings.Contains(line, "[文本]"):
			fieldType = schema.FieldTypeText
		case strings.Contains(line, "[数字]"):
			fieldType = schema.FieldTypeNumber
		case strings.Contains(line, "[日期]") || strings.Contains(line, "YYYY-MM-DD"):
			fieldType = schema.FieldTypeDate
		case strings.Contains(line, "[时间]") || strings.Contains(line, "HH:mm"):
			fieldType = schema.FieldTypeTime
		case strings.Contains(line, "[长文本]"):
			fieldType = schema.FieldTypeTextarea
		}
	}

	return schema.Field{
		ID:       p.fieldID(label, index),
		Type:     fieldType,
		Label:    label,
		Required: required,
		Options:  options,
	}, true
}

// parseOptions collects the run of glyph-prefixed lines starting at
// startIndex. The run ends at the next numbered field or section heading;
// intervening lines that match neither pattern (blank lines included) are
// skipped without terminating the run.
func (p *Parser) parseOptions(allLines []string, startIndex int) []schema.Option {
	var options []schema.Option
	for i := startIndex; i < len(allLines); i++ {
		line := strings.TrimSpace(allLines[i])
		if fieldLinePattern.MatchString(line) || strings.HasPrefix(line, "####") {
			break
		}
		match := optionLinePattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		label := strings.TrimSpace(match[1])
		options = append(options, schema.Option{
			Value: p.optionValue(label),
			Label: label,
		})
	}
	return options
}

// slug collapses whitespace to underscores and strips everything outside
// [0-9A-Za-z_]. Labels written entirely in CJK therefore slug to "", which
// triggers the timestamp fallbacks below.
func slug(text string) string {
	cleaned := whitespacePattern.ReplaceAllString(text, "_")
	return nonWordRunePattern.ReplaceAllString(cleaned, "")
}

func (p *Parser) sectionID(title string) string {
	if id := slug(title); id != "" {
		return id
	}
	return fmt.Sprintf("section_%d", p.options.Clock().UnixMilli())
}

func (p *Parser) fieldID(label string, lineIndex int) string {
	if id := slug(label); id != "" {
		return id
	}
	return fmt.Sprintf("field_%d_%d", p.options.Clock().UnixMilli(), lineIndex)
}

func (p *Parser) optionValue(label string) string {
	if value := slug(label); value != "" {
		return value
	}
	return fmt.Sprintf("option_%d", p.options.Clock().UnixMilli())
}
