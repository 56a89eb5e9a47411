// Package tui walks a form session through terminal prompts: one module per
// screen, fields asked in declaration order, visibility re-evaluated after
// every answer. Prompting is isolated behind PromptDriver; the survey-backed
// driver is the interactive implementation.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/session"
	"github.com/clinforms/go-crf/pkg/step"
	"github.com/clinforms/go-crf/pkg/visibility"
)

// Runner drives one session to submission.
type Runner struct {
	sess   *session.Session
	driver PromptDriver
}

// RunnerOption customises runner construction.
type RunnerOption func(*Runner)

// WithDriver swaps the prompt driver, chiefly for tests.
func WithDriver(driver PromptDriver) RunnerOption {
	return func(r *Runner) { r.driver = driver }
}

// NewRunner builds a Runner over an existing session.
func NewRunner(sess *session.Session, options ...RunnerOption) *Runner {
	r := &Runner{
		sess:   sess,
		driver: NewSurveyDriver(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Run prompts through every visible step and submits the case. Steps with
// missing required answers are re-prompted rather than skipped; aborting a
// prompt aborts the whole run.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		current, ok := r.sess.Current()
		if !ok {
			return errors.New("tui: schema has no visible steps")
		}
		if err := r.promptModule(ctx, current); err != nil {
			return err
		}
		if missing := r.sess.Missing(); len(missing) > 0 {
			r.driver.Info(ctx, "Required fields still missing: "+joinLabels(missing))
			continue
		}

		if r.onLastStep() {
			confirmed, err := r.driver.Confirm(ctx, ConfirmConfig{
				Message: "Submit the case?",
				Default: true,
			})
			if err != nil {
				return err
			}
			if !confirmed {
				continue
			}
			return r.sess.Submit(ctx)
		}
		if err := r.sess.Next(); err != nil {
			return err
		}
	}
}

func (r *Runner) onLastStep() bool {
	return r.sess.StepIndex() >= len(r.sess.VisibleSteps())-1
}

func (r *Runner) promptModule(ctx context.Context, module schema.Module) error {
	if module.Title != "" {
		r.driver.Info(ctx, "== "+module.Title+" ==")
	}
	// Visibility is recomputed per field so an answer given a moment ago can
	// reveal or hide the fields after it.
	for _, section := range module.Sections {
		for _, group := range section.FieldGroups {
			for _, field := range group.Fields {
				set := r.sess.Answers()
				if !visibility.IsVisible(section.VisibleWhen, set) {
					break
				}
				if !visibility.IsVisible(field.VisibleWhen, set) {
					continue
				}
				if err := r.promptField(ctx, field); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Runner) promptField(ctx context.Context, field schema.Field) error {
	switch {
	case field.Type == schema.FieldTypeTextarea:
		return r.promptTextArea(ctx, field)
	case field.Type == schema.FieldTypeCheckbox && len(field.Options) == 0:
		return r.promptBool(ctx, field)
	case field.Type == schema.FieldTypeCheckbox, field.Type == schema.FieldTypeCheckboxGroup:
		return r.promptMulti(ctx, field)
	case field.Type == schema.FieldTypeRadio, field.Type == schema.FieldTypeSelect:
		return r.promptChoice(ctx, field)
	default:
		return r.promptInput(ctx, field)
	}
}

func (r *Runner) promptInput(ctx context.Context, field schema.Field) error {
	cfg := InputConfig{
		Message: promptMessage(field),
		Help:    field.HelpText,
	}
	if v, ok := r.sess.Get(field.ID); ok {
		cfg.Default = v.Display()
	}
	if field.Type == schema.FieldTypeNumber {
		cfg.Validator = validateNumeric
	}
	text, err := r.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	// Text widgets always yield strings, numeric ones included.
	return r.sess.Set(field.ID, answers.String(text))
}

func (r *Runner) promptTextArea(ctx context.Context, field schema.Field) error {
	cfg := TextAreaConfig{
		Message: promptMessage(field),
		Help:    field.HelpText,
	}
	if v, ok := r.sess.Get(field.ID); ok {
		cfg.Default = v.Display()
	}
	text, err := r.driver.TextArea(ctx, cfg)
	if err != nil {
		return err
	}
	return r.sess.Set(field.ID, answers.String(text))
}

func (r *Runner) promptBool(ctx context.Context, field schema.Field) error {
	cfg := ConfirmConfig{
		Message: promptMessage(field),
		Help:    field.HelpText,
	}
	if v, ok := r.sess.Get(field.ID); ok {
		if checked, isBool := v.AsBool(); isBool {
			cfg.Default = checked
		}
	}
	checked, err := r.driver.Confirm(ctx, cfg)
	if err != nil {
		return err
	}
	return r.sess.Set(field.ID, answers.Bool(checked))
}

func (r *Runner) promptChoice(ctx context.Context, field schema.Field) error {
	options := field.Options
	if field.AllowCustom && !hasValue(options, schema.CustomSentinel) {
		options = append(append([]schema.Option(nil), options...), schema.Option{
			Value: schema.CustomSentinel,
			Label: "Other",
		})
	}
	labels := optionLabels(options)

	cfg := SelectConfig{
		Message:      promptMessage(field),
		Options:      labels,
		Help:         field.HelpText,
		DefaultIndex: -1,
	}
	if v, ok := r.sess.Get(field.ID); ok {
		cfg.DefaultIndex = indexOfValue(options, v.Display())
	}
	idx, err := r.driver.Select(ctx, cfg)
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(options) {
		return fmt.Errorf("tui: select returned index %d for %q", idx, field.ID)
	}
	value := options[idx].Value
	if err := r.sess.Set(field.ID, answers.String(value)); err != nil {
		return err
	}
	if field.AllowCustom && value == schema.CustomSentinel {
		return r.promptCustomCompanion(ctx, field)
	}
	return nil
}

// promptCustomCompanion collects the free-text value backing an "other"
// selection. It is stored under the companion id, never under the select's.
func (r *Runner) promptCustomCompanion(ctx context.Context, field schema.Field) error {
	companionID := schema.CustomFieldID(field.ID)
	cfg := InputConfig{
		Message: field.Label + " (specify)",
	}
	if v, ok := r.sess.Get(companionID); ok {
		cfg.Default = v.Display()
	}
	text, err := r.driver.Input(ctx, cfg)
	if err != nil {
		return err
	}
	return r.sess.Set(companionID, answers.String(text))
}

func (r *Runner) promptMulti(ctx context.Context, field schema.Field) error {
	cfg := SelectConfig{
		Message: promptMessage(field),
		Options: optionLabels(field.Options),
		Help:    field.HelpText,
	}
	if v, ok := r.sess.Get(field.ID); ok {
		if selected, isList := v.AsStringList(); isList {
			for _, value := range selected {
				if idx := indexOfValue(field.Options, value); idx >= 0 {
					cfg.Defaults = append(cfg.Defaults, idx)
				}
			}
		}
	}
	indices, err := r.driver.MultiSelect(ctx, cfg)
	if err != nil {
		return err
	}
	values := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(field.Options) {
			values = append(values, field.Options[idx].Value)
		}
	}
	return r.sess.Set(field.ID, answers.StringList(values...))
}

func promptMessage(field schema.Field) string {
	msg := field.Label
	if field.Unit != "" {
		msg += " (" + field.Unit + ")"
	}
	if field.Required {
		msg += " *"
	}
	return msg
}

func validateNumeric(text string) error {
	if text == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(text, 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func optionLabels(options []schema.Option) []string {
	labels := make([]string, 0, len(options))
	for _, option := range options {
		labels = append(labels, option.Label)
	}
	return labels
}

func indexOfValue(options []schema.Option, value string) int {
	for i, option := range options {
		if option.Value == value {
			return i
		}
	}
	return -1
}

func hasValue(options []schema.Option, value string) bool {
	return indexOfValue(options, value) >= 0
}

func joinLabels(missing []step.Missing) string {
	labels := make([]string, 0, len(missing))
	for _, m := range missing {
		labels = append(labels, m.Label)
	}
	return strings.Join(labels, ", ")
}
