// Package session drives one case through the multi-step form flow: it owns
// the live answer set, recomputes visibility and step validity on every edit,
// gates forward navigation and submission, and opportunistically persists the
// answers through the injected store (timed autosave plus manual saves).
//
// All evaluation is synchronous and in-memory. The only asynchronous boundary
// is the store: saves snapshot the answer set and run without holding the
// session lock, so a later edit or a second save never waits on an in-flight
// one and never cancels it. The store owns last-write-wins resolution.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
	"github.com/clinforms/go-crf/pkg/step"
	"github.com/clinforms/go-crf/pkg/visibility"
)

var (
	// ErrSubmitted is returned for edits after the case has been submitted.
	ErrSubmitted = errors.New("session: case already submitted")
	// ErrStepBlocked is returned when required fields of the active step are
	// still missing.
	ErrStepBlocked = errors.New("session: step has missing required fields")
	// ErrNotLastStep is returned when Submit is called before the last visible
	// step has been reached.
	ErrNotLastStep = errors.New("session: submit is only allowed on the last step")
	// ErrNoStore is returned from save paths when no store was configured.
	ErrNoStore = errors.New("session: no store configured")
)

// DefaultAutosaveInterval is one save every 30 seconds, the cadence clinical
// data-entry clients expect.
const DefaultAutosaveInterval = 30 * time.Second

// Options configures a Session.
type Options struct {
	CaseID           string
	Store            answers.Store
	Evaluator        visibility.Evaluator
	Logger           *slog.Logger
	AutosaveInterval time.Duration
	// OnSaveError receives persistence failures. The in-memory answer set is
	// never rolled back; reporting is the extent of the core's error handling.
	OnSaveError func(error)
	// Initial seeds the answer set, typically from Store.Load.
	Initial answers.AnswerSet
}

// Option mutates Options during construction.
type Option func(*Options)

// WithCaseID sets the case identity used for store operations.
func WithCaseID(id string) Option {
	return func(o *Options) { o.CaseID = id }
}

// WithStore injects the persistence collaborator.
func WithStore(store answers.Store) Option {
	return func(o *Options) { o.Store = store }
}

// WithEvaluator overrides the visibility evaluator.
func WithEvaluator(eval visibility.Evaluator) Option {
	return func(o *Options) { o.Evaluator = eval }
}

// WithLogger sets the structured logger for save outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.Logger = logger }
}

// WithAutosaveInterval overrides the autosave cadence.
func WithAutosaveInterval(interval time.Duration) Option {
	return func(o *Options) { o.AutosaveInterval = interval }
}

// WithSaveErrorHandler registers the persistence failure callback.
func WithSaveErrorHandler(fn func(error)) Option {
	return func(o *Options) { o.OnSaveError = fn }
}

// WithInitialAnswers seeds the session with previously persisted answers.
func WithInitialAnswers(set answers.AnswerSet) Option {
	return func(o *Options) { o.Initial = set }
}

// Session is the runtime for one case against one schema. It is safe for use
// by a single interactive caller plus the autosave goroutine; internal
// locking only protects snapshot capture, not store completion order.
type Session struct {
	schema   schema.Schema
	opts     Options
	log      *slog.Logger
	eval     visibility.Evaluator
	interval time.Duration

	mu      sync.Mutex
	set     answers.AnswerSet
	status  answers.Status
	stepIdx int
}

// New builds a Session over an immutable schema.
func New(s schema.Schema, options ...Option) *Session {
	opts := Options{
		Evaluator:        visibility.Default(),
		AutosaveInterval: DefaultAutosaveInterval,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Evaluator == nil {
		opts.Evaluator = visibility.Default()
	}
	if opts.AutosaveInterval <= 0 {
		opts.AutosaveInterval = DefaultAutosaveInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sess := &Session{
		schema:   s,
		opts:     opts,
		log:      logger,
		eval:     opts.Evaluator,
		interval: opts.AutosaveInterval,
		set:      answers.New(),
		status:   answers.StatusDraft,
	}
	if opts.Initial != nil {
		sess.set = opts.Initial.Clone()
	}
	return sess
}

// Schema returns the immutable schema the session runs against.
func (s *Session) Schema() schema.Schema { return s.schema }

// Status reports the case lifecycle state as the session sees it.
func (s *Session) Status() answers.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Answers returns an independent snapshot of the current answer set.
func (s *Session) Answers() answers.AnswerSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Clone()
}

// Set records a single field edit. Visibility and validity are derived state,
// so nothing else is recomputed eagerly; the projection methods below always
// evaluate against the latest answers.
func (s *Session) Set(fieldID string, v answers.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == answers.StatusSubmitted {
		return ErrSubmitted
	}
	s.set.Set(fieldID, v)
	return nil
}

// Get returns the current value of a field.
func (s *Session) Get(fieldID string) (answers.Value, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Get(fieldID)
}

// VisibleSteps projects the ordered visible modules for the current answers
// using the session's evaluator.
func (s *Session) VisibleSteps() []schema.Module {
	set := s.Answers()
	var out []schema.Module
	for _, module := range s.schema.Steps() {
		if s.eval.Eval(module.VisibleWhen, set) {
			out = append(out, module)
		}
	}
	return out
}

// StepIndex returns the current position within the visible step list.
func (s *Session) StepIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepIdx
}

// Current returns the active step module. ok is false when the schema has no
// visible steps at all.
func (s *Session) Current() (schema.Module, bool) {
	steps := s.VisibleSteps()
	if len(steps) == 0 {
		return schema.Module{}, false
	}
	s.mu.Lock()
	idx := s.stepIdx
	s.mu.Unlock()
	if idx >= len(steps) {
		// Earlier edits can shrink the visible list; clamp rather than fail.
		idx = len(steps) - 1
	}
	return steps[idx], true
}

// Missing lists the required fields of the active step that still lack a
// value, with display labels resolved for error reporting.
func (s *Session) Missing() []step.Missing {
	current, ok := s.Current()
	if !ok {
		return nil
	}
	return step.MissingOf(current, s.Answers())
}

// StepValid reports whether the active step allows advancement.
func (s *Session) StepValid() bool {
	current, ok := s.Current()
	if !ok {
		return true
	}
	return step.IsStepValid(current, s.Answers())
}

// Next advances to the following visible step. It fails with ErrStepBlocked
// while the active step has missing required fields and is a no-op on the
// last step.
func (s *Session) Next() error {
	if !s.StepValid() {
		return fmt.Errorf("%w: %v", ErrStepBlocked, missingLabels(s.Missing()))
	}
	steps := s.VisibleSteps()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stepIdx < len(steps)-1 {
		s.stepIdx++
	}
	return nil
}

// Prev moves one step back. Backward navigation is always permitted.
func (s *Session) Prev() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stepIdx > 0 {
		s.stepIdx--
	}
}

// Submit validates the final step, persists the answers, and locks the
// session. Submission is only accepted on the last visible step; since Next
// already gates each advancement, reaching the last step implies every earlier
// visible step passed validation. The status transition in the store belongs
// to the collaborator; the session only stops accepting edits.
func (s *Session) Submit(ctx context.Context) error {
	s.mu.Lock()
	if s.status == answers.StatusSubmitted {
		s.mu.Unlock()
		return ErrSubmitted
	}
	s.mu.Unlock()

	if !s.StepValid() {
		return fmt.Errorf("%w: %v", ErrStepBlocked, missingLabels(s.Missing()))
	}
	if !s.onLastStep() {
		return ErrNotLastStep
	}
	if err := s.SaveNow(ctx); err != nil && !errors.Is(err, ErrNoStore) {
		return err
	}

	s.mu.Lock()
	s.status = answers.StatusSubmitted
	s.mu.Unlock()
	s.log.Info("case submitted", "caseId", s.opts.CaseID)
	return nil
}

// SaveNow persists a snapshot of the current answers. This is the manual-save
// and keyboard-shortcut path. Failures are logged, reported to the configured
// handler, and returned; the in-memory answers are left untouched.
func (s *Session) SaveNow(ctx context.Context) error {
	if s.opts.Store == nil {
		return ErrNoStore
	}
	snapshot := s.Answers()
	err := s.opts.Store.Save(ctx, s.opts.CaseID, snapshot)
	if err != nil {
		s.log.Warn("save failed", "caseId", s.opts.CaseID, "error", err)
		if s.opts.OnSaveError != nil {
			s.opts.OnSaveError(err)
		}
		return fmt.Errorf("session: save case %s: %w", s.opts.CaseID, err)
	}
	s.log.Debug("answers saved", "caseId", s.opts.CaseID, "fields", len(snapshot))
	return nil
}

// Run drives the autosave loop until the context is cancelled or the case is
// submitted. Each tick fires an independent save; a slow store may overlap
// ticks, which is tolerated. Completion order decides the winner.
func (s *Session) Run(ctx context.Context) {
	if s.opts.Store == nil {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Status() == answers.StatusSubmitted {
				return
			}
			go func() {
				// Errors already logged and reported inside SaveNow.
				_ = s.SaveNow(ctx)
			}()
		}
	}
}

func (s *Session) onLastStep() bool {
	steps := s.VisibleSteps()
	if len(steps) == 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stepIdx >= len(steps)-1
}

func missingLabels(missing []step.Missing) []string {
	labels := make([]string, 0, len(missing))
	for _, m := range missing {
		labels = append(labels, m.Label)
	}
	return labels
}
