// Package memory provides an in-process case store. It backs tests and
// single-run CLI sessions where persistence across processes is not needed.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinforms/go-crf/pkg/answers"
)

// Store keeps cases in a mutex-guarded map. All reads and writes exchange
// cloned answer sets, so callers never share mutable state with the store.
type Store struct {
	mu    sync.Mutex
	cases map[string]answers.Case
	clock func() time.Time
}

var _ answers.CaseStore = (*Store)(nil)

// Option customises store construction.
type Option func(*Store)

// WithClock overrides the timestamp source, chiefly for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// New returns an empty store.
func New(options ...Option) *Store {
	s := &Store{
		cases: make(map[string]answers.Case),
		clock: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Create registers a new draft case for the given form and returns it.
func (s *Store) Create(_ context.Context, formID string) (answers.Case, error) {
	now := s.clock()
	c := answers.Case{
		ID:        uuid.NewString(),
		FormID:    formID,
		Status:    answers.StatusDraft,
		Answers:   answers.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[c.ID] = c
	return cloneCase(c), nil
}

// Get returns the full case record.
func (s *Store) Get(_ context.Context, caseID string) (answers.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return answers.Case{}, answers.ErrNotFound
	}
	return cloneCase(c), nil
}

// Load returns the case's current answer set.
func (s *Store) Load(_ context.Context, caseID string) (answers.AnswerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, answers.ErrNotFound
	}
	return c.Answers.Clone(), nil
}

// Save replaces the case's answer set wholesale. Last write wins; there is no
// merging and no version check. Saves to a submitted case are rejected.
func (s *Store) Save(_ context.Context, caseID string, set answers.AnswerSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return answers.ErrNotFound
	}
	if c.Status == answers.StatusSubmitted {
		return answers.ErrSubmitted
	}
	c.Answers = set.Clone()
	c.UpdatedAt = s.clock()
	s.cases[caseID] = c
	return nil
}

// Submit flips the case to submitted and stamps the submission time. Further
// saves fail with ErrSubmitted. Submitting twice is an error.
func (s *Store) Submit(_ context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return answers.ErrNotFound
	}
	if c.Status == answers.StatusSubmitted {
		return answers.ErrSubmitted
	}
	now := s.clock()
	c.Status = answers.StatusSubmitted
	c.SubmittedAt = now
	c.UpdatedAt = now
	s.cases[caseID] = c
	return nil
}

func cloneCase(c answers.Case) answers.Case {
	c.Answers = c.Answers.Clone()
	return c
}
