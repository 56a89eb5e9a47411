// Package bolt persists cases in a single bbolt file, one JSON document per
// case under the "cases" bucket. It is the durable counterpart of the memory
// store for CLI sessions that must survive process restarts.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	bbolt "go.etcd.io/bbolt"

	"github.com/clinforms/go-crf/pkg/answers"
)

var casesBucket = []byte("cases")

// Store is a file-backed case store. A Store owns its database handle; Close
// releases the file lock.
type Store struct {
	db    *bbolt.DB
	clock func() time.Time
}

var _ answers.CaseStore = (*Store)(nil)

// Option customises store construction.
type Option func(*Store)

// WithClock overrides the timestamp source, chiefly for deterministic tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// Open creates or opens the database file and ensures the cases bucket exists.
func Open(path string, options ...Option) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(casesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bolt: init %s: %w", path, err)
	}
	s := &Store{db: db, clock: time.Now}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
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
	if err := s.put(c); err != nil {
		return answers.Case{}, err
	}
	return c, nil
}

// Get returns the full case record.
func (s *Store) Get(_ context.Context, caseID string) (answers.Case, error) {
	return s.get(caseID)
}

// Load returns the case's current answer set.
func (s *Store) Load(_ context.Context, caseID string) (answers.AnswerSet, error) {
	c, err := s.get(caseID)
	if err != nil {
		return nil, err
	}
	return c.Answers, nil
}

// Save replaces the case's answer set wholesale inside one write transaction.
// Concurrent saves serialise on the transaction; the later commit wins.
func (s *Store) Save(_ context.Context, caseID string, set answers.AnswerSet) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		c, err := readCase(tx, caseID)
		if err != nil {
			return err
		}
		if c.Status == answers.StatusSubmitted {
			return answers.ErrSubmitted
		}
		c.Answers = set.Clone()
		c.UpdatedAt = s.clock()
		return writeCase(tx, c)
	})
}

// Submit flips the case to submitted and stamps the submission time.
func (s *Store) Submit(_ context.Context, caseID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		c, err := readCase(tx, caseID)
		if err != nil {
			return err
		}
		if c.Status == answers.StatusSubmitted {
			return answers.ErrSubmitted
		}
		now := s.clock()
		c.Status = answers.StatusSubmitted
		c.SubmittedAt = now
		c.UpdatedAt = now
		return writeCase(tx, c)
	})
}

func (s *Store) put(c answers.Case) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return writeCase(tx, c)
	})
}

func (s *Store) get(caseID string) (answers.Case, error) {
	var c answers.Case
	err := s.db.View(func(tx *bbolt.Tx) error {
		got, err := readCase(tx, caseID)
		if err != nil {
			return err
		}
		c = got
		return nil
	})
	if err != nil {
		return answers.Case{}, err
	}
	return c, nil
}

func readCase(tx *bbolt.Tx, caseID string) (answers.Case, error) {
	raw := tx.Bucket(casesBucket).Get([]byte(caseID))
	if raw == nil {
		return answers.Case{}, answers.ErrNotFound
	}
	var c answers.Case
	if err := json.Unmarshal(raw, &c); err != nil {
		return answers.Case{}, fmt.Errorf("bolt: decode case %s: %w", caseID, err)
	}
	return c, nil
}

func writeCase(tx *bbolt.Tx, c answers.Case) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("bolt: encode case %s: %w", c.ID, err)
	}
	return tx.Bucket(casesBucket).Put([]byte(c.ID), raw)
}
