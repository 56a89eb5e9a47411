package answers

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a case. The engine only reads it to decide
// whether the answer set is still mutable; the transition itself belongs to
// the store.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
)

// Case is a persisted case record: one answer set plus lifecycle metadata.
type Case struct {
	ID          string    `json:"id"`
	FormID      string    `json:"formId"`
	Status      Status    `json:"status"`
	Answers     AnswerSet `json:"answers"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

var (
	// ErrNotFound is returned when a case id is unknown to the store.
	ErrNotFound = errors.New("answers: case not found")
	// ErrSubmitted is returned when writing to a case that is already locked.
	ErrSubmitted = errors.New("answers: case already submitted")
)

// Store is the minimal persistence contract the engine depends on: whole
// answer sets exchanged by case id with last-write-wins semantics. Both
// operations may be slow and may fail; the engine treats failures as
// reportable, never as a reason to roll back in-memory state. Overlapping
// saves are permitted and are never cancelled by later ones.
type Store interface {
	Load(ctx context.Context, caseID string) (AnswerSet, error)
	Save(ctx context.Context, caseID string, set AnswerSet) error
}

// CaseStore extends Store with case lifecycle operations. The concrete stores
// under pkg/store implement it; the engine core itself needs only Store.
type CaseStore interface {
	Store
	Create(ctx context.Context, formID string) (Case, error)
	Get(ctx context.Context, caseID string) (Case, error)
	Submit(ctx context.Context, caseID string) error
}
