package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/clinforms/go-crf/pkg/answers"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	store := New(WithClock(fixedClock()))
	ctx := context.Background()

	c, err := store.Create(ctx, "crf-utstein")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.ID == "" || c.FormID != "crf-utstein" || c.Status != answers.StatusDraft {
		t.Fatalf("unexpected case: %+v", c)
	}
	if !c.CreatedAt.Equal(fixedClock()()) {
		t.Fatalf("createdAt = %v", c.CreatedAt)
	}

	got, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("round trip lost id: %q", got.ID)
	}
}

func TestUnknownCase(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, answers.ErrNotFound) {
		t.Fatalf("get: %v", err)
	}
	if _, err := store.Load(ctx, "nope"); !errors.Is(err, answers.ErrNotFound) {
		t.Fatalf("load: %v", err)
	}
	if err := store.Save(ctx, "nope", answers.New()); !errors.Is(err, answers.ErrNotFound) {
		t.Fatalf("save: %v", err)
	}
	if err := store.Submit(ctx, "nope"); !errors.Is(err, answers.ErrNotFound) {
		t.Fatalf("submit: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	c, err := store.Create(ctx, "f")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	set := answers.New()
	set.Set("name", answers.String("Ada"))
	set.Set("witnessed", answers.Bool(true))
	if err := store.Save(ctx, c.ID, set); err != nil {
		t.Fatalf("save: %v", err)
	}

	// The store holds a copy; mutating the caller's set must not leak in.
	set.Set("name", answers.String("Grace"))

	loaded, err := store.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := loaded.Get("name"); v.Display() != "Ada" {
		t.Fatalf("store aliased caller's set: %v", v)
	}
	if v, ok := loaded.Get("witnessed"); !ok || v.Display() != "true" {
		t.Fatalf("bool lost: %v %v", v, ok)
	}
}

func TestSubmitLocksCase(t *testing.T) {
	t.Parallel()

	store := New(WithClock(fixedClock()))
	ctx := context.Background()
	c, err := store.Create(ctx, "f")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.Submit(ctx, c.ID); err != nil {
		t.Fatalf("submit: %v", err)
	}
	got, err := store.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != answers.StatusSubmitted || got.SubmittedAt.IsZero() {
		t.Fatalf("submit not recorded: %+v", got)
	}

	if err := store.Save(ctx, c.ID, answers.New()); !errors.Is(err, answers.ErrSubmitted) {
		t.Fatalf("save after submit: %v", err)
	}
	if err := store.Submit(ctx, c.ID); !errors.Is(err, answers.ErrSubmitted) {
		t.Fatalf("double submit: %v", err)
	}
}

func TestLastWriteWins(t *testing.T) {
	t.Parallel()

	store := New()
	ctx := context.Background()
	c, err := store.Create(ctx, "f")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first := answers.New()
	first.Set("name", answers.String("first"))
	second := answers.New()
	second.Set("name", answers.String("second"))

	if err := store.Save(ctx, c.ID, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, c.ID, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, c.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if v, _ := loaded.Get("name"); v.Display() != "second" {
		t.Fatalf("expected the later snapshot to win, got %v", v)
	}
}
