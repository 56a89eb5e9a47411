// Package visibility decides which modules, sections, and fields of a form
// are currently shown, given a snapshot of the answer set. Evaluation is pure
// and uncached: it re-runs on every answer change, reads only answer values,
// and never inspects other nodes' visibility: a hidden-but-filled field still
// drives the visibility of its siblings. Becoming invisible never clears a
// field's previously entered answer; clearing is the caller's decision.
package visibility

import (
	"github.com/clinforms/go-crf/pkg/answers"
	"github.com/clinforms/go-crf/pkg/schema"
)

// Evaluator determines whether a condition holds against an answer set.
type Evaluator interface {
	Eval(cond *schema.Condition, set answers.AnswerSet) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(cond *schema.Condition, set answers.AnswerSet) bool

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(cond *schema.Condition, set answers.AnswerSet) bool {
	return fn(cond, set)
}

// Default returns the standard condition evaluator.
func Default() Evaluator {
	return EvaluatorFunc(IsVisible)
}
