package search

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes search failures for callers that need to branch on
// the failure mode rather than the message.
type ErrorKind int

const (
	// KindGenerationFailed covers Generator call errors and timeouts.
	// Propagated immediately; aborts the branch being explored.
	KindGenerationFailed ErrorKind = iota

	// KindEvaluationFailed covers scoring callback errors and timeouts.
	// Recovered locally (score 0, confidence 0.5); surfaces as an error
	// only when recovery itself is impossible.
	KindEvaluationFailed

	// KindNoCandidates means the selector received an empty batch.
	KindNoCandidates

	// KindInvariantViolation means a Generator or evaluator broke the data
	// model contract (dangling parent, out-of-range score). Always fatal,
	// never silently recovered.
	KindInvariantViolation

	// KindNoSolutionFound means a run completed with zero thoughts ever
	// generated.
	KindNoSolutionFound
)

// String returns the kind's wire name.
func (k ErrorKind) String() string {
	switch k {
	case KindGenerationFailed:
		return "generation_failed"
	case KindEvaluationFailed:
		return "evaluation_failed"
	case KindNoCandidates:
		return "no_candidates"
	case KindInvariantViolation:
		return "invariant_violation"
	case KindNoSolutionFound:
		return "no_solution_found"
	default:
		return "unknown"
	}
}

// SearchError is the typed error returned by the engine's entry points.
// Partial progress is attached when feasible so callers can inspect what
// was explored before the failure.
type SearchError struct {
	Kind ErrorKind
	Err  error

	// Thoughts holds every thought generated before the failure.
	Thoughts []*Thought
}

// Error implements the error interface.
func (e *SearchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("search error: %s", e.Kind)
	}
	return fmt.Sprintf("search error: %s: %v", e.Kind, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *SearchError) Unwrap() error {
	return e.Err
}

// NewGenerationFailed wraps a Generator failure.
func NewGenerationFailed(err error) *SearchError {
	return &SearchError{Kind: KindGenerationFailed, Err: err}
}

// NewEvaluationFailed wraps a scoring callback failure.
func NewEvaluationFailed(err error) *SearchError {
	return &SearchError{Kind: KindEvaluationFailed, Err: err}
}

// NewNoCandidates reports an empty selector batch.
func NewNoCandidates(err error) *SearchError {
	return &SearchError{Kind: KindNoCandidates, Err: err}
}

// NewInvariantViolation reports a data model contract breach.
func NewInvariantViolation(err error) *SearchError {
	return &SearchError{Kind: KindInvariantViolation, Err: err}
}

// NewNoSolutionFound reports a run that never generated a thought.
func NewNoSolutionFound(err error) *SearchError {
	return &SearchError{Kind: KindNoSolutionFound, Err: err}
}

// WithProgress attaches partial progress and returns the same error.
func (e *SearchError) WithProgress(thoughts []*Thought) *SearchError {
	e.Thoughts = thoughts
	return e
}

// IsKind reports whether err is a SearchError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var se *SearchError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}
