// Package search defines the data model for the tree-search decision engine:
// thoughts, evaluations, run configuration, results, and the typed error kinds
// shared by the evaluator, selector, and orchestrator packages.
package search

import (
	"fmt"

	"github.com/google/uuid"
)

// Origin identifies the generation channel that produced a thought.
// The engine never interprets thought content; origin exists only for
// diversity and ratio logic.
type Origin string

const (
	// OriginCreative tags thoughts produced by the exploratory channel.
	OriginCreative Origin = "creative"
	// OriginPractical tags thoughts produced by the practicality-first channel.
	OriginPractical Origin = "practical"
	// OriginCross marks evaluations performed across categories. It is an
	// evaluator origin only and is never valid on a Thought.
	OriginCross Origin = "cross"
)

// GenerationOrigins returns the closed set of valid thought origins.
func GenerationOrigins() []Origin {
	return []Origin{OriginCreative, OriginPractical}
}

// ParseOrigin validates a category tag. Unknown tags are rejected at
// construction time rather than carried as loose strings.
func ParseOrigin(s string) (Origin, error) {
	switch Origin(s) {
	case OriginCreative, OriginPractical:
		return Origin(s), nil
	default:
		return "", fmt.Errorf("unknown origin %q", s)
	}
}

// Thought is a node in the search tree: one candidate step toward a solution.
// Thoughts are created unscored by a Generator, scored exactly once by the
// evaluator, and never deleted for the lifetime of a run.
type Thought struct {
	ID       string
	Text     string
	Origin   Origin
	Depth    int
	ParentID string // empty only at depth 0

	// Score and Confidence are nil until the evaluator attaches an
	// Evaluation. Score is in [0,10], Confidence in [0,1].
	Score      *float64
	Confidence *float64

	// Metadata is an opaque key-value bag. The engine records evaluation
	// failures here; backends may add their own keys.
	Metadata map[string]string
}

// NewThought creates an unscored thought. parentID must be empty iff depth is 0.
func NewThought(text string, origin Origin, depth int, parentID string) *Thought {
	return &Thought{
		ID:       uuid.NewString(),
		Text:     text,
		Origin:   origin,
		Depth:    depth,
		ParentID: parentID,
		Metadata: make(map[string]string),
	}
}

// Scored reports whether an evaluation has been attached.
func (t *Thought) Scored() bool {
	return t.Score != nil
}

// SetMeta records a metadata entry, allocating the bag if needed.
func (t *Thought) SetMeta(key, value string) {
	if t.Metadata == nil {
		t.Metadata = make(map[string]string)
	}
	t.Metadata[key] = value
}

// AttachEvaluation mutates the thought with its score and confidence.
// A thought is scored exactly once; a second attach is a contract breach.
func (t *Thought) AttachEvaluation(ev *Evaluation) error {
	if t.Scored() {
		return NewInvariantViolation(fmt.Errorf("thought %s scored twice", t.ID))
	}
	if err := ev.Validate(); err != nil {
		return err
	}
	score, conf := ev.OverallScore, ev.Confidence
	t.Score = &score
	t.Confidence = &conf
	return nil
}

// ValidateShape checks the structural contract a Generator must honor.
// parent is nil for root thoughts.
func (t *Thought) ValidateShape(parent *Thought, expectedDepth int) error {
	if t.ID == "" {
		return fmt.Errorf("thought has empty id")
	}
	if t.Text == "" {
		return fmt.Errorf("thought %s has empty text", t.ID)
	}
	if _, err := ParseOrigin(string(t.Origin)); err != nil {
		return fmt.Errorf("thought %s: %w", t.ID, err)
	}
	if t.Depth != expectedDepth {
		return fmt.Errorf("thought %s: depth %d, expected %d", t.ID, t.Depth, expectedDepth)
	}
	if parent == nil {
		if t.ParentID != "" {
			return fmt.Errorf("thought %s: parent %s at depth 0", t.ID, t.ParentID)
		}
		return nil
	}
	if t.ParentID != parent.ID {
		return fmt.Errorf("thought %s: parent %s, expected %s", t.ID, t.ParentID, parent.ID)
	}
	if t.Depth != parent.Depth+1 {
		return fmt.Errorf("thought %s: depth %d under parent depth %d", t.ID, t.Depth, parent.Depth)
	}
	return nil
}
