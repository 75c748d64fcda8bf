package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Algorithm selects the traversal strategy for a run.
type Algorithm string

const (
	// AlgorithmBFS explores level by level with synchronous fan-out.
	AlgorithmBFS Algorithm = "bfs"
	// AlgorithmDFS explores depth-first with backtracking and a global
	// best tracker.
	AlgorithmDFS Algorithm = "dfs"
)

// EvaluationMethod selects how a batch of thoughts is scored.
type EvaluationMethod string

const (
	// EvaluateValue scores each thought independently with repeated samples.
	EvaluateValue EvaluationMethod = "value"
	// EvaluateVote aggregates repeated full rankings via Borda count.
	EvaluateVote EvaluationMethod = "vote"
)

// SelectionMethod selects how a scored batch is reduced to the next frontier.
type SelectionMethod string

const (
	SelectGreedy    SelectionMethod = "greedy"
	SelectSample    SelectionMethod = "sample"
	SelectHybrid    SelectionMethod = "hybrid"
	SelectThreshold SelectionMethod = "threshold"
	SelectEnsemble  SelectionMethod = "ensemble"
	SelectCategory  SelectionMethod = "category"
)

// SearchConfig holds the immutable parameters of one search run.
// Created once at run start and never mutated.
type SearchConfig struct {
	// NGenerate is the maximum number of thoughts requested per expansion.
	NGenerate int
	// NEvaluate is the number of repeated scoring samples (value method)
	// or independent rankings (vote method) per batch.
	NEvaluate int
	// NSelect is the frontier size kept after selection. NSelect <= NGenerate.
	NSelect int

	// Steps bounds the number of BFS levels; the effective level count is
	// min(Steps, MaxDepth).
	Steps int
	// MaxDepth bounds tree depth for both algorithms. Must be > 0.
	MaxDepth int

	Algorithm        Algorithm
	EvaluationMethod EvaluationMethod
	SelectionMethod  SelectionMethod

	// CategoryRatio is the target creative:practical proportion, e.g. "5:5".
	CategoryRatio string

	// ConfidenceThreshold is the early-stop score bar in [0,10]. A batch
	// whose best score meets it terminates the run. Zero disables
	// early stopping.
	ConfidenceThreshold float64

	// CrossEvaluation scores each thought with the opposite category's
	// callback instead of independent single-category scoring.
	CrossEvaluation bool

	// CacheEnabled memoizes (problem, thought text) scores within a run.
	CacheEnabled bool
	CacheTTL     time.Duration

	// Temperature scales sampling sharpness for the sample strategy.
	Temperature float64
	// DiversityWeight is the hybrid strategy's origin-diversity weight.
	DiversityWeight float64
	// ScoreThreshold is the absolute cut for the threshold strategy.
	ScoreThreshold float64
	// AdaptivePercentile, when > 0, derives the threshold from the batch's
	// score distribution instead of ScoreThreshold.
	AdaptivePercentile float64

	// SingleChildDFS restricts depth-first descent to the single top-scored
	// child at each node.
	SingleChildDFS bool

	// MaxWorkers bounds concurrent external calls per batch.
	MaxWorkers int
	// CallTimeout bounds each individual generation or scoring call.
	CallTimeout time.Duration
}

// DefaultSearchConfig returns the documented default run parameters.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		NGenerate:           5,
		NEvaluate:           3,
		NSelect:             3,
		Steps:               3,
		MaxDepth:            3,
		Algorithm:           AlgorithmBFS,
		EvaluationMethod:    EvaluateValue,
		SelectionMethod:     SelectGreedy,
		CategoryRatio:       "5:5",
		ConfidenceThreshold: 0,
		CacheEnabled:        true,
		CacheTTL:            10 * time.Minute,
		Temperature:         1.0,
		DiversityWeight:     0.3,
		ScoreThreshold:      7.0,
		MaxWorkers:          4,
		CallTimeout:         60 * time.Second,
	}
}

// Validate checks the configuration invariants.
func (c SearchConfig) Validate() error {
	if c.NGenerate <= 0 {
		return fmt.Errorf("n_generate must be positive, got %d", c.NGenerate)
	}
	if c.NEvaluate <= 0 {
		return fmt.Errorf("n_evaluate must be positive, got %d", c.NEvaluate)
	}
	if c.NSelect <= 0 || c.NSelect > c.NGenerate {
		return fmt.Errorf("n_select must be in [1,%d], got %d", c.NGenerate, c.NSelect)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth must be positive, got %d", c.MaxDepth)
	}
	switch c.Algorithm {
	case AlgorithmBFS, AlgorithmDFS:
	default:
		return fmt.Errorf("unknown algorithm %q", c.Algorithm)
	}
	switch c.EvaluationMethod {
	case EvaluateValue, EvaluateVote:
	default:
		return fmt.Errorf("unknown evaluation method %q", c.EvaluationMethod)
	}
	switch c.SelectionMethod {
	case SelectGreedy, SelectSample, SelectHybrid, SelectThreshold, SelectEnsemble, SelectCategory:
	default:
		return fmt.Errorf("unknown selection method %q", c.SelectionMethod)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 10 {
		return fmt.Errorf("confidence_threshold must be in [0,10], got %g", c.ConfidenceThreshold)
	}
	if _, err := ParseRatio(c.CategoryRatio); err != nil {
		return err
	}
	return nil
}

// Ratio is a parsed category ratio (creative:practical).
type Ratio struct {
	Creative  int
	Practical int
}

// ParseRatio parses a "5:5"-style category ratio. Both sides must be
// non-negative and at least one positive.
func ParseRatio(s string) (Ratio, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Ratio{}, fmt.Errorf("category ratio %q: want form \"c:p\"", s)
	}
	c, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Ratio{}, fmt.Errorf("category ratio %q: %w", s, err)
	}
	p, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Ratio{}, fmt.Errorf("category ratio %q: %w", s, err)
	}
	if c < 0 || p < 0 || c+p == 0 {
		return Ratio{}, fmt.Errorf("category ratio %q: shares must be non-negative and sum > 0", s)
	}
	return Ratio{Creative: c, Practical: p}, nil
}

// Split divides n into per-category counts. The creative share is floored
// and the practical side receives the remainder, so the counts always sum
// to exactly n.
func (r Ratio) Split(n int) (creative, practical int) {
	if n <= 0 {
		return 0, 0
	}
	creative = n * r.Creative / (r.Creative + r.Practical)
	return creative, n - creative
}
