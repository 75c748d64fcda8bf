package search

import "context"

// Generator is the external collaborator that produces candidate thoughts.
// The engine never produces thought content itself.
//
// Generate must return between 0 and cfg.NGenerate thoughts, each tagged
// with a valid origin and with Depth/ParentID consistent with the frontier
// it expands. Returning zero thoughts is a dead end, not an error. frontier
// is nil for the root expansion.
type Generator interface {
	Generate(ctx context.Context, problem string, frontier []*Thought, depth int, cfg SearchConfig) ([]*Thought, error)
}

// Scorer is the value-mode scoring callback: one independent measurement
// of one thought, in [0,10].
type Scorer interface {
	Score(ctx context.Context, problem, thoughtText string) (float64, error)
}

// Ranker is the vote-mode scoring callback: one full ranking of the batch,
// returned as a permutation of indices, most-preferred first.
type Ranker interface {
	Rank(ctx context.Context, problem string, thoughtTexts []string) ([]int, error)
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, problem, thoughtText string) (float64, error)

// Score implements Scorer.
func (f ScorerFunc) Score(ctx context.Context, problem, thoughtText string) (float64, error) {
	return f(ctx, problem, thoughtText)
}

// RankerFunc adapts a plain function to the Ranker interface.
type RankerFunc func(ctx context.Context, problem string, thoughtTexts []string) ([]int, error)

// Rank implements Ranker.
func (f RankerFunc) Rank(ctx context.Context, problem string, thoughtTexts []string) ([]int, error) {
	return f(ctx, problem, thoughtTexts)
}

// GeneratorFunc adapts a plain function to the Generator interface.
type GeneratorFunc func(ctx context.Context, problem string, frontier []*Thought, depth int, cfg SearchConfig) ([]*Thought, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, problem string, frontier []*Thought, depth int, cfg SearchConfig) ([]*Thought, error) {
	return f(ctx, problem, frontier, depth, cfg)
}
