// Package engine drives the generate → evaluate → select loop under a
// breadth-first or depth-first traversal policy, assembling the final
// SearchResult.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/mindtree/cache"
	"github.com/hrygo/mindtree/metrics"
	"github.com/hrygo/mindtree/search"
	"github.com/hrygo/mindtree/search/evaluator"
	"github.com/hrygo/mindtree/search/selector"
)

// Engine orchestrates one or more search runs over a fixed set of
// collaborators. Runs do not share mutable state: every run keeps its own
// thought list, and the score cache is safe for concurrent use.
type Engine struct {
	cfg       search.SearchConfig
	generator search.Generator
	evaluator *evaluator.Evaluator
	strategy  selector.Strategy
	scores    *cache.ScoreCache
	exporter  *metrics.Exporter
}

// Option configures an Engine.
type Option func(*Engine)

// WithMetrics attaches a Prometheus exporter.
func WithMetrics(m *metrics.Exporter) Option {
	return func(e *Engine) { e.exporter = m }
}

// WithScoreCache shares the memoization cache with the engine so run
// metadata can report hit counts. The evaluator receives it separately.
func WithScoreCache(c *cache.ScoreCache) Option {
	return func(e *Engine) { e.scores = c }
}

// New creates an engine. cfg must validate; gen, eval, and strat are the
// run's external collaborators and algorithm family.
func New(cfg search.SearchConfig, gen search.Generator, eval *evaluator.Evaluator, strat selector.Strategy, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if gen == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if eval == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if strat == nil {
		return nil, fmt.Errorf("selection strategy is required")
	}
	e := &Engine{cfg: cfg, generator: gen, evaluator: eval, strategy: strat}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes one search using the configured traversal algorithm.
func (e *Engine) Run(ctx context.Context, problem string) (*search.SearchResult, error) {
	if e.cfg.Algorithm == search.AlgorithmDFS {
		return e.DepthFirst(ctx, problem)
	}
	return e.BreadthFirst(ctx, problem)
}

// run is the per-search mutable state. The engine owns the append-only
// thought list exclusively; thoughts are never removed during a run.
type run struct {
	id      string
	problem string
	started time.Time

	all          []*search.Thought
	evals        map[string]*search.Evaluation
	earlyStopped bool
	depthReached int
	cacheHitsAt  int64
}

func (e *Engine) newRun(problem string) *run {
	r := &run{
		id:      shortuuid.New(),
		problem: problem,
		started: time.Now(),
		evals:   make(map[string]*search.Evaluation),
	}
	if e.scores != nil {
		r.cacheHitsAt = e.scores.Hits()
	}
	return r
}

// generate calls the Generator port under the configured timeout and
// validates the structural shape of what comes back. Zero thoughts is a
// dead end, not an error.
func (e *Engine) generate(ctx context.Context, r *run, frontier []*search.Thought, depth int) ([]*search.Thought, error) {
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}

	batch, err := e.generator.Generate(ctx, r.problem, frontier, depth, e.cfg)
	if err != nil {
		return nil, search.NewGenerationFailed(err)
	}
	if len(batch) > e.cfg.NGenerate {
		return nil, search.NewInvariantViolation(
			fmt.Errorf("generator returned %d thoughts, max %d", len(batch), e.cfg.NGenerate))
	}

	parents := make(map[string]*search.Thought, len(frontier))
	for _, p := range frontier {
		parents[p.ID] = p
	}
	for _, t := range batch {
		var parent *search.Thought
		if depth > 0 {
			p, ok := parents[t.ParentID]
			if !ok {
				return nil, search.NewInvariantViolation(
					fmt.Errorf("thought %s parent %s not in frontier", t.ID, t.ParentID))
			}
			parent = p
		}
		if err := t.ValidateShape(parent, depth); err != nil {
			return nil, search.NewInvariantViolation(err)
		}
	}

	r.all = append(r.all, batch...)
	if depth > r.depthReached {
		r.depthReached = depth
	}
	if e.exporter != nil {
		for origin, n := range search.OriginDistribution(batch) {
			e.exporter.ObserveGenerated(string(origin), n)
		}
	}
	return batch, nil
}

// evaluate scores a batch and folds the evaluations into the run.
func (e *Engine) evaluate(ctx context.Context, r *run, batch []*search.Thought) error {
	evals, err := e.evaluator.EvaluateBatch(ctx, r.problem, batch)
	if err != nil {
		return err
	}
	for id, ev := range evals {
		r.evals[id] = ev
	}
	if e.exporter != nil {
		e.exporter.ObserveEvaluated(len(batch))
	}
	return nil
}

// bestOf returns the highest-scoring thought of a batch, ties to the
// earliest.
func bestOf(batch []*search.Thought) *search.Thought {
	var best *search.Thought
	for _, t := range batch {
		if t.Score == nil {
			continue
		}
		if best == nil || *t.Score > *best.Score {
			best = t
		}
	}
	return best
}

// assemble builds the immutable SearchResult for the winning thought.
func (e *Engine) assemble(r *run, best *search.Thought) (*search.SearchResult, error) {
	path, err := search.ExtractPath(r.all, best.ID)
	if err != nil {
		return nil, err
	}
	if _, ok := r.evals[best.ID]; !ok {
		return nil, search.NewInvariantViolation(fmt.Errorf("best thought %s has no evaluation", best.ID))
	}

	var hits int64
	if e.scores != nil {
		hits = e.scores.Hits() - r.cacheHitsAt
	}
	duration := time.Since(r.started)
	result := &search.SearchResult{
		RunID:       r.id,
		Problem:     r.problem,
		BestThought: best,
		Path:        path,
		AllThoughts: r.all,
		Evaluations: r.evals,
		Metadata: search.ResultMetadata{
			Algorithm:    e.cfg.Algorithm,
			EarlyStopped: r.earlyStopped,
			DepthReached: r.depthReached,
			Generated:    len(r.all),
			Evaluated:    len(r.evals),
			CacheHits:    int(hits),
			Duration:     duration,
		},
	}

	if e.exporter != nil {
		outcome := "exhausted"
		if r.earlyStopped {
			outcome = "early_stop"
		}
		e.exporter.ObserveSearch(string(e.cfg.Algorithm), outcome, duration, r.depthReached, r.earlyStopped)
		if e.scores != nil {
			e.exporter.ObserveCache(hits, 0)
		}
	}
	return result, nil
}

// failRun records a failed run in metrics and attaches partial progress.
func (e *Engine) failRun(r *run, serr *search.SearchError) error {
	if e.exporter != nil {
		e.exporter.ObserveSearch(string(e.cfg.Algorithm), serr.Kind.String(), time.Since(r.started), r.depthReached, false)
	}
	return serr.WithProgress(r.all)
}
