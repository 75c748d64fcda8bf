// Package evaluator scores batches of thoughts through the value, vote,
// and cross-evaluation methods, owning the memoization cache hookup and
// confidence computation.
package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/hrygo/mindtree/cache"
	"github.com/hrygo/mindtree/search"
)

// MetaEvaluationFailed is the thought metadata key recording a recovered
// scoring failure.
const MetaEvaluationFailed = "evaluation_failed"

// MetaSkipped marks thoughts zero-scored because a batch sibling already
// met the early-stop threshold.
const MetaSkipped = "evaluation_skipped"

// failureConfidence is attached to recovered and skipped evaluations.
const failureConfidence = 0.5

// Evaluator scores thoughts via external callbacks. One evaluator serves
// one run; the score cache is injected, never process-global.
type Evaluator struct {
	cfg     search.SearchConfig
	scorers map[search.Origin]search.Scorer
	rankers map[search.Origin]search.Ranker
	scores  *cache.ScoreCache
	sem     *semaphore.Weighted
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithScorer registers the value-mode callback for one category.
func WithScorer(origin search.Origin, s search.Scorer) Option {
	return func(e *Evaluator) { e.scorers[origin] = s }
}

// WithUniformScorer registers the same value-mode callback for every
// category.
func WithUniformScorer(s search.Scorer) Option {
	return func(e *Evaluator) {
		for _, o := range search.GenerationOrigins() {
			e.scorers[o] = s
		}
	}
}

// WithRanker registers the vote-mode callback for one category.
func WithRanker(origin search.Origin, r search.Ranker) Option {
	return func(e *Evaluator) { e.rankers[origin] = r }
}

// WithUniformRanker registers the same vote-mode callback for every
// category.
func WithUniformRanker(r search.Ranker) Option {
	return func(e *Evaluator) {
		for _, o := range search.GenerationOrigins() {
			e.rankers[o] = r
		}
	}
}

// WithScoreCache injects the memoization cache. Ignored unless
// cfg.CacheEnabled is set.
func WithScoreCache(c *cache.ScoreCache) Option {
	return func(e *Evaluator) { e.scores = c }
}

// New creates an evaluator for one run.
func New(cfg search.SearchConfig, opts ...Option) *Evaluator {
	workers := cfg.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	e := &Evaluator{
		cfg:     cfg,
		scorers: make(map[search.Origin]search.Scorer),
		rankers: make(map[search.Origin]search.Ranker),
		sem:     semaphore.NewWeighted(int64(workers)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EvaluateBatch scores every thought in batch, attaches the resulting
// Evaluations, and returns them keyed by thought ID. Selection must not
// proceed until this returns.
func (e *Evaluator) EvaluateBatch(ctx context.Context, problem string, batch []*search.Thought) (map[string]*search.Evaluation, error) {
	if len(batch) == 0 {
		return map[string]*search.Evaluation{}, nil
	}

	var evals map[string]*search.Evaluation
	var err error
	switch e.cfg.EvaluationMethod {
	case search.EvaluateVote:
		if e.cfg.CrossEvaluation {
			evals, err = e.crossVote(ctx, problem, batch)
		} else {
			evals, err = e.vote(ctx, problem, batch)
		}
	default:
		if e.cfg.CrossEvaluation {
			evals, err = e.crossValue(ctx, problem, batch)
		} else {
			evals, err = e.value(ctx, problem, batch)
		}
	}
	if err != nil {
		return nil, err
	}

	for _, t := range batch {
		ev, ok := evals[t.ID]
		if !ok {
			return nil, search.NewInvariantViolation(fmt.Errorf("no evaluation produced for thought %s", t.ID))
		}
		if attachErr := t.AttachEvaluation(ev); attachErr != nil {
			return nil, attachErr
		}
	}
	return evals, nil
}

// value runs the independent-scoring method: nEvaluate repeated samples per
// thought, dispatched concurrently with a bounded worker count.
func (e *Evaluator) value(ctx context.Context, problem string, batch []*search.Thought) (map[string]*search.Evaluation, error) {
	evals := make([]*search.Evaluation, len(batch))
	errs := make([]error, len(batch))

	// Set once a finished thought meets the early-stop bar; workers that
	// have not started yet zero-score their thought instead of calling out.
	var stop atomic.Bool

	var wg sync.WaitGroup
	for i, t := range batch {
		wg.Add(1)
		go func(i int, t *search.Thought) {
			defer wg.Done()
			if err := e.sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer e.sem.Release(1)

			if e.cfg.ConfidenceThreshold > 0 && stop.Load() {
				t.SetMeta(MetaSkipped, "batch sibling met threshold")
				evals[i] = skippedEvaluation(t)
				return
			}

			ev, err := e.scoreThought(ctx, problem, t)
			if err != nil {
				errs[i] = err
				return
			}
			if e.cfg.ConfidenceThreshold > 0 && ev.OverallScore >= e.cfg.ConfidenceThreshold {
				stop.Store(true)
			}
			evals[i] = ev
		}(i, t)
	}
	wg.Wait()

	out := make(map[string]*search.Evaluation, len(batch))
	for i, t := range batch {
		if errs[i] != nil {
			return nil, errs[i]
		}
		out[t.ID] = evals[i]
	}
	return out, nil
}

// scoreThought takes up to nEvaluate samples for one thought, consulting
// the memoization cache first. Callback failures are recovered locally with
// a zero score and low confidence.
func (e *Evaluator) scoreThought(ctx context.Context, problem string, t *search.Thought) (*search.Evaluation, error) {
	if e.cfg.CacheEnabled && e.scores != nil {
		if cached, ok := e.scores.Get(problem, t.Text); ok {
			return &search.Evaluation{
				ThoughtID:       t.ID,
				OverallScore:    cached,
				Confidence:      search.DefaultConfidence,
				EvaluatorOrigin: t.Origin,
				RawScores:       []float64{cached},
			}, nil
		}
	}

	scorer, err := e.scorerFor(t.Origin)
	if err != nil {
		return nil, err
	}

	samples, err := e.takeSamples(ctx, scorer, problem, t.Text, e.cfg.NEvaluate)
	if err != nil {
		if search.IsKind(err, search.KindInvariantViolation) {
			return nil, err
		}
		slog.Warn("evaluator: scoring failed, recovering with zero score",
			"thought_id", t.ID, "error", err)
		t.SetMeta(MetaEvaluationFailed, err.Error())
		return &search.Evaluation{
			ThoughtID:       t.ID,
			OverallScore:    0,
			Confidence:      failureConfidence,
			EvaluatorOrigin: t.Origin,
			RawScores:       []float64{0},
		}, nil
	}

	overall := search.Mean(samples)
	if e.cfg.CacheEnabled && e.scores != nil {
		e.scores.Put(problem, t.Text, overall)
	}
	return &search.Evaluation{
		ThoughtID:       t.ID,
		OverallScore:    overall,
		Confidence:      search.ConfidenceFromSamples(samples),
		EvaluatorOrigin: t.Origin,
		RawScores:       samples,
	}, nil
}

// takeSamples performs up to n scoring calls, each under the configured
// timeout. Once at least two samples exist and their running average meets
// the early-stop bar, the remaining samples are skipped.
func (e *Evaluator) takeSamples(ctx context.Context, scorer search.Scorer, problem, text string, n int) ([]float64, error) {
	samples := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		s, err := e.callScorer(ctx, scorer, problem, text)
		if err != nil {
			return nil, err
		}
		if s < 0 || s > 10 {
			return nil, search.NewInvariantViolation(fmt.Errorf("scorer returned %.3f, outside [0,10]", s))
		}
		samples = append(samples, s)

		if e.cfg.ConfidenceThreshold > 0 && len(samples) >= 2 &&
			search.Mean(samples) >= e.cfg.ConfidenceThreshold {
			break
		}
	}
	return samples, nil
}

func (e *Evaluator) callScorer(ctx context.Context, scorer search.Scorer, problem, text string) (float64, error) {
	if e.cfg.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
		defer cancel()
	}
	return scorer.Score(ctx, problem, text)
}

func (e *Evaluator) scorerFor(origin search.Origin) (search.Scorer, error) {
	if s, ok := e.scorers[origin]; ok {
		return s, nil
	}
	// Fall back to any registered scorer when only one callback exists.
	for _, s := range e.scorers {
		return s, nil
	}
	return nil, search.NewEvaluationFailed(fmt.Errorf("no scorer registered for origin %s", origin))
}

func (e *Evaluator) rankerFor(origin search.Origin) (search.Ranker, error) {
	if r, ok := e.rankers[origin]; ok {
		return r, nil
	}
	for _, r := range e.rankers {
		return r, nil
	}
	return nil, search.NewEvaluationFailed(fmt.Errorf("no ranker registered for origin %s", origin))
}

func skippedEvaluation(t *search.Thought) *search.Evaluation {
	return &search.Evaluation{
		ThoughtID:       t.ID,
		OverallScore:    0,
		Confidence:      failureConfidence,
		EvaluatorOrigin: t.Origin,
		RawScores:       []float64{0},
	}
}
