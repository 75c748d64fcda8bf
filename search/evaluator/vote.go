package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hrygo/mindtree/search"
)

// vote runs the comparative-ranking method: nEvaluate independent full
// rankings of the batch, aggregated by Borda count and normalized to [0,10].
func (e *Evaluator) vote(ctx context.Context, problem string, batch []*search.Thought) (map[string]*search.Evaluation, error) {
	ranker, err := e.rankerFor(batch[0].Origin)
	if err != nil {
		return nil, err
	}

	rankings, err := e.collectRankings(ctx, ranker, problem, batch, e.cfg.NEvaluate)
	if err != nil {
		return nil, err
	}
	if len(rankings) == 0 {
		// Every ranking call failed; recover the whole batch.
		out := make(map[string]*search.Evaluation, len(batch))
		for _, t := range batch {
			t.SetMeta(MetaEvaluationFailed, "all ranking calls failed")
			out[t.ID] = skippedEvaluation(t)
		}
		return out, nil
	}

	samples := bordaSamples(rankings, len(batch))
	out := make(map[string]*search.Evaluation, len(batch))
	for i, t := range batch {
		out[t.ID] = &search.Evaluation{
			ThoughtID:       t.ID,
			OverallScore:    search.Mean(samples[i]),
			Confidence:      search.ConfidenceFromSamples(samples[i]),
			EvaluatorOrigin: t.Origin,
			RawScores:       samples[i],
		}
	}
	return out, nil
}

// collectRankings obtains up to n rankings concurrently. Individual ranking
// failures are dropped with a warning; a malformed permutation is a
// contract breach and fatal.
func (e *Evaluator) collectRankings(ctx context.Context, ranker search.Ranker, problem string, batch []*search.Thought, n int) ([][]int, error) {
	texts := make([]string, len(batch))
	for i, t := range batch {
		texts[i] = t.Text
	}

	results := make([][]int, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := e.sem.Acquire(ctx, 1); err != nil {
				errs[i] = err
				return
			}
			defer e.sem.Release(1)

			callCtx := ctx
			if e.cfg.CallTimeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, e.cfg.CallTimeout)
				defer cancel()
			}
			ranking, err := ranker.Rank(callCtx, problem, texts)
			if err != nil {
				slog.Warn("evaluator: ranking call failed, dropping", "error", err)
				return
			}
			if err := validatePermutation(ranking, len(batch)); err != nil {
				errs[i] = search.NewInvariantViolation(err)
				return
			}
			results[i] = ranking
		}(i)
	}
	wg.Wait()

	var rankings [][]int
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			return nil, errs[i]
		}
		if results[i] != nil {
			rankings = append(rankings, results[i])
		}
	}
	return rankings, nil
}

// bordaSamples converts each ranking into one per-candidate score sample:
// rank r (0-indexed) earns n-r points, normalized by n and scaled by 10.
// The mean of a candidate's samples equals its Borda total divided by
// n*len(rankings), times 10.
func bordaSamples(rankings [][]int, n int) [][]float64 {
	samples := make([][]float64, n)
	for i := range samples {
		samples[i] = make([]float64, 0, len(rankings))
	}
	for _, ranking := range rankings {
		for r, cand := range ranking {
			samples[cand] = append(samples[cand], float64(n-r)/float64(n)*10)
		}
	}
	return samples
}

func validatePermutation(ranking []int, n int) error {
	if len(ranking) != n {
		return fmt.Errorf("ranking has %d entries, want %d", len(ranking), n)
	}
	seen := make([]bool, n)
	for _, idx := range ranking {
		if idx < 0 || idx >= n {
			return fmt.Errorf("ranking index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("ranking repeats index %d", idx)
		}
		seen[idx] = true
	}
	return nil
}
