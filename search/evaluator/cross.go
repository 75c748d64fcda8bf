package evaluator

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/hrygo/mindtree/search"
)

// Agreement and consensus bars for combining the two categories' verdicts.
const (
	agreementBar = 0.8
	consensusBar = 0.7
)

// Low-consensus vote weighting favors the practicality-first category.
const (
	lowConsensusPracticalWeight = 0.6
	lowConsensusCreativeWeight  = 0.4
)

// crossValue scores every thought with both categories' callbacks and
// combines the per-category averages: their mean when the categories agree,
// the more conservative minimum when they do not.
func (e *Evaluator) crossValue(ctx context.Context, problem string, batch []*search.Thought) (map[string]*search.Evaluation, error) {
	creative, err := e.scorerForExact(search.OriginCreative)
	if err != nil {
		return nil, err
	}
	practical, err := e.scorerForExact(search.OriginPractical)
	if err != nil {
		return nil, err
	}

	evals := make([]*search.Evaluation, len(batch))
	errs := make([]error, len(batch))
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
			evals[i], errs[i] = e.crossScoreThought(ctx, problem, t, creative, practical)
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

func (e *Evaluator) crossScoreThought(ctx context.Context, problem string, t *search.Thought, creative, practical search.Scorer) (*search.Evaluation, error) {
	if e.cfg.CacheEnabled && e.scores != nil {
		if cached, ok := e.scores.Get(problem, t.Text); ok {
			return &search.Evaluation{
				ThoughtID:       t.ID,
				OverallScore:    cached,
				Confidence:      search.DefaultConfidence,
				EvaluatorOrigin: search.OriginCross,
				RawScores:       []float64{cached},
			}, nil
		}
	}

	creativeSamples, err := e.takeSamples(ctx, creative, problem, t.Text, e.cfg.NEvaluate)
	if err == nil {
		var practicalSamples []float64
		practicalSamples, err = e.takeSamples(ctx, practical, problem, t.Text, e.cfg.NEvaluate)
		if err == nil {
			ev := combineCrossValue(t.ID, search.Mean(creativeSamples), search.Mean(practicalSamples))
			if e.cfg.CacheEnabled && e.scores != nil {
				e.scores.Put(problem, t.Text, ev.OverallScore)
			}
			return ev, nil
		}
	}
	if search.IsKind(err, search.KindInvariantViolation) {
		return nil, err
	}
	slog.Warn("evaluator: cross scoring failed, recovering with zero score",
		"thought_id", t.ID, "error", err)
	t.SetMeta(MetaEvaluationFailed, err.Error())
	ev := skippedEvaluation(t)
	ev.EvaluatorOrigin = search.OriginCross
	return ev, nil
}

// combineCrossValue merges the two categories' averages. High agreement
// takes their mean; low agreement takes the minimum.
func combineCrossValue(thoughtID string, avgCreative, avgPractical float64) *search.Evaluation {
	agreement := 1 - math.Abs(avgCreative-avgPractical)/math.Max(math.Max(avgCreative, avgPractical), 1)
	breakdown := map[string]float64{
		"creative":  avgCreative,
		"practical": avgPractical,
		"agreement": agreement,
	}
	if agreement > agreementBar {
		raw := []float64{avgCreative, avgPractical}
		return &search.Evaluation{
			ThoughtID:       thoughtID,
			OverallScore:    search.Mean(raw),
			Confidence:      search.ConfidenceFromSamples(raw),
			EvaluatorOrigin: search.OriginCross,
			Breakdown:       breakdown,
			RawScores:       raw,
		}
	}
	conservative := math.Min(avgCreative, avgPractical)
	return &search.Evaluation{
		ThoughtID:       thoughtID,
		OverallScore:    conservative,
		Confidence:      clampConfidence(agreement),
		EvaluatorOrigin: search.OriginCross,
		Breakdown:       breakdown,
		RawScores:       []float64{conservative},
	}
}

// crossVote aggregates Borda score vectors from both categories' rankers
// and merges them by Spearman rank consensus: an equal-weight average when
// the categories broadly agree on ordering, a practicality-leaning 0.6/0.4
// blend otherwise.
func (e *Evaluator) crossVote(ctx context.Context, problem string, batch []*search.Thought) (map[string]*search.Evaluation, error) {
	creative, err := e.rankerForExact(search.OriginCreative)
	if err != nil {
		return nil, err
	}
	practical, err := e.rankerForExact(search.OriginPractical)
	if err != nil {
		return nil, err
	}

	creativeRankings, err := e.collectRankings(ctx, creative, problem, batch, e.cfg.NEvaluate)
	if err != nil {
		return nil, err
	}
	practicalRankings, err := e.collectRankings(ctx, practical, problem, batch, e.cfg.NEvaluate)
	if err != nil {
		return nil, err
	}
	if len(creativeRankings) == 0 && len(practicalRankings) == 0 {
		out := make(map[string]*search.Evaluation, len(batch))
		for _, t := range batch {
			t.SetMeta(MetaEvaluationFailed, "all ranking calls failed")
			ev := skippedEvaluation(t)
			ev.EvaluatorOrigin = search.OriginCross
			out[t.ID] = ev
		}
		return out, nil
	}

	// A category with zero surviving rankings falls back to the other's
	// vector; consensus is then trivially perfect.
	creativeScores := bordaVector(creativeRankings, len(batch))
	practicalScores := bordaVector(practicalRankings, len(batch))
	if len(creativeRankings) == 0 {
		creativeScores = practicalScores
	}
	if len(practicalRankings) == 0 {
		practicalScores = creativeScores
	}

	consensus := spearman(creativeScores, practicalScores)
	out := make(map[string]*search.Evaluation, len(batch))
	for i, t := range batch {
		a, b := creativeScores[i], practicalScores[i]
		breakdown := map[string]float64{
			"creative":  a,
			"practical": b,
			"consensus": consensus,
		}
		var ev *search.Evaluation
		if consensus > consensusBar {
			raw := []float64{a, b}
			ev = &search.Evaluation{
				ThoughtID:       t.ID,
				OverallScore:    search.Mean(raw),
				Confidence:      search.ConfidenceFromSamples(raw),
				EvaluatorOrigin: search.OriginCross,
				Breakdown:       breakdown,
				RawScores:       raw,
			}
		} else {
			blended := lowConsensusCreativeWeight*a + lowConsensusPracticalWeight*b
			ev = &search.Evaluation{
				ThoughtID:       t.ID,
				OverallScore:    blended,
				Confidence:      clampConfidence(consensus),
				EvaluatorOrigin: search.OriginCross,
				Breakdown:       breakdown,
				RawScores:       []float64{blended},
			}
		}
		out[t.ID] = ev
	}
	return out, nil
}

// bordaVector aggregates rankings into one normalized [0,10] score per
// candidate.
func bordaVector(rankings [][]int, n int) []float64 {
	scores := make([]float64, n)
	if len(rankings) == 0 {
		return scores
	}
	samples := bordaSamples(rankings, n)
	for i := range scores {
		scores[i] = search.Mean(samples[i])
	}
	return scores
}

// spearman computes the Spearman rank correlation of two equal-length score
// vectors, with tied values receiving averaged ranks. Vectors shorter than
// two elements correlate perfectly by convention.
func spearman(a, b []float64) float64 {
	n := len(a)
	if n < 2 {
		return 1
	}
	ra, rb := fractionalRanks(a), fractionalRanks(b)
	var sumSq float64
	for i := 0; i < n; i++ {
		d := ra[i] - rb[i]
		sumSq += d * d
	}
	return 1 - 6*sumSq/float64(n*(n*n-1))
}

func fractionalRanks(values []float64) []float64 {
	n := len(values)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		return values[idx[x]] < values[idx[y]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[idx[j+1]] == values[idx[i]] {
			j++
		}
		// Tied values share the average of their rank positions.
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

func clampConfidence(v float64) float64 {
	v = math.Round(v*100) / 100
	if v < failureConfidence {
		return failureConfidence
	}
	if v > 1 {
		return 1
	}
	return v
}

func (e *Evaluator) scorerForExact(origin search.Origin) (search.Scorer, error) {
	if s, ok := e.scorers[origin]; ok {
		return s, nil
	}
	return nil, search.NewEvaluationFailed(fmt.Errorf("cross-evaluation requires a %s scorer", origin))
}

func (e *Evaluator) rankerForExact(origin search.Origin) (search.Ranker, error) {
	if r, ok := e.rankers[origin]; ok {
		return r, nil
	}
	return nil, search.NewEvaluationFailed(fmt.Errorf("cross-evaluation requires a %s ranker", origin))
}
