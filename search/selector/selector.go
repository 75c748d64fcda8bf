// Package selector reduces a scored batch of thoughts to the next search
// frontier. Six strategies are provided; all return distinct batch indices,
// at most nSelect of them.
package selector

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/hrygo/mindtree/search"
)

// Strategy picks up to n indices from a scored batch.
type Strategy interface {
	// Select returns distinct indices into batch, at most n. An empty
	// batch is a NoCandidates error.
	Select(batch []*search.Thought, n int) ([]int, error)
}

// New builds the strategy named by cfg. rng seeds the probabilistic
// strategies so selection stays reproducible in tests.
func New(cfg search.SearchConfig, rng *rand.Rand) (Strategy, error) {
	switch cfg.SelectionMethod {
	case search.SelectGreedy:
		return Greedy{}, nil
	case search.SelectSample:
		return &Sample{Temperature: cfg.Temperature, Rng: rng}, nil
	case search.SelectHybrid:
		return Hybrid{DiversityWeight: cfg.DiversityWeight}, nil
	case search.SelectThreshold:
		return Threshold{Threshold: cfg.ScoreThreshold, Percentile: cfg.AdaptivePercentile}, nil
	case search.SelectEnsemble:
		return Ensemble{
			Greedy: Greedy{},
			Sample: &Sample{Temperature: cfg.Temperature, Rng: rng},
			Hybrid: Hybrid{DiversityWeight: cfg.DiversityWeight},
		}, nil
	case search.SelectCategory:
		ratio, err := search.ParseRatio(cfg.CategoryRatio)
		if err != nil {
			return nil, err
		}
		return Category{Ratio: ratio}, nil
	default:
		return nil, fmt.Errorf("unknown selection method %q", cfg.SelectionMethod)
	}
}

// scoreOf reads a thought's attached score; unscored thoughts rank as 0.
func scoreOf(t *search.Thought) float64 {
	if t.Score == nil {
		return 0
	}
	return *t.Score
}

// rankedIndices returns batch indices sorted by score descending. The sort
// is stable, so ties keep original index order.
func rankedIndices(batch []*search.Thought) []int {
	idx := make([]int, len(batch))
	for i := range batch {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scoreOf(batch[idx[a]]) > scoreOf(batch[idx[b]])
	})
	return idx
}

func checkBatch(batch []*search.Thought) error {
	if len(batch) == 0 {
		return search.NewNoCandidates(fmt.Errorf("selector received empty batch"))
	}
	return nil
}
