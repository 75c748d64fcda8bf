package selector

import (
	"sort"

	"github.com/hrygo/mindtree/search"
)

// Hybrid blends min-max-normalized scores with an origin-diversity bonus,
// then selects greedily on the blended score. Thoughts from
// under-represented categories are boosted.
type Hybrid struct {
	// DiversityWeight in [0,1]; 0 reduces to pure greedy selection.
	DiversityWeight float64
}

// Select implements Strategy.
func (h Hybrid) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	if n > len(batch) {
		n = len(batch)
	}

	minScore, maxScore := scoreOf(batch[0]), scoreOf(batch[0])
	for _, t := range batch[1:] {
		sc := scoreOf(t)
		if sc < minScore {
			minScore = sc
		}
		if sc > maxScore {
			maxScore = sc
		}
	}

	counts := make(map[search.Origin]int)
	for _, t := range batch {
		counts[t.Origin]++
	}
	var maxDiversity float64
	diversity := make([]float64, len(batch))
	for i, t := range batch {
		d := 1 / float64(counts[t.Origin]+1)
		diversity[i] = d
		if d > maxDiversity {
			maxDiversity = d
		}
	}

	w := h.DiversityWeight
	final := make([]float64, len(batch))
	for i, t := range batch {
		norm := 1.0
		if maxScore > minScore {
			norm = (scoreOf(t) - minScore) / (maxScore - minScore)
		}
		final[i] = norm*(1-w) + diversity[i]/maxDiversity*w
	}

	idx := make([]int, len(batch))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return final[idx[a]] > final[idx[b]]
	})
	return idx[:n], nil
}
