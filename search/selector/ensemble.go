package selector

import (
	"sort"

	"github.com/hrygo/mindtree/search"
)

// Ensemble runs greedy, sample, and hybrid independently and merges their
// picks: unanimous choices first, then majority (2-of-3) choices, then the
// highest-scoring remainder of the union until n is reached.
type Ensemble struct {
	Greedy Strategy
	Sample Strategy
	Hybrid Strategy
}

// Select implements Strategy.
func (e Ensemble) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	if n > len(batch) {
		n = len(batch)
	}

	votes := make(map[int]int)
	for _, s := range []Strategy{e.Greedy, e.Sample, e.Hybrid} {
		picks, err := s.Select(batch, n)
		if err != nil {
			return nil, err
		}
		for _, i := range picks {
			votes[i]++
		}
	}

	selected := make([]int, 0, n)
	chosen := make(map[int]bool)
	for _, minVotes := range []int{3, 2, 1} {
		if len(selected) >= n {
			break
		}
		var tier []int
		for i, v := range votes {
			if v >= minVotes && !chosen[i] {
				tier = append(tier, i)
			}
		}
		// Highest score first inside a tier, index order on ties.
		sort.Slice(tier, func(a, b int) bool {
			sa, sb := scoreOf(batch[tier[a]]), scoreOf(batch[tier[b]])
			if sa != sb {
				return sa > sb
			}
			return tier[a] < tier[b]
		})
		for _, i := range tier {
			if len(selected) >= n {
				break
			}
			chosen[i] = true
			selected = append(selected, i)
		}
	}
	return selected, nil
}
