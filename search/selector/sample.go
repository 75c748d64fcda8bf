package selector

import (
	"math"
	"math/rand"

	"github.com/hrygo/mindtree/search"
)

// Sample draws n indices without replacement from a temperature-scaled
// score distribution. Each draw removes the chosen index's probability mass
// and renormalizes the remainder.
type Sample struct {
	// Temperature scales sharpness: below 1 concentrates mass on high
	// scores, above 1 flattens the distribution. Non-positive values are
	// treated as 1.
	Temperature float64

	// Rng is the injected random source. Required; a seeded source makes
	// selection reproducible.
	Rng *rand.Rand
}

// Select implements Strategy.
func (s *Sample) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	if n > len(batch) {
		n = len(batch)
	}

	temp := s.Temperature
	if temp <= 0 {
		temp = 1
	}

	// Shift so the minimum weight is at least 0.01, then sharpen.
	minScore := scoreOf(batch[0])
	for _, t := range batch[1:] {
		if sc := scoreOf(t); sc < minScore {
			minScore = sc
		}
	}
	weights := make([]float64, len(batch))
	var total float64
	for i, t := range batch {
		w := math.Pow(scoreOf(t)-minScore+0.01, 1/temp)
		weights[i] = w
		total += w
	}

	selected := make([]int, 0, n)
	taken := make([]bool, len(batch))
	for len(selected) < n && total > 0 {
		r := s.Rng.Float64() * total
		pick := -1
		for i, w := range weights {
			if taken[i] {
				continue
			}
			r -= w
			if r <= 0 {
				pick = i
				break
			}
		}
		// Float round-off can leave r marginally positive; take the last
		// untaken index.
		if pick < 0 {
			for i := len(batch) - 1; i >= 0; i-- {
				if !taken[i] {
					pick = i
					break
				}
			}
		}
		if pick < 0 {
			break
		}
		taken[pick] = true
		total -= weights[pick]
		selected = append(selected, pick)
	}
	return selected, nil
}
