package selector

import (
	"math"
	"sort"

	"github.com/hrygo/mindtree/search"
)

// Threshold keeps every candidate scoring at least the cut, sorted
// descending and capped at n. When nothing qualifies, the single best
// candidate is kept so the search can continue.
type Threshold struct {
	// Threshold is the absolute score cut in [0,10].
	Threshold float64

	// Percentile, when positive, makes the cut adaptive: it is computed
	// as this percentile of the batch's score distribution, and
	// Threshold is ignored.
	Percentile float64
}

// Select implements Strategy.
func (t Threshold) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	if n > len(batch) {
		n = len(batch)
	}

	cut := t.Threshold
	if t.Percentile > 0 {
		cut = percentile(batch, t.Percentile)
	}

	ranked := rankedIndices(batch)
	var kept []int
	for _, i := range ranked {
		if scoreOf(batch[i]) >= cut {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		// Nothing qualifies; fall back to the single best candidate.
		return ranked[:1], nil
	}
	if len(kept) > n {
		kept = kept[:n]
	}
	return kept, nil
}

// percentile computes the p-th percentile (0-100) of the batch's scores
// with linear interpolation between ranks.
func percentile(batch []*search.Thought, p float64) float64 {
	scores := make([]float64, len(batch))
	for i, th := range batch {
		scores[i] = scoreOf(th)
	}
	sort.Float64s(scores)

	if p <= 0 {
		return scores[0]
	}
	if p >= 100 {
		return scores[len(scores)-1]
	}
	pos := p / 100 * float64(len(scores)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return scores[lo]
	}
	frac := pos - float64(lo)
	return scores[lo]*(1-frac) + scores[hi]*frac
}
