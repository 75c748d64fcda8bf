package selector

import "github.com/hrygo/mindtree/search"

// Greedy selects the top-n thoughts by score, ties broken by original
// batch order.
type Greedy struct{}

// Select implements Strategy.
func (Greedy) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	idx := rankedIndices(batch)
	if n > len(idx) {
		n = len(idx)
	}
	return idx[:n], nil
}
