package selector

import "github.com/hrygo/mindtree/search"

// Category allocates the selection budget across origin categories by the
// configured ratio, then picks the top scorers within each category
// independently. The total can fall short of n when a category has too few
// candidates.
type Category struct {
	Ratio search.Ratio
}

// Select implements Strategy.
func (c Category) Select(batch []*search.Thought, n int) ([]int, error) {
	if err := checkBatch(batch); err != nil {
		return nil, err
	}
	if n > len(batch) {
		n = len(batch)
	}

	nCreative, nPractical := c.Ratio.Split(n)

	var selected []int
	selected = append(selected, topOfOrigin(batch, search.OriginCreative, nCreative)...)
	selected = append(selected, topOfOrigin(batch, search.OriginPractical, nPractical)...)
	return selected, nil
}

func topOfOrigin(batch []*search.Thought, origin search.Origin, n int) []int {
	var picks []int
	for _, i := range rankedIndices(batch) {
		if len(picks) >= n {
			break
		}
		if batch[i].Origin == origin {
			picks = append(picks, i)
		}
	}
	return picks
}
