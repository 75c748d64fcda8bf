package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"

	"github.com/hrygo/mindtree/search"
)

// DemoBackend is a deterministic offline backend: thought text is
// synthesized locally and scores are derived from a stable hash, so demo
// runs need no network and always reproduce.
type DemoBackend struct{}

// NewDemoBackend creates the offline backend.
func NewDemoBackend() *DemoBackend {
	return &DemoBackend{}
}

// Generate implements search.Generator.
func (d *DemoBackend) Generate(_ context.Context, problem string, frontier []*search.Thought, depth int, cfg search.SearchConfig) ([]*search.Thought, error) {
	ratio, err := search.ParseRatio(cfg.CategoryRatio)
	if err != nil {
		return nil, err
	}
	nCreative, nPractical := ratio.Split(cfg.NGenerate)

	var thoughts []*search.Thought
	emit := func(origin search.Origin, n int) {
		for i := 0; i < n; i++ {
			parentID := ""
			if len(frontier) > 0 {
				parentID = frontier[i%len(frontier)].ID
			}
			text := fmt.Sprintf("%s step %d at depth %d for %q", origin, i+1, depth, problem)
			thoughts = append(thoughts, search.NewThought(text, origin, depth, parentID))
		}
	}
	emit(search.OriginCreative, nCreative)
	emit(search.OriginPractical, nPractical)
	return thoughts, nil
}

// Scorer implements the value-mode callback with hash-derived scores.
func (d *DemoBackend) Scorer(search.Origin) search.Scorer {
	return search.ScorerFunc(func(_ context.Context, problem, thoughtText string) (float64, error) {
		return demoScore(problem, thoughtText), nil
	})
}

// Ranker implements the vote-mode callback, ordering by the same
// hash-derived scores.
func (d *DemoBackend) Ranker(search.Origin) search.Ranker {
	return search.RankerFunc(func(_ context.Context, problem string, thoughtTexts []string) ([]int, error) {
		idx := make([]int, len(thoughtTexts))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return demoScore(problem, thoughtTexts[idx[a]]) > demoScore(problem, thoughtTexts[idx[b]])
		})
		return idx, nil
	})
}

func demoScore(problem, text string) float64 {
	h := fnv.New32a()
	h.Write([]byte(problem))
	h.Write([]byte(text))
	return float64(h.Sum32()%1000) / 100
}
