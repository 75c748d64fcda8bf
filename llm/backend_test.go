package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/mindtree/search"
)

func frontierOf(texts ...string) []*search.Thought {
	out := make([]*search.Thought, len(texts))
	for i, txt := range texts {
		out[i] = search.NewThought(txt, search.OriginPractical, 1, "")
	}
	return out
}

func TestParseStep(t *testing.T) {
	frontier := frontierOf("step one", "step two")

	testCases := []struct {
		name       string
		line       string
		wantText   string
		wantParent int // index into frontier, -1 for nil
	}{
		{"explicit reference", "[2] refine the estimate", "refine the estimate", 1},
		{"list marker then reference", "1. [1] gather data", "gather data", 0},
		{"no reference defaults to first", "just do it", "just do it", 0},
		{"out-of-range reference kept as text", "[9] something", "[9] something", 0},
		{"blank line", "   ", "", -1},
		{"marker only", "2.", "", -1},
		{"reference with no text", "[1]   ", "", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			text, parent := parseStep(tc.line, frontier)
			assert.Equal(t, tc.wantText, text)
			if tc.wantParent < 0 || text == "" {
				assert.Nil(t, parent)
			} else {
				require.NotNil(t, parent)
				assert.Same(t, frontier[tc.wantParent], parent)
			}
		})
	}

	t.Run("empty frontier yields no parent", func(t *testing.T) {
		text, parent := parseStep("- first idea", nil)
		assert.Equal(t, "first idea", text)
		assert.Nil(t, parent)
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "8.5", firstLine("8.5"))
	assert.Equal(t, "8.5", firstLine("  8.5\nbecause it is solid"))
	assert.Equal(t, "", firstLine("   "))
}

func TestDemoBackend_GenerateIsDeterministic(t *testing.T) {
	d := NewDemoBackend()
	cfg := search.DefaultSearchConfig()
	cfg.NGenerate = 4
	cfg.CategoryRatio = "5:5"

	first, err := d.Generate(context.Background(), "launch plan", nil, 0, cfg)
	require.NoError(t, err)
	require.Len(t, first, 4)

	again, err := d.Generate(context.Background(), "launch plan", nil, 0, cfg)
	require.NoError(t, err)
	require.Len(t, again, 4)
	for i := range first {
		assert.Equal(t, first[i].Text, again[i].Text)
		assert.Equal(t, first[i].Origin, again[i].Origin)
	}

	dist := search.OriginDistribution(first)
	assert.Equal(t, 2, dist[search.OriginCreative])
	assert.Equal(t, 2, dist[search.OriginPractical])
}

func TestDemoBackend_GenerateAttachesFrontierParents(t *testing.T) {
	d := NewDemoBackend()
	cfg := search.DefaultSearchConfig()
	cfg.NGenerate = 4

	frontier := frontierOf("a", "b")
	batch, err := d.Generate(context.Background(), "p", frontier, 2, cfg)
	require.NoError(t, err)

	known := map[string]bool{frontier[0].ID: true, frontier[1].ID: true}
	for _, th := range batch {
		assert.True(t, known[th.ParentID], "parent must come from the frontier")
		assert.Equal(t, 2, th.Depth)
	}
}

func TestDemoBackend_ScorerInRangeAndStable(t *testing.T) {
	scorer := NewDemoBackend().Scorer(search.OriginCreative)

	s1, err := scorer.Score(context.Background(), "p", "some thought")
	require.NoError(t, err)
	s2, err := scorer.Score(context.Background(), "p", "some thought")
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.GreaterOrEqual(t, s1, 0.0)
	assert.LessOrEqual(t, s1, 10.0)

	other, err := scorer.Score(context.Background(), "different problem", "some thought")
	require.NoError(t, err)
	assert.NotEqual(t, s1, other, "score depends on the problem too")
}

func TestDemoBackend_RankerIsPermutation(t *testing.T) {
	ranker := NewDemoBackend().Ranker(search.OriginPractical)
	texts := []string{"a", "b", "c", "d"}

	ranking, err := ranker.Rank(context.Background(), "p", texts)
	require.NoError(t, err)
	require.Len(t, ranking, len(texts))

	seen := make([]bool, len(texts))
	for _, i := range ranking {
		require.GreaterOrEqual(t, i, 0)
		require.Less(t, i, len(texts))
		assert.False(t, seen[i])
		seen[i] = true
	}

	// Ranking follows the same scores the scorer hands out.
	for k := 1; k < len(ranking); k++ {
		prev := demoScore("p", texts[ranking[k-1]])
		cur := demoScore("p", texts[ranking[k]])
		assert.GreaterOrEqual(t, prev, cur)
	}
}
