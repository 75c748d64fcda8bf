package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(depth int) []*Thought {
	var all []*Thought
	parent := ""
	for d := 0; d <= depth; d++ {
		th := NewThought("step", OriginPractical, d, parent)
		all = append(all, th)
		parent = th.ID
	}
	return all
}

func TestExtractPath(t *testing.T) {
	all := chain(3)
	leaf := all[len(all)-1]

	path, err := ExtractPath(all, leaf.ID)
	require.NoError(t, err)
	require.Len(t, path, 4)
	assert.Equal(t, leaf.ID, path[len(path)-1].ID)
	assert.Empty(t, path[0].ParentID)
	for i := 1; i < len(path); i++ {
		assert.Equal(t, path[i-1].ID, path[i].ParentID, "link at %d", i)
		assert.Equal(t, i, path[i].Depth)
	}
}

func TestExtractPath_RootLeaf(t *testing.T) {
	root := NewThought("only", OriginCreative, 0, "")
	path, err := ExtractPath([]*Thought{root}, root.ID)
	require.NoError(t, err)
	require.Len(t, path, 1)
	assert.Equal(t, root.ID, path[0].ID)
}

func TestExtractPath_Violations(t *testing.T) {
	t.Run("unknown leaf", func(t *testing.T) {
		_, err := ExtractPath(chain(1), "missing")
		assert.True(t, IsKind(err, KindInvariantViolation))
	})
	t.Run("dangling parent", func(t *testing.T) {
		orphan := NewThought("orphan", OriginCreative, 2, "gone")
		_, err := ExtractPath([]*Thought{orphan}, orphan.ID)
		assert.True(t, IsKind(err, KindInvariantViolation))
	})
	t.Run("non-decreasing parent depth", func(t *testing.T) {
		a := NewThought("a", OriginCreative, 2, "")
		b := NewThought("b", OriginCreative, 2, a.ID)
		_, err := ExtractPath([]*Thought{a, b}, b.ID)
		assert.True(t, IsKind(err, KindInvariantViolation))
	})
}

func TestDistributions(t *testing.T) {
	all := []*Thought{
		NewThought("a", OriginCreative, 0, ""),
		NewThought("b", OriginPractical, 0, ""),
		NewThought("c", OriginPractical, 1, ""),
	}
	assert.Equal(t, map[Origin]int{OriginCreative: 1, OriginPractical: 2}, OriginDistribution(all))
	assert.Equal(t, map[int]int{0: 2, 1: 1}, DepthDistribution(all))
}
