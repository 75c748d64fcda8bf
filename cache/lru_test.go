package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRU_SetGet(t *testing.T) {
	c := NewLRU[string, int](4, time.Minute)

	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_OverwriteIsIdempotent(t *testing.T) {
	c := NewLRU[string, int](4, time.Minute)
	c.Set("a", 1, 0)
	c.Set("a", 7, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 7, v)
	assert.Equal(t, 1, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string, int](3, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", 4, 0)

	_, ok = c.Get("b")
	assert.False(t, ok, "oldest untouched entry should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("d")
	assert.True(t, ok)
}

func TestLRU_Expiry(t *testing.T) {
	c := NewLRU[string, int](4, time.Minute)
	c.Set("soon", 1, 10*time.Millisecond)

	_, ok := c.Get("soon")
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)
	_, ok = c.Get("soon")
	assert.False(t, ok, "expired entry should be dropped on access")
}

func TestLRU_RemovePurge(t *testing.T) {
	c := NewLRU[string, int](4, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)

	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	c.Purge()
	assert.Equal(t, 0, c.Len())
}

func TestLRU_ConcurrentAccess(t *testing.T) {
	c := NewLRU[int, int](64, time.Minute)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func(g int) {
			defer func() { done <- struct{}{} }()
			for i := 0; i < 200; i++ {
				c.Set(i%32, g*1000+i, 0)
				c.Get(i % 32)
			}
		}(g)
	}
	for g := 0; g < 8; g++ {
		<-done
	}
	assert.LessOrEqual(t, c.Len(), 64)
}

func TestScoreCache(t *testing.T) {
	c := NewScoreCache(16, time.Minute)

	_, ok := c.Get("problem", "thought")
	require.False(t, ok)

	c.Put("problem", "thought", 8.2)
	score, ok := c.Get("problem", "thought")
	require.True(t, ok)
	assert.Equal(t, 8.2, score)

	assert.Equal(t, int64(1), c.Hits())
	assert.Equal(t, int64(1), c.Misses())

	t.Run("different problem misses", func(t *testing.T) {
		_, ok := c.Get("other problem", "thought")
		assert.False(t, ok)
	})
}

func TestKey_SeparatorKeepsPairsDistinct(t *testing.T) {
	assert.NotEqual(t, Key("ab", "c"), Key("a", "bc"))
	assert.Equal(t, Key("p", "t"), Key("p", "t"))
}

func TestScoreCache_CapacityBound(t *testing.T) {
	c := NewScoreCache(8, time.Minute)
	for i := 0; i < 32; i++ {
		c.Put("p", fmt.Sprintf("thought %d", i), float64(i))
	}
	assert.Equal(t, 8, c.Len())
}
