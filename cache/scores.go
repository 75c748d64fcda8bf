package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync/atomic"
	"time"
)

// ScoreCache memoizes evaluation scores by (problem, thought text). It is
// injected into each evaluator rather than shared process-wide, so
// concurrent runs and tests stay isolated.
type ScoreCache struct {
	lru    *LRU[string, float64]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewScoreCache creates a score cache with the given capacity and expiry.
func NewScoreCache(capacity int, ttl time.Duration) *ScoreCache {
	return &ScoreCache{lru: NewLRU[string, float64](capacity, ttl)}
}

// Key digests a (problem, thought text) pair. The separator byte keeps
// ("ab","c") and ("a","bc") distinct.
func Key(problem, thoughtText string) string {
	h := sha256.New()
	h.Write([]byte(problem))
	h.Write([]byte{0})
	h.Write([]byte(thoughtText))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the memoized score for the pair, if live.
func (c *ScoreCache) Get(problem, thoughtText string) (float64, bool) {
	score, ok := c.lru.Get(Key(problem, thoughtText))
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return score, ok
}

// Put memoizes a score for the pair using the cache's default expiry.
func (c *ScoreCache) Put(problem, thoughtText string, score float64) {
	c.lru.Set(Key(problem, thoughtText), score, 0)
}

// Hits returns the number of cache hits since creation.
func (c *ScoreCache) Hits() int64 { return c.hits.Load() }

// Misses returns the number of cache misses since creation.
func (c *ScoreCache) Misses() int64 { return c.misses.Load() }

// Len returns the number of memoized scores.
func (c *ScoreCache) Len() int { return c.lru.Len() }
