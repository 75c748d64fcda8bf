// Package cache provides the in-memory memoization layer for the search
// engine: a generic TTL-aware LRU plus a score cache keyed on
// (problem, thought text) digests.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a fixed-capacity least-recently-used cache with per-entry expiry.
// Safe for concurrent use; duplicate writes of the same key are idempotent.
type LRU[K comparable, V any] struct {
	entries    map[K]*lruEntry[K, V]
	order      *list.List
	capacity   int
	defaultTTL time.Duration
	mu         sync.Mutex
}

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
	element   *list.Element
}

// NewLRU creates a cache. Non-positive capacity defaults to 1024;
// non-positive ttl defaults to 10 minutes.
func NewLRU[K comparable, V any](capacity int, defaultTTL time.Duration) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1024
	}
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &LRU[K, V]{
		entries:    make(map[K]*lruEntry[K, V]),
		order:      list.New(),
		capacity:   capacity,
		defaultTTL: defaultTTL,
	}
}

// Get returns the live value for key, refreshing its recency.
// Expired entries are removed on access.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		c.remove(e)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(e.element)
	return e.value, true
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (c *LRU[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		return
	}

	for len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.remove(oldest.Value.(*lruEntry[K, V]))
	}

	e := &lruEntry[K, V]{key: key, value: value, expiresAt: time.Now().Add(ttl)}
	e.element = c.order.PushFront(e)
	c.entries[key] = e
}

// Remove deletes key if present.
func (c *LRU[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		c.remove(e)
		return true
	}
	return false
}

// Len returns the number of entries, expired ones included.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Purge drops every entry.
func (c *LRU[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*lruEntry[K, V])
	c.order.Init()
}

// must be called with mu held
func (c *LRU[K, V]) remove(e *lruEntry[K, V]) {
	c.order.Remove(e.element)
	delete(c.entries, e.key)
}
