// Package cache memoises upstream lookups keyed by geohash cell.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/mmcloughlin/geohash"
)

// Precision 7 cells are roughly 150m x 150m.
const Precision = 7

type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Key builds "<prefix>:<geohash>" for a coordinate.
func Key(prefix string, lat, lng float64) string {
	return prefix + ":" + geohash.EncodeWithPrecision(lat, lng, Precision)
}

type memEntry struct {
	value   string
	expires time.Time
}

// DefaultMaxEntries bounds Memory when NewMemory is used.
const DefaultMaxEntries = 50000

// Memory is a process-local cache used when REDIS_URL is unset. It holds at
// most limit entries: a full cache first drops expired entries, then arbitrary
// ones.
type Memory struct {
	mu    sync.Mutex
	m     map[string]memEntry
	limit int
	now   func() time.Time
}

func NewMemory() *Memory { return NewMemorySize(DefaultMaxEntries) }

// NewMemorySize returns a Memory holding at most limit entries; limit <= 0
// means DefaultMaxEntries.
func NewMemorySize(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMaxEntries
	}
	return &Memory{m: map[string]memEntry{}, limit: limit, now: time.Now}
}

// Len is the number of stored entries, expired ones included.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}

func (c *Memory) Get(_ context.Context, key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.m, key)
		return "", false
	}
	return e.value, true
}

// Set stores value; ttl <= 0 means no expiry.
func (c *Memory) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, ok := c.m[key]; !ok && len(c.m) >= c.limit {
		c.evict(now)
	}
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	c.m[key] = e
}

// evict makes room for one entry. Callers hold mu.
func (c *Memory) evict(now time.Time) {
	for k, e := range c.m {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(c.m, k)
		}
	}
	for k := range c.m {
		if len(c.m) < c.limit {
			return
		}
		delete(c.m, k)
	}
}
