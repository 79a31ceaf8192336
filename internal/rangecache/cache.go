// Package rangecache memoizes task-store queries per visible date range.
package rangecache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"prodcal/internal/domain"
)

const (
	// DefaultTTL is how long a cached range stays valid before a revisit
	// goes back to the task store.
	DefaultTTL = 5 * time.Minute

	// DefaultSize bounds how many distinct ranges are kept at once.
	DefaultSize = 64
)

// Range is a queried window, inclusive on both ends.
type Range struct {
	Start time.Time
	End   time.Time
}

// Key is the cache key for the range: both bounds as RFC3339 in UTC, so
// the same window always hits the same entry regardless of the zone the
// caller computed it in.
func (r Range) Key() string {
	return r.Start.UTC().Format(time.RFC3339) + "|" + r.End.UTC().Format(time.RFC3339)
}

// FetchFunc loads tasks for a range from the task store.
type FetchFunc func(ctx context.Context, r Range) ([]domain.Task, error)

// Cache memoizes fetch results with a TTL. Expired entries are treated as
// misses; a failed fetch writes nothing and the error propagates unchanged.
type Cache struct {
	lru *expirable.LRU[string, []domain.Task]
}

func New(size int, ttl time.Duration) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{lru: expirable.NewLRU[string, []domain.Task](size, nil, ttl)}
}

// GetOrFetch returns the cached tasks for r if a valid entry exists,
// otherwise invokes fetch and stores the result.
func (c *Cache) GetOrFetch(ctx context.Context, r Range, fetch FetchFunc) ([]domain.Task, error) {
	key := r.Key()
	if tasks, ok := c.lru.Get(key); ok {
		return tasks, nil
	}
	tasks, err := fetch(ctx, r)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, tasks)
	return tasks, nil
}

// Invalidate drops the entry for r, forcing the next GetOrFetch to hit
// the task store.
func (c *Cache) Invalidate(r Range) {
	c.lru.Remove(r.Key())
}

// Purge drops every entry. Used by the manual refresh action.
func (c *Cache) Purge() {
	c.lru.Purge()
}

func (c *Cache) Len() int {
	return c.lru.Len()
}
