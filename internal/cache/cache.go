// Package cache provides the in-memory lookup caches shared by the external clients.
//
// A cache maps a query key to either a value or an explicit "missing" marker so
// that known-negative lookups are not repeated. Caches are safe for concurrent
// use, and concurrent loads of the same uncached key share one call.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

// Entry is a cached lookup result.
type Entry[V any] struct {
	Value   V
	Missing bool
}

// Outcome tells GetOrLoad what to store for a loaded key.
type Outcome int

const (
	// Found stores the loaded value.
	Found Outcome = iota
	// Missing stores a negative marker.
	Missing
	// Transient stores nothing; the next lookup calls the loader again.
	Transient
)

// Option configures a Cache.
type Option func(*options)

type options struct {
	onLookup func(hit bool)
}

// WithLookupHook registers a callback invoked on every GetOrLoad with whether
// the key was already cached.
func WithLookupHook(fn func(hit bool)) Option {
	return func(o *options) {
		o.onLookup = fn
	}
}

// Cache is an unbounded map from string keys to entries with an optional TTL.
type Cache[V any] struct {
	name    string
	entries *expirable.LRU[string, Entry[V]]
	group   singleflight.Group
	opts    options
}

// New creates a cache. A zero ttl keeps entries until Clear is called.
func New[V any](name string, ttl time.Duration, opts ...Option) *Cache[V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Cache[V]{
		name:    name,
		entries: expirable.NewLRU[string, Entry[V]](0, nil, ttl),
		opts:    o,
	}
}

// Name returns the cache name used in logs and metrics.
func (c *Cache[V]) Name() string {
	return c.name
}

// Get returns the entry stored under key.
func (c *Cache[V]) Get(key string) (Entry[V], bool) {
	return c.entries.Get(key)
}

// Set stores a value under key.
func (c *Cache[V]) Set(key string, value V) {
	c.entries.Add(key, Entry[V]{Value: value})
}

// SetMissing stores a negative marker under key.
func (c *Cache[V]) SetMissing(key string) {
	c.entries.Add(key, Entry[V]{Missing: true})
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.entries.Purge()
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.entries.Len()
}

func (c *Cache[V]) lookup(hit bool) {
	if c.opts.onLookup != nil {
		c.opts.onLookup(hit)
	}
}

type loadResult[V any] struct {
	value V
	found bool
}

// GetOrLoad returns the cached entry for key or calls load to produce one.
// The boolean result is false when the key is (or was just recorded as) missing
// or the load was transient. Errors from load are returned and never cached.
//
// Concurrent callers of one key share a single load. The load runs on a
// context detached from the caller that started it, so one caller going away
// does not fail the others; each caller stops waiting when its own ctx ends.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (V, Outcome, error)) (V, bool, error) {
	var zero V
	if entry, ok := c.entries.Get(key); ok {
		c.lookup(true)
		return entry.Value, !entry.Missing, nil
	}
	c.lookup(false)
	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		if entry, ok := c.entries.Get(key); ok {
			return loadResult[V]{value: entry.Value, found: !entry.Missing}, nil
		}

		value, outcome, err := load(loadCtx)
		if err != nil {
			return loadResult[V]{}, err
		}

		switch outcome {
		case Found:
			c.Set(key, value)
			return loadResult[V]{value: value, found: true}, nil
		case Missing:
			c.SetMissing(key)
		}
		return loadResult[V]{value: value}, nil
	})

	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, false, res.Err
		}
		r := res.Val.(loadResult[V])
		return r.value, r.found, nil
	}
}
