// Package cache is a short-lived read-through cache keyed by entity name.
// Entries are fresh while less than the TTL has elapsed since they were
// stored; stale entries read as misses.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is the freshness window used when none is configured.
const DefaultTTL = 30 * time.Second

// FetchFunc loads the value for key from the underlying source.
type FetchFunc func(ctx context.Context, key string) (any, error)

type entry struct {
	data      any
	fetchedAt time.Time
}

// Cache maps keys to fetched values. It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	// gen counts invalidations per key so a fetch that started before an
	// invalidation does not store its result.
	gen     map[string]uint64
	genAll  uint64
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger
	flights singleflight.Group

	cronMu sync.Mutex
	cron   *cron.Cron
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the freshness window. Non-positive values keep the default.
func WithTTL(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger for hit, miss and fetch events.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: map[string]entry{},
		gen:     map[string]uint64{},
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the value for key when a fresh entry exists.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !c.fresh(e) {
		return nil, false
	}
	return e.data, true
}

// fresh reports whether e is within the TTL. Callers hold c.mu.
func (c *Cache) fresh(e entry) bool {
	return c.now().Sub(e.fetchedAt) < c.ttl
}

// Set stores data under key with the current time, replacing any entry.
func (c *Cache) Set(key string, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, fetchedAt: c.now()}
}

// Invalidate removes one entry. In-flight fetches for key will not store
// their results.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen[key]++
	c.mu.Unlock()
	c.flights.Forget(key)
	c.logger.Debug("cache invalidated", "key", key)
}

// InvalidateAll removes every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	c.entries = map[string]entry{}
	c.genAll++
	c.mu.Unlock()
	for _, k := range keys {
		c.flights.Forget(k)
	}
	c.logger.Debug("cache cleared", "entries", len(keys))
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type generation struct{ key, all uint64 }

func (c *Cache) generation(key string) generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return generation{key: c.gen[key], all: c.genAll}
}

// Fetch returns the fresh value for key, or calls fetch and stores its
// result. Concurrent misses for the same key share one call. A failed fetch
// stores nothing and its error is returned wrapped.
func (c *Cache) Fetch(ctx context.Context, key string, fetch FetchFunc) (any, error) {
	if v, ok := c.Get(key); ok {
		c.logger.Debug("cache hit", "key", key)
		return v, nil
	}
	c.logger.Debug("cache miss", "key", key)

	v, err, _ := c.flights.Do(key, func() (any, error) {
		start := c.generation(key)
		data, err := fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen[key] == start.key && c.genAll == start.all {
			c.entries[key] = entry{data: data, fetchedAt: c.now()}
		}
		c.mu.Unlock()
		return data, nil
	})
	if err != nil {
		c.logger.Warn("cache fetch failed", "key", key, "error", err)
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	return v, nil
}

// Sweep drops stale entries and returns how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !c.fresh(e) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// StartJanitor runs Sweep on a cron schedule such as "@every 1m" until Stop
// is called. Starting a second janitor replaces the first.
func (c *Cache) StartJanitor(schedule string) error {
	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() {
		if n := c.Sweep(); n > 0 {
			c.logger.Debug("cache swept", "removed", n)
		}
	}); err != nil {
		return fmt.Errorf("janitor schedule %q: %w", schedule, err)
	}

	c.cronMu.Lock()
	prev := c.cron
	c.cron = sched
	c.cronMu.Unlock()

	if prev != nil {
		<-prev.Stop().Done()
	}
	sched.Start()
	return nil
}

// Stop halts the janitor and waits for a running sweep to finish.
func (c *Cache) Stop() {
	c.cronMu.Lock()
	sched := c.cron
	c.cron = nil
	c.cronMu.Unlock()
	if sched != nil {
		<-sched.Stop().Done()
	}
}

// Get returns the fresh value for key typed as T. A value of another type
// reads as a miss.
func Get[T any](c *Cache, key string) (T, bool) {
	var zero T
	v, ok := c.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

// Load is Fetch with a typed loader.
func Load[T any](ctx context.Context, c *Cache, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := c.Fetch(ctx, key, func(ctx context.Context, _ string) (any, error) {
		return load(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache %s: stored %T, want %T", key, v, zero)
	}
	return t, nil
}
