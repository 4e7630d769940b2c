// Package cache memoizes region option lists per (level, parent code).
//
// Concurrent callers asking for the same key share one upstream call. Once a
// key resolves it is served from memory for the lifetime of the cache; a
// failed fetch stores nothing so the next caller retries.
package cache

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"alumni/internal/region/metrics"
	"alumni/internal/region/models"
	"alumni/internal/region/providers"
)

// Fetcher performs the upstream call for a cache miss.
type Fetcher func(ctx context.Context) ([]models.Option, error)

// RegionCache is safe for concurrent use.
type RegionCache struct {
	mu      sync.Mutex
	entries entryStore
	seq     uint64

	group        singleflight.Group
	fetchTimeout time.Duration
	metrics      *metrics.Metrics
}

type Option func(*RegionCache) error

// WithCapacity bounds the cache with LRU eviction over keys. Zero keeps the
// cache unbounded.
func WithCapacity(n int) Option {
	return func(c *RegionCache) error {
		if n <= 0 {
			return nil
		}
		l, err := lru.New[models.CacheKey, models.CacheEntry](n)
		if err != nil {
			return fmt.Errorf("create lru: %w", err)
		}
		c.entries = lruStore{l}
		return nil
	}
}

// WithFetchTimeout bounds the shared upstream call. The call is detached
// from any single caller's context so one caller giving up does not fail the
// others.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *RegionCache) error {
		c.fetchTimeout = d
		return nil
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *RegionCache) error {
		c.metrics = m
		return nil
	}
}

func New(opts ...Option) (*RegionCache, error) {
	c := &RegionCache{
		entries: mapStore{},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// GetOrFetch returns the options for key, calling fetch only when no entry
// exists and no other caller is already fetching it. If ctx ends first the
// caller stops waiting; the shared fetch still completes and is stored.
func (c *RegionCache) GetOrFetch(ctx context.Context, key models.CacheKey, fetch Fetcher) ([]models.Option, error) {
	level := key.Level.String()
	if entry, ok := c.Entry(key); ok {
		c.metrics.RecordCacheHit(level)
		return slices.Clone(entry.Options), nil
	}

	var leader bool
	ch := c.group.DoChan(key.String(), func() (any, error) {
		leader = true
		// a call that finished between the miss above and DoChan has
		// already stored its entry
		if entry, ok := c.Entry(key); ok {
			c.metrics.RecordCacheHit(level)
			return entry, nil
		}
		c.metrics.RecordCacheMiss(level)

		fetchCtx := context.WithoutCancel(ctx)
		if c.fetchTimeout > 0 {
			var cancel context.CancelFunc
			fetchCtx, cancel = context.WithTimeout(fetchCtx, c.fetchTimeout)
			defer cancel()
		}

		start := time.Now()
		options, err := fetch(fetchCtx)
		c.metrics.ObserveFetch(level, start)
		if err != nil {
			c.metrics.RecordFetchFailure(level, string(providers.GetCategory(err)))
			return nil, err
		}
		return c.store(key, options), nil
	})

	select {
	case res := <-ch:
		if !leader {
			c.metrics.RecordCoalesced(level)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		entry := res.Val.(models.CacheEntry)
		return slices.Clone(entry.Options), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Entry returns the resolved entry for key, if any.
func (c *RegionCache) Entry(key models.CacheKey) (models.CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.get(key)
}

func (c *RegionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries.len()
}

// Purge drops every resolved entry. In-flight fetches are unaffected and
// store their result when they finish.
func (c *RegionCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.purge()
}

func (c *RegionCache) store(key models.CacheKey, options []models.Option) models.CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	entry := models.CacheEntry{
		Key:       key,
		Options:   slices.Clone(options),
		Seq:       c.seq,
		FetchedAt: time.Now(),
	}
	c.entries.add(key, entry)
	return entry
}

type entryStore interface {
	get(models.CacheKey) (models.CacheEntry, bool)
	add(models.CacheKey, models.CacheEntry)
	len() int
	purge()
}

type mapStore map[models.CacheKey]models.CacheEntry

func (m mapStore) get(k models.CacheKey) (models.CacheEntry, bool) {
	e, ok := m[k]
	return e, ok
}

func (m mapStore) add(k models.CacheKey, e models.CacheEntry) { m[k] = e }
func (m mapStore) len() int                                    { return len(m) }
func (m mapStore) purge()                                      { clear(m) }

type lruStore struct {
	l *lru.Cache[models.CacheKey, models.CacheEntry]
}

func (s lruStore) get(k models.CacheKey) (models.CacheEntry, bool) { return s.l.Get(k) }
func (s lruStore) add(k models.CacheKey, e models.CacheEntry)      { s.l.Add(k, e) }
func (s lruStore) len() int                                        { return s.l.Len() }
func (s lruStore) purge()                                          { s.l.Purge() }
