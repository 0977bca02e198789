// Package imagecache provides a bounded in-process cache from image ids to
// displayable URLs with least-recently-used eviction.
//
// The cache is constructed once at process start and passed to whatever
// needs it; there is no package-level singleton.
package imagecache

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultMaxSize is the default entry capacity.
const DefaultMaxSize = 100

// Releaser frees the resource backing a stored URL (a blob allocation on
// the frontend side). The cache invokes it exactly once per stored URL,
// on remove, evict, or Clear. Overwriting with the same URL value does
// not release.
type Releaser func(url string)

// Prober reports whether a stored URL's backing resource is still
// reachable. Used by Prune.
type Prober func(ctx context.Context, url string) bool

type entry struct {
	url        string
	size       int64
	lastAccess time.Time
	seq        int64 // tie-break when clock resolution is coarse
}

// Cache is a bounded id → URL map with LRU eviction.
type Cache struct {
	mu        sync.Mutex
	entries   map[string]*entry
	maxSize   int
	release   Releaser
	logger    *slog.Logger
	hits      uint64
	misses    uint64
	now       func() time.Time
	accessSeq int64
}

// Config configures a new Cache.
type Config struct {
	// MaxSize is the entry capacity (default 100).
	MaxSize int
	// Release is called exactly once per stored URL when it leaves the cache.
	Release Releaser
	// Logger receives eviction events. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates an empty cache.
func New(cfg Config) *Cache {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Cache{
		entries: make(map[string]*entry),
		maxSize: cfg.MaxSize,
		release: cfg.Release,
		logger:  cfg.Logger,
		now:     time.Now,
	}
}

// Get returns the URL for id and refreshes its recency.
func (c *Cache) Get(id string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		c.misses++
		return "", false
	}
	c.hits++
	c.touch(e)
	return e.url, true
}

// Set stores a URL under id. Inserting a new id at capacity evicts the
// single least-recently-used entry first. Setting an existing id updates
// it in place without eviction; the previous URL is released unless it is
// the same value.
func (c *Cache) Set(id, url string, sizeHint int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[id]; ok {
		if e.url != url {
			c.releaseURL(e.url)
		}
		e.url = url
		e.size = sizeHint
		c.touch(e)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictLRU()
	}
	e := &entry{url: url, size: sizeHint}
	c.entries[id] = e
	c.touch(e)
}

// Remove drops id and releases its URL. Returns whether it was present.
func (c *Cache) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[id]
	if !ok {
		return false
	}
	c.releaseURL(e.url)
	delete(c.entries, id)
	return true
}

// Clear releases every stored URL and empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, e := range c.entries {
		c.releaseURL(e.url)
		delete(c.entries, id)
	}
}

// Has reports presence without refreshing recency or counting a hit.
func (c *Cache) Has(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[id]
	return ok
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the cached ids, most recently used first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	type kv struct {
		id  string
		at  time.Time
		seq int64
	}
	pairs := make([]kv, 0, len(c.entries))
	for id, e := range c.entries {
		pairs = append(pairs, kv{id: id, at: e.lastAccess, seq: e.seq})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if !pairs[i].at.Equal(pairs[j].at) {
			return pairs[i].at.After(pairs[j].at)
		}
		return pairs[i].seq > pairs[j].seq
	})

	keys := make([]string, len(pairs))
	for i, p := range pairs {
		keys[i] = p.id
	}
	return keys
}

// SetMaxSize changes capacity, evicting LRU entries if already above it.
func (c *Cache) SetMaxSize(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.maxSize = n
	for len(c.entries) > c.maxSize {
		c.evictLRU()
	}
}

// Prune probes every blob-style URL and drops entries whose backing
// resource is no longer reachable. Dead entries are not released since
// their backing resource is already gone. Returns the number dropped.
func (c *Cache) Prune(ctx context.Context, probe Prober) int {
	if probe == nil {
		return 0
	}

	c.mu.Lock()
	candidates := make(map[string]string, len(c.entries))
	for id, e := range c.entries {
		if strings.HasPrefix(e.url, "blob:") {
			candidates[id] = e.url
		}
	}
	c.mu.Unlock()

	// Probing happens outside the lock; it may suspend on I/O.
	dead := make(map[string]string, len(candidates))
	for id, url := range candidates {
		if ctx.Err() != nil {
			break
		}
		if !probe(ctx, url) {
			dead[id] = url
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for id, url := range dead {
		e, ok := c.entries[id]
		if !ok || e.url != url {
			// Replaced while probing; leave it alone.
			continue
		}
		delete(c.entries, id)
		dropped++
	}
	if dropped > 0 {
		c.logger.Debug("pruned unreachable image urls", "count", dropped)
	}
	return dropped
}

// Stats reports hit/miss counters.
type Stats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Entries int    `json:"entries"`
	MaxSize int    `json:"maxSize"`
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: len(c.entries), MaxSize: c.maxSize}
}

// HitRate returns hits/(hits+misses) rounded to the nearest percent,
// 0 when there have been no accesses yet.
func (c *Cache) HitRate() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(c.hits) / float64(total) * 100))
}

func (c *Cache) touch(e *entry) {
	c.accessSeq++
	e.lastAccess = c.now()
	e.seq = c.accessSeq
}

// evictLRU removes and releases the least-recently-accessed entry.
// Caller holds the lock.
func (c *Cache) evictLRU() {
	var lru *entry
	var lruID string
	for id, e := range c.entries {
		if lru == nil || e.lastAccess.Before(lru.lastAccess) ||
			(e.lastAccess.Equal(lru.lastAccess) && e.seq < lru.seq) {
			lru = e
			lruID = id
		}
	}
	if lru == nil {
		return
	}
	c.releaseURL(lru.url)
	delete(c.entries, lruID)
	c.logger.Debug("evicted lru image", "id", lruID)
}

func (c *Cache) releaseURL(url string) {
	if c.release != nil {
		c.release(url)
	}
}
