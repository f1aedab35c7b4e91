// Package cache holds search result envelopes for UI display. Tool results
// sent to the reasoning model carry only insights; the full records land
// here, keyed by the search's cache key, for the chat endpoint to project
// into tables.
package cache

import (
	"sync"
	"time"

	"github.com/vyaapari360/munim/internal/tally"
)

// DisplayRecord is one row of a search result, with the deep links the UI
// renders as row actions. Records are never shown to the reasoning model.
type DisplayRecord struct {
	Fields  map[string]any    `json:"fields"`
	Actions map[string]string `json:"actions"`
}

// Envelope is an immutable cached search result.
type Envelope struct {
	Key        string           `json:"key"`
	Entity     tally.EntityType `json:"entity"`
	Insight    map[string]any   `json:"insight"`
	Records    []DisplayRecord  `json:"records"`
	TotalCount int              `json:"total_count"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Results is a process-wide cache of search envelopes. Writes overwrite,
// last write wins. Safe for concurrent use.
type Results struct {
	mu       sync.RWMutex
	entries  map[string]*Envelope
	capacity int           // 0 = unbounded
	ttl      time.Duration // 0 = entries never expire
	now      func() time.Time
}

// Option configures the cache.
type Option func(*Results)

// WithCapacity bounds the number of entries; the oldest entry is evicted
// when the bound is exceeded.
func WithCapacity(n int) Option {
	return func(c *Results) { c.capacity = n }
}

// WithTTL expires entries d after they are written.
func WithTTL(d time.Duration) Option {
	return func(c *Results) { c.ttl = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Results) { c.now = now }
}

// New creates an empty result cache.
func New(opts ...Option) *Results {
	c := &Results{
		entries: make(map[string]*Envelope),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores an envelope under its key, stamping CreatedAt.
func (c *Results) Put(env *Envelope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	env.CreatedAt = c.now()
	c.entries[env.Key] = env
	if c.capacity > 0 && len(c.entries) > c.capacity {
		c.evictOldestLocked()
	}
}

// Get returns the envelope for key, or false when absent or expired.
func (c *Results) Get(key string) (*Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	env, ok := c.entries[key]
	if !ok || c.expired(env) {
		return nil, false
	}
	return env, true
}

// Latest returns the most recently written live envelope.
func (c *Results) Latest() (*Envelope, bool) {
	return c.latest(func(*Envelope) bool { return true })
}

// LatestFor returns the most recently written live envelope for one entity
// type. Used by the chat endpoint, which knows which tool ran but not the
// cache key the handler derived.
func (c *Results) LatestFor(entity tally.EntityType) (*Envelope, bool) {
	return c.latest(func(env *Envelope) bool { return env.Entity == entity })
}

func (c *Results) latest(match func(*Envelope) bool) (*Envelope, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var best *Envelope
	for _, env := range c.entries {
		if c.expired(env) || !match(env) {
			continue
		}
		if best == nil || env.CreatedAt.After(best.CreatedAt) {
			best = env
		}
	}
	return best, best != nil
}

// Len returns the number of entries, including any not yet swept.
func (c *Results) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes expired entries and returns how many were dropped.
// A no-op when no TTL is configured.
func (c *Results) Sweep() int {
	if c.ttl <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	dropped := 0
	for key, env := range c.entries {
		if c.expired(env) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

func (c *Results) expired(env *Envelope) bool {
	return c.ttl > 0 && c.now().Sub(env.CreatedAt) > c.ttl
}

func (c *Results) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, env := range c.entries {
		if oldestKey == "" || env.CreatedAt.Before(oldest) {
			oldestKey, oldest = key, env.CreatedAt
		}
	}
	delete(c.entries, oldestKey)
}
