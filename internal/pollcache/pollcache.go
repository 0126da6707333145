// Package pollcache reports a polled value only when it differs from the
// previous observation for the same key.
package pollcache

import (
	"sync"
	"time"
)

// Entry is the last observation for a key
type Entry struct {
	Value      string
	ObservedAt time.Time
}

// Cache remembers the last value returned by each polled function
type Cache struct {
	mu      sync.Mutex
	entries map[string]*Entry
	silent  bool
	now     func() time.Time

	// Metrics
	hits   int64
	misses int64
}

// Config holds cache configuration
type Config struct {
	// SilentFirstCall suppresses the first observation of every key
	SilentFirstCall bool
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{SilentFirstCall: true}
}

// New creates a new poll cache
func New(cfg Config) *Cache {
	return &Cache{
		entries: make(map[string]*Entry),
		silent:  cfg.SilentFirstCall,
		now:     time.Now,
	}
}

// Call runs fn and returns its value when it changed since the previous call
// with the same key. Unchanged values count as hits and return "", false.
// Errors from fn leave the stored observation untouched.
func (c *Cache) Call(key string, fn func() (string, error)) (string, bool, error) {
	value, err := fn()
	if err != nil {
		return "", false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	prev, seen := c.entries[key]
	if seen && prev.Value == value {
		c.hits++
		return "", false, nil
	}

	c.misses++
	c.entries[key] = &Entry{Value: value, ObservedAt: c.now()}

	if !seen && c.silent {
		return "", false, nil
	}
	return value, true, nil
}

// Get returns the last observation for key
func (c *Cache) Get(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Forget drops the observation for key
func (c *Cache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Size returns the number of observed keys
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns cache statistics. A hit is an unchanged value.
func (c *Cache) Stats() (hits, misses int64, hitRate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total)
	}
	return
}
