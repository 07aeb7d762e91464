package convert

import (
	"sync"
	"time"
)

// cacheEntry represents a cached exchange rate.
type cacheEntry struct {
	expiry time.Time
	rate   float64
}

// rateCache provides thread-safe caching for exchange-rate lookups.
type rateCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newRateCache creates a new cache with the specified TTL.
func newRateCache(ttl time.Duration) *rateCache {
	if ttl == 0 {
		ttl = time.Hour // Default TTL
	}

	cache := &rateCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	// Start cleanup goroutine
	go cache.cleanup()

	return cache
}

// get retrieves a rate from the cache if it exists and hasn't expired.
func (c *rateCache) get(key string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return 0, false
	}

	if time.Now().After(entry.expiry) {
		return 0, false
	}

	return entry.rate, true
}

// set stores a rate in the cache.
func (c *rateCache) set(key string, rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		rate:   rate,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *rateCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *rateCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *rateCache) Close() {
	close(c.stopCh)
}
