package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"

	"github.com/Veraticus/leadflow/internal/model"
)

// ResultCache stores model categorizations by input.
type ResultCache interface {
	Get(ctx context.Context, key string) (model.CategorizationResult, bool)
	Set(ctx context.Context, key string, result model.CategorizationResult)
	Close() error
}

// cacheKey hashes the normalized categorization input.
func cacheKey(input model.CategorizationInput) string {
	data, _ := json.Marshal(input)
	sum := sha256.Sum256(data)
	return "leadflow:categorization:" + hex.EncodeToString(sum[:])
}

// cacheEntry represents a cached categorization.
type cacheEntry struct {
	expiry time.Time
	result model.CategorizationResult
}

// memoryCache is a process-local TTL cache.
type memoryCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewMemoryCache creates a cache with the specified TTL. A zero TTL means 15 minutes.
func NewMemoryCache(ttl time.Duration) ResultCache {
	return newMemoryCache(ttl)
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &memoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// Get returns a result if it exists and hasn't expired.
func (c *memoryCache) Get(_ context.Context, key string) (model.CategorizationResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return model.CategorizationResult{}, false
	}
	return entry.result, true
}

// Set stores a result.
func (c *memoryCache) Set(_ context.Context, key string, result model.CategorizationResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		result: result,
		expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *memoryCache) cleanup() {
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

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *memoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}
