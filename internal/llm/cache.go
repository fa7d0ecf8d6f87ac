package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"campaign-scribe/internal/config"
)

// ResponseCache caches completion text keyed by model+prompt. Both backends
// treat the cache as best-effort: a miss or backend error just means the call
// goes to the model.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, text string)
	Close() error
}

// CacheKey derives the cache key for a model/prompt pair.
func CacheKey(model, prompt string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + prompt))
	return "scribe:llm:" + hex.EncodeToString(sum[:])
}

// MemoryCache is an in-process TTL cache with a bounded entry count.
type MemoryCache struct {
	mu      sync.RWMutex
	store   map[string]*memoryCacheEntry
	ttl     time.Duration
	maxSize int
}

type memoryCacheEntry struct {
	text      string
	createdAt time.Time
}

// NewMemoryCache creates an in-memory response cache.
func NewMemoryCache(cfg config.CacheConfig) *MemoryCache {
	return &MemoryCache{
		store:   make(map[string]*memoryCacheEntry),
		ttl:     time.Duration(cfg.TTLMinutes) * time.Minute,
		maxSize: cfg.MaxEntries,
	}
}

// Get retrieves a cached completion.
func (c *MemoryCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.store[key]
	if !exists {
		return "", false
	}
	if time.Since(entry.createdAt) > c.ttl {
		return "", false
	}
	return entry.text, true
}

// Set stores a completion, evicting the oldest entry when full.
func (c *MemoryCache) Set(ctx context.Context, key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.store) >= c.maxSize {
		c.evictOldest()
	}
	c.store[key] = &memoryCacheEntry{text: text, createdAt: time.Now()}
}

// Close releases nothing for the in-memory backend.
func (c *MemoryCache) Close() error {
	return nil
}

// evictOldest removes the entry with the earliest creation time. Caller holds
// the write lock.
func (c *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestAt time.Time
	for key, entry := range c.store {
		if oldestKey == "" || entry.createdAt.Before(oldestAt) {
			oldestKey = key
			oldestAt = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(c.store, oldestKey)
	}
}
