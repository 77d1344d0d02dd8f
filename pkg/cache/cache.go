package cache

import (
	"context"
	"sync"
	"time"
)

// Item represents a cached item with expiration
type Item struct {
	Value      string
	Expiration int64
}

// Expired checks if the cache item has expired
func (item Item) Expired() bool {
	if item.Expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > item.Expiration
}

// Cache is a thread-safe in-memory string cache with expiration. It is the
// fallback used when no Redis instance is configured; both satisfy the
// same read-through interface.
type Cache struct {
	items           map[string]Item
	mu              sync.RWMutex
	cleanupInterval time.Duration
}

// New creates a new in-memory cache.
func New(cleanupInterval time.Duration) *Cache {
	c := &Cache{
		items:           make(map[string]Item),
		cleanupInterval: cleanupInterval,
	}
	if cleanupInterval > 0 {
		go c.startCleanupTimer()
	}
	return c
}

// Get returns the value for key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.Expired() {
		return "", false
	}
	return item.Value, true
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(_ context.Context, key string, value string, ttl time.Duration) {
	var exp int64
	if ttl > 0 {
		exp = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = Item{Value: value, Expiration: exp}
}

// Del removes keys from the cache.
func (c *Cache) Del(_ context.Context, keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
}

func (c *Cache) startCleanupTimer() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		for key, item := range c.items {
			if item.Expired() {
				delete(c.items, key)
			}
		}
		c.mu.Unlock()
	}
}
