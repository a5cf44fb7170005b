package cache

import (
	"context"
	"crypto/sha256"
	"fmt"
	"sync"
	"time"

	"AliceBridge/internal/session"
)

// CachedResponse represents a cached upstream reply
type CachedResponse struct {
	Response  string
	Timestamp time.Time
}

// GenerateCacheKey generates a cache key from the system prompt and the
// message window sent upstream
func GenerateCacheKey(system string, messages []session.Message) string {
	h := sha256.New()
	h.Write([]byte(system))
	for _, msg := range messages {
		h.Write([]byte{0})
		h.Write([]byte(msg.Role))
		h.Write([]byte{0})
		h.Write([]byte(msg.Content))
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}

// ReplyCache holds upstream replies for a fixed TTL
type ReplyCache struct {
	mu      sync.RWMutex
	entries map[string]CachedResponse
	ttl     time.Duration
	now     func() time.Time
}

// New creates a reply cache; entries older than ttl are treated as missing
func New(ttl time.Duration) *ReplyCache {
	return &ReplyCache{
		entries: make(map[string]CachedResponse),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live cached reply
func (c *ReplyCache) Get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.entries[key]
	if !ok || c.now().Sub(cached.Timestamp) > c.ttl {
		return "", false
	}
	return cached.Response, true
}

// Put stores a reply
func (c *ReplyCache) Put(key, response string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = CachedResponse{
		Response:  response,
		Timestamp: c.now(),
	}
}

// Len returns the number of stored entries, expired ones included
func (c *ReplyCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep drops expired entries
func (c *ReplyCache) Sweep(_ context.Context, now time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, cached := range c.entries {
		if now.Sub(cached.Timestamp) > c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	return removed, nil
}
