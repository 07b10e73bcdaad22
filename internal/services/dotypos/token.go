package dotypos

import (
	"sync"
	"time"
)

// TokenCache holds the current access token until shortly before the server
// side expiry. Refreshes are last-writer-wins; a lost race just re-fetches an
// equivalent token.
type TokenCache struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

func (c *TokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value == "" || time.Now().After(c.expiresAt) {
		return "", false
	}
	return c.value, true
}

func (c *TokenCache) Set(value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	c.expiresAt = time.Now().Add(ttl)
}

func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = ""
	c.expiresAt = time.Time{}
}
