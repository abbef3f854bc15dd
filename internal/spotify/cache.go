package spotify

import (
	"sync"
	"time"
)

// TokenCache holds the single access token used for web API calls.
// It lives for the process only; a restart starts from the unset state.
type TokenCache struct {
	mu        sync.RWMutex
	value     string
	expiresAt time.Time
	now       func() time.Time
}

// NewTokenCache creates an empty cache. A nil clock defaults to time.Now.
func NewTokenCache(now func() time.Time) *TokenCache {
	if now == nil {
		now = time.Now
	}
	return &TokenCache{now: now}
}

// Get returns the cached token while it is still valid.
func (c *TokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.value == "" || !c.now().Before(c.expiresAt) {
		return "", false
	}
	return c.value, true
}

func (c *TokenCache) Put(value string, expiresAt time.Time) {
	c.mu.Lock()
	c.value = value
	c.expiresAt = expiresAt
	c.mu.Unlock()
}

// Expire keeps the value but forces the next Get to miss.
func (c *TokenCache) Expire() {
	c.mu.Lock()
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// ExpireIf expires the cache only while it still holds value.
func (c *TokenCache) ExpireIf(value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.value != value {
		return false
	}
	c.expiresAt = time.Time{}
	return true
}

func (c *TokenCache) Reset() {
	c.mu.Lock()
	c.value = ""
	c.expiresAt = time.Time{}
	c.mu.Unlock()
}

// Snapshot returns the raw cache contents regardless of validity.
func (c *TokenCache) Snapshot() (string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.expiresAt
}
