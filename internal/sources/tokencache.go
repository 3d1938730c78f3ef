package sources

import (
	"sync"
	"time"
)

// tokenExpiryBuffer keeps a cached token from expiring mid-request.
const tokenExpiryBuffer = 5 * time.Second

// tokenCache holds a bearer token until shortly before it expires. Safe
// for concurrent use; the zero value is ready.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Get returns the cached token, or false when none is held or the one held
// is within the expiry buffer.
func (c *tokenCache) Get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == "" || time.Now().After(c.expiresAt.Add(-tokenExpiryBuffer)) {
		return "", false
	}
	return c.token, true
}

// Set stores a token with its time to live.
func (c *tokenCache) Set(token string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = token
	c.expiresAt = time.Now().Add(ttl)
}

// Clear drops the cached token, forcing re-authentication on next use.
func (c *tokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token = ""
	c.expiresAt = time.Time{}
}
