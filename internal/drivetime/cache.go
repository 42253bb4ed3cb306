package drivetime

import (
	"sync"

	"github.com/couchcryptid/delivery-radius-service/internal/domain"
)

// Cache maps directional coordinate keys to drive-time outcomes for the
// lifetime of a session. Unreachable outcomes are cached too, so a failed
// route is not retried within the session.
type Cache struct {
	mu      sync.Mutex
	entries map[string]domain.DriveTime
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]domain.DriveTime)}
}

// Get returns the cached outcome for key.
func (c *Cache) Get(key string) (domain.DriveTime, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dt, ok := c.entries[key]
	return dt, ok
}

// Put records the outcome for key, replacing any previous entry.
func (c *Cache) Put(key string, dt domain.DriveTime) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = dt
}

// Len returns the number of cached keys.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}
