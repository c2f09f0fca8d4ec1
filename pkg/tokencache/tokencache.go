// Package tokencache is an in-memory key-value store with per-entry TTL.
// Expired entries are reaped lazily on access and in bulk by Sweep, which the
// host runs on its own schedule.
package tokencache

import (
	"sync"
	"time"
)

// Entry is a cached value with its owner and expiry.
type Entry struct {
	Value     []byte
	FileName  string
	OwnerID   int64
	ExpiresAt time.Time
}

// Cache stores entries under string tokens with a fixed TTL.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Put stores value under token, stamping the expiry. Returns the expiry time.
func (c *Cache) Put(token, fileName string, ownerID int64, value []byte) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	c.entries[token] = Entry{
		Value:     value,
		FileName:  fileName,
		OwnerID:   ownerID,
		ExpiresAt: expiresAt,
	}
	return expiresAt
}

// Get returns the entry for token if it exists, has not expired and belongs
// to ownerID. Expired entries are removed on access.
func (c *Cache) Get(token string, ownerID int64) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[token]
	if !ok {
		return Entry{}, false
	}
	if c.now().After(entry.ExpiresAt) {
		delete(c.entries, token)
		return Entry{}, false
	}
	if entry.OwnerID != ownerID {
		return Entry{}, false
	}
	return entry, true
}

// Delete removes token, if present.
func (c *Cache) Delete(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, token)
}

// Sweep removes every expired entry and reports how many were removed.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for token, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, token)
			removed++
		}
	}
	return removed
}

// Len reports the number of live entries, counting not-yet-swept expired ones.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
