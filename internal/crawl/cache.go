package crawl

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache tracks recently delivered item fingerprints for one feed, each with
// an expiry timestamp. It is owned by the engine; workers operate on clones,
// so no locking is needed.
type Cache struct {
	entries map[string]time.Time
}

// NewCache creates an empty dedup cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]time.Time)}
}

// Fingerprint derives the dedup identity for an item. The description text
// is the only stable identity proxy the feed formats guarantee; two items
// with identical descriptions share a fingerprint.
func Fingerprint(description string) string {
	h := sha256.Sum256([]byte(description))
	return hex.EncodeToString(h[:])
}

// IsNew reports whether the fingerprint has not been recorded.
func (c *Cache) IsNew(fingerprint string) bool {
	_, ok := c.entries[fingerprint]
	return !ok
}

// Record sets the fingerprint's expiry to now + ttl, overwriting any
// previous entry.
func (c *Cache) Record(fingerprint string, now time.Time, ttl time.Duration) {
	c.entries[fingerprint] = now.Add(ttl)
}

// Evict removes every entry whose expiry has passed.
func (c *Cache) Evict(now time.Time) {
	for fingerprint, expiry := range c.entries {
		if !now.Before(expiry) {
			delete(c.entries, fingerprint)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Clone returns an independent copy of the cache.
func (c *Cache) Clone() *Cache {
	clone := &Cache{entries: make(map[string]time.Time, len(c.entries))}
	for fingerprint, expiry := range c.entries {
		clone.entries[fingerprint] = expiry
	}
	return clone
}
