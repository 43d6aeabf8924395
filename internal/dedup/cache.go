// Package dedup rejects repeated messages within a retention window using a
// content-hash cache.
package dedup

import (
	"crypto/md5"
	"sync"
	"time"
)

// DefaultRetention is how long a fingerprint blocks repeats.
const DefaultRetention = 30 * time.Minute

// Cache maps message fingerprints to their first-seen time. Entries older
// than the retention window are evicted lazily before each insertion check,
// which bounds growth under sustained load without a timer goroutine.
//
// The cache is process-local and never persisted. Hash collisions are
// treated as true duplicates.
type Cache struct {
	mu        sync.Mutex
	seen      map[[md5.Size]byte]time.Time
	retention time.Duration
	now       func() time.Time
}

// New creates a cache. now may be nil, in which case time.Now is used;
// injecting a clock makes window behavior deterministic in tests.
func New(retention time.Duration, now func() time.Time) *Cache {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &Cache{
		seen:      make(map[[md5.Size]byte]time.Time),
		retention: retention,
		now:       now,
	}
}

// Accept reports whether text has not been seen within the retention window.
// On true the fingerprint is recorded with the current time; check and insert
// are atomic with respect to concurrent callers.
func (c *Cache) Accept(text string) bool {
	fp := md5.Sum([]byte(text))

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	cutoff := now.Add(-c.retention)
	for k, t := range c.seen {
		if t.Before(cutoff) {
			delete(c.seen, k)
		}
	}

	if _, dup := c.seen[fp]; dup {
		return false
	}
	c.seen[fp] = now
	return true
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}
