package server

import (
	"sync"
	"time"
)

// seenCache remembers event IDs for a while to drop duplicate deliveries
type seenCache struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	seen map[string]time.Time
}

func newSeenCache(ttl time.Duration) *seenCache {
	return &seenCache{
		ttl:  ttl,
		now:  time.Now,
		seen: make(map[string]time.Time),
	}
}

// firstSeen records id and reports whether it was new. Empty IDs are
// always new.
func (c *seenCache) firstSeen(id string) bool {
	if id == "" {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if ts, ok := c.seen[id]; ok && now.Sub(ts) < c.ttl {
		return false
	}
	c.seen[id] = now

	// Clean up old entries
	cutoff := now.Add(-c.ttl)
	for k, ts := range c.seen {
		if ts.Before(cutoff) {
			delete(c.seen, k)
		}
	}
	return true
}
