package cache

import "sync"

// IdentityCache remembers recently seen article identities. Once it holds more
// than limit entries it is trimmed down to the retain most recent ones.
type IdentityCache struct {
	mu     sync.Mutex
	order  []string
	m      map[string]struct{}
	limit  int
	retain int
}

func NewIdentityCache(limit, retain int) *IdentityCache {
	if retain > limit {
		retain = limit
	}
	return &IdentityCache{m: make(map[string]struct{}), limit: limit, retain: retain}
}

// Add records id and reports whether it was new.
func (c *IdentityCache) Add(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.m[id]; ok {
		return false
	}
	c.m[id] = struct{}{}
	c.order = append(c.order, id)
	if len(c.order) > c.limit {
		c.trim()
	}
	return true
}

func (c *IdentityCache) trim() {
	drop := c.order[:len(c.order)-c.retain]
	for _, id := range drop {
		delete(c.m, id)
	}
	kept := make([]string, c.retain)
	copy(kept, c.order[len(c.order)-c.retain:])
	c.order = kept
}

func (c *IdentityCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
