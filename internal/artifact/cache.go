package artifact

import "sync"

// Cache maps logical paths to parsed values. It has no size bound and no
// expiry; Clear is the only eviction.
type Cache struct {
	mu sync.RWMutex
	m  map[string]any
}

func NewCache() *Cache {
	return &Cache{m: make(map[string]any)}
}

func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *Cache) Put(key string, v any) {
	c.mu.Lock()
	c.m[key] = v
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	clear(c.m)
	c.mu.Unlock()
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
