package probe

import (
	"path/filepath"
	"sync"
)

// Cache holds probe results keyed by absolute, cleaned path. It is safe for
// concurrent use; storing the same key twice simply replaces the entry.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*Metadata
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]*Metadata)}
}

// Key normalizes path into the cache key.
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func (c *Cache) Get(path string) (*Metadata, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[Key(path)]
	return m, ok
}

func (c *Cache) Put(m *Metadata) {
	if c == nil || m == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Key(m.Path)] = m
}

// Forget drops the entry for path, e.g. after the file was replaced.
func (c *Cache) Forget(path string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, Key(path))
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
