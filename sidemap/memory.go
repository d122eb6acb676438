package sidemap

import "sync"

// InMemoryCache holds every preloaded entry in a plain map guarded by a reader-writer lock,
// shared across every ObjectReader of the same Reader.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[uint64]Entry
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[uint64]Entry)}
}

func (c *InMemoryCache) Put(entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[entry.ChunkNumber] = entry
	return nil
}

func (c *InMemoryCache) Get(chunkNumber uint64) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[chunkNumber]
	return e, ok, nil
}

func (c *InMemoryCache) All() ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	return out, nil
}

func (c *InMemoryCache) Close() error { return nil }
