package texture

import (
	"sync"
)

// Resolver resolves a texture name to a decoded bitmap.
type Resolver interface {
	Resolve(texName string) (*Bitmap, error)
}

// Cache is a concurrency-safe texture cache.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*cacheEntry
	index *Index
}

type cacheEntry struct {
	bmp *Bitmap
	err error
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index) *Cache {
	return &Cache{
		items: make(map[string]*cacheEntry),
		index: index,
	}
}

// Resolve loads and caches a texture by name. Failed loads are cached too.
func (c *Cache) Resolve(texName string) (*Bitmap, error) {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil, &NotFoundError{Name: texName}
	}

	// Fast path: read lock
	c.mu.RLock()
	if entry, exists := c.items[path]; exists {
		c.mu.RUnlock()
		return entry.bmp, entry.err
	}
	c.mu.RUnlock()

	// Slow path: load from disk
	bmp, err := LoadBitmap(path)

	// Write lock with double-check
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.items[path]; exists {
		return entry.bmp, entry.err
	}
	c.items[path] = &cacheEntry{bmp: bmp, err: err}
	return bmp, err
}

// NotFoundError reports a texture name that no indexed file matches.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return "texture: not found: " + e.Name
}
