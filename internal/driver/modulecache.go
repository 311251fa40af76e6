package driver

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultResultCacheSize bounds the in-memory cache.
const DefaultResultCacheSize = 256

// ResultCache keeps recent check results in memory in front of an optional
// DiskCache. Thread-safe.
type ResultCache struct {
	mem  *lru.Cache[Digest, *DiskPayload]
	disk *DiskCache
}

// NewResultCache creates a cache holding up to size entries in memory.
// disk may be nil.
func NewResultCache(size int, disk *DiskCache) (*ResultCache, error) {
	if size <= 0 {
		size = DefaultResultCacheSize
	}
	mem, err := lru.New[Digest, *DiskPayload](size)
	if err != nil {
		return nil, fmt.Errorf("result cache: %w", err)
	}
	return &ResultCache{mem: mem, disk: disk}, nil
}

// Get looks key up in memory, then on disk. Disk hits are promoted.
// Disk read errors count as misses.
func (c *ResultCache) Get(key Digest) (*DiskPayload, bool) {
	if c == nil {
		return nil, false
	}
	if p, ok := c.mem.Get(key); ok {
		return p, true
	}
	var p DiskPayload
	ok, err := c.disk.Get(key, &p)
	if err != nil || !ok {
		return nil, false
	}
	c.mem.Add(key, &p)
	return &p, true
}

// Put stores payload in memory and on disk.
func (c *ResultCache) Put(key Digest, payload *DiskPayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mem.Add(key, payload)
	return c.disk.Put(key, payload)
}

// Len returns the number of in-memory entries.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.mem.Len()
}
