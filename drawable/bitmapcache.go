package drawable

import (
	"container/list"
	"image"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gg"
)

// Default bitmap cache configuration.
const (
	// DefaultBitmapCacheMB is the default memory budget in megabytes.
	DefaultBitmapCacheMB = 64

	bytesPerMB    = 1024 * 1024
	bytesPerPixel = 4
)

// BitmapCache is an LRU cache for the rasterized output of canvas cache
// drawables, keyed by drawable id. It is safe for concurrent use.
type BitmapCache struct {
	mu      sync.RWMutex
	entries map[uint64]*bitmapEntry
	lru     *list.List
	size    int64
	maxSize int64

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

type bitmapEntry struct {
	id      uint64
	img     *image.RGBA
	buf     *gg.ImageBuf
	size    int64
	element *list.Element
}

// BitmapStats is a snapshot of cache counters.
type BitmapStats struct {
	Size      int64
	MaxSize   int64
	Entries   int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

// NewBitmapCache creates a cache with a budget of maxSizeMB megabytes.
func NewBitmapCache(maxSizeMB int) *BitmapCache {
	if maxSizeMB <= 0 {
		maxSizeMB = DefaultBitmapCacheMB
	}
	return &BitmapCache{
		entries: make(map[uint64]*bitmapEntry),
		lru:     list.New(),
		maxSize: int64(maxSizeMB) * bytesPerMB,
	}
}

// Get returns the cached bitmap for drawable id.
func (c *BitmapCache) Get(id uint64) (*image.RGBA, *gg.ImageBuf, bool) {
	c.mu.Lock()
	entry, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		c.misses.Add(1)
		return nil, nil, false
	}
	c.lru.MoveToFront(entry.element)
	img, buf := entry.img, entry.buf
	c.mu.Unlock()

	c.hits.Add(1)
	return img, buf, true
}

// Put stores img for drawable id, evicting least recently used bitmaps
// when over budget. Bitmaps larger than the whole budget are not cached.
func (c *BitmapCache) Put(id uint64, img *image.RGBA) *gg.ImageBuf {
	if img == nil {
		return nil
	}
	buf := gg.ImageBufFromImage(img)
	b := img.Bounds()
	entrySize := int64(b.Dx()) * int64(b.Dy()) * bytesPerPixel
	if entrySize <= 0 || entrySize > c.maxSize {
		return buf
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[id]; ok {
		c.size -= existing.size
		c.lru.Remove(existing.element)
		delete(c.entries, id)
	}
	c.evictUntilSize(c.maxSize - entrySize)

	entry := &bitmapEntry{id: id, img: img, buf: buf, size: entrySize}
	entry.element = c.lru.PushFront(entry)
	c.entries[id] = entry
	c.size += entrySize
	return buf
}

// Invalidate drops the bitmap of drawable id.
func (c *BitmapCache) Invalidate(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[id]; ok {
		c.lru.Remove(entry.element)
		c.size -= entry.size
		delete(c.entries, id)
		c.evictions.Add(1)
	}
}

// InvalidateAll empties the cache.
func (c *BitmapCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := uint64(len(c.entries)); n > 0 {
		c.evictions.Add(n)
	}
	c.entries = make(map[uint64]*bitmapEntry)
	c.lru.Init()
	c.size = 0
}

// Must be called with c.mu held.
func (c *BitmapCache) evictUntilSize(target int64) {
	for c.size > target && c.lru.Len() > 0 {
		elem := c.lru.Back()
		entry := elem.Value.(*bitmapEntry)
		c.lru.Remove(elem)
		c.size -= entry.size
		delete(c.entries, entry.id)
		c.evictions.Add(1)
	}
}

// Stats returns the current counters.
func (c *BitmapCache) Stats() BitmapStats {
	c.mu.RLock()
	size, maxSize, entries := c.size, c.maxSize, len(c.entries)
	c.mu.RUnlock()

	return BitmapStats{
		Size:      size,
		MaxSize:   maxSize,
		Entries:   entries,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}
