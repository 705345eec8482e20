// Package cache provides the generation-tagged LRU used to memoize chain and
// liberty lookups. Entries are valid only for the board generation they were
// computed under; bumping the generation invalidates everything at once
// without walking the cache.
package cache

import (
	"container/list"
	"sync"
)

// entry is a cached value plus the generation it was computed under.
type entry struct {
	key        string
	value      interface{}
	size       int64
	generation uint64
}

// LRU is a thread-safe least-recently-used cache with item and size limits.
// A lookup whose stored generation differs from the requested one is a miss
// and drops the stale entry.
type LRU struct {
	mu           sync.Mutex
	maxItems     int
	maxSizeBytes int64
	currentSize  int64
	items        map[string]*list.Element
	evictionList *list.List

	hits      int64
	misses    int64
	evictions int64
}

// NewLRU creates a cache with the given limits. Zero means unlimited.
func NewLRU(maxItems int, maxSizeBytes int64) *LRU {
	return &LRU{
		maxItems:     maxItems,
		maxSizeBytes: maxSizeBytes,
		items:        make(map[string]*list.Element),
		evictionList: list.New(),
	}
}

// Get retrieves the value stored under key at the given generation. A stale
// entry counts as a miss and is removed.
func (c *LRU) Get(key string, generation uint64) (interface{}, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e, ok := elem.Value.(*entry)
	if !ok {
		c.misses++
		return nil, false
	}
	if e.generation != generation {
		c.removeElement(elem)
		c.misses++
		return nil, false
	}

	c.evictionList.MoveToFront(elem)
	c.hits++
	return e.value, true
}

// Put stores value under key, tagged with the generation it was computed
// under. size is the approximate value size in bytes.
func (c *LRU) Put(key string, generation uint64, value interface{}, size int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.evictionList.MoveToFront(elem)
		e, ok := elem.Value.(*entry)
		if !ok {
			return
		}
		c.currentSize += size - e.size
		e.value = value
		e.size = size
		e.generation = generation
		return
	}

	e := &entry{key: key, value: value, size: size, generation: generation}
	c.items[key] = c.evictionList.PushFront(e)
	c.currentSize += size
	c.evict()
}

// evict removes least-recently-used entries until the cache is within limits.
func (c *LRU) evict() {
	for c.evictionList.Len() > 0 {
		overItems := c.maxItems > 0 && c.evictionList.Len() > c.maxItems
		overSize := c.maxSizeBytes > 0 && c.currentSize > c.maxSizeBytes
		if !overItems && !overSize {
			return
		}
		// A single entry over the size limit stays; evicting it would leave
		// the cache permanently empty.
		if !overItems && c.evictionList.Len() == 1 {
			return
		}
		if elem := c.evictionList.Back(); elem != nil {
			c.removeElement(elem)
			c.evictions++
		}
	}
}

func (c *LRU) removeElement(elem *list.Element) {
	c.evictionList.Remove(elem)
	e, ok := elem.Value.(*entry)
	if !ok {
		return
	}
	delete(c.items, e.key)
	c.currentSize -= e.size
}

// Delete removes a key from the cache.
func (c *LRU) Delete(key string) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
		return true
	}
	return false
}

// Clear removes all entries.
func (c *LRU) Clear() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.evictionList.Init()
	c.currentSize = 0
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictionList.Len()
}

// Size returns the total size of cached entries in bytes.
func (c *LRU) Size() int64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentSize
}

// Stats holds cache counters.
type Stats struct {
	Items     int
	Size      int64
	Hits      int64
	Misses    int64
	Evictions int64
	HitRate   float64
}

// Stats returns current counters.
func (c *LRU) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.hits + c.misses
	hitRate := float64(0)
	if total > 0 {
		hitRate = float64(c.hits) / float64(total)
	}
	return Stats{
		Items:     c.evictionList.Len(),
		Size:      c.currentSize,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		HitRate:   hitRate,
	}
}
