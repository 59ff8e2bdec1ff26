package cache

import (
	"container/list"
	"sync"
	"time"
)

// Memory is the L1 tier: an LRU bounded by total bytes and, optionally, by
// item count.
type Memory struct {
	capacity int64
	maxItems int
	size     int64

	items map[string]*list.Element
	order *list.List // front is most recently used

	mu    sync.Mutex
	stats Stats
}

type memoryEntry struct {
	key        string
	value      []byte
	createdAt  time.Time
	lastAccess time.Time
	hits       int64
}

// NewMemory creates an L1 tier. maxItems <= 0 disables the count bound.
func NewMemory(capacity int64, maxItems int) *Memory {
	return &Memory{
		capacity: capacity,
		maxItems: maxItems,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Get returns the value for key and marks it most recently used.
func (c *Memory) Get(key string) ([]byte, bool) {
	data, _, ok := c.GetWithMetadata(key)
	return data, ok
}

// GetWithMetadata is Get plus the item's metadata.
func (c *Memory) GetWithMetadata(key string) ([]byte, Metadata, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return nil, Metadata{}, false
	}

	c.order.MoveToFront(elem)
	entry := elem.Value.(*memoryEntry)
	entry.hits++
	entry.lastAccess = time.Now()
	c.stats.Hits++

	return entry.value, entry.metadata(), true
}

// Put stores value under key, evicting least recently used items until it
// fits.
func (c *Memory) Put(key string, value []byte) error {
	return c.put(key, value, time.Now())
}

func (c *Memory) put(key string, value []byte, createdAt time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int64(len(value))
	if size > c.capacity {
		return ErrItemTooLarge
	}

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}

	for c.order.Len() > 0 && (c.size+size > c.capacity || (c.maxItems > 0 && c.order.Len() >= c.maxItems)) {
		c.evictOldest()
	}

	entry := &memoryEntry{
		key:        key,
		value:      value,
		createdAt:  createdAt,
		lastAccess: time.Now(),
	}
	c.items[key] = c.order.PushFront(entry)
	c.size += size
	return nil
}

// Delete removes key. Missing keys are not an error.
func (c *Memory) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.remove(elem)
	}
	return nil
}

// Contains reports whether key is cached without touching LRU order.
func (c *Memory) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[key]
	return ok
}

// Len returns the number of items.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Size returns the stored bytes.
func (c *Memory) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.size
}

// Keys returns keys from most to least recently used.
func (c *Memory) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*memoryEntry).key)
	}
	return keys
}

// Prune removes items created more than maxAge ago.
func (c *Memory) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).createdAt.Before(cutoff) {
			c.remove(elem)
			pruned++
		}
		elem = prev
	}
	return pruned
}

// Stats returns a snapshot of the tier's counters.
func (c *Memory) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Capacity = c.capacity
	stats.Size = c.size
	stats.Items = c.order.Len()
	return stats
}

// evictOldest must be called with the lock held.
func (c *Memory) evictOldest() {
	if elem := c.order.Back(); elem != nil {
		c.remove(elem)
		c.stats.Evictions++
		c.stats.LastEvict = time.Now()
	}
}

// remove must be called with the lock held.
func (c *Memory) remove(elem *list.Element) {
	entry := c.order.Remove(elem).(*memoryEntry)
	delete(c.items, entry.key)
	c.size -= int64(len(entry.value))
}

func (e *memoryEntry) metadata() Metadata {
	return Metadata{
		Key:        e.key,
		Size:       int64(len(e.value)),
		CreatedAt:  e.createdAt,
		LastAccess: e.lastAccess,
		Hits:       e.hits,
		Level:      LevelMemory,
	}
}
