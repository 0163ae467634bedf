package market

import (
	"container/list"
	"sync"
	"time"
)

// TTLCache is a thread-safe bounded LRU cache whose entries also expire after a
// fixed time to live. Expired entries are dropped lazily on access.
type TTLCache[K comparable, V any] struct {
	mu      sync.Mutex
	cache   map[K]*list.Element
	lru     *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
	zeroVal V
}

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// NewTTLCache creates a cache holding at most maxSize entries, each valid for ttl.
func NewTTLCache[K comparable, V any](maxSize int, ttl time.Duration) *TTLCache[K, V] {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &TTLCache[K, V]{
		cache:   make(map[K]*list.Element, maxSize),
		lru:     list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry and promotes it to most recently used.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return c.zeroVal, false
	}
	entry := elem.Value.(*lruEntry[K, V])
	if !c.now().Before(entry.expiresAt) {
		c.remove(elem)
		return c.zeroVal, false
	}
	c.lru.MoveToFront(elem)
	return entry.value, true
}

// Set adds or refreshes a value
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.now().Add(c.ttl)
	if elem, ok := c.cache[key]; ok {
		c.lru.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	for len(c.cache) >= c.maxSize {
		c.remove(c.lru.Back())
	}
	elem := c.lru.PushFront(&lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.cache[key] = elem
}

// Delete drops one key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.cache[key]; ok {
		c.remove(elem)
	}
}

// remove must be called with mu held
func (c *TTLCache[K, V]) remove(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*lruEntry[K, V])
	c.lru.Remove(elem)
	delete(c.cache, entry.key)
}

// Size returns current cache size, expired entries included
func (c *TTLCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Clear removes all entries from the cache
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[K]*list.Element, c.maxSize)
	c.lru.Init()
}
