package formulas

import (
	"container/list"
	"sync"
)

// defaultCacheSize is the capacity of an Engine's formula cache when no
// WithCacheSize option is given.
const defaultCacheSize = 256

// cached is an element of an lru.
type cached[V any] struct {
	key string
	val V
}

// lru is a thread-safe least recently used cache of compiled formulas keyed by
// their source text.
type lru[V any] struct {
	mu       sync.RWMutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

func newLRU[V any](capacity int) *lru[V] {
	if capacity <= 0 {
		capacity = defaultCacheSize
	}
	return &lru[V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get retrieves a value and marks it most recently used.
func (c *lru[V]) get(key string) (V, bool) {
	c.mu.RLock()
	el, ok := c.items[key]
	front := ok && c.ll.Front() == el
	c.mu.RUnlock()
	if !ok {
		var zero V
		return zero, false
	}
	if !front {
		// Promote under the write lock. The entry may have been evicted in
		// between.
		c.mu.Lock()
		el, ok = c.items[key]
		if ok {
			c.ll.MoveToFront(el)
		}
		c.mu.Unlock()
		if !ok {
			var zero V
			return zero, false
		}
	}
	return el.Value.(*cached[V]).val, true
}

// set inserts or replaces a value, evicting the least recently used entry if
// the cache is full.
func (c *lru[V]) set(key string, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*cached[V]).val = val
		c.ll.MoveToFront(el)
		return
	}
	if c.ll.Len() >= c.capacity {
		if el := c.ll.Back(); el != nil {
			c.ll.Remove(el)
			delete(c.items, el.Value.(*cached[V]).key)
		}
	}
	c.items[key] = c.ll.PushFront(&cached[V]{key: key, val: val})
}

// getOrCompile returns the cached value for key or calls compile to create
// it. Errors are not cached.
func (c *lru[V]) getOrCompile(key string, compile func() (V, error)) (V, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}
	v, err := compile()
	if err != nil {
		return v, err
	}
	c.set(key, v)
	return v, nil
}

func (c *lru[V]) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *lru[V]) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}
