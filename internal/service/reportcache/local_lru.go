package reportcache

import (
	"container/list"
	"sync"
	"time"
)

// lru is a small in-memory LRU with a per-entry deadline. It is the first
// tier in front of Redis and is safe for concurrent use.
type lru[V any] struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List // front = most recently used
	items map[string]*list.Element
	now   func() time.Time
}

type lruEntry[V any] struct {
	key    string
	value  V
	expiry time.Time
}

func newLRU[V any](capacity int, ttl time.Duration, now func() time.Time) *lru[V] {
	if capacity <= 0 {
		capacity = defaultLocalCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &lru[V]{
		cap:   capacity,
		ttl:   ttl,
		ll:    list.New(),
		items: make(map[string]*list.Element, capacity),
		now:   now,
	}
}

// get returns the value for key if present and not expired.
func (c *lru[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	el, ok := c.items[key]
	if !ok {
		return zero, false
	}
	ent := el.Value.(*lruEntry[V])
	if c.now().After(ent.expiry) {
		c.remove(el)
		return zero, false
	}
	c.ll.MoveToFront(el)
	return ent.value, true
}

// set inserts or replaces key and restarts its TTL.
func (c *lru[V]) set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	exp := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		ent := el.Value.(*lruEntry[V])
		ent.value = value
		ent.expiry = exp
		c.ll.MoveToFront(el)
		return
	}

	c.items[key] = c.ll.PushFront(&lruEntry[V]{key: key, value: value, expiry: exp})
	for c.ll.Len() > c.cap {
		c.remove(c.ll.Back())
	}
}

func (c *lru[V]) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		c.remove(el)
	}
}

func (c *lru[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// remove unlinks el. Caller holds c.mu.
func (c *lru[V]) remove(el *list.Element) {
	c.ll.Remove(el)
	delete(c.items, el.Value.(*lruEntry[V]).key)
}
