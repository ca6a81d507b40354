package render

import (
	"container/list"
	"sync"
	"time"
)

// Cache is a small TTL-bound LRU of rendered charts keyed by request.
type Cache struct {
	mu    sync.Mutex
	cap   int
	ttl   time.Duration
	ll    *list.List               // most-recent at front
	items map[string]*list.Element // key -> element
	now   func() time.Time
}

type entry struct {
	key string
	val []byte
	exp time.Time
}

func NewCache(maxKeys int, ttl time.Duration) *Cache {
	if maxKeys <= 0 {
		maxKeys = 256
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Cache{cap: maxKeys, ttl: ttl, ll: list.New(), items: make(map[string]*list.Element, maxKeys), now: time.Now}
}

func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	en := el.Value.(entry)
	if !c.now().Before(en.exp) {
		c.ll.Remove(el)
		delete(c.items, key)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return en.val, true
}

func (c *Cache) Put(key string, val []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp := c.now().Add(c.ttl)
	if el, ok := c.items[key]; ok {
		el.Value = entry{key: key, val: val, exp: exp}
		c.ll.MoveToFront(el)
		return
	}
	c.items[key] = c.ll.PushFront(entry{key: key, val: val, exp: exp})
	for c.ll.Len() > c.cap {
		t := c.ll.Back()
		c.ll.Remove(t)
		delete(c.items, t.Value.(entry).key)
	}
	// drop expired entries from the tail
	for t := c.ll.Back(); t != nil; t = c.ll.Back() {
		if c.now().Before(t.Value.(entry).exp) {
			break
		}
		c.ll.Remove(t)
		delete(c.items, t.Value.(entry).key)
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
