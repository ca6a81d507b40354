package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewCache(2, time.Hour)
	c.Put("a", []byte("A"))
	c.Put("b", []byte("B"))
	_, ok := c.Get("a")
	assert.True(t, ok)

	c.Put("c", []byte("C"))
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("A"), v)
}

func TestCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Put("trend:ACC", []byte("png"))
	_, ok := c.Get("trend:ACC")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("trend:ACC")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCachePutDropsExpiredTail(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Put("old", []byte("1"))
	now = now.Add(2 * time.Minute)
	c.Put("new", []byte("2"))
	assert.Equal(t, 1, c.Len())
}

func TestCacheDefaults(t *testing.T) {
	c := NewCache(0, 0)
	assert.Equal(t, 256, c.cap)
	assert.Equal(t, time.Hour, c.ttl)
}
