package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTTLCacheSetGet(t *testing.T) {
	c := NewTTLCache(10)
	defer c.Stop()

	c.Set("k", "v", time.Minute)
	value, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", value)
}

func TestTTLCacheExpires(t *testing.T) {
	c := NewTTLCache(10)
	defer c.Stop()

	c.Set("k", "v", time.Nanosecond)
	time.Sleep(time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCacheEvictsLRUWhenFull(t *testing.T) {
	c := NewTTLCache(2)
	defer c.Stop()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	_, _ = c.Get("a") // touch a so b is the least recently accessed
	c.Set("c", 3, time.Minute)

	_, aOK := c.Get("a")
	_, bOK := c.Get("b")
	_, cOK := c.Get("c")

	assert.True(t, aOK)
	assert.False(t, bOK)
	assert.True(t, cOK)
}

func TestTTLCacheStats(t *testing.T) {
	c := NewTTLCache(10)
	defer c.Stop()

	c.Set("k", "v", time.Minute)
	_, _ = c.Get("k")
	_, _ = c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}
