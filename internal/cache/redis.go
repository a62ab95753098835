package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oualidl290/flightsentry/internal/result"
)

// ResultCache is a read-through cache for analysis results, keyed by
// flight ID, backed by Redis so results survive across process restarts
// and are shared across horizontally-scaled analyzer instances.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache connects to addr and returns a ResultCache with the
// given entry TTL.
func NewResultCache(addr string, ttl time.Duration) *ResultCache {
	return &ResultCache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// NewResultCacheFromClient wraps an existing redis.Client, letting tests
// point it at a miniredis instance.
func NewResultCacheFromClient(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func cacheKey(flightID string) string {
	return "flightsentry:result:" + flightID
}

// Get returns the cached result for flightID, or ok=false on a miss or
// any Redis error (a cache failure degrades to a cache miss, never an
// analysis failure).
func (c *ResultCache) Get(ctx context.Context, flightID string) (result.Result, bool) {
	data, err := c.client.Get(ctx, cacheKey(flightID)).Bytes()
	if err != nil {
		return result.Result{}, false
	}

	var r result.Result
	if err := json.Unmarshal(data, &r); err != nil {
		return result.Result{}, false
	}
	return r, true
}

// Set stores r under flightID with the cache's configured TTL. Errors
// are returned so callers can log them, but a Set failure must never
// abort an otherwise-successful analysis.
func (c *ResultCache) Set(ctx context.Context, flightID string, r result.Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache: marshaling result: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(flightID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache: storing result: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *ResultCache) Close() error {
	return c.client.Close()
}
