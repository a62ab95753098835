package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oualidl290/flightsentry/internal/result"
)

func newTestResultCache(t *testing.T) *ResultCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewResultCacheFromClient(client, time.Minute)
}

func TestResultCacheRoundTrip(t *testing.T) {
	c := newTestResultCache(t)
	ctx := context.Background()

	r := result.Result{FlightID: "f1", AircraftClass: "multirotor", RiskScore: 0.42}
	require.NoError(t, c.Set(ctx, "f1", r))

	got, ok := c.Get(ctx, "f1")
	require.True(t, ok)
	assert.Equal(t, r.FlightID, got.FlightID)
	assert.Equal(t, r.RiskScore, got.RiskScore)
}

func TestResultCacheMissReturnsFalse(t *testing.T) {
	c := newTestResultCache(t)
	_, ok := c.Get(context.Background(), "absent")
	assert.False(t, ok)
}
