package routing

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisCache(t *testing.T) *RedisSnapshotCache {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache, err := NewRedisSnapshotCache("redis://"+mr.Addr(), "meridian-test")
	require.NoError(t, err)
	return cache
}

func TestRedisSnapshotCacheStoreThenLoad(t *testing.T) {
	cache := newTestRedisCache(t)
	ctx := context.Background()

	endpoints := []url.URL{mustURL(t, "https://east.example.com"), mustURL(t, "https://west.example.com")}
	require.NoError(t, cache.Store(ctx, "acct", endpoints, time.Minute))

	loaded, ok, err := cache.Load(ctx, "acct")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, endpoints, loaded)
}

func TestRedisSnapshotCacheLoadMissReturnsFalse(t *testing.T) {
	cache := newTestRedisCache(t)
	_, ok, err := cache.Load(context.Background(), "missing-account")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisSnapshotCacheRejectsBadURL(t *testing.T) {
	_, err := NewRedisSnapshotCache("not-a-url", "ns")
	require.Error(t, err)
}
