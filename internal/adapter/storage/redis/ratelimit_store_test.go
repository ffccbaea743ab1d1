package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRateLimitStore(t *testing.T) (*RateLimitStore, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRateLimitStore(client), s
}

func TestRateLimitStore_AllowsWithinLimit(t *testing.T) {
	store, _ := setupRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		result, err := store.Allow(ctx, "user-1", 5, time.Minute)
		require.NoError(t, err)
		assert.True(t, result.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, int64(5), result.Limit)
	}
}

func TestRateLimitStore_BlocksOverLimit(t *testing.T) {
	store, _ := setupRateLimitStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "user-1", 3, time.Minute)
		require.NoError(t, err)
	}

	result, err := store.Allow(ctx, "user-1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, result.Allowed)
	assert.Equal(t, int64(0), result.Remaining)
}

func TestRateLimitStore_IsolatesKeys(t *testing.T) {
	store, _ := setupRateLimitStore(t)
	ctx := context.Background()

	_, err := store.Allow(ctx, "user-1", 1, time.Minute)
	require.NoError(t, err)

	result, err := store.Allow(ctx, "user-2", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, result.Allowed, "a different key should have its own counter")
}

func TestRateLimitStore_RemainingDecreases(t *testing.T) {
	store, _ := setupRateLimitStore(t)
	ctx := context.Background()

	result, err := store.Allow(ctx, "user-1", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Remaining)

	result, err = store.Allow(ctx, "user-1", 10, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.Remaining)
}
