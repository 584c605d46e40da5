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

func TestIdempotencyCache_SetAndGet(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "3f2504e0-4f89-11d3-9a0c-0305e82c3301:order-1001"
	value := []byte(`{"id":"abc","status":"COMPLETED"}`)

	// Get before set => nil, nil
	result, err := cache.Get(ctx, key)
	assert.NoError(t, err)
	assert.Nil(t, result)

	err = cache.Set(ctx, key, value, 24*time.Hour)
	require.NoError(t, err)

	result, err = cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, value, result)
}

func TestIdempotencyCache_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	key := "3f2504e0-4f89-11d3-9a0c-0305e82c3301:order-2002"
	require.NoError(t, cache.Set(ctx, key, []byte(`{"status":"FAILED"}`), time.Second))

	s.FastForward(2 * time.Second)

	result, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestIdempotencyCache_KeysAreScoped(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	cache := NewIdempotencyCache(client)
	ctx := context.Background()

	// Same reference token under two merchants stays distinct.
	require.NoError(t, cache.Set(ctx, "merchant-a:order-1", []byte(`a`), time.Hour))
	require.NoError(t, cache.Set(ctx, "merchant-b:order-1", []byte(`b`), time.Hour))

	a, err := cache.Get(ctx, "merchant-a:order-1")
	require.NoError(t, err)
	b, err := cache.Get(ctx, "merchant-b:order-1")
	require.NoError(t, err)
	assert.Equal(t, []byte(`a`), a)
	assert.Equal(t, []byte(`b`), b)
}
