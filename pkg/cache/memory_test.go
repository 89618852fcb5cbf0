package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "stats", sample{Wins: 3, Losses: 1}, 0))
	var got sample
	require.NoError(t, c.Get(ctx, "stats", &got))
	assert.Equal(t, sample{Wins: 3, Losses: 1}, got)

	require.NoError(t, c.Set(ctx, "name", "spin", 0))
	var s string
	require.NoError(t, c.Get(ctx, "name", &s))
	assert.Equal(t, "spin", s)
}

func TestMemoryCacheMissAndExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	var got sample
	assert.ErrorIs(t, c.Get(ctx, "absent", &got), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", sample{Wins: 1}, time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewMemoryCache(WithMemoryMaxSize(2))
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", "1", 0))
	time.Sleep(time.Millisecond)
	require.NoError(t, c.Set(ctx, "b", "2", 0))
	time.Sleep(time.Millisecond)

	var s string
	require.NoError(t, c.Get(ctx, "a", &s))
	require.NoError(t, c.Set(ctx, "c", "3", 0))

	assert.ErrorIs(t, c.Get(ctx, "b", &s), ErrCacheMiss)
	assert.NoError(t, c.Get(ctx, "a", &s))
	assert.NoError(t, c.Get(ctx, "c", &s))
}

func TestLayeredCacheReadsThrough(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing, WithLayeredMemoryTTL(time.Minute))
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, backing.Set(ctx, "stats", sample{Wins: 7}, 0))

	var got sample
	require.NoError(t, lc.Get(ctx, "stats", &got))
	assert.Equal(t, 7, got.Wins)

	// L1 keeps serving the first read until its ttl passes.
	require.NoError(t, backing.Set(ctx, "stats", sample{Wins: 8}, 0))
	require.NoError(t, lc.Get(ctx, "stats", &got))
	assert.Equal(t, 7, got.Wins)
}

func TestLayeredCacheWritesThrough(t *testing.T) {
	backing := NewMemoryCache()
	lc := NewLayeredCache(backing)
	defer lc.Close()
	ctx := context.Background()

	require.NoError(t, lc.Set(ctx, "stats", sample{Wins: 2, Losses: 1}, time.Hour))

	var got sample
	require.NoError(t, backing.Get(ctx, "stats", &got))
	assert.Equal(t, sample{Wins: 2, Losses: 1}, got)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "spinsignal:stats:latest", Key("spinsignal", "stats", "latest"))
}
