package quantify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kudoshq/kudos/internal/periods"
	"github.com/kudoshq/kudos/internal/praise"
)

func testRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestRedisDetailCacheRoundtrip(t *testing.T) {
	client, _ := testRedis(t)
	cache := NewRedisDetailCache(client, time.Minute, nil)
	ctx := context.Background()

	details := PeriodDetails{
		Period:         periods.Period{ID: 7, Name: "march", Status: periods.StatusQuantify},
		NumberOfPraise: 13,
		Receivers:      []praise.ReceiverCount{{ReceiverID: 100, Count: 13}},
		Quantifiers:    []praise.QuantifierStats{{QuantifierID: 10, AssignedCount: 13, FinishedCount: 2}},
	}

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)

	cache.Set(ctx, details)
	got, ok := cache.Get(ctx, 7)
	require.True(t, ok)
	assert.Equal(t, details.NumberOfPraise, got.NumberOfPraise)
	assert.Equal(t, details.Receivers, got.Receivers)
	assert.Equal(t, details.Quantifiers, got.Quantifiers)
	assert.Equal(t, details.Period.ID, got.Period.ID)
}

func TestRedisDetailCacheInvalidate(t *testing.T) {
	client, _ := testRedis(t)
	cache := NewRedisDetailCache(client, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, PeriodDetails{Period: periods.Period{ID: 7}})
	cache.Invalidate(ctx, 7)

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)
}

func TestRedisDetailCacheExpiry(t *testing.T) {
	client, mr := testRedis(t)
	cache := NewRedisDetailCache(client, time.Minute, nil)
	ctx := context.Background()

	cache.Set(ctx, PeriodDetails{Period: periods.Period{ID: 7}})
	mr.FastForward(2 * time.Minute)

	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)
}

func TestRedisDetailCacheCorruptEntryIsMiss(t *testing.T) {
	client, mr := testRedis(t)
	cache := NewRedisDetailCache(client, time.Minute, nil)

	require.NoError(t, mr.Set("kudos:period:7:details", "{not json"))
	_, ok := cache.Get(context.Background(), 7)
	assert.False(t, ok)
}

func TestRedisDetailCacheNilSafe(t *testing.T) {
	var cache *RedisDetailCache
	ctx := context.Background()

	cache.Set(ctx, PeriodDetails{Period: periods.Period{ID: 7}})
	cache.Invalidate(ctx, 7)
	_, ok := cache.Get(ctx, 7)
	assert.False(t, ok)
}
