package matching_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartsync/heartsync-backend/internal/matching"
)

func newTestStatsCache(t *testing.T, ttl time.Duration) (matching.StatsCache, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return matching.NewRedisStatsCache(client, ttl), mr
}

func TestRedisStatsCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss then hit after set", func(t *testing.T) {
		cache, _ := newTestStatsCache(t, time.Minute)

		_, ok := cache.Get(ctx, "alice")
		assert.False(t, ok)

		stats := &matching.UserStats{
			MatchesCount:  2,
			LikesGiven:    5,
			LikesReceived: 3,
			LastActive:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}
		cache.Set(ctx, "alice", stats)

		got, ok := cache.Get(ctx, "alice")
		require.True(t, ok)
		assert.Equal(t, stats, got)
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		cache, _ := newTestStatsCache(t, time.Minute)

		cache.Set(ctx, "alice", &matching.UserStats{MatchesCount: 1})
		cache.Invalidate(ctx, "alice")

		_, ok := cache.Get(ctx, "alice")
		assert.False(t, ok)
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		cache, mr := newTestStatsCache(t, time.Minute)

		cache.Set(ctx, "alice", &matching.UserStats{MatchesCount: 1})
		mr.FastForward(2 * time.Minute)

		_, ok := cache.Get(ctx, "alice")
		assert.False(t, ok)
	})

	t.Run("keys are scoped per user", func(t *testing.T) {
		cache, _ := newTestStatsCache(t, time.Minute)

		cache.Set(ctx, "alice", &matching.UserStats{LikesGiven: 1})
		cache.Set(ctx, "bob", &matching.UserStats{LikesGiven: 2})
		cache.Invalidate(ctx, "alice")

		got, ok := cache.Get(ctx, "bob")
		require.True(t, ok)
		assert.Equal(t, 2, got.LikesGiven)
	})
}
