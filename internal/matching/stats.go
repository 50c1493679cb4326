package matching

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// StatsCache is a read-through cache for per-user aggregate stats.
type StatsCache interface {
	Get(ctx context.Context, userID string) (*UserStats, bool)
	Set(ctx context.Context, userID string, stats *UserStats)
	Invalidate(ctx context.Context, userID string)
}

type redisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) StatsCache {
	return &redisStatsCache{client: client, ttl: ttl}
}

func statsKey(userID string) string {
	return "stats:user:" + userID
}

func (c *redisStatsCache) Get(ctx context.Context, userID string) (*UserStats, bool) {
	raw, err := c.client.Get(ctx, statsKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("⚠️ stats cache read failed for %s: %v", userID, err)
		return nil, false
	}

	var stats UserStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}

	return &stats, true
}

func (c *redisStatsCache) Set(ctx context.Context, userID string, stats *UserStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey(userID), raw, c.ttl).Err(); err != nil {
		log.Printf("⚠️ stats cache write failed for %s: %v", userID, err)
	}
}

func (c *redisStatsCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, statsKey(userID)).Err(); err != nil && err != redis.Nil {
		log.Printf("⚠️ stats cache invalidate failed for %s: %v", userID, err)
	}
}
