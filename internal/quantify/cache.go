package quantify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisDetailCache caches period detail views in Redis. Errors degrade to
// cache misses; the store stays authoritative.
type RedisDetailCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisDetailCache constructs a cache with the given TTL.
func NewRedisDetailCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisDetailCache {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisDetailCache{client: client, ttl: ttl, logger: logger}
}

func detailKey(periodID int64) string {
	return fmt.Sprintf("kudos:period:%d:details", periodID)
}

// Get returns the cached detail view for a period, if present.
func (c *RedisDetailCache) Get(ctx context.Context, periodID int64) (PeriodDetails, bool) {
	if c == nil || c.client == nil {
		return PeriodDetails{}, false
	}
	data, err := c.client.Get(ctx, detailKey(periodID)).Bytes()
	if err != nil {
		return PeriodDetails{}, false
	}
	var details PeriodDetails
	if err := json.Unmarshal(data, &details); err != nil {
		c.logger.Warn("detail cache decode", slog.Int64("period_id", periodID), slog.Any("error", err))
		return PeriodDetails{}, false
	}
	return details, true
}

// Set stores the detail view with the cache TTL.
func (c *RedisDetailCache) Set(ctx context.Context, details PeriodDetails) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(details)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, detailKey(details.Period.ID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("detail cache set", slog.Int64("period_id", details.Period.ID), slog.Any("error", err))
	}
}

// Invalidate drops the cached view after any quantification write.
func (c *RedisDetailCache) Invalidate(ctx context.Context, periodID int64) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, detailKey(periodID)).Err(); err != nil {
		c.logger.Warn("detail cache invalidate", slog.Int64("period_id", periodID), slog.Any("error", err))
	}
}
