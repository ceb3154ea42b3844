package repository

import (
	"context"
	"fmt"
	"time"

	"streamnotifier/internal/entity"
	"streamnotifier/pkg/cache"
	"streamnotifier/pkg/storage/redis"
)

var historyCacheKey = cache.Key("streamnotifier", "notifications", "history")

// HistoryCache keeps the rendered notification history in redis for a
// short TTL.
type HistoryCache struct {
	rdb *redis.Redis
	ttl time.Duration
}

func NewHistoryCache(rdb *redis.Redis, ttl time.Duration) *HistoryCache {
	return &HistoryCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached history and whether it was present.
func (c *HistoryCache) Get(ctx context.Context) ([]entity.NotificationView, bool, error) {
	const op = "repository.HistoryCache.Get"

	data, err := c.rdb.Get(ctx, historyCacheKey).Bytes()
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	history, err := cache.Deserialize[[]entity.NotificationView](data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	return history, true, nil
}

func (c *HistoryCache) Set(ctx context.Context, history []entity.NotificationView) error {
	const op = "repository.HistoryCache.Set"

	data, err := cache.Serialize(history)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = c.rdb.Set(ctx, historyCacheKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (c *HistoryCache) Invalidate(ctx context.Context) error {
	const op = "repository.HistoryCache.Invalidate"

	if err := c.rdb.Del(ctx, historyCacheKey).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// NoopHistoryCache is used when no redis address is configured.
type NoopHistoryCache struct{}

func (NoopHistoryCache) Get(context.Context) ([]entity.NotificationView, bool, error) {
	return nil, false, nil
}

func (NoopHistoryCache) Set(context.Context, []entity.NotificationView) error { return nil }

func (NoopHistoryCache) Invalidate(context.Context) error { return nil }
