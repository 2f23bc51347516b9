package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/FACorreiaa/commhub-api/internal/types"
)

// Cache stores built feeds. Lookups that fail are misses.
type Cache interface {
	Get(ctx context.Context, key string) (*types.Feed, bool)
	Set(ctx context.Context, key string, feed *types.Feed)
}

var (
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

// MemoryCache keeps feeds in process.
type MemoryCache struct {
	c *cache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (*types.Feed, bool) {
	v, found := m.c.Get(key)
	if !found {
		return nil, false
	}
	feed, ok := v.(*types.Feed)
	return feed, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, feed *types.Feed) {
	m.c.Set(key, feed, cache.DefaultExpiration)
}

const redisKeyPrefix = "commhub:"

// RedisCache shares feeds between instances as JSON values with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

func (r *RedisCache) Get(ctx context.Context, key string) (*types.Feed, bool) {
	raw, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		r.logger.WarnContext(ctx, "Feed cache read failed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}

	var feed types.Feed
	if err := json.Unmarshal(raw, &feed); err != nil {
		r.logger.WarnContext(ctx, "Discarding unreadable cached feed", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	return &feed, true
}

func (r *RedisCache) Set(ctx context.Context, key string, feed *types.Feed) {
	raw, err := json.Marshal(feed)
	if err != nil {
		r.logger.WarnContext(ctx, "Feed cache encode failed", slog.String("key", key), slog.Any("error", err))
		return
	}
	if err := r.client.Set(ctx, redisKeyPrefix+key, raw, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Feed cache write failed", slog.String("key", key), slog.Any("error", err))
	}
}
