// Package cache holds short-lived read caches in front of the store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fatihyuksel3109/mathlearn/config"
	"github.com/fatihyuksel3109/mathlearn/logging"
	"github.com/fatihyuksel3109/mathlearn/metrics"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mathlearn:leaderboard:"

// Leaderboard caches rendered leaderboard payloads by selector.
type Leaderboard interface {
	// Get decodes the cached value for key into dst. The bool is false on a miss.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Invalidate(ctx context.Context) error
}

// Noop never hits. Used when Redis is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Noop) Set(context.Context, string, any) error         { return nil }
func (Noop) Invalidate(context.Context) error               { return nil }

type RedisLeaderboard struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisLeaderboard connects and pings Redis.
func NewRedisLeaderboard(ctx context.Context, cfg config.RedisConfig) (*RedisLeaderboard, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Addr, err)
	}
	logging.Info().Str("addr", cfg.Addr).Msg("✅ [CACHE] redis connected")
	return &RedisLeaderboard{rdb: rdb, ttl: cfg.LeaderboardTTL}, nil
}

func (c *RedisLeaderboard) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.LeaderboardCacheResults.WithLabelValues("miss").Inc()
		return false, nil
	}
	if err != nil {
		metrics.LeaderboardCacheResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("read leaderboard cache %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		metrics.LeaderboardCacheResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("decode leaderboard cache %s: %w", key, err)
	}
	metrics.LeaderboardCacheResults.WithLabelValues("hit").Inc()
	return true, nil
}

func (c *RedisLeaderboard) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode leaderboard cache %s: %w", key, err)
	}
	return c.rdb.Set(ctx, keyPrefix+key, raw, c.ttl).Err()
}

// Invalidate drops every cached leaderboard.
func (c *RedisLeaderboard) Invalidate(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan leaderboard cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisLeaderboard) Close() error {
	return c.rdb.Close()
}
