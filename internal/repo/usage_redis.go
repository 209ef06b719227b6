package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisUsage mirrors usage counters into Redis hashes so dashboards can read
// them without touching the primary database. Writes are best-effort.
type RedisUsage struct {
	rdb    redis.Cmdable
	prefix string
	ttl    time.Duration
}

// RedisUsageOption configures a RedisUsage.
type RedisUsageOption func(*RedisUsage)

// WithUsagePrefix overrides the key prefix (default "mealplan:usage").
func WithUsagePrefix(prefix string) RedisUsageOption {
	return func(r *RedisUsage) { r.prefix = strings.Trim(prefix, ":") }
}

// WithUsageTTL expires per-user hashes after d of inactivity (0 = never).
func WithUsageTTL(d time.Duration) RedisUsageOption {
	return func(r *RedisUsage) { r.ttl = d }
}

// NewRedisUsage wraps a Redis client.
func NewRedisUsage(rdb redis.Cmdable, opts ...RedisUsageOption) *RedisUsage {
	r := &RedisUsage{rdb: rdb, prefix: "mealplan:usage"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Key returns the hash key for userID.
func (r *RedisUsage) Key(userID string) string {
	return fmt.Sprintf("%s:%s", r.prefix, userID)
}

// Record increments the generation and meal counters for userID in a single
// pipeline round trip.
func (r *RedisUsage) Record(ctx context.Context, userID string, meals int64, at time.Time) error {
	if r == nil || r.rdb == nil {
		return nil
	}
	key := r.Key(userID)
	pipe := r.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "generations", 1)
	pipe.HIncrBy(ctx, key, "meals", meals)
	pipe.HSet(ctx, key, "last_generated_at", at.UTC().Format(time.RFC3339))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// NewRedisClient parses a redis:// URL and verifies connectivity.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}
