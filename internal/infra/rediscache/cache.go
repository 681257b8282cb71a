// Package rediscache caches upstream GET responses in Redis. The popular
// and surveys payloads rarely change, so rerunning after a quota stop
// doesn't spend budget refetching them.
package rediscache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

// Cache implements the client's GetCache over Redis. Cache failures are
// logged and treated as misses; the upstream call proceeds.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewCache creates a Redis-backed response cache.
func NewCache(cfg Config) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}

	return &Cache{rdb: rdb, ttl: ttl}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

func cacheKey(key string) string {
	return "bls:response:" + key
}

// Get returns the cached body for key, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	body, err := c.rdb.Get(ctx, cacheKey(key)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("Response cache read failed", "key", key, "error", err)
		return nil, false
	}
	return body, true
}

// Set stores the body for key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, body []byte) {
	if err := c.rdb.Set(ctx, cacheKey(key), body, c.ttl).Err(); err != nil {
		slog.Warn("Response cache write failed", "key", key, "error", err)
	}
}
