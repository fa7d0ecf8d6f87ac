package llm

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"campaign-scribe/internal/config"
)

// RedisCache backs the response cache with Redis so cached completions
// survive restarts and are shared between replicas.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed response cache and verifies the
// connection.
func NewRedisCache(ctx context.Context, cfg config.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisCache{
		client: client,
		ttl:    time.Duration(cfg.TTLMinutes) * time.Minute,
	}, nil
}

// Get retrieves a cached completion. Backend errors read as misses.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	text, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// Treat backend trouble as a miss; the model call still works.
			return "", false
		}
		return "", false
	}
	return text, true
}

// Set stores a completion with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key, text string) {
	_ = c.client.Set(ctx, key, text, c.ttl).Err()
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
