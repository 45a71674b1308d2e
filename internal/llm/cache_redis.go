package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Veraticus/leadflow/internal/model"
)

// redisCache shares categorizations between processes.
// Redis errors are logged and treated as misses.
type redisCache struct {
	rdb    *redis.Client
	logger *slog.Logger
	ttl    time.Duration
}

// NewRedisCache connects to url and verifies the connection.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration, logger *slog.Logger) (ResultCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisCache(rdb, ttl, logger), nil
}

func newRedisCache(rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *redisCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get implements ResultCache.
func (c *redisCache) Get(ctx context.Context, key string) (model.CategorizationResult, bool) {
	s, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return model.CategorizationResult{}, false
	}
	if err != nil {
		c.logger.Warn("categorization cache read failed", "error", err)
		return model.CategorizationResult{}, false
	}

	var result model.CategorizationResult
	if err := json.Unmarshal([]byte(s), &result); err != nil {
		// corrupt entry
		_ = c.rdb.Del(ctx, key).Err()
		return model.CategorizationResult{}, false
	}
	return result, true
}

// Set implements ResultCache.
func (c *redisCache) Set(ctx context.Context, key string, result model.CategorizationResult) {
	b, err := json.Marshal(result)
	if err != nil {
		c.logger.Warn("categorization cache encode failed", "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, b, c.ttl).Err(); err != nil {
		c.logger.Warn("categorization cache write failed", "error", err)
	}
}

// Close implements ResultCache.
func (c *redisCache) Close() error {
	return c.rdb.Close()
}
