package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_onboarding_bot/internal/domain/manager"

	"github.com/redis/go-redis/v9"
)

const defaultStatsPrefix = "onboarding:manager_stats"

// RedisStatsCache stores computed manager stats as JSON, one key per day.
type RedisStatsCache struct {
	client *redis.Client
	prefix string
}

func NewRedisStatsCache(client *redis.Client, keyPrefix string) *RedisStatsCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultStatsPrefix
	}
	return &RedisStatsCache{client: client, prefix: prefix}
}

// Get returns the cached stats for day. A miss is found=false with a nil error.
func (c *RedisStatsCache) Get(ctx context.Context, day string) ([]manager.WithStats, bool, error) {
	key, err := c.key(day)
	if err != nil {
		return nil, false, err
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get manager stats: %w", err)
	}

	var stats []manager.WithStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false, fmt.Errorf("decode cached manager stats: %w", err)
	}
	return stats, true, nil
}

func (c *RedisStatsCache) Set(ctx context.Context, day string, stats []manager.WithStats, ttl time.Duration) error {
	key, err := c.key(day)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode manager stats: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set manager stats: %w", err)
	}
	return nil
}

func (c *RedisStatsCache) key(day string) (string, error) {
	trimmed := strings.TrimSpace(day)
	if trimmed == "" {
		return "", fmt.Errorf("day is required")
	}
	return c.prefix + ":" + trimmed, nil
}
