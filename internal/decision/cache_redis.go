package decision

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"collabgate/internal/platform/redis"
)

// RedisCache stores verdicts in Redis with a TTL. Entries are "1" or "0";
// anything else reads as a miss.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps an existing platform Redis client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (bool, bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, false, nil
		}
		return false, false, err
	}
	switch value {
	case "1":
		return true, true, nil
	case "0":
		return false, true, nil
	default:
		return false, false, nil
	}
}

func (c *RedisCache) Set(ctx context.Context, key string, allowed bool, ttl time.Duration) error {
	value := "0"
	if allowed {
		value = "1"
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}
