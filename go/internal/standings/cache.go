package standings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PointsCache is a read-through cache over standings points, consulted on
// every scoring run so a busy vendor does not hammer the standings table.
type PointsCache interface {
	GetPoints(ctx context.Context, key string) (int, bool, error)
	SetPoints(ctx context.Context, key string, points int) error
	Invalidate(ctx context.Context, keys ...string) error
}

// RedisPointsCache backs PointsCache with Redis.
type RedisPointsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisPointsCache(client *redis.Client, ttl time.Duration) *RedisPointsCache {
	return &RedisPointsCache{client: client, ttl: ttl}
}

func (c *RedisPointsCache) GetPoints(ctx context.Context, key string) (int, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read points cache: %w", err)
	}
	points, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt points cache entry %q: %w", val, err)
	}
	return points, true, nil
}

func (c *RedisPointsCache) SetPoints(ctx context.Context, key string, points int) error {
	if err := c.client.Set(ctx, key, strconv.Itoa(points), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write points cache: %w", err)
	}
	return nil
}

func (c *RedisPointsCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate points cache: %w", err)
	}
	return nil
}

func pointsKey(teamID uuid.UUID, sportID, season string) string {
	return fmt.Sprintf("standings:points:%s:%s:%s", sportID, season, teamID)
}
