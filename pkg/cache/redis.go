package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 500

// RedisStorage stores cache entries in Redis.
// INCR makes version bumps atomic across all processes sharing the instance.
type RedisStorage struct {
	redis *redis.Client
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(redisClient *redis.Client) *RedisStorage {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStorage{
		redis: redisClient,
	}
}

// Get retrieves the raw value for key.
func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

// Set stores value with TTL. A non-positive TTL stores without expiry.
func (s *RedisStorage) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// SetNX stores value only if key does not exist yet.
func (s *RedisStorage) SetNX(ctx context.Context, key string, value []byte) (bool, error) {
	ok, err := s.redis.SetNX(ctx, key, value, 0).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Delete removes keys. Missing keys are ignored.
func (s *RedisStorage) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Incr atomically increments the integer stored at key.
func (s *RedisStorage) Incr(ctx context.Context, key string) (int64, error) {
	n, err := s.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr: %w", err)
	}
	return n, nil
}

// Count returns the number of keys starting with prefix, using SCAN.
func (s *RedisStorage) Count(ctx context.Context, prefix string) (int64, error) {
	var (
		cursor uint64
		total  int64
	)
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return 0, fmt.Errorf("redis scan: %w", err)
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// Kind identifies the backend in stats and metrics.
func (s *RedisStorage) Kind() string {
	return "redis"
}

var _ Storage = (*RedisStorage)(nil)
