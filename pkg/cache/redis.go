package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const layerRedis = "redis"

// RedisStore handles slug caching with a Redis backend shared by every
// client pointing at the same instance.
type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisStore creates a Redis-backed store. A ttl of zero keeps entries
// until they are deleted.
func NewRedisStore(redisClient *redis.Client, ttl time.Duration) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		redis: redisClient,
		ttl:   ttl,
	}
}

// Get retrieves the identifier cached for key.
// Returns ErrCacheMiss if the key doesn't exist or has expired.
func (s *RedisStore) Get(ctx context.Context, key Key) (string, error) {
	cacheKey := key.String()

	id, err := s.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.WithLabelValues(layerRedis).Inc()
			return "", ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return "", fmt.Errorf("redis get: %w", err)
	}

	if id == "" {
		// Never written by Set; drop it so the next lookup rebuilds it.
		_ = s.Delete(ctx, key)
		CacheErrors.WithLabelValues("get").Inc()
		return "", fmt.Errorf("%w: empty identifier for %s", ErrInvalidEntry, cacheKey)
	}

	CacheHits.WithLabelValues(layerRedis).Inc()
	return id, nil
}

// Set stores the identifier with the store TTL.
func (s *RedisStore) Set(ctx context.Context, key Key, id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidEntry)
	}

	if err := s.redis.Set(ctx, key.String(), id, s.ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	removed, err := s.redis.Del(ctx, key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	if removed > 0 {
		CacheEvictions.WithLabelValues(layerRedis).Inc()
	}
	return nil
}

// TTL returns the expiry applied to new entries.
func (s *RedisStore) TTL() time.Duration {
	return s.ttl
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}
