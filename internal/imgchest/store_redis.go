// Copyright (c) 2026 Les Poroïniens. All rights reserved.
// Author: contact@lesporoiniens.org

package imgchest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache implements [Cache] on a Redis keyspace.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed [Cache].
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

/*
Get retrieves the cached bytes for a key.

Returns:
  - []byte: Stored value, verbatim
  - bool: Whether the key was present
  - error: Connectivity errors only — absence is not an error
*/
func (cache *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := cache.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("imgchest_cache_get_failed: %w", err)
	}
	return value, true, nil
}

/*
Set overwrites the key with the given retention window.
*/
func (cache *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := cache.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("imgchest_cache_set_failed: %w", err)
	}
	return nil
}
