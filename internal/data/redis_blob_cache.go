package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
)

var _ core.BlobCache = (*RedisBlobCache)(nil)

var errEmptyCacheKey = errors.New("cache key must not be empty")

// RedisBlobCache stores cache blobs under a fixed key namespace.
type RedisBlobCache struct {
	rdb       redis.UniversalClient
	namespace string
}

// NewRedisBlobCache returns a cache whose keys are all prefixed with namespace.
func NewRedisBlobCache(rdb redis.UniversalClient, namespace string) *RedisBlobCache {
	return &RedisBlobCache{rdb: rdb, namespace: namespace}
}

func (c *RedisBlobCache) qualify(key string) (string, error) {
	if key == "" {
		return "", errEmptyCacheKey
	}
	return c.namespace + key, nil
}

// Load fetches key. A missing key is not an error.
func (c *RedisBlobCache) Load(ctx context.Context, key string) ([]byte, bool, error) {
	full, err := c.qualify(key)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.rdb.Get(ctx, full).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("load %s: %w", full, err)
	}
	return raw, true, nil
}

// Save writes key, replacing any previous value and expiry.
func (c *RedisBlobCache) Save(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	full, err := c.qualify(key)
	if err != nil {
		return err
	}
	if ttl < 0 {
		ttl = 0
	}
	if err := c.rdb.Set(ctx, full, value, ttl).Err(); err != nil {
		return fmt.Errorf("save %s: %w", full, err)
	}
	return nil
}

// Evict unlinks keys in one round trip.
func (c *RedisBlobCache) Evict(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		q, err := c.qualify(k)
		if err != nil {
			return 0, err
		}
		full[i] = q
	}
	n, err := c.rdb.Unlink(ctx, full...).Result()
	if err != nil {
		return 0, fmt.Errorf("evict %d keys: %w", len(full), err)
	}
	return n, nil
}

// Ping checks the connection.
func (c *RedisBlobCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
