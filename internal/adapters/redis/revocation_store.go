// Package redis provides Redis-based adapters for the gateway.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/internal/ports"
)

var _ ports.RevocationStore = (*RevocationStore)(nil)

// RevocationStore records logged-out token ids until the token would have expired anyway.
// Keys expire on their own, so the store never needs sweeping.
type RevocationStore struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRevocationStore creates a revocation store with the default key prefix.
func NewRevocationStore(client redis.UniversalClient) *RevocationStore {
	return NewRevocationStoreWithPrefix(client, "lifebuddy:revoked:")
}

// NewRevocationStoreWithPrefix creates a revocation store with a custom key prefix.
func NewRevocationStoreWithPrefix(client redis.UniversalClient, prefix string) *RevocationStore {
	return &RevocationStore{client: client, prefix: prefix, now: time.Now}
}

// Revoke marks tokenID revoked until until. Tokens that already expired are ignored.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	if tokenID == "" {
		return errors.New("token id cannot be empty")
	}
	ttl := until.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked and has not yet expired.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if tokenID == "" {
		return false, nil
	}
	_, err := s.client.Get(ctx, s.prefix+tokenID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}
