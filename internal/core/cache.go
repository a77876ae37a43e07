package core

import (
	"context"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
)

// BlobCache is a shared, expiring byte store keyed by string.
type BlobCache interface {
	// Load reports found=false for absent or expired keys; err is reserved for
	// transport failures.
	Load(ctx context.Context, key string) (value []byte, found bool, err error)
	// Save writes value; ttl <= 0 keeps it until evicted.
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Evict removes keys and returns how many existed.
	Evict(ctx context.Context, keys ...string) (int64, error)
	Ping(ctx context.Context) error
}

// SynthesisCache holds each user's newest synthesis report. It is best effort:
// a failed lookup is a miss and a failed write is only logged.
type SynthesisCache interface {
	Latest(ctx context.Context, userID string) (*model.SynthesisReport, bool)
	StoreLatest(ctx context.Context, userID string, report *model.SynthesisReport)
	Invalidate(ctx context.Context, userID string)
}
