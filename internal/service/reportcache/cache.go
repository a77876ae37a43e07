// Package reportcache caches each user's newest synthesis report in two
// tiers: a short-lived in-process LRU in front of Redis.
//
// Entries are keyed by the verified user id the engine already scoped the
// read to, so a hit never crosses users. A new report invalidates both tiers
// on the replica that wrote it; other replicas converge within LocalTTL.
package reportcache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
)

const (
	cacheName = "synthesis_latest"

	tierLocal = "local"
	tierRedis = "redis"

	opHit   = "hit"
	opMiss  = "miss"
	opWrite = "write"
	opError = "error"

	defaultLocalCapacity = 1024
	defaultLocalTTL      = 30 * time.Second
	defaultRemoteTTL     = 10 * time.Minute
	remoteOpTimeout      = 250 * time.Millisecond
)

// EventRecorder counts cache events. *metrics.Metrics satisfies it.
type EventRecorder interface {
	RecordCacheEvent(cache, tier, op string)
}

type noopRecorder struct{}

func (noopRecorder) RecordCacheEvent(string, string, string) {}

// Options configures a Cache.
type Options struct {
	// Remote is the shared tier; nil keeps the cache process-local.
	Remote core.BlobCache

	LocalCapacity int
	LocalTTL      time.Duration
	RemoteTTL     time.Duration

	Metrics EventRecorder
	Logger  *slog.Logger
	Now     func() time.Time
}

var _ core.SynthesisCache = (*Cache)(nil)

// Cache implements core.SynthesisCache.
type Cache struct {
	local     *lru[*model.SynthesisReport]
	remote    core.BlobCache
	remoteTTL time.Duration
	metrics   EventRecorder
	logger    *slog.Logger
}

// New constructs a Cache.
func New(opts Options) *Cache {
	localTTL := opts.LocalTTL
	if localTTL <= 0 {
		localTTL = defaultLocalTTL
	}
	remoteTTL := opts.RemoteTTL
	if remoteTTL <= 0 {
		remoteTTL = defaultRemoteTTL
	}
	var rec EventRecorder = noopRecorder{}
	if opts.Metrics != nil {
		rec = opts.Metrics
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		local:     newLRU[*model.SynthesisReport](opts.LocalCapacity, localTTL, opts.Now),
		remote:    opts.Remote,
		remoteTTL: remoteTTL,
		metrics:   rec,
		logger:    logger.With("component", "report_cache"),
	}
}

func key(userID string) string { return "synthesis:latest:" + userID }

// Latest returns the cached report for userID. Remote hits refill the local tier.
func (c *Cache) Latest(ctx context.Context, userID string) (*model.SynthesisReport, bool) {
	k := key(userID)
	if rep, ok := c.local.get(k); ok {
		c.metrics.RecordCacheEvent(cacheName, tierLocal, opHit)
		return rep, true
	}
	c.metrics.RecordCacheEvent(cacheName, tierLocal, opMiss)

	if c.remote == nil {
		return nil, false
	}
	rctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	raw, found, err := c.remote.Load(rctx, k)
	if err != nil {
		c.metrics.RecordCacheEvent(cacheName, tierRedis, opError)
		c.logger.WarnContext(ctx, "report cache lookup failed", "error", err)
		return nil, false
	}
	if !found {
		c.metrics.RecordCacheEvent(cacheName, tierRedis, opMiss)
		return nil, false
	}
	var rep model.SynthesisReport
	if err := json.Unmarshal(raw, &rep); err != nil || rep.UserID != userID {
		c.metrics.RecordCacheEvent(cacheName, tierRedis, opError)
		c.logger.WarnContext(ctx, "discarding unreadable cached report", "error", err)
		_, _ = c.remote.Evict(rctx, k)
		return nil, false
	}
	c.metrics.RecordCacheEvent(cacheName, tierRedis, opHit)
	c.local.set(k, &rep)
	return &rep, true
}

// StoreLatest writes report to both tiers.
func (c *Cache) StoreLatest(ctx context.Context, userID string, report *model.SynthesisReport) {
	if report == nil || report.UserID != userID {
		return
	}
	k := key(userID)
	c.local.set(k, report)
	c.metrics.RecordCacheEvent(cacheName, tierLocal, opWrite)

	if c.remote == nil {
		return
	}
	raw, err := json.Marshal(report)
	if err != nil {
		c.logger.WarnContext(ctx, "encode report for cache", "error", err)
		return
	}
	rctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()
	if err := c.remote.Save(rctx, k, raw, c.remoteTTL); err != nil {
		c.metrics.RecordCacheEvent(cacheName, tierRedis, opError)
		c.logger.WarnContext(ctx, "report cache write failed", "error", err)
		return
	}
	c.metrics.RecordCacheEvent(cacheName, tierRedis, opWrite)
}

// Invalidate drops userID from both tiers.
func (c *Cache) Invalidate(ctx context.Context, userID string) {
	k := key(userID)
	c.local.delete(k)
	if c.remote == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()
	if _, err := c.remote.Evict(rctx, k); err != nil {
		c.metrics.RecordCacheEvent(cacheName, tierRedis, opError)
		c.logger.WarnContext(ctx, "report cache invalidation failed", "error", err)
	}
}
