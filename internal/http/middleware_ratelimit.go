package httpx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// limiterIdleTTL is how long an unused per-caller limiter is kept.
const limiterIdleTTL = 10 * time.Minute

// RateLimiterOptions configures a RateLimiter.
type RateLimiterOptions struct {
	RPS    float64
	Burst  int
	Logger *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

// RateLimiter keeps one token bucket per caller. Authenticated callers are
// keyed by user id, anonymous ones by client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	logger   *slog.Logger
	now      func() time.Time
	lastGC   time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter.
func NewRateLimiter(opts RateLimiterOptions) *RateLimiter {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(opts.RPS),
		burst:    burst,
		logger:   logger,
		now:      now,
		lastGC:   now(),
	}
}

// Allow reports whether the caller identified by key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.gcLocked(now)
	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) gcLocked(now time.Time) {
	if now.Sub(rl.lastGC) < limiterIdleTTL {
		return
	}
	for k, e := range rl.limiters {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(rl.limiters, k)
		}
	}
	rl.lastGC = now
}

// Middleware rejects callers over their budget with 429.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := callerKey(r)
			if !rl.Allow(key) {
				rl.logger.WarnContext(r.Context(), "rate limit exceeded",
					"key", key,
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteAppError(w, r, rl.logger, apperrors.RateLimited("Too many requests. Please slow down."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(r *http.Request) string {
	if id, ok := IdentityFromContext(r.Context()); ok {
		return "user:" + id.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
