package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/engineclient"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/jwtauth"
	redisadapter "github.com/lifebuddy/lifebuddy-api/internal/adapters/redis"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/redisqueue"
	httpx "github.com/lifebuddy/lifebuddy-api/internal/http"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
	"github.com/lifebuddy/lifebuddy-api/internal/service"
)

// AppRuntime is the assembled public gateway.
type AppRuntime struct {
	Handler http.Handler
	Engine  *engineclient.Client
	Metrics *metrics.Metrics

	redis redis.UniversalClient
}

// Close releases the runtime's connections.
func (a *AppRuntime) Close() error {
	if a == nil || a.redis == nil {
		return nil
	}
	return a.redis.Close()
}

// BuildApp connects the gateway's dependencies and assembles its router.
func BuildApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*AppRuntime, error) {
	m := BuildMetrics(cfg.Observability.Metrics, "app")

	engine, err := engineclient.New(engineclient.Options{
		BaseURL:            cfg.Engine.BaseURL,
		Secret:             cfg.Internal.SharedSecret,
		SecretHeader:       cfg.Internal.HeaderName(),
		Timeout:            cfg.Engine.Timeout,
		BreakerMaxFailures: cfg.Engine.BreakerMaxFailures,
		BreakerOpenTimeout: cfg.Engine.BreakerOpenTimeout,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("engine circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			m.SetBreakerState(name, int(to))
		},
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("engine client: %w", err)
	}

	tokens, err := jwtauth.New(jwtauth.Options{
		Secret:    cfg.JWT.SecretKey,
		Algorithm: string(cfg.JWT.Algorithm),
		TTL:       cfg.JWT.TokenTTL(),
		Issuer:    cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}

	rdb, err := ConnectRedis(ctx, cfg.Redis, logger)
	if err != nil {
		return nil, err
	}

	rt, err := assembleApp(cfg, logger, m, engine, tokens, rdb)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rt, nil
}

func assembleApp(
	cfg config.AppConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
	engine *engineclient.Client,
	tokens *jwtauth.Manager,
	rdb redis.UniversalClient,
) (*AppRuntime, error) {
	queue, err := redisqueue.New(redisqueue.Options{
		Redis:     rdb,
		QueueName: cfg.Queue.Name,
		KeyPrefix: cfg.Queue.KeyPrefix,
		ResultTTL: cfg.Queue.ResultTTL,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job queue: %w", err)
	}

	gateway, err := service.NewGatewayService(service.GatewayServiceOptions{
		Auth: service.GatewayAuth{
			Credentials: engine,
			Issuer:      tokens,
			Verifier:    tokens,
			Revocations: redisadapter.NewRevocationStoreWithPrefix(rdb, cfg.Queue.KeyPrefix+":revoked:"),
		},
		Engine: engine,
		Queue:  queue,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("gateway service: %w", err)
	}

	var limiter *httpx.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpx.NewRateLimiter(httpx.RateLimiterOptions{
			RPS:    cfg.RateLimit.RPS,
			Burst:  cfg.RateLimit.Burst,
			Logger: logger,
		})
	}

	handler := httpx.NewAppRouter(httpx.AppRouterOptions{
		Gateway:     gateway,
		ServiceName: cfg.HTTP.ServiceName,
		APIPrefix:   cfg.HTTP.APIPrefix,
		RateLimiter: limiter,
		Metrics:     m,
		MetricsPath: cfg.Observability.Metrics.Path,
		Logger:      logger,
	})

	return &AppRuntime{Handler: handler, Engine: engine, Metrics: m, redis: rdb}, nil
}

// RunApp serves the gateway until ctx is canceled or a signal arrives.
func RunApp(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) error {
	rt, err := BuildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Error("failed to close redis", "error", cerr)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	if perr := rt.Engine.Ping(pingCtx); perr != nil {
		// The breaker absorbs a late engine; the gateway still starts.
		logger.Warn("engine is not reachable yet", "url", cfg.Engine.BaseURL, "error", perr)
	}
	cancel()

	server := NewHTTPServer(cfg.HTTP.Addr, rt.Handler)
	err = runServices(ctx, logger, []backgroundService{{
		name:  "http",
		start: func(ctx context.Context) error { return ServeHTTP(ctx, server, logger) },
	}})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
