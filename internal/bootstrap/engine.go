package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/jobrunner"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/maintenance"
	"github.com/lifebuddy/lifebuddy-api/internal/adapters/redisqueue"
	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/data"
	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	httpx "github.com/lifebuddy/lifebuddy-api/internal/http"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
	"github.com/lifebuddy/lifebuddy-api/internal/service"
	"github.com/lifebuddy/lifebuddy-api/internal/service/reportcache"
)

// queueStatsInterval is how often workers sample queue depth for metrics.
const queueStatsInterval = 15 * time.Second

// EngineRuntime is the assembled Cognitive Engine.
type EngineRuntime struct {
	Config   config.EngineConfig
	Services map[config.ServiceMode]bool
	Metrics  *metrics.Metrics

	Pool  *rls.Pool
	Queue *redisqueue.Client

	Submissions *service.SubmissionService
	DailyCheck  *service.DailyCheckService
	Credentials *service.CredentialService
	Jobs        *service.JobProcessor

	rlsDB  *sql.DB
	fullDB *sql.DB
	redis  redis.UniversalClient
	logger *slog.Logger
}

// Close releases every connection the runtime opened.
func (e *EngineRuntime) Close() error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	if e.fullDB != nil {
		errs = append(errs, e.fullDB.Close())
	}
	if e.rlsDB != nil {
		errs = append(errs, e.rlsDB.Close())
	}
	return errors.Join(errs...)
}

// BuildEngine opens the engine's stores and constructs its services.
// The full-access pool is only opened for migrations or maintenance.
func BuildEngine(ctx context.Context, cfg config.EngineConfig, logger *slog.Logger) (rt *EngineRuntime, err error) {
	services, err := cfg.GetEnabledServices()
	if err != nil {
		return nil, err
	}
	rt = &EngineRuntime{
		Config:   cfg,
		Services: services,
		Metrics:  BuildMetrics(cfg.Observability.Metrics, "engine"),
		logger:   logger,
	}
	defer func() {
		if err != nil {
			_ = rt.Close()
			rt = nil
		}
	}()

	if cfg.Database.RunMigrationsOnStart || services[config.ServiceModeMaintenance] {
		if rt.fullDB, err = OpenFullAccessDB(ctx, cfg.FullDatabase, logger); err != nil {
			return rt, err
		}
	}
	if cfg.Database.RunMigrationsOnStart {
		if err = RunMigrations(ctx, rt.fullDB, logger); err != nil {
			return rt, err
		}
	}

	if rt.rlsDB, err = OpenRLSDB(ctx, cfg.Database, logger); err != nil {
		return rt, err
	}
	if rt.Pool, err = rls.NewPool(rls.Options{
		DB:             rt.rlsDB,
		Logger:         logger,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		ScopeTimeout:   cfg.Database.ScopeTimeout,
	}); err != nil {
		return rt, fmt.Errorf("rls pool: %w", err)
	}

	if rt.redis, err = ConnectRedis(ctx, cfg.Redis, logger); err != nil {
		return rt, err
	}
	if rt.Queue, err = redisqueue.New(redisqueue.Options{
		Redis:     rt.redis,
		QueueName: cfg.Queue.Name,
		KeyPrefix: cfg.Queue.KeyPrefix,
		ResultTTL: cfg.Queue.ResultTTL,
		Logger:    logger,
	}); err != nil {
		return rt, fmt.Errorf("job queue: %w", err)
	}

	err = rt.buildServices()
	return rt, err
}

func (e *EngineRuntime) buildServices() error {
	answers := data.NewAnswerRepo()
	synthesis := data.NewSynthesisRepo()
	reports := e.newReportCache()
	var err error

	if e.Submissions, err = service.NewSubmissionService(service.SubmissionServiceOptions{
		Scopes:  e.Pool,
		Answers: answers,
		Queue:   e.Queue,
		Config: service.SubmissionConfig{
			CompletionTimeout:  e.Config.Submission.CompletionTimeout,
			StatusPathTemplate: e.Config.Submission.StatusPathTemplate,
		},
		Logger: e.logger,
	}); err != nil {
		return fmt.Errorf("submission service: %w", err)
	}
	if e.DailyCheck, err = service.NewDailyCheckService(service.DailyCheckServiceOptions{
		Scopes:    e.Pool,
		Answers:   answers,
		Synthesis: synthesis,
		Reports:   reports,
	}); err != nil {
		return fmt.Errorf("daily check service: %w", err)
	}
	if e.Credentials, err = service.NewCredentialService(service.CredentialServiceOptions{
		Scopes: e.Pool,
		Users:  data.NewUserRepo(),
		Logger: e.logger,
	}); err != nil {
		return fmt.Errorf("credential service: %w", err)
	}
	if e.Jobs, err = service.NewJobProcessor(service.JobProcessorOptions{
		Scopes:    e.Pool,
		Answers:   answers,
		Synthesis: synthesis,
		Reports:   reports,
		Logger:    e.logger,
	}); err != nil {
		return fmt.Errorf("job processor: %w", err)
	}
	return nil
}

// newReportCache returns nil when the cache is disabled so services fall back to the database.
//
//nolint:ireturn // callers depend on the port, not the concrete cache.
func (e *EngineRuntime) newReportCache() core.SynthesisCache {
	cfg := e.Config.ReportCache
	if !cfg.Enabled {
		return nil
	}
	var remote core.BlobCache
	if e.redis != nil {
		remote = data.NewRedisBlobCache(e.redis, e.Config.Queue.KeyPrefix+":cache:")
	}
	return reportcache.New(reportcache.Options{
		Remote:        remote,
		LocalCapacity: cfg.LocalCapacity,
		LocalTTL:      cfg.LocalTTL,
		RemoteTTL:     cfg.RemoteTTL,
		Metrics:       e.Metrics,
		Logger:        e.logger,
	})
}

// Handler builds the internal HTTP router.
func (e *EngineRuntime) Handler() http.Handler {
	return httpx.NewEngineRouter(httpx.EngineRouterOptions{
		Handlers: &httpx.EngineHandlers{
			Submissions: e.Submissions,
			DailyCheck:  e.DailyCheck,
			Credentials: e.Credentials,
			Logger:      e.logger,
		},
		ServiceName:    e.Config.HTTP.ServiceName,
		InternalHeader: e.Config.Internal.HeaderName(),
		InternalSecret: e.Config.Internal.SharedSecret,
		Readiness: []httpx.ReadinessCheck{
			{Name: "database", Check: e.Pool.Ping},
			httpx.QueueCheck("queue", e.Queue),
		},
		Metrics:     e.Metrics,
		MetricsPath: e.Config.Observability.Metrics.Path,
		Logger:      e.logger,
	})
}

func (e *EngineRuntime) newJobRunner() (*jobrunner.Runner, error) {
	return jobrunner.NewRunner(jobrunner.RunnerOptions{
		Queue: e.Queue,
		Handlers: map[model.JobKind]jobrunner.HandlerFunc{
			model.JobKindImplicitCheck: e.Jobs.ProcessImplicitCheck,
			model.JobKindSynthesis:     e.Jobs.PerformSynthesis,
		},
		Logger:          e.logger,
		Concurrency:     e.Config.Worker.Concurrency,
		PollWait:        e.Config.Worker.PollWait,
		StatsInterval:   queueStatsInterval,
		Metrics:         e.Metrics,
		FailureNotifier: BuildFailureNotifier(e.logger, e.Config.Observability.Notifications),
	})
}

func (e *EngineRuntime) newMaintenanceRunner() (*maintenance.Runner, error) {
	if e.fullDB == nil {
		return nil, errors.New("maintenance requires the full-access database")
	}
	svc, err := maintenance.NewService(maintenance.ServiceOptions{
		Store:   maintenance.NewStore(e.fullDB, nil),
		Queue:   e.Queue,
		Config:  e.Config.Maintenance,
		Logger:  e.logger,
		Metrics: e.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return maintenance.NewRunner(maintenance.RunnerOptions{
		Service:  svc,
		Schedule: e.Config.Maintenance.Schedule,
		Logger:   e.logger,
	})
}

// backgroundServices returns the enabled services in start order.
func (e *EngineRuntime) backgroundServices() ([]backgroundService, error) {
	var out []backgroundService

	if e.Services[config.ServiceModeHTTP] {
		server := NewHTTPServer(e.Config.HTTP.Addr, e.Handler())
		out = append(out, backgroundService{
			name:  string(config.ServiceModeHTTP),
			start: func(ctx context.Context) error { return ServeHTTP(ctx, server, e.logger) },
		})
	}
	if e.Services[config.ServiceModeWorker] {
		runner, err := e.newJobRunner()
		if err != nil {
			return nil, fmt.Errorf("job runner: %w", err)
		}
		out = append(out, backgroundService{name: string(config.ServiceModeWorker), start: runner.Run})
	}
	if e.Services[config.ServiceModeMaintenance] {
		runner, err := e.newMaintenanceRunner()
		if err != nil {
			return nil, fmt.Errorf("maintenance runner: %w", err)
		}
		out = append(out, backgroundService{name: string(config.ServiceModeMaintenance), start: runner.Run})
	}
	return out, nil
}

// RunEngine runs the enabled engine services until ctx is canceled or a signal arrives.
func RunEngine(ctx context.Context, cfg config.EngineConfig, logger *slog.Logger) error {
	rt, err := BuildEngine(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			logger.Error("failed to close engine resources", "error", cerr)
		}
	}()

	services, err := rt.backgroundServices()
	if err != nil {
		return err
	}
	err = runServices(ctx, logger, services)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
