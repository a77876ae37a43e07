// Package maintenance runs the engine's cross-user housekeeping on the full-access role.
//
// It fails answers stuck in PENDING_PROCESSING, purges old FAILED answers,
// returns expired in-flight jobs to the queue and provisions accounts for the
// admin CLI. None of it is reachable from an HTTP route.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
)

// Cleaner runs batched cleanup statements.
type Cleaner interface {
	FailStalePending(ctx context.Context, maxAge time.Duration, batchSize int) (int64, error)
	PurgeFailed(ctx context.Context, retention time.Duration, batchSize int) (int64, error)
}

// StaleRequeuer returns expired in-flight jobs to the queue.
type StaleRequeuer interface {
	RequeueStale(ctx context.Context, now time.Time) (int, error)
}

// ServiceOptions groups dependencies for Service.
type ServiceOptions struct {
	Store   Cleaner                  // Required
	Queue   StaleRequeuer            // Optional: skip requeueing when nil
	Config  config.MaintenanceConfig // Required
	Logger  *slog.Logger             // Optional
	Metrics *metrics.Metrics         // Optional
	Now     func() time.Time         // Optional: defaults to time.Now
}

// Service performs one maintenance pass at a time.
type Service struct {
	store   Cleaner
	queue   StaleRequeuer
	cfg     config.MaintenanceConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewService constructs a Service.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("maintenance store is required")
	}
	cfg := opts.Config
	cfg.Sanitize()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   opts.Store,
		queue:   opts.Queue,
		cfg:     cfg,
		logger:  logger.With("component", "maintenance"),
		metrics: opts.Metrics,
		now:     now,
	}, nil
}

type batchFunc func(ctx context.Context) (int64, error)

type step struct {
	label  string
	action string
	run    func(ctx context.Context) (int64, error)
	count  *int64
}

// RunOnce performs every maintenance step. A failing step does not stop the
// ones after it; all step errors are joined into the returned error.
func (s *Service) RunOnce(ctx context.Context) (model.MaintenanceReport, error) {
	start := s.now()
	var (
		report   model.MaintenanceReport
		requeued int64
		errs     []error
	)

	steps := []step{
		{
			label:  "fail stale pending answers",
			action: "failed_stale",
			run: s.drain(func(ctx context.Context) (int64, error) {
				return s.store.FailStalePending(ctx, s.cfg.PendingMaxAge, s.cfg.BatchSize)
			}),
			count: &report.FailedStale,
		},
		{
			label:  "purge failed answers",
			action: "purged_failed",
			run: s.drain(func(ctx context.Context) (int64, error) {
				return s.store.PurgeFailed(ctx, s.cfg.FailedRetention, s.cfg.BatchSize)
			}),
			count: &report.PurgedFailed,
		},
	}
	if s.queue != nil {
		steps = append(steps, step{
			label:  "requeue stale jobs",
			action: "requeued_jobs",
			run: func(ctx context.Context) (int64, error) {
				n, err := s.queue.RequeueStale(ctx, s.now())
				return int64(n), err
			},
			count: &requeued,
		})
	}

	for _, st := range steps {
		n, err := st.run(ctx)
		*st.count = n
		s.metrics.AddMaintenance(st.action, n)
		if n > 0 {
			s.logger.InfoContext(ctx, st.label, "count", n)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", st.label, err))
		}
	}

	report.RequeuedJobs = int(requeued)
	report.DurationMilli = s.now().Sub(start).Milliseconds()

	if len(errs) > 0 {
		return report, errors.Join(errs...)
	}
	return report, nil
}

// drain repeats fn until a batch touches no rows or ctx ends.
func (s *Service) drain(fn batchFunc) batchFunc {
	return func(ctx context.Context) (int64, error) {
		var total int64
		for {
			n, err := fn(ctx)
			if err != nil {
				return total, err
			}
			total += n
			if n == 0 {
				return total, nil
			}
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
		}
	}
}

func isContextCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
