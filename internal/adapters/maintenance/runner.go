package maintenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Service  *Service
	Schedule string
	Logger   *slog.Logger

	// SkipInitialRun disables the pass that runs before the first scheduled tick.
	SkipInitialRun bool
}

// Runner triggers Service.RunOnce on a cron schedule.
type Runner struct {
	svc        *Service
	schedule   string
	logger     *slog.Logger
	initialRun bool
}

// NewRunner validates the schedule and returns a Runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Service == nil {
		return nil, errors.New("maintenance service is required")
	}
	if _, err := cron.ParseStandard(opts.Schedule); err != nil {
		return nil, fmt.Errorf("parse maintenance schedule %q: %w", opts.Schedule, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		svc:        opts.Service,
		schedule:   opts.Schedule,
		logger:     logger.With("component", "maintenance_runner"),
		initialRun: !opts.SkipInitialRun,
	}, nil
}

// Run schedules maintenance and blocks until ctx is cancelled.
// Overlapping ticks are skipped while a pass is still running.
// Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	cl := cronLogger{logger: r.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := c.AddFunc(r.schedule, func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule maintenance: %w", err)
	}

	r.logger.InfoContext(ctx, "starting maintenance runner", "schedule", r.schedule)
	if r.initialRun {
		r.tick(ctx)
	}
	c.Start()

	<-ctx.Done()
	r.logger.InfoContext(ctx, "maintenance runner stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	return nil
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	report, err := r.svc.RunOnce(ctx)
	if err != nil {
		if isContextCancellation(err) {
			r.logger.DebugContext(ctx, "maintenance pass interrupted", "error", err)
			return
		}
		r.logger.ErrorContext(ctx, "maintenance pass failed", "error", err)
	}
	r.logger.DebugContext(ctx, "maintenance pass finished",
		"failed_stale", report.FailedStale,
		"purged_failed", report.PurgedFailed,
		"requeued_jobs", report.RequeuedJobs,
		"duration_ms", report.DurationMilli,
	)
}

// cronLogger routes cron's logging to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append([]any{"error", err}, keysAndValues...)...)
}
