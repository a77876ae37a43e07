// Package jobrunner runs queued jobs with a fixed pool of worker goroutines.
package jobrunner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	obserrors "github.com/lifebuddy/lifebuddy-api/internal/observability/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/notify"
)

// HandlerFunc runs one job and returns the result string stored on it.
// A returned error fails the job.
type HandlerFunc func(ctx context.Context, job *model.QueuedJob) (string, error)

// FailureNotifier receives jobs that failed.
type FailureNotifier interface {
	NotifyJobFailure(ctx context.Context, payload notify.JobFailurePayload)
}

const (
	defaultPollWait      = 5 * time.Second
	defaultFinishTimeout = 5 * time.Second
	maxReserveBackoff    = 30 * time.Second
	maxStoredErrorLen    = 1024
)

// RunnerOptions configures the job runner.
type RunnerOptions struct {
	Queue    core.JobConsumer              // Required
	Handlers map[model.JobKind]HandlerFunc // Required: one per model.JobKinds()
	Logger   *slog.Logger

	Concurrency   int           // worker goroutines; defaults to 1
	PollWait      time.Duration // how long one reserve blocks; defaults to 5s
	StatsInterval time.Duration // queue depth sampling; 0 disables

	Metrics         *metrics.Metrics
	FailureNotifier FailureNotifier
}

// Runner reserves jobs and executes them using registered handlers.
type Runner struct {
	queue         core.JobConsumer
	handlers      map[model.JobKind]HandlerFunc
	logger        *slog.Logger
	workers       int
	pollWait      time.Duration
	statsInterval time.Duration
	metrics       *metrics.Metrics
	notifier      FailureNotifier
}

// NewRunner validates the handler registry and constructs a Runner.
// Every known job kind must have a handler and no unknown kind may be registered.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Queue == nil {
		return nil, errors.New("job consumer is required")
	}

	handlers := make(map[model.JobKind]HandlerFunc, len(opts.Handlers))
	for kind, h := range opts.Handlers {
		if !kind.Valid() {
			return nil, fmt.Errorf("handler registered for unknown job kind %q", kind)
		}
		if h == nil {
			return nil, fmt.Errorf("nil handler for job kind %s", kind)
		}
		handlers[kind] = h
	}
	for _, kind := range model.JobKinds() {
		if _, ok := handlers[kind]; !ok {
			return nil, fmt.Errorf("no handler for job kind %s", kind)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = 1
	}
	pollWait := opts.PollWait
	if pollWait <= 0 {
		pollWait = defaultPollWait
	}

	return &Runner{
		queue:         opts.Queue,
		handlers:      handlers,
		logger:        logger.With("component", "job_runner"),
		workers:       workers,
		pollWait:      pollWait,
		statsInterval: opts.StatsInterval,
		metrics:       opts.Metrics,
		notifier:      opts.FailureNotifier,
	}, nil
}

// Run starts worker goroutines and processes jobs until ctx is cancelled.
// A non-retryable reserve error stops every worker and is returned.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting job runner", "workers", r.workers, "poll_wait", r.pollWait)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	for i := range r.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.workerLoop(ctx, i); err != nil {
				// first error wins, cancels all workers
				select {
				case errCh <- err:
					cancel()
				default:
				}
			}
		}()
	}

	if r.statsInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.sampleStats(ctx)
		}()
	}

	wg.Wait()
	r.logger.Info("job runner stopped")

	select {
	case err := <-errCh:
		return err
	default:
		return ctx.Err()
	}
}

func (r *Runner) workerLoop(ctx context.Context, worker int) error {
	backoff := time.Duration(0)
	for ctx.Err() == nil {
		job, err := r.queue.Reserve(ctx, r.pollWait)
		switch {
		case err == nil:
			backoff = 0
			r.processJob(ctx, job)
		case errors.Is(err, model.ErrNoJobsAvailable):
			backoff = 0
		case ctx.Err() != nil:
			return nil
		case apperrors.IsRetryable(err):
			backoff = nextBackoff(backoff)
			r.logger.WarnContext(ctx, "reserve failed; backing off",
				"worker", worker,
				"backoff", backoff,
				"error", err,
			)
			if !sleepCtx(ctx, backoff) {
				return nil
			}
		default:
			return fmt.Errorf("reserve job: %w", err)
		}
	}
	return nil
}

func nextBackoff(cur time.Duration) time.Duration {
	if cur <= 0 {
		return 500 * time.Millisecond
	}
	return min(cur*2, maxReserveBackoff)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (r *Runner) processJob(ctx context.Context, job *model.QueuedJob) {
	start := time.Now()
	kind := string(job.Kind)
	r.metrics.EmitJobLifecycle(metrics.JobMetric{Kind: kind, Transition: metrics.TransitionReserved, Result: metrics.ResultSuccess})

	timeout := job.Timeout
	if timeout <= 0 {
		if spec, ok := job.Kind.Spec(); ok {
			timeout = spec.Timeout
		}
	}
	jobCtx, cancel := context.WithTimeout(ctx, timeout)
	result, err := r.invoke(jobCtx, job)
	cancel()

	// Finishing must survive shutdown so a job is never left started.
	finishCtx, finishCancel := context.WithTimeout(context.WithoutCancel(ctx), defaultFinishTimeout)
	defer finishCancel()

	if err != nil {
		r.handleFailure(finishCtx, job, err, time.Since(start))
		return
	}

	if cerr := r.queue.Complete(finishCtx, job.ID, result); cerr != nil {
		r.logger.ErrorContext(ctx, "complete job error", "job_id", job.ID, "kind", kind, "error", cerr)
		r.metrics.EmitJobLifecycle(metrics.JobMetric{
			Kind:       kind,
			Transition: metrics.TransitionCompleted,
			Result:     metrics.ResultError,
			Duration:   time.Since(start),
			Err:        cerr,
		})
		return
	}
	r.logger.InfoContext(ctx, "job completed", "job_id", job.ID, "kind", kind, "duration", time.Since(start))
	r.metrics.EmitJobLifecycle(metrics.JobMetric{
		Kind:       kind,
		Transition: metrics.TransitionCompleted,
		Result:     metrics.ResultSuccess,
		Duration:   time.Since(start),
	})
}

// invoke runs the kind's handler, converting a panic into an error.
func (r *Runner) invoke(ctx context.Context, job *model.QueuedJob) (result string, err error) {
	h, ok := r.handlers[job.Kind]
	if !ok {
		return "", fmt.Errorf("no handler for job kind %s", job.Kind)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.ErrorContext(ctx, "job handler panic",
				"job_id", job.ID,
				"kind", string(job.Kind),
				"panic", p,
				"stack", string(debug.Stack()),
			)
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, job)
}

func (r *Runner) handleFailure(ctx context.Context, job *model.QueuedJob, err error, elapsed time.Duration) {
	class := obserrors.Classify(err)
	reason := err.Error()
	if len(reason) > maxStoredErrorLen {
		reason = reason[:maxStoredErrorLen]
	}

	if ferr := r.queue.Fail(ctx, job.ID, reason); ferr != nil {
		r.logger.ErrorContext(ctx, "fail job error", "job_id", job.ID, "error", ferr, "original_error", err)
	}
	r.logger.WarnContext(ctx, "job failed",
		"job_id", job.ID,
		"kind", string(job.Kind),
		"attempts", job.Attempts,
		"error_class", class,
		"error", err,
	)
	r.metrics.EmitJobLifecycle(metrics.JobMetric{
		Kind:       string(job.Kind),
		Transition: metrics.TransitionFailed,
		Result:     metrics.ResultError,
		Duration:   elapsed,
		Err:        err,
	})

	if r.notifier == nil {
		return
	}
	owner := ""
	if len(job.Args) > 0 {
		owner = job.Args[0]
	}
	r.notifier.NotifyJobFailure(ctx, notify.JobFailurePayload{
		JobID:      job.ID,
		JobKind:    string(job.Kind),
		Owner:      owner,
		Attempts:   job.Attempts,
		Error:      reason,
		ErrorClass: class,
		OccurredAt: time.Now().UTC(),
		Metadata:   map[string]string{"component": "worker"},
	})
}

func (r *Runner) sampleStats(ctx context.Context) {
	t := time.NewTicker(r.statsInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			st, err := r.queue.Stats(ctx)
			if err != nil {
				r.logger.DebugContext(ctx, "queue stats unavailable", "error", err)
				continue
			}
			r.metrics.SetQueueDepth(st.Queued, st.Processing)
		}
	}
}
