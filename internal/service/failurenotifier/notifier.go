// Package failurenotifier fans job failure events out to the configured sinks.
package failurenotifier

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/notify"
)

const defaultDeliveryTimeout = 10 * time.Second

// SinkRegistration names a sink for delivery logs.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures a Service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
	// DeliveryTimeout bounds one fan-out; it runs even after the caller's context ends.
	DeliveryTimeout time.Duration
	// SuppressWindow collapses failures with the same job kind and error class.
	// Zero sends every failure.
	SuppressWindow time.Duration
	Now            func() time.Time
}

// floodState tracks one job kind / error class pair inside the current window.
type floodState struct {
	openedAt   time.Time
	suppressed int
}

// Service dispatches failure events to all registered sinks.
type Service struct {
	logger  *slog.Logger
	sinks   []SinkRegistration
	timeout time.Duration
	window  time.Duration
	now     func() time.Time

	mu    sync.Mutex
	flood map[string]*floodState
}

// NewService drops nil sinks and applies defaults.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	sinks := make([]SinkRegistration, 0, len(opts.Sinks))
	for i, reg := range opts.Sinks {
		if reg.Sink == nil {
			continue
		}
		if reg.Name == "" {
			reg.Name = "sink-" + strconv.Itoa(i)
		}
		sinks = append(sinks, reg)
	}

	timeout := opts.DeliveryTimeout
	if timeout <= 0 {
		timeout = defaultDeliveryTimeout
	}

	return &Service{
		logger:  logger.With("component", "failure_notifier"),
		sinks:   sinks,
		timeout: timeout,
		window:  max(opts.SuppressWindow, 0),
		now:     now,
		flood:   make(map[string]*floodState),
	}
}

// Enabled reports whether any sink is registered.
func (s *Service) Enabled() bool {
	return s != nil && len(s.sinks) > 0
}

// NotifyJobFailure delivers payload to every sink and waits for them. Bad job
// input is reported as a warning. Within SuppressWindow only the first failure
// of a kind and error class is sent; the next one sent carries the count of
// those dropped in Metadata["suppressed"].
func (s *Service) NotifyJobFailure(ctx context.Context, payload notify.JobFailurePayload) {
	if !s.Enabled() {
		return
	}

	at := s.now().UTC()
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = at
	}
	if payload.Severity == "" {
		payload.Severity = severityFor(payload.ErrorClass)
	}

	dropped, send := s.admit(floodKey(payload), at)
	if !send {
		s.logger.DebugContext(ctx, "job failure notification suppressed",
			"job_id", payload.JobID,
			"job_kind", payload.JobKind,
			"error_class", payload.ErrorClass,
		)
		return
	}
	if dropped > 0 {
		md := make(map[string]string, len(payload.Metadata)+1)
		for k, v := range payload.Metadata {
			md[k] = v
		}
		md["suppressed"] = strconv.Itoa(dropped)
		payload.Metadata = md
	}

	s.deliver(context.WithoutCancel(ctx), payload)
}

func severityFor(errorClass string) notify.Severity {
	if errorClass == string(apperrors.ErrCodeValidation) {
		return notify.SeverityWarning
	}
	return notify.SeverityCritical
}

func floodKey(p notify.JobFailurePayload) string {
	return p.JobKind + "\x00" + p.ErrorClass
}

// admit decides whether a failure at time at is sent, returning how many were
// suppressed since the last one sent for key.
func (s *Service) admit(key string, at time.Time) (int, bool) {
	if s.window == 0 {
		return 0, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.flood[key]
	if ok && at.Sub(st.openedAt) < s.window {
		st.suppressed++
		return 0, false
	}

	dropped := 0
	if ok {
		dropped = st.suppressed
	}
	s.flood[key] = &floodState{openedAt: at}
	s.prune(at)
	return dropped, true
}

// prune forgets windows that closed without further failures. Caller holds mu.
func (s *Service) prune(at time.Time) {
	for key, st := range s.flood {
		if st.suppressed == 0 && at.Sub(st.openedAt) >= s.window {
			delete(s.flood, key)
		}
	}
}

func (s *Service) deliver(ctx context.Context, payload notify.JobFailurePayload) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var wg sync.WaitGroup
	for _, reg := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started := time.Now()
			err := reg.Sink.SendJobFailure(ctx, payload)
			if err == nil {
				return
			}
			s.logger.ErrorContext(ctx, "job failure notification not delivered",
				"sink", reg.Name,
				"job_id", payload.JobID,
				"job_kind", payload.JobKind,
				"elapsed", time.Since(started),
				"error", err,
			)
		}()
	}
	wg.Wait()
}
