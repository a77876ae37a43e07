package failurenotifier

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebuddy/lifebuddy-api/internal/observability/notify"
)

type captureSink struct {
	mu       sync.Mutex
	received []notify.JobFailurePayload
}

func (c *captureSink) SendJobFailure(_ context.Context, p notify.JobFailurePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.received = append(c.received, p)
	return nil
}

func TestServiceNotifyJobFailure(t *testing.T) {
	a, b := &captureSink{}, &captureSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "a", Sink: a}, {Sink: b}, {Name: "nil"}}})
	require.True(t, svc.Enabled())

	svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{
		JobID:   "123",
		JobKind: "synthesis.perform_synthesis",
	})

	require.Len(t, a.received, 1)
	require.Len(t, b.received, 1)
	assert.Equal(t, notify.SeverityCritical, a.received[0].Severity)
	assert.False(t, a.received[0].OccurredAt.IsZero())
}

func TestServiceValidationFailuresAreWarnings(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Name: "capture", Sink: sink}}})

	svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "1", ErrorClass: "validation"})

	require.Len(t, sink.received, 1)
	assert.Equal(t, notify.SeverityWarning, sink.received[0].Severity)
}

func TestServiceDeliversAfterCallerCancel(t *testing.T) {
	var ctxErr error
	svc := NewService(Options{Sinks: []SinkRegistration{{
		Name: "ctx",
		Sink: notify.SinkFunc(func(ctx context.Context, _ notify.JobFailurePayload) error {
			ctxErr = ctx.Err()
			return nil
		}),
	}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.NotifyJobFailure(ctx, notify.JobFailurePayload{JobID: "1"})
	assert.NoError(t, ctxErr)
}

func TestServiceDisabled(t *testing.T) {
	svc := NewService(Options{})
	assert.False(t, svc.Enabled())
	svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "1"})
}

func TestServiceSinkErrorDoesNotPanic(t *testing.T) {
	svc := NewService(Options{Sinks: []SinkRegistration{{
		Name: "fail",
		Sink: notify.SinkFunc(func(context.Context, notify.JobFailurePayload) error { return errors.New("boom") }),
	}}})
	svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobID: "123"})
}

func TestServiceSuppressesRepeatedFailures(t *testing.T) {
	sink := &captureSink{}
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(Options{
		Sinks:          []SinkRegistration{{Name: "capture", Sink: sink}},
		SuppressWindow: time.Minute,
		Now:            func() time.Time { return now },
	})

	failure := notify.JobFailurePayload{JobKind: "synthesis.perform_synthesis", ErrorClass: "upstream_unavailable"}
	svc.NotifyJobFailure(context.Background(), failure)
	now = now.Add(10 * time.Second)
	svc.NotifyJobFailure(context.Background(), failure)
	svc.NotifyJobFailure(context.Background(), failure)

	other := failure
	other.ErrorClass = "validation"
	svc.NotifyJobFailure(context.Background(), other)

	require.Len(t, sink.received, 2)
	assert.Equal(t, "validation", sink.received[1].ErrorClass)
	assert.Equal(t, notify.SeverityWarning, sink.received[1].Severity)

	now = now.Add(time.Minute)
	failure.Metadata = map[string]string{"component": "worker"}
	svc.NotifyJobFailure(context.Background(), failure)

	require.Len(t, sink.received, 3)
	assert.Equal(t, "2", sink.received[2].Metadata["suppressed"])
	assert.Equal(t, "worker", sink.received[2].Metadata["component"])
	assert.Equal(t, now, sink.received[2].OccurredAt)
	assert.NotContains(t, failure.Metadata, "suppressed")
}

func TestServiceWithoutWindowSendsEveryFailure(t *testing.T) {
	sink := &captureSink{}
	svc := NewService(Options{Sinks: []SinkRegistration{{Sink: sink}}})

	for range 3 {
		svc.NotifyJobFailure(context.Background(), notify.JobFailurePayload{JobKind: "k", ErrorClass: "internal"})
	}
	assert.Len(t, sink.received, 3)
}
