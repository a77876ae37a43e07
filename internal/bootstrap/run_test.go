package bootstrap

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebuddy/lifebuddy-api/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunServicesStopsAllOnFailure(t *testing.T) {
	var stopped atomic.Int32
	boom := errors.New("boom")

	err := runServices(context.Background(), discardLogger(), []backgroundService{
		{name: "failing", start: func(context.Context) error { return boom }},
		{name: "waiting", start: func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Add(1)
			return ctx.Err()
		}},
	})

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing failed")
	assert.Equal(t, int32(1), stopped.Load())
}

func TestRunServicesReturnsNilOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		<-started
		cancel()
	}()

	err := runServices(ctx, discardLogger(), []backgroundService{
		{name: "waiting", start: func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}},
	})
	require.NoError(t, err)
}

func TestRunServicesRequiresOne(t *testing.T) {
	require.Error(t, runServices(context.Background(), discardLogger(), nil))
}

func TestServeHTTPShutsDownOnCancel(t *testing.T) {
	srv := NewHTTPServer("127.0.0.1:0", http.NotFoundHandler())
	assert.Equal(t, httpWriteTimeout, srv.WriteTimeout)
	assert.Equal(t, httpIdleTimeout, srv.IdleTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeHTTP(ctx, srv, discardLogger()) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServeHTTPReportsListenError(t *testing.T) {
	srv := NewHTTPServer("256.0.0.1:bad", http.NotFoundHandler())
	err := ServeHTTP(context.Background(), srv, discardLogger())
	require.Error(t, err)
}

func TestBuildMetricsDisabled(t *testing.T) {
	assert.Nil(t, BuildMetrics(config.MetricsConfig{Enabled: false}, "engine"))
	assert.NotNil(t, BuildMetrics(config.MetricsConfig{Enabled: true}, "engine"))
}

func TestBuildFailureNotifier(t *testing.T) {
	disabled := BuildFailureNotifier(discardLogger(), config.NotificationsConfig{Enabled: false})
	assert.False(t, disabled.Enabled())

	enabled := BuildFailureNotifier(discardLogger(), config.NotificationsConfig{
		Enabled: true,
		Timeout: time.Second,
		Slack: config.SlackNotificationConfig{
			Enabled:    true,
			WebhookURL: "https://hooks.slack.com/services/T000/B000/XXXX",
			Username:   "lifebuddy",
		},
	})
	assert.True(t, enabled.Enabled())
}
