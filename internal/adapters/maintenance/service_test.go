package maintenance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
)

type fakeCleaner struct {
	mu       sync.Mutex
	stale    []int64
	purged   []int64
	staleErr error

	staleCalls  int
	purgeCalls  int
	gotMaxAge   time.Duration
	gotBatch    int
	gotRetained time.Duration
}

func (f *fakeCleaner) FailStalePending(_ context.Context, maxAge time.Duration, batch int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotMaxAge, f.gotBatch = maxAge, batch
	if f.staleErr != nil {
		return 0, f.staleErr
	}
	return next(&f.stale, &f.staleCalls), nil
}

func (f *fakeCleaner) PurgeFailed(_ context.Context, retention time.Duration, _ int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gotRetained = retention
	return next(&f.purged, &f.purgeCalls), nil
}

func (f *fakeCleaner) purgeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.purgeCalls
}

func next(batches *[]int64, calls *int) int64 {
	*calls++
	if len(*batches) == 0 {
		return 0
	}
	n := (*batches)[0]
	*batches = (*batches)[1:]
	return n
}

type fakeRequeuer struct {
	n   int
	err error
	at  time.Time
}

func (f *fakeRequeuer) RequeueStale(_ context.Context, now time.Time) (int, error) {
	f.at = now
	return f.n, f.err
}

func testConfig() config.MaintenanceConfig {
	return config.MaintenanceConfig{
		Schedule:        "@every 5m",
		PendingMaxAge:   time.Hour,
		FailedRetention: 720 * time.Hour,
		BatchSize:       2,
	}
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestNewService_RequiresStore(t *testing.T) {
	_, err := NewService(ServiceOptions{})
	require.Error(t, err)
}

func TestService_RunOnce_DrainsBatches(t *testing.T) {
	cleaner := &fakeCleaner{stale: []int64{2, 2, 1}, purged: []int64{1}}
	queue := &fakeRequeuer{n: 4}
	m := metrics.New("lifebuddy-engine")
	svc, err := NewService(ServiceOptions{
		Store:   cleaner,
		Queue:   queue,
		Config:  testConfig(),
		Logger:  discardLogger(),
		Metrics: m,
		Now:     func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(5), report.FailedStale)
	assert.Equal(t, int64(1), report.PurgedFailed)
	assert.Equal(t, 4, report.RequeuedJobs)
	assert.Equal(t, 4, cleaner.staleCalls)
	assert.Equal(t, 2, cleaner.purgeCalls)
	assert.Equal(t, time.Hour, cleaner.gotMaxAge)
	assert.Equal(t, 2, cleaner.gotBatch)
	assert.Equal(t, 720*time.Hour, cleaner.gotRetained)
	assert.Equal(t, fixedNow, queue.at)

	expected := `
# HELP lifebuddy_maintenance_rows_total Rows and jobs touched by maintenance passes.
# TYPE lifebuddy_maintenance_rows_total counter
lifebuddy_maintenance_rows_total{action="failed_stale",service="lifebuddy-engine"} 5
lifebuddy_maintenance_rows_total{action="purged_failed",service="lifebuddy-engine"} 1
lifebuddy_maintenance_rows_total{action="requeued_jobs",service="lifebuddy-engine"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "lifebuddy_maintenance_rows_total"))
}

func TestService_RunOnce_StepFailureDoesNotStopOthers(t *testing.T) {
	cleaner := &fakeCleaner{staleErr: errors.New("connection reset"), purged: []int64{3}}
	queue := &fakeRequeuer{n: 1}
	svc, err := NewService(ServiceOptions{Store: cleaner, Queue: queue, Config: testConfig(), Logger: discardLogger()})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fail stale pending answers")
	assert.Equal(t, int64(3), report.PurgedFailed)
	assert.Equal(t, 1, report.RequeuedJobs)
}

func TestService_RunOnce_WithoutQueue(t *testing.T) {
	svc, err := NewService(ServiceOptions{Store: &fakeCleaner{}, Config: testConfig(), Logger: discardLogger()})
	require.NoError(t, err)

	report, err := svc.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.RequeuedJobs)
}

func TestService_RunOnce_QueueError(t *testing.T) {
	svc, err := NewService(ServiceOptions{
		Store:  &fakeCleaner{},
		Queue:  &fakeRequeuer{err: errors.New("redis down")},
		Config: testConfig(),
		Logger: discardLogger(),
	})
	require.NoError(t, err)

	_, err = svc.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requeue stale jobs")
}

func TestService_RunOnce_StopsDrainingOnCancel(t *testing.T) {
	cleaner := &fakeCleaner{stale: []int64{2, 2, 2, 2}}
	svc, err := NewService(ServiceOptions{Store: cleaner, Config: testConfig(), Logger: discardLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = svc.RunOnce(ctx)
	require.Error(t, err)
	assert.True(t, isContextCancellation(err))
	assert.Equal(t, 1, cleaner.staleCalls)
}
