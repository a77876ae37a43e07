package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunner_RejectsBadSchedule(t *testing.T) {
	svc, err := NewService(ServiceOptions{Store: &fakeCleaner{}, Config: testConfig()})
	require.NoError(t, err)

	_, err = NewRunner(RunnerOptions{Service: svc, Schedule: "every five minutes"})
	require.Error(t, err)

	_, err = NewRunner(RunnerOptions{Schedule: "@every 5m"})
	require.Error(t, err)
}

func TestRunner_InitialRunThenShutdown(t *testing.T) {
	cleaner := &fakeCleaner{stale: []int64{1}}
	svc, err := NewService(ServiceOptions{Store: cleaner, Config: testConfig(), Logger: discardLogger()})
	require.NoError(t, err)
	r, err := NewRunner(RunnerOptions{Service: svc, Schedule: "@every 1h", Logger: discardLogger()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// The initial pass runs synchronously before the scheduler starts.
	require.Eventually(t, func() bool { return cleaner.purgeCount() > 0 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	assert.Equal(t, 2, cleaner.staleCalls)
}

func TestRunner_SkipInitialRun(t *testing.T) {
	cleaner := &fakeCleaner{}
	svc, err := NewService(ServiceOptions{Store: cleaner, Config: testConfig(), Logger: discardLogger()})
	require.NoError(t, err)
	r, err := NewRunner(RunnerOptions{Service: svc, Schedule: "*/30 * * * *", Logger: discardLogger(), SkipInitialRun: true})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Zero(t, cleaner.staleCalls)
}
