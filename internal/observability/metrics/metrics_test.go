package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	m := New("test")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := m.InstrumentHandler(mux)

	for _, id := range []string{"a", "b", "c"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil))
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.InDelta(t, 3, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/jobs/{id}", "202")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "unmatched", "404")), 0)
}

func TestEmitJobLifecycle(t *testing.T) {
	m := New("test")
	m.EmitJobLifecycle(JobMetric{Kind: "k", Transition: TransitionCompleted, Result: ResultSuccess, Duration: time.Second})
	m.EmitJobLifecycle(JobMetric{
		Kind:       "k",
		Transition: TransitionFailed,
		Result:     ResultError,
		Err:        apperrors.UpstreamUnavailable(errors.New("x"), "down"),
	})

	assert.InDelta(t, 1, testutil.ToFloat64(m.jobTransitions.WithLabelValues("k", TransitionCompleted, ResultSuccess, "")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.jobTransitions.WithLabelValues("k", TransitionFailed, ResultError, "upstream_unavailable")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.jobDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.EmitJobLifecycle(JobMetric{Kind: "k"})
	m.SetQueueDepth(1, 2)
	m.SetBreakerState("engine", 2)
	m.AddMaintenance("requeued", 3)

	h := m.InstrumentHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	assert.NotNil(t, h)
}

func TestHandler_Exposition(t *testing.T) {
	m := New("test")
	m.SetQueueDepth(4, 1)
	m.AddMaintenance("failed_stale", 2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `lifebuddy_queue_depth{list="queued",service="test"} 4`))
	assert.Contains(t, body, `lifebuddy_maintenance_rows_total{action="failed_stale",service="test"} 2`)
}

func TestRecordCacheEvent(t *testing.T) {
	m := New("test")
	m.RecordCacheEvent("synthesis_latest", "local", "hit")
	m.RecordCacheEvent("synthesis_latest", "local", "hit")
	m.RecordCacheEvent("synthesis_latest", "redis", "miss")

	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheEvents.WithLabelValues("synthesis_latest", "local", "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheEvents.WithLabelValues("synthesis_latest", "redis", "miss")), 0)

	var nilMetrics *Metrics
	nilMetrics.RecordCacheEvent("synthesis_latest", "local", "hit")
}
