// Package metrics owns the Prometheus collectors shared by the gateway, the
// engine and its workers. Each process builds one Metrics and passes it to
// the components that record into it.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every collector.
const Namespace = "lifebuddy"

// Metrics holds a private registry and the collectors registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpInFlight prometheus.Gauge
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	jobTransitions *prometheus.CounterVec
	jobDuration    *prometheus.HistogramVec

	breakerState *prometheus.GaugeVec
	queueDepth   *prometheus.GaugeVec
	maintenance  *prometheus.CounterVec
	cacheEvents  *prometheus.CounterVec
}

// New builds a Metrics whose collectors carry the service label.
func New(service string) *Metrics {
	constLabels := prometheus.Labels{"service": service}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "http",
			Name:        "inflight_requests",
			Help:        "Current number of in-flight HTTP requests.",
			ConstLabels: constLabels,
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "http",
			Name:        "requests_total",
			Help:        "Total number of HTTP requests handled.",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   "http",
			Name:        "request_duration_seconds",
			Help:        "Duration of HTTP requests.",
			Buckets:     prometheus.ExponentialBuckets(0.005, 2, 10),
			ConstLabels: constLabels,
		}, []string{"method", "route"}),
		jobTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "jobs",
			Name:        "transitions_total",
			Help:        "Job lifecycle transitions by kind and result.",
			ConstLabels: constLabels,
		}, []string{"kind", "transition", "result", "error_class"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   Namespace,
			Subsystem:   "jobs",
			Name:        "duration_seconds",
			Help:        "Handler run time per job kind.",
			Buckets:     prometheus.ExponentialBuckets(0.01, 2, 14),
			ConstLabels: constLabels,
		}, []string{"kind", "result"}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "engine_client",
			Name:        "breaker_state",
			Help:        "Circuit breaker state toward the engine (0 closed, 1 half-open, 2 open).",
			ConstLabels: constLabels,
		}, []string{"name"}),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   Namespace,
			Subsystem:   "queue",
			Name:        "depth",
			Help:        "Jobs waiting or in flight.",
			ConstLabels: constLabels,
		}, []string{"list"}),
		maintenance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "maintenance",
			Name:        "rows_total",
			Help:        "Rows and jobs touched by maintenance passes.",
			ConstLabels: constLabels,
		}, []string{"action"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   Namespace,
			Subsystem:   "cache",
			Name:        "events_total",
			Help:        "Cache lookups and writes by cache, tier and outcome.",
			ConstLabels: constLabels,
		}, []string{"cache", "tier", "op"}),
	}

	m.registry.MustRegister(
		m.httpInFlight,
		m.httpRequests,
		m.httpDuration,
		m.jobTransitions,
		m.jobDuration,
		m.breakerState,
		m.queueDepth,
		m.maintenance,
		m.cacheEvents,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry (tests gather from it).
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler returns an HTTP handler exposing the registered metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps next with request counting and timing. The route
// label is the ServeMux pattern that matched, so ids in paths do not fan out.
func (m *Metrics) InstrumentHandler(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		m.httpInFlight.Inc()
		defer m.httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := routeLabel(r)
		method := strings.ToUpper(r.Method)
		m.httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// SetBreakerState records the engine client breaker state.
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// SetQueueDepth records queue list lengths.
func (m *Metrics) SetQueueDepth(queued, processing int64) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues("queued").Set(float64(queued))
	m.queueDepth.WithLabelValues("processing").Set(float64(processing))
}

// AddMaintenance counts rows or jobs touched by a maintenance action.
func (m *Metrics) AddMaintenance(action string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.maintenance.WithLabelValues(action).Add(float64(n))
}

// RecordCacheEvent counts one cache hit, miss, write or error.
func (m *Metrics) RecordCacheEvent(cache, tier, op string) {
	if m == nil {
		return
	}
	m.cacheEvents.WithLabelValues(cache, tier, op).Inc()
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	// Patterns may carry a method prefix ("GET /healthz"); the method is its own label.
	if _, path, ok := strings.Cut(r.Pattern, " "); ok {
		return path
	}
	return r.Pattern
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.status = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }
