package httpx

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
)

const (
	defaultAPIPrefix   = "/api/v1"
	defaultMetricsPath = "/metrics"
)

// AppRouterOptions configures the public gateway router.
type AppRouterOptions struct {
	Gateway     Gateway
	ServiceName string
	APIPrefix   string
	// RateLimiter is optional; nil disables rate limiting.
	RateLimiter *RateLimiter
	// Metrics is optional; nil disables instrumentation and the metrics route.
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *slog.Logger
}

// NewAppRouter builds the public App surface.
func NewAppRouter(opts AppRouterOptions) http.Handler {
	logger := loggerOrDefault(opts.Logger)
	mux := http.NewServeMux()

	h := &AppHandlers{Svc: opts.Gateway, Logger: logger}
	prefix := normalizePrefix(opts.APIPrefix, defaultAPIPrefix)

	var limit []Middleware
	if opts.RateLimiter != nil {
		limit = append(limit, opts.RateLimiter.Middleware())
	}
	public := func(fn http.HandlerFunc) http.Handler { return Chain(fn, limit...) }
	authed := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn, append([]Middleware{RequireBearer(opts.Gateway, logger)}, limit...)...)
	}

	registerAppRoutes(mux, prefix, h, public, authed)
	registerHealthRoutes(mux, opts.ServiceName)
	registerMetricsRoute(mux, opts.Metrics, opts.MetricsPath)

	return withCommonMiddleware(mux, opts.Metrics, logger)
}

func registerAppRoutes(mux *http.ServeMux, prefix string, h *AppHandlers, public, authed func(http.HandlerFunc) http.Handler) {
	mux.Handle("POST "+prefix+"/login", public(h.Login))
	mux.Handle("POST "+prefix+"/logout", authed(h.Logout))
	mux.Handle("POST "+prefix+"/daily-check/submit", authed(h.SubmitDailyAnswer))
	mux.Handle("GET "+prefix+"/daily-check/status", authed(h.DailyCheckStatus))
	mux.Handle("POST "+prefix+"/synthesis/job", authed(h.StartSynthesis))
	mux.Handle("GET "+prefix+"/synthesis/job-status/{job_id}", authed(h.JobStatus))
	mux.Handle("GET "+prefix+"/synthesis/latest", authed(h.LatestSynthesis))
}

// EngineRouterOptions configures the internal engine router.
type EngineRouterOptions struct {
	Handlers       *EngineHandlers
	ServiceName    string
	InternalHeader string
	InternalSecret string
	Readiness      []ReadinessCheck
	Metrics        *metrics.Metrics
	MetricsPath    string
	Logger         *slog.Logger
}

// NewEngineRouter builds the internal engine surface. Every /internal/ route
// requires the shared secret header.
func NewEngineRouter(opts EngineRouterOptions) http.Handler {
	logger := loggerOrDefault(opts.Logger)
	mux := http.NewServeMux()

	h := opts.Handlers
	if h.Logger == nil {
		h.Logger = logger
	}
	internal := http.NewServeMux()
	registerEngineRoutes(internal, h)
	mux.Handle("/internal/", Chain(internal, RequireInternalSecret(opts.InternalHeader, opts.InternalSecret, logger)))

	registerHealthRoutes(mux, opts.ServiceName)
	mux.Handle("GET /readyz", readyHandler(opts.Readiness, logger))
	registerMetricsRoute(mux, opts.Metrics, opts.MetricsPath)

	return withCommonMiddleware(mux, opts.Metrics, logger)
}

func registerEngineRoutes(mux *http.ServeMux, h *EngineHandlers) {
	mux.HandleFunc("POST /internal/v1/auth/validate", h.ValidateCredentials)
	mux.HandleFunc("/internal/v1/user/{user_id}/{route}", h.UserRoute)
	mux.HandleFunc("POST /internal/{user_id}/{route}", h.ProxyRoute)
}

func registerHealthRoutes(mux *http.ServeMux, serviceName string) {
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("GET /{$}", rootHandler(serviceName))
}

func registerMetricsRoute(mux *http.ServeMux, m *metrics.Metrics, path string) {
	if m == nil {
		return
	}
	if path == "" {
		path = defaultMetricsPath
	}
	mux.Handle("GET "+path, m.Handler())
}

func withCommonMiddleware(h http.Handler, m *metrics.Metrics, logger *slog.Logger) http.Handler {
	return Chain(h,
		RequestID(),
		Recover(logger),
		Logging(logger),
		m.InstrumentHandler,
	)
}

func normalizePrefix(prefix, def string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = def
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimRight(prefix, "/")
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
