package httpx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// readinessTimeout bounds all readiness checks together.
const readinessTimeout = 3 * time.Second

var livenessBody = []byte(`{"status":"ok"}`)

// healthHandler answers liveness probes without touching any dependency.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = w.Write(livenessBody)
}

// rootHandler reports which service answered.
func rootHandler(service string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"service": service, "status": "ok"})
	}
}

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// DBPingCheck wraps a database handle's PingContext.
func DBPingCheck(name string, db interface{ PingContext(context.Context) error }) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: db.PingContext}
}

// QueueCheck wraps a queue health probe.
func QueueCheck(name string, q interface{ Healthy(context.Context) bool }) ReadinessCheck {
	return ReadinessCheck{Name: name, Check: func(ctx context.Context) error {
		if !q.Healthy(ctx) {
			return fmt.Errorf("%s is not healthy", name)
		}
		return nil
	}}
}

type readinessBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// readyHandler runs every check in parallel and answers 503 if any fails.
func readyHandler(checks []ReadinessCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make([]error, len(checks))
		var g errgroup.Group
		for i, c := range checks {
			g.Go(func() error {
				results[i] = c.Check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		body := readinessBody{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for i, c := range checks {
			if results[i] != nil {
				logger.WarnContext(ctx, "readiness check failed", "check", c.Name, "error", results[i])
				body.Checks[c.Name] = "unavailable"
				body.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			body.Checks[c.Name] = "ok"
		}
		if status != http.StatusOK {
			w.Header().Set("Retry-After", fmt.Sprint(retryAfterSeconds))
		}
		WriteJSON(w, status, body)
	}
}
