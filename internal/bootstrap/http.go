package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const (
	httpReadTimeout     = 30 * time.Second
	httpWriteTimeout    = 30 * time.Second
	httpIdleTimeout     = 120 * time.Second
	httpShutdownTimeout = 10 * time.Second
)

// NewHTTPServer builds a server with the shared timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       httpReadTimeout,
		ReadHeaderTimeout: httpReadTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}
}

// ServeHTTP runs server until ctx ends, then shuts it down gracefully.
func ServeHTTP(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down HTTP server")
	// The parent context is already done; shutdown gets its own budget.
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), httpShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("HTTP server stopped")
	return <-errCh
}
