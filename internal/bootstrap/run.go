package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

// backgroundService describes a long-running component of a process.
// start must return once ctx is done.
type backgroundService struct {
	name  string
	start func(context.Context) error
}

// runServices runs every service until SIGINT or SIGTERM arrives or one of
// them fails; the rest are then canceled and awaited.
func runServices(ctx context.Context, logger *slog.Logger, services []backgroundService) error {
	if len(services) == 0 {
		return errors.New("no services enabled")
	}
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	for _, svc := range services {
		g.Go(func() error {
			logger.InfoContext(gctx, "background service started", "service", svc.name)
			err := svc.start(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.ErrorContext(gctx, "service error", "service", svc.name, "error", err)
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, svc.name+" stopped")
			return nil
		})
	}

	go func() {
		<-gctx.Done()
		if sigCtx.Err() != nil {
			logger.Info("shutting down services...")
		}
	}()
	return g.Wait()
}
