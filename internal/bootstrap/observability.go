package bootstrap

import (
	"log/slog"

	"github.com/lifebuddy/lifebuddy-api/config"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/metrics"
	"github.com/lifebuddy/lifebuddy-api/internal/observability/notify/slack"
	"github.com/lifebuddy/lifebuddy-api/internal/service/failurenotifier"
)

// BuildMetrics returns a registry for service, or nil when metrics are disabled.
func BuildMetrics(cfg config.MetricsConfig, service string) *metrics.Metrics {
	if !cfg.Enabled {
		return nil
	}
	return metrics.New(service)
}

// BuildFailureNotifier wires the configured sinks for failed background jobs.
func BuildFailureNotifier(logger *slog.Logger, cfg config.NotificationsConfig) *failurenotifier.Service {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = slog.Default()
	}

	if !cfg.Enabled {
		return failurenotifier.NewService(failurenotifier.Options{Logger: baseLogger})
	}

	sinks := make([]failurenotifier.SinkRegistration, 0, 1)
	if cfg.Slack.Enabled {
		client, err := slack.NewClient(slack.Config{
			WebhookURL: cfg.Slack.WebhookURL,
			Channel:    cfg.Slack.Channel,
			Username:   cfg.Slack.Username,
			Timeout:    cfg.Timeout,
			RetryLimit: cfg.RetryLimit,
		})
		if err != nil {
			baseLogger.Error("failed to initialise slack notifier", "error", err)
		} else {
			sinks = append(sinks, failurenotifier.SinkRegistration{Name: "slack", Sink: client})
		}
	}

	return failurenotifier.NewService(failurenotifier.Options{
		Logger:          baseLogger,
		Sinks:           sinks,
		DeliveryTimeout: cfg.Timeout,
		SuppressWindow:  cfg.SuppressWindow,
	})
}
