package config

import (
	"strings"
	"time"
)

const defaultObservabilityName = "lifebuddy"

// ObservabilityConfig groups configuration for metrics exposition and job failure notifications.
type ObservabilityConfig struct {
	Metrics       MetricsConfig
	Notifications NotificationsConfig
}

// Sanitize applies guardrails to observability sub-configs.
func (c *ObservabilityConfig) Sanitize() {
	c.Metrics.Sanitize()
	c.Notifications.Sanitize()
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	Path    string `env:"METRICS_PATH"    envDefault:"/metrics"`
}

// Sanitize normalises the metrics path.
func (c *MetricsConfig) Sanitize() {
	c.Path = strings.TrimSpace(c.Path)
	if c.Path == "" {
		c.Path = "/metrics"
	}
	if !strings.HasPrefix(c.Path, "/") {
		c.Path = "/" + c.Path
	}
}

// NotificationsConfig controls outbound notifications for failed background jobs.
type NotificationsConfig struct {
	Enabled        bool                    `env:"NOTIFICATIONS_ENABLED"         envDefault:"false"`
	Timeout        time.Duration           `env:"NOTIFICATIONS_TIMEOUT"         envDefault:"5s"`
	RetryLimit     int                     `env:"NOTIFICATIONS_RETRY_LIMIT"     envDefault:"3"`
	SuppressWindow time.Duration           `env:"NOTIFICATIONS_SUPPRESS_WINDOW" envDefault:"5m"`
	Slack          SlackNotificationConfig `                                                      envPrefix:"NOTIFICATIONS_SLACK_"`
}

// Sanitize normalises notification configuration values.
func (c *NotificationsConfig) Sanitize() {
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	if c.RetryLimit < 0 {
		c.RetryLimit = 0
	}
	if c.SuppressWindow < 0 {
		c.SuppressWindow = 0
	}

	c.Slack.sanitize()

	if !c.Enabled {
		c.Slack.Enabled = false
		return
	}
	if c.Slack.Enabled && c.Slack.WebhookURL == "" {
		c.Slack.Enabled = false
	}
}

// SlackNotificationConfig controls Slack webhook fan-out.
type SlackNotificationConfig struct {
	Enabled    bool   `env:"ENABLED"     envDefault:"false"`
	WebhookURL string `env:"WEBHOOK_URL"`
	Channel    string `env:"CHANNEL"`
	Username   string `env:"USERNAME"    envDefault:"lifebuddy"`
}

func (c *SlackNotificationConfig) sanitize() {
	c.WebhookURL = strings.TrimSpace(c.WebhookURL)
	c.Channel = strings.TrimSpace(c.Channel)
	if c.Username = strings.TrimSpace(c.Username); c.Username == "" {
		c.Username = defaultObservabilityName
	}
}
