// Package notify carries job failure events from workers to delivery sinks.
package notify

import (
	"context"
	"time"
	"unicode/utf8"
)

// Severity ranks a failure for the receiving channel.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// JobFailurePayload describes one failed job. It holds identifiers and error
// text only; answer text and report content are never copied into it.
type JobFailurePayload struct {
	JobID      string
	JobKind    string
	Owner      string
	Attempts   int
	Error      string
	ErrorClass string
	Severity   Severity
	OccurredAt time.Time
	Metadata   map[string]string
}

// ErrorExcerpt returns Error cut to at most limit bytes on a rune boundary,
// marking the cut with an ellipsis.
func (p JobFailurePayload) ErrorExcerpt(limit int) string {
	if limit <= 0 || len(p.Error) <= limit {
		return p.Error
	}
	const ellipsis = "…"
	cut := max(limit-len(ellipsis), 0)
	for cut > 0 && !utf8.RuneStart(p.Error[cut]) {
		cut--
	}
	return p.Error[:cut] + ellipsis
}

// Sink delivers failure events to one destination.
type Sink interface {
	SendJobFailure(ctx context.Context, payload JobFailurePayload) error
}

// SinkFunc lets a plain function act as a Sink.
type SinkFunc func(ctx context.Context, payload JobFailurePayload) error

// SendJobFailure calls f; a nil f drops the event.
func (f SinkFunc) SendJobFailure(ctx context.Context, payload JobFailurePayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
