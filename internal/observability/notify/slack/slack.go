// Package slack posts job failure notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lifebuddy/lifebuddy-api/internal/observability/notify"
)

const (
	defaultTimeout  = 5 * time.Second
	defaultUsername = "lifebuddy"
	baseBackoff     = 200 * time.Millisecond
	maxRetryAfter   = 10 * time.Second
	maxErrorBody    = 4 << 10
	// Section text is capped at 3000 characters; leave room for the fence.
	maxErrorText    = 2900
)

// Config configures a webhook Client.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
	// RetryLimit is the number of extra attempts after a retryable failure.
	RetryLimit int
	Client     *http.Client
}

// Client delivers job failure notifications to a Slack webhook.
type Client struct {
	webhookURL string
	channel    string
	username   string
	retryLimit int
	http       *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL == "" {
		return nil, errors.New("slack webhook url is required")
	}
	hc := cfg.Client
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	username := strings.TrimSpace(cfg.Username)
	if username == "" {
		username = defaultUsername
	}
	return &Client{
		webhookURL: webhookURL,
		channel:    strings.TrimSpace(cfg.Channel),
		username:   username,
		retryLimit: max(cfg.RetryLimit, 0),
		http:       hc,
	}, nil
}

// webhookError is a non-2xx webhook response.
type webhookError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *webhookError) Error() string {
	return fmt.Sprintf("slack webhook %d %s: %s", e.status, http.StatusText(e.status), e.body)
}

// retryable reports whether another attempt could succeed: throttling and server errors.
func (e *webhookError) retryable() bool {
	return e.status == http.StatusTooManyRequests || e.status >= http.StatusInternalServerError
}

// SendJobFailure posts a Block Kit message. Transport errors, 429 and 5xx are
// retried with linear backoff (or the server's Retry-After); other 4xx are final.
func (c *Client) SendJobFailure(ctx context.Context, payload notify.JobFailurePayload) error {
	body, err := json.Marshal(c.buildMessage(payload))
	if err != nil {
		return fmt.Errorf("encode slack payload: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retryLimit; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, c.backoff(attempt, lastErr)); err != nil {
				return err
			}
		}
		lastErr = c.post(ctx, body)
		if lastErr == nil {
			return nil
		}
		var whErr *webhookError
		if errors.As(lastErr, &whErr) && !whErr.retryable() {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	var whErr *webhookError
	if errors.As(lastErr, &whErr) && whErr.retryAfter > 0 {
		return min(whErr.retryAfter, maxRetryAfter)
	}
	return time.Duration(attempt) * baseBackoff
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("slack request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	whErr := &webhookError{status: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
		whErr.retryAfter = time.Duration(secs) * time.Second
	}
	return whErr
}

type message struct {
	Text     string  `json:"text"`
	Username string  `json:"username,omitempty"`
	Channel  string  `json:"channel,omitempty"`
	Blocks   []block `json:"blocks"`
}

type block struct {
	Type     string       `json:"type"`
	Text     *textObject  `json:"text,omitempty"`
	Fields   []textObject `json:"fields,omitempty"`
	Elements []textObject `json:"elements,omitempty"` // context blocks only
}

type textObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func mrkdwn(s string) textObject { return textObject{Type: "mrkdwn", Text: s} }

// buildMessage renders the payload. Text is the notification fallback; blocks carry the detail.
func (c *Client) buildMessage(p notify.JobFailurePayload) message {
	severity := p.Severity
	if severity == "" {
		severity = notify.SeverityCritical
	}
	when := p.OccurredAt
	if when.IsZero() {
		when = time.Now()
	}

	headline := fmt.Sprintf("[%s] Job %s failed", strings.ToUpper(string(severity)), orDash(p.JobKind))
	fields := []textObject{
		mrkdwn("*Job*\n`" + orDash(p.JobID) + "`"),
		mrkdwn("*User*\n" + orDash(escape(p.Owner))),
	}
	if p.Attempts > 0 {
		fields = append(fields, mrkdwn("*Attempts*\n"+strconv.Itoa(p.Attempts)))
	}
	if p.ErrorClass != "" {
		fields = append(fields, mrkdwn("*Error class*\n"+p.ErrorClass))
	}

	blocks := []block{
		{Type: "section", Text: ptr(mrkdwn("*" + escape(headline) + "*"))},
		{Type: "section", Fields: fields},
	}
	if p.Error != "" {
		blocks = append(blocks, block{Type: "section", Text: ptr(mrkdwn("```" + escape(p.ErrorExcerpt(maxErrorText)) + "```"))})
	}
	footer := []textObject{mrkdwn(when.UTC().Format(time.RFC3339))}
	for _, kv := range sortedMetadata(p.Metadata) {
		footer = append(footer, mrkdwn(escape(kv)))
	}
	blocks = append(blocks, block{Type: "context", Elements: footer})

	return message{Text: headline, Username: c.username, Channel: c.channel, Blocks: blocks}
}

func sortedMetadata(md map[string]string) []string {
	out := make([]string, 0, len(md))
	for k, v := range md {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}

func escape(s string) string {
	return strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;").Replace(s)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func ptr[T any](v T) *T { return &v }
