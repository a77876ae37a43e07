// Package engineclient forwards authenticated gateway requests to the Cognitive Engine's internal API.
package engineclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/ports"
)

const (
	// UnavailableMessage is reported when the engine cannot be reached or the breaker is open.
	UnavailableMessage = "Engine Service is unavailable or timed out."

	// RouteValidateCredentials is the identity-free credential check.
	RouteValidateCredentials = "auth/validate"

	// RequestIDHeader carries the gateway's request id to the engine.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
	defaultTimeout   = 5 * time.Second
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Secret is sent in SecretHeader on every request.
	Secret       string
	SecretHeader string
	Timeout      time.Duration
	// HTTPClient overrides the transport; its Timeout is replaced by Timeout.
	HTTPClient *http.Client

	BreakerMaxFailures uint32
	BreakerOpenTimeout time.Duration
	// OnStateChange observes breaker transitions.
	OnStateChange func(name string, from, to gobreaker.State)

	Logger *slog.Logger
}

// Request is one call to the engine. An empty UserID selects an identity-free route.
type Request = ports.EngineRequest

var (
	_ ports.EngineForwarder     = (*Client)(nil)
	_ ports.CredentialValidator = (*Client)(nil)
)

// Client calls the engine through a circuit breaker. It is safe for concurrent use.
type Client struct {
	base    *url.URL
	secret  string
	header  string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// New constructs a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("engineclient: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("engineclient: invalid base URL %q", opts.BaseURL)
	}
	if opts.SecretHeader == "" {
		opts.SecretHeader = "X-Internal-Token"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.BreakerMaxFailures == 0 {
		opts.BreakerMaxFailures = 5
	}
	if opts.BreakerOpenTimeout <= 0 {
		opts.BreakerOpenTimeout = 30 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		hc = &copied
	}
	hc.Timeout = opts.Timeout

	maxFailures := opts.BreakerMaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "cognitive-engine",
		MaxRequests: 1,
		Timeout:     opts.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful:  countsAsSuccess,
		OnStateChange: opts.OnStateChange,
	})

	return &Client{
		base:    base,
		secret:  opts.Secret,
		header:  opts.SecretHeader,
		http:    hc,
		breaker: cb,
		logger:  logger.With("component", "engineclient"),
	}, nil
}

// MustNew is like New but panics on error.
func MustNew(opts Options) *Client {
	c, err := New(opts)
	if err != nil {
		panic(err)
	}
	return c
}

// BreakerState reports the circuit breaker's state.
func (c *Client) BreakerState() gobreaker.State { return c.breaker.State() }

// rejection is an engine response with an error status.
type rejection struct {
	status int
	detail string
}

func (r *rejection) Error() string { return fmt.Sprintf("engine returned %d: %s", r.status, r.detail) }

// countsAsSuccess keeps client-side refusals and caller cancellation out of the failure count.
func countsAsSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var rej *rejection
	return errors.As(err, &rej) && rej.status < http.StatusInternalServerError
}

// Forward sends req to the engine and returns the raw JSON body of a 2xx response.
func (c *Client) Forward(ctx context.Context, req Request) (json.RawMessage, error) {
	target, err := c.buildURL(req)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	var body []byte
	if req.Payload != nil {
		if body, err = json.Marshal(req.Payload); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode engine request")
		}
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.do(ctx, req, target, body)
	})
	if err != nil {
		return nil, c.classify(ctx, req.Route, err)
	}
	raw, _ := out.(json.RawMessage)
	return raw, nil
}

// ValidateCredentials asks the engine to check a username and password.
func (c *Client) ValidateCredentials(ctx context.Context, creds domainauth.Credentials, requestID string) (domainauth.Identity, error) {
	raw, err := c.Forward(ctx, Request{
		Method:    http.MethodPost,
		Route:     RouteValidateCredentials,
		Payload:   creds,
		RequestID: requestID,
	})
	if err != nil {
		return domainauth.Identity{}, err
	}
	var id domainauth.Identity
	if err := json.Unmarshal(raw, &id); err != nil {
		return domainauth.Identity{}, apperrors.UpstreamRejected(http.StatusBadGateway, "Engine returned an invalid identity.")
	}
	if err := id.Validate(); err != nil {
		return domainauth.Identity{}, apperrors.UpstreamRejected(http.StatusBadGateway, "Engine returned an invalid identity.")
	}
	return id, nil
}

// Ping reports whether the engine's liveness endpoint answers 200.
func (c *Client) Ping(ctx context.Context) error {
	u := *c.base
	u.Path += "/healthz"
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(hreq)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("engine healthz returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) buildURL(req Request) (string, error) {
	if strings.TrimSpace(req.Route) == "" {
		return "", errors.New("route is required")
	}
	segments := []string{"internal", "v1"}
	if req.UserID != "" {
		if err := domainauth.ValidateUserID(req.UserID); err != nil {
			return "", err
		}
		segments = append(segments, "user", req.UserID)
	}
	for _, s := range strings.Split(strings.Trim(req.Route, "/"), "/") {
		if s == "" || s == "." || s == ".." {
			return "", fmt.Errorf("invalid route %q", req.Route)
		}
		segments = append(segments, s)
	}

	// Path holds decoded segments; String escapes them.
	u := *c.base
	u.RawPath = ""
	u.Path = c.base.Path + "/" + strings.Join(segments, "/")
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}
	return u.String(), nil
}

func (c *Client) do(ctx context.Context, req Request, target string, body []byte) (json.RawMessage, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	hreq, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, err
	}
	hreq.Header.Set("Accept", "application/json")
	if body != nil {
		hreq.Header.Set("Content-Type", "application/json")
	}
	hreq.Header.Set(c.header, c.secret)
	if req.RequestID != "" {
		hreq.Header.Set(RequestIDHeader, req.RequestID)
	}

	resp, err := c.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &rejection{status: resp.StatusCode, detail: extractDetail(payload)}
	}
	if len(bytes.TrimSpace(payload)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(payload), nil
}

func (c *Client) classify(ctx context.Context, route string, err error) error {
	var rej *rejection
	switch {
	case errors.As(err, &rej) && (rej.status == http.StatusServiceUnavailable || rej.status == http.StatusGatewayTimeout):
		c.logger.WarnContext(ctx, "engine unavailable", "route", route, "status", rej.status)
		return apperrors.UpstreamUnavailable(err, UnavailableMessage)
	case errors.As(err, &rej):
		detail := rej.detail
		if detail == "" {
			detail = "Engine reported error for route: " + route
		}
		c.logger.WarnContext(ctx, "engine rejected request", "route", route, "status", rej.status)
		return apperrors.UpstreamRejected(rej.status, detail)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.WarnContext(ctx, "engine circuit open", "route", route)
		return apperrors.UpstreamUnavailable(err, UnavailableMessage)
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return apperrors.Wrap(err, apperrors.ErrCodeCanceled, "Request was canceled.")
	default:
		c.logger.ErrorContext(ctx, "engine unreachable", "route", route, "error", err)
		return apperrors.UpstreamUnavailable(err, UnavailableMessage)
	}
}

// extractDetail pulls a human-readable message from an engine error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	var s string
	if len(parsed.Detail) > 0 && json.Unmarshal(parsed.Detail, &s) == nil && s != "" {
		return s
	}
	return parsed.Message
}
