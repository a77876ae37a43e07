package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "resource not found", NotFound("resource not found").Error())

	wrapped := Wrap(errors.New("underlying error"), ErrCodeInternal, "failed to process")
	assert.Equal(t, "failed to process: underlying error", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("forward: %w", UpstreamUnavailable(cause, "engine down"))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsUpstreamUnavailable(err))
	assert.Equal(t, ErrCodeUpstreamUnavailable, GetCode(err))
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "nothing"))
}

func TestValidationField(t *testing.T) {
	err := ValidationField("answer_text", "answer_text is required")
	assert.True(t, IsValidation(err))
	assert.Equal(t, "answer_text", GetField(err))
	assert.Empty(t, GetField(errors.New("plain")))
}

func TestHTTPStatus_Table(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "authentication", err: Authentication("Invalid credentials"), want: http.StatusUnauthorized},
		{name: "upstream unavailable", err: UpstreamUnavailable(errors.New("timeout"), "down"), want: http.StatusServiceUnavailable},
		{name: "upstream rejected keeps engine status", err: UpstreamRejected(http.StatusBadRequest, "bad"), want: http.StatusBadRequest},
		{name: "upstream rejected without status", err: UpstreamRejected(0, "bad"), want: http.StatusBadGateway},
		{name: "upstream rejected with success status", err: UpstreamRejected(http.StatusOK, "odd"), want: http.StatusBadGateway},
		{name: "scope setup", err: ScopeSetup(errors.New("set_config")), want: http.StatusInternalServerError},
		{name: "enqueue failed", err: EnqueueFailed(errors.New("OOM"), "refused"), want: http.StatusInternalServerError},
		{name: "validation", err: Validation("bad payload"), want: http.StatusUnprocessableEntity},
		{name: "resource unavailable", err: ResourceUnavailable(errors.New("pool"), "busy"), want: http.StatusServiceUnavailable},
		{name: "not found", err: NotFound("missing"), want: http.StatusNotFound},
		{name: "rate limited", err: RateLimited("slow down"), want: http.StatusTooManyRequests},
		{name: "wrapped app error", err: fmt.Errorf("outer: %w", Conflict("dup")), want: http.StatusConflict},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "unknown code", err: &AppError{Code: "mystery"}, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestPublicMessage_HidesCause(t *testing.T) {
	err := EnqueueFailed(errors.New(`relation "secret_table" does not exist`), "Engine failed to process request and enqueue job.")
	msg := PublicMessage(err)

	assert.Equal(t, "Engine failed to process request and enqueue job.", msg)
	assert.NotContains(t, msg, "secret_table")
	assert.Equal(t, "Internal server error", PublicMessage(errors.New("pq: syntax error")))
	assert.Equal(t, ErrCodeInternal, PublicCode(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(UpstreamUnavailable(nil, "down")))
	assert.True(t, IsRetryable(ResourceUnavailable(nil, "pool")))
	assert.False(t, IsRetryable(UpstreamRejected(http.StatusBadRequest, "bad")))
	assert.False(t, IsRetryable(EnqueueFailed(nil, "refused")))
	require.False(t, IsRetryable(nil))
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("scope: %w", ScopeSetup(errors.New("set_config failed")))
	assert.True(t, HasCode(err, ErrCodeScopeSetup))
	assert.True(t, IsScopeSetup(err))
	assert.False(t, HasCode(err, ErrCodeInternal))
	assert.False(t, HasCode(nil, ""))
	assert.False(t, IsCanceled(errors.New("context canceled")))
}
