// Package errors defines the error vocabulary shared by the app gateway and
// the engine, and maps it onto HTTP and the database.
package errors

import "errors"

// ErrorCode classifies an AppError. Codes are written verbatim into error
// bodies and metric labels.
type ErrorCode string

const (
	ErrCodeNotFound    ErrorCode = "not_found"
	ErrCodeConflict    ErrorCode = "conflict"
	ErrCodeValidation  ErrorCode = "validation"
	ErrCodeForeignKey  ErrorCode = "foreign_key"
	ErrCodeInternal    ErrorCode = "internal"
	ErrCodeTimeout     ErrorCode = "timeout"
	ErrCodeCanceled    ErrorCode = "canceled"
	ErrCodeRateLimited ErrorCode = "rate_limited"

	// ErrCodeAuthentication covers bad, expired or revoked credentials.
	ErrCodeAuthentication ErrorCode = "authentication_failure"
	// ErrCodeUpstreamUnavailable means the engine or the queue could not be reached.
	ErrCodeUpstreamUnavailable ErrorCode = "upstream_unavailable"
	// ErrCodeUpstreamRejected means the engine answered with an error of its own.
	ErrCodeUpstreamRejected ErrorCode = "upstream_rejected"
	// ErrCodeScopeSetup means the per-user row security context could not be set.
	ErrCodeScopeSetup ErrorCode = "scope_setup_failed"
	// ErrCodeEnqueueFailed means the queue refused or lost a job.
	ErrCodeEnqueueFailed ErrorCode = "enqueue_failed"
	// ErrCodeResourceUnavailable means a local resource, usually the pool, is exhausted.
	ErrCodeResourceUnavailable ErrorCode = "resource_unavailable"
)

// AppError is a classified failure. Message is safe to show callers; Cause
// stays server-side.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field names the offending input for validation and constraint errors.
	Field string
	// Status is the engine's HTTP status, set on UpstreamRejected only.
	Status int
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

// NotFound reports a missing or invisible row.
func NotFound(message string) *AppError {
	return &AppError{Code: ErrCodeNotFound, Message: message}
}

// Conflict reports a duplicate.
func Conflict(message string) *AppError {
	return &AppError{Code: ErrCodeConflict, Message: message}
}

// Validation reports bad input that is not tied to one field.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message}
}

// ValidationField reports bad input in field.
func ValidationField(field, message string) *AppError {
	return &AppError{Code: ErrCodeValidation, Message: message, Field: field}
}

// Authentication reports a credential failure. The message crosses the trust boundary.
func Authentication(message string) *AppError {
	return &AppError{Code: ErrCodeAuthentication, Message: message}
}

// RateLimited reports an exhausted request budget.
func RateLimited(message string) *AppError {
	return &AppError{Code: ErrCodeRateLimited, Message: message}
}

// UpstreamUnavailable wraps a transport failure toward the engine or the queue.
func UpstreamUnavailable(cause error, message string) *AppError {
	return &AppError{Code: ErrCodeUpstreamUnavailable, Message: message, Cause: cause}
}

// UpstreamRejected relays the engine's status and detail.
func UpstreamRejected(status int, detail string) *AppError {
	return &AppError{Code: ErrCodeUpstreamRejected, Message: detail, Status: status}
}

// ScopeSetup wraps a failure to bind the user id to the database session.
func ScopeSetup(cause error) *AppError {
	return &AppError{Code: ErrCodeScopeSetup, Message: "could not establish user database scope", Cause: cause}
}

// EnqueueFailed wraps a job the queue refused or failed to store.
func EnqueueFailed(cause error, message string) *AppError {
	return &AppError{Code: ErrCodeEnqueueFailed, Message: message, Cause: cause}
}

// ResourceUnavailable wraps a retryable local exhaustion such as a pool wait timeout.
func ResourceUnavailable(cause error, message string) *AppError {
	return &AppError{Code: ErrCodeResourceUnavailable, Message: message, Cause: cause}
}

// Wrap classifies err under code. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the code of the first AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// GetField returns the offending field of the first AppError in err's chain, or "".
func GetField(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Field
	}
	return ""
}

// HasCode reports whether err's first AppError carries code.
func HasCode(err error, code ErrorCode) bool {
	return err != nil && GetCode(err) == code
}

func IsNotFound(err error) bool            { return HasCode(err, ErrCodeNotFound) }
func IsConflict(err error) bool            { return HasCode(err, ErrCodeConflict) }
func IsValidation(err error) bool          { return HasCode(err, ErrCodeValidation) }
func IsCanceled(err error) bool            { return HasCode(err, ErrCodeCanceled) }
func IsAuthentication(err error) bool      { return HasCode(err, ErrCodeAuthentication) }
func IsUpstreamUnavailable(err error) bool { return HasCode(err, ErrCodeUpstreamUnavailable) }
func IsUpstreamRejected(err error) bool    { return HasCode(err, ErrCodeUpstreamRejected) }
func IsScopeSetup(err error) bool          { return HasCode(err, ErrCodeScopeSetup) }
func IsEnqueueFailed(err error) bool       { return HasCode(err, ErrCodeEnqueueFailed) }
func IsResourceUnavailable(err error) bool { return HasCode(err, ErrCodeResourceUnavailable) }

// IsRetryable reports whether the same request may succeed if sent again unchanged.
func IsRetryable(err error) bool {
	switch GetCode(err) {
	case ErrCodeUpstreamUnavailable, ErrCodeResourceUnavailable, ErrCodeTimeout, ErrCodeRateLimited:
		return true
	}
	return false
}
