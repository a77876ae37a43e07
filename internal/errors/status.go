package errors

import (
	"errors"
	"net/http"
)

// genericMessage is sent for server-side failures whose detail must stay in the logs.
const genericMessage = "Internal server error"

// statusTable is the single mapping from error code to HTTP status used by both services.
var statusTable = map[ErrorCode]int{
	ErrCodeAuthentication:      http.StatusUnauthorized,
	ErrCodeUpstreamUnavailable: http.StatusServiceUnavailable,
	ErrCodeUpstreamRejected:    http.StatusBadGateway,
	ErrCodeScopeSetup:          http.StatusInternalServerError,
	ErrCodeEnqueueFailed:       http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusUnprocessableEntity,
	ErrCodeResourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeForeignKey:          http.StatusConflict,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeTimeout:             http.StatusGatewayTimeout,
	ErrCodeCanceled:            http.StatusServiceUnavailable,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// HTTPStatus returns the transport status for err.
// UpstreamRejected errors keep the engine's status when it is an error status.
func HTTPStatus(err error) int {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError
	}
	if appErr.Code == ErrCodeUpstreamRejected && appErr.Status >= 400 && appErr.Status <= 599 {
		return appErr.Status
	}
	if status, ok := statusTable[appErr.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the message that may cross the service boundary.
// Causes are never included; unclassified errors get a generic message.
func PublicMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Message == "" {
		return genericMessage
	}
	return appErr.Message
}

// PublicCode returns the code written in error bodies.
func PublicCode(err error) ErrorCode {
	if code := GetCode(err); code != "" {
		return code
	}
	return ErrCodeInternal
}
