package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// maxBodyBytes caps JSON request bodies on both services.
const maxBodyBytes = 64 << 10

// retryAfterSeconds is advertised on 429 and 503 responses.
const retryAfterSeconds = 5

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
	Field  string `json:"field,omitempty"`
}

// DecodeJSON decodes the request body into dst.
// Unknown fields, trailing data and bodies over 64 KiB are rejected as validation errors.
func DecodeJSON(r *http.Request, w http.ResponseWriter, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Request body is too large.")
		}
		if errors.Is(err, io.EOF) {
			return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Request body is required.")
		}
		return apperrors.Wrap(err, apperrors.ErrCodeValidation, "Request body is not valid JSON.")
	}
	if dec.More() {
		return apperrors.Validation("Request body must contain a single JSON object.")
	}
	return nil
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// WriteRawJSON writes an already encoded JSON body, such as a relayed engine response.
func WriteRawJSON(w http.ResponseWriter, code int, body json.RawMessage) {
	if len(body) == 0 {
		body = json.RawMessage("null")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// WriteAppError maps err through the status table and writes an ErrorBody.
// 5xx responses are logged with the full cause; the client only sees the public message.
// Errors outside the taxonomy are reported as "Internal server error".
func WriteAppError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	code := apperrors.PublicCode(err)
	message := apperrors.PublicMessage(err)

	if status >= http.StatusInternalServerError {
		if logger == nil {
			logger = slog.Default()
		}
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"code", code,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err,
		)
	}

	if status == http.StatusServiceUnavailable || status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	WriteJSON(w, status, ErrorBody{
		Detail: message,
		Code:   string(code),
		Field:  apperrors.GetField(err),
	})
}
