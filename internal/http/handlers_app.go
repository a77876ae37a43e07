// Package httpx provides the HTTP surfaces of the LifeBuddy gateway and engine.
package httpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// Gateway is the public-facing behaviour behind the App routes.
type Gateway interface {
	Authenticator
	Login(ctx context.Context, creds domainauth.Credentials, requestID string) (domainauth.AccessToken, error)
	Logout(ctx context.Context, claims domainauth.TokenClaims) error
	SubmitDailyAnswer(ctx context.Context, identity domainauth.Identity, req model.SubmitDailyAnswerRequest, requestID string) (json.RawMessage, error)
	DailyCheckStatus(ctx context.Context, identity domainauth.Identity, limit int, requestID string) (json.RawMessage, error)
	LatestSynthesis(ctx context.Context, identity domainauth.Identity, requestID string) (json.RawMessage, error)
	StartSynthesis(ctx context.Context, identity domainauth.Identity) (model.SynthesisJobAccepted, error)
	JobStatus(ctx context.Context, identity domainauth.Identity, jobID string) (model.JobStatus, error)
}

// AppHandlers serves the public API.
type AppHandlers struct {
	Svc    Gateway
	Logger *slog.Logger
}

// Login exchanges a username and password for a bearer token.
func (h *AppHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if err := DecodeJSON(r, w, &creds); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	tok, err := h.Svc.Login(r.Context(), creds, RequestIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, tok)
}

// Logout revokes the caller's token.
func (h *AppHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		WriteAppError(w, r, h.Logger, apperrors.Authentication(credentialsMessage))
		return
	}
	if err := h.Svc.Logout(r.Context(), claims); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubmitDailyAnswer relays an answer to the engine and returns its 202 body.
func (h *AppHandlers) SubmitDailyAnswer(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req model.SubmitDailyAnswerRequest
	if err := DecodeJSON(r, w, &req); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	body, err := h.Svc.SubmitDailyAnswer(r.Context(), id, req, RequestIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteRawJSON(w, http.StatusAccepted, body)
}

// DailyCheckStatus returns the caller's recent answers.
func (h *AppHandlers) DailyCheckStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	limit := ParseLimit(r, DefaultStatusLimit, MaxStatusLimit)
	body, err := h.Svc.DailyCheckStatus(r.Context(), id, limit, RequestIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteRawJSON(w, http.StatusOK, body)
}

// LatestSynthesis returns the caller's newest synthesis report.
func (h *AppHandlers) LatestSynthesis(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	body, err := h.Svc.LatestSynthesis(r.Context(), id, RequestIDFromContext(r.Context()))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteRawJSON(w, http.StatusOK, body)
}

// StartSynthesis enqueues a synthesis job for the caller.
func (h *AppHandlers) StartSynthesis(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	accepted, err := h.Svc.StartSynthesis(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, accepted)
}

// JobStatus reports a job the caller owns.
func (h *AppHandlers) JobStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	jobID := r.PathValue("job_id")
	if jobID == "" {
		WriteAppError(w, r, h.Logger, apperrors.ValidationField("job_id", "job_id is required"))
		return
	}
	st, err := h.Svc.JobStatus(r.Context(), id, jobID)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *AppHandlers) identity(w http.ResponseWriter, r *http.Request) (domainauth.Identity, bool) {
	id, ok := IdentityFromContext(r.Context())
	if !ok {
		WriteAppError(w, r, h.Logger, apperrors.Authentication(credentialsMessage))
		return domainauth.Identity{}, false
	}
	return id, true
}
