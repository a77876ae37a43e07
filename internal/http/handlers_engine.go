package httpx

import (
	"context"
	"log/slog"
	"net/http"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/service"
)

// Submitter stores a proxied answer and enqueues its job.
type Submitter interface {
	HandleProxiedSubmit(ctx context.Context, identity domainauth.Identity, req model.SubmitDailyAnswerRequest) (model.JobInitiationResult, error)
}

// DailyCheckReader reads a user's answers and reports.
type DailyCheckReader interface {
	Status(ctx context.Context, identity domainauth.Identity, limit int) (model.DailyCheckStatus, error)
	LatestSynthesis(ctx context.Context, identity domainauth.Identity) (*model.SynthesisReport, error)
}

// CredentialChecker validates login credentials against the user store.
type CredentialChecker interface {
	Validate(ctx context.Context, creds domainauth.Credentials) (domainauth.Identity, error)
}

// EngineHandlers serves the internal routes called by the gateway.
type EngineHandlers struct {
	Submissions Submitter
	DailyCheck  DailyCheckReader
	Credentials CredentialChecker
	Logger      *slog.Logger
}

// userRouteHandler runs one internal route for an already validated identity.
type userRouteHandler func(h *EngineHandlers, w http.ResponseWriter, r *http.Request, id domainauth.Identity)

type userRoute struct {
	method  string
	handler userRouteHandler
}

// userRoutes is the closed set of routes the gateway may forward to.
var userRoutes = map[string]userRoute{
	service.RouteSubmitDailyAnswer: {method: http.MethodPost, handler: (*EngineHandlers).submitDailyAnswer},
	service.RouteDailyCheckStatus:  {method: http.MethodGet, handler: (*EngineHandlers).dailyCheckStatus},
	service.RouteLatestSynthesis:   {method: http.MethodGet, handler: (*EngineHandlers).latestSynthesis},
}

// ValidateCredentials checks a username and password and returns the identity.
func (h *EngineHandlers) ValidateCredentials(w http.ResponseWriter, r *http.Request) {
	var creds domainauth.Credentials
	if err := DecodeJSON(r, w, &creds); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	id, err := h.Credentials.Validate(r.Context(), creds)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, id)
}

// UserRoute dispatches /internal/v1/user/{user_id}/{route}.
func (h *EngineHandlers) UserRoute(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, true)
}

// ProxyRoute dispatches the generic POST /internal/{user_id}/{route} target.
// The route table's own method is not enforced here; reads go through UserRoute.
func (h *EngineHandlers) ProxyRoute(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, false)
}

func (h *EngineHandlers) dispatch(w http.ResponseWriter, r *http.Request, strictMethod bool) {
	userID := r.PathValue("user_id")
	if err := domainauth.ValidateUserID(userID); err != nil {
		WriteAppError(w, r, h.Logger, apperrors.Authentication(credentialsMessage))
		return
	}
	name := r.PathValue("route")
	route, ok := userRoutes[name]
	if !ok {
		WriteAppError(w, r, h.Logger, apperrors.NotFound("Unknown route"))
		return
	}
	if strictMethod && r.Method != route.method {
		w.Header().Set("Allow", route.method)
		WriteJSON(w, http.StatusMethodNotAllowed, ErrorBody{Detail: "Method Not Allowed", Code: "method_not_allowed"})
		return
	}
	route.handler(h, w, r, domainauth.Identity{UserID: userID})
}

func (h *EngineHandlers) submitDailyAnswer(w http.ResponseWriter, r *http.Request, id domainauth.Identity) {
	var req model.SubmitDailyAnswerRequest
	if err := DecodeJSON(r, w, &req); err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	res, err := h.Submissions.HandleProxiedSubmit(r.Context(), id, req)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusAccepted, res)
}

func (h *EngineHandlers) dailyCheckStatus(w http.ResponseWriter, r *http.Request, id domainauth.Identity) {
	st, err := h.DailyCheck.Status(r.Context(), id, ParseLimit(r, DefaultStatusLimit, MaxStatusLimit))
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, st)
}

func (h *EngineHandlers) latestSynthesis(w http.ResponseWriter, r *http.Request, id domainauth.Identity) {
	rep, err := h.DailyCheck.LatestSynthesis(r.Context(), id)
	if err != nil {
		WriteAppError(w, r, h.Logger, err)
		return
	}
	if rep == nil {
		WriteAppError(w, r, h.Logger, apperrors.NotFound("No synthesis report yet"))
		return
	}
	WriteJSON(w, http.StatusOK, rep)
}
