package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/lifebuddy/lifebuddy-api/internal/core"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/ports"
	"github.com/lifebuddy/lifebuddy-api/internal/validation"
)

// Engine routes the gateway forwards to.
const (
	RouteSubmitDailyAnswer = "submit_daily_answer_proxy"
	RouteDailyCheckStatus  = "daily_check_status"
	RouteLatestSynthesis   = "latest_synthesis"
)

// SynthesisAcceptedDetail is returned with every accepted synthesis job.
const SynthesisAcceptedDetail = "Synthesis job accepted for asynchronous processing."

// jobNotFoundMessage hides whether a job exists but belongs to someone else.
const jobNotFoundMessage = "Job not found"

// GatewayServiceOptions groups dependencies for GatewayService.
type GatewayServiceOptions struct {
	Auth   GatewayAuth           // Required: token and credential ports
	Engine ports.EngineForwarder // Required: engine client
	Queue  core.JobQueue         // Required: job queue producer and status reader
	Logger *slog.Logger          // Optional: structured logger
}

// GatewayAuth groups the gateway's authentication ports.
type GatewayAuth struct {
	Credentials ports.CredentialValidator // Required
	Issuer      ports.TokenIssuer         // Required
	Verifier    ports.TokenVerifier       // Required
	Revocations ports.RevocationStore     // Optional: enables logout
}

// GatewayService authenticates public callers and relays their requests to the engine.
// The user id sent to the engine always comes from a verified token.
type GatewayService struct {
	auth     GatewayAuth
	engine   ports.EngineForwarder
	queue    core.JobQueue
	validate *validation.Validator
	logger   *slog.Logger
}

// NewGatewayService constructs a GatewayService.
func NewGatewayService(opts GatewayServiceOptions) (*GatewayService, error) {
	switch {
	case opts.Auth.Credentials == nil:
		return nil, errors.New("CredentialValidator is required")
	case opts.Auth.Issuer == nil:
		return nil, errors.New("TokenIssuer is required")
	case opts.Auth.Verifier == nil:
		return nil, errors.New("TokenVerifier is required")
	case opts.Engine == nil:
		return nil, errors.New("EngineForwarder is required")
	case opts.Queue == nil:
		return nil, errors.New("JobQueue is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &GatewayService{
		auth:     opts.Auth,
		engine:   opts.Engine,
		queue:    opts.Queue,
		validate: validation.New(),
		logger:   logger.With("component", "gateway_service"),
	}, nil
}

// Login checks creds with the engine and issues an access token.
func (s *GatewayService) Login(ctx context.Context, creds domainauth.Credentials, requestID string) (domainauth.AccessToken, error) {
	creds = creds.Normalize()
	if err := s.validate.Struct(creds); err != nil {
		return domainauth.AccessToken{}, err
	}

	id, err := s.auth.Credentials.ValidateCredentials(ctx, creds, requestID)
	if err != nil {
		if apperrors.IsAuthentication(err) ||
			(apperrors.IsUpstreamRejected(err) && apperrors.HTTPStatus(err) == http.StatusUnauthorized) {
			return domainauth.AccessToken{}, apperrors.Authentication(InvalidCredentialsMessage)
		}
		return domainauth.AccessToken{}, err
	}

	tok, _, err := s.auth.Issuer.Issue(id)
	if err != nil {
		return domainauth.AccessToken{}, err
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", id.UserID)
	return tok, nil
}

// Authenticate verifies a bearer token and rejects revoked ones.
func (s *GatewayService) Authenticate(ctx context.Context, token string) (domainauth.TokenClaims, error) {
	claims, err := s.auth.Verifier.Verify(token)
	if err != nil {
		return domainauth.TokenClaims{}, err
	}
	if s.auth.Revocations == nil || claims.TokenID == "" {
		return claims, nil
	}
	revoked, err := s.auth.Revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		return domainauth.TokenClaims{}, apperrors.UpstreamUnavailable(err, "Session store is unavailable.")
	}
	if revoked {
		return domainauth.TokenClaims{}, apperrors.Authentication("Could not validate credentials")
	}
	return claims, nil
}

// Logout revokes the token described by claims until it expires.
func (s *GatewayService) Logout(ctx context.Context, claims domainauth.TokenClaims) error {
	if s.auth.Revocations == nil {
		return nil
	}
	if err := s.auth.Revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return apperrors.UpstreamUnavailable(err, "Session store is unavailable.")
	}
	return nil
}

// SubmitDailyAnswer forwards a daily-check answer to the engine's proxied submit route.
func (s *GatewayService) SubmitDailyAnswer(
	ctx context.Context,
	identity domainauth.Identity,
	req model.SubmitDailyAnswerRequest,
	requestID string,
) (json.RawMessage, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	return s.engine.Forward(ctx, ports.EngineRequest{
		Method:    http.MethodPost,
		UserID:    identity.UserID,
		Route:     RouteSubmitDailyAnswer,
		Payload:   req,
		RequestID: requestID,
	})
}

// DailyCheckStatus returns the engine's view of the caller's recent answers.
func (s *GatewayService) DailyCheckStatus(ctx context.Context, identity domainauth.Identity, limit int, requestID string) (json.RawMessage, error) {
	var q url.Values
	if limit > 0 {
		q = url.Values{"limit": []string{strconv.Itoa(limit)}}
	}
	return s.engine.Forward(ctx, ports.EngineRequest{
		Method:    http.MethodGet,
		UserID:    identity.UserID,
		Route:     RouteDailyCheckStatus,
		Query:     q,
		RequestID: requestID,
	})
}

// LatestSynthesis returns the caller's newest synthesis report from the engine.
func (s *GatewayService) LatestSynthesis(ctx context.Context, identity domainauth.Identity, requestID string) (json.RawMessage, error) {
	return s.engine.Forward(ctx, ports.EngineRequest{
		Method:    http.MethodGet,
		UserID:    identity.UserID,
		Route:     RouteLatestSynthesis,
		RequestID: requestID,
	})
}

// StartSynthesis enqueues a synthesis job for the caller.
func (s *GatewayService) StartSynthesis(ctx context.Context, identity domainauth.Identity) (model.SynthesisJobAccepted, error) {
	spec, _ := model.JobKindSynthesis.Spec()
	h, err := s.queue.Enqueue(ctx, model.EnqueueRequest{
		Kind:    model.JobKindSynthesis,
		Args:    []string{identity.UserID},
		Timeout: spec.Timeout,
		Owner:   identity.UserID,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "synthesis enqueue failed", "user_id", identity.UserID, "error", err)
		return model.SynthesisJobAccepted{}, err
	}
	return model.SynthesisJobAccepted{
		JobID:  h.JobID.String(),
		Status: model.JobStateQueued.PublicStatus(),
		Detail: SynthesisAcceptedDetail,
	}, nil
}

// JobStatus reports a job the caller owns. Other users' jobs are reported as not found.
func (s *GatewayService) JobStatus(ctx context.Context, identity domainauth.Identity, jobID string) (model.JobStatus, error) {
	st, err := s.queue.Status(ctx, jobID)
	if err != nil {
		return model.JobStatus{}, err
	}
	if st.Owner != identity.UserID {
		return model.JobStatus{}, apperrors.NotFound(jobNotFoundMessage)
	}
	return st, nil
}
