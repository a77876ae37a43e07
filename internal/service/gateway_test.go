package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/mocks"
	mockauth "github.com/lifebuddy/lifebuddy-api/internal/mocks/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/ports"
)

type gatewayFixture struct {
	creds   *mocks.MockCredentialValidator
	engine  *mocks.MockEngineForwarder
	queue   *mocks.MockJobQueue
	revoked *mockauth.MemoryRevocationStore
	tokens  *mockauth.StaticTokens
	svc     *GatewayService
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &gatewayFixture{
		creds:   mocks.NewMockCredentialValidator(ctrl),
		engine:  mocks.NewMockEngineForwarder(ctrl),
		queue:   mocks.NewMockJobQueue(ctrl),
		revoked: mockauth.NewMemoryRevocationStore(),
		tokens:  &mockauth.StaticTokens{},
	}
	svc, err := NewGatewayService(GatewayServiceOptions{
		Auth: GatewayAuth{
			Credentials: f.creds,
			Issuer:      f.tokens,
			Verifier:    f.tokens,
			Revocations: f.revoked,
		},
		Engine: f.engine,
		Queue:  f.queue,
		Logger: discardLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewGatewayService_RequiresDeps(t *testing.T) {
	_, err := NewGatewayService(GatewayServiceOptions{})
	require.Error(t, err)
}

func TestGateway_Login(t *testing.T) {
	f := newGatewayFixture(t)
	f.creds.EXPECT().
		ValidateCredentials(gomock.Any(), domainauth.Credentials{Username: "alice", Password: "pw"}, "req-1").
		Return(u123, nil)

	tok, err := f.svc.Login(context.Background(), domainauth.Credentials{Username: " alice ", Password: "pw"}, "req-1")
	require.NoError(t, err)
	assert.Equal(t, mockauth.TokenFor("u-123"), tok.AccessToken)
	assert.Equal(t, domainauth.BearerTokenType, tok.TokenType)
}

func TestGateway_Login_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		engine   error
		wantAuth bool
	}{
		{"engine says 401", apperrors.UpstreamRejected(http.StatusUnauthorized, "Invalid credentials"), true},
		{"authentication error", apperrors.Authentication("nope"), true},
		{"engine down", apperrors.UpstreamUnavailable(errors.New("refused"), "Cognitive Engine is unavailable."), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGatewayFixture(t)
			f.creds.EXPECT().ValidateCredentials(gomock.Any(), gomock.Any(), gomock.Any()).
				Return(domainauth.Identity{}, tt.engine)

			_, err := f.svc.Login(context.Background(), domainauth.Credentials{Username: "alice", Password: "pw"}, "")
			require.Error(t, err)
			if tt.wantAuth {
				assert.True(t, apperrors.IsAuthentication(err))
				assert.Equal(t, InvalidCredentialsMessage, apperrors.PublicMessage(err))
			} else {
				assert.True(t, apperrors.IsUpstreamUnavailable(err))
			}
		})
	}
}

func TestGateway_AuthenticateAndLogout(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	claims, err := f.svc.Authenticate(ctx, mockauth.TokenFor("u-123"))
	require.NoError(t, err)
	assert.Equal(t, "u-123", claims.Identity.UserID)

	require.NoError(t, f.svc.Logout(ctx, claims))

	_, err = f.svc.Authenticate(ctx, mockauth.TokenFor("u-123"))
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestGateway_Authenticate_BadToken(t *testing.T) {
	f := newGatewayFixture(t)
	_, err := f.svc.Authenticate(context.Background(), "garbage")
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestGateway_Authenticate_RevocationStoreDown(t *testing.T) {
	f := newGatewayFixture(t)
	f.revoked.Err = errors.New("redis down")
	_, err := f.svc.Authenticate(context.Background(), mockauth.TokenFor("u-123"))
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
}

func TestGateway_SubmitDailyAnswer_ForwardsVerifiedIdentity(t *testing.T) {
	f := newGatewayFixture(t)
	body := json.RawMessage(`{"job_id":"j","status_url":"/x","message":"m"}`)
	req := model.SubmitDailyAnswerRequest{QuestionID: 7, AnswerText: "felt tired"}
	f.engine.EXPECT().Forward(gomock.Any(), ports.EngineRequest{
		Method:    http.MethodPost,
		UserID:    "u-123",
		Route:     RouteSubmitDailyAnswer,
		Payload:   req,
		RequestID: "req-9",
	}).Return(body, nil)

	got, err := f.svc.SubmitDailyAnswer(context.Background(), u123, req, "req-9")
	require.NoError(t, err)
	assert.JSONEq(t, string(body), string(got))
}

func TestGateway_SubmitDailyAnswer_InvalidPayloadNeverForwarded(t *testing.T) {
	f := newGatewayFixture(t)
	_, err := f.svc.SubmitDailyAnswer(context.Background(), u123, model.SubmitDailyAnswerRequest{QuestionID: 7}, "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestGateway_SubmitDailyAnswer_EngineErrorPassesThrough(t *testing.T) {
	f := newGatewayFixture(t)
	f.engine.EXPECT().Forward(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.UpstreamRejected(http.StatusInternalServerError, SubmissionFailedMessage))

	_, err := f.svc.SubmitDailyAnswer(context.Background(), u123, model.SubmitDailyAnswerRequest{QuestionID: 7, AnswerText: "x"}, "")
	assert.True(t, apperrors.IsUpstreamRejected(err))
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

func TestGateway_DailyCheckStatus_PassesLimit(t *testing.T) {
	f := newGatewayFixture(t)
	f.engine.EXPECT().Forward(gomock.Any(), ports.EngineRequest{
		Method: http.MethodGet,
		UserID: "u-123",
		Route:  RouteDailyCheckStatus,
		Query:  url.Values{"limit": []string{"5"}},
	}).Return(json.RawMessage(`{"answers":[],"pending":0}`), nil)

	_, err := f.svc.DailyCheckStatus(context.Background(), u123, 5, "")
	require.NoError(t, err)
}

func TestGateway_LatestSynthesis(t *testing.T) {
	f := newGatewayFixture(t)
	f.engine.EXPECT().Forward(gomock.Any(), ports.EngineRequest{
		Method: http.MethodGet,
		UserID: "u-123",
		Route:  RouteLatestSynthesis,
	}).Return(json.RawMessage(`{"id":1}`), nil)

	got, err := f.svc.LatestSynthesis(context.Background(), u123, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))
}

func TestGateway_StartSynthesis(t *testing.T) {
	f := newGatewayFixture(t)
	id := uuid.New()
	f.queue.EXPECT().Enqueue(gomock.Any(), model.EnqueueRequest{
		Kind:    model.JobKindSynthesis,
		Args:    []string{"u-123"},
		Timeout: 20 * time.Minute,
		Owner:   "u-123",
	}).Return(model.JobHandle{JobID: id}, nil)

	got, err := f.svc.StartSynthesis(context.Background(), u123)
	require.NoError(t, err)
	assert.Equal(t, model.SynthesisJobAccepted{JobID: id.String(), Status: "PENDING", Detail: SynthesisAcceptedDetail}, got)
}

func TestGateway_StartSynthesis_QueueDown(t *testing.T) {
	f := newGatewayFixture(t)
	f.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		Return(model.JobHandle{}, apperrors.UpstreamUnavailable(errors.New("refused"), "queue unreachable"))

	_, err := f.svc.StartSynthesis(context.Background(), u123)
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
}

func TestGateway_JobStatus_OwnerOnly(t *testing.T) {
	f := newGatewayFixture(t)
	st := model.JobStatus{JobID: "j-1", State: model.JobStateFinished, Status: "SUCCESS", Owner: "u-123"}
	f.queue.EXPECT().Status(gomock.Any(), "j-1").Return(st, nil).Times(2)

	got, err := f.svc.JobStatus(context.Background(), u123, "j-1")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS", got.Status)

	_, err = f.svc.JobStatus(context.Background(), domainauth.Identity{UserID: "u-456"}, "j-1")
	assert.True(t, apperrors.IsNotFound(err))
}
