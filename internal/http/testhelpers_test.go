package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeErrorBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

// stubGateway is a hand-written Gateway whose tokens are "tok-<user id>".
type stubGateway struct {
	loginCreds domainauth.Credentials
	loginErr   error

	submitted  model.SubmitDailyAnswerRequest
	submitBody json.RawMessage
	submitErr  error

	statusLimit int
	statusBody  json.RawMessage

	latestBody json.RawMessage

	accepted model.SynthesisJobAccepted
	jobs     map[string]model.JobStatus

	loggedOut []string
	requestID string
}

func (g *stubGateway) Authenticate(_ context.Context, token string) (domainauth.TokenClaims, error) {
	const prefix = "tok-"
	if len(token) <= len(prefix) || token[:len(prefix)] != prefix {
		return domainauth.TokenClaims{}, apperrors.Authentication("Could not validate credentials")
	}
	uid := token[len(prefix):]
	return domainauth.TokenClaims{Identity: domainauth.Identity{UserID: uid}, TokenID: "jti-" + uid}, nil
}

func (g *stubGateway) Login(_ context.Context, creds domainauth.Credentials, requestID string) (domainauth.AccessToken, error) {
	g.loginCreds = creds
	g.requestID = requestID
	if g.loginErr != nil {
		return domainauth.AccessToken{}, g.loginErr
	}
	return domainauth.AccessToken{AccessToken: "tok-u-123", TokenType: domainauth.BearerTokenType}, nil
}

func (g *stubGateway) Logout(_ context.Context, claims domainauth.TokenClaims) error {
	g.loggedOut = append(g.loggedOut, claims.TokenID)
	return nil
}

func (g *stubGateway) SubmitDailyAnswer(_ context.Context, _ domainauth.Identity, req model.SubmitDailyAnswerRequest, requestID string) (json.RawMessage, error) {
	g.submitted = req
	g.requestID = requestID
	return g.submitBody, g.submitErr
}

func (g *stubGateway) DailyCheckStatus(_ context.Context, _ domainauth.Identity, limit int, _ string) (json.RawMessage, error) {
	g.statusLimit = limit
	return g.statusBody, nil
}

func (g *stubGateway) LatestSynthesis(context.Context, domainauth.Identity, string) (json.RawMessage, error) {
	return g.latestBody, nil
}

func (g *stubGateway) StartSynthesis(context.Context, domainauth.Identity) (model.SynthesisJobAccepted, error) {
	return g.accepted, nil
}

func (g *stubGateway) JobStatus(_ context.Context, id domainauth.Identity, jobID string) (model.JobStatus, error) {
	st, ok := g.jobs[jobID]
	if !ok || st.Owner != id.UserID {
		return model.JobStatus{}, apperrors.NotFound("Job not found")
	}
	return st, nil
}

var errEnqueue = errors.New("redis: connection refused")

func jsonBody(s string) io.Reader { return strings.NewReader(s) }
