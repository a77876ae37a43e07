package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
	"github.com/lifebuddy/lifebuddy-api/internal/mocks"
)

type submissionFixture struct {
	scopes  *mocks.MockScopeRunner
	answers *mocks.MockAnswerRepository
	queue   *mocks.MockJobQueue
	svc     *SubmissionService
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &submissionFixture{
		scopes:  mocks.NewMockScopeRunner(ctrl),
		answers: mocks.NewMockAnswerRepository(ctrl),
		queue:   mocks.NewMockJobQueue(ctrl),
	}
	svc, err := NewSubmissionService(SubmissionServiceOptions{
		Scopes:  f.scopes,
		Answers: f.answers,
		Queue:   f.queue,
		Logger:  discardLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

var u123 = domainauth.Identity{UserID: "u-123", Username: "alice"}

func TestNewSubmissionService_RequiresDeps(t *testing.T) {
	_, err := NewSubmissionService(SubmissionServiceOptions{})
	require.Error(t, err)
}

func TestHandleProxiedSubmit_InsertThenEnqueueThenCommit(t *testing.T) {
	f := newSubmissionFixture(t)
	jobID := uuid.New()
	scope := runUserScope(f.scopes, "u-123")

	gomock.InOrder(
		f.answers.EXPECT().
			Create(gomock.Any(), gomock.Any(), model.CreateAnswerRequest{QuestionID: 7, AnswerText: "felt tired"}).
			Return(int64(42), nil),
		f.queue.EXPECT().
			Enqueue(gomock.Any(), model.EnqueueRequest{
				Kind:    model.JobKindImplicitCheck,
				Args:    []string{"u-123", "42"},
				Timeout: 10 * time.Minute,
				Owner:   "u-123",
			}).
			Return(model.JobHandle{JobID: jobID}, nil),
	)

	res, err := f.svc.HandleProxiedSubmit(context.Background(), u123, model.SubmitDailyAnswerRequest{
		QuestionID: 7,
		AnswerText: "felt tired",
	})
	require.NoError(t, err)

	assert.True(t, scope.committed)
	assert.Equal(t, jobID.String(), res.JobID)
	assert.Equal(t, "/api/v1/synthesis/job-status/"+jobID.String(), res.StatusURL)
	assert.Equal(t, SubmissionAcceptedMessage, res.Message)
}

func TestHandleProxiedSubmit_EnqueueFailureRollsBack(t *testing.T) {
	f := newSubmissionFixture(t)
	scope := runUserScope(f.scopes, "u-123")

	f.answers.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(42), nil)
	f.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		Return(model.JobHandle{}, apperrors.UpstreamUnavailable(errors.New("dial tcp: refused"), "queue unreachable"))

	_, err := f.svc.HandleProxiedSubmit(context.Background(), u123, model.SubmitDailyAnswerRequest{
		QuestionID: 7,
		AnswerText: "felt tired",
	})
	require.Error(t, err)

	assert.False(t, scope.committed)
	assert.True(t, apperrors.IsUpstreamUnavailable(err))
	assert.Equal(t, SubmissionFailedMessage, apperrors.PublicMessage(err))
	assert.NotContains(t, apperrors.PublicMessage(err), "dial tcp")
}

func TestHandleProxiedSubmit_InsertFailureNeverEnqueues(t *testing.T) {
	f := newSubmissionFixture(t)
	scope := runUserScope(f.scopes, "u-123")

	f.answers.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("connection reset"))

	_, err := f.svc.HandleProxiedSubmit(context.Background(), u123, model.SubmitDailyAnswerRequest{
		QuestionID: 7,
		AnswerText: "felt tired",
	})
	require.Error(t, err)

	assert.False(t, scope.committed)
	assert.Equal(t, apperrors.ErrCodeInternal, apperrors.GetCode(err))
	assert.Equal(t, SubmissionFailedMessage, apperrors.PublicMessage(err))
}

func TestHandleProxiedSubmit_ScopeSetupFailure(t *testing.T) {
	f := newSubmissionFixture(t)
	f.scopes.EXPECT().WithUserScope(gomock.Any(), "u-123", gomock.Any()).
		Return(apperrors.ScopeSetup(errors.New("set_config failed")))

	_, err := f.svc.HandleProxiedSubmit(context.Background(), u123, model.SubmitDailyAnswerRequest{
		QuestionID: 7,
		AnswerText: "felt tired",
	})
	assert.True(t, apperrors.IsScopeSetup(err))
	assert.Equal(t, SubmissionFailedMessage, apperrors.PublicMessage(err))
}

func TestHandleProxiedSubmit_ValidationNeverTouchesStorage(t *testing.T) {
	tests := []struct {
		name  string
		req   model.SubmitDailyAnswerRequest
		field string
	}{
		{"zero question", model.SubmitDailyAnswerRequest{QuestionID: 0, AnswerText: "x"}, "question_id"},
		{"blank answer", model.SubmitDailyAnswerRequest{QuestionID: 7, AnswerText: "   "}, "answer_text"},
		{"NUL byte in answer", model.SubmitDailyAnswerRequest{QuestionID: 7, AnswerText: "felt\x00tired"}, "answer_text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(t)
			_, err := f.svc.HandleProxiedSubmit(context.Background(), u123, tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, tt.field, apperrors.GetField(err))
		})
	}
}

func TestHandleProxiedSubmit_InvalidIdentity(t *testing.T) {
	f := newSubmissionFixture(t)
	_, err := f.svc.HandleProxiedSubmit(context.Background(), domainauth.Identity{UserID: "a b"}, model.SubmitDailyAnswerRequest{
		QuestionID: 7,
		AnswerText: "felt tired",
	})
	assert.True(t, apperrors.IsAuthentication(err))
}

func TestHandleProxiedSubmit_ClientCancelDoesNotAbortCommit(t *testing.T) {
	f := newSubmissionFixture(t)
	scope := runUserScope(f.scopes, "u-123")

	ctx, cancel := context.WithCancel(context.Background())

	f.answers.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ *rls.UserSession, _ model.CreateAnswerRequest) (int64, error) {
			cancel()
			return 42, nil
		})
	f.queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ model.EnqueueRequest) (model.JobHandle, error) {
			if err := ctx.Err(); err != nil {
				return model.JobHandle{}, err
			}
			return model.JobHandle{JobID: uuid.New()}, nil
		})

	_, err := f.svc.HandleProxiedSubmit(ctx, u123, model.SubmitDailyAnswerRequest{QuestionID: 7, AnswerText: "felt tired"})
	require.NoError(t, err)
	assert.True(t, scope.committed)

	_, hasDeadline := scope.ctx.Deadline()
	assert.True(t, hasDeadline)
}

func TestHandleProxiedSubmit_CustomStatusTemplate(t *testing.T) {
	ctrl := gomock.NewController(t)
	scopes := mocks.NewMockScopeRunner(ctrl)
	answers := mocks.NewMockAnswerRepository(ctrl)
	queue := mocks.NewMockJobQueue(ctrl)
	svc, err := NewSubmissionService(SubmissionServiceOptions{
		Scopes:  scopes,
		Answers: answers,
		Queue:   queue,
		Config:  SubmissionConfig{StatusPathTemplate: "/v2/jobs/%s"},
		Logger:  discardLogger(),
	})
	require.NoError(t, err)

	runUserScope(scopes, "u-123")
	answers.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any()).Return(int64(1), nil)
	queue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(model.JobHandle{JobID: uuid.Nil}, nil)

	res, err := svc.HandleProxiedSubmit(context.Background(), u123, model.SubmitDailyAnswerRequest{QuestionID: 1, AnswerText: "ok"})
	require.NoError(t, err)
	assert.Equal(t, "/v2/jobs/"+uuid.Nil.String(), res.StatusURL)
}

func TestPublicSubmissionError(t *testing.T) {
	fk := &apperrors.AppError{Code: apperrors.ErrCodeForeignKey, Message: "question does not exist"}
	assert.Same(t, fk, publicSubmissionError(fk))

	enq := apperrors.EnqueueFailed(errors.New("OOM command not allowed"), "enqueue rejected")
	got := publicSubmissionError(enq)
	assert.True(t, apperrors.IsEnqueueFailed(got))
	assert.Equal(t, SubmissionFailedMessage, apperrors.PublicMessage(got))
	assert.ErrorIs(t, got, enq)
}
