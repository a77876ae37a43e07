package service

import (
	"context"
	"io"
	"log/slog"

	"go.uber.org/mock/gomock"

	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/mocks"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scopeCall records the context a scope body ran with and whether it asked to commit.
type scopeCall struct {
	ctx       context.Context
	committed bool
}

// runUserScope makes scopes run the body with an empty session for userID.
// The returned scopeCall is filled in once the scope has run.
func runUserScope(scopes *mocks.MockScopeRunner, userID string) *scopeCall {
	call := &scopeCall{}
	scopes.EXPECT().
		WithUserScope(gomock.Any(), userID, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ string, fn rls.UserFunc) error {
			call.ctx = ctx
			err := fn(ctx, &rls.UserSession{})
			call.committed = err == nil
			return err
		})
	return call
}

func runAnonymousScope(scopes *mocks.MockScopeRunner) {
	scopes.EXPECT().
		WithAnonymousScope(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn rls.AnonymousFunc) error {
			return fn(ctx, &rls.AnonymousSession{})
		})
}
