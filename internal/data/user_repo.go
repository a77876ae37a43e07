package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lifebuddy/lifebuddy-api/internal/data/rls"
	"github.com/lifebuddy/lifebuddy-api/internal/domain/model"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

// UserRepo reads accounts through the RLS-enforced role.
type UserRepo struct{}

// NewUserRepo creates a UserRepo.
func NewUserRepo() *UserRepo { return &UserRepo{} }

// LookupCredentials resolves a username before any identity is bound. It goes
// through a security-definer function that returns only the matching account.
// The returned user carries only ID, Username and PasswordHash.
func (r *UserRepo) LookupCredentials(ctx context.Context, s *rls.AnonymousSession, username string) (*model.User, error) {
	u := model.User{Username: strings.TrimSpace(username)}
	err := s.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM lifebuddy_lookup_credentials($1)`,
		u.Username,
	).Scan(&u.ID, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", apperrors.MapDBError(err))
	}
	return &u, nil
}

// GetSelf returns the session user's own account row.
func (r *UserRepo) GetSelf(ctx context.Context, s *rls.UserSession) (*model.User, error) {
	var u model.User
	err := s.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE id = $1`, s.UserID(),
	).Scan(&u.ID, &u.Username, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", apperrors.MapDBError(err))
	}
	return &u, nil
}
