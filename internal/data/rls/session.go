package rls

import (
	"context"
	"database/sql"
)

// UserSession is a transaction bound to one user's identity. Repositories
// accept it instead of *sql.DB so user-path code cannot reach an unscoped connection.
type UserSession struct {
	tx     *sql.Tx
	userID string
}

// UserID returns the identity the session is bound to.
func (s *UserSession) UserID() string { return s.userID }

// ExecContext runs a statement under the session's identity.
func (s *UserSession) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.tx.ExecContext(ctx, query, args...)
}

// QueryContext runs a query under the session's identity.
func (s *UserSession) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.tx.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query under the session's identity.
func (s *UserSession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// CurrentSetting reads app.current_user_id as the database sees it.
func (s *UserSession) CurrentSetting(ctx context.Context) (string, error) {
	return currentSetting(ctx, s.tx)
}

// AnonymousSession is a transaction with an empty identity.
type AnonymousSession struct {
	tx *sql.Tx
}

// QueryRowContext runs a single-row query with no identity bound.
func (s *AnonymousSession) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.tx.QueryRowContext(ctx, query, args...)
}

// CurrentSetting reads app.current_user_id; it is always empty here.
func (s *AnonymousSession) CurrentSetting(ctx context.Context) (string, error) {
	return currentSetting(ctx, s.tx)
}

func currentSetting(ctx context.Context, tx *sql.Tx) (string, error) {
	var v string
	if err := tx.QueryRowContext(ctx, currentSettingSQL).Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}
