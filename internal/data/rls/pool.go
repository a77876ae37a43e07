// Package rls scopes database access to a single user through Postgres row-level security.
//
// Every user-path statement runs inside WithUserScope, which binds the
// app.current_user_id setting transaction-locally before the caller sees the
// session and commits or rolls back before the connection returns to the pool.
package rls

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainauth "github.com/lifebuddy/lifebuddy-api/internal/domain/auth"
	apperrors "github.com/lifebuddy/lifebuddy-api/internal/errors"
)

const (
	// SettingName is the custom setting consumed by the row-security policies.
	SettingName = "app.current_user_id"

	setContextSQL     = "SELECT set_config('app.current_user_id', $1, true)"
	currentSettingSQL = "SELECT coalesce(current_setting('app.current_user_id', true), '')"

	defaultAcquireTimeout = 3 * time.Second
	defaultScopeTimeout   = 15 * time.Second
)

// Options configures a Pool.
type Options struct {
	DB     *sql.DB
	Logger *slog.Logger

	// AcquireTimeout bounds the wait for a pooled connection; defaults to 3s.
	AcquireTimeout time.Duration
	// ScopeTimeout bounds the transaction, commit included; defaults to 15s.
	ScopeTimeout time.Duration
	// TxOptions are passed to BeginTx.
	TxOptions *sql.TxOptions
}

// Pool hands out user-scoped transactions on connections of the RLS-enforced role.
// It is safe for concurrent use.
type Pool struct {
	db             *sql.DB
	logger         *slog.Logger
	acquireTimeout time.Duration
	scopeTimeout   time.Duration
	txOpts         *sql.TxOptions
}

// NewPool constructs a Pool.
func NewPool(opts Options) (*Pool, error) {
	if opts.DB == nil {
		return nil, errors.New("rls: DB is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	acquire := opts.AcquireTimeout
	if acquire <= 0 {
		acquire = defaultAcquireTimeout
	}
	scope := opts.ScopeTimeout
	if scope <= 0 {
		scope = defaultScopeTimeout
	}
	return &Pool{
		db:             opts.DB,
		logger:         logger.With("component", "rls_pool"),
		acquireTimeout: acquire,
		scopeTimeout:   scope,
		txOpts:         opts.TxOptions,
	}, nil
}

// MustNewPool is like NewPool but panics on error.
func MustNewPool(opts Options) *Pool {
	p, err := NewPool(opts)
	if err != nil {
		panic(err)
	}
	return p
}

// DB exposes the underlying pool for health checks and stats collection.
func (p *Pool) DB() *sql.DB { return p.db }

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()
	return p.db.PingContext(ctx)
}

// UserFunc runs statements for one user. ctx is the scope context: it is
// detached from the caller's cancellation and bounded by the scope timeout.
type UserFunc func(ctx context.Context, s *UserSession) error

// AnonymousFunc runs statements with an empty identity.
type AnonymousFunc func(ctx context.Context, s *AnonymousSession) error

// WithUserScope runs fn in a transaction whose session context is userID.
//
// The context is set before fn runs. The transaction commits only when fn
// returns nil and rolls back otherwise. Scope setup failures never reach fn
// and the connection they occurred on is discarded.
func (p *Pool) WithUserScope(ctx context.Context, userID string, fn UserFunc) error {
	if err := domainauth.ValidateUserID(userID); err != nil {
		return apperrors.ScopeSetup(err)
	}
	return p.run(ctx, userID, func(scopeCtx context.Context, tx *sql.Tx) error {
		return fn(scopeCtx, &UserSession{tx: tx, userID: userID})
	})
}

// WithAnonymousScope runs fn with the session context explicitly empty.
// Policies hide every user row; only security-definer lookups are useful here.
func (p *Pool) WithAnonymousScope(ctx context.Context, fn AnonymousFunc) error {
	return p.run(ctx, "", func(scopeCtx context.Context, tx *sql.Tx) error {
		return fn(scopeCtx, &AnonymousSession{tx: tx})
	})
}

func (p *Pool) run(ctx context.Context, principal string, fn func(context.Context, *sql.Tx) error) (err error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return err
	}
	discard := false
	defer func() { p.release(conn, discard) }()

	scopeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.scopeTimeout)
	defer cancel()

	tx, err := conn.BeginTx(scopeCtx, p.txOpts)
	if err != nil {
		discard = true
		return apperrors.ScopeSetup(fmt.Errorf("begin: %w", err))
	}

	if _, err = tx.ExecContext(scopeCtx, setContextSQL, principal); err != nil {
		discard = true
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return apperrors.ScopeSetup(fmt.Errorf("set session context: %w", err))
	}

	if err = callScoped(scopeCtx, tx, fn, &discard); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			discard = true
			p.logger.ErrorContext(ctx, "rollback user scope failed", "error", rbErr)
		}
		return err
	}

	if err = tx.Commit(); err != nil {
		discard = true
		return mapCommitError(err)
	}
	return nil
}

// callScoped rolls back and marks the connection for discard if fn panics.
func callScoped(ctx context.Context, tx *sql.Tx, fn func(context.Context, *sql.Tx) error, discard *bool) error {
	defer func() {
		if r := recover(); r != nil {
			*discard = true
			_ = tx.Rollback()
			panic(r)
		}
	}()
	return fn(ctx, tx)
}

func (p *Pool) acquire(ctx context.Context) (*sql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
	defer cancel()

	conn, err := p.db.Conn(acquireCtx)
	if err == nil {
		return conn, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, apperrors.MapDBError(ctxErr)
	}
	return nil, apperrors.ResourceUnavailable(err, "Database is busy. Please try again.")
}

// release returns conn to the pool, or closes it when its session state is unknown.
func (p *Pool) release(conn *sql.Conn, discard bool) {
	if discard {
		p.logger.Warn("discarding connection after failed scope")
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
	}
	if err := conn.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.logger.Error("release connection failed", "error", err)
	}
}

func mapCommitError(err error) error {
	mapped := apperrors.MapDBError(err)
	var appErr *apperrors.AppError
	if errors.As(mapped, &appErr) {
		return mapped
	}
	return apperrors.Wrap(err, apperrors.ErrCodeInternal, "commit user scope")
}
