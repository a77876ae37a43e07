// Package pgxutil holds helpers shared by code that reaches pgx through database/sql.
package pgxutil

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// InTx runs fn inside a transaction on db and commits when it returns nil.
// Any error or panic from fn rolls the transaction back; a panic is re-raised
// after the rollback.
func InTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(ctx, tx); err != nil {
		return err
	}
	committed = true
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// IsIdle reports whether c sits outside any transaction block, per the status
// byte of the server's last ReadyForQuery.
func IsIdle(c *pgx.Conn) bool {
	return c.PgConn().TxStatus() == 'I'
}
