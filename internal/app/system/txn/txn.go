// Package txn runs multi-statement PostgreSQL work atomically.
//
// Usage:
//
//	err := txn.Run(ctx, pool, log, func(tx pgx.Tx) error {
//	    // All statements here commit or roll back together
//	    if _, err := tx.Exec(ctx, `UPDATE folders SET "order" = $1 WHERE id = $2`, 0, id); err != nil {
//	        return err
//	    }
//	    return nil
//	})
//
// Sibling reordering uses this so that a move rewrites the moved row and all
// affected siblings in one commit. There is no conflict detection: concurrent
// movers into the same parent are resolved by whichever commits last.
package txn

import (
	"context"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// Beginner is implemented by *pgxpool.Pool, *pgx.Conn and pgx.Tx (nested
// transactions become savepoints).
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Func is the function type for transaction operations.
type Func func(tx pgx.Tx) error

// Run executes fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise. log may be nil.
func Run(ctx context.Context, db Beginner, log *zap.Logger, fn Func) error {
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		return fn(tx)
	})
	if err != nil && log != nil {
		log.Debug("transaction rolled back", zap.Error(err))
	}
	return err
}
