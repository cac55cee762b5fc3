package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SQLSTATEs that signal a lost concurrency race. Transactions failing with
// one of these should be surfaced to callers as retryable conflicts.
const (
	sqlstateSerializationFailure = "40001"
	sqlstateDeadlockDetected     = "40P01"
)

// IsSerializationFailure reports whether err is a serialization or deadlock
// abort raised by the database under concurrent writes.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlstateSerializationFailure || pgErr.Code == sqlstateDeadlockDetected
}

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TxKey carries an open transaction through the context so that repositories
// called inside InTx run their statements on it.
const TxKey contextKey = "db_tx"

// WithTx returns a context carrying the given transaction.
func WithTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, TxKey, tx)
}

// TxFromContext returns the open transaction from the context, or nil.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(TxKey).(pgx.Tx)
	return tx
}

// InTx runs fn inside a single transaction. The context passed to fn carries
// the transaction, so repository methods called through it join automatically.
// When the request carries a group-scoped connection (set by GroupMiddleware)
// the transaction runs on that connection so it inherits the tenant
// search_path; otherwise it runs on the pool.
func InTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var beginner txBeginner = pool
	if conn := ConnFromContext(ctx); conn != nil {
		beginner = conn
	}

	tx, err := beginner.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithTx(ctx, tx), tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// AdvisoryLock takes a transaction-scoped advisory lock for the given key.
// The lock is released automatically at commit or rollback. It serializes
// competing bookings that target the same practitioner and date.
func AdvisoryLock(ctx context.Context, tx pgx.Tx, key string) error {
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
	if err != nil {
		return fmt.Errorf("advisory lock %q: %w", key, err)
	}
	return nil
}
