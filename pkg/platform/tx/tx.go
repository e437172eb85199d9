// Package tx carries a SQL transaction through context so a lifecycle
// operation's state write and its audit entry commit or roll back together.
package tx

import (
	"context"
	"database/sql"
	"time"

	dErrors "procurement/pkg/domain-errors"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// DBTX is the subset of database/sql shared by *sql.DB and *sql.Tx. Stores
// resolve their executor per call so they participate in an ambient
// transaction transparently.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Executor returns the transaction from ctx when present, else db.
func Executor(ctx context.Context, db *sql.DB) DBTX {
	if tx, ok := From(ctx); ok {
		return tx
	}
	return db
}

// Runner runs a function inside a single SQL transaction. Services depend on
// this interface so in-memory wiring can substitute a pass-through.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

const defaultTxTimeout = 5 * time.Second

// SQLRunner is the production Runner backed by *sql.DB.
type SQLRunner struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db, timeout: defaultTxTimeout}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}

// PassthroughRunner satisfies Runner without transactional semantics. Used
// with in-memory stores where each write is already atomic.
type PassthroughRunner struct{}

func (PassthroughRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
