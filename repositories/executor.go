package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrSerializationFailure is returned by a Transactor after the store kept aborting the
// transaction because of concurrent writers.
var ErrSerializationFailure = errors.New("transaction aborted by concurrent update")

// SQLExecutor is satisfied by both *sql.DB and *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor runs fn inside a single store transaction. Repository calls made with the
// context passed to fn join that transaction. Nested calls reuse the outer transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

type postgresTransactor struct {
	db          *sql.DB
	maxAttempts int
}

// NewPostgresTransactor returns a Transactor running SERIALIZABLE transactions and
// retrying serialization failures and deadlocks up to maxAttempts times.
func NewPostgresTransactor(db *sql.DB, maxAttempts int) Transactor {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &postgresTransactor{db: db, maxAttempts: maxAttempts}
}

func (t *postgresTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= t.maxAttempts; attempt++ {
		err = t.run(ctx, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", ErrSerializationFailure, err)
}

func (t *postgresTransactor) run(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := t.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if commitErr := tx.Commit(); commitErr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", commitErr)
		}
	}()

	return fn(context.WithValue(ctx, txKey{}, tx))
}

func isRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return false
}

type rowIterator interface {
	Next() bool
	Err() error
	Close() error
}

// drainRows consumes rows to the end and reports any error raised while they were produced,
// such as a failed row lock.
func drainRows(rows rowIterator) error {
	defer rows.Close()
	for rows.Next() {
	}
	return rows.Err()
}

// executorFrom returns the transaction bound to ctx, or db when there is none.
func executorFrom(ctx context.Context, db *sql.DB) SQLExecutor {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError
	}
	return nil
}

func toInt64s(ids []int) pq.Int64Array {
	out := make(pq.Int64Array, len(ids))
	for i, id := range ids {
		out[i] = int64(id)
	}
	return out
}

func fromInt64s(ids pq.Int64Array) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
