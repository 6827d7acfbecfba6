package postgresql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type txKey struct{}

// WithTransaction executes fn inside a database transaction. The transaction
// is carried on the context, so repository calls made with the derived
// context join it automatically.
func WithTransaction(ctx context.Context, db *database.DB, fn func(ctx context.Context) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				slog.Error("rollback during panic recovery failed", "error", rbErr)
			}
			panic(p)
		}
	}()

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetQuerier returns the transaction carried on the context, or the pool.
func GetQuerier(ctx context.Context, db *database.DB) database.Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db.Pool
}

// retryBudget bounds retries of transactions aborted by deadlock or
// serialization failure.
const retryBudget = 3

// WithRetryableTransaction runs WithTransaction, retrying on deadlock and
// serialization failures up to the retry budget. Business errors propagate
// immediately.
func WithRetryableTransaction(ctx context.Context, db *database.DB, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < retryBudget; attempt++ {
		err = WithTransaction(ctx, db, fn)
		if err == nil || !isRetryable(err) {
			return err
		}
		slog.Warn("retrying aborted transaction", "attempt", attempt+1, "error", err)
	}
	return fmt.Errorf("transaction retry budget exhausted: %w", err)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// 40001 serialization_failure, 40P01 deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}
