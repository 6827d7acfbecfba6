package database

import "context"

// Transactor runs a function inside a database transaction carried on the
// context. Services depend on this seam rather than on a concrete pool so
// tests can substitute a pass-through implementation.
type Transactor interface {
	// InTx runs fn inside a transaction; fn's error rolls back.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	// InRetryableTx behaves like InTx but retries deadlock and
	// serialization aborts a bounded number of times.
	InRetryableTx(ctx context.Context, fn func(ctx context.Context) error) error
}
