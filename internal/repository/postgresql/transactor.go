package postgresql

import (
	"context"

	"github.com/atlashr/hr-backend-go/internal/pkg/database"
)

type transactorImpl struct {
	db *database.DB
}

// NewTransactor returns the database.Transactor backed by WithTransaction.
func NewTransactor(db *database.DB) database.Transactor {
	return &transactorImpl{db: db}
}

func (t *transactorImpl) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTransaction(ctx, t.db, fn)
}

func (t *transactorImpl) InRetryableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithRetryableTransaction(ctx, t.db, fn)
}
