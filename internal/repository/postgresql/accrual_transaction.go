package postgresql

import (
	"context"

	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
)

// accrualTransactionRepositoryImpl is append-only on purpose: the ledger
// table carries the audit trail, so no update or delete statements exist
// here at all.
type accrualTransactionRepositoryImpl struct {
	db *database.DB
}

func NewAccrualTransactionRepository(db *database.DB) leave.AccrualTransactionRepository {
	return &accrualTransactionRepositoryImpl{db: db}
}

func (r *accrualTransactionRepositoryImpl) Append(ctx context.Context, tx leave.AccrualTransaction) (leave.AccrualTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO accrual_transactions (
			id, balance_id, type, amount, transaction_date,
			leave_request_id, actor_id, reason, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, NOW()
		) RETURNING id, created_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), tx.BalanceID, tx.Type, tx.Amount, tx.TransactionDate,
		tx.LeaveRequestID, tx.ActorID, tx.Reason,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return leave.AccrualTransaction{}, err
	}

	return tx, nil
}

func (r *accrualTransactionRepositoryImpl) ListByBalance(ctx context.Context, balanceID string) ([]leave.AccrualTransaction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, balance_id, type, amount, transaction_date,
			   leave_request_id, actor_id, reason, created_at
		FROM accrual_transactions
		WHERE balance_id = $1
		ORDER BY created_at
	`
	rows, err := q.Query(ctx, query, balanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []leave.AccrualTransaction
	for rows.Next() {
		var tx leave.AccrualTransaction
		err := rows.Scan(
			&tx.ID, &tx.BalanceID, &tx.Type, &tx.Amount, &tx.TransactionDate,
			&tx.LeaveRequestID, &tx.ActorID, &tx.Reason, &tx.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (r *accrualTransactionRepositoryImpl) SumByBalance(ctx context.Context, balanceID string) (string, error) {
	q := GetQuerier(ctx, r.db)

	var sum string
	err := q.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0)::text FROM accrual_transactions WHERE balance_id = $1`,
		balanceID,
	).Scan(&sum)
	if err != nil {
		return "", err
	}
	return sum, nil
}

func (r *accrualTransactionRepositoryImpl) ExistsCarryover(ctx context.Context, balanceID string, year int) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM accrual_transactions
			WHERE balance_id = $1 AND type = $2
			  AND EXTRACT(YEAR FROM transaction_date) = $3
		)
	`, balanceID, leave.TransactionTypeCarryover, year).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
