package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

const leaveBalanceColumns = `
	id, employee_id, leave_type_id,
	current_balance, accrual_rate, accrual_period, max_balance, carryover_limit,
	last_accrual_date, ytd_used, ytd_accrued, effective_date,
	created_at, updated_at`

func scanLeaveBalance(row pgx.Row, b *leave.LeaveBalance) error {
	return row.Scan(
		&b.ID, &b.EmployeeID, &b.LeaveTypeID,
		&b.CurrentBalance, &b.AccrualRate, &b.AccrualPeriod, &b.MaxBalance, &b.CarryoverLimit,
		&b.LastAccrualDate, &b.YTDUsed, &b.YTDAccrued, &b.EffectiveDate,
		&b.CreatedAt, &b.UpdatedAt,
	)
}

func (r *leaveBalanceRepositoryImpl) Create(ctx context.Context, balance leave.LeaveBalance) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			id, employee_id, leave_type_id,
			current_balance, accrual_rate, accrual_period, max_balance, carryover_limit,
			last_accrual_date, ytd_used, ytd_accrued, effective_date,
			created_at, updated_at
		) VALUES (
			$1, $2, $3,
			$4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), balance.EmployeeID, balance.LeaveTypeID,
		balance.CurrentBalance, balance.AccrualRate, balance.AccrualPeriod, balance.MaxBalance, balance.CarryoverLimit,
		balance.LastAccrualDate, balance.YTDUsed, balance.YTDAccrued, balance.EffectiveDate,
	).Scan(&balance.ID, &balance.CreatedAt, &balance.UpdatedAt)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	return balance, nil
}

func (r *leaveBalanceRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveBalance, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate locks the balance row for the duration of the ambient
// transaction. All ledger mutations go through this lock, which serializes
// concurrent writers per (employee, leave type) across service instances.
func (r *leaveBalanceRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveBalance, error) {
	return r.getByID(ctx, id, true)
}

func (r *leaveBalanceRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveBalanceColumns + ` FROM leave_balances WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b leave.LeaveBalance
	err := scanLeaveBalance(q.QueryRow(ctx, query, id), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, err
	}
	return b, nil
}

func (r *leaveBalanceRepositoryImpl) GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID string) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveBalanceColumns + ` FROM leave_balances WHERE employee_id = $1 AND leave_type_id = $2`

	var b leave.LeaveBalance
	err := scanLeaveBalance(q.QueryRow(ctx, query, employeeID, leaveTypeID), &b)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, err
	}
	return b, nil
}

func (r *leaveBalanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+leaveBalanceColumns+` FROM leave_balances WHERE employee_id = $1`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBalances(rows)
}

func (r *leaveBalanceRepositoryImpl) ListDueForAccrual(ctx context.Context, asOf time.Time) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveBalanceColumns + `
		FROM leave_balances b
		WHERE b.effective_date <= $1
		  AND (b.last_accrual_date IS NULL OR b.last_accrual_date < $1)
		  AND EXISTS (
			SELECT 1 FROM leave_types t WHERE t.id = b.leave_type_id AND t.accrual_based
		  )
		ORDER BY b.employee_id
	`
	rows, err := q.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBalances(rows)
}

func (r *leaveBalanceRepositoryImpl) ListPendingCarryover(ctx context.Context, year int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveBalanceColumns + `
		FROM leave_balances b
		WHERE EXISTS (
			SELECT 1 FROM leave_types t WHERE t.id = b.leave_type_id AND t.accrual_based
		  )
		  AND NOT EXISTS (
			SELECT 1 FROM accrual_transactions tx
			WHERE tx.balance_id = b.id
			  AND tx.type = 'carryover'
			  AND EXTRACT(YEAR FROM tx.transaction_date) = $1
		  )
		ORDER BY b.employee_id
	`
	rows, err := q.Query(ctx, query, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBalances(rows)
}

func (r *leaveBalanceRepositoryImpl) Update(ctx context.Context, balance leave.LeaveBalance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances SET
			current_balance = $2,
			last_accrual_date = $3,
			ytd_used = $4,
			ytd_accrued = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		balance.ID, balance.CurrentBalance, balance.LastAccrualDate, balance.YTDUsed, balance.YTDAccrued)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return leave.ErrBalanceNotFound
	}
	return nil
}

func collectBalances(rows pgx.Rows) ([]leave.LeaveBalance, error) {
	var balances []leave.LeaveBalance
	for rows.Next() {
		var b leave.LeaveBalance
		if err := scanLeaveBalance(rows, &b); err != nil {
			return nil, err
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}
