package postgresql

import (
	"context"
	"errors"

	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type leaveTypeRepositoryImpl struct {
	db *database.DB
}

func NewLeaveTypeRepository(db *database.DB) leave.LeaveTypeRepository {
	return &leaveTypeRepositoryImpl{db: db}
}

const leaveTypeColumns = `
	id, code, name, description,
	paid, requires_approval, accrual_based,
	max_consecutive_days, advance_notice_days, allows_partial_days, business_days_only,
	created_at, updated_at`

func scanLeaveType(row pgx.Row, lt *leave.LeaveType) error {
	return row.Scan(
		&lt.ID, &lt.Code, &lt.Name, &lt.Description,
		&lt.Paid, &lt.RequiresApproval, &lt.AccrualBased,
		&lt.MaxConsecutiveDays, &lt.AdvanceNoticeDays, &lt.AllowsPartialDays, &lt.BusinessDaysOnly,
		&lt.CreatedAt, &lt.UpdatedAt,
	)
}

func (r *leaveTypeRepositoryImpl) Create(ctx context.Context, leaveType leave.LeaveType) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_types (
			id, code, name, description,
			paid, requires_approval, accrual_based,
			max_consecutive_days, advance_notice_days, allows_partial_days, business_days_only,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), leaveType.Code, leaveType.Name, leaveType.Description,
		leaveType.Paid, leaveType.RequiresApproval, leaveType.AccrualBased,
		leaveType.MaxConsecutiveDays, leaveType.AdvanceNoticeDays, leaveType.AllowsPartialDays, leaveType.BusinessDaysOnly,
	).Scan(&leaveType.ID, &leaveType.CreatedAt, &leaveType.UpdatedAt)
	if err != nil {
		return leave.LeaveType{}, err
	}

	return leaveType, nil
}

func (r *leaveTypeRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	var lt leave.LeaveType
	err := scanLeaveType(q.QueryRow(ctx, `SELECT`+leaveTypeColumns+` FROM leave_types WHERE id = $1`, id), &lt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, err
	}
	return lt, nil
}

func (r *leaveTypeRepositoryImpl) GetByCode(ctx context.Context, code string) (leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	var lt leave.LeaveType
	err := scanLeaveType(q.QueryRow(ctx, `SELECT`+leaveTypeColumns+` FROM leave_types WHERE code = $1`, code), &lt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
		}
		return leave.LeaveType{}, err
	}
	return lt, nil
}

func (r *leaveTypeRepositoryImpl) List(ctx context.Context) ([]leave.LeaveType, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+leaveTypeColumns+` FROM leave_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		var lt leave.LeaveType
		if err := scanLeaveType(rows, &lt); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}
