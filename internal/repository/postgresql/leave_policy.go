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

type leavePolicyRepositoryImpl struct {
	db *database.DB
}

func NewLeavePolicyRepository(db *database.DB) leave.LeavePolicyRepository {
	return &leavePolicyRepositoryImpl{db: db}
}

const leavePolicyColumns = `
	id, leave_type_id, name, effective_date, end_date, employee_groups,
	eligibility_rules, accrual_rule, usage_rules, created_at, updated_at`

func scanLeavePolicy(row pgx.Row, p *leave.LeavePolicy) error {
	return row.Scan(
		&p.ID, &p.LeaveTypeID, &p.Name, &p.EffectiveDate, &p.EndDate, &p.EmployeeGroups,
		&p.Eligibility, &p.Accrual, &p.Usage, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *leavePolicyRepositoryImpl) Create(ctx context.Context, policy leave.LeavePolicy) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_policies (
			id, leave_type_id, name, effective_date, end_date, employee_groups,
			eligibility_rules, accrual_rule, usage_rules,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), policy.LeaveTypeID, policy.Name, policy.EffectiveDate, policy.EndDate, policy.EmployeeGroups,
		policy.Eligibility, policy.Accrual, policy.Usage,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return leave.LeavePolicy{}, err
	}

	return policy, nil
}

func (r *leavePolicyRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	var p leave.LeavePolicy
	err := scanLeavePolicy(q.QueryRow(ctx, `SELECT`+leavePolicyColumns+` FROM leave_policies WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
		}
		return leave.LeavePolicy{}, err
	}
	return p, nil
}

func (r *leavePolicyRepositoryImpl) FindActive(ctx context.Context, leaveTypeID string, at time.Time) ([]leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leavePolicyColumns + `
		FROM leave_policies
		WHERE leave_type_id = $1
		  AND effective_date <= $2
		  AND (end_date IS NULL OR end_date >= $2)
		ORDER BY effective_date DESC
	`
	rows, err := q.Query(ctx, query, leaveTypeID, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []leave.LeavePolicy
	for rows.Next() {
		var p leave.LeavePolicy
		if err := scanLeavePolicy(rows, &p); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}

func (r *leavePolicyRepositoryImpl) List(ctx context.Context) ([]leave.LeavePolicy, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `SELECT`+leavePolicyColumns+` FROM leave_policies ORDER BY effective_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []leave.LeavePolicy
	for rows.Next() {
		var p leave.LeavePolicy
		if err := scanLeavePolicy(rows, &p); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}
