package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type overtimePolicyRepositoryImpl struct {
	db *database.DB
}

func NewOvertimePolicyRepository(db *database.DB) timesheet.OvertimePolicyRepository {
	return &overtimePolicyRepositoryImpl{db: db}
}

const overtimePolicyColumns = `
	id, name, daily_threshold, weekly_threshold,
	overtime_multiplier, double_time_threshold, double_time_multiplier,
	employee_groups, effective_date, end_date, created_at, updated_at`

func scanOvertimePolicy(row pgx.Row, p *timesheet.OvertimePolicy) error {
	return row.Scan(
		&p.ID, &p.Name, &p.DailyThreshold, &p.WeeklyThreshold,
		&p.OvertimeMultiplier, &p.DoubleTimeThreshold, &p.DoubleTimeMultiplier,
		&p.EmployeeGroups, &p.EffectiveDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *overtimePolicyRepositoryImpl) Create(ctx context.Context, policy timesheet.OvertimePolicy) (timesheet.OvertimePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO overtime_policies (
			id, name, daily_threshold, weekly_threshold,
			overtime_multiplier, double_time_threshold, double_time_multiplier,
			employee_groups, effective_date, end_date,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), policy.Name, policy.DailyThreshold, policy.WeeklyThreshold,
		policy.OvertimeMultiplier, policy.DoubleTimeThreshold, policy.DoubleTimeMultiplier,
		policy.EmployeeGroups, policy.EffectiveDate, policy.EndDate,
	).Scan(&policy.ID, &policy.CreatedAt, &policy.UpdatedAt)
	if err != nil {
		return timesheet.OvertimePolicy{}, err
	}

	return policy, nil
}

func (r *overtimePolicyRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.OvertimePolicy, error) {
	q := GetQuerier(ctx, r.db)

	var p timesheet.OvertimePolicy
	err := scanOvertimePolicy(q.QueryRow(ctx, `SELECT`+overtimePolicyColumns+` FROM overtime_policies WHERE id = $1`, id), &p)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.OvertimePolicy{}, timesheet.ErrOvertimePolicyNotFound
		}
		return timesheet.OvertimePolicy{}, err
	}
	return p, nil
}

func (r *overtimePolicyRepositoryImpl) FindActive(ctx context.Context, at time.Time) ([]timesheet.OvertimePolicy, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + overtimePolicyColumns + `
		FROM overtime_policies
		WHERE effective_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
		ORDER BY effective_date DESC
	`
	rows, err := q.Query(ctx, query, at)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var policies []timesheet.OvertimePolicy
	for rows.Next() {
		var p timesheet.OvertimePolicy
		if err := scanOvertimePolicy(rows, &p); err != nil {
			return nil, err
		}
		policies = append(policies, p)
	}
	return policies, rows.Err()
}
