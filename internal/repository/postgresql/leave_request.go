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

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `
	id, employee_id, leave_type_id, start_date, end_date,
	partial_day_fraction, total_days, reason,
	status, reviewed_by, reviewed_at, review_reason,
	submitted_at, created_at, updated_at`

func scanLeaveRequest(row pgx.Row, lr *leave.LeaveRequest) error {
	return row.Scan(
		&lr.ID, &lr.EmployeeID, &lr.LeaveTypeID, &lr.StartDate, &lr.EndDate,
		&lr.PartialDayFraction, &lr.TotalDays, &lr.Reason,
		&lr.Status, &lr.ReviewedBy, &lr.ReviewedAt, &lr.ReviewReason,
		&lr.SubmittedAt, &lr.CreatedAt, &lr.UpdatedAt,
	)
}

func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type_id, start_date, end_date,
			partial_day_fraction, total_days, reason, status,
			submitted_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			NOW(), NOW(), NOW()
		) RETURNING id, submitted_at, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), request.EmployeeID, request.LeaveTypeID, request.StartDate, request.EndDate,
		request.PartialDayFraction, request.TotalDays, request.Reason, request.Status,
	).Scan(&request.ID, &request.SubmittedAt, &request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	return request, nil
}

func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getByID(ctx, id, false)
}

// GetByIDForUpdate locks the request row so concurrent reviewers serialize;
// the loser of the race re-reads a non-pending status and fails the
// transition instead of double-applying it.
func (r *leaveRequestRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return r.getByID(ctx, id, true)
}

func (r *leaveRequestRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveRequestColumns + ` FROM leave_requests WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var lr leave.LeaveRequest
	err := scanLeaveRequest(q.QueryRow(ctx, query, id), &lr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, err
	}
	return lr, nil
}

func (r *leaveRequestRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1
		ORDER BY submitted_at DESC
	`
	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepositoryImpl) ListOverlapping(ctx context.Context, employeeID string, start, end time.Time, statuses []leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1
		  AND start_date <= $3
		  AND end_date >= $2
		  AND status = ANY($4)
		ORDER BY submitted_at
	`
	rows, err := q.Query(ctx, query, employeeID, start, end, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectLeaveRequests(rows)
}

func (r *leaveRequestRepositoryImpl) UpdateStatus(ctx context.Context, request leave.LeaveRequest) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests SET
			status = $2,
			reviewed_by = $3,
			reviewed_at = $4,
			review_reason = $5,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		request.ID, request.Status, request.ReviewedBy, request.ReviewedAt, request.ReviewReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

func (r *leaveRequestRepositoryImpl) InsertStatusChange(ctx context.Context, change leave.StatusChange) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_request_status_history (
			id, request_id, from_status, to_status, actor_id, reason, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.Exec(ctx, query,
		uuid.NewString(), change.RequestID, change.FromStatus, change.ToStatus,
		change.ActorID, change.Reason, change.ChangedAt)
	return err
}

func (r *leaveRequestRepositoryImpl) ListStatusChanges(ctx context.Context, requestID string) ([]leave.StatusChange, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, request_id, from_status, to_status, actor_id, reason, changed_at
		FROM leave_request_status_history
		WHERE request_id = $1
		ORDER BY changed_at
	`
	rows, err := q.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []leave.StatusChange
	for rows.Next() {
		var c leave.StatusChange
		err := rows.Scan(&c.ID, &c.RequestID, &c.FromStatus, &c.ToStatus, &c.ActorID, &c.Reason, &c.ChangedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	var requests []leave.LeaveRequest
	for rows.Next() {
		var lr leave.LeaveRequest
		if err := scanLeaveRequest(rows, &lr); err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}
