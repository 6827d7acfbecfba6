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

type timeEntryRepositoryImpl struct {
	db *database.DB
}

func NewTimeEntryRepository(db *database.DB) timesheet.TimeEntryRepository {
	return &timeEntryRepositoryImpl{db: db}
}

const timeEntryColumns = `
	id, employee_id, clock_in, clock_out,
	clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
	total_hours, regular_hours, overtime_hours, double_time_hours,
	status, manual_entry, correction_of_id,
	approved_by, approved_at, rejection_reason,
	created_at, updated_at`

func scanTimeEntry(row pgx.Row, e *timesheet.TimeEntry) error {
	return row.Scan(
		&e.ID, &e.EmployeeID, &e.ClockIn, &e.ClockOut,
		&e.ClockInLatitude, &e.ClockInLongitude, &e.ClockOutLatitude, &e.ClockOutLongitude,
		&e.TotalHours, &e.RegularHours, &e.OvertimeHours, &e.DoubleTimeHours,
		&e.Status, &e.ManualEntry, &e.CorrectionOfID,
		&e.ApprovedBy, &e.ApprovedAt, &e.RejectionReason,
		&e.CreatedAt, &e.UpdatedAt,
	)
}

func (r *timeEntryRepositoryImpl) Create(ctx context.Context, entry timesheet.TimeEntry) (timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_entries (
			id, employee_id, clock_in, clock_out,
			clock_in_latitude, clock_in_longitude, clock_out_latitude, clock_out_longitude,
			total_hours, regular_hours, overtime_hours, double_time_hours,
			status, manual_entry, correction_of_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15,
			NOW(), NOW()
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		uuid.NewString(), entry.EmployeeID, entry.ClockIn, entry.ClockOut,
		entry.ClockInLatitude, entry.ClockInLongitude, entry.ClockOutLatitude, entry.ClockOutLongitude,
		entry.TotalHours, entry.RegularHours, entry.OvertimeHours, entry.DoubleTimeHours,
		entry.Status, entry.ManualEntry, entry.CorrectionOfID,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}

	return entry, nil
}

func (r *timeEntryRepositoryImpl) GetByID(ctx context.Context, id string) (timesheet.TimeEntry, error) {
	return r.getByID(ctx, id, false)
}

func (r *timeEntryRepositoryImpl) GetByIDForUpdate(ctx context.Context, id string) (timesheet.TimeEntry, error) {
	return r.getByID(ctx, id, true)
}

func (r *timeEntryRepositoryImpl) getByID(ctx context.Context, id string, forUpdate bool) (timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + timeEntryColumns + ` FROM time_entries WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var e timesheet.TimeEntry
	err := scanTimeEntry(q.QueryRow(ctx, query, id), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.TimeEntry{}, timesheet.ErrTimeEntryNotFound
		}
		return timesheet.TimeEntry{}, err
	}
	return e, nil
}

func (r *timeEntryRepositoryImpl) GetActiveByEmployee(ctx context.Context, employeeID string) (timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND status = $2
		ORDER BY clock_in DESC
		LIMIT 1
	`
	var e timesheet.TimeEntry
	err := scanTimeEntry(q.QueryRow(ctx, query, employeeID, timesheet.TimeEntryStatusActive), &e)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.TimeEntry{}, timesheet.ErrNoActiveEntry
		}
		return timesheet.TimeEntry{}, err
	}
	return e, nil
}

func (r *timeEntryRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1 AND clock_in >= $2 AND clock_in < $3
		ORDER BY clock_in DESC
	`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeEntries(rows)
}

func (r *timeEntryRepositoryImpl) ListForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time, statuses []timesheet.TimeEntryStatus) ([]timesheet.TimeEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT` + timeEntryColumns + `
		FROM time_entries
		WHERE employee_id = $1
		  AND clock_in >= $2 AND clock_in < $3
		  AND status = ANY($4)
		ORDER BY clock_in
	`
	rows, err := q.Query(ctx, query, employeeID, weekStart, weekEnd, statuses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTimeEntries(rows)
}

func (r *timeEntryRepositoryImpl) Update(ctx context.Context, entry timesheet.TimeEntry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE time_entries SET
			clock_out = $2,
			clock_out_latitude = $3,
			clock_out_longitude = $4,
			total_hours = $5,
			regular_hours = $6,
			overtime_hours = $7,
			double_time_hours = $8,
			status = $9,
			approved_by = $10,
			approved_at = $11,
			rejection_reason = $12,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		entry.ID, entry.ClockOut, entry.ClockOutLatitude, entry.ClockOutLongitude,
		entry.TotalHours, entry.RegularHours, entry.OvertimeHours, entry.DoubleTimeHours,
		entry.Status, entry.ApprovedBy, entry.ApprovedAt, entry.RejectionReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return timesheet.ErrTimeEntryNotFound
	}
	return nil
}

func (r *timeEntryRepositoryImpl) InsertStatusChange(ctx context.Context, change timesheet.StatusChange) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO time_entry_status_history (
			id, time_entry_id, from_status, to_status, actor_id, reason, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := q.Exec(ctx, query,
		uuid.NewString(), change.TimeEntryID, change.FromStatus, change.ToStatus,
		change.ActorID, change.Reason, change.ChangedAt)
	return err
}

func (r *timeEntryRepositoryImpl) ListStatusChanges(ctx context.Context, timeEntryID string) ([]timesheet.StatusChange, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, time_entry_id, from_status, to_status, actor_id, reason, changed_at
		FROM time_entry_status_history
		WHERE time_entry_id = $1
		ORDER BY changed_at
	`
	rows, err := q.Query(ctx, query, timeEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changes []timesheet.StatusChange
	for rows.Next() {
		var c timesheet.StatusChange
		err := rows.Scan(&c.ID, &c.TimeEntryID, &c.FromStatus, &c.ToStatus, &c.ActorID, &c.Reason, &c.ChangedAt)
		if err != nil {
			return nil, err
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

func collectTimeEntries(rows pgx.Rows) ([]timesheet.TimeEntry, error) {
	var entries []timesheet.TimeEntry
	for rows.Next() {
		var e timesheet.TimeEntry
		if err := scanTimeEntry(rows, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
