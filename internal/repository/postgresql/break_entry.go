package postgresql

import (
	"context"
	"errors"

	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type breakEntryRepositoryImpl struct {
	db *database.DB
}

func NewBreakEntryRepository(db *database.DB) timesheet.BreakEntryRepository {
	return &breakEntryRepositoryImpl{db: db}
}

func (r *breakEntryRepositoryImpl) Create(ctx context.Context, brk timesheet.BreakEntry) (timesheet.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO break_entries (
			id, time_entry_id, type, start_time, end_time, paid, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		uuid.NewString(), brk.TimeEntryID, brk.Type, brk.StartTime, brk.EndTime, brk.Paid,
	).Scan(&brk.ID, &brk.CreatedAt)
	if err != nil {
		return timesheet.BreakEntry{}, err
	}

	return brk, nil
}

func (r *breakEntryRepositoryImpl) GetOpenByEntry(ctx context.Context, timeEntryID string) (timesheet.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, time_entry_id, type, start_time, end_time, paid, created_at
		FROM break_entries
		WHERE time_entry_id = $1 AND end_time IS NULL
		LIMIT 1
	`
	var b timesheet.BreakEntry
	err := q.QueryRow(ctx, query, timeEntryID).Scan(
		&b.ID, &b.TimeEntryID, &b.Type, &b.StartTime, &b.EndTime, &b.Paid, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return timesheet.BreakEntry{}, timesheet.ErrNoOpenBreak
		}
		return timesheet.BreakEntry{}, err
	}
	return b, nil
}

func (r *breakEntryRepositoryImpl) ListByEntry(ctx context.Context, timeEntryID string) ([]timesheet.BreakEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, time_entry_id, type, start_time, end_time, paid, created_at
		FROM break_entries
		WHERE time_entry_id = $1
		ORDER BY start_time
	`
	rows, err := q.Query(ctx, query, timeEntryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var breaks []timesheet.BreakEntry
	for rows.Next() {
		var b timesheet.BreakEntry
		err := rows.Scan(&b.ID, &b.TimeEntryID, &b.Type, &b.StartTime, &b.EndTime, &b.Paid, &b.CreatedAt)
		if err != nil {
			return nil, err
		}
		breaks = append(breaks, b)
	}
	return breaks, rows.Err()
}

func (r *breakEntryRepositoryImpl) Update(ctx context.Context, brk timesheet.BreakEntry) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE break_entries SET end_time = $2 WHERE id = $1`
	tag, err := q.Exec(ctx, query, brk.ID, brk.EndTime)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return timesheet.ErrNoOpenBreak
	}
	return nil
}
