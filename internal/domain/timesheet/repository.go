package timesheet

import (
	"context"
	"time"
)

// TimeEntryRepository - interface for time_entries table
type TimeEntryRepository interface {
	Create(ctx context.Context, entry TimeEntry) (TimeEntry, error)
	GetByID(ctx context.Context, id string) (TimeEntry, error)
	// GetByIDForUpdate takes a row lock; must run inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (TimeEntry, error)
	GetActiveByEmployee(ctx context.Context, employeeID string) (TimeEntry, error)
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]TimeEntry, error)
	// ListForWeek returns the employee's entries in the given statuses whose
	// clock-in falls in [weekStart, weekEnd], ordered by clock-in.
	ListForWeek(ctx context.Context, employeeID string, weekStart, weekEnd time.Time, statuses []TimeEntryStatus) ([]TimeEntry, error)
	Update(ctx context.Context, entry TimeEntry) error
	InsertStatusChange(ctx context.Context, change StatusChange) error
	ListStatusChanges(ctx context.Context, timeEntryID string) ([]StatusChange, error)
}

// BreakEntryRepository - interface for break_entries table
type BreakEntryRepository interface {
	Create(ctx context.Context, brk BreakEntry) (BreakEntry, error)
	GetOpenByEntry(ctx context.Context, timeEntryID string) (BreakEntry, error)
	ListByEntry(ctx context.Context, timeEntryID string) ([]BreakEntry, error)
	Update(ctx context.Context, brk BreakEntry) error
}

// OvertimePolicyRepository - interface for overtime_policies table
type OvertimePolicyRepository interface {
	Create(ctx context.Context, policy OvertimePolicy) (OvertimePolicy, error)
	GetByID(ctx context.Context, id string) (OvertimePolicy, error)
	// FindActive returns every policy whose effective window covers the date.
	FindActive(ctx context.Context, at time.Time) ([]OvertimePolicy, error)
}
