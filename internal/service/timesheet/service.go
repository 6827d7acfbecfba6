// Package timesheet runs the attendance workflows: the live clock-in/out
// flow, manual entries, the submit/approve/reject machine and corrections.
// Approval attaches the overtime calculator's output to the entry.
package timesheet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
)

type Service struct {
	tx        database.Transactor
	entries   timesheet.TimeEntryRepository
	breaks    timesheet.BreakEntryRepository
	policies  timesheet.OvertimePolicyRepository
	employees employee.EmployeeRepository
	audit     audit.Sink
	clock     clock.Clock
}

func NewService(
	tx database.Transactor,
	entries timesheet.TimeEntryRepository,
	breaks timesheet.BreakEntryRepository,
	policies timesheet.OvertimePolicyRepository,
	employees employee.EmployeeRepository,
	auditSink audit.Sink,
	clk clock.Clock,
) *Service {
	return &Service{
		tx:        tx,
		entries:   entries,
		breaks:    breaks,
		policies:  policies,
		employees: employees,
		audit:     auditSink,
		clock:     clk,
	}
}

// ClockIn opens a live entry. At most one active entry per employee.
func (s *Service) ClockIn(ctx context.Context, employeeID string, req timesheet.ClockRequest) (timesheet.TimeEntry, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	if !emp.IsActive {
		return timesheet.TimeEntry{}, employee.ErrEmployeeInactive
	}

	_, err = s.entries.GetActiveByEmployee(ctx, employeeID)
	if err == nil {
		return timesheet.TimeEntry{}, timesheet.ErrAlreadyClockedIn
	}
	if !errors.Is(err, timesheet.ErrNoActiveEntry) {
		return timesheet.TimeEntry{}, err
	}

	entry := timesheet.TimeEntry{
		ID:               uuid.NewString(),
		EmployeeID:       employeeID,
		ClockIn:          s.clock.Now(),
		ClockInLatitude:  req.Latitude,
		ClockInLongitude: req.Longitude,
		Status:           timesheet.TimeEntryStatusActive,
	}
	return s.entries.Create(ctx, entry)
}

// ClockOut closes the active entry and classifies its hours. Open breaks
// must be ended first.
func (s *Service) ClockOut(ctx context.Context, employeeID string, req timesheet.ClockRequest) (timesheet.TimeEntry, error) {
	var out timesheet.TimeEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		active, err := s.entries.GetActiveByEmployee(ctx, employeeID)
		if err != nil {
			return err
		}
		entry, err := s.entries.GetByIDForUpdate(ctx, active.ID)
		if err != nil {
			return err
		}
		if entry.Status != timesheet.TimeEntryStatusActive {
			return timesheet.ErrNoActiveEntry
		}

		if _, err := s.breaks.GetOpenByEntry(ctx, entry.ID); err == nil {
			return timesheet.ErrOpenBreak
		} else if !errors.Is(err, timesheet.ErrNoOpenBreak) {
			return err
		}

		now := s.clock.Now()
		entry.ClockOut = &now
		entry.ClockOutLatitude = req.Latitude
		entry.ClockOutLongitude = req.Longitude
		entry.Breaks, err = s.breaks.ListByEntry(ctx, entry.ID)
		if err != nil {
			return err
		}

		if err := s.attachHours(ctx, &entry); err != nil {
			return err
		}

		from := entry.Status
		entry.Status = timesheet.TimeEntryStatusCompleted
		if err := s.entries.Update(ctx, entry); err != nil {
			return err
		}
		if err := s.recordTransition(ctx, entry.ID, from, entry.Status, employeeID, "clock out"); err != nil {
			return err
		}
		out = entry
		return nil
	})
	return out, err
}

// StartBreak opens a break on the active entry.
func (s *Service) StartBreak(ctx context.Context, employeeID string, req timesheet.StartBreakRequest) (timesheet.BreakEntry, error) {
	entry, err := s.entries.GetActiveByEmployee(ctx, employeeID)
	if err != nil {
		return timesheet.BreakEntry{}, err
	}
	if _, err := s.breaks.GetOpenByEntry(ctx, entry.ID); err == nil {
		return timesheet.BreakEntry{}, timesheet.ErrOpenBreak
	} else if !errors.Is(err, timesheet.ErrNoOpenBreak) {
		return timesheet.BreakEntry{}, err
	}

	brk := timesheet.BreakEntry{
		ID:          uuid.NewString(),
		TimeEntryID: entry.ID,
		Type:        timesheet.BreakType(req.Type),
		StartTime:   s.clock.Now(),
		Paid:        req.Paid,
	}
	return s.breaks.Create(ctx, brk)
}

// EndBreak closes the open break on the active entry.
func (s *Service) EndBreak(ctx context.Context, employeeID string) (timesheet.BreakEntry, error) {
	entry, err := s.entries.GetActiveByEmployee(ctx, employeeID)
	if err != nil {
		return timesheet.BreakEntry{}, err
	}
	brk, err := s.breaks.GetOpenByEntry(ctx, entry.ID)
	if err != nil {
		return timesheet.BreakEntry{}, err
	}

	now := s.clock.Now()
	if now.Before(brk.StartTime) {
		return timesheet.BreakEntry{}, timesheet.ErrInvalidTimeSequence
	}
	brk.EndTime = &now
	if err := s.breaks.Update(ctx, brk); err != nil {
		return timesheet.BreakEntry{}, err
	}
	return brk, nil
}

// CreateManualEntry records a past span as a draft awaiting submission.
func (s *Service) CreateManualEntry(ctx context.Context, employeeID string, req timesheet.CreateManualEntryRequest) (timesheet.TimeEntry, error) {
	clockIn, clockOut, err := parseSpan(req.ClockIn, req.ClockOut)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}

	entry := timesheet.TimeEntry{
		ID:          uuid.NewString(),
		EmployeeID:  employeeID,
		ClockIn:     clockIn,
		ClockOut:    &clockOut,
		Status:      timesheet.TimeEntryStatusDraft,
		ManualEntry: true,
	}

	created, err := s.entries.Create(ctx, entry)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	for _, mb := range req.Breaks {
		start, end, err := parseSpan(mb.StartTime, mb.EndTime)
		if err != nil {
			return timesheet.TimeEntry{}, err
		}
		brk, err := s.breaks.Create(ctx, timesheet.BreakEntry{
			ID:          uuid.NewString(),
			TimeEntryID: created.ID,
			Type:        timesheet.BreakType(mb.Type),
			StartTime:   start,
			EndTime:     &end,
			Paid:        mb.Paid,
		})
		if err != nil {
			return timesheet.TimeEntry{}, err
		}
		created.Breaks = append(created.Breaks, brk)
	}
	return created, nil
}

// Submit moves a draft (or a rejected entry, after edits) to submitted.
func (s *Service) Submit(ctx context.Context, entryID, actorID string) (timesheet.TimeEntry, error) {
	return s.transition(ctx, entryID, timesheet.TimeEntryStatusSubmitted, actorID, "submitted for approval", nil)
}

// Approve finalizes a submitted entry: hours are classified under the
// overtime policy in force and stamped onto the entry.
func (s *Service) Approve(ctx context.Context, entryID, approverID string) (timesheet.TimeEntry, error) {
	return s.transition(ctx, entryID, timesheet.TimeEntryStatusApproved, approverID, "approved", func(ctx context.Context, entry *timesheet.TimeEntry) error {
		var err error
		entry.Breaks, err = s.breaks.ListByEntry(ctx, entry.ID)
		if err != nil {
			return err
		}
		if err := s.attachHours(ctx, entry); err != nil {
			return err
		}
		now := s.clock.Now()
		entry.ApprovedBy = &approverID
		entry.ApprovedAt = &now
		return nil
	})
}

// Reject sends a submitted entry back with a reason.
func (s *Service) Reject(ctx context.Context, entryID, approverID string, req timesheet.RejectEntryRequest) (timesheet.TimeEntry, error) {
	return s.transition(ctx, entryID, timesheet.TimeEntryStatusRejected, approverID, req.Reason, func(_ context.Context, entry *timesheet.TimeEntry) error {
		entry.RejectionReason = &req.Reason
		return nil
	})
}

// Correct opens a correction for an approved entry. The original is never
// touched; the correction is a fresh submitted entry pointing back at it.
func (s *Service) Correct(ctx context.Context, originalID, actorID string, req timesheet.CreateManualEntryRequest) (timesheet.TimeEntry, error) {
	original, err := s.entries.GetByID(ctx, originalID)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	if original.Status != timesheet.TimeEntryStatusApproved {
		return timesheet.TimeEntry{}, timesheet.ErrNotCorrectable
	}

	clockIn, clockOut, err := parseSpan(req.ClockIn, req.ClockOut)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}

	correction := timesheet.TimeEntry{
		ID:             uuid.NewString(),
		EmployeeID:     original.EmployeeID,
		ClockIn:        clockIn,
		ClockOut:       &clockOut,
		Status:         timesheet.TimeEntryStatusSubmitted,
		ManualEntry:    true,
		CorrectionOfID: &original.ID,
	}
	created, err := s.entries.Create(ctx, correction)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	for _, mb := range req.Breaks {
		start, end, err := parseSpan(mb.StartTime, mb.EndTime)
		if err != nil {
			return timesheet.TimeEntry{}, err
		}
		if _, err := s.breaks.Create(ctx, timesheet.BreakEntry{
			ID:          uuid.NewString(),
			TimeEntryID: created.ID,
			Type:        timesheet.BreakType(mb.Type),
			StartTime:   start,
			EndTime:     &end,
			Paid:        mb.Paid,
		}); err != nil {
			return timesheet.TimeEntry{}, err
		}
	}

	if err := s.recordTransition(ctx, created.ID, timesheet.TimeEntryStatusDraft, created.Status, actorID, fmt.Sprintf("correction of %s", original.ID)); err != nil {
		return timesheet.TimeEntry{}, err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:      actorID,
		Action:     "timesheet.correct",
		EntityKind: "time_entry",
		EntityID:   created.ID,
		Before:     original.ID,
		After:      created.ID,
		At:         s.clock.Now(),
	})
	return created, nil
}

// WeeklyHours classifies the employee's approved and completed entries for
// the week starting at weekStart, with the weekly overtime threshold applied
// across the whole week.
func (s *Service) WeeklyHours(ctx context.Context, employeeID string, weekStart time.Time) ([]HourSplit, error) {
	weekEnd := weekStart.AddDate(0, 0, 7)
	entries, err := s.entries.ListForWeek(ctx, employeeID, weekStart, weekEnd, []timesheet.TimeEntryStatus{
		timesheet.TimeEntryStatusApproved,
		timesheet.TimeEntryStatusCompleted,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	policy, err := s.activePolicy(ctx, employeeID, weekStart)
	if err != nil {
		return nil, err
	}

	splits := make([]HourSplit, 0, len(entries))
	for _, entry := range entries {
		entry.Breaks, err = s.breaks.ListByEntry(ctx, entry.ID)
		if err != nil {
			return nil, err
		}
		split, err := ComputeHours(entry, policy)
		if err != nil {
			return nil, err
		}
		splits = append(splits, split)
	}
	return ApplyWeeklyOvertime(splits, policy), nil
}

// GetEntry returns one entry with its breaks and status history loaded.
func (s *Service) GetEntry(ctx context.Context, entryID string) (timesheet.TimeEntry, []timesheet.StatusChange, error) {
	entry, err := s.entries.GetByID(ctx, entryID)
	if err != nil {
		return timesheet.TimeEntry{}, nil, err
	}
	entry.Breaks, err = s.breaks.ListByEntry(ctx, entryID)
	if err != nil {
		return timesheet.TimeEntry{}, nil, err
	}
	history, err := s.entries.ListStatusChanges(ctx, entryID)
	if err != nil {
		return timesheet.TimeEntry{}, nil, err
	}
	return entry, history, nil
}

// ListEntries returns the employee's entries in [from, to].
func (s *Service) ListEntries(ctx context.Context, employeeID string, from, to time.Time) ([]timesheet.TimeEntry, error) {
	return s.entries.ListByEmployee(ctx, employeeID, from, to)
}

// transition re-reads the entry under a row lock, validates the status
// machine, applies the mutator and writes the history row, all in one
// transaction.
func (s *Service) transition(ctx context.Context, entryID string, to timesheet.TimeEntryStatus, actorID, reason string, mutate func(context.Context, *timesheet.TimeEntry) error) (timesheet.TimeEntry, error) {
	var out timesheet.TimeEntry
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		entry, err := s.entries.GetByIDForUpdate(ctx, entryID)
		if err != nil {
			return err
		}
		if !canTransition(entry.Status, to) {
			return fmt.Errorf("%s -> %s: %w", entry.Status, to, timesheet.ErrInvalidTransition)
		}

		from := entry.Status
		entry.Status = to
		if mutate != nil {
			if err := mutate(ctx, &entry); err != nil {
				return err
			}
		}
		if err := s.entries.Update(ctx, entry); err != nil {
			return err
		}
		if err := s.recordTransition(ctx, entry.ID, from, to, actorID, reason); err != nil {
			return err
		}

		s.audit.Record(ctx, audit.Event{
			Actor:      actorID,
			Action:     "timesheet." + string(to),
			EntityKind: "time_entry",
			EntityID:   entry.ID,
			Before:     string(from),
			After:      string(to),
			At:         s.clock.Now(),
		})
		out = entry
		return nil
	})
	return out, err
}

func canTransition(from, to timesheet.TimeEntryStatus) bool {
	switch to {
	case timesheet.TimeEntryStatusSubmitted:
		return from == timesheet.TimeEntryStatusDraft || from == timesheet.TimeEntryStatusRejected
	case timesheet.TimeEntryStatusApproved, timesheet.TimeEntryStatusRejected:
		return from == timesheet.TimeEntryStatusSubmitted
	case timesheet.TimeEntryStatusCompleted:
		return from == timesheet.TimeEntryStatusActive
	default:
		return false
	}
}

func (s *Service) recordTransition(ctx context.Context, entryID string, from, to timesheet.TimeEntryStatus, actorID, reason string) error {
	return s.entries.InsertStatusChange(ctx, timesheet.StatusChange{
		ID:          uuid.NewString(),
		TimeEntryID: entryID,
		FromStatus:  from,
		ToStatus:    to,
		ActorID:     actorID,
		Reason:      reason,
		ChangedAt:   s.clock.Now(),
	})
}

// attachHours runs the overtime calculator for the entry's policy and
// stamps the split onto the entry.
func (s *Service) attachHours(ctx context.Context, entry *timesheet.TimeEntry) error {
	policy, err := s.activePolicy(ctx, entry.EmployeeID, entry.ClockIn)
	if err != nil {
		return err
	}
	split, err := ComputeHours(*entry, policy)
	if err != nil {
		return err
	}
	entry.TotalHours = split.Total
	entry.RegularHours = split.Regular
	entry.OvertimeHours = split.Overtime
	entry.DoubleTimeHours = split.DoubleTime
	return nil
}

// activePolicy resolves the overtime policy in force for the employee's
// department at a point in time. When several windows overlap the most
// recently effective one wins.
func (s *Service) activePolicy(ctx context.Context, employeeID string, at time.Time) (timesheet.OvertimePolicy, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return timesheet.OvertimePolicy{}, err
	}
	policies, err := s.policies.FindActive(ctx, at)
	if err != nil {
		return timesheet.OvertimePolicy{}, err
	}

	var best *timesheet.OvertimePolicy
	for i := range policies {
		if !policies[i].AppliesTo(emp.Department, at) {
			continue
		}
		if best == nil || policies[i].EffectiveDate.After(best.EffectiveDate) {
			best = &policies[i]
		}
	}
	if best == nil {
		return timesheet.OvertimePolicy{}, timesheet.ErrOvertimePolicyNotFound
	}
	return *best, nil
}

func parseSpan(inRaw, outRaw string) (time.Time, time.Time, error) {
	clockIn, err := time.Parse(time.RFC3339, inRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start time %q: %w", inRaw, err)
	}
	clockOut, err := time.Parse(time.RFC3339, outRaw)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end time %q: %w", outRaw, err)
	}
	if clockOut.Before(clockIn) {
		return time.Time{}, time.Time{}, timesheet.ErrInvalidTimeSequence
	}
	return clockIn, clockOut, nil
}
