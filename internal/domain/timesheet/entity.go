package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

type TimeEntryStatus string

const (
	// Manual-entry flow
	TimeEntryStatusDraft     TimeEntryStatus = "draft"
	TimeEntryStatusSubmitted TimeEntryStatus = "submitted"
	TimeEntryStatusApproved  TimeEntryStatus = "approved"
	TimeEntryStatusRejected  TimeEntryStatus = "rejected"

	// Live clock flow
	TimeEntryStatusActive    TimeEntryStatus = "active"
	TimeEntryStatusCompleted TimeEntryStatus = "completed"
)

// TimeEntry entity. Hour fields are populated by the overtime calculator;
// they are zero until the entry is closed.
type TimeEntry struct {
	ID         string
	EmployeeID string

	ClockIn  time.Time
	ClockOut *time.Time

	ClockInLatitude   *float64
	ClockInLongitude  *float64
	ClockOutLatitude  *float64
	ClockOutLongitude *float64

	TotalHours      decimal.Decimal
	RegularHours    decimal.Decimal
	OvertimeHours   decimal.Decimal
	DoubleTimeHours decimal.Decimal

	Status      TimeEntryStatus
	ManualEntry bool

	// A correction never mutates the approved original; it is a new
	// submitted entry pointing back at it.
	CorrectionOfID *string

	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string

	Breaks []BreakEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

type BreakType string

const (
	BreakTypeLunch    BreakType = "lunch"
	BreakTypeShort    BreakType = "short_break"
	BreakTypePersonal BreakType = "personal"
)

// BreakEntry belongs to exactly one TimeEntry.
type BreakEntry struct {
	ID          string
	TimeEntryID string

	Type      BreakType
	StartTime time.Time
	EndTime   *time.Time
	Paid      bool

	CreatedAt time.Time
}

// Duration returns the break length, zero while the break is still open.
func (b BreakEntry) Duration() time.Duration {
	if b.EndTime == nil {
		return 0
	}
	return b.EndTime.Sub(b.StartTime)
}

// OvertimePolicy configures the regular/overtime/double-time thresholds.
type OvertimePolicy struct {
	ID   string
	Name string

	DailyThreshold  decimal.Decimal // hours per day paid at regular rate
	WeeklyThreshold decimal.Decimal // regular hours per week before weekly OT

	OvertimeMultiplier   decimal.Decimal
	DoubleTimeThreshold  *decimal.Decimal
	DoubleTimeMultiplier *decimal.Decimal

	// Departments the policy applies to. Empty means company-wide.
	EmployeeGroups []string

	EffectiveDate time.Time
	EndDate       *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesTo reports whether the policy is in effect for the department on
// the given date.
func (p OvertimePolicy) AppliesTo(department string, at time.Time) bool {
	if at.Before(p.EffectiveDate) {
		return false
	}
	if p.EndDate != nil && at.After(*p.EndDate) {
		return false
	}
	if len(p.EmployeeGroups) == 0 {
		return true
	}
	for _, g := range p.EmployeeGroups {
		if g == department {
			return true
		}
	}
	return false
}

// StatusChange is one row of the entry's status history, written as an
// explicit side effect of every workflow transition.
type StatusChange struct {
	ID          string
	TimeEntryID string
	FromStatus  TimeEntryStatus
	ToStatus    TimeEntryStatus
	ActorID     string
	Reason      string
	ChangedAt   time.Time
}
