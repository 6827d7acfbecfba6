package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// LeaveType entity. Immutable reference data; created by administrators and
// rarely mutated afterwards.
type LeaveType struct {
	ID          string
	Code        string
	Name        string
	Description *string

	Paid             bool
	RequiresApproval bool
	AccrualBased     bool

	// Request Rules
	MaxConsecutiveDays *int
	AdvanceNoticeDays  *int
	AllowsPartialDays  bool

	// When true, day counting skips weekends and holidays.
	BusinessDaysOnly bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccrualPeriod is the cadence at which a balance earns leave.
type AccrualPeriod string

const (
	AccrualPeriodWeekly  AccrualPeriod = "weekly"
	AccrualPeriodMonthly AccrualPeriod = "monthly"
	AccrualPeriodYearly  AccrualPeriod = "yearly"
)

// Days returns the nominal length of the period in days, used for linear
// proration of partial periods.
func (p AccrualPeriod) Days() decimal.Decimal {
	switch p {
	case AccrualPeriodWeekly:
		return decimal.NewFromInt(7)
	case AccrualPeriodMonthly:
		return decimal.NewFromInt(30)
	default:
		return decimal.NewFromInt(365)
	}
}

// LeavePolicy binds a leave type to an effective window, the employee groups
// it applies to, and its rule collections. At most one active policy may
// match a given employee+leave type on any date; an ambiguous match is a
// data-integrity hazard the engine rejects.
type LeavePolicy struct {
	ID          string
	LeaveTypeID string
	Name        string

	EffectiveDate time.Time
	EndDate       *time.Time

	// Departments the policy applies to. Empty means company-wide.
	EmployeeGroups []string

	Eligibility EligibilityRules
	Accrual     AccrualRule
	Usage       UsageRules

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppliesTo reports whether the policy is in effect for the department on
// the given date.
func (p LeavePolicy) AppliesTo(department string, at time.Time) bool {
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

// LeaveBalance - per (employee, leave type). The accrual fields are a
// snapshot of the policy's AccrualRule taken when the balance was opened.
//
// Invariants: 0 <= CurrentBalance <= MaxBalance (when set). CurrentBalance is
// mutated exclusively through ledger transactions, never by direct
// assignment, and always equals the sum of the transaction history.
type LeaveBalance struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	CurrentBalance decimal.Decimal
	AccrualRate    decimal.Decimal
	AccrualPeriod  AccrualPeriod
	MaxBalance     *decimal.Decimal
	CarryoverLimit *decimal.Decimal

	LastAccrualDate *time.Time
	YTDUsed         decimal.Decimal
	YTDAccrued      decimal.Decimal

	// Accrual begins here; the policy's waiting period is already folded in
	// when the balance is opened.
	EffectiveDate time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type TransactionType string

const (
	TransactionTypeAccrual    TransactionType = "accrual"
	TransactionTypeUsage      TransactionType = "usage"
	TransactionTypeAdjustment TransactionType = "adjustment"
	TransactionTypeCarryover  TransactionType = "carryover"
)

// AccrualTransaction is an immutable ledger entry. The ledger is append-only:
// corrections are compensating adjustments, never edits or deletes.
type AccrualTransaction struct {
	ID        string
	BalanceID string

	Type   TransactionType
	Amount decimal.Decimal // signed

	TransactionDate time.Time
	LeaveRequestID  *string
	ActorID         string
	Reason          string

	CreatedAt time.Time
}

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending   LeaveRequestStatus = "pending"
	LeaveRequestStatusApproved  LeaveRequestStatus = "approved"
	LeaveRequestStatusDenied    LeaveRequestStatus = "denied"
	LeaveRequestStatusCancelled LeaveRequestStatus = "cancelled"
)

// Terminal reports whether no further transitions are legal from s.
func (s LeaveRequestStatus) Terminal() bool {
	return s == LeaveRequestStatusApproved || s == LeaveRequestStatusDenied || s == LeaveRequestStatusCancelled
}

// LeaveRequest entity. Invariant: EndDate >= StartDate; review fields are
// populated iff status is approved or denied.
type LeaveRequest struct {
	ID          string
	EmployeeID  string
	LeaveTypeID string

	StartDate time.Time
	EndDate   time.Time

	// PartialDayFraction is the requested fraction for a single partial day
	// (e.g. 0.5); full-day requests leave it at 1.
	PartialDayFraction decimal.Decimal
	TotalDays          decimal.Decimal

	Reason string

	Status       LeaveRequestStatus
	ReviewedBy   *string
	ReviewedAt   *time.Time
	ReviewReason *string

	SubmittedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Overlaps reports whether the request's date range intersects [start, end].
func (r LeaveRequest) Overlaps(start, end time.Time) bool {
	return !r.StartDate.After(end) && !r.EndDate.Before(start)
}

// StatusChange is one row of the request's status history, written as an
// explicit side effect of every workflow transition.
type StatusChange struct {
	ID         string
	RequestID  string
	FromStatus LeaveRequestStatus
	ToStatus   LeaveRequestStatus
	ActorID    string
	Reason     string
	ChangedAt  time.Time
}
