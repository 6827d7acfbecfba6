package leave

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Policy rules are tagged variants rather than loose maps so the evaluator
// can switch over them exhaustively. They round-trip to JSONB columns the
// same way QuotaRules-style documents do.

type EligibilityRuleKind string

const (
	EligibilityKindTenure         EligibilityRuleKind = "tenure"
	EligibilityKindEmploymentType EligibilityRuleKind = "employment_type"
	EligibilityKindDepartment     EligibilityRuleKind = "department"
	EligibilityKindCustom         EligibilityRuleKind = "custom"
)

// EligibilityRule is one admission predicate; only the fields for its Kind
// are meaningful.
type EligibilityRule struct {
	Kind EligibilityRuleKind `json:"kind"`

	// tenure
	MinTenureDays int `json:"min_tenure_days,omitempty"`

	// employment_type
	EmploymentTypes []string `json:"employment_types,omitempty"`

	// department
	Departments []string `json:"departments,omitempty"`

	// custom
	Custom *CustomPredicate `json:"custom,omitempty"`
}

type Operator string

const (
	OperatorEquals      Operator = "EQUALS"
	OperatorGreaterThan Operator = "GREATER_THAN"
	OperatorLessThan    Operator = "LESS_THAN"
	OperatorIn          Operator = "IN"
	OperatorNotIn       Operator = "NOT_IN"
)

// CustomPredicate compares a named employee attribute against a value (or
// value set for IN/NOT_IN).
type CustomPredicate struct {
	Field  string   `json:"field"`
	Op     Operator `json:"op"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
}

type UsageRuleKind string

const (
	UsageKindMaxConsecutiveDays UsageRuleKind = "max_consecutive_days"
	UsageKindAdvanceNotice      UsageRuleKind = "advance_notice"
	UsageKindBlackoutPeriod     UsageRuleKind = "blackout_period"
	UsageKindMinimumIncrement   UsageRuleKind = "minimum_increment"
)

// UsageRule constrains how an admitted leave type may be consumed.
type UsageRule struct {
	Kind UsageRuleKind `json:"kind"`

	MaxConsecutiveDays int              `json:"max_consecutive_days,omitempty"`
	AdvanceNoticeDays  int              `json:"advance_notice_days,omitempty"`
	Blackout           *BlackoutPeriod  `json:"blackout,omitempty"`
	MinimumIncrement   *decimal.Decimal `json:"minimum_increment,omitempty"`
}

// BlackoutPeriod is a date range during which the leave type cannot be used.
type BlackoutPeriod struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// AccrualRule describes how a balance earns leave under the policy.
type AccrualRule struct {
	Rate              decimal.Decimal  `json:"rate"`
	Period            AccrualPeriod    `json:"period"`
	MaxBalance        *decimal.Decimal `json:"max_balance,omitempty"`
	CarryoverLimit    *decimal.Decimal `json:"carryover_limit,omitempty"`
	WaitingPeriodDays int              `json:"waiting_period_days,omitempty"`
}

// EligibilityRules / UsageRules are stored as JSONB documents.

type EligibilityRules []EligibilityRule

func (r EligibilityRules) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *EligibilityRules) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan EligibilityRules: invalid type")
	}
	return json.Unmarshal(bytes, r)
}

type UsageRules []UsageRule

func (r UsageRules) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return json.Marshal(r)
}

func (r *UsageRules) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan UsageRules: invalid type")
	}
	return json.Unmarshal(bytes, r)
}

func (a AccrualRule) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *AccrualRule) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to scan AccrualRule: invalid type")
	}
	return json.Unmarshal(bytes, a)
}
