// Package policy evaluates leave policies against a concrete request. The
// evaluator is pure: it reads employee, policy, balance and overlap data
// handed to it and returns a result value. Ineligibility is a value, not an
// error; callers decide how to surface it.
package policy

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
)

// Violation codes, stable across the API surface.
const (
	CodeTenure              = "TENURE"
	CodeEmploymentType      = "EMPLOYMENT_TYPE"
	CodeDepartment          = "DEPARTMENT"
	CodeCustomRule          = "CUSTOM_RULE"
	CodeMaxConsecutiveDays  = "MAX_CONSECUTIVE_DAYS"
	CodeAdvanceNotice       = "ADVANCE_NOTICE"
	CodeBlackoutPeriod      = "BLACKOUT_PERIOD"
	CodeMinimumIncrement    = "MINIMUM_INCREMENT"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeOverlap             = "OVERLAP"
	CodeInvalidDateRange    = "INVALID_DATE_RANGE"
)

// RuleViolation is one failed check with enough detail to explain the denial
// to the requester.
type RuleViolation struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// EligibilityResult collects every violation; evaluation never stops at the
// first failure.
type EligibilityResult struct {
	Eligible      bool            `json:"eligible"`
	Violations    []RuleViolation `json:"violations,omitempty"`
	RequestedDays decimal.Decimal `json:"requested_days"`
}

// ViolationError adapts an ineligible result for callers that must abort on
// it, such as request submission.
type ViolationError struct {
	Result EligibilityResult
}

func (e *ViolationError) Error() string {
	codes := make([]string, 0, len(e.Result.Violations))
	for _, v := range e.Result.Violations {
		codes = append(codes, v.Code)
	}
	return "leave request violates policy: " + strings.Join(codes, ", ")
}

// Evaluation is everything CheckEligibility needs, pre-fetched by the
// caller. Overlapping must hold the employee's PENDING and APPROVED requests
// intersecting the requested range; Balance may be nil for leave types that
// do not track one.
type Evaluation struct {
	Employee    employee.Employee
	LeaveType   leave.LeaveType
	Policy      leave.LeavePolicy
	Balance     *leave.LeaveBalance
	Overlapping []leave.LeaveRequest
	Request     leave.LeaveRequest
}

type Evaluator struct {
	clock    clock.Clock
	calendar clock.Calendar
}

func NewEvaluator(clk clock.Clock, cal clock.Calendar) *Evaluator {
	return &Evaluator{clock: clk, calendar: cal}
}

// SelectActive picks the single policy in force for the department on the
// date. More than one match is a data-integrity hazard and is refused
// rather than resolved by precedence.
func SelectActive(policies []leave.LeavePolicy, department string, at time.Time) (leave.LeavePolicy, error) {
	var matched []leave.LeavePolicy
	for _, p := range policies {
		if p.AppliesTo(department, at) {
			matched = append(matched, p)
		}
	}
	switch len(matched) {
	case 0:
		return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
	case 1:
		return matched[0], nil
	default:
		return leave.LeavePolicy{}, leave.ErrAmbiguousPolicy
	}
}

// CheckEligibility runs every eligibility rule, usage rule, the balance
// check and the overlap check, and reports all violations together.
func (e *Evaluator) CheckEligibility(ev Evaluation) EligibilityResult {
	result := EligibilityResult{Eligible: true}

	if ev.Request.EndDate.Before(ev.Request.StartDate) {
		result.fail(CodeInvalidDateRange, "end date precedes start date")
		return result
	}

	days := e.RequestedDays(ev.LeaveType, ev.Request)
	result.RequestedDays = days

	for _, rule := range ev.Policy.Eligibility {
		e.checkEligibilityRule(&result, rule, ev)
	}
	for _, rule := range ev.Policy.Usage {
		e.checkUsageRule(&result, rule, ev, days)
	}
	e.checkLeaveTypeLimits(&result, ev, days)
	e.checkBalance(&result, ev, days)
	e.checkOverlap(&result, ev)

	return result
}

func (r *EligibilityResult) fail(code, detail string) {
	r.Eligible = false
	r.Violations = append(r.Violations, RuleViolation{Code: code, Detail: detail})
}

// RequestedDays counts the days the request consumes. Business-day leave
// types skip weekends and holidays; a single-day request on a type that
// allows partial days consumes its fraction.
func (e *Evaluator) RequestedDays(lt leave.LeaveType, req leave.LeaveRequest) decimal.Decimal {
	days := decimal.Zero
	for d := req.StartDate; !d.After(req.EndDate); d = d.AddDate(0, 0, 1) {
		if lt.BusinessDaysOnly && !e.calendar.IsBusinessDay(d) {
			continue
		}
		days = days.Add(decimal.NewFromInt(1))
	}
	if lt.AllowsPartialDays && req.StartDate.Equal(req.EndDate) && req.PartialDayFraction.IsPositive() && req.PartialDayFraction.LessThan(decimal.NewFromInt(1)) {
		days = req.PartialDayFraction
	}
	return days
}

func (e *Evaluator) checkEligibilityRule(result *EligibilityResult, rule leave.EligibilityRule, ev Evaluation) {
	switch rule.Kind {
	case leave.EligibilityKindTenure:
		tenure := ev.Employee.TenureDays(e.clock.Now())
		if tenure < rule.MinTenureDays {
			result.fail(CodeTenure, fmt.Sprintf("requires %d days of service, employee has %d", rule.MinTenureDays, tenure))
		}
	case leave.EligibilityKindEmploymentType:
		if !containsString(rule.EmploymentTypes, string(ev.Employee.EmploymentType)) {
			result.fail(CodeEmploymentType, fmt.Sprintf("employment type %s is not covered", ev.Employee.EmploymentType))
		}
	case leave.EligibilityKindDepartment:
		if !containsString(rule.Departments, ev.Employee.Department) {
			result.fail(CodeDepartment, fmt.Sprintf("department %s is not covered", ev.Employee.Department))
		}
	case leave.EligibilityKindCustom:
		if rule.Custom == nil {
			return
		}
		ok, err := e.evalPredicate(*rule.Custom, ev.Employee)
		if err != nil {
			result.fail(CodeCustomRule, err.Error())
			return
		}
		if !ok {
			result.fail(CodeCustomRule, fmt.Sprintf("%s %s check failed", rule.Custom.Field, rule.Custom.Op))
		}
	}
}

func (e *Evaluator) checkUsageRule(result *EligibilityResult, rule leave.UsageRule, ev Evaluation, days decimal.Decimal) {
	switch rule.Kind {
	case leave.UsageKindMaxConsecutiveDays:
		if rule.MaxConsecutiveDays > 0 && days.GreaterThan(decimal.NewFromInt(int64(rule.MaxConsecutiveDays))) {
			result.fail(CodeMaxConsecutiveDays, fmt.Sprintf("%s consecutive days requested, at most %d allowed", days, rule.MaxConsecutiveDays))
		}
	case leave.UsageKindAdvanceNotice:
		e.checkAdvanceNotice(result, rule.AdvanceNoticeDays, ev.Request)
	case leave.UsageKindBlackoutPeriod:
		if rule.Blackout == nil {
			return
		}
		if ev.Request.Overlaps(rule.Blackout.StartDate, rule.Blackout.EndDate) {
			result.fail(CodeBlackoutPeriod, fmt.Sprintf("requested range falls in blackout period %q (%s to %s)",
				rule.Blackout.Name, rule.Blackout.StartDate.Format("2006-01-02"), rule.Blackout.EndDate.Format("2006-01-02")))
		}
	case leave.UsageKindMinimumIncrement:
		if rule.MinimumIncrement == nil || !rule.MinimumIncrement.IsPositive() {
			return
		}
		incr := *rule.MinimumIncrement
		// Snap to the nearest whole increment, half rounding up.
		snapped := days.Div(incr).Round(0).Mul(incr)
		if !snapped.Equal(days) {
			result.fail(CodeMinimumIncrement, fmt.Sprintf("%s days is not a multiple of the %s-day increment; nearest valid amount is %s", days, incr, snapped))
		}
	}
}

// checkLeaveTypeLimits applies the limits declared on the leave type itself,
// which hold even when the policy repeats none of them.
func (e *Evaluator) checkLeaveTypeLimits(result *EligibilityResult, ev Evaluation, days decimal.Decimal) {
	if ev.LeaveType.MaxConsecutiveDays != nil && days.GreaterThan(decimal.NewFromInt(int64(*ev.LeaveType.MaxConsecutiveDays))) {
		result.fail(CodeMaxConsecutiveDays, fmt.Sprintf("%s consecutive days requested, %s allows at most %d", days, ev.LeaveType.Code, *ev.LeaveType.MaxConsecutiveDays))
	}
	if ev.LeaveType.AdvanceNoticeDays != nil {
		e.checkAdvanceNotice(result, *ev.LeaveType.AdvanceNoticeDays, ev.Request)
	}
}

func (e *Evaluator) checkAdvanceNotice(result *EligibilityResult, required int, req leave.LeaveRequest) {
	if required <= 0 {
		return
	}
	submitted := req.SubmittedAt
	if submitted.IsZero() {
		submitted = e.clock.Now()
	}
	given := int(req.StartDate.Sub(submitted).Hours() / 24)
	if given < 0 {
		given = 0
	}
	if given < required {
		result.fail(CodeAdvanceNotice, fmt.Sprintf("requires %d days notice, %d given (short by %d)", required, given, required-given))
	}
}

func (e *Evaluator) checkBalance(result *EligibilityResult, ev Evaluation, days decimal.Decimal) {
	if !ev.LeaveType.AccrualBased || ev.Balance == nil {
		return
	}
	if days.GreaterThan(ev.Balance.CurrentBalance) {
		result.fail(CodeInsufficientBalance, fmt.Sprintf("%s days requested, %s available", days, ev.Balance.CurrentBalance))
	}
}

// checkOverlap rejects the request when an earlier-submitted pending or
// approved request already covers part of the range. Ordering by submission
// time means the first claim on the dates wins.
func (e *Evaluator) checkOverlap(result *EligibilityResult, ev Evaluation) {
	for _, other := range ev.Overlapping {
		if other.ID == ev.Request.ID {
			continue
		}
		if !other.Overlaps(ev.Request.StartDate, ev.Request.EndDate) {
			continue
		}
		if !ev.Request.SubmittedAt.IsZero() && other.SubmittedAt.After(ev.Request.SubmittedAt) {
			continue
		}
		result.fail(CodeOverlap, fmt.Sprintf("overlaps request %s (%s to %s, %s)",
			other.ID, other.StartDate.Format("2006-01-02"), other.EndDate.Format("2006-01-02"), other.Status))
		return
	}
}

func (e *Evaluator) evalPredicate(p leave.CustomPredicate, emp employee.Employee) (bool, error) {
	actual, ok := e.attribute(p.Field, emp)
	if !ok {
		return false, fmt.Errorf("unknown employee attribute %q", p.Field)
	}

	switch p.Op {
	case leave.OperatorEquals:
		return actual == p.Value, nil
	case leave.OperatorGreaterThan:
		return compareValues(actual, p.Value) > 0, nil
	case leave.OperatorLessThan:
		return compareValues(actual, p.Value) < 0, nil
	case leave.OperatorIn:
		return containsString(p.Values, actual), nil
	case leave.OperatorNotIn:
		return !containsString(p.Values, actual), nil
	default:
		return false, fmt.Errorf("unknown operator %q", p.Op)
	}
}

// attribute resolves the named employee field for custom predicates.
func (e *Evaluator) attribute(field string, emp employee.Employee) (string, bool) {
	switch field {
	case "department":
		return emp.Department, true
	case "employment_type":
		return string(emp.EmploymentType), true
	case "position_title":
		if emp.PositionTitle == nil {
			return "", true
		}
		return *emp.PositionTitle, true
	case "tenure_days":
		return fmt.Sprintf("%d", emp.TenureDays(e.clock.Now())), true
	case "hire_date":
		return emp.HireDate.Format("2006-01-02"), true
	default:
		return "", false
	}
}

// compareValues compares numerically when both sides parse as decimals,
// lexicographically otherwise, so "tenure_days" GREATER_THAN "90" behaves.
func compareValues(a, b string) int {
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	if errA == nil && errB == nil {
		return da.Cmp(db)
	}
	return strings.Compare(a, b)
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
