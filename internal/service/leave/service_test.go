package leave

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/service/ledger"
	"github.com/atlashr/hr-backend-go/internal/service/policy"
)

type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) InRetryableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memRequests struct {
	byID    map[string]leave.LeaveRequest
	history []leave.StatusChange
}

func newMemRequests() *memRequests {
	return &memRequests{byID: make(map[string]leave.LeaveRequest)}
}

func (m *memRequests) Create(_ context.Context, r leave.LeaveRequest) (leave.LeaveRequest, error) {
	m.byID[r.ID] = r
	return r, nil
}

func (m *memRequests) GetByID(_ context.Context, id string) (leave.LeaveRequest, error) {
	r, ok := m.byID[id]
	if !ok {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
	}
	return r, nil
}

func (m *memRequests) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveRequest, error) {
	return m.GetByID(ctx, id)
}

func (m *memRequests) ListByEmployee(_ context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, r := range m.byID {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRequests) ListOverlapping(_ context.Context, employeeID string, start, end time.Time, statuses []leave.LeaveRequestStatus) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, r := range m.byID {
		if r.EmployeeID != employeeID || !r.Overlaps(start, end) {
			continue
		}
		for _, st := range statuses {
			if r.Status == st {
				out = append(out, r)
				break
			}
		}
	}
	return out, nil
}

func (m *memRequests) UpdateStatus(_ context.Context, r leave.LeaveRequest) error {
	if _, ok := m.byID[r.ID]; !ok {
		return leave.ErrLeaveRequestNotFound
	}
	m.byID[r.ID] = r
	return nil
}

func (m *memRequests) InsertStatusChange(_ context.Context, c leave.StatusChange) error {
	m.history = append(m.history, c)
	return nil
}

func (m *memRequests) ListStatusChanges(_ context.Context, requestID string) ([]leave.StatusChange, error) {
	var out []leave.StatusChange
	for _, c := range m.history {
		if c.RequestID == requestID {
			out = append(out, c)
		}
	}
	return out, nil
}

type memTypes struct {
	byID map[string]leave.LeaveType
}

func (m *memTypes) Create(_ context.Context, lt leave.LeaveType) (leave.LeaveType, error) {
	m.byID[lt.ID] = lt
	return lt, nil
}

func (m *memTypes) GetByID(_ context.Context, id string) (leave.LeaveType, error) {
	lt, ok := m.byID[id]
	if !ok {
		return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
	}
	return lt, nil
}

func (m *memTypes) GetByCode(_ context.Context, code string) (leave.LeaveType, error) {
	for _, lt := range m.byID {
		if lt.Code == code {
			return lt, nil
		}
	}
	return leave.LeaveType{}, leave.ErrLeaveTypeNotFound
}

func (m *memTypes) List(_ context.Context) ([]leave.LeaveType, error) {
	var out []leave.LeaveType
	for _, lt := range m.byID {
		out = append(out, lt)
	}
	return out, nil
}

type memPolicies struct {
	policies []leave.LeavePolicy
}

func (m *memPolicies) Create(_ context.Context, p leave.LeavePolicy) (leave.LeavePolicy, error) {
	m.policies = append(m.policies, p)
	return p, nil
}

func (m *memPolicies) GetByID(_ context.Context, id string) (leave.LeavePolicy, error) {
	for _, p := range m.policies {
		if p.ID == id {
			return p, nil
		}
	}
	return leave.LeavePolicy{}, leave.ErrLeavePolicyNotFound
}

func (m *memPolicies) FindActive(_ context.Context, leaveTypeID string, at time.Time) ([]leave.LeavePolicy, error) {
	var out []leave.LeavePolicy
	for _, p := range m.policies {
		if p.LeaveTypeID != leaveTypeID || at.Before(p.EffectiveDate) {
			continue
		}
		if p.EndDate != nil && at.After(*p.EndDate) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *memPolicies) List(_ context.Context) ([]leave.LeavePolicy, error) {
	return m.policies, nil
}

type memBalances struct {
	byID map[string]leave.LeaveBalance
}

func (m *memBalances) Create(_ context.Context, b leave.LeaveBalance) (leave.LeaveBalance, error) {
	m.byID[b.ID] = b
	return b, nil
}

func (m *memBalances) GetByID(_ context.Context, id string) (leave.LeaveBalance, error) {
	b, ok := m.byID[id]
	if !ok {
		return leave.LeaveBalance{}, leave.ErrBalanceNotFound
	}
	return b, nil
}

func (m *memBalances) GetByIDForUpdate(ctx context.Context, id string) (leave.LeaveBalance, error) {
	return m.GetByID(ctx, id)
}

func (m *memBalances) GetByEmployeeAndType(_ context.Context, employeeID, leaveTypeID string) (leave.LeaveBalance, error) {
	for _, b := range m.byID {
		if b.EmployeeID == employeeID && b.LeaveTypeID == leaveTypeID {
			return b, nil
		}
	}
	return leave.LeaveBalance{}, leave.ErrBalanceNotFound
}

func (m *memBalances) ListByEmployee(_ context.Context, employeeID string) ([]leave.LeaveBalance, error) {
	var out []leave.LeaveBalance
	for _, b := range m.byID {
		if b.EmployeeID == employeeID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBalances) ListDueForAccrual(_ context.Context, asOf time.Time) ([]leave.LeaveBalance, error) {
	return nil, nil
}

func (m *memBalances) ListPendingCarryover(_ context.Context, year int) ([]leave.LeaveBalance, error) {
	return nil, nil
}

func (m *memBalances) Update(_ context.Context, b leave.LeaveBalance) error {
	if _, ok := m.byID[b.ID]; !ok {
		return leave.ErrBalanceNotFound
	}
	m.byID[b.ID] = b
	return nil
}

type memEntries struct {
	rows []leave.AccrualTransaction
}

func (m *memEntries) Append(_ context.Context, tx leave.AccrualTransaction) (leave.AccrualTransaction, error) {
	tx.ID = fmt.Sprintf("tx-%d", len(m.rows)+1)
	m.rows = append(m.rows, tx)
	return tx, nil
}

func (m *memEntries) ListByBalance(_ context.Context, balanceID string) ([]leave.AccrualTransaction, error) {
	var out []leave.AccrualTransaction
	for _, r := range m.rows {
		if r.BalanceID == balanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memEntries) SumByBalance(_ context.Context, balanceID string) (string, error) {
	sum := decimal.Zero
	for _, r := range m.rows {
		if r.BalanceID == balanceID {
			sum = sum.Add(r.Amount)
		}
	}
	return sum.String(), nil
}

func (m *memEntries) ExistsCarryover(_ context.Context, balanceID string, year int) (bool, error) {
	for _, r := range m.rows {
		if r.BalanceID == balanceID && r.Type == leave.TransactionTypeCarryover && r.TransactionDate.Year() == year {
			return true, nil
		}
	}
	return false, nil
}

type memEmployees struct {
	byID map[string]employee.Employee
}

func (m *memEmployees) Create(_ context.Context, e employee.Employee) (employee.Employee, error) {
	m.byID[e.ID] = e
	return e, nil
}

func (m *memEmployees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	e, ok := m.byID[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *memEmployees) GetByUserID(_ context.Context, userID string) (employee.Employee, error) {
	for _, e := range m.byID {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (m *memEmployees) ListActive(_ context.Context) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range m.byID {
		if e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memEmployees) Update(_ context.Context, e employee.Employee) error {
	m.byID[e.ID] = e
	return nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Monday 2025-06-02.
var now = day(2025, time.June, 2)

type fixture struct {
	svc      *Service
	requests *memRequests
	policies *memPolicies
	balances *memBalances
	entries  *memEntries
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	requests := newMemRequests()
	types := &memTypes{byID: map[string]leave.LeaveType{
		"lt-vacation": {
			ID:               "lt-vacation",
			Code:             "VACATION",
			Paid:             true,
			RequiresApproval: true,
			AccrualBased:     true,
			BusinessDaysOnly: true,
		},
		"lt-sick": {
			ID:           "lt-sick",
			Code:         "SICK",
			Paid:         true,
			AccrualBased: false,
		},
	}}
	policies := &memPolicies{policies: []leave.LeavePolicy{
		{
			ID:            "pol-vacation",
			LeaveTypeID:   "lt-vacation",
			EffectiveDate: day(2024, time.January, 1),
			Accrual: leave.AccrualRule{
				Rate:              dec("1.25"),
				Period:            leave.AccrualPeriodMonthly,
				WaitingPeriodDays: 90,
			},
		},
		{
			ID:            "pol-sick",
			LeaveTypeID:   "lt-sick",
			EffectiveDate: day(2024, time.January, 1),
		},
	}}
	balances := &memBalances{byID: map[string]leave.LeaveBalance{
		"bal-1": {
			ID:             "bal-1",
			EmployeeID:     "emp-1",
			LeaveTypeID:    "lt-vacation",
			CurrentBalance: dec("10"),
			AccrualRate:    dec("1.25"),
			AccrualPeriod:  leave.AccrualPeriodMonthly,
			EffectiveDate:  day(2024, time.April, 15),
		},
	}}
	entries := &memEntries{}
	employees := &memEmployees{byID: map[string]employee.Employee{
		"emp-1": {
			ID:             "emp-1",
			FirstName:      "Dina",
			Department:     "engineering",
			EmploymentType: employee.EmploymentTypeFullTime,
			HireDate:       day(2024, time.January, 15),
			IsActive:       true,
		},
	}}

	clk := clock.Fixed(now)
	evaluator := policy.NewEvaluator(clk, clock.NewWeekdayCalendar())
	ledgerSvc := ledger.NewService(passthroughTx{}, balances, entries, audit.NopSink{}, clk)
	svc := NewService(passthroughTx{}, requests, types, policies, balances, employees, evaluator, ledgerSvc, audit.NopSink{}, clk)

	return fixture{svc: svc, requests: requests, policies: policies, balances: balances, entries: entries}
}

func vacationRequest(start, end string) leave.CreateLeaveRequestRequest {
	return leave.CreateLeaveRequestRequest{
		LeaveTypeID: "lt-vacation",
		StartDate:   start,
		EndDate:     end,
		Reason:      "family trip",
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("valid request is filed pending with counted days", func(t *testing.T) {
		f := newFixture(t)

		// Thu 2025-06-19 through Mon 2025-06-23: three business days.
		request, err := f.svc.Submit(ctx, "emp-1", vacationRequest("2025-06-19", "2025-06-23"))
		require.NoError(t, err)

		assert.Equal(t, leave.LeaveRequestStatusPending, request.Status)
		assert.True(t, request.TotalDays.Equal(dec("3")), "got %s", request.TotalDays)
		assert.True(t, request.SubmittedAt.Equal(now))
	})

	t.Run("policy violations abort submission", func(t *testing.T) {
		f := newFixture(t)
		stored := f.balances.byID["bal-1"]
		stored.CurrentBalance = dec("1")
		f.balances.byID["bal-1"] = stored

		_, err := f.svc.Submit(ctx, "emp-1", vacationRequest("2025-06-16", "2025-06-20"))
		var verr *policy.ViolationError
		require.ErrorAs(t, err, &verr)
		assert.False(t, verr.Result.Eligible)
		assert.Empty(t, f.requests.byID)
	})

	t.Run("malformed dates are a validation error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, "emp-1", vacationRequest("June 19", "2025-06-23"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "start_date")
	})

	t.Run("inverted range", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.Submit(ctx, "emp-1", vacationRequest("2025-06-23", "2025-06-19"))
		assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
	})

	t.Run("ambiguous policy match is refused", func(t *testing.T) {
		f := newFixture(t)

		// A second company-wide policy for the same type and window.
		f.policies.policies = append(f.policies.policies, leave.LeavePolicy{
			ID:            "pol-vacation-2",
			LeaveTypeID:   "lt-vacation",
			EffectiveDate: day(2024, time.June, 1),
		})

		_, err := f.svc.Submit(ctx, "emp-1", vacationRequest("2025-06-19", "2025-06-23"))
		assert.ErrorIs(t, err, leave.ErrAmbiguousPolicy)
	})

	t.Run("no-approval type is approved and debited on submission", func(t *testing.T) {
		f := newFixture(t)

		request, err := f.svc.Submit(ctx, "emp-1", leave.CreateLeaveRequestRequest{
			LeaveTypeID: "lt-sick",
			StartDate:   "2025-06-05",
			EndDate:     "2025-06-06",
			Reason:      "flu",
		})
		require.NoError(t, err)

		assert.Equal(t, leave.LeaveRequestStatusApproved, request.Status)
		// SICK is not accrual-based, so no ledger entry was written.
		assert.Empty(t, f.entries.rows)
	})
}

func TestApprove(t *testing.T) {
	ctx := context.Background()

	submitPending := func(t *testing.T, f fixture) leave.LeaveRequest {
		t.Helper()
		request, err := f.svc.Submit(ctx, "emp-1", vacationRequest("2025-06-19", "2025-06-23"))
		require.NoError(t, err)
		return request
	}

	t.Run("approval debits the balance exactly once with a back-reference", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		approved, err := f.svc.Approve(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{})
		require.NoError(t, err)

		assert.Equal(t, leave.LeaveRequestStatusApproved, approved.Status)
		require.NotNil(t, approved.ReviewedBy)
		assert.Equal(t, "mgr-1", *approved.ReviewedBy)

		balance, _ := f.balances.GetByID(ctx, "bal-1")
		assert.True(t, balance.CurrentBalance.Equal(dec("7")), "got %s", balance.CurrentBalance)

		require.Len(t, f.entries.rows, 1)
		entry := f.entries.rows[0]
		assert.Equal(t, leave.TransactionTypeUsage, entry.Type)
		assert.True(t, entry.Amount.Equal(dec("-3")))
		require.NotNil(t, entry.LeaveRequestID)
		assert.Equal(t, request.ID, *entry.LeaveRequestID)

		history, _ := f.requests.ListStatusChanges(ctx, request.ID)
		require.Len(t, history, 1)
		assert.Equal(t, leave.LeaveRequestStatusPending, history[0].FromStatus)
		assert.Equal(t, leave.LeaveRequestStatusApproved, history[0].ToStatus)
	})

	t.Run("second approval sees a non-pending request", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		_, err := f.svc.Approve(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{})
		require.NoError(t, err)

		_, err = f.svc.Approve(ctx, request.ID, "mgr-2", leave.ReviewLeaveRequestRequest{})
		assert.ErrorIs(t, err, leave.ErrInvalidTransition)

		// The double approval did not debit twice.
		balance, _ := f.balances.GetByID(ctx, "bal-1")
		assert.True(t, balance.CurrentBalance.Equal(dec("7")))
		assert.Len(t, f.entries.rows, 1)
	})

	t.Run("ledger failure aborts the transition", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		// Balance shrinks between submission and approval.
		stored := f.balances.byID["bal-1"]
		stored.CurrentBalance = dec("1")
		f.balances.byID["bal-1"] = stored

		_, err := f.svc.Approve(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{})
		require.ErrorIs(t, err, leave.ErrInsufficientBalance)

		current, _ := f.requests.GetByID(ctx, request.ID)
		assert.Equal(t, leave.LeaveRequestStatusPending, current.Status)
		assert.Empty(t, f.entries.rows)
	})

	t.Run("deny touches no balance", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		denied, err := f.svc.Deny(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{Reason: "coverage gap"})
		require.NoError(t, err)

		assert.Equal(t, leave.LeaveRequestStatusDenied, denied.Status)
		require.NotNil(t, denied.ReviewReason)
		assert.Equal(t, "coverage gap", *denied.ReviewReason)

		balance, _ := f.balances.GetByID(ctx, "bal-1")
		assert.True(t, balance.CurrentBalance.Equal(dec("10")))
		assert.Empty(t, f.entries.rows)
	})

	t.Run("cancel only while pending", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		cancelled, err := f.svc.Cancel(ctx, request.ID, "emp-1", leave.ReviewLeaveRequestRequest{})
		require.NoError(t, err)
		assert.Equal(t, leave.LeaveRequestStatusCancelled, cancelled.Status)

		_, err = f.svc.Approve(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{})
		assert.ErrorIs(t, err, leave.ErrInvalidTransition)
	})

	t.Run("cancelling an approved request is refused", func(t *testing.T) {
		f := newFixture(t)
		request := submitPending(t, f)

		_, err := f.svc.Approve(ctx, request.ID, "mgr-1", leave.ReviewLeaveRequestRequest{})
		require.NoError(t, err)

		_, err = f.svc.Cancel(ctx, request.ID, "emp-1", leave.ReviewLeaveRequestRequest{})
		assert.ErrorIs(t, err, leave.ErrInvalidTransition)
	})
}

func TestOpenBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("snapshots the policy accrual rule", func(t *testing.T) {
		f := newFixture(t)
		delete(f.balances.byID, "bal-1")

		balance, err := f.svc.OpenBalance(ctx, "emp-1", "lt-vacation")
		require.NoError(t, err)

		assert.True(t, balance.CurrentBalance.IsZero())
		assert.True(t, balance.AccrualRate.Equal(dec("1.25")))
		assert.Equal(t, leave.AccrualPeriodMonthly, balance.AccrualPeriod)
		// Hire 2024-01-15 plus the 90-day waiting period is long past; the
		// balance starts accruing from today.
		assert.True(t, balance.EffectiveDate.Equal(now))
	})

	t.Run("one balance per employee and type", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.OpenBalance(ctx, "emp-1", "lt-vacation")
		assert.ErrorIs(t, err, leave.ErrBalanceExists)
	})

	t.Run("non-accrual types keep no balance", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.svc.OpenBalance(ctx, "emp-1", "lt-sick")
		assert.ErrorIs(t, err, leave.ErrNotAccrualBased)
	})
}
