package leave

import (
	"context"
	"time"
)

// LeaveTypeRepository - interface for leave_types table
type LeaveTypeRepository interface {
	Create(ctx context.Context, leaveType LeaveType) (LeaveType, error)
	GetByID(ctx context.Context, id string) (LeaveType, error)
	GetByCode(ctx context.Context, code string) (LeaveType, error)
	List(ctx context.Context) ([]LeaveType, error)
}

// LeavePolicyRepository - interface for leave_policies table
type LeavePolicyRepository interface {
	Create(ctx context.Context, policy LeavePolicy) (LeavePolicy, error)
	GetByID(ctx context.Context, id string) (LeavePolicy, error)
	// FindActive returns every policy for the leave type whose effective
	// window covers the date. Callers decide what more than one match means.
	FindActive(ctx context.Context, leaveTypeID string, at time.Time) ([]LeavePolicy, error)
	List(ctx context.Context) ([]LeavePolicy, error)
}

// LeaveBalanceRepository - interface for leave_balances table
type LeaveBalanceRepository interface {
	Create(ctx context.Context, balance LeaveBalance) (LeaveBalance, error)
	GetByID(ctx context.Context, id string) (LeaveBalance, error)
	// GetByIDForUpdate takes a row lock; must run inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveBalance, error)
	GetByEmployeeAndType(ctx context.Context, employeeID, leaveTypeID string) (LeaveBalance, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveBalance, error)
	// ListDueForAccrual returns accrual-based balances whose last accrual
	// predates asOf (or that never accrued).
	ListDueForAccrual(ctx context.Context, asOf time.Time) ([]LeaveBalance, error)
	// ListPendingCarryover returns accrual-based balances with no carryover
	// transaction recorded for the given year.
	ListPendingCarryover(ctx context.Context, year int) ([]LeaveBalance, error)
	Update(ctx context.Context, balance LeaveBalance) error
}

// AccrualTransactionRepository - append-only interface for
// accrual_transactions table. There are deliberately no update or delete
// operations.
type AccrualTransactionRepository interface {
	Append(ctx context.Context, tx AccrualTransaction) (AccrualTransaction, error)
	ListByBalance(ctx context.Context, balanceID string) ([]AccrualTransaction, error)
	// SumByBalance returns the signed sum of all transactions, for
	// reconciliation against the materialized balance.
	SumByBalance(ctx context.Context, balanceID string) (string, error)
	ExistsCarryover(ctx context.Context, balanceID string, year int) (bool, error)
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// GetByIDForUpdate takes a row lock; must run inside a transaction.
	GetByIDForUpdate(ctx context.Context, id string) (LeaveRequest, error)
	ListByEmployee(ctx context.Context, employeeID string) ([]LeaveRequest, error)
	// ListOverlapping returns requests in the given statuses whose range
	// intersects [start, end], ordered by submission time.
	ListOverlapping(ctx context.Context, employeeID string, start, end time.Time, statuses []LeaveRequestStatus) ([]LeaveRequest, error)
	UpdateStatus(ctx context.Context, request LeaveRequest) error
	InsertStatusChange(ctx context.Context, change StatusChange) error
	ListStatusChanges(ctx context.Context, requestID string) ([]StatusChange, error)
}
