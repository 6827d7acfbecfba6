// Package leave runs the leave request workflow: submission through the
// rule evaluator, then the pending/approved/denied/cancelled machine.
// Approval and the balance debit commit in one database transaction.
package leave

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/atlashr/hr-backend-go/internal/pkg/validator"
	"github.com/atlashr/hr-backend-go/internal/service/ledger"
	"github.com/atlashr/hr-backend-go/internal/service/policy"
)

type Service struct {
	tx        database.Transactor
	requests  leave.LeaveRequestRepository
	types     leave.LeaveTypeRepository
	policies  leave.LeavePolicyRepository
	balances  leave.LeaveBalanceRepository
	employees employee.EmployeeRepository
	evaluator *policy.Evaluator
	ledger    *ledger.Service
	audit     audit.Sink
	clock     clock.Clock
}

func NewService(
	tx database.Transactor,
	requests leave.LeaveRequestRepository,
	types leave.LeaveTypeRepository,
	policies leave.LeavePolicyRepository,
	balances leave.LeaveBalanceRepository,
	employees employee.EmployeeRepository,
	evaluator *policy.Evaluator,
	ledgerSvc *ledger.Service,
	auditSink audit.Sink,
	clk clock.Clock,
) *Service {
	return &Service{
		tx:        tx,
		requests:  requests,
		types:     types,
		policies:  policies,
		balances:  balances,
		employees: employees,
		evaluator: evaluator,
		ledger:    ledgerSvc,
		audit:     auditSink,
		clock:     clk,
	}
}

// Submit validates the request against the active policy and files it. Leave
// types that do not require approval are approved (and debited) in the same
// transaction.
func (s *Service) Submit(ctx context.Context, employeeID string, req leave.CreateLeaveRequestRequest) (leave.LeaveRequest, error) {
	startDate, endDate, fraction, err := parseRequest(req)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if !emp.IsActive {
		return leave.LeaveRequest{}, employee.ErrEmployeeInactive
	}

	leaveType, err := s.types.GetByID(ctx, req.LeaveTypeID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	candidates, err := s.policies.FindActive(ctx, leaveType.ID, startDate)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	activePolicy, err := policy.SelectActive(candidates, emp.Department, startDate)
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	var balance *leave.LeaveBalance
	if leaveType.AccrualBased {
		b, err := s.balances.GetByEmployeeAndType(ctx, employeeID, leaveType.ID)
		if err != nil {
			return leave.LeaveRequest{}, err
		}
		balance = &b
	}

	overlapping, err := s.requests.ListOverlapping(ctx, employeeID, startDate, endDate, []leave.LeaveRequestStatus{
		leave.LeaveRequestStatusPending,
		leave.LeaveRequestStatusApproved,
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	now := s.clock.Now()
	request := leave.LeaveRequest{
		ID:                 uuid.NewString(),
		EmployeeID:         employeeID,
		LeaveTypeID:        leaveType.ID,
		StartDate:          startDate,
		EndDate:            endDate,
		PartialDayFraction: fraction,
		Reason:             req.Reason,
		Status:             leave.LeaveRequestStatusPending,
		SubmittedAt:        now,
	}

	result := s.evaluator.CheckEligibility(policy.Evaluation{
		Employee:    emp,
		LeaveType:   leaveType,
		Policy:      activePolicy,
		Balance:     balance,
		Overlapping: overlapping,
		Request:     request,
	})
	if !result.Eligible {
		return leave.LeaveRequest{}, &policy.ViolationError{Result: result}
	}
	request.TotalDays = result.RequestedDays

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		created, err := s.requests.Create(ctx, request)
		if err != nil {
			return err
		}
		request = created

		s.audit.Record(ctx, audit.Event{
			Actor:      employeeID,
			Action:     "leave.submit",
			EntityKind: "leave_request",
			EntityID:   request.ID,
			After:      string(request.Status),
			At:         now,
		})

		if leaveType.RequiresApproval {
			return nil
		}
		return s.approveLocked(ctx, &request, leaveType, "system", "auto-approved")
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	return request, nil
}

// Approve moves a pending request to approved and debits the balance. The
// status write and the USAGE ledger entry share one transaction; a ledger
// failure rolls the transition back.
func (s *Service) Approve(ctx context.Context, requestID, reviewerID string, review leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	var out leave.LeaveRequest
	err := s.tx.InRetryableTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return fmt.Errorf("%s -> approved: %w", request.Status, leave.ErrInvalidTransition)
		}

		leaveType, err := s.types.GetByID(ctx, request.LeaveTypeID)
		if err != nil {
			return err
		}

		if err := s.approveLocked(ctx, &request, leaveType, reviewerID, review.Reason); err != nil {
			return err
		}
		out = request
		return nil
	})
	return out, err
}

// approveLocked finishes an approval for a request already held under the
// row lock (or just created in this transaction).
func (s *Service) approveLocked(ctx context.Context, request *leave.LeaveRequest, leaveType leave.LeaveType, reviewerID, reason string) error {
	if leaveType.AccrualBased {
		balance, err := s.balances.GetByEmployeeAndType(ctx, request.EmployeeID, leaveType.ID)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Apply(ctx, balance.ID, leave.TransactionTypeUsage, request.TotalDays.Neg(), ledger.TxContext{
			ActorID:        reviewerID,
			Reason:         "leave request approved",
			LeaveRequestID: &request.ID,
		}); err != nil {
			return err
		}
	}

	now := s.clock.Now()
	from := request.Status
	request.Status = leave.LeaveRequestStatusApproved
	request.ReviewedBy = &reviewerID
	request.ReviewedAt = &now
	if reason != "" {
		request.ReviewReason = &reason
	}
	if err := s.requests.UpdateStatus(ctx, *request); err != nil {
		return err
	}
	if err := s.recordTransition(ctx, request.ID, from, request.Status, reviewerID, reason); err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Event{
		Actor:      reviewerID,
		Action:     "leave.approve",
		EntityKind: "leave_request",
		EntityID:   request.ID,
		Before:     string(from),
		After:      string(request.Status),
		At:         now,
	})
	return nil
}

// Deny moves a pending request to denied. No balance is touched.
func (s *Service) Deny(ctx context.Context, requestID, reviewerID string, review leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	return s.close(ctx, requestID, leave.LeaveRequestStatusDenied, reviewerID, review.Reason, true)
}

// Cancel withdraws a pending request. Approved requests cannot be cancelled;
// reversing one is a manual ledger adjustment.
func (s *Service) Cancel(ctx context.Context, requestID, actorID string, review leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error) {
	return s.close(ctx, requestID, leave.LeaveRequestStatusCancelled, actorID, review.Reason, false)
}

func (s *Service) close(ctx context.Context, requestID string, to leave.LeaveRequestStatus, actorID, reason string, reviewed bool) (leave.LeaveRequest, error) {
	var out leave.LeaveRequest
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		request, err := s.requests.GetByIDForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != leave.LeaveRequestStatusPending {
			return fmt.Errorf("%s -> %s: %w", request.Status, to, leave.ErrInvalidTransition)
		}

		now := s.clock.Now()
		from := request.Status
		request.Status = to
		if reviewed {
			request.ReviewedBy = &actorID
			request.ReviewedAt = &now
			if reason != "" {
				request.ReviewReason = &reason
			}
		}
		if err := s.requests.UpdateStatus(ctx, request); err != nil {
			return err
		}
		if err := s.recordTransition(ctx, request.ID, from, to, actorID, reason); err != nil {
			return err
		}

		s.audit.Record(ctx, audit.Event{
			Actor:      actorID,
			Action:     "leave." + string(to),
			EntityKind: "leave_request",
			EntityID:   request.ID,
			Before:     string(from),
			After:      string(to),
			At:         now,
		})
		out = request
		return nil
	})
	return out, err
}

// CreateType registers a leave type.
func (s *Service) CreateType(ctx context.Context, req leave.CreateLeaveTypeRequest) (leave.LeaveType, error) {
	var verrs validator.ValidationErrors
	if validator.IsEmpty(req.Code) {
		verrs = append(verrs, validator.ValidationError{Field: "code", Message: "is required"})
	}
	if validator.IsEmpty(req.Name) {
		verrs = append(verrs, validator.ValidationError{Field: "name", Message: "is required"})
	}
	if len(verrs) > 0 {
		return leave.LeaveType{}, verrs
	}

	return s.types.Create(ctx, leave.LeaveType{
		ID:                 uuid.NewString(),
		Code:               req.Code,
		Name:               req.Name,
		Description:        req.Description,
		Paid:               req.Paid,
		RequiresApproval:   req.RequiresApproval,
		AccrualBased:       req.AccrualBased,
		MaxConsecutiveDays: req.MaxConsecutiveDays,
		AdvanceNoticeDays:  req.AdvanceNoticeDays,
		AllowsPartialDays:  req.AllowsPartialDays,
		BusinessDaysOnly:   req.BusinessDaysOnly,
	})
}

// ListTypes returns every leave type.
func (s *Service) ListTypes(ctx context.Context) ([]leave.LeaveType, error) {
	return s.types.List(ctx)
}

// ListBalances returns the employee's balances.
func (s *Service) ListBalances(ctx context.Context, employeeID string) ([]leave.LeaveBalance, error) {
	return s.balances.ListByEmployee(ctx, employeeID)
}

// AdjustBalance applies a manual ADJUSTMENT through the ledger. Corrective
// adjustments may take the balance below zero; regular grants may not.
func (s *Service) AdjustBalance(ctx context.Context, balanceID, actorID string, req leave.AdjustBalanceRequest) (leave.LeaveBalance, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.IsZero() {
		return leave.LeaveBalance{}, validator.ValidationErrors{
			{Field: "amount", Message: "must be a non-zero number"},
		}
	}
	if validator.IsEmpty(req.Reason) {
		return leave.LeaveBalance{}, validator.ValidationErrors{
			{Field: "reason", Message: "is required"},
		}
	}

	return s.ledger.ApplyTransaction(ctx, balanceID, leave.TransactionTypeAdjustment, amount, ledger.TxContext{
		ActorID:    actorID,
		Reason:     req.Reason,
		Corrective: req.Corrective,
	})
}

// OpenBalance provisions a balance for an accrual-based leave type. The
// active policy's accrual rule is snapshotted onto the balance; the waiting
// period is folded into the effective date so the scheduler needs no policy
// lookup later.
func (s *Service) OpenBalance(ctx context.Context, employeeID, leaveTypeID string) (leave.LeaveBalance, error) {
	emp, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	leaveType, err := s.types.GetByID(ctx, leaveTypeID)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	if !leaveType.AccrualBased {
		return leave.LeaveBalance{}, leave.ErrNotAccrualBased
	}
	if _, err := s.balances.GetByEmployeeAndType(ctx, employeeID, leaveTypeID); err == nil {
		return leave.LeaveBalance{}, leave.ErrBalanceExists
	} else if !errors.Is(err, leave.ErrBalanceNotFound) {
		return leave.LeaveBalance{}, err
	}

	now := s.clock.Now()
	candidates, err := s.policies.FindActive(ctx, leaveTypeID, now)
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	activePolicy, err := policy.SelectActive(candidates, emp.Department, now)
	if err != nil {
		return leave.LeaveBalance{}, err
	}

	effective := emp.HireDate.AddDate(0, 0, activePolicy.Accrual.WaitingPeriodDays)
	if effective.Before(now) {
		effective = now
	}

	return s.balances.Create(ctx, leave.LeaveBalance{
		ID:             uuid.NewString(),
		EmployeeID:     employeeID,
		LeaveTypeID:    leaveTypeID,
		CurrentBalance: decimal.Zero,
		AccrualRate:    activePolicy.Accrual.Rate,
		AccrualPeriod:  activePolicy.Accrual.Period,
		MaxBalance:     activePolicy.Accrual.MaxBalance,
		CarryoverLimit: activePolicy.Accrual.CarryoverLimit,
		EffectiveDate:  effective,
	})
}

// Get returns one request with its status history.
func (s *Service) Get(ctx context.Context, requestID string) (leave.LeaveRequest, []leave.StatusChange, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, nil, err
	}
	history, err := s.requests.ListStatusChanges(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, nil, err
	}
	return request, history, nil
}

// ListByEmployee returns the employee's requests.
func (s *Service) ListByEmployee(ctx context.Context, employeeID string) ([]leave.LeaveRequest, error) {
	return s.requests.ListByEmployee(ctx, employeeID)
}

func (s *Service) recordTransition(ctx context.Context, requestID string, from, to leave.LeaveRequestStatus, actorID, reason string) error {
	return s.requests.InsertStatusChange(ctx, leave.StatusChange{
		ID:         uuid.NewString(),
		RequestID:  requestID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actorID,
		Reason:     reason,
		ChangedAt:  s.clock.Now(),
	})
}

func parseRequest(req leave.CreateLeaveRequestRequest) (time.Time, time.Time, decimal.Decimal, error) {
	var verrs validator.ValidationErrors

	startDate, ok := validator.IsValidDate(req.StartDate)
	if !ok {
		verrs = append(verrs, validator.ValidationError{Field: "start_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}
	endDate, ok := validator.IsValidDate(req.EndDate)
	if !ok {
		verrs = append(verrs, validator.ValidationError{Field: "end_date", Message: "must be a valid date (YYYY-MM-DD)"})
	}

	fraction := decimal.NewFromInt(1)
	if req.PartialDayFraction != nil {
		f, err := decimal.NewFromString(*req.PartialDayFraction)
		if err != nil || !f.IsPositive() || f.GreaterThan(decimal.NewFromInt(1)) {
			verrs = append(verrs, validator.ValidationError{Field: "partial_day_fraction", Message: "must be a number in (0, 1]"})
		} else {
			fraction = f
		}
	}

	if len(verrs) > 0 {
		return time.Time{}, time.Time{}, decimal.Decimal{}, verrs
	}
	if endDate.Before(startDate) {
		return time.Time{}, time.Time{}, decimal.Decimal{}, leave.ErrInvalidDateRange
	}
	return startDate, endDate, fraction, nil
}
