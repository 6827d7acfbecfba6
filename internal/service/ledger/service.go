// Package ledger owns leave balances. Every balance mutation flows through
// an append-only transaction ledger reconciled against the materialized
// current balance; concurrent writers serialize on the balance row lock.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// TxContext carries who is mutating a balance and why.
type TxContext struct {
	ActorID        string
	Reason         string
	LeaveRequestID *string
	// Corrective marks an HR-audited compensating adjustment, which is the
	// only mutation allowed to drive a balance below zero.
	Corrective bool
}

type Service struct {
	tx       database.Transactor
	balances leave.LeaveBalanceRepository
	entries  leave.AccrualTransactionRepository
	audit    audit.Sink
	clock    clock.Clock
}

func NewService(
	tx database.Transactor,
	balances leave.LeaveBalanceRepository,
	entries leave.AccrualTransactionRepository,
	auditSink audit.Sink,
	clk clock.Clock,
) *Service {
	return &Service{
		tx:       tx,
		balances: balances,
		entries:  entries,
		audit:    auditSink,
		clock:    clk,
	}
}

// ApplyTransaction applies one ledger transaction in its own database
// transaction, retrying on deadlock.
func (s *Service) ApplyTransaction(ctx context.Context, balanceID string, txType leave.TransactionType, amount decimal.Decimal, txCtx TxContext) (leave.LeaveBalance, error) {
	var out leave.LeaveBalance
	err := s.tx.InRetryableTx(ctx, func(ctx context.Context) error {
		var err error
		out, _, err = s.apply(ctx, balanceID, txType, amount, txCtx)
		return err
	})
	return out, err
}

// Apply joins the transaction already carried on ctx. Callers coordinating a
// wider transition (request approval) invoke it inside their own database
// transaction so the state write and the debit commit or roll back together.
func (s *Service) Apply(ctx context.Context, balanceID string, txType leave.TransactionType, amount decimal.Decimal, txCtx TxContext) (leave.LeaveBalance, error) {
	out, _, err := s.apply(ctx, balanceID, txType, amount, txCtx)
	return out, err
}

func (s *Service) apply(ctx context.Context, balanceID string, txType leave.TransactionType, amount decimal.Decimal, txCtx TxContext) (leave.LeaveBalance, leave.AccrualTransaction, error) {
	balance, err := s.balances.GetByIDForUpdate(ctx, balanceID)
	if err != nil {
		return leave.LeaveBalance{}, leave.AccrualTransaction{}, fmt.Errorf("failed to lock balance: %w", err)
	}
	return s.applyLocked(ctx, balance, txType, amount, s.clock.Now(), txCtx)
}

// applyLocked does the read-modify-write under the caller-held row lock.
func (s *Service) applyLocked(ctx context.Context, balance leave.LeaveBalance, txType leave.TransactionType, amount decimal.Decimal, txDate time.Time, txCtx TxContext) (leave.LeaveBalance, leave.AccrualTransaction, error) {
	before := balance

	newBalance := balance.CurrentBalance.Add(amount)

	if newBalance.IsNegative() {
		if txType != leave.TransactionTypeAdjustment || !txCtx.Corrective {
			return leave.LeaveBalance{}, leave.AccrualTransaction{}, leave.ErrInsufficientBalance
		}
	}
	if balance.MaxBalance != nil && newBalance.GreaterThan(*balance.MaxBalance) {
		return leave.LeaveBalance{}, leave.AccrualTransaction{}, leave.ErrBalanceExceedsMax
	}

	entry := leave.AccrualTransaction{
		BalanceID:       balance.ID,
		Type:            txType,
		Amount:          amount,
		TransactionDate: txDate,
		LeaveRequestID:  txCtx.LeaveRequestID,
		ActorID:         txCtx.ActorID,
		Reason:          txCtx.Reason,
	}
	entry, err := s.entries.Append(ctx, entry)
	if err != nil {
		return leave.LeaveBalance{}, leave.AccrualTransaction{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	balance.CurrentBalance = newBalance
	switch txType {
	case leave.TransactionTypeAccrual:
		balance.YTDAccrued = balance.YTDAccrued.Add(amount)
		balance.LastAccrualDate = &txDate
	case leave.TransactionTypeUsage:
		balance.YTDUsed = balance.YTDUsed.Add(amount.Neg())
	}

	if err := s.balances.Update(ctx, balance); err != nil {
		return leave.LeaveBalance{}, leave.AccrualTransaction{}, fmt.Errorf("failed to update balance: %w", err)
	}

	s.audit.Record(ctx, audit.Event{
		Actor:      txCtx.ActorID,
		Action:     "ledger." + string(txType),
		EntityKind: "leave_balance",
		EntityID:   balance.ID,
		Before:     before.CurrentBalance.String(),
		After:      balance.CurrentBalance.String(),
		At:         txDate,
	})

	return balance, entry, nil
}

// Accrue computes the prorated accrual since the last accrual date and
// applies it. It returns nil without error when there is nothing to accrue:
// inside the waiting period, asOf not past the last accrual, or the balance
// already at its cap. Calling it twice for the same asOf is a safe no-op.
func (s *Service) Accrue(ctx context.Context, balanceID string, asOf time.Time) (*leave.AccrualTransaction, error) {
	var out *leave.AccrualTransaction
	err := s.tx.InRetryableTx(ctx, func(ctx context.Context) error {
		balance, err := s.balances.GetByIDForUpdate(ctx, balanceID)
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		amount, ok := accrualAmount(balance, asOf)
		if !ok {
			return nil
		}

		// Cap at max balance; the excess is dropped, not banked.
		if balance.MaxBalance != nil {
			headroom := balance.MaxBalance.Sub(balance.CurrentBalance)
			if amount.GreaterThan(headroom) {
				amount = headroom
			}
			if !amount.IsPositive() {
				// Already at cap: advance the accrual cursor so the
				// scheduler does not re-derive the same dropped period.
				balance.LastAccrualDate = &asOf
				return s.balances.Update(ctx, balance)
			}
		}

		_, entry, err := s.applyLocked(ctx, balance, leave.TransactionTypeAccrual, amount, asOf, TxContext{
			ActorID: "system",
			Reason:  "scheduled accrual",
		})
		if err != nil {
			return err
		}
		out = &entry
		return nil
	})
	return out, err
}

// accrualAmount derives the prorated accrual for the span since the last
// accrual (or the balance's effective date). Returns ok=false when the span
// yields nothing.
func accrualAmount(balance leave.LeaveBalance, asOf time.Time) (decimal.Decimal, bool) {
	if asOf.Before(balance.EffectiveDate) {
		return decimal.Zero, false
	}

	anchor := balance.EffectiveDate
	if balance.LastAccrualDate != nil {
		anchor = *balance.LastAccrualDate
	}
	if !asOf.After(anchor) {
		return decimal.Zero, false
	}

	days := decimal.NewFromInt(int64(asOf.Sub(anchor).Hours() / 24))
	if !days.IsPositive() {
		return decimal.Zero, false
	}

	amount := balance.AccrualRate.Mul(days).Div(balance.AccrualPeriod.Days()).Round(4)
	if !amount.IsPositive() {
		return decimal.Zero, false
	}
	return amount, true
}

// CarryoverYearEnd closes the accrual year: the balance keeps
// min(currentBalance, carryoverLimit) and the residual is forfeited through
// a CARRYOVER ledger entry, never a reset, so history stays auditable. YTD
// counters restart for the new year. Idempotent per (balance, year): a
// repeat call returns a nil entry without touching the balance.
func (s *Service) CarryoverYearEnd(ctx context.Context, balanceID string, year int) (*leave.AccrualTransaction, error) {
	var out *leave.AccrualTransaction
	err := s.tx.InRetryableTx(ctx, func(ctx context.Context) error {
		balance, err := s.balances.GetByIDForUpdate(ctx, balanceID)
		if err != nil {
			return fmt.Errorf("failed to lock balance: %w", err)
		}

		done, err := s.entries.ExistsCarryover(ctx, balanceID, year)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		forfeit := decimal.Zero
		if balance.CarryoverLimit != nil && balance.CurrentBalance.GreaterThan(*balance.CarryoverLimit) {
			forfeit = balance.CarryoverLimit.Sub(balance.CurrentBalance) // negative
		}

		boundary := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
		entry := leave.AccrualTransaction{
			BalanceID:       balance.ID,
			Type:            leave.TransactionTypeCarryover,
			Amount:          forfeit,
			TransactionDate: boundary,
			ActorID:         "system",
			Reason:          fmt.Sprintf("year-end carryover %d", year),
		}
		entry, err = s.entries.Append(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to append carryover entry: %w", err)
		}

		before := balance.CurrentBalance
		balance.CurrentBalance = balance.CurrentBalance.Add(forfeit)
		balance.YTDUsed = decimal.Zero
		balance.YTDAccrued = decimal.Zero
		if err := s.balances.Update(ctx, balance); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		s.audit.Record(ctx, audit.Event{
			Actor:      "system",
			Action:     "ledger.carryover",
			EntityKind: "leave_balance",
			EntityID:   balance.ID,
			Before:     before.String(),
			After:      balance.CurrentBalance.String(),
			At:         boundary,
		})

		out = &entry
		return nil
	})
	return out, err
}

// Reconcile verifies the reconciliation invariant: the materialized balance
// equals the sum of its ledger entries.
func (s *Service) Reconcile(ctx context.Context, balanceID string) error {
	balance, err := s.balances.GetByID(ctx, balanceID)
	if err != nil {
		return err
	}
	sum, err := s.entries.SumByBalance(ctx, balanceID)
	if err != nil {
		return err
	}
	total, err := decimal.NewFromString(sum)
	if err != nil {
		return fmt.Errorf("bad ledger sum %q: %w", sum, err)
	}
	if !total.Equal(balance.CurrentBalance) {
		return fmt.Errorf("balance %s out of sync: ledger sum %s, materialized %s",
			balanceID, total, balance.CurrentBalance)
	}
	return nil
}

// History returns the balance's ledger entries.
func (s *Service) History(ctx context.Context, balanceID string) ([]leave.AccrualTransaction, error) {
	return s.entries.ListByBalance(ctx, balanceID)
}
