package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
	"github.com/atlashr/hr-backend-go/internal/service/ledger"
)

// AccrualJobs owns the scheduled balance sweeps: periodic accrual and the
// year-end carryover. Both are idempotent per balance, so overlapping runs
// from multiple instances converge on the row lock.
type AccrualJobs struct {
	balances leave.LeaveBalanceRepository
	ledger   *ledger.Service
	clock    clock.Clock
}

func NewAccrualJobs(balances leave.LeaveBalanceRepository, ledgerSvc *ledger.Service, clk clock.Clock) *AccrualJobs {
	return &AccrualJobs{
		balances: balances,
		ledger:   ledgerSvc,
		clock:    clk,
	}
}

// RunAccrualSweep accrues every balance due as of now. A failure on one
// balance is logged and the sweep moves on.
func (j *AccrualJobs) RunAccrualSweep(ctx context.Context) error {
	now := j.clock.Now()
	due, err := j.balances.ListDueForAccrual(ctx, now)
	if err != nil {
		return err
	}

	var accrued, failed int
	for _, balance := range due {
		entry, err := j.ledger.Accrue(ctx, balance.ID, now)
		if err != nil {
			failed++
			slog.Error("Accrual failed", "balance_id", balance.ID, "employee_id", balance.EmployeeID, "error", err)
			continue
		}
		if entry != nil {
			accrued++
			slog.Debug("Balance accrued", "balance_id", balance.ID, "amount", entry.Amount.String())
		}
	}

	slog.Info("Accrual sweep finished", "due", len(due), "accrued", accrued, "failed", failed)
	return nil
}

// RunCarryoverSweep closes the previous accrual year. It only acts in
// January; CarryoverYearEnd itself skips balances already carried over, so
// re-runs within the month are harmless.
func (j *AccrualJobs) RunCarryoverSweep(ctx context.Context) error {
	now := j.clock.Now()
	if now.Month() != time.January {
		return nil
	}
	year := now.Year() - 1

	balances, err := j.balances.ListPendingCarryover(ctx, year)
	if err != nil {
		return err
	}

	var closed, failed int
	for _, balance := range balances {
		entry, err := j.ledger.CarryoverYearEnd(ctx, balance.ID, year)
		if err != nil {
			failed++
			slog.Error("Carryover failed", "balance_id", balance.ID, "year", year, "error", err)
			continue
		}
		if entry != nil {
			closed++
			slog.Debug("Balance carried over", "balance_id", balance.ID, "forfeited", entry.Amount.Neg().String())
		}
	}

	slog.Info("Carryover sweep finished", "year", year, "closed", closed, "failed", failed)
	return nil
}

// Register wires both sweeps into the scheduler.
func (j *AccrualJobs) Register(s *Scheduler, accrualInterval, carryoverInterval time.Duration) {
	s.AddJob("leave-accrual", accrualInterval, j.RunAccrualSweep)
	s.AddJob("leave-carryover", carryoverInterval, j.RunCarryoverSweep)
}
