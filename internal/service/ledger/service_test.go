package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/hr-backend-go/internal/domain/audit"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
)

// passthroughTx satisfies database.Transactor without a database; rollback
// semantics are not exercised here, only the service logic.
type passthroughTx struct{}

func (passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) InRetryableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memBalances struct {
	byID map[string]leave.LeaveBalance
}

func newMemBalances(balances ...leave.LeaveBalance) *memBalances {
	m := &memBalances{byID: make(map[string]leave.LeaveBalance)}
	for _, b := range balances {
		m.byID[b.ID] = b
	}
	return m
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
	var out []leave.LeaveBalance
	for _, b := range m.byID {
		if b.EffectiveDate.After(asOf) {
			continue
		}
		if b.LastAccrualDate == nil || b.LastAccrualDate.Before(asOf) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memBalances) ListPendingCarryover(_ context.Context, year int) ([]leave.LeaveBalance, error) {
	var out []leave.LeaveBalance
	for _, b := range m.byID {
		out = append(out, b)
	}
	return out, nil
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
	tx.CreatedAt = time.Now()
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

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestService(balances *memBalances, entries *memEntries, now time.Time) *Service {
	return NewService(passthroughTx{}, balances, entries, audit.NopSink{}, clock.Fixed(now))
}

func vacationBalance(current string) leave.LeaveBalance {
	return leave.LeaveBalance{
		ID:             "bal-1",
		EmployeeID:     "emp-1",
		LeaveTypeID:    "lt-vacation",
		CurrentBalance: dec(current),
		AccrualRate:    dec("1.25"),
		AccrualPeriod:  leave.AccrualPeriodMonthly,
		EffectiveDate:  day(2025, time.January, 1),
	}
}

func TestApplyTransaction(t *testing.T) {
	t.Run("usage debits the balance and tracks YTD used", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("10"))
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 2))

		got, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeUsage, dec("-3"), TxContext{
			ActorID: "mgr-1",
			Reason:  "approved request",
		})
		require.NoError(t, err)

		assert.True(t, got.CurrentBalance.Equal(dec("7")))
		assert.True(t, got.YTDUsed.Equal(dec("3")))
		require.Len(t, entries.rows, 1)
		assert.Equal(t, leave.TransactionTypeUsage, entries.rows[0].Type)
		assert.True(t, entries.rows[0].Amount.Equal(dec("-3")))
	})

	t.Run("accrual credits the balance and advances the accrual date", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("4"))
		entries := &memEntries{}
		now := day(2025, time.July, 1)
		svc := newTestService(balances, entries, now)

		got, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeAccrual, dec("1.25"), TxContext{
			ActorID: "system",
		})
		require.NoError(t, err)

		assert.True(t, got.CurrentBalance.Equal(dec("5.25")))
		assert.True(t, got.YTDAccrued.Equal(dec("1.25")))
		require.NotNil(t, got.LastAccrualDate)
		assert.True(t, got.LastAccrualDate.Equal(now))
	})

	t.Run("rejects a debit past zero and leaves no trace", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("2"))
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 2))

		_, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeUsage, dec("-5"), TxContext{ActorID: "mgr-1"})
		require.ErrorIs(t, err, leave.ErrInsufficientBalance)

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("2")))
		assert.Empty(t, entries.rows)
	})

	t.Run("corrective adjustment may drive the balance negative", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("2"))
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 2))

		got, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeAdjustment, dec("-5"), TxContext{
			ActorID:    "hr-1",
			Reason:     "payroll correction",
			Corrective: true,
		})
		require.NoError(t, err)
		assert.True(t, got.CurrentBalance.Equal(dec("-3")))
	})

	t.Run("non-corrective adjustment still honors the zero floor", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("2"))
		svc := newTestService(balances, &memEntries{}, day(2025, time.June, 2))

		_, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeAdjustment, dec("-5"), TxContext{ActorID: "hr-1"})
		assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
	})

	t.Run("rejects an accrual past the max balance", func(t *testing.T) {
		b := vacationBalance("19.5")
		max := dec("20")
		b.MaxBalance = &max
		balances := newMemBalances(b)
		svc := newTestService(balances, &memEntries{}, day(2025, time.June, 2))

		_, err := svc.ApplyTransaction(context.Background(), "bal-1", leave.TransactionTypeAccrual, dec("1.25"), TxContext{ActorID: "system"})
		assert.ErrorIs(t, err, leave.ErrBalanceExceedsMax)
	})

	t.Run("unknown balance", func(t *testing.T) {
		svc := newTestService(newMemBalances(), &memEntries{}, day(2025, time.June, 2))

		_, err := svc.ApplyTransaction(context.Background(), "missing", leave.TransactionTypeUsage, dec("-1"), TxContext{ActorID: "mgr-1"})
		assert.ErrorIs(t, err, leave.ErrBalanceNotFound)
	})
}

func TestAccrue(t *testing.T) {
	t.Run("prorates a full month at the monthly rate", func(t *testing.T) {
		b := vacationBalance("0")
		anchor := day(2025, time.May, 1)
		b.LastAccrualDate = &anchor
		balances := newMemBalances(b)
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.May, 31))

		entry, err := svc.Accrue(context.Background(), "bal-1", day(2025, time.May, 31))
		require.NoError(t, err)
		require.NotNil(t, entry)

		// 30 days at 1.25 per 30-day period.
		assert.True(t, entry.Amount.Equal(dec("1.25")), "got %s", entry.Amount)

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("1.25")))
		require.NotNil(t, stored.LastAccrualDate)
		assert.True(t, stored.LastAccrualDate.Equal(day(2025, time.May, 31)))
	})

	t.Run("prorates a partial period linearly", func(t *testing.T) {
		b := vacationBalance("0")
		anchor := day(2025, time.May, 1)
		b.LastAccrualDate = &anchor
		balances := newMemBalances(b)
		svc := newTestService(balances, &memEntries{}, day(2025, time.May, 13))

		entry, err := svc.Accrue(context.Background(), "bal-1", day(2025, time.May, 13))
		require.NoError(t, err)
		require.NotNil(t, entry)

		// 12 days of a 30-day period: 1.25 * 12/30 = 0.5.
		assert.True(t, entry.Amount.Equal(dec("0.5")), "got %s", entry.Amount)
	})

	t.Run("no-op before the effective date", func(t *testing.T) {
		b := vacationBalance("0")
		b.EffectiveDate = day(2025, time.September, 1)
		balances := newMemBalances(b)
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 1))

		entry, err := svc.Accrue(context.Background(), "bal-1", day(2025, time.June, 1))
		require.NoError(t, err)
		assert.Nil(t, entry)
		assert.Empty(t, entries.rows)
	})

	t.Run("repeating the same asOf is a no-op", func(t *testing.T) {
		b := vacationBalance("0")
		anchor := day(2025, time.May, 1)
		b.LastAccrualDate = &anchor
		balances := newMemBalances(b)
		entries := &memEntries{}
		asOf := day(2025, time.May, 31)
		svc := newTestService(balances, entries, asOf)

		first, err := svc.Accrue(context.Background(), "bal-1", asOf)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := svc.Accrue(context.Background(), "bal-1", asOf)
		require.NoError(t, err)
		assert.Nil(t, second)
		assert.Len(t, entries.rows, 1)
	})

	t.Run("clamps the credit to the max balance headroom", func(t *testing.T) {
		b := vacationBalance("19.5")
		max := dec("20")
		b.MaxBalance = &max
		anchor := day(2025, time.May, 1)
		b.LastAccrualDate = &anchor
		balances := newMemBalances(b)
		svc := newTestService(balances, &memEntries{}, day(2025, time.May, 31))

		entry, err := svc.Accrue(context.Background(), "bal-1", day(2025, time.May, 31))
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, entry.Amount.Equal(dec("0.5")), "got %s", entry.Amount)

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("20")))
	})

	t.Run("at cap the cursor still advances so the period is not re-derived", func(t *testing.T) {
		b := vacationBalance("20")
		max := dec("20")
		b.MaxBalance = &max
		anchor := day(2025, time.May, 1)
		b.LastAccrualDate = &anchor
		balances := newMemBalances(b)
		entries := &memEntries{}
		asOf := day(2025, time.May, 31)
		svc := newTestService(balances, entries, asOf)

		entry, err := svc.Accrue(context.Background(), "bal-1", asOf)
		require.NoError(t, err)
		assert.Nil(t, entry)
		assert.Empty(t, entries.rows)

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		require.NotNil(t, stored.LastAccrualDate)
		assert.True(t, stored.LastAccrualDate.Equal(asOf))
	})
}

func TestCarryoverYearEnd(t *testing.T) {
	t.Run("forfeits the excess over the carryover limit", func(t *testing.T) {
		b := vacationBalance("12")
		limit := dec("5")
		b.CarryoverLimit = &limit
		b.YTDAccrued = dec("15")
		b.YTDUsed = dec("3")
		balances := newMemBalances(b)
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2026, time.January, 1))

		entry, err := svc.CarryoverYearEnd(context.Background(), "bal-1", 2025)
		require.NoError(t, err)
		require.NotNil(t, entry)

		assert.Equal(t, leave.TransactionTypeCarryover, entry.Type)
		assert.True(t, entry.Amount.Equal(dec("-7")), "got %s", entry.Amount)
		assert.True(t, entry.TransactionDate.Equal(day(2025, time.December, 31)))

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("5")))
		assert.True(t, stored.YTDAccrued.IsZero())
		assert.True(t, stored.YTDUsed.IsZero())
	})

	t.Run("balance within the limit carries over in full", func(t *testing.T) {
		b := vacationBalance("4")
		limit := dec("5")
		b.CarryoverLimit = &limit
		balances := newMemBalances(b)
		svc := newTestService(balances, &memEntries{}, day(2026, time.January, 1))

		entry, err := svc.CarryoverYearEnd(context.Background(), "bal-1", 2025)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.True(t, entry.Amount.IsZero())

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("4")))
	})

	t.Run("second run for the same year is a no-op", func(t *testing.T) {
		b := vacationBalance("12")
		limit := dec("5")
		b.CarryoverLimit = &limit
		balances := newMemBalances(b)
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2026, time.January, 1))

		first, err := svc.CarryoverYearEnd(context.Background(), "bal-1", 2025)
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := svc.CarryoverYearEnd(context.Background(), "bal-1", 2025)
		require.NoError(t, err)
		assert.Nil(t, second)

		stored, _ := balances.GetByID(context.Background(), "bal-1")
		assert.True(t, stored.CurrentBalance.Equal(dec("5")))
		assert.Len(t, entries.rows, 1)
	})
}

func TestReconcile(t *testing.T) {
	t.Run("ledger sum matches the materialized balance", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("0"))
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 2))

		ctx := context.Background()
		_, err := svc.ApplyTransaction(ctx, "bal-1", leave.TransactionTypeAccrual, dec("5"), TxContext{ActorID: "system"})
		require.NoError(t, err)
		_, err = svc.ApplyTransaction(ctx, "bal-1", leave.TransactionTypeUsage, dec("-2"), TxContext{ActorID: "mgr-1"})
		require.NoError(t, err)
		_, err = svc.ApplyTransaction(ctx, "bal-1", leave.TransactionTypeAdjustment, dec("0.5"), TxContext{ActorID: "hr-1", Reason: "grant"})
		require.NoError(t, err)

		assert.NoError(t, svc.Reconcile(ctx, "bal-1"))
	})

	t.Run("detects a balance mutated outside the ledger", func(t *testing.T) {
		balances := newMemBalances(vacationBalance("0"))
		entries := &memEntries{}
		svc := newTestService(balances, entries, day(2025, time.June, 2))

		ctx := context.Background()
		_, err := svc.ApplyTransaction(ctx, "bal-1", leave.TransactionTypeAccrual, dec("5"), TxContext{ActorID: "system"})
		require.NoError(t, err)

		tampered, _ := balances.GetByID(ctx, "bal-1")
		tampered.CurrentBalance = dec("9")
		require.NoError(t, balances.Update(ctx, tampered))

		assert.Error(t, svc.Reconcile(ctx, "bal-1"))
	})
}
