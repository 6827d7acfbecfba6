package policy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/pkg/clock"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// Monday 2025-06-02 is the reference "today" for these tests.
var now = day(2025, time.June, 2)

func newEvaluator(holidays ...time.Time) *Evaluator {
	return NewEvaluator(clock.Fixed(now), clock.NewWeekdayCalendar(holidays...))
}

func baseEmployee() employee.Employee {
	return employee.Employee{
		ID:             "emp-1",
		FirstName:      "Dina",
		LastName:       "Prasetyo",
		Department:     "engineering",
		EmploymentType: employee.EmploymentTypeFullTime,
		HireDate:       day(2024, time.January, 15),
		IsActive:       true,
	}
}

func vacationType() leave.LeaveType {
	return leave.LeaveType{
		ID:               "lt-vacation",
		Code:             "VACATION",
		Paid:             true,
		RequiresApproval: true,
		AccrualBased:     true,
		BusinessDaysOnly: true,
	}
}

func request(start, end time.Time) leave.LeaveRequest {
	return leave.LeaveRequest{
		ID:          "req-1",
		EmployeeID:  "emp-1",
		LeaveTypeID: "lt-vacation",
		StartDate:   start,
		EndDate:     end,
		SubmittedAt: now,
	}
}

func evaluation(req leave.LeaveRequest) Evaluation {
	balance := leave.LeaveBalance{
		ID:             "bal-1",
		EmployeeID:     "emp-1",
		LeaveTypeID:    "lt-vacation",
		CurrentBalance: dec("10"),
	}
	return Evaluation{
		Employee:  baseEmployee(),
		LeaveType: vacationType(),
		Policy:    leave.LeavePolicy{ID: "pol-1", LeaveTypeID: "lt-vacation", EffectiveDate: day(2024, time.January, 1)},
		Balance:   &balance,
		Request:   req,
	}
}

func codes(r EligibilityResult) []string {
	out := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		out = append(out, v.Code)
	}
	return out
}

func TestRequestedDays(t *testing.T) {
	e := newEvaluator(day(2025, time.June, 25)) // Wednesday holiday

	tests := []struct {
		name string
		lt   leave.LeaveType
		req  leave.LeaveRequest
		want string
	}{
		{
			name: "business days skip the weekend",
			lt:   vacationType(),
			// Thu 2025-06-19 through Mon 2025-06-23: Thu, Fri, Mon.
			req:  request(day(2025, time.June, 19), day(2025, time.June, 23)),
			want: "3",
		},
		{
			name: "business days skip holidays",
			lt:   vacationType(),
			// Mon 2025-06-23 through Fri 2025-06-27 minus the Wednesday holiday.
			req:  request(day(2025, time.June, 23), day(2025, time.June, 27)),
			want: "4",
		},
		{
			name: "calendar-day types count every day",
			lt:   leave.LeaveType{Code: "SICK"},
			req:  request(day(2025, time.June, 19), day(2025, time.June, 23)),
			want: "5",
		},
		{
			name: "partial single day uses the fraction",
			lt: leave.LeaveType{
				Code:              "VACATION",
				BusinessDaysOnly:  true,
				AllowsPartialDays: true,
			},
			req: func() leave.LeaveRequest {
				r := request(day(2025, time.June, 19), day(2025, time.June, 19))
				r.PartialDayFraction = dec("0.5")
				return r
			}(),
			want: "0.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.RequestedDays(tt.lt, tt.req)
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCheckEligibility_EligibilityRules(t *testing.T) {
	t.Run("tenure shortfall", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindTenure, MinTenureDays: 730},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeTenure)
	})

	t.Run("tenure met", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindTenure, MinTenureDays: 90},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})

	t.Run("employment type excluded", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Employee.EmploymentType = employee.EmploymentTypeIntern
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindEmploymentType, EmploymentTypes: []string{"full_time", "part_time"}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeEmploymentType)
	})

	t.Run("department excluded", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindDepartment, Departments: []string{"sales"}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeDepartment)
	})

	t.Run("custom numeric comparison", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindCustom, Custom: &leave.CustomPredicate{
				Field: "tenure_days", Op: leave.OperatorGreaterThan, Value: "90",
			}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})

	t.Run("custom NOT_IN", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindCustom, Custom: &leave.CustomPredicate{
				Field: "department", Op: leave.OperatorNotIn, Values: []string{"engineering"},
			}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeCustomRule)
	})

	t.Run("custom rule on an unknown field is a violation, not a pass", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindCustom, Custom: &leave.CustomPredicate{
				Field: "shoe_size", Op: leave.OperatorEquals, Value: "42",
			}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
	})
}

func TestCheckEligibility_UsageRules(t *testing.T) {
	t.Run("max consecutive days", func(t *testing.T) {
		// Mon 2025-06-16 through Fri 2025-06-27: ten business days.
		ev := evaluation(request(day(2025, time.June, 16), day(2025, time.June, 27)))
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindMaxConsecutiveDays, MaxConsecutiveDays: 5},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeMaxConsecutiveDays)
	})

	t.Run("advance notice reports the shortfall", func(t *testing.T) {
		// Submitted 2025-06-02, starting 2025-06-05: three days notice.
		ev := evaluation(request(day(2025, time.June, 5), day(2025, time.June, 6)))
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindAdvanceNotice, AdvanceNoticeDays: 14},
		}

		result := newEvaluator().CheckEligibility(ev)
		require.False(t, result.Eligible)
		require.Len(t, result.Violations, 1)
		assert.Equal(t, CodeAdvanceNotice, result.Violations[0].Code)
		assert.Contains(t, result.Violations[0].Detail, "short by 11")
	})

	t.Run("blackout period", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindBlackoutPeriod, Blackout: &leave.BlackoutPeriod{
				Name:      "quarter close",
				StartDate: day(2025, time.June, 20),
				EndDate:   day(2025, time.June, 30),
			}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeBlackoutPeriod)
	})

	t.Run("request clear of the blackout passes", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 16), day(2025, time.June, 17)))
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindBlackoutPeriod, Blackout: &leave.BlackoutPeriod{
				Name:      "quarter close",
				StartDate: day(2025, time.June, 20),
				EndDate:   day(2025, time.June, 30),
			}},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})

	t.Run("minimum increment rejects off-grid amounts", func(t *testing.T) {
		half := dec("0.5")
		lt := vacationType()
		lt.AllowsPartialDays = true
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 19)))
		ev.LeaveType = lt
		ev.Request.PartialDayFraction = dec("0.3")
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindMinimumIncrement, MinimumIncrement: &half},
		}

		result := newEvaluator().CheckEligibility(ev)
		require.False(t, result.Eligible)
		require.Len(t, result.Violations, 1)
		// 0.3 / 0.5 = 0.6, rounds half-up to 1, snapping to 0.5.
		assert.Contains(t, result.Violations[0].Detail, "0.5")
	})

	t.Run("whole multiples of the increment pass", func(t *testing.T) {
		half := dec("0.5")
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 20)))
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindMinimumIncrement, MinimumIncrement: &half},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})
}

func TestCheckEligibility_BalanceAndOverlap(t *testing.T) {
	t.Run("insufficient balance", func(t *testing.T) {
		// Two full business weeks against a balance of 10 is fine; shrink it.
		ev := evaluation(request(day(2025, time.June, 16), day(2025, time.June, 27)))
		ev.Balance.CurrentBalance = dec("3")

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeInsufficientBalance)
	})

	t.Run("balance check is skipped for non-accrual types", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 16), day(2025, time.June, 27)))
		ev.LeaveType.AccrualBased = false
		ev.Balance = nil

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})

	t.Run("earlier-submitted overlapping request wins", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 24)))
		ev.Overlapping = []leave.LeaveRequest{
			{
				ID:          "req-0",
				StartDate:   day(2025, time.June, 23),
				EndDate:     day(2025, time.June, 25),
				Status:      leave.LeaveRequestStatusPending,
				SubmittedAt: now.Add(-48 * time.Hour),
			},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		assert.Contains(t, codes(result), CodeOverlap)
	})

	t.Run("later-submitted overlap does not block this request", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 19), day(2025, time.June, 24)))
		ev.Overlapping = []leave.LeaveRequest{
			{
				ID:          "req-2",
				StartDate:   day(2025, time.June, 23),
				EndDate:     day(2025, time.June, 25),
				Status:      leave.LeaveRequestStatusPending,
				SubmittedAt: now.Add(48 * time.Hour),
			},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.True(t, result.Eligible)
	})

	t.Run("inverted range short-circuits", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 20), day(2025, time.June, 19)))

		result := newEvaluator().CheckEligibility(ev)
		require.False(t, result.Eligible)
		require.Len(t, result.Violations, 1)
		assert.Equal(t, CodeInvalidDateRange, result.Violations[0].Code)
	})

	t.Run("violations accumulate", func(t *testing.T) {
		ev := evaluation(request(day(2025, time.June, 3), day(2025, time.June, 20)))
		ev.Balance.CurrentBalance = dec("2")
		ev.Policy.Eligibility = leave.EligibilityRules{
			{Kind: leave.EligibilityKindTenure, MinTenureDays: 3650},
		}
		ev.Policy.Usage = leave.UsageRules{
			{Kind: leave.UsageKindAdvanceNotice, AdvanceNoticeDays: 30},
		}

		result := newEvaluator().CheckEligibility(ev)
		assert.False(t, result.Eligible)
		got := codes(result)
		assert.Contains(t, got, CodeTenure)
		assert.Contains(t, got, CodeAdvanceNotice)
		assert.Contains(t, got, CodeInsufficientBalance)
	})
}

func TestSelectActive(t *testing.T) {
	policies := []leave.LeavePolicy{
		{
			ID:             "pol-sales",
			EffectiveDate:  day(2024, time.January, 1),
			EmployeeGroups: []string{"sales"},
		},
		{
			ID:            "pol-old",
			EffectiveDate: day(2023, time.January, 1),
			EndDate:       ptrTime(day(2023, time.December, 31)),
		},
		{
			ID:            "pol-wide",
			EffectiveDate: day(2024, time.January, 1),
		},
	}

	t.Run("single match", func(t *testing.T) {
		got, err := SelectActive(policies[:2], "sales", day(2025, time.June, 2))
		require.NoError(t, err)
		assert.Equal(t, "pol-sales", got.ID)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := SelectActive(policies[:2], "engineering", day(2025, time.June, 2))
		assert.ErrorIs(t, err, leave.ErrLeavePolicyNotFound)
	})

	t.Run("ambiguous match is refused", func(t *testing.T) {
		_, err := SelectActive(policies, "sales", day(2025, time.June, 2))
		assert.ErrorIs(t, err, leave.ErrAmbiguousPolicy)
	})
}

func ptrTime(t time.Time) *time.Time { return &t }
