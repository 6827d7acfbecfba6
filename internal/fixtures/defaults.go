// Package fixtures holds the default catalog inserted by the seed command:
// standard leave types, one policy per accruing type, and a baseline
// overtime policy. Tests and fresh installs start from the same data.
package fixtures

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
)

func intPtr(i int) *int { return &i }

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// DefaultLeaveTypes returns the standard leave type catalog, keyed by code.
func DefaultLeaveTypes() []leave.LeaveType {
	return []leave.LeaveType{
		{
			ID:                 uuid.NewString(),
			Code:               "ANNUAL",
			Name:               "Annual Leave",
			Paid:               true,
			RequiresApproval:   true,
			AccrualBased:       true,
			MaxConsecutiveDays: intPtr(15),
			AdvanceNoticeDays:  intPtr(7),
			AllowsPartialDays:  true,
			BusinessDaysOnly:   true,
		},
		{
			ID:                uuid.NewString(),
			Code:              "SICK",
			Name:              "Sick Leave",
			Paid:              true,
			RequiresApproval:  false,
			AccrualBased:      true,
			AllowsPartialDays: true,
			BusinessDaysOnly:  true,
		},
		{
			ID:                 uuid.NewString(),
			Code:               "PERSONAL",
			Name:               "Personal Leave",
			Paid:               true,
			RequiresApproval:   true,
			AccrualBased:       true,
			MaxConsecutiveDays: intPtr(3),
			AdvanceNoticeDays:  intPtr(3),
			AllowsPartialDays:  true,
			BusinessDaysOnly:   true,
		},
		{
			ID:               uuid.NewString(),
			Code:             "UNPAID",
			Name:             "Unpaid Leave",
			Paid:             false,
			RequiresApproval: true,
			AccrualBased:     false,
			BusinessDaysOnly: true,
		},
	}
}

// DefaultLeavePolicies returns one company-wide policy per accruing type.
// effectiveDate is normally the start of the current year.
func DefaultLeavePolicies(types []leave.LeaveType, effectiveDate time.Time) []leave.LeavePolicy {
	byCode := make(map[string]leave.LeaveType, len(types))
	for _, t := range types {
		byCode[t.Code] = t
	}

	var policies []leave.LeavePolicy
	if t, ok := byCode["ANNUAL"]; ok {
		policies = append(policies, leave.LeavePolicy{
			ID:            uuid.NewString(),
			LeaveTypeID:   t.ID,
			Name:          "Standard Annual Leave",
			EffectiveDate: effectiveDate,
			Eligibility: leave.EligibilityRules{
				{Kind: leave.EligibilityKindTenure, MinTenureDays: 90},
			},
			Accrual: leave.AccrualRule{
				Rate:              decimal.RequireFromString("1.25"),
				Period:            leave.AccrualPeriodMonthly,
				MaxBalance:        decPtr("30"),
				CarryoverLimit:    decPtr("5"),
				WaitingPeriodDays: 90,
			},
			Usage: leave.UsageRules{
				{Kind: leave.UsageKindMinimumIncrement, MinimumIncrement: decPtr("0.5")},
			},
		})
	}
	if t, ok := byCode["SICK"]; ok {
		policies = append(policies, leave.LeavePolicy{
			ID:            uuid.NewString(),
			LeaveTypeID:   t.ID,
			Name:          "Standard Sick Leave",
			EffectiveDate: effectiveDate,
			Accrual: leave.AccrualRule{
				Rate:       decimal.RequireFromString("1"),
				Period:     leave.AccrualPeriodMonthly,
				MaxBalance: decPtr("12"),
			},
			Usage: leave.UsageRules{
				{Kind: leave.UsageKindMinimumIncrement, MinimumIncrement: decPtr("0.5")},
			},
		})
	}
	if t, ok := byCode["PERSONAL"]; ok {
		policies = append(policies, leave.LeavePolicy{
			ID:            uuid.NewString(),
			LeaveTypeID:   t.ID,
			Name:          "Standard Personal Leave",
			EffectiveDate: effectiveDate,
			Eligibility: leave.EligibilityRules{
				{Kind: leave.EligibilityKindTenure, MinTenureDays: 180},
			},
			Accrual: leave.AccrualRule{
				Rate:   decimal.RequireFromString("0.25"),
				Period: leave.AccrualPeriodMonthly,
			},
		})
	}
	return policies
}

// DefaultOvertimePolicy returns the baseline company-wide overtime policy:
// daily overtime past 8 hours, weekly past 40, double time past 12.
func DefaultOvertimePolicy(effectiveDate time.Time) timesheet.OvertimePolicy {
	return timesheet.OvertimePolicy{
		ID:                   uuid.NewString(),
		Name:                 "Standard Overtime",
		DailyThreshold:       decimal.RequireFromString("8"),
		WeeklyThreshold:      decimal.RequireFromString("40"),
		OvertimeMultiplier:   decimal.RequireFromString("1.5"),
		DoubleTimeThreshold:  decPtr("12"),
		DoubleTimeMultiplier: decPtr("2"),
		EffectiveDate:        effectiveDate,
	}
}
