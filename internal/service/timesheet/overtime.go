package timesheet

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
)

// HourSplit is the classified output of the overtime calculator for one
// work date. Multipliers stay on the policy; the split carries hours only.
type HourSplit struct {
	EntryID  string
	WorkDate time.Time

	Total      decimal.Decimal
	Regular    decimal.Decimal
	Overtime   decimal.Decimal
	DoubleTime decimal.Decimal
}

// ComputeHours classifies a closed entry's worked hours against the policy's
// daily thresholds. Unpaid breaks are deducted from the total; paid breaks
// are not. Spans crossing midnight attribute every hour to the clock-in
// date; use SplitAtMidnight when the span must be divided per calendar day.
func ComputeHours(entry timesheet.TimeEntry, policy timesheet.OvertimePolicy) (HourSplit, error) {
	if entry.ClockOut == nil {
		return HourSplit{}, fmt.Errorf("entry %s is still open: %w", entry.ID, timesheet.ErrInvalidTimeSequence)
	}
	if entry.ClockOut.Before(entry.ClockIn) {
		return HourSplit{}, timesheet.ErrInvalidTimeSequence
	}

	unpaid, err := unpaidBreakMinutes(entry.Breaks)
	if err != nil {
		return HourSplit{}, err
	}

	worked := minutesBetween(entry.ClockIn, *entry.ClockOut).Sub(unpaid)
	if worked.IsNegative() {
		return HourSplit{}, fmt.Errorf("breaks exceed the worked span: %w", timesheet.ErrInvalidTimeSequence)
	}

	split := classifyDaily(worked.Div(decimal.NewFromInt(60)), policy)
	split.EntryID = entry.ID
	split.WorkDate = dateOf(entry.ClockIn)
	return split, nil
}

// SplitAtMidnight divides a span crossing midnight into per-day splits, each
// classified against the daily thresholds independently. Breaks are deducted
// from the day they start on.
func SplitAtMidnight(entry timesheet.TimeEntry, policy timesheet.OvertimePolicy) ([]HourSplit, error) {
	if entry.ClockOut == nil {
		return nil, fmt.Errorf("entry %s is still open: %w", entry.ID, timesheet.ErrInvalidTimeSequence)
	}
	if entry.ClockOut.Before(entry.ClockIn) {
		return nil, timesheet.ErrInvalidTimeSequence
	}

	var out []HourSplit
	segStart := entry.ClockIn
	for {
		dayEnd := dateOf(segStart).AddDate(0, 0, 1)
		segEnd := *entry.ClockOut
		if dayEnd.Before(segEnd) {
			segEnd = dayEnd
		}

		worked := minutesBetween(segStart, segEnd)
		for _, b := range entry.Breaks {
			if b.Paid {
				continue
			}
			if b.EndTime != nil && b.EndTime.Before(b.StartTime) {
				return nil, fmt.Errorf("break %s ends before it starts: %w", b.ID, timesheet.ErrInvalidTimeSequence)
			}
			if !b.StartTime.Before(segStart) && b.StartTime.Before(segEnd) {
				worked = worked.Sub(decimal.NewFromInt(int64(b.Duration().Minutes())))
			}
		}
		if worked.IsNegative() {
			return nil, fmt.Errorf("breaks exceed the worked span: %w", timesheet.ErrInvalidTimeSequence)
		}

		split := classifyDaily(worked.Div(decimal.NewFromInt(60)), policy)
		split.EntryID = entry.ID
		split.WorkDate = dateOf(segStart)
		out = append(out, split)

		if !dayEnd.Before(*entry.ClockOut) {
			return out, nil
		}
		segStart = dayEnd
	}
}

// ApplyWeeklyOvertime reclassifies regular hours that exceed the weekly
// threshold as overtime, walking the splits in work-date order. Hours that
// are already daily overtime or double time never count toward the weekly
// threshold, so nothing is double-counted.
func ApplyWeeklyOvertime(splits []HourSplit, policy timesheet.OvertimePolicy) []HourSplit {
	if !policy.WeeklyThreshold.IsPositive() {
		return splits
	}

	out := make([]HourSplit, len(splits))
	copy(out, splits)
	sort.SliceStable(out, func(i, j int) bool { return out[i].WorkDate.Before(out[j].WorkDate) })

	cumRegular := decimal.Zero
	for i := range out {
		headroom := policy.WeeklyThreshold.Sub(cumRegular)
		if headroom.IsNegative() {
			headroom = decimal.Zero
		}
		if out[i].Regular.GreaterThan(headroom) {
			excess := out[i].Regular.Sub(headroom)
			out[i].Regular = headroom
			out[i].Overtime = out[i].Overtime.Add(excess)
		}
		cumRegular = cumRegular.Add(out[i].Regular)
	}
	return out
}

func classifyDaily(total decimal.Decimal, policy timesheet.OvertimePolicy) HourSplit {
	split := HourSplit{Total: total, Regular: total, Overtime: decimal.Zero, DoubleTime: decimal.Zero}

	if policy.DailyThreshold.IsPositive() && total.GreaterThan(policy.DailyThreshold) {
		split.Regular = policy.DailyThreshold
		split.Overtime = total.Sub(policy.DailyThreshold)
	}
	if policy.DoubleTimeThreshold != nil && total.GreaterThan(*policy.DoubleTimeThreshold) {
		split.DoubleTime = total.Sub(*policy.DoubleTimeThreshold)
		split.Overtime = split.Overtime.Sub(split.DoubleTime)
		if split.Overtime.IsNegative() {
			split.Overtime = decimal.Zero
		}
	}
	return split
}

func unpaidBreakMinutes(breaks []timesheet.BreakEntry) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, b := range breaks {
		if b.EndTime != nil && b.EndTime.Before(b.StartTime) {
			return decimal.Zero, fmt.Errorf("break %s ends before it starts: %w", b.ID, timesheet.ErrInvalidTimeSequence)
		}
		if b.Paid {
			continue
		}
		total = total.Add(decimal.NewFromInt(int64(b.Duration().Minutes())))
	}
	return total, nil
}

func minutesBetween(from, to time.Time) decimal.Decimal {
	return decimal.NewFromInt(int64(to.Sub(from).Minutes()))
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
