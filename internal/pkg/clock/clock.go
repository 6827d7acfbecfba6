// Package clock provides injectable time and business-calendar sources so
// services and tests never reach for time.Now directly.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed returns a Clock pinned to t, for deterministic tests.
func Fixed(t time.Time) Clock { return fixedClock{t: t} }

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

// Calendar answers business-day and holiday questions for day counting.
type Calendar interface {
	IsBusinessDay(t time.Time) bool
	IsHoliday(t time.Time) bool
}

// WeekdayCalendar treats Monday-Friday as business days, minus a fixed
// holiday set keyed by date.
type WeekdayCalendar struct {
	holidays map[string]bool
}

func NewWeekdayCalendar(holidays ...time.Time) *WeekdayCalendar {
	c := &WeekdayCalendar{holidays: make(map[string]bool, len(holidays))}
	for _, h := range holidays {
		c.holidays[dayKey(h)] = true
	}
	return c
}

func (c *WeekdayCalendar) IsHoliday(t time.Time) bool {
	return c.holidays[dayKey(t)]
}

func (c *WeekdayCalendar) IsBusinessDay(t time.Time) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !c.IsHoliday(t)
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }
