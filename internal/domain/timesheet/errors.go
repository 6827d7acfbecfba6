package timesheet

import "errors"

var (
	ErrTimeEntryNotFound      = errors.New("time entry not found")
	ErrOvertimePolicyNotFound = errors.New("overtime policy not found")
	ErrInvalidTimeSequence    = errors.New("clock-out must not precede clock-in")
	ErrInvalidTransition      = errors.New("invalid time entry transition")
	ErrAlreadyClockedIn       = errors.New("an active time entry already exists")
	ErrNoActiveEntry          = errors.New("no active time entry")
	ErrOpenBreak              = errors.New("an open break already exists")
	ErrNoOpenBreak            = errors.New("no open break to end")
	ErrNotCorrectable         = errors.New("only approved entries can be corrected")
)
