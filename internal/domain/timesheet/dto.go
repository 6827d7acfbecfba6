package timesheet

import "time"

type ClockRequest struct {
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type StartBreakRequest struct {
	Type string `json:"type"`
	Paid bool   `json:"paid"`
}

type CreateManualEntryRequest struct {
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Breaks   []ManualBreak `json:"breaks,omitempty"`
}

type ManualBreak struct {
	Type      string `json:"type"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Paid      bool   `json:"paid"`
}

type RejectEntryRequest struct {
	Reason string `json:"reason"`
}

type TimeEntryResponse struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	ClockIn         time.Time  `json:"clock_in"`
	ClockOut        *time.Time `json:"clock_out,omitempty"`
	TotalHours      string     `json:"total_hours"`
	RegularHours    string     `json:"regular_hours"`
	OvertimeHours   string     `json:"overtime_hours"`
	DoubleTimeHours string     `json:"double_time_hours"`
	Status          string     `json:"status"`
	ManualEntry     bool       `json:"manual_entry"`
	CorrectionOfID  *string    `json:"correction_of_id,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

func NewTimeEntryResponse(e TimeEntry) TimeEntryResponse {
	return TimeEntryResponse{
		ID:              e.ID,
		EmployeeID:      e.EmployeeID,
		ClockIn:         e.ClockIn,
		ClockOut:        e.ClockOut,
		TotalHours:      e.TotalHours.String(),
		RegularHours:    e.RegularHours.String(),
		OvertimeHours:   e.OvertimeHours.String(),
		DoubleTimeHours: e.DoubleTimeHours.String(),
		Status:          string(e.Status),
		ManualEntry:     e.ManualEntry,
		CorrectionOfID:  e.CorrectionOfID,
		RejectionReason: e.RejectionReason,
	}
}

type BreakResponse struct {
	ID        string     `json:"id"`
	Type      string     `json:"type"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Paid      bool       `json:"paid"`
}

func NewBreakResponse(b BreakEntry) BreakResponse {
	return BreakResponse{
		ID:        b.ID,
		Type:      string(b.Type),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Paid:      b.Paid,
	}
}

type StatusChangeResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	ActorID    string    `json:"actor_id"`
	Reason     string    `json:"reason,omitempty"`
	ChangedAt  time.Time `json:"changed_at"`
}

func NewStatusChangeResponses(changes []StatusChange) []StatusChangeResponse {
	out := make([]StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, StatusChangeResponse{
			FromStatus: string(c.FromStatus),
			ToStatus:   string(c.ToStatus),
			ActorID:    c.ActorID,
			Reason:     c.Reason,
			ChangedAt:  c.ChangedAt,
		})
	}
	return out
}

type TimeEntryDetailResponse struct {
	TimeEntryResponse
	Breaks  []BreakResponse        `json:"breaks"`
	History []StatusChangeResponse `json:"history"`
}

func NewTimeEntryDetailResponse(e TimeEntry, history []StatusChange) TimeEntryDetailResponse {
	breaks := make([]BreakResponse, 0, len(e.Breaks))
	for _, b := range e.Breaks {
		breaks = append(breaks, NewBreakResponse(b))
	}
	return TimeEntryDetailResponse{
		TimeEntryResponse: NewTimeEntryResponse(e),
		Breaks:            breaks,
		History:           NewStatusChangeResponses(history),
	}
}

type DailyHoursResponse struct {
	EntryID    string `json:"entry_id"`
	WorkDate   string `json:"work_date"`
	Total      string `json:"total_hours"`
	Regular    string `json:"regular_hours"`
	Overtime   string `json:"overtime_hours"`
	DoubleTime string `json:"double_time_hours"`
}
