package leave

import "time"

type CreateLeaveTypeRequest struct {
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Description        *string `json:"description,omitempty"`
	Paid               bool    `json:"paid"`
	RequiresApproval   bool    `json:"requires_approval"`
	AccrualBased       bool    `json:"accrual_based"`
	MaxConsecutiveDays *int    `json:"max_consecutive_days,omitempty"`
	AdvanceNoticeDays  *int    `json:"advance_notice_days,omitempty"`
	AllowsPartialDays  bool    `json:"allows_partial_days"`
	BusinessDaysOnly   bool    `json:"business_days_only"`
}

type CreateLeaveRequestRequest struct {
	LeaveTypeID        string  `json:"leave_type_id"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	PartialDayFraction *string `json:"partial_day_fraction,omitempty"`
	Reason             string  `json:"reason"`
}

type ReviewLeaveRequestRequest struct {
	Reason string `json:"reason,omitempty"`
}

type AdjustBalanceRequest struct {
	Amount     string `json:"amount"`
	Reason     string `json:"reason"`
	Corrective bool   `json:"corrective"`
}

type LeaveRequestResponse struct {
	ID                 string     `json:"id"`
	EmployeeID         string     `json:"employee_id"`
	LeaveTypeID        string     `json:"leave_type_id"`
	StartDate          string     `json:"start_date"`
	EndDate            string     `json:"end_date"`
	TotalDays          string     `json:"total_days"`
	Reason             string     `json:"reason"`
	Status             string     `json:"status"`
	ReviewedBy         *string    `json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time `json:"reviewed_at,omitempty"`
	ReviewReason       *string    `json:"review_reason,omitempty"`
	SubmittedAt        time.Time  `json:"submitted_at"`
}

func NewLeaveRequestResponse(r LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		LeaveTypeID:  r.LeaveTypeID,
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		TotalDays:    r.TotalDays.String(),
		Reason:       r.Reason,
		Status:       string(r.Status),
		ReviewedBy:   r.ReviewedBy,
		ReviewedAt:   r.ReviewedAt,
		ReviewReason: r.ReviewReason,
		SubmittedAt:  r.SubmittedAt,
	}
}

type BalanceResponse struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employee_id"`
	LeaveTypeID     string     `json:"leave_type_id"`
	CurrentBalance  string     `json:"current_balance"`
	AccrualRate     string     `json:"accrual_rate"`
	AccrualPeriod   string     `json:"accrual_period"`
	MaxBalance      *string    `json:"max_balance,omitempty"`
	CarryoverLimit  *string    `json:"carryover_limit,omitempty"`
	LastAccrualDate *time.Time `json:"last_accrual_date,omitempty"`
	YTDUsed         string     `json:"ytd_used"`
	YTDAccrued      string     `json:"ytd_accrued"`
}

func NewBalanceResponse(b LeaveBalance) BalanceResponse {
	resp := BalanceResponse{
		ID:              b.ID,
		EmployeeID:      b.EmployeeID,
		LeaveTypeID:     b.LeaveTypeID,
		CurrentBalance:  b.CurrentBalance.String(),
		AccrualRate:     b.AccrualRate.String(),
		AccrualPeriod:   string(b.AccrualPeriod),
		LastAccrualDate: b.LastAccrualDate,
		YTDUsed:         b.YTDUsed.String(),
		YTDAccrued:      b.YTDAccrued.String(),
	}
	if b.MaxBalance != nil {
		s := b.MaxBalance.String()
		resp.MaxBalance = &s
	}
	if b.CarryoverLimit != nil {
		s := b.CarryoverLimit.String()
		resp.CarryoverLimit = &s
	}
	return resp
}

type OpenBalanceRequest struct {
	EmployeeID  string `json:"employee_id"`
	LeaveTypeID string `json:"leave_type_id"`
}

type LeaveTypeResponse struct {
	ID                 string  `json:"id"`
	Code               string  `json:"code"`
	Name               string  `json:"name"`
	Description        *string `json:"description,omitempty"`
	Paid               bool    `json:"paid"`
	RequiresApproval   bool    `json:"requires_approval"`
	AccrualBased       bool    `json:"accrual_based"`
	MaxConsecutiveDays *int    `json:"max_consecutive_days,omitempty"`
	AdvanceNoticeDays  *int    `json:"advance_notice_days,omitempty"`
	AllowsPartialDays  bool    `json:"allows_partial_days"`
	BusinessDaysOnly   bool    `json:"business_days_only"`
}

func NewLeaveTypeResponse(t LeaveType) LeaveTypeResponse {
	return LeaveTypeResponse{
		ID:                 t.ID,
		Code:               t.Code,
		Name:               t.Name,
		Description:        t.Description,
		Paid:               t.Paid,
		RequiresApproval:   t.RequiresApproval,
		AccrualBased:       t.AccrualBased,
		MaxConsecutiveDays: t.MaxConsecutiveDays,
		AdvanceNoticeDays:  t.AdvanceNoticeDays,
		AllowsPartialDays:  t.AllowsPartialDays,
		BusinessDaysOnly:   t.BusinessDaysOnly,
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

type LeaveRequestDetailResponse struct {
	LeaveRequestResponse
	History []StatusChangeResponse `json:"history"`
}

type TransactionResponse struct {
	ID              string    `json:"id"`
	BalanceID       string    `json:"balance_id"`
	Type            string    `json:"type"`
	Amount          string    `json:"amount"`
	TransactionDate string    `json:"transaction_date"`
	LeaveRequestID  *string   `json:"leave_request_id,omitempty"`
	ActorID         string    `json:"actor_id"`
	Reason          string    `json:"reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewTransactionResponses(entries []AccrualTransaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TransactionResponse{
			ID:              e.ID,
			BalanceID:       e.BalanceID,
			Type:            string(e.Type),
			Amount:          e.Amount.String(),
			TransactionDate: e.TransactionDate.Format("2006-01-02"),
			LeaveRequestID:  e.LeaveRequestID,
			ActorID:         e.ActorID,
			Reason:          e.Reason,
			CreatedAt:       e.CreatedAt,
		})
	}
	return out
}
