package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
	"github.com/atlashr/hr-backend-go/internal/handler/http/middleware"
	"github.com/atlashr/hr-backend-go/internal/handler/http/response"
	timesheetservice "github.com/atlashr/hr-backend-go/internal/service/timesheet"
)

type TimesheetHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	StartBreak(w http.ResponseWriter, r *http.Request)
	EndBreak(w http.ResponseWriter, r *http.Request)

	CreateEntry(w http.ResponseWriter, r *http.Request)
	SubmitEntry(w http.ResponseWriter, r *http.Request)
	ApproveEntry(w http.ResponseWriter, r *http.Request)
	RejectEntry(w http.ResponseWriter, r *http.Request)
	CorrectEntry(w http.ResponseWriter, r *http.Request)

	GetMyEntries(w http.ResponseWriter, r *http.Request)
	GetEntry(w http.ResponseWriter, r *http.Request)
	GetWeeklyHours(w http.ResponseWriter, r *http.Request)
}

type TimesheetHandlerImpl struct {
	timesheetService *timesheetservice.Service
}

func NewTimesheetHandler(timesheetService *timesheetservice.Service) TimesheetHandler {
	return &TimesheetHandlerImpl{timesheetService: timesheetService}
}

// ClockIn implements TimesheetHandler.
func (h *TimesheetHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	var req timesheet.ClockRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("ClockIn decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	entry, err := h.timesheetService.ClockIn(r.Context(), caller.EmployeeID, req)
	if err != nil {
		slog.Warn("ClockIn rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clocked in", timesheet.NewTimeEntryResponse(entry))
}

// ClockOut implements TimesheetHandler.
func (h *TimesheetHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	var req timesheet.ClockRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			slog.Error("ClockOut decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	entry, err := h.timesheetService.ClockOut(r.Context(), caller.EmployeeID, req)
	if err != nil {
		slog.Warn("ClockOut rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.NewTimeEntryResponse(entry))
}

// StartBreak implements TimesheetHandler.
func (h *TimesheetHandlerImpl) StartBreak(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	var req timesheet.StartBreakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("StartBreak decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	brk, err := h.timesheetService.StartBreak(r.Context(), caller.EmployeeID, req)
	if err != nil {
		slog.Warn("StartBreak rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Break started", timesheet.NewBreakResponse(brk))
}

// EndBreak implements TimesheetHandler.
func (h *TimesheetHandlerImpl) EndBreak(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	brk, err := h.timesheetService.EndBreak(r.Context(), caller.EmployeeID)
	if err != nil {
		slog.Warn("EndBreak rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.NewBreakResponse(brk))
}

// CreateEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) CreateEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	var req timesheet.CreateManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateEntry decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	entry, err := h.timesheetService.CreateManualEntry(r.Context(), caller.EmployeeID, req)
	if err != nil {
		slog.Warn("CreateEntry rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Entry created", timesheet.NewTimeEntryResponse(entry))
}

// SubmitEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) SubmitEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if !h.ownsEntry(w, r, caller.EmployeeID, entryID) {
		return
	}

	entry, err := h.timesheetService.Submit(r.Context(), entryID, caller.UserID)
	if err != nil {
		slog.Warn("SubmitEntry rejected", "entry_id", entryID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.NewTimeEntryResponse(entry))
}

// ApproveEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) ApproveEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if !h.canReviewEntry(w, r, caller, entryID) {
		return
	}

	entry, err := h.timesheetService.Approve(r.Context(), entryID, caller.UserID)
	if err != nil {
		slog.Warn("ApproveEntry rejected", "entry_id", entryID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.NewTimeEntryResponse(entry))
}

// RejectEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) RejectEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if !h.canReviewEntry(w, r, caller, entryID) {
		return
	}

	var req timesheet.RejectEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RejectEntry decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	entry, err := h.timesheetService.Reject(r.Context(), entryID, caller.UserID, req)
	if err != nil {
		slog.Warn("RejectEntry rejected", "entry_id", entryID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, timesheet.NewTimeEntryResponse(entry))
}

// CorrectEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) CorrectEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	if !h.ownsEntry(w, r, caller.EmployeeID, entryID) {
		return
	}

	var req timesheet.CreateManualEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CorrectEntry decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	entry, err := h.timesheetService.Correct(r.Context(), entryID, caller.UserID, req)
	if err != nil {
		slog.Warn("CorrectEntry rejected", "entry_id", entryID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction submitted", timesheet.NewTimeEntryResponse(entry))
}

// GetMyEntries implements TimesheetHandler. Accepts optional from/to query
// params (YYYY-MM-DD); defaults to the last 30 days.
func (h *TimesheetHandlerImpl) GetMyEntries(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := r.URL.Query().Get("from"); v != "" {
		from, err = time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(w, "Invalid from date", nil)
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to, err = time.Parse("2006-01-02", v)
		if err != nil {
			response.BadRequest(w, "Invalid to date", nil)
			return
		}
		to = to.AddDate(0, 0, 1)
	}

	entries, err := h.timesheetService.ListEntries(r.Context(), caller.EmployeeID, from, to)
	if err != nil {
		slog.Error("GetMyEntries service error", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]timesheet.TimeEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, timesheet.NewTimeEntryResponse(e))
	}
	response.Success(w, out)
}

// GetEntry implements TimesheetHandler.
func (h *TimesheetHandlerImpl) GetEntry(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	entryID := chi.URLParam(r, "entryID")
	entry, history, err := h.timesheetService.GetEntry(r.Context(), entryID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if entry.EmployeeID != caller.EmployeeID && !canActFor(caller, entry.EmployeeID) {
		response.Forbidden(w, "You cannot view this entry")
		return
	}

	response.Success(w, timesheet.NewTimeEntryDetailResponse(entry, history))
}

// GetWeeklyHours implements TimesheetHandler. The week_start query param
// (YYYY-MM-DD) names the first day of the week to total.
func (h *TimesheetHandlerImpl) GetWeeklyHours(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if employeeID != caller.EmployeeID && !canActFor(caller, employeeID) {
		response.Forbidden(w, "You do not manage this employee")
		return
	}

	weekStart, err := time.Parse("2006-01-02", r.URL.Query().Get("week_start"))
	if err != nil {
		response.BadRequest(w, "week_start must be YYYY-MM-DD", nil)
		return
	}

	splits, err := h.timesheetService.WeeklyHours(r.Context(), employeeID, weekStart)
	if err != nil {
		slog.Error("GetWeeklyHours service error", "employee_id", employeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]timesheet.DailyHoursResponse, 0, len(splits))
	for _, s := range splits {
		out = append(out, timesheet.DailyHoursResponse{
			EntryID:    s.EntryID,
			WorkDate:   s.WorkDate.Format("2006-01-02"),
			Total:      s.Total.String(),
			Regular:    s.Regular.String(),
			Overtime:   s.Overtime.String(),
			DoubleTime: s.DoubleTime.String(),
		})
	}
	response.Success(w, out)
}

// ownsEntry loads the entry and confirms the caller is its employee,
// writing the error response itself when not.
func (h *TimesheetHandlerImpl) ownsEntry(w http.ResponseWriter, r *http.Request, employeeID, entryID string) bool {
	entry, _, err := h.timesheetService.GetEntry(r.Context(), entryID)
	if err != nil {
		response.HandleError(w, err)
		return false
	}
	if entry.EmployeeID != employeeID {
		response.Forbidden(w, "Not your entry")
		return false
	}
	return true
}

func (h *TimesheetHandlerImpl) canReviewEntry(w http.ResponseWriter, r *http.Request, caller auth.Context, entryID string) bool {
	entry, _, err := h.timesheetService.GetEntry(r.Context(), entryID)
	if err != nil {
		response.HandleError(w, err)
		return false
	}
	if !canActFor(caller, entry.EmployeeID) {
		response.Forbidden(w, "You do not manage this employee")
		return false
	}
	return true
}
