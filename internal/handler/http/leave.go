package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/handler/http/middleware"
	"github.com/atlashr/hr-backend-go/internal/handler/http/response"
	"github.com/atlashr/hr-backend-go/internal/service/ledger"
	leaveservice "github.com/atlashr/hr-backend-go/internal/service/leave"
)

type LeaveHandler interface {
	CreateType(w http.ResponseWriter, r *http.Request)
	ListTypes(w http.ResponseWriter, r *http.Request)

	GetMyBalances(w http.ResponseWriter, r *http.Request)
	GetEmployeeBalances(w http.ResponseWriter, r *http.Request)
	GetBalanceHistory(w http.ResponseWriter, r *http.Request)
	OpenBalance(w http.ResponseWriter, r *http.Request)
	AdjustBalance(w http.ResponseWriter, r *http.Request)

	CreateRequest(w http.ResponseWriter, r *http.Request)
	GetMyRequests(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	ApproveRequest(w http.ResponseWriter, r *http.Request)
	DenyRequest(w http.ResponseWriter, r *http.Request)
	CancelRequest(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService  *leaveservice.Service
	ledgerService *ledger.Service
}

func NewLeaveHandler(leaveService *leaveservice.Service, ledgerService *ledger.Service) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService:  leaveService,
		ledgerService: ledgerService,
	}
}

// CreateType implements LeaveHandler.
func (h *LeaveHandlerImpl) CreateType(w http.ResponseWriter, r *http.Request) {
	var req leave.CreateLeaveTypeRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateType decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.leaveService.CreateType(r.Context(), req)
	if err != nil {
		slog.Error("CreateType service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave type created", leave.NewLeaveTypeResponse(created))
}

// ListTypes implements LeaveHandler.
func (h *LeaveHandlerImpl) ListTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.leaveService.ListTypes(r.Context())
	if err != nil {
		slog.Error("ListTypes service error", "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]leave.LeaveTypeResponse, 0, len(types))
	for _, t := range types {
		out = append(out, leave.NewLeaveTypeResponse(t))
	}
	response.Success(w, out)
}

// GetMyBalances implements LeaveHandler.
func (h *LeaveHandlerImpl) GetMyBalances(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	h.writeBalances(w, r, caller.EmployeeID)
}

// GetEmployeeBalances implements LeaveHandler.
func (h *LeaveHandlerImpl) GetEmployeeBalances(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	if !canActFor(caller, employeeID) {
		response.Forbidden(w, "You do not manage this employee")
		return
	}

	h.writeBalances(w, r, employeeID)
}

func (h *LeaveHandlerImpl) writeBalances(w http.ResponseWriter, r *http.Request, employeeID string) {
	balances, err := h.leaveService.ListBalances(r.Context(), employeeID)
	if err != nil {
		slog.Error("ListBalances service error", "employee_id", employeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]leave.BalanceResponse, 0, len(balances))
	for _, b := range balances {
		out = append(out, leave.NewBalanceResponse(b))
	}
	response.Success(w, out)
}

// GetBalanceHistory implements LeaveHandler.
func (h *LeaveHandlerImpl) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	balanceID := chi.URLParam(r, "balanceID")

	entries, err := h.ledgerService.History(r.Context(), balanceID)
	if err != nil {
		slog.Error("GetBalanceHistory service error", "balance_id", balanceID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewTransactionResponses(entries))
}

// OpenBalance implements LeaveHandler.
func (h *LeaveHandlerImpl) OpenBalance(w http.ResponseWriter, r *http.Request) {
	var req leave.OpenBalanceRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("OpenBalance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	balance, err := h.leaveService.OpenBalance(r.Context(), req.EmployeeID, req.LeaveTypeID)
	if err != nil {
		slog.Error("OpenBalance service error", "employee_id", req.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Balance opened", leave.NewBalanceResponse(balance))
}

// AdjustBalance implements LeaveHandler.
func (h *LeaveHandlerImpl) AdjustBalance(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	var req leave.AdjustBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("AdjustBalance decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	balanceID := chi.URLParam(r, "balanceID")
	balance, err := h.leaveService.AdjustBalance(r.Context(), balanceID, caller.UserID, req)
	if err != nil {
		slog.Error("AdjustBalance service error", "balance_id", balanceID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewBalanceResponse(balance))
}

// CreateRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	var req leave.CreateLeaveRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateRequest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	created, err := h.leaveService.Submit(r.Context(), caller.EmployeeID, req)
	if err != nil {
		slog.Warn("CreateRequest rejected", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted", leave.NewLeaveRequestResponse(created))
}

// GetMyRequests implements LeaveHandler.
func (h *LeaveHandlerImpl) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil || caller.EmployeeID == "" {
		response.Unauthorized(w, "No employee linked to this account")
		return
	}

	requests, err := h.leaveService.ListByEmployee(r.Context(), caller.EmployeeID)
	if err != nil {
		slog.Error("GetMyRequests service error", "employee_id", caller.EmployeeID, "error", err)
		response.HandleError(w, err)
		return
	}

	out := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, req := range requests {
		out = append(out, leave.NewLeaveRequestResponse(req))
	}
	response.Success(w, out)
}

// GetRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requestID := chi.URLParam(r, "requestID")
	request, history, err := h.leaveService.Get(r.Context(), requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if request.EmployeeID != caller.EmployeeID && !canActFor(caller, request.EmployeeID) {
		response.Forbidden(w, "You cannot view this request")
		return
	}

	response.Success(w, leave.LeaveRequestDetailResponse{
		LeaveRequestResponse: leave.NewLeaveRequestResponse(request),
		History:              leave.NewStatusChangeResponses(history),
	})
}

// ApproveRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.leaveService.Approve)
}

// DenyRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) DenyRequest(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, h.leaveService.Deny)
}

func (h *LeaveHandlerImpl) review(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, requestID, reviewerID string, review leave.ReviewLeaveRequestRequest) (leave.LeaveRequest, error),
) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requestID := chi.URLParam(r, "requestID")
	request, _, err := h.leaveService.Get(r.Context(), requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if !canActFor(caller, request.EmployeeID) {
		response.Forbidden(w, "You do not manage this employee")
		return
	}

	var review leave.ReviewLeaveRequestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			slog.Error("Review decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	updated, err := action(r.Context(), requestID, caller.UserID, review)
	if err != nil {
		slog.Warn("Review failed", "request_id", requestID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewLeaveRequestResponse(updated))
}

// CancelRequest implements LeaveHandler.
func (h *LeaveHandlerImpl) CancelRequest(w http.ResponseWriter, r *http.Request) {
	caller, err := middleware.Caller(r)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	requestID := chi.URLParam(r, "requestID")
	request, _, err := h.leaveService.Get(r.Context(), requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if request.EmployeeID != caller.EmployeeID {
		response.Forbidden(w, "Only the requester can cancel")
		return
	}

	var review leave.ReviewLeaveRequestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&review); err != nil {
			slog.Error("CancelRequest decode error", "error", err)
			response.BadRequest(w, "Invalid request format", nil)
			return
		}
	}

	updated, err := h.leaveService.Cancel(r.Context(), requestID, caller.UserID, review)
	if err != nil {
		slog.Warn("CancelRequest failed", "request_id", requestID, "error", err)
		response.HandleError(w, err)
		return
	}

	response.Success(w, leave.NewLeaveRequestResponse(updated))
}

// canActFor reports whether the caller may act on the employee's records:
// HR admins always, managers only for their reports.
func canActFor(caller auth.Context, employeeID string) bool {
	switch caller.Role {
	case auth.RoleHRAdmin:
		return true
	case auth.RoleManager:
		return caller.Manages(employeeID)
	default:
		return false
	}
}
