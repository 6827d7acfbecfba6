package response

import (
	"errors"
	"net/http"

	"github.com/atlashr/hr-backend-go/internal/domain/auth"
	"github.com/atlashr/hr-backend-go/internal/domain/employee"
	"github.com/atlashr/hr-backend-go/internal/domain/leave"
	"github.com/atlashr/hr-backend-go/internal/domain/timesheet"
	"github.com/atlashr/hr-backend-go/internal/pkg/validator"
	"github.com/atlashr/hr-backend-go/internal/service/policy"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	// Policy rule violations carry the full evaluation result.
	var violation *policy.ViolationError
	if errors.As(err, &violation) {
		PolicyViolation(w, violation.Result)
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid email or password")
	case errors.Is(err, auth.ErrUserInactive):
		Forbidden(w, "User is not active")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or missing token")
	case errors.Is(err, auth.ErrForbidden):
		Forbidden(w, "Insufficient role for this operation")
	case errors.Is(err, auth.ErrUserNotFound):
		NotFound(w, "User not found")

	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrEmployeeInactive):
		Forbidden(w, "Employee is not active")

	// Leave domain errors
	case errors.Is(err, leave.ErrLeaveTypeNotFound):
		NotFound(w, "Leave type not found")
	case errors.Is(err, leave.ErrLeavePolicyNotFound):
		NotFound(w, "No leave policy covers this request")
	case errors.Is(err, leave.ErrAmbiguousPolicy):
		Conflict(w, "Multiple leave policies match; policy configuration needs attention")
	case errors.Is(err, leave.ErrBalanceNotFound):
		NotFound(w, "Leave balance not found")
	case errors.Is(err, leave.ErrBalanceExists):
		Conflict(w, "Leave balance already exists")
	case errors.Is(err, leave.ErrNotAccrualBased):
		BadRequest(w, "Leave type does not accrue a balance", nil)
	case errors.Is(err, leave.ErrInsufficientBalance):
		BadRequest(w, "Insufficient leave balance", nil)
	case errors.Is(err, leave.ErrBalanceExceedsMax):
		BadRequest(w, "Transaction would exceed the maximum balance", nil)
	case errors.Is(err, leave.ErrLeaveRequestNotFound):
		NotFound(w, "Leave request not found")
	case errors.Is(err, leave.ErrInvalidTransition):
		Conflict(w, "Leave request already processed")
	case errors.Is(err, leave.ErrOverlappingRequest):
		Conflict(w, "An overlapping leave request exists")
	case errors.Is(err, leave.ErrInvalidDateRange):
		BadRequest(w, "End date must not be before start date", nil)

	// Timesheet domain errors
	case errors.Is(err, timesheet.ErrTimeEntryNotFound):
		NotFound(w, "Time entry not found")
	case errors.Is(err, timesheet.ErrOvertimePolicyNotFound):
		NotFound(w, "No overtime policy covers this entry")
	case errors.Is(err, timesheet.ErrInvalidTimeSequence):
		BadRequest(w, "Clock-out must not precede clock-in", nil)
	case errors.Is(err, timesheet.ErrInvalidTransition):
		Conflict(w, "Time entry already processed")
	case errors.Is(err, timesheet.ErrAlreadyClockedIn):
		Conflict(w, "An active time entry already exists")
	case errors.Is(err, timesheet.ErrNoActiveEntry):
		NotFound(w, "No active time entry")
	case errors.Is(err, timesheet.ErrOpenBreak):
		Conflict(w, "An open break must be ended first")
	case errors.Is(err, timesheet.ErrNoOpenBreak):
		NotFound(w, "No open break to end")
	case errors.Is(err, timesheet.ErrNotCorrectable):
		Conflict(w, "Only approved entries can be corrected")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
