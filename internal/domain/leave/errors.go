package leave

import "errors"

var (
	ErrLeaveTypeNotFound    = errors.New("leave type not found")
	ErrLeavePolicyNotFound  = errors.New("leave policy not found")
	ErrAmbiguousPolicy      = errors.New("multiple active leave policies match; refusing ambiguous match")
	ErrBalanceNotFound      = errors.New("leave balance not found")
	ErrBalanceExists        = errors.New("leave balance already exists")
	ErrNotAccrualBased      = errors.New("leave type does not accrue a balance")
	ErrInsufficientBalance  = errors.New("insufficient leave balance")
	ErrBalanceExceedsMax    = errors.New("transaction would exceed maximum balance")
	ErrLeaveRequestNotFound = errors.New("leave request not found")
	ErrInvalidTransition    = errors.New("invalid leave request transition")
	ErrOverlappingRequest   = errors.New("overlapping leave request exists")
	ErrInvalidDateRange     = errors.New("end date must not be before start date")
)
