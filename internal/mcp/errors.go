package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/hourly/internal/domain/contract"
	"github.com/rpggio/hourly/internal/domain/payment"
	"github.com/rpggio/hourly/internal/domain/tracking"
	"github.com/rpggio/hourly/internal/repository"
)

// ErrForbidden indicates the actor is not a party allowed to perform the call.
var ErrForbidden = errors.New("forbidden")

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode lets transports surface the code without importing this package.
func (e *APIError) ErrorCode() string {
	return e.Code
}

// MapError maps domain errors to MCP error codes. Unknown errors map to nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, tracking.ErrSessionAlreadyActive):
		return &APIError{Code: "SESSION_ALREADY_ACTIVE", Message: "a session is already running on this contract", RecoveryHint: "Stop the running session first"}
	case errors.Is(err, tracking.ErrNoActiveSession):
		return &APIError{Code: "NO_ACTIVE_SESSION", Message: "no session is running on this contract", RecoveryHint: "Call start_tracking first"}
	case errors.Is(err, tracking.ErrSessionChanged):
		return &APIError{Code: "SESSION_CHANGED", Message: "another session replaced the one being stopped", RecoveryHint: "Call get_active_session and stop the running session by its id"}
	case errors.Is(err, contract.ErrContractNotFound):
		return &APIError{Code: "CONTRACT_NOT_FOUND", Message: "contract not found", RecoveryHint: "Check the id with list_contracts"}
	case errors.Is(err, payment.ErrEntryNotFound):
		return &APIError{Code: "ENTRY_NOT_FOUND", Message: "time entry not found", RecoveryHint: "Check ids with list_time_entries"}
	case errors.Is(err, contract.ErrIllegalStatusTransition):
		return &APIError{Code: "ILLEGAL_STATUS_TRANSITION", Message: "status change not allowed", RecoveryHint: "active<->paused, either -> terminated; terminated is final"}
	case errors.Is(err, tracking.ErrContractNotActive):
		return &APIError{Code: "CONTRACT_NOT_ACTIVE", Message: "contract is paused or terminated", RecoveryHint: "Resume the contract before tracking"}
	case errors.Is(err, contract.ErrInvalidRole):
		return &APIError{Code: "INVALID_ROLE", Message: err.Error(), RecoveryHint: "Use client, freelancer or admin"}
	case errors.Is(err, payment.ErrIdempotencyKeyReused):
		return &APIError{Code: "IDEMPOTENCY_KEY_REUSED", Message: "idempotency key belongs to another contract", RecoveryHint: "Use a fresh key per payment"}
	case errors.Is(err, contract.ErrInvalidInput),
		errors.Is(err, tracking.ErrInvalidInput),
		errors.Is(err, payment.ErrInvalidInput),
		errors.Is(err, errInvalidParams):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error(), RecoveryHint: "Check required arguments"}
	case errors.Is(err, ErrForbidden):
		return &APIError{Code: "FORBIDDEN", Message: "not allowed for this actor", RecoveryHint: "Only contract parties and admins may do this"}
	case errors.Is(err, repository.ErrWriteFailed):
		return &APIError{Code: "WRITE_FAILED", Message: "storage write failed", RecoveryHint: "Retry; nothing was changed"}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
