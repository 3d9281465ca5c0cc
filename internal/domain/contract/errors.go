package contract

import "errors"

var (
	// ErrContractNotFound indicates the contract doesn't exist.
	ErrContractNotFound = errors.New("contract not found")
	// ErrIllegalStatusTransition indicates a forbidden status change.
	ErrIllegalStatusTransition = errors.New("illegal contract status transition")
	// ErrInvalidInput indicates invalid contract input.
	ErrInvalidInput = errors.New("invalid contract input")
	// ErrInvalidRole indicates a role outside client, freelancer and admin.
	ErrInvalidRole = errors.New("invalid role")
)
