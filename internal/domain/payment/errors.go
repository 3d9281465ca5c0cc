package payment

import "errors"

var (
	// ErrEntryNotFound indicates the time entry doesn't exist on the contract.
	ErrEntryNotFound = errors.New("time entry not found")
	// ErrInvalidInput indicates invalid payment input.
	ErrInvalidInput = errors.New("invalid payment input")
	// ErrIdempotencyKeyReused indicates a key already settled another contract.
	ErrIdempotencyKeyReused = errors.New("idempotency key already used for another contract")
)
