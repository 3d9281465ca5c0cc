package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when an insert-if-absent finds an existing row
	ErrAlreadyExists = errors.New("already exists")

	// ErrConflict is returned when a conditional update matched nothing
	ErrConflict = errors.New("conflict: entity was modified concurrently")

	// ErrWriteFailed is returned when a write could not be persisted after retries
	ErrWriteFailed = errors.New("write failed")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)
