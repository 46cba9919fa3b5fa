package storage

import "errors"

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("conflict")

	// ErrUnavailable is returned when the backend cannot be reached
	ErrUnavailable = errors.New("storage unavailable")
)
