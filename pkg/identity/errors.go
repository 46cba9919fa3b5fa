package identity

import "errors"

var (
	// ErrSessionNotFound is returned when a session id is unknown or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidState is returned when the login state does not round-trip
	ErrInvalidState = errors.New("invalid login state")

	// ErrInvalidToken is returned when an ID token fails verification or lacks claims
	ErrInvalidToken = errors.New("invalid id token")
)
