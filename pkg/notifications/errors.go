package notifications

import "errors"

var (
	// ErrNoActor is returned when no user can be attributed with the activity
	ErrNoActor = errors.New("no user to attribute activity to")

	// ErrMissingScope is returned when neither a garage nor a sub-account is given
	ErrMissingScope = errors.New("activity has neither garage nor sub-account")
)
