package billing

import "errors"

var (
	// ErrUnknownPlan is returned for plan names outside the pricing table
	ErrUnknownPlan = errors.New("unknown plan")

	// ErrNoSubscription is returned when a garage has never subscribed
	ErrNoSubscription = errors.New("garage has no subscription")
)
