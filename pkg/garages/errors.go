package garages

import "errors"

var (
	// ErrMissingRequiredField is returned before any store call when a
	// required form field is empty
	ErrMissingRequiredField = errors.New("missing required field")

	// Coarse errors returned to callers. The store cause stays matchable
	// through errors.Is.
	ErrCouldNotCreateGarage = errors.New("could not create garage")
	ErrCouldNotDeleteGarage = errors.New("could not delete garage")
	ErrCouldNotUpdateGarage = errors.New("could not update garage")

	// ErrInvalidLogo is returned for uploads that are not images
	ErrInvalidLogo = errors.New("logo must be an image")

	// ErrNoObjectStore is returned for uploads when no object store is configured
	ErrNoObjectStore = errors.New("object storage is not configured")

	// ErrPlanLimitReached is returned when the garage's plan does not allow
	// another sub-account
	ErrPlanLimitReached = errors.New("plan limit reached")
)
