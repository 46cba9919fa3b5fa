package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is returned when an operation needs an identity and none was given
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrInvalidRole is matched by every InvalidRoleError
	ErrInvalidRole = errors.New("invalid role")
)

// InvalidRoleError reports a role name that is not recognised
type InvalidRoleError struct {
	Value string
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("invalid role %q", e.Value)
}

// Is lets errors.Is match ErrInvalidRole
func (e *InvalidRoleError) Is(target error) bool {
	return target == ErrInvalidRole
}
