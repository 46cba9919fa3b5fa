package rbac

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/storage"
)

// UserFinder is the store dependency of the checker
type UserFinder interface {
	FindUserByEmail(ctx context.Context, email string) (*auth.User, error)
}

// Checker handles permission checking and evaluation
type Checker struct {
	users UserFinder
	now   func() time.Time
}

// NewChecker creates a new permission checker
func NewChecker(users UserFinder) *Checker {
	return &Checker{users: users, now: time.Now}
}

// Evaluate checks a known user without touching the store
func (c *Checker) Evaluate(user *auth.User, garageID string, perm Permission) *PermissionCheckResult {
	result := &PermissionCheckResult{Role: user.Role, CheckedAt: c.now()}

	switch {
	case !user.BelongsTo(garageID):
		result.Reason = "user is not a member of this garage"
	case !RoleHasPermission(user.Role, perm):
		result.Reason = fmt.Sprintf("role %s does not grant %s", user.Role, perm)
	default:
		result.Allowed = true
		result.Reason = fmt.Sprintf("granted by role %s", user.Role)
	}
	return result
}

// CheckPermission checks if the identity may perform perm in the garage.
// An identity without a user row is never allowed. Users are looked up by
// verified email only; an unverified identity is not authenticated.
func (c *Checker) CheckPermission(ctx context.Context, id *auth.Identity, garageID string, perm Permission) (*auth.User, *PermissionCheckResult, error) {
	if !id.Verified() {
		return nil, nil, auth.ErrNotAuthenticated
	}

	user, err := c.users.FindUserByEmail(ctx, id.NormalizedEmail())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &PermissionCheckResult{Reason: "no user for identity", CheckedAt: c.now()}, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, c.Evaluate(user, garageID, perm), nil
}

// Require returns the identity's user when perm is granted, and an error
// matching ErrPermissionDenied otherwise
func (c *Checker) Require(ctx context.Context, id *auth.Identity, garageID string, perm Permission) (*auth.User, error) {
	user, result, err := c.CheckPermission(ctx, id, garageID, perm)
	if err != nil {
		return nil, err
	}
	if !result.Allowed {
		return nil, fmt.Errorf("%w: %s on garage %s: %s", ErrPermissionDenied, perm, garageID, result.Reason)
	}
	return user, nil
}
