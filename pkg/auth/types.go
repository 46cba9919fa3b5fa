package auth

import (
	"strings"
	"time"
)

// Role represents a user's role inside a garage
type Role string

const (
	RoleGarageOwner     Role = "GARAGE_OWNER"
	RoleGarageAdmin     Role = "GARAGE_ADMIN"
	RoleSubAccountUser  Role = "SUBACCOUNT_USER"
	RoleSubAccountGuest Role = "SUBACCOUNT_GUEST"
)

// DefaultRole is assigned when a caller does not ask for a specific role
const DefaultRole = RoleSubAccountUser

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleGarageOwner, RoleGarageAdmin, RoleSubAccountUser, RoleSubAccountGuest:
		return true
	}
	return false
}

// IsGarageRole reports whether r operates at garage level
func (r Role) IsGarageRole() bool {
	return r == RoleGarageOwner || r == RoleGarageAdmin
}

// IsSubAccountRole reports whether r operates at sub-account level
func (r Role) IsSubAccountRole() bool {
	return r == RoleSubAccountUser || r == RoleSubAccountGuest
}

// ParseRole parses a role name, case-insensitively
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", &InvalidRoleError{Value: s}
	}
	return r, nil
}

// User represents a persisted member of the console
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	Role      Role      `json:"role"`
	GarageID  *string   `json:"garage_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasGarage reports whether the user has been attached to a garage
func (u *User) HasGarage() bool {
	return u != nil && u.GarageID != nil && *u.GarageID != ""
}

// GarageIDValue returns the garage id or "" when the user has none
func (u *User) GarageIDValue() string {
	if !u.HasGarage() {
		return ""
	}
	return *u.GarageID
}

// BelongsTo reports whether the user is attached to the given garage
func (u *User) BelongsTo(garageID string) bool {
	return u.HasGarage() && *u.GarageID == garageID
}

// Identity is an authenticated human as reported by the identity provider
type Identity struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	DisplayName   string `json:"display_name"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// Verified reports whether the identity carries an email the identity
// provider has verified. Only verified emails are used as the join key.
func (i *Identity) Verified() bool {
	return i != nil && i.EmailVerified && i.NormalizedEmail() != ""
}

// NormalizedEmail returns the identity email in the form used as the join key
func (i *Identity) NormalizedEmail() string {
	if i == nil {
		return ""
	}
	return NormalizeEmail(i.Email)
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName joins a first and last name the way the console shows them
func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}

// StringPtr returns a pointer to s, or nil when s is empty
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
