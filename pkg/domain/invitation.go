package domain

import "github.com/platinummonkey/garage/pkg/auth"

// InvitationStatus is the lifecycle state of an invitation
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "PENDING"
	InvitationAccepted InvitationStatus = "ACCEPTED"
)

// Invitation is a pending offer of membership in a garage, keyed by email
type Invitation struct {
	ID       string           `json:"id"`
	Email    string           `json:"email"`
	GarageID string           `json:"garage_id"`
	Role     auth.Role        `json:"role"`
	Status   InvitationStatus `json:"status"`
}

// IsPending reports whether the invitation can still be accepted
func (i *Invitation) IsPending() bool {
	return i != nil && i.Status == InvitationPending
}
