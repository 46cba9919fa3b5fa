package provisioning

import "github.com/platinummonkey/garage/pkg/auth"

// Outcome is the terminal state of a garage resolution
type Outcome string

const (
	// OutcomeSignInRequired means there is no signed-in identity
	OutcomeSignInRequired Outcome = "sign_in_required"
	// OutcomeOwnerInvitationRejected means the pending invitation asked for GARAGE_OWNER
	OutcomeOwnerInvitationRejected Outcome = "owner_invitation_rejected"
	// OutcomeProvisioned means an invitation was accepted and a user created
	OutcomeProvisioned Outcome = "provisioned"
	// OutcomeExistingMember means the identity already has a user attached to a garage
	OutcomeExistingMember Outcome = "existing_member"
	// OutcomeNoGarage means the identity has no invitation and no garage
	OutcomeNoGarage Outcome = "no_garage"
	// OutcomeProvisioningFailed means the workflow failed; Err holds the cause
	OutcomeProvisioningFailed Outcome = "provisioning_failed"
)

// Resolution is the result of ResolveGarageForIdentity
type Resolution struct {
	Outcome Outcome
	// User is the identity's user row when one is known
	User *auth.User
	// Err is set for OutcomeProvisioningFailed
	Err error

	garageID string
}

// GarageID returns the resolved garage id, if any
func (r Resolution) GarageID() (string, bool) {
	return r.garageID, r.garageID != ""
}

func resolved(outcome Outcome, user *auth.User, garageID string) Resolution {
	return Resolution{Outcome: outcome, User: user, garageID: garageID}
}

func failed(user *auth.User, err error) Resolution {
	return Resolution{Outcome: OutcomeProvisioningFailed, User: user, Err: err}
}

// NewResolution builds a resolution outside the provisioner, for callers
// replaying a stored outcome
func NewResolution(outcome Outcome, user *auth.User, garageID string) Resolution {
	return resolved(outcome, user, garageID)
}
