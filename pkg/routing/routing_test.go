package routing

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/provisioning"
)

func userWithRole(role auth.Role, garageID string) *auth.User {
	return &auth.User{ID: "u1", Email: "alice@example.com", Role: role, GarageID: auth.StringPtr(garageID)}
}

func TestDecide_WithGarage(t *testing.T) {
	provisioned := provisioning.NewResolution(provisioning.OutcomeProvisioned, nil, "G1")

	tests := []struct {
		name   string
		user   *auth.User
		params Params
		want   Destination
	}{
		{
			name: "sub-account user",
			user: userWithRole(auth.RoleSubAccountUser, "G1"),
			want: Destination{Kind: KindRedirect, Location: "/subaccount"},
		},
		{
			name: "sub-account guest",
			user: userWithRole(auth.RoleSubAccountGuest, "G1"),
			want: Destination{Kind: KindRedirect, Location: "/subaccount"},
		},
		{
			name: "owner lands on garage",
			user: userWithRole(auth.RoleGarageOwner, "G1"),
			want: Destination{Kind: KindRedirect, Location: "/garage/G1"},
		},
		{
			name:   "admin with plan goes to billing",
			user:   userWithRole(auth.RoleGarageAdmin, "G1"),
			params: Params{Plan: "basic"},
			want:   Destination{Kind: KindRedirect, Location: "/garage/G1/billing?plan=basic"},
		},
		{
			name:   "plan wins over state",
			user:   userWithRole(auth.RoleGarageOwner, "G1"),
			params: Params{Plan: "basic", State: "launchpad__G2", Code: "abc"},
			want:   Destination{Kind: KindRedirect, Location: "/garage/G1/billing?plan=basic"},
		},
		{
			name:   "state returns to page in state garage",
			user:   userWithRole(auth.RoleGarageOwner, "G1"),
			params: Params{State: "launchpad__G2", Code: "abc"},
			want:   Destination{Kind: KindRedirect, Location: "/garage/G2/launchpad?code=abc"},
		},
		{
			name:   "state without garage id",
			user:   userWithRole(auth.RoleGarageOwner, "G1"),
			params: Params{State: "launchpad", Code: "abc"},
			want:   Destination{Kind: KindUnauthorized, Reason: "state carries no garage id"},
		},
		{
			name: "missing user",
			user: nil,
			want: Destination{Kind: KindUnauthorized, Reason: "no user for identity"},
		},
		{
			name: "unknown role",
			user: userWithRole(auth.Role("JANITOR"), "G1"),
			want: Destination{Kind: KindUnauthorized, Reason: "role JANITOR has no landing page"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(provisioned, tt.user, tt.params))
		})
	}
}

func TestDecide_WithoutGarage(t *testing.T) {
	t.Run("sign in required", func(t *testing.T) {
		res := provisioning.NewResolution(provisioning.OutcomeSignInRequired, nil, "")
		assert.Equal(t, Destination{Kind: KindRedirect, Location: DefaultSignInPath}, Decide(res, nil, Params{}))
	})

	t.Run("custom sign in path", func(t *testing.T) {
		res := provisioning.NewResolution(provisioning.OutcomeSignInRequired, nil, "")
		got := Decide(res, nil, Params{SignInPath: "/login"})
		assert.Equal(t, "/login", got.Location)
	})

	t.Run("owner invitation rejected shows create form", func(t *testing.T) {
		user := &auth.User{Email: "bob@example.com", Role: auth.RoleSubAccountUser}
		res := provisioning.NewResolution(provisioning.OutcomeOwnerInvitationRejected, user, "")
		assert.Equal(t, Destination{Kind: KindCreateGarage, CompanyEmail: "bob@example.com"}, Decide(res, user, Params{}))
	})

	t.Run("provisioning failed shows create form with identity email", func(t *testing.T) {
		res := provisioning.Resolution{Outcome: provisioning.OutcomeProvisioningFailed, Err: errors.New("boom")}
		got := Decide(res, nil, Params{Email: "carol@example.com"})
		assert.Equal(t, KindCreateGarage, got.Kind)
		assert.Equal(t, "carol@example.com", got.CompanyEmail)
	})

	t.Run("no garage", func(t *testing.T) {
		res := provisioning.NewResolution(provisioning.OutcomeNoGarage, nil, "")
		assert.Equal(t, KindCreateGarage, Decide(res, nil, Params{}).Kind)
	})
}

func TestParamsFromQuery(t *testing.T) {
	q := url.Values{"plan": {"basic"}, "state": {"settings__G1"}, "code": {"xyz"}}
	assert.Equal(t, Params{Plan: "basic", State: "settings__G1", Code: "xyz"}, ParamsFromQuery(q))
}

func TestState_RoundTrip(t *testing.T) {
	assert.Equal(t, "launchpad__G1", State("/launchpad", "G1"))

	res := provisioning.NewResolution(provisioning.OutcomeExistingMember, nil, "G1")
	dest := Decide(res, userWithRole(auth.RoleGarageOwner, "G1"), Params{State: State("billing", "G9"), Code: "c1"})
	assert.Equal(t, "/garage/G9/billing?code=c1", dest.Location)
}
