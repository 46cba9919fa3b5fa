package garages

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

func TestSendInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	inv, err := f.svc.SendInvitation(ctx, owner(), "G1", " Bob@Example.com ", "")
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", inv.Email)
	assert.Equal(t, auth.DefaultRole, inv.Role)
	assert.Equal(t, domain.InvitationPending, inv.Status)

	pending, err := f.store.FindPendingInvitationByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, "G1", pending.GarageID)

	list, err := f.svc.ListInvitations(ctx, "G1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestSendInvitation_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	t.Run("owner role", func(t *testing.T) {
		_, err := f.svc.SendInvitation(ctx, owner(), "G1", "eve@example.com", auth.RoleGarageOwner)
		assert.ErrorIs(t, err, auth.ErrInvalidRole)
	})

	t.Run("unknown role", func(t *testing.T) {
		_, err := f.svc.SendInvitation(ctx, owner(), "G1", "eve@example.com", auth.Role("JANITOR"))
		assert.ErrorIs(t, err, auth.ErrInvalidRole)
	})

	t.Run("missing email", func(t *testing.T) {
		_, err := f.svc.SendInvitation(ctx, owner(), "G1", "  ", auth.RoleGarageAdmin)
		assert.ErrorIs(t, err, ErrMissingRequiredField)
	})

	t.Run("duplicate pending email", func(t *testing.T) {
		_, err := f.svc.SendInvitation(ctx, owner(), "G1", "dup@example.com", auth.RoleSubAccountUser)
		require.NoError(t, err)

		_, err = f.svc.SendInvitation(ctx, owner(), "G1", "dup@example.com", auth.RoleGarageAdmin)
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("existing member", func(t *testing.T) {
		_, err := f.svc.SendInvitation(ctx, owner(), "G1", "owner@acme.test", auth.RoleGarageAdmin)
		assert.ErrorIs(t, err, storage.ErrConflict)
	})

	t.Run("sub-account user cannot invite", func(t *testing.T) {
		sam := &auth.Identity{ID: "user_sam", Email: "sam@acme.test", EmailVerified: true, DisplayName: "Sam"}
		f.addUser(t, sam, auth.RoleSubAccountUser, "G1")

		_, err := f.svc.SendInvitation(ctx, sam, "G1", "friend@example.com", auth.RoleSubAccountUser)
		assert.ErrorIs(t, err, rbac.ErrPermissionDenied)
	})
}

func TestInvite_UnknownGarage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Invite(context.Background(), "missing", "bob@example.com", auth.RoleSubAccountUser)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
