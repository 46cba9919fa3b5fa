package garages

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/rbac"
)

func TestCreateSubAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	sa, err := f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{
		GarageID:     "G1",
		Name:         "Downtown",
		CompanyEmail: "Downtown@Acme.test",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, sa.ID)
	assert.Equal(t, domain.DefaultGoal, sa.Goal)
	assert.Equal(t, "downtown@acme.test", sa.CompanyEmail)
	require.Len(t, sa.SidebarOptions, 8)

	found, err := f.svc.FindSubAccountByID(ctx, sa.ID)
	require.NoError(t, err)
	require.Len(t, found.SidebarOptions, 8)
	assert.Equal(t, "Launchpad", found.SidebarOptions[0].Name)
	assert.Equal(t, "/subaccount/"+sa.ID, found.SidebarOptions[7].Link)

	notes, err := f.store.ListNotifications(ctx, "G1", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Olivia Owner | Updated sub account | Downtown", notes[0].Notification)
	require.NotNil(t, notes[0].SubAccountID)
	assert.Equal(t, sa.ID, *notes[0].SubAccountID)

	subs, err := f.svc.ListSubAccounts(ctx, "G1")
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestCreateSubAccount_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	_, err := f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{GarageID: "G1", CompanyEmail: "x@acme.test"})
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	_, err = f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{GarageID: "G1", Name: "North"})
	assert.ErrorIs(t, err, ErrMissingRequiredField)

	guest := &auth.Identity{ID: "user_gus", Email: "gus@acme.test", EmailVerified: true, DisplayName: "Gus"}
	f.addUser(t, guest, auth.RoleSubAccountGuest, "G1")
	_, err = f.svc.CreateSubAccount(ctx, guest, &domain.SubAccount{GarageID: "G1", Name: "North", CompanyEmail: "n@acme.test"})
	assert.ErrorIs(t, err, rbac.ErrPermissionDenied)
}

func TestCreateSubAccount_PlanLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	_, err := f.svc.billing.StartTrial(ctx, "G1", billing.PlanStarter)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{
			GarageID:     "G1",
			Name:         fmt.Sprintf("Branch %d", i),
			CompanyEmail: fmt.Sprintf("b%d@acme.test", i),
		})
		require.NoError(t, err)
	}

	_, err = f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{GarageID: "G1", Name: "Branch 4", CompanyEmail: "b4@acme.test"})
	assert.ErrorIs(t, err, ErrPlanLimitReached)

	subs, err := f.svc.ListSubAccounts(ctx, "G1")
	require.NoError(t, err)
	assert.Len(t, subs, 3)
}
