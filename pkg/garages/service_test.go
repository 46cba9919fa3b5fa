package garages

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
	"github.com/platinummonkey/garage/pkg/storage/storagetest"
)

type fixture struct {
	store   *postgres.Store
	objects *storage.FileSystemObjectStore
	metrics *observability.Metrics
	svc     *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := storagetest.NewStore(t)
	objects, err := storage.NewFileSystemObjectStore(t.TempDir())
	require.NoError(t, err)

	metrics := observability.NewMetrics(prometheus.NewRegistry())
	logger := observability.NopLogger()
	activity := notifications.NewActivityLogger(st, logger, metrics)
	svc := NewService(st, objects, activity, billing.NewService(st, logger), logger, metrics)

	return &fixture{store: st, objects: objects, metrics: metrics, svc: svc}
}

func owner() *auth.Identity {
	return &auth.Identity{ID: "user_owner", Email: "owner@acme.test", EmailVerified: true, DisplayName: "Olivia Owner"}
}

// addUser creates a user row, optionally attached to a garage
func (f *fixture) addUser(t *testing.T, id *auth.Identity, role auth.Role, garageID string) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), &auth.User{
		ID:       id.ID,
		Email:    id.Email,
		Name:     id.DisplayName,
		Role:     role,
		GarageID: auth.StringPtr(garageID),
	}))
}

// createGarage creates G1 owned by owner()
func (f *fixture) createGarage(t *testing.T) *domain.Garage {
	t.Helper()
	f.addUser(t, owner(), auth.RoleGarageOwner, "")

	g, err := f.svc.UpsertGarage(context.Background(), owner(), &domain.Garage{
		ID:           "G1",
		Name:         "Acme Motors",
		CompanyEmail: "owner@acme.test",
		City:         "Springfield",
	}, nil)
	require.NoError(t, err)
	return g
}

func TestUpsertGarage_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	g := f.createGarage(t)

	assert.Equal(t, "G1", g.ID)
	assert.Equal(t, domain.DefaultGoal, g.Goal)
	require.Len(t, g.SidebarOptions, 6)

	names := make([]string, 0, 6)
	for _, o := range g.SidebarOptions {
		names = append(names, o.Name)
	}
	assert.Equal(t, []string{"Dashboard", "Launchpad", "Billing", "Settings", "Sub Accounts", "Team"}, names)
	assert.Equal(t, "/garage/G1", g.SidebarOptions[0].Link)
	assert.Equal(t, "/garage/G1/all-subaccounts", g.SidebarOptions[4].Link)

	user, err := f.store.FindUserByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.True(t, user.BelongsTo("G1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.GarageOperationsTotal.WithLabelValues("upsert_garage", "success")))
}

func TestUpsertGarage_MissingCompanyEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, email := range []string{"", "   "} {
		_, err := f.svc.UpsertGarage(ctx, owner(), &domain.Garage{ID: "G1", Name: "Acme", CompanyEmail: email}, nil)
		assert.ErrorIs(t, err, ErrMissingRequiredField)
	}

	exists, err := f.store.GarageExists(ctx, "G1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertGarage_UpdateKeepsIdentityAndSidebar(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	first := f.createGarage(t)

	second, err := f.svc.UpsertGarage(ctx, owner(), &domain.Garage{
		ID:           "G1",
		Name:         "Acme Motors East",
		CompanyEmail: "owner@acme.test",
		City:         "Shelbyville",
		WhiteLabel:   true,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Acme Motors East", second.Name)
	assert.Equal(t, "Shelbyville", second.City)
	assert.True(t, second.WhiteLabel)
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.Equal(t, domain.DefaultGoal, second.Goal, "zero goal in the form keeps the stored goal")
	assert.Len(t, second.SidebarOptions, 6, "sidebar is not reseeded")

	user, err := f.store.FindUserByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.True(t, user.BelongsTo("G1"))
}

func TestUpsertGarage_Access(t *testing.T) {
	ctx := context.Background()

	t.Run("requires identity", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.UpsertGarage(ctx, nil, &domain.Garage{ID: "G1", CompanyEmail: "owner@acme.test"}, nil)
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("outsider cannot update", func(t *testing.T) {
		f := newFixture(t)
		f.createGarage(t)
		mallory := &auth.Identity{ID: "user_mallory", Email: "mallory@example.com", EmailVerified: true, DisplayName: "Mallory"}
		f.addUser(t, mallory, auth.RoleGarageOwner, "")

		_, err := f.svc.UpsertGarage(ctx, mallory, &domain.Garage{ID: "G1", Name: "Mine", CompanyEmail: "mallory@example.com"}, nil)
		assert.ErrorIs(t, err, rbac.ErrPermissionDenied)

		g, err := f.store.GetGarage(ctx, "G1")
		require.NoError(t, err)
		assert.Equal(t, "Acme Motors", g.Name)
	})

	t.Run("sub-account user cannot update", func(t *testing.T) {
		f := newFixture(t)
		f.createGarage(t)
		sam := &auth.Identity{ID: "user_sam", Email: "sam@acme.test", EmailVerified: true, DisplayName: "Sam"}
		f.addUser(t, sam, auth.RoleSubAccountUser, "G1")

		_, err := f.svc.UpsertGarage(ctx, sam, &domain.Garage{ID: "G1", CompanyEmail: "owner@acme.test"}, nil)
		assert.ErrorIs(t, err, rbac.ErrPermissionDenied)
	})
}

func TestUpsertGarage_CreatorWithoutUserRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.UpsertGarage(ctx, owner(), &domain.Garage{
		ID:           "G1",
		Name:         "Acme Motors",
		CompanyEmail: "owner@acme.test",
	}, nil)
	assert.ErrorIs(t, err, ErrCouldNotCreateGarage)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	exists, err := f.store.GarageExists(ctx, "G1")
	require.NoError(t, err)
	assert.False(t, exists)

	sidebar, err := f.store.ListSidebarOptions(ctx, "G1")
	require.NoError(t, err)
	assert.Empty(t, sidebar)
}

func TestUpsertGarage_LinksCreatorNotCompanyEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	mallory := &auth.Identity{ID: "user_mallory", Email: "mallory@example.com", EmailVerified: true, DisplayName: "Mallory"}
	f.addUser(t, mallory, auth.RoleGarageOwner, "")

	_, err := f.svc.UpsertGarage(ctx, mallory, &domain.Garage{
		ID:           "G2",
		Name:         "Mallory Motors",
		CompanyEmail: "owner@acme.test",
	}, nil)
	require.NoError(t, err)

	victim, err := f.store.FindUserByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "G1", victim.GarageIDValue())

	creator, err := f.store.FindUserByEmail(ctx, "mallory@example.com")
	require.NoError(t, err)
	assert.Equal(t, "G2", creator.GarageIDValue())
}

func TestUpsertGarage_CreatorAlreadyInGarage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	_, err := f.svc.UpsertGarage(ctx, owner(), &domain.Garage{
		ID:           "G2",
		Name:         "Acme Motors West",
		CompanyEmail: "owner@acme.test",
	}, nil)
	assert.ErrorIs(t, err, ErrCouldNotCreateGarage)
	assert.ErrorIs(t, err, storage.ErrConflict)

	exists, err := f.store.GarageExists(ctx, "G2")
	require.NoError(t, err)
	assert.False(t, exists)

	user, err := f.store.FindUserByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.Equal(t, "G1", user.GarageIDValue())
}

func TestUpsertGarage_UnverifiedEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, owner(), auth.RoleGarageOwner, "")

	unverified := owner()
	unverified.EmailVerified = false

	_, err := f.svc.UpsertGarage(ctx, unverified, &domain.Garage{ID: "G1", Name: "Acme", CompanyEmail: "owner@acme.test"}, nil)
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	exists, err := f.store.GarageExists(ctx, "G1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertGarage_Plan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.addUser(t, owner(), auth.RoleGarageOwner, "")

	basic := billing.PlanBasic
	_, err := f.svc.UpsertGarage(ctx, owner(), &domain.Garage{ID: "G1", Name: "Acme", CompanyEmail: "owner@acme.test"}, &basic)
	require.NoError(t, err)

	sub, err := f.store.GetSubscription(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "basic", sub.Plan)
	assert.Equal(t, domain.SubscriptionTrialing, sub.Status)

	unlimited := billing.PlanUnlimited
	_, err = f.svc.UpsertGarage(ctx, owner(), &domain.Garage{ID: "G1", Name: "Acme", CompanyEmail: "owner@acme.test"}, &unlimited)
	require.NoError(t, err)

	sub, err = f.store.GetSubscription(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "unlimited", sub.Plan)

	bogus := billing.Plan("gold")
	_, err = f.svc.UpsertGarage(ctx, owner(), &domain.Garage{ID: "G1", CompanyEmail: "owner@acme.test"}, &bogus)
	assert.ErrorIs(t, err, billing.ErrUnknownPlan)
}

func TestDeleteGarage_Cascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	sa, err := f.svc.CreateSubAccount(ctx, owner(), &domain.SubAccount{GarageID: "G1", Name: "Downtown", CompanyEmail: "dt@acme.test"})
	require.NoError(t, err)
	_, err = f.svc.SendInvitation(ctx, owner(), "G1", "bob@example.com", auth.RoleSubAccountUser)
	require.NoError(t, err)
	_, err = f.svc.SetGarageLogo(ctx, owner(), "G1", "logo.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteGarage(ctx, owner(), "G1"))

	exists, err := f.store.GarageExists(ctx, "G1")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = f.store.FindSubAccountByID(ctx, sa.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound, "no orphan sub-accounts")

	subSidebar, err := f.store.ListSubAccountSidebarOptions(ctx, sa.ID)
	require.NoError(t, err)
	assert.Empty(t, subSidebar)

	invitations, err := f.store.ListInvitations(ctx, "G1")
	require.NoError(t, err)
	assert.Empty(t, invitations)

	notes, err := f.store.ListNotifications(ctx, "G1", 10)
	require.NoError(t, err)
	assert.Empty(t, notes)

	user, err := f.store.FindUserByEmail(ctx, "owner@acme.test")
	require.NoError(t, err)
	assert.False(t, user.HasGarage())

	_, err = f.objects.GetObject(ctx, storage.LogoKey("G1", "logo.png"))
	assert.ErrorIs(t, err, storage.ErrNotFound, "uploaded logo is removed")
}

func TestDeleteGarage_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown garage", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.DeleteGarage(ctx, owner(), "missing")
		assert.ErrorIs(t, err, ErrCouldNotDeleteGarage)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("admin cannot delete", func(t *testing.T) {
		f := newFixture(t)
		f.createGarage(t)
		ada := &auth.Identity{ID: "user_ada", Email: "ada@acme.test", EmailVerified: true, DisplayName: "Ada"}
		f.addUser(t, ada, auth.RoleGarageAdmin, "G1")

		err := f.svc.DeleteGarage(ctx, ada, "G1")
		assert.ErrorIs(t, err, rbac.ErrPermissionDenied)
	})

	t.Run("store unavailable", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery("SELECT id, name, company_email").
			WithArgs("G1").
			WillReturnError(&pq.Error{Code: "57P01"})

		st := postgres.NewStore(db)
		logger := observability.NopLogger()
		svc := NewService(st, nil, notifications.NewActivityLogger(st, logger, nil), billing.NewService(st, logger), logger, nil)

		err = svc.DeleteGarage(ctx, owner(), "G1")
		assert.ErrorIs(t, err, ErrCouldNotDeleteGarage)
		assert.ErrorIs(t, err, storage.ErrUnavailable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateGoal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	g, err := f.svc.UpdateGoal(ctx, owner(), "G1", 8)
	require.NoError(t, err)
	assert.Equal(t, 8, g.Goal)

	notes, err := f.store.ListNotifications(ctx, "G1", 10)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Olivia Owner | Updated garage goal to | 8 Sub Account", notes[0].Notification)

	_, err = f.svc.UpdateGoal(ctx, owner(), "G1", -1)
	assert.ErrorIs(t, err, domain.ErrInvalidValue)
}

func TestUpdateGoal_NotificationIsBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	// An activity log on an empty database cannot find the actor
	logger := observability.NopLogger()
	f.svc.activity = notifications.NewActivityLogger(storagetest.NewStore(t), logger, f.metrics)

	g, err := f.svc.UpdateGoal(ctx, owner(), "G1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Goal)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.NotificationFailuresTotal.WithLabelValues("update_goal")))
}

func TestUpdateGarageField(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	g, err := f.svc.UpdateGarageField(ctx, owner(), "G1", "name", "Acme West")
	require.NoError(t, err)
	assert.Equal(t, "Acme West", g.Name)

	g, err = f.svc.UpdateGarageField(ctx, owner(), "G1", "goal", "12")
	require.NoError(t, err)
	assert.Equal(t, 12, g.Goal)

	notes, err := f.store.ListNotifications(ctx, "G1", 10)
	require.NoError(t, err)
	assert.Len(t, notes, 1, "goal changes are logged")

	_, err = f.svc.UpdateGarageField(ctx, owner(), "G1", "id", "G2")
	assert.ErrorIs(t, err, domain.ErrUnknownField)

	_, err = f.svc.UpdateGarageField(ctx, owner(), "G1", "company_email", "")
	assert.ErrorIs(t, err, ErrMissingRequiredField)
}

func TestUpdateGarageDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	phone, country := "555-0100", "US"
	g, err := f.svc.UpdateGarageDetails(ctx, owner(), "G1", domain.GarageUpdate{CompanyPhone: &phone, Country: &country})
	require.NoError(t, err)
	assert.Equal(t, "555-0100", g.CompanyPhone)
	assert.Equal(t, "US", g.Country)
	assert.Equal(t, "Springfield", g.City, "untouched fields are kept")

	_, err = f.svc.UpdateGarageDetails(ctx, nil, "G1", domain.GarageUpdate{CompanyPhone: &phone})
	assert.ErrorIs(t, err, auth.ErrNotAuthenticated)

	_, err = f.svc.UpdateGarageDetails(ctx, owner(), "missing", domain.GarageUpdate{CompanyPhone: &phone})
	assert.ErrorIs(t, err, rbac.ErrPermissionDenied)
}

func TestSetGarageLogo(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)

	g, err := f.svc.SetGarageLogo(ctx, owner(), "G1", "Brand.PNG", "image/png", strings.NewReader("logo-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "garages/G1/logo.png", g.GarageLogo)

	rc, err := f.svc.OpenGarageLogo(ctx, "G1")
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "logo-bytes", string(data))

	_, err = f.svc.SetGarageLogo(ctx, owner(), "G1", "notes.txt", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidLogo)

	f.svc.objects = nil
	_, err = f.svc.SetGarageLogo(ctx, owner(), "G1", "logo.png", "image/png", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoObjectStore)
}

func TestListMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.createGarage(t)
	f.addUser(t, &auth.Identity{ID: "user_sam", Email: "sam@acme.test", EmailVerified: true, DisplayName: "Sam"}, auth.RoleSubAccountUser, "G1")

	members, err := f.svc.ListMembers(ctx, "G1")
	require.NoError(t, err)
	assert.Len(t, members, 2)
}
