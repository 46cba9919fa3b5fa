package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/garages"
	"github.com/platinummonkey/garage/pkg/middleware"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/provisioning"
	"github.com/platinummonkey/garage/pkg/storage"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
	"github.com/platinummonkey/garage/pkg/storage/storagetest"
)

const testUserHeader = "X-Test-User"

// headerProvider signs requests in by the X-Test-User header
type headerProvider struct {
	identities map[string]*auth.Identity
	roles      map[string]auth.Role
}

func (p *headerProvider) CurrentIdentity(r *http.Request) (*auth.Identity, error) {
	return p.identities[r.Header.Get(testUserHeader)], nil
}

func (p *headerProvider) UpdateSessionRole(_ context.Context, identityID string, role auth.Role) error {
	p.roles[identityID] = role
	return nil
}

type fakeAuthEndpoints struct{}

func (fakeAuthEndpoints) HandleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "https://idp.example.com/authorize", http.StatusFound)
}

func (fakeAuthEndpoints) HandleCallback(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/garage", http.StatusFound)
}

func (fakeAuthEndpoints) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/garage/sign-in", http.StatusFound)
}

type fixture struct {
	store    *postgres.Store
	provider *headerProvider
	garages  *garages.Service
	server   *Server
}

var (
	ownerID   = &auth.Identity{ID: "user_owner", Email: "owner@acme.test", EmailVerified: true, DisplayName: "Olivia Owner"}
	adminID   = &auth.Identity{ID: "user_admin", Email: "admin@acme.test", EmailVerified: true, DisplayName: "Adam Admin"}
	aliceID   = &auth.Identity{ID: "user_alice", Email: "alice@example.com", EmailVerified: true, DisplayName: "Alice Smith"}
	outsideID = &auth.Identity{ID: "user_out", Email: "out@other.test", EmailVerified: true, DisplayName: "Oscar Outsider"}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	st := storagetest.NewStore(t)
	objects, err := storage.NewFileSystemObjectStore(t.TempDir())
	require.NoError(t, err)

	logger := observability.NopLogger()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	provider := &headerProvider{
		identities: map[string]*auth.Identity{
			"owner": ownerID, "admin": adminID, "alice": aliceID, "outsider": outsideID,
		},
		roles: map[string]auth.Role{},
	}

	activity := notifications.NewActivityLogger(st, logger, metrics)
	billingService := billing.NewService(st, logger)
	garageService := garages.NewService(st, objects, activity, billingService, logger, metrics)
	provisioner := provisioning.NewProvisioner(st, provider, activity, logger, metrics)

	server := NewServer(middleware.NewIdentityMiddleware(provider, logger, true).Handler)
	server.RegisterRoutes(
		NewAuthHandlers(fakeAuthEndpoints{}),
		NewLandingHandlers(provisioner, "", logger),
		NewGarageHandlers(garageService, activity, st, logger),
		NewBillingHandlers(billingService, garageService.Checker(), st, logger),
	)

	return &fixture{store: st, provider: provider, garages: garageService, server: server}
}

func (f *fixture) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		req.Header.Set(testUserHeader, user)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

// createGarage runs the create-a-garage flow for the owner: init the user,
// then upsert G1
func (f *fixture) createGarage(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/garage/users", "owner", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, auth.RoleGarageOwner, f.provider.roles[ownerID.ID])

	rec = f.do(t, http.MethodPut, "/api/v1/garages/G1", "owner", UpsertGarageRequest{
		Name:         "Acme Motors",
		CompanyEmail: ownerID.Email,
		City:         "Springfield",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func (f *fixture) addAdmin(t *testing.T) {
	t.Helper()
	require.NoError(t, f.store.CreateUser(context.Background(), &auth.User{
		ID:       adminID.ID,
		Email:    adminID.Email,
		Name:     adminID.DisplayName,
		Role:     auth.RoleGarageAdmin,
		GarageID: auth.StringPtr("G1"),
	}))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestUpsertGarage(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	rec := f.do(t, http.MethodGet, "/api/v1/garages/G1", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	g := decode[domain.Garage](t, rec)
	assert.Equal(t, "Acme Motors", g.Name)
	assert.Equal(t, domain.DefaultGoal, g.Goal)
	assert.Len(t, g.SidebarOptions, 6)

	t.Run("update keeps sidebar", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G1", "owner", UpsertGarageRequest{
			Name:         "Acme Motors Ltd",
			CompanyEmail: ownerID.Email,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		g := decode[domain.Garage](t, rec)
		assert.Equal(t, "Acme Motors Ltd", g.Name)
		assert.Len(t, g.SidebarOptions, 6)
	})

	t.Run("missing company email", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G2", "owner", UpsertGarageRequest{Name: "No Email"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing required field")
	})

	t.Run("unknown plan", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G2", "owner", UpsertGarageRequest{CompanyEmail: "x@y.test", Plan: "gold"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("signed out", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G2", "", UpsertGarageRequest{CompanyEmail: "x@y.test"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G1", "owner", map[string]any{"company_email": ownerID.Email, "id": "G9"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("outsider cannot update", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G1", "outsider", UpsertGarageRequest{CompanyEmail: ownerID.Email})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("store failure hides cause", func(t *testing.T) {
		// outsider has no user row, so linking the creator fails and rolls back
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G3", "outsider", UpsertGarageRequest{CompanyEmail: ownerID.Email})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		body := decode[map[string]string](t, rec)
		assert.Equal(t, garages.ErrCouldNotCreateGarage.Error(), body["error"])
	})

	t.Run("owner cannot create a second garage", func(t *testing.T) {
		rec := f.do(t, http.MethodPut, "/api/v1/garages/G4", "owner", UpsertGarageRequest{CompanyEmail: ownerID.Email})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/garages/G4", "owner", nil).Code)
	})
}

func TestGetGarage_Access(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)
	require.NoError(t, f.store.CreateUser(context.Background(), &auth.User{
		ID: outsideID.ID, Email: outsideID.Email, Name: outsideID.DisplayName, Role: auth.RoleGarageOwner,
	}))

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/v1/garages/G1", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/v1/garages/G1", "outsider", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/garages/G404", "owner", nil).Code)
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	rec := f.do(t, http.MethodPatch, "/api/v1/garages/G1/goal", "owner", UpdateGoalRequest{Goal: 8})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 8, decode[domain.Garage](t, rec).Goal)

	rec = f.do(t, http.MethodGet, "/api/v1/garages/G1/notifications", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]domain.Notification](t, rec)
	require.NotEmpty(t, list)
	assert.Equal(t, "Olivia Owner | Updated garage goal to | 8 Sub Account", list[0].Notification)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPatch, "/api/v1/garages/G1/goal", "owner", UpdateGoalRequest{Goal: -1}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/v1/garages/G1/notifications?limit=x", "owner", nil).Code)
}

func TestUpdateGarageFields(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	rec := f.do(t, http.MethodPatch, "/api/v1/garages/G1/fields/city", "owner", UpdateFieldRequest{Value: "Shelbyville"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Shelbyville", decode[domain.Garage](t, rec).City)

	rec = f.do(t, http.MethodPatch, "/api/v1/garages/G1/fields/created_at", "owner", UpdateFieldRequest{Value: "now"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	phone := "555-0100"
	rec = f.do(t, http.MethodPatch, "/api/v1/garages/G1", "owner", domain.GarageUpdate{CompanyPhone: &phone})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	g := decode[domain.Garage](t, rec)
	assert.Equal(t, phone, g.CompanyPhone)
	assert.Equal(t, "Shelbyville", g.City)
}

func TestDeleteGarage(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)
	f.addAdmin(t)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, "/api/v1/garages/G1", "admin", nil).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/v1/garages/G1", "owner", nil).Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/garages/G1", "owner", nil).Code)
}

func TestSubAccounts(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	rec := f.do(t, http.MethodPost, "/api/v1/garages/G1/subaccounts", "owner", CreateSubAccountRequest{
		Name: "North Branch", CompanyEmail: "north@acme.test",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sa := decode[domain.SubAccount](t, rec)
	assert.Equal(t, "G1", sa.GarageID)
	assert.Len(t, sa.SidebarOptions, 8)

	rec = f.do(t, http.MethodGet, "/api/v1/garages/G1/subaccounts", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.SubAccount](t, rec), 1)

	rec = f.do(t, http.MethodGet, "/api/v1/garages/G1/subaccounts/"+sa.ID, "owner", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/garages/G1/subaccounts", "owner", CreateSubAccountRequest{Name: "No Email"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvitations(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	rec := f.do(t, http.MethodPost, "/api/v1/garages/G1/invitations", "owner", SendInvitationRequest{
		Email: "alice@example.com", Role: "garage_admin",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decode[domain.Invitation](t, rec)
	assert.Equal(t, auth.RoleGarageAdmin, inv.Role)
	assert.Equal(t, domain.InvitationPending, inv.Status)

	tests := []struct {
		name       string
		req        SendInvitationRequest
		wantStatus int
	}{
		{"owner role", SendInvitationRequest{Email: "bob@example.com", Role: "GARAGE_OWNER"}, http.StatusBadRequest},
		{"unknown role", SendInvitationRequest{Email: "bob@example.com", Role: "boss"}, http.StatusBadRequest},
		{"bad email", SendInvitationRequest{Email: "bob"}, http.StatusBadRequest},
		{"duplicate", SendInvitationRequest{Email: "Alice@Example.com"}, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/garages/G1/invitations", "owner", tt.req)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec = f.do(t, http.MethodGet, "/api/v1/garages/G1/invitations", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Invitation](t, rec), 1)
}

func TestGarageLogo(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	png := []byte("\x89PNG\r\n\x1a\n0000")
	req := httptest.NewRequest(http.MethodPut, "/api/v1/garages/G1/logo?filename=acme.png", bytes.NewReader(png))
	req.Header.Set("Content-Type", "image/png")
	req.Header.Set(testUserHeader, "owner")
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, strings.HasPrefix(decode[domain.Garage](t, rec).GarageLogo, "garages/G1/"))

	rec = f.do(t, http.MethodGet, "/api/v1/garages/G1/logo", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, png, rec.Body.Bytes())

	req = httptest.NewRequest(http.MethodPut, "/api/v1/garages/G1/logo", strings.NewReader("hello"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set(testUserHeader, "owner")
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLanding(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)

	t.Run("signed out", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/garage", "", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/garage/sign-in", rec.Header().Get("Location"))
	})

	t.Run("owner goes to garage", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/garage", "owner", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/garage/G1", rec.Header().Get("Location"))
	})

	t.Run("plan goes to billing", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/garage?plan=basic", "owner", nil)
		assert.Equal(t, "/garage/G1/billing?plan=basic", rec.Header().Get("Location"))
	})

	t.Run("invitation accepted", func(t *testing.T) {
		_, err := f.garages.Invite(context.Background(), "G1", aliceID.Email, auth.RoleGarageAdmin)
		require.NoError(t, err)

		rec := f.do(t, http.MethodGet, "/garage", "alice", nil)
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/garage/G1", rec.Header().Get("Location"))
		assert.Equal(t, auth.RoleGarageAdmin, f.provider.roles[aliceID.ID])

		user, err := f.store.FindUserByEmail(context.Background(), aliceID.Email)
		require.NoError(t, err)
		assert.True(t, user.BelongsTo("G1"))
	})

	t.Run("no garage shows create form", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/garage", nil)
		req.Header.Set(testUserHeader, "outsider")
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `{"kind":"create_garage","company_email":"out@other.test"}`, strings.TrimSpace(rec.Body.String()))
	})

	t.Run("json redirect", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/garage", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"location":"/garage/sign-in"`)
	})
}

func TestInitUser(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/garage/users", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/garage/users", "owner", InitUserRequest{Role: "king"}).Code)

	rec := f.do(t, http.MethodPost, "/garage/users", "owner", InitUserRequest{Role: "GARAGE_ADMIN"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, auth.RoleGarageAdmin, decode[auth.User](t, rec).Role)

	t.Run("member keeps role", func(t *testing.T) {
		f := newFixture(t)
		f.createGarage(t)
		f.addAdmin(t)

		rec := f.do(t, http.MethodPost, "/garage/users", "admin", InitUserRequest{Role: "GARAGE_OWNER"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		user, err := f.store.FindUserByEmail(context.Background(), adminID.Email)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleGarageAdmin, user.Role)
	})
}

func TestBilling(t *testing.T) {
	f := newFixture(t)
	f.createGarage(t)
	f.addAdmin(t)

	rec := f.do(t, http.MethodGet, "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]billing.PlanPricing](t, rec), 3)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/garages/G1/subscription", "owner", nil).Code)

	rec = f.do(t, http.MethodPut, "/api/v1/garages/G1/subscription", "owner", ChangePlanRequest{Plan: "basic"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sub := decode[SubscriptionResponse](t, rec)
	assert.Equal(t, "basic", sub.Plan)
	assert.Equal(t, domain.SubscriptionActive, sub.Status)
	require.NotNil(t, sub.Pricing)
	assert.Equal(t, 10, sub.Pricing.IncludedSubAccounts)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPut, "/api/v1/garages/G1/subscription", "admin", ChangePlanRequest{Plan: "unlimited"}).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPut, "/api/v1/garages/G1/subscription", "owner", ChangePlanRequest{}).Code)

	rec = f.do(t, http.MethodPost, "/api/v1/garages/G1/subscription/cancel", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SubscriptionCanceled, decode[SubscriptionResponse](t, rec).Status)

	rec = f.do(t, http.MethodPost, "/api/v1/garages/G1/subscription/reactivate", "owner", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SubscriptionActive, decode[SubscriptionResponse](t, rec).Status)
}

func TestAuthRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/auth/login", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	rec = f.do(t, http.MethodGet, "/garage/sign-in", "", nil)
	assert.Equal(t, http.StatusFound, rec.Code)
	rec = f.do(t, http.MethodPost, "/auth/logout", "owner", nil)
	assert.Equal(t, "/garage/sign-in", rec.Header().Get("Location"))
	assert.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/auth/logout", "", nil).Code)
}
