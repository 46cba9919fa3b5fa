package garages

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

// Service implements garage, sub-account and invitation operations
type Service struct {
	store    storage.Store
	objects  storage.ObjectStore
	checker  *rbac.Checker
	activity *notifications.ActivityLogger
	billing  *billing.Service
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewService creates a garage service. objects and metrics may be nil;
// logo uploads then fail with ErrNoObjectStore.
func NewService(
	store storage.Store,
	objects storage.ObjectStore,
	activity *notifications.ActivityLogger,
	billingService *billing.Service,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Service {
	return &Service{
		store:    store,
		objects:  objects,
		checker:  rbac.NewChecker(store),
		activity: activity,
		billing:  billingService,
		logger:   logger,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Checker returns the permission checker the service authorizes with
func (s *Service) Checker() *rbac.Checker {
	return s.checker
}

// UpsertGarage creates the garage or, when its id already exists, updates
// its mutable fields. A new garage gets the default sidebar and is linked
// to the requesting user, who must exist and must not belong to another
// garage. plan is optional: a new garage starts a trial on it, an existing
// one changes to it.
func (s *Service) UpsertGarage(ctx context.Context, id *auth.Identity, g *domain.Garage, plan *billing.Plan) (out *domain.Garage, err error) {
	defer func() { s.metrics.ObserveOperation("upsert_garage", err) }()

	if g == nil || strings.TrimSpace(g.CompanyEmail) == "" {
		return nil, fmt.Errorf("%w: company_email", ErrMissingRequiredField)
	}
	if !id.Verified() {
		return nil, auth.ErrNotAuthenticated
	}
	if plan != nil && !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", billing.ErrUnknownPlan, *plan)
	}

	logger := s.logger.WithContext(ctx).WithField("garage_id", g.ID)
	created := false

	err = s.store.RunInTx(ctx, func(tx storage.Store) error {
		exists := false
		if g.ID != "" {
			var err error
			if exists, err = tx.GarageExists(ctx, g.ID); err != nil {
				return err
			}
		}
		if exists {
			if _, err := rbac.NewChecker(tx).Require(ctx, id, g.ID, rbac.PermissionGarageWrite); err != nil {
				return err
			}
			return s.updateGarage(ctx, tx, g, plan)
		}
		created = true
		return s.createGarage(ctx, tx, id, g, plan)
	})
	if err != nil {
		if isAccessError(err) {
			return nil, err
		}
		logger.WithError(err).Error("Failed to upsert garage")
		return nil, fmt.Errorf("%w: %w", ErrCouldNotCreateGarage, err)
	}

	logger.WithFields(map[string]any{"garage_id": g.ID, "created": created}).Info("Garage saved")
	return s.GetGarage(ctx, g.ID)
}

func (s *Service) createGarage(ctx context.Context, tx storage.Store, id *auth.Identity, g *domain.Garage, plan *billing.Plan) error {
	creator, err := tx.FindUserByEmail(ctx, id.NormalizedEmail())
	if err != nil {
		return fmt.Errorf("failed to find creator %s: %w", id.NormalizedEmail(), err)
	}
	if creator.HasGarage() {
		return fmt.Errorf("%w: %s already belongs to garage %s", storage.ErrConflict, creator.Email, creator.GarageIDValue())
	}

	now := s.now()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.Goal <= 0 {
		g.Goal = domain.DefaultGoal
	}

	if err := tx.InsertGarage(ctx, g); err != nil {
		return err
	}
	if err := tx.SeedSidebarOptions(ctx, domain.GarageSidebar(g.ID)); err != nil {
		return err
	}
	if err := tx.LinkUserToGarage(ctx, creator.Email, g.ID, now); err != nil {
		return fmt.Errorf("failed to link %s to garage: %w", creator.Email, err)
	}
	if plan != nil {
		if _, err := s.billing.WithStore(tx).StartTrial(ctx, g.ID, *plan); err != nil {
			return err
		}
	}
	return nil
}

// updateGarage overwrites the mutable fields. A zero goal or empty logo in
// the form keeps the stored value.
func (s *Service) updateGarage(ctx context.Context, tx storage.Store, g *domain.Garage, plan *billing.Plan) error {
	existing, err := tx.GetGarage(ctx, g.ID)
	if err != nil {
		return err
	}
	if g.Goal <= 0 {
		g.Goal = existing.Goal
	}
	if g.GarageLogo == "" {
		g.GarageLogo = existing.GarageLogo
	}
	g.CreatedAt = existing.CreatedAt

	if err := tx.UpdateGarage(ctx, g); err != nil {
		return err
	}
	if plan != nil {
		if _, err := s.billing.WithStore(tx).ChangePlan(ctx, g.ID, *plan); err != nil {
			return err
		}
	}
	return nil
}

// DeleteGarage removes the garage. Sub-accounts, sidebar options,
// invitations, notifications and the subscription go with it; members are
// detached. Only the owner may delete.
func (s *Service) DeleteGarage(ctx context.Context, id *auth.Identity, garageID string) (err error) {
	defer func() { s.metrics.ObserveOperation("delete_garage", err) }()

	if !id.Verified() {
		return auth.ErrNotAuthenticated
	}
	logger := s.logger.WithContext(ctx).WithField("garage_id", garageID)

	existing, err := s.store.GetGarage(ctx, garageID)
	if err != nil {
		logger.WithError(err).Error("Failed to delete garage")
		return fmt.Errorf("%w: %w", ErrCouldNotDeleteGarage, err)
	}
	if _, err := s.checker.Require(ctx, id, garageID, rbac.PermissionGarageDelete); err != nil {
		return err
	}

	if err := s.store.DeleteGarage(ctx, garageID); err != nil {
		logger.WithError(err).Error("Failed to delete garage")
		return fmt.Errorf("%w: %w", ErrCouldNotDeleteGarage, err)
	}

	s.removeLogo(ctx, garageID, existing.GarageLogo)
	logger.Info("Garage deleted")
	return nil
}

// GetGarage returns the garage with its sidebar options and sub-accounts
func (s *Service) GetGarage(ctx context.Context, garageID string) (*domain.Garage, error) {
	g, err := s.store.GetGarage(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("failed to get garage: %w", err)
	}
	if g.SidebarOptions, err = s.store.ListSidebarOptions(ctx, garageID); err != nil {
		return nil, fmt.Errorf("failed to list sidebar options: %w", err)
	}
	if g.SubAccounts, err = s.store.ListSubAccounts(ctx, garageID); err != nil {
		return nil, fmt.Errorf("failed to list sub-accounts: %w", err)
	}
	return g, nil
}

// ListMembers returns the users attached to a garage
func (s *Service) ListMembers(ctx context.Context, garageID string) ([]*auth.User, error) {
	users, err := s.store.ListGarageUsers(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return users, nil
}

func isAccessError(err error) bool {
	return errors.Is(err, auth.ErrNotAuthenticated) || errors.Is(err, rbac.ErrPermissionDenied)
}
