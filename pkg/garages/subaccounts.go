package garages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/billing"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

// CreateSubAccount creates a sub-account with its default sidebar and logs
// the creation to the activity log
func (s *Service) CreateSubAccount(ctx context.Context, id *auth.Identity, sa *domain.SubAccount) (out *domain.SubAccount, err error) {
	defer func() { s.metrics.ObserveOperation("create_sub_account", err) }()

	if sa == nil || strings.TrimSpace(sa.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingRequiredField)
	}
	if strings.TrimSpace(sa.CompanyEmail) == "" {
		return nil, fmt.Errorf("%w: company_email", ErrMissingRequiredField)
	}
	if _, err := s.checker.Require(ctx, id, sa.GarageID, rbac.PermissionSubAccountCreate); err != nil {
		return nil, err
	}
	if sa.Goal <= 0 {
		sa.Goal = domain.DefaultGoal
	}

	err = s.store.RunInTx(ctx, func(tx storage.Store) error {
		if err := s.checkSubAccountLimit(ctx, tx, sa.GarageID); err != nil {
			return err
		}
		if err := tx.CreateSubAccount(ctx, sa); err != nil {
			return err
		}
		sidebar := domain.SubAccountSidebar(sa.ID)
		if err := tx.SeedSidebarOptions(ctx, sidebar); err != nil {
			return err
		}
		sa.SidebarOptions = sidebar
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrPlanLimitReached) {
			return nil, err
		}
		s.logger.WithContext(ctx).WithError(err).WithField("garage_id", sa.GarageID).Error("Failed to create sub-account")
		return nil, fmt.Errorf("failed to create sub-account: %w", err)
	}

	s.activity.TryRecord(ctx, "create_sub_account", notifications.Activity{
		Actor:        id,
		GarageID:     sa.GarageID,
		SubAccountID: sa.ID,
		Description:  "Updated sub account | " + sa.Name,
	})
	return sa, nil
}

// checkSubAccountLimit enforces the plan of a subscribed garage. Garages
// without a subscription are not limited.
func (s *Service) checkSubAccountLimit(ctx context.Context, tx storage.Store, garageID string) error {
	sub, err := tx.GetSubscription(ctx, garageID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	pricing, ok := billing.Pricing(sub)
	if !ok || sub.Status == domain.SubscriptionCanceled {
		return nil
	}

	existing, err := tx.ListSubAccounts(ctx, garageID)
	if err != nil {
		return err
	}
	if !pricing.AllowsSubAccounts(len(existing) + 1) {
		return fmt.Errorf("%w: plan %s includes %d sub-accounts", ErrPlanLimitReached, pricing.Title, pricing.IncludedSubAccounts)
	}
	return nil
}

// ListSubAccounts returns the sub-accounts of a garage
func (s *Service) ListSubAccounts(ctx context.Context, garageID string) ([]*domain.SubAccount, error) {
	subs, err := s.store.ListSubAccounts(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-accounts: %w", err)
	}
	return subs, nil
}

// FindSubAccountByID returns a sub-account with its sidebar options
func (s *Service) FindSubAccountByID(ctx context.Context, subAccountID string) (*domain.SubAccount, error) {
	sa, err := s.store.FindSubAccountByID(ctx, subAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sub-account: %w", err)
	}
	if sa.SidebarOptions, err = s.store.ListSubAccountSidebarOptions(ctx, subAccountID); err != nil {
		return nil, fmt.Errorf("failed to list sub-account sidebar options: %w", err)
	}
	return sa, nil
}
