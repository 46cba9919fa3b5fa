package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

// Service manages the subscription of each garage
type Service struct {
	store  storage.SubscriptionStore
	logger *observability.Logger
	now    func() time.Time
}

// NewService creates a new billing service
func NewService(store storage.SubscriptionStore, logger *observability.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithStore returns a service writing through st, typically a transaction
func (s *Service) WithStore(st storage.SubscriptionStore) *Service {
	cp := *s
	cp.store = st
	return &cp
}

// StartTrial puts a newly created garage on a trialing subscription
func (s *Service) StartTrial(ctx context.Context, garageID string, plan Plan) (*domain.Subscription, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	sub := NewSubscription(garageID, plan, domain.SubscriptionTrialing, s.now())
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to start trial: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"garage_id": garageID,
		"plan":      string(plan),
	}).Info("Subscription trial started")
	return sub, nil
}

// ChangePlan moves an existing garage to plan. A garage without a
// subscription gets one, keeping the status of a current subscription
// otherwise.
func (s *Service) ChangePlan(ctx context.Context, garageID string, plan Plan) (*domain.Subscription, error) {
	if !plan.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	status := domain.SubscriptionActive
	current, err := s.store.GetSubscription(ctx, garageID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	case current.Status != domain.SubscriptionCanceled:
		status = current.Status
	}

	sub := NewSubscription(garageID, plan, status, s.now())
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to change plan: %w", err)
	}
	return s.GetSubscription(ctx, garageID)
}

// GetSubscription retrieves the subscription for a garage
func (s *Service) GetSubscription(ctx context.Context, garageID string) (*domain.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, garageID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNoSubscription, garageID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// CancelSubscription cancels the subscription of a garage
func (s *Service) CancelSubscription(ctx context.Context, garageID string) (*domain.Subscription, error) {
	return s.setStatus(ctx, garageID, domain.SubscriptionCanceled)
}

// ReactivateSubscription reactivates a canceled subscription
func (s *Service) ReactivateSubscription(ctx context.Context, garageID string) (*domain.Subscription, error) {
	return s.setStatus(ctx, garageID, domain.SubscriptionActive)
}

func (s *Service) setStatus(ctx context.Context, garageID string, status domain.SubscriptionStatus) (*domain.Subscription, error) {
	sub, err := s.GetSubscription(ctx, garageID)
	if err != nil {
		return nil, err
	}
	if sub.Status == status {
		return sub, nil
	}

	sub.Status = status
	sub.UpdatedAt = s.now()
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to update subscription status: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"garage_id": garageID,
		"status":    string(status),
	}).Info("Subscription status changed")
	return sub, nil
}

// Pricing returns the pricing of the plan a subscription is on
func Pricing(sub *domain.Subscription) (PlanPricing, bool) {
	if sub == nil {
		return PlanPricing{}, false
	}
	pp, ok := DefaultPlanPricing()[Plan(sub.Plan)]
	return pp, ok
}
