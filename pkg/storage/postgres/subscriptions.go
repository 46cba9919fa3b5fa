package postgres

import (
	"context"

	"github.com/platinummonkey/garage/pkg/domain"
)

// UpsertSubscription implements storage.SubscriptionStore. An existing
// subscription of the garage keeps its id and creation time.
func (s *Store) UpsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	newID(&sub.ID)
	s.stamp(&sub.CreatedAt, &sub.UpdatedAt)

	query := `
		INSERT INTO subscriptions (id, garage_id, plan, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (garage_id) DO UPDATE
		SET plan = excluded.plan, status = excluded.status, updated_at = excluded.updated_at
	`
	_, err := s.q.ExecContext(ctx, query,
		sub.ID, sub.GarageID, sub.Plan, string(sub.Status), sub.CreatedAt, sub.UpdatedAt,
	)
	return classify("upsert subscription", err)
}

// GetSubscription implements storage.SubscriptionStore
func (s *Store) GetSubscription(ctx context.Context, garageID string) (*domain.Subscription, error) {
	query := `
		SELECT id, garage_id, plan, status, created_at, updated_at
		FROM subscriptions
		WHERE garage_id = $1
	`

	var (
		sub    domain.Subscription
		status string
	)
	err := s.q.QueryRowContext(ctx, query, garageID).Scan(
		&sub.ID, &sub.GarageID, &sub.Plan, &status, &sub.CreatedAt, &sub.UpdatedAt,
	)
	if err != nil {
		return nil, classify("get subscription", err)
	}
	sub.Status = domain.SubscriptionStatus(status)
	return &sub, nil
}
