package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

// Store is the subset of storage.Store the activity log needs
type Store interface {
	storage.UserStore
	storage.SubAccountStore
	storage.NotificationStore
}

// Activity describes one action to log
type Activity struct {
	// Actor is the signed-in identity. When nil the first member of the
	// garage owning SubAccountID is used.
	Actor        *auth.Identity
	GarageID     string
	SubAccountID string
	Description  string
}

// ActivityLogger appends entries to the activity log
type ActivityLogger struct {
	store   Store
	logger  *observability.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewActivityLogger creates an activity logger. metrics may be nil.
func NewActivityLogger(store Store, logger *observability.Logger, metrics *observability.Metrics) *ActivityLogger {
	return &ActivityLogger{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// WithStore returns a logger writing through st, typically a transaction
func (a *ActivityLogger) WithStore(st Store) *ActivityLogger {
	cp := *a
	cp.store = st
	return &cp
}

// Record resolves the actor and scope of act and appends the entry
func (a *ActivityLogger) Record(ctx context.Context, act Activity) (*domain.Notification, error) {
	user, err := a.resolveActor(ctx, act)
	if err != nil {
		return nil, err
	}

	garageID := act.GarageID
	var subAccountID *string
	if act.SubAccountID != "" {
		sub, err := a.store.FindSubAccountByID(ctx, act.SubAccountID)
		if err != nil {
			return nil, fmt.Errorf("failed to find sub-account %s: %w", act.SubAccountID, err)
		}
		subAccountID = &sub.ID
		if garageID == "" {
			garageID = sub.GarageID
		}
	}
	if garageID == "" {
		return nil, ErrMissingScope
	}

	now := a.now()
	n := &domain.Notification{
		Notification: domain.FormatActivity(user.Name, act.Description),
		UserID:       user.ID,
		GarageID:     garageID,
		SubAccountID: subAccountID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	return n, nil
}

func (a *ActivityLogger) resolveActor(ctx context.Context, act Activity) (*auth.User, error) {
	var (
		user *auth.User
		err  error
	)
	switch {
	case act.Actor != nil:
		user, err = a.store.FindUserByEmail(ctx, act.Actor.NormalizedEmail())
	case act.SubAccountID != "":
		user, err = a.store.FindFirstUserBySubAccount(ctx, act.SubAccountID)
	default:
		a.logger.WithContext(ctx).Warn("Could not find a user to attribute activity to")
		return nil, ErrNoActor
	}

	if errors.Is(err, storage.ErrNotFound) {
		a.logger.WithContext(ctx).Warn("Could not find a user to attribute activity to")
		return nil, ErrNoActor
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve activity actor: %w", err)
	}
	return user, nil
}

// TryRecord records act and only logs on failure. label names the activity
// in the failure metric.
func (a *ActivityLogger) TryRecord(ctx context.Context, label string, act Activity) {
	if _, err := a.Record(ctx, act); err != nil {
		a.logger.WithContext(ctx).WithError(err).WithField("activity", label).Warn("Failed to record activity")
		a.metrics.ObserveNotificationFailure(label)
	}
}

// List returns the newest entries of a garage first
func (a *ActivityLogger) List(ctx context.Context, garageID string, limit int) ([]*domain.Notification, error) {
	notifications, err := a.store.ListNotifications(ctx, garageID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}
