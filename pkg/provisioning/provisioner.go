package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/identity"
	"github.com/platinummonkey/garage/pkg/notifications"
	"github.com/platinummonkey/garage/pkg/observability"
	"github.com/platinummonkey/garage/pkg/storage"
)

var tracer = otel.Tracer("github.com/platinummonkey/garage/pkg/provisioning")

// Provisioner runs the invitation acceptance workflow
type Provisioner struct {
	store    storage.Store
	sessions identity.SessionRoleUpdater
	activity *notifications.ActivityLogger
	logger   *observability.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

// NewProvisioner creates a provisioner. metrics may be nil.
func NewProvisioner(
	store storage.Store,
	sessions identity.SessionRoleUpdater,
	activity *notifications.ActivityLogger,
	logger *observability.Logger,
	metrics *observability.Metrics,
) *Provisioner {
	return &Provisioner{
		store:    store,
		sessions: sessions,
		activity: activity,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}
}

// ResolveGarageForIdentity finds or provisions the garage membership of id.
// It never returns an error: failures are reported as
// OutcomeProvisioningFailed with the cause in Resolution.Err.
func (p *Provisioner) ResolveGarageForIdentity(ctx context.Context, id *auth.Identity) Resolution {
	ctx, span := tracer.Start(ctx, "provisioning.ResolveGarageForIdentity")
	defer span.End()

	res := p.resolve(ctx, id)

	span.SetAttributes(attribute.String("garage.outcome", string(res.Outcome)))
	if garageID, ok := res.GarageID(); ok {
		span.SetAttributes(attribute.String("garage.id", garageID))
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "provisioning failed")
	}
	p.metrics.ObserveProvisioning(string(res.Outcome))
	return res
}

func (p *Provisioner) resolve(ctx context.Context, id *auth.Identity) Resolution {
	if id == nil {
		return resolved(OutcomeSignInRequired, nil, "")
	}

	logger := p.logger.WithContext(ctx).WithField("identity_id", id.ID)
	if !id.Verified() {
		logger.Warn("Identity has no verified email")
		return resolved(OutcomeSignInRequired, nil, "")
	}
	email := id.NormalizedEmail()

	inv, err := p.store.FindPendingInvitationByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return p.resolveMember(ctx, logger, email)
	case err != nil:
		logger.WithError(err).Error("Failed to look up pending invitation")
		return failed(nil, fmt.Errorf("failed to look up invitation: %w", err))
	}

	if inv.Role == auth.RoleGarageOwner {
		logger.WithField("garage_id", inv.GarageID).Warn("Refusing to accept an invitation for the owner role")
		return resolved(OutcomeOwnerInvitationRejected, p.lookupUser(ctx, email), "")
	}

	user, err := p.acceptInvitation(ctx, id, inv)
	if err != nil {
		logger.WithError(err).WithField("garage_id", inv.GarageID).Error("Failed to accept invitation")
		return failed(p.lookupUser(ctx, email), err)
	}

	logger.WithField("garage_id", inv.GarageID).Info("Invitation accepted")
	return resolved(OutcomeProvisioned, user, inv.GarageID)
}

func (p *Provisioner) resolveMember(ctx context.Context, logger *observability.Logger, email string) Resolution {
	user, err := p.store.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return resolved(OutcomeNoGarage, nil, "")
	case err != nil:
		logger.WithError(err).Error("Failed to look up user")
		return failed(nil, fmt.Errorf("failed to look up user: %w", err))
	}

	if !user.HasGarage() {
		return resolved(OutcomeNoGarage, user, "")
	}
	return resolved(OutcomeExistingMember, user, user.GarageIDValue())
}

// lookupUser is a best-effort read used to enrich non-success resolutions
func (p *Provisioner) lookupUser(ctx context.Context, email string) *auth.User {
	user, err := p.store.FindUserByEmail(ctx, email)
	if err != nil {
		return nil
	}
	return user
}

// acceptInvitation runs the acceptance steps in one transaction. The role
// claim is written to the identity provider before commit; if the commit
// then fails, the next sign-in re-runs the workflow and writes the same role.
func (p *Provisioner) acceptInvitation(ctx context.Context, id *auth.Identity, inv *domain.Invitation) (*auth.User, error) {
	var user *auth.User

	err := p.store.RunInTx(ctx, func(tx storage.Store) error {
		var err error
		user, err = p.memberForInvitation(ctx, tx, id, inv)
		if err != nil {
			return err
		}

		if _, err := p.activity.WithStore(tx).Record(ctx, notifications.Activity{
			Actor:       id,
			GarageID:    inv.GarageID,
			Description: "Joined",
		}); err != nil {
			return fmt.Errorf("failed to record join activity: %w", err)
		}

		err = p.sessions.UpdateSessionRole(ctx, id.ID, inv.Role)
		p.metrics.ObserveSessionRoleUpdate(err)
		if err != nil {
			return fmt.Errorf("failed to update session role: %w", err)
		}

		if err := tx.DeleteInvitationByEmail(ctx, inv.Email); err != nil {
			return fmt.Errorf("failed to delete invitation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// memberForInvitation creates the invited user, or reuses a row left by an
// earlier attempt that failed after the insert
func (p *Provisioner) memberForInvitation(ctx context.Context, tx storage.Store, id *auth.Identity, inv *domain.Invitation) (*auth.User, error) {
	existing, err := tx.FindUserByEmail(ctx, inv.Email)
	switch {
	case err == nil && existing.BelongsTo(inv.GarageID):
		return existing, nil
	case err == nil && existing.HasGarage():
		return nil, fmt.Errorf("%w: %s already belongs to another garage", storage.ErrConflict, inv.Email)
	case err == nil:
		now := p.now()
		if err := tx.LinkUserToGarage(ctx, inv.Email, inv.GarageID, now); err != nil {
			return nil, fmt.Errorf("failed to link user to garage: %w", err)
		}
		existing.Role = inv.Role
		existing.UpdatedAt = now
		user, err := tx.UpsertUserByEmail(ctx, existing)
		if err != nil {
			return nil, fmt.Errorf("failed to update user role: %w", err)
		}
		return user, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := p.now()
	user := &auth.User{
		ID:        id.ID,
		Email:     inv.Email,
		Name:      id.DisplayName,
		AvatarURL: id.AvatarURL,
		Role:      inv.Role,
		GarageID:  auth.StringPtr(inv.GarageID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// InitUser creates the user for id, or sets the role of the garage-less user
// with the same email, and pushes the role to the identity provider. It is
// used when a signed-in identity without a garage starts creating one. A
// user that already belongs to a garage keeps its role: roles inside a
// garage only come from invitations.
func (p *Provisioner) InitUser(ctx context.Context, id *auth.Identity, role auth.Role) (*auth.User, error) {
	if !id.Verified() {
		return nil, auth.ErrNotAuthenticated
	}
	if role == "" {
		role = auth.DefaultRole
	}
	if !role.Valid() {
		return nil, &auth.InvalidRoleError{Value: string(role)}
	}

	var user *auth.User
	err := p.store.RunInTx(ctx, func(tx storage.Store) error {
		existing, err := tx.FindUserByEmail(ctx, id.NormalizedEmail())
		switch {
		case errors.Is(err, storage.ErrNotFound):
		case err != nil:
			return fmt.Errorf("failed to look up user: %w", err)
		case existing.HasGarage():
			return fmt.Errorf("%w: %s already belongs to garage %s", storage.ErrConflict, existing.Email, existing.GarageIDValue())
		}

		now := p.now()
		user, err = tx.UpsertUserByEmail(ctx, &auth.User{
			ID:        id.ID,
			Email:     id.NormalizedEmail(),
			Name:      id.DisplayName,
			AvatarURL: id.AvatarURL,
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		err = p.sessions.UpdateSessionRole(ctx, id.ID, role)
		p.metrics.ObserveSessionRoleUpdate(err)
		if err != nil {
			return fmt.Errorf("failed to update session role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
