package garages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/rbac"
	"github.com/platinummonkey/garage/pkg/storage"
)

// SendInvitation invites email into the garage with role, on behalf of a
// member allowed to manage the team
func (s *Service) SendInvitation(ctx context.Context, id *auth.Identity, garageID, email string, role auth.Role) (*domain.Invitation, error) {
	if _, err := s.checker.Require(ctx, id, garageID, rbac.PermissionTeamInvite); err != nil {
		return nil, err
	}
	return s.Invite(ctx, garageID, email, role)
}

// Invite creates a pending invitation without a permission check. It backs
// SendInvitation and the admin CLI.
func (s *Service) Invite(ctx context.Context, garageID, email string, role auth.Role) (inv *domain.Invitation, err error) {
	defer func() { s.metrics.ObserveOperation("send_invitation", err) }()

	email = auth.NormalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email", ErrMissingRequiredField)
	}
	if role == "" {
		role = auth.DefaultRole
	}
	if !role.Valid() {
		return nil, &auth.InvalidRoleError{Value: string(role)}
	}
	if role == auth.RoleGarageOwner {
		return nil, fmt.Errorf("%w: %s cannot be granted by invitation", auth.ErrInvalidRole, role)
	}

	if ok, err := s.store.GarageExists(ctx, garageID); err != nil {
		return nil, fmt.Errorf("failed to check garage: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("garage %s: %w", garageID, storage.ErrNotFound)
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to look up invitee: %w", err)
	case user.HasGarage():
		return nil, fmt.Errorf("%w: %s is already a member of a garage", storage.ErrConflict, email)
	}

	inv = &domain.Invitation{
		Email:    email,
		GarageID: garageID,
		Role:     role,
		Status:   domain.InvitationPending,
	}
	if err := s.store.CreateInvitation(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"garage_id": garageID,
		"role":      string(role),
	}).Info("Invitation sent")
	return inv, nil
}

// ListInvitations returns the invitations of a garage
func (s *Service) ListInvitations(ctx context.Context, garageID string) ([]*domain.Invitation, error) {
	invitations, err := s.store.ListInvitations(ctx, garageID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}
