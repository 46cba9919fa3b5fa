package postgres

import (
	"context"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
)

func scanInvitation(row scanner) (*domain.Invitation, error) {
	var (
		inv    domain.Invitation
		role   string
		status string
	)
	if err := row.Scan(&inv.ID, &inv.Email, &inv.GarageID, &role, &status); err != nil {
		return nil, err
	}
	inv.Role = auth.Role(role)
	inv.Status = domain.InvitationStatus(status)
	return &inv, nil
}

// FindPendingInvitationByEmail implements storage.InvitationStore
func (s *Store) FindPendingInvitationByEmail(ctx context.Context, email string) (*domain.Invitation, error) {
	query := `
		SELECT id, email, garage_id, role, status
		FROM invitations
		WHERE email = $1 AND status = $2
	`

	inv, err := scanInvitation(s.q.QueryRowContext(ctx, query, auth.NormalizeEmail(email), string(domain.InvitationPending)))
	if err != nil {
		return nil, classify("find pending invitation", err)
	}
	return inv, nil
}

// CreateInvitation implements storage.InvitationStore
func (s *Store) CreateInvitation(ctx context.Context, inv *domain.Invitation) error {
	newID(&inv.ID)
	inv.Email = auth.NormalizeEmail(inv.Email)
	if inv.Status == "" {
		inv.Status = domain.InvitationPending
	}
	if inv.Role == "" {
		inv.Role = auth.DefaultRole
	}

	query := `
		INSERT INTO invitations (id, email, garage_id, role, status)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.q.ExecContext(ctx, query, inv.ID, inv.Email, inv.GarageID, string(inv.Role), string(inv.Status))
	return classify("create invitation", err)
}

// ListInvitations implements storage.InvitationStore
func (s *Store) ListInvitations(ctx context.Context, garageID string) ([]*domain.Invitation, error) {
	query := `
		SELECT id, email, garage_id, role, status
		FROM invitations
		WHERE garage_id = $1
		ORDER BY email
	`

	rows, err := s.q.QueryContext(ctx, query, garageID)
	if err != nil {
		return nil, classify("list invitations", err)
	}
	defer rows.Close()

	invitations := make([]*domain.Invitation, 0)
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, classify("list invitations", err)
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list invitations", err)
	}
	return invitations, nil
}

// DeleteInvitationByEmail implements storage.InvitationStore
func (s *Store) DeleteInvitationByEmail(ctx context.Context, email string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM invitations WHERE email = $1`, auth.NormalizeEmail(email))
	if err != nil {
		return classify("delete invitation", err)
	}
	return expectAffected("delete invitation", res)
}
