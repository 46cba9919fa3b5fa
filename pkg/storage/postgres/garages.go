package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
	"github.com/platinummonkey/garage/pkg/storage"
)

const garageColumns = `id, name, company_email, company_phone, address, city, zip_code, state, country,
	white_label, garage_logo, goal, connect_account_id, created_at, updated_at`

func scanGarage(row scanner) (*domain.Garage, error) {
	var g domain.Garage
	err := row.Scan(
		&g.ID, &g.Name, &g.CompanyEmail, &g.CompanyPhone, &g.Address, &g.City, &g.ZipCode, &g.State, &g.Country,
		&g.WhiteLabel, &g.GarageLogo, &g.Goal, &g.ConnectAccountID, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// GarageExists implements storage.GarageStore
func (s *Store) GarageExists(ctx context.Context, id string) (bool, error) {
	var count int
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM garages WHERE id = $1`, id).Scan(&count); err != nil {
		return false, classify("check garage existence", err)
	}
	return count > 0, nil
}

// GetGarage implements storage.GarageStore
func (s *Store) GetGarage(ctx context.Context, id string) (*domain.Garage, error) {
	query := `SELECT ` + garageColumns + ` FROM garages WHERE id = $1`

	g, err := scanGarage(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("get garage", err)
	}
	return g, nil
}

// InsertGarage implements storage.GarageStore
func (s *Store) InsertGarage(ctx context.Context, g *domain.Garage) error {
	newID(&g.ID)
	s.stamp(&g.CreatedAt, &g.UpdatedAt)
	g.CompanyEmail = auth.NormalizeEmail(g.CompanyEmail)

	query := `
		INSERT INTO garages (` + garageColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.q.ExecContext(ctx, query,
		g.ID, g.Name, g.CompanyEmail, g.CompanyPhone, g.Address, g.City, g.ZipCode, g.State, g.Country,
		g.WhiteLabel, g.GarageLogo, g.Goal, g.ConnectAccountID, g.CreatedAt, g.UpdatedAt,
	)
	return classify("insert garage", err)
}

// UpdateGarage implements storage.GarageStore
func (s *Store) UpdateGarage(ctx context.Context, g *domain.Garage) error {
	g.UpdatedAt = s.now()
	g.CompanyEmail = auth.NormalizeEmail(g.CompanyEmail)

	query := `
		UPDATE garages
		SET name = $1, company_email = $2, company_phone = $3, address = $4, city = $5,
			zip_code = $6, state = $7, country = $8, white_label = $9, garage_logo = $10,
			goal = $11, connect_account_id = $12, updated_at = $13
		WHERE id = $14
	`
	res, err := s.q.ExecContext(ctx, query,
		g.Name, g.CompanyEmail, g.CompanyPhone, g.Address, g.City,
		g.ZipCode, g.State, g.Country, g.WhiteLabel, g.GarageLogo,
		g.Goal, g.ConnectAccountID, g.UpdatedAt,
		g.ID,
	)
	if err != nil {
		return classify("update garage", err)
	}
	return expectAffected("update garage", res)
}

// UpdateGarageFields implements storage.GarageStore
func (s *Store) UpdateGarageFields(ctx context.Context, id string, u domain.GarageUpdate, now time.Time) error {
	if u.IsEmpty() {
		return nil
	}

	var (
		sets []string
		args []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if u.Name != nil {
		add("name", *u.Name)
	}
	if u.CompanyEmail != nil {
		add("company_email", auth.NormalizeEmail(*u.CompanyEmail))
	}
	if u.CompanyPhone != nil {
		add("company_phone", *u.CompanyPhone)
	}
	if u.Address != nil {
		add("address", *u.Address)
	}
	if u.City != nil {
		add("city", *u.City)
	}
	if u.ZipCode != nil {
		add("zip_code", *u.ZipCode)
	}
	if u.State != nil {
		add("state", *u.State)
	}
	if u.Country != nil {
		add("country", *u.Country)
	}
	if u.WhiteLabel != nil {
		add("white_label", *u.WhiteLabel)
	}
	if u.GarageLogo != nil {
		add("garage_logo", *u.GarageLogo)
	}
	if u.Goal != nil {
		add("goal", *u.Goal)
	}
	if u.ConnectAccountID != nil {
		add("connect_account_id", *u.ConnectAccountID)
	}
	add("updated_at", utc(now))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE garages SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := s.q.ExecContext(ctx, query, args...)
	if err != nil {
		return classify("update garage fields", err)
	}
	return expectAffected("update garage fields", res)
}

// DeleteGarage implements storage.GarageStore
func (s *Store) DeleteGarage(ctx context.Context, id string) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM garages WHERE id = $1`, id)
	if err != nil {
		return classify("delete garage", err)
	}
	return expectAffected("delete garage", res)
}

const sidebarColumns = `id, name, icon, link, garage_id, sub_account_id, created_at, updated_at`

func (s *Store) querySidebar(ctx context.Context, op, query string, arg string) ([]*domain.SidebarOption, error) {
	rows, err := s.q.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	opts := make([]*domain.SidebarOption, 0)
	for rows.Next() {
		var (
			o            domain.SidebarOption
			garageID     sql.NullString
			subAccountID sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Name, &o.Icon, &o.Link, &garageID, &subAccountID, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, classify(op, err)
		}
		o.GarageID = stringPtr(garageID)
		o.SubAccountID = stringPtr(subAccountID)
		opts = append(opts, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return opts, nil
}

// ListSidebarOptions implements storage.GarageStore
func (s *Store) ListSidebarOptions(ctx context.Context, garageID string) ([]*domain.SidebarOption, error) {
	query := `SELECT ` + sidebarColumns + ` FROM sidebar_options WHERE garage_id = $1 ORDER BY position, name`
	return s.querySidebar(ctx, "list sidebar options", query, garageID)
}

// ListSubAccountSidebarOptions implements storage.SubAccountStore
func (s *Store) ListSubAccountSidebarOptions(ctx context.Context, subAccountID string) ([]*domain.SidebarOption, error) {
	query := `SELECT ` + sidebarColumns + ` FROM sidebar_options WHERE sub_account_id = $1 ORDER BY position, name`
	return s.querySidebar(ctx, "list sub-account sidebar options", query, subAccountID)
}

// SeedSidebarOptions implements storage.GarageStore
func (s *Store) SeedSidebarOptions(ctx context.Context, opts []*domain.SidebarOption) error {
	query := `
		INSERT INTO sidebar_options (id, name, icon, link, position, garage_id, sub_account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for i, o := range opts {
		if (o.GarageID == nil) == (o.SubAccountID == nil) {
			return fmt.Errorf("failed to seed sidebar option %q: exactly one owner is required", o.Name)
		}
		newID(&o.ID)
		s.stamp(&o.CreatedAt, &o.UpdatedAt)

		_, err := s.q.ExecContext(ctx, query,
			o.ID, o.Name, o.Icon, o.Link, i, nullString(o.GarageID), nullString(o.SubAccountID), o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return classify("seed sidebar option", err)
		}
	}
	return nil
}

var _ storage.GarageStore = (*Store)(nil)
