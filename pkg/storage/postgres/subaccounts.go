package postgres

import (
	"context"

	"github.com/platinummonkey/garage/pkg/auth"
	"github.com/platinummonkey/garage/pkg/domain"
)

const subAccountColumns = `id, garage_id, name, company_email, company_phone, address, city, zip_code, state, country,
	sub_account_logo, goal, created_at, updated_at`

func scanSubAccount(row scanner) (*domain.SubAccount, error) {
	var sa domain.SubAccount
	err := row.Scan(
		&sa.ID, &sa.GarageID, &sa.Name, &sa.CompanyEmail, &sa.CompanyPhone, &sa.Address, &sa.City, &sa.ZipCode,
		&sa.State, &sa.Country, &sa.SubAccountLogo, &sa.Goal, &sa.CreatedAt, &sa.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sa, nil
}

// FindSubAccountByID implements storage.SubAccountStore
func (s *Store) FindSubAccountByID(ctx context.Context, id string) (*domain.SubAccount, error) {
	query := `SELECT ` + subAccountColumns + ` FROM sub_accounts WHERE id = $1`

	sa, err := scanSubAccount(s.q.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, classify("find sub-account", err)
	}
	return sa, nil
}

// CreateSubAccount implements storage.SubAccountStore
func (s *Store) CreateSubAccount(ctx context.Context, sa *domain.SubAccount) error {
	newID(&sa.ID)
	s.stamp(&sa.CreatedAt, &sa.UpdatedAt)
	sa.CompanyEmail = auth.NormalizeEmail(sa.CompanyEmail)

	query := `
		INSERT INTO sub_accounts (` + subAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := s.q.ExecContext(ctx, query,
		sa.ID, sa.GarageID, sa.Name, sa.CompanyEmail, sa.CompanyPhone, sa.Address, sa.City, sa.ZipCode,
		sa.State, sa.Country, sa.SubAccountLogo, sa.Goal, sa.CreatedAt, sa.UpdatedAt,
	)
	return classify("create sub-account", err)
}

// ListSubAccounts implements storage.SubAccountStore
func (s *Store) ListSubAccounts(ctx context.Context, garageID string) ([]*domain.SubAccount, error) {
	query := `SELECT ` + subAccountColumns + ` FROM sub_accounts WHERE garage_id = $1 ORDER BY created_at, name`

	rows, err := s.q.QueryContext(ctx, query, garageID)
	if err != nil {
		return nil, classify("list sub-accounts", err)
	}
	defer rows.Close()

	subs := make([]*domain.SubAccount, 0)
	for rows.Next() {
		sa, err := scanSubAccount(rows)
		if err != nil {
			return nil, classify("list sub-accounts", err)
		}
		subs = append(subs, sa)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list sub-accounts", err)
	}
	return subs, nil
}
