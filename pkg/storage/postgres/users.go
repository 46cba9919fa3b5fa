package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/platinummonkey/garage/pkg/auth"
)

const userColumns = `id, email, name, avatar_url, role, garage_id, created_at, updated_at`

func scanUser(row scanner) (*auth.User, error) {
	var (
		u        auth.User
		role     string
		garageID sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.AvatarURL, &role, &garageID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.Role = auth.Role(role)
	u.GarageID = stringPtr(garageID)
	return &u, nil
}

func (s *Store) queryUsers(ctx context.Context, op, query string, args ...any) ([]*auth.User, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	users := make([]*auth.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return users, nil
}

// FindUserByEmail implements storage.UserStore
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	u, err := scanUser(s.q.QueryRowContext(ctx, query, auth.NormalizeEmail(email)))
	if err != nil {
		return nil, classify("find user by email", err)
	}
	return u, nil
}

// CreateUser implements storage.UserStore
func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	newID(&u.ID)
	s.stamp(&u.CreatedAt, &u.UpdatedAt)
	u.Email = auth.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = auth.DefaultRole
	}

	query := `
		INSERT INTO users (id, email, name, avatar_url, role, garage_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.q.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.AvatarURL, string(u.Role), nullString(u.GarageID), u.CreatedAt, u.UpdatedAt,
	)
	return classify("create user", err)
}

// UpsertUserByEmail implements storage.UserStore
func (s *Store) UpsertUserByEmail(ctx context.Context, u *auth.User) (*auth.User, error) {
	newID(&u.ID)
	s.stamp(&u.CreatedAt, &u.UpdatedAt)
	u.Email = auth.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = auth.DefaultRole
	}

	query := `
		INSERT INTO users (id, email, name, avatar_url, role, garage_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (email) DO UPDATE SET role = excluded.role, updated_at = excluded.updated_at
	`
	_, err := s.q.ExecContext(ctx, query,
		u.ID, u.Email, u.Name, u.AvatarURL, string(u.Role), nullString(u.GarageID), u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return nil, classify("upsert user", err)
	}
	return s.FindUserByEmail(ctx, u.Email)
}

// LinkUserToGarage implements storage.UserStore
func (s *Store) LinkUserToGarage(ctx context.Context, email, garageID string, now time.Time) error {
	query := `UPDATE users SET garage_id = $1, updated_at = $2 WHERE email = $3`

	res, err := s.q.ExecContext(ctx, query, garageID, utc(now), auth.NormalizeEmail(email))
	if err != nil {
		return classify("link user to garage", err)
	}
	return expectAffected("link user to garage", res)
}

// FindFirstUserBySubAccount implements storage.UserStore
func (s *Store) FindFirstUserBySubAccount(ctx context.Context, subAccountID string) (*auth.User, error) {
	query := `
		SELECT u.id, u.email, u.name, u.avatar_url, u.role, u.garage_id, u.created_at, u.updated_at
		FROM users u
		JOIN sub_accounts sa ON sa.garage_id = u.garage_id
		WHERE sa.id = $1
		ORDER BY u.created_at, u.id
		LIMIT 1
	`

	u, err := scanUser(s.q.QueryRowContext(ctx, query, subAccountID))
	if err != nil {
		return nil, classify("find user by sub-account", err)
	}
	return u, nil
}

// ListGarageUsers implements storage.UserStore
func (s *Store) ListGarageUsers(ctx context.Context, garageID string) ([]*auth.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE garage_id = $1 ORDER BY created_at, id`
	return s.queryUsers(ctx, "list garage users", query, garageID)
}
