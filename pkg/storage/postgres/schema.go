package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// schema is written in the common subset of PostgreSQL and SQLite. {{ts}} is
// replaced by the timestamp type of the dialect.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS garages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company_email TEXT NOT NULL,
		company_phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		white_label BOOLEAN NOT NULL DEFAULT TRUE,
		garage_logo TEXT NOT NULL DEFAULT '',
		goal INTEGER NOT NULL DEFAULT 5,
		connect_account_id TEXT NOT NULL DEFAULT '',
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		avatar_url TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'SUBACCOUNT_USER',
		garage_id TEXT REFERENCES garages(id) ON DELETE SET NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_users_garage_id ON users(garage_id)`,
	`CREATE TABLE IF NOT EXISTS sub_accounts (
		id TEXT PRIMARY KEY,
		garage_id TEXT NOT NULL REFERENCES garages(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		company_email TEXT NOT NULL DEFAULT '',
		company_phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		zip_code TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		country TEXT NOT NULL DEFAULT '',
		sub_account_logo TEXT NOT NULL DEFAULT '',
		goal INTEGER NOT NULL DEFAULT 5,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sub_accounts_garage_id ON sub_accounts(garage_id)`,
	`CREATE TABLE IF NOT EXISTS sidebar_options (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		icon TEXT NOT NULL,
		link TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		garage_id TEXT REFERENCES garages(id) ON DELETE CASCADE,
		sub_account_id TEXT REFERENCES sub_accounts(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sidebar_options_garage_id ON sidebar_options(garage_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sidebar_options_sub_account_id ON sidebar_options(sub_account_id)`,
	`CREATE TABLE IF NOT EXISTS invitations (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		garage_id TEXT NOT NULL REFERENCES garages(id) ON DELETE CASCADE,
		role TEXT NOT NULL DEFAULT 'SUBACCOUNT_USER',
		status TEXT NOT NULL DEFAULT 'PENDING'
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invitations_garage_id ON invitations(garage_id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		notification TEXT NOT NULL,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		garage_id TEXT NOT NULL REFERENCES garages(id) ON DELETE CASCADE,
		sub_account_id TEXT REFERENCES sub_accounts(id) ON DELETE CASCADE,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_garage_id ON notifications(garage_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		garage_id TEXT NOT NULL UNIQUE REFERENCES garages(id) ON DELETE CASCADE,
		plan TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at {{ts}} NOT NULL,
		updated_at {{ts}} NOT NULL
	)`,
}

// EnsureSchema creates the tables the store needs if they do not exist
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	ts := "TIMESTAMP WITH TIME ZONE"
	if driver == DriverSQLite {
		ts = "TIMESTAMP"
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, strings.ReplaceAll(stmt, "{{ts}}", ts)); err != nil {
			return fmt.Errorf("failed to ensure schema: %w", err)
		}
	}
	return nil
}
