// Package storagetest provides an in-memory SQLite store for tests
package storagetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/garage/pkg/storage"
	"github.com/platinummonkey/garage/pkg/storage/postgres"
)

// NewStore returns a store on a fresh in-memory SQLite database with the
// schema applied and foreign keys enforced
func NewStore(t testing.TB) *postgres.Store {
	t.Helper()

	ctx := context.Background()
	db, err := postgres.Open(ctx, storage.Config{Driver: postgres.DriverSQLite, DatabaseURL: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, postgres.EnsureSchema(ctx, db, postgres.DriverSQLite))
	return postgres.NewStore(db)
}
