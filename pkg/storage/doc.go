// Package storage defines the persistence contracts of the garage console.
//
// # Overview
//
// The relational store is split into focused interfaces, one per entity
// family, which compose into Store:
//
//   - UserStore: users and their garage membership
//   - InvitationStore: pending invitations, keyed by email
//   - GarageStore: garages and their sidebar navigation
//   - SubAccountStore: sub-accounts and their sidebar navigation
//   - NotificationStore: the append-only activity log
//   - SubscriptionStore: one billing subscription per garage
//
// Store adds RunInTx, which runs a function against a transaction-bound Store.
// Every write performed through the Store handed to the function commits or
// rolls back together:
//
//	err := store.RunInTx(ctx, func(tx storage.Store) error {
//		if err := tx.CreateUser(ctx, user); err != nil {
//			return err
//		}
//		return tx.DeleteInvitationByEmail(ctx, user.Email)
//	})
//
// # Errors
//
// Implementations classify driver errors into ErrNotFound, ErrConflict and
// ErrUnavailable so that callers can branch with errors.Is without knowing the
// database in use.
//
// # Object storage
//
// Binary assets such as garage logos go through ObjectStore. Two backends
// exist: FileSystemObjectStore in this package for local development, and
// the S3 store in pkg/storage/postgres.
//
// # Backends
//
// pkg/storage/postgres implements Store over database/sql. It runs against
// PostgreSQL in production and SQLite for local development and tests.
package storage
