package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/platinummonkey/garage/pkg/storage"
)

var tracer = otel.Tracer("github.com/platinummonkey/garage/pkg/storage/postgres")

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements storage.Store over database/sql
type Store struct {
	db   *sql.DB
	q    querier
	inTx bool
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

// NewStore creates a store on an open database
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:  db,
		q:   db,
		now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// DB returns the underlying database handle
func (s *Store) DB() *sql.DB {
	return s.db
}

// Ping implements storage.Store.Ping
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify("ping database", err)
	}
	return nil
}

// RunInTx implements storage.Store.RunInTx
func (s *Store) RunInTx(ctx context.Context, fn func(tx storage.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin transaction", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, q: tx, inTx: true, now: s.now}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return classify("commit transaction", err)
	}
	return nil
}

// stamp fills zero timestamps and normalizes all of them to UTC, so that
// SQLite's text timestamps sort chronologically
func (s *Store) stamp(created, updated *time.Time) {
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	if updated.IsZero() {
		*updated = now
	}
	*created = utc(*created)
	*updated = utc(*updated)
}

func utc(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func nullString(p *string) sql.NullString {
	if p == nil || *p == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

type scanner interface {
	Scan(dest ...any) error
}
