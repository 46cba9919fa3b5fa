// Package postgres implements storage.Store over database/sql.
//
// The same SQL runs on PostgreSQL (lib/pq) in production and on SQLite
// (mattn/go-sqlite3) for local development and tests. Queries use $n
// placeholders in ascending order, which both drivers bind positionally.
//
// The package also provides the Redis client used for identity session
// metadata and an S3 implementation of storage.ObjectStore.
package postgres
