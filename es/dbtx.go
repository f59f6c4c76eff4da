package es

import (
	"context"
	"database/sql"
)

// DBTX is the subset of database operations the adapters need.
// It is implemented by *sql.DB, *sql.Tx and *sql.Conn, so provisioning
// and maintenance code can run on a pool, a transaction or a pinned connection.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

var (
	_ DBTX = (*sql.DB)(nil)
	_ DBTX = (*sql.Tx)(nil)
	_ DBTX = (*sql.Conn)(nil)
)
