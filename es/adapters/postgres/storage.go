package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/migrations"
)

// Storage implements provision.Storage for PostgreSQL.
//
// The storage root is a database. It is created through an administrative
// connection (usually to the "postgres" database) because a connection to a
// database that does not exist yet cannot be opened. Partitions are created
// through db in its current schema.
type Storage struct {
	admin    es.DBTX
	db       es.DBTX
	database string
}

// NewStorage creates a Storage. admin must be connected to any existing database
// of the server; db must be connected to database.
func NewStorage(admin, db es.DBTX, database string) *Storage {
	return &Storage{admin: admin, db: db, database: database}
}

// MaxPartitionNameLength implements provision.NameLimiter.
func (s *Storage) MaxPartitionNameLength() int {
	return migrations.Postgres.MaxIdentifierLength()
}

// RootExists reports whether the database exists.
func (s *Storage) RootExists(ctx context.Context) (bool, error) {
	var exists bool
	err := s.admin.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)",
		s.database).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query pg_database: %w", err)
	}
	return exists, nil
}

// CreateRoot creates the database. A concurrent creation by another process is not an error.
func (s *Storage) CreateRoot(ctx context.Context) error {
	_, err := s.admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(s.database))
	if err != nil && !hasCode(err, codeDuplicateDatabase) {
		return fmt.Errorf("create database %s: %w", s.database, err)
	}
	return nil
}

// PartitionExists reports whether the partition table exists in the current schema.
// Partition names are quoted, so the comparison is case-sensitive.
func (s *Storage) PartitionExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1)",
		name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query information_schema: %w", err)
	}
	return exists, nil
}

// CreatePartition creates the partition table if it does not exist.
// Concurrent IF NOT EXISTS creations can still collide in the catalog; those
// collisions mean the table is being created elsewhere and are ignored.
func (s *Storage) CreatePartition(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, migrations.Postgres.CreatePartitionSQL(name))
	if err != nil && !hasCode(err, codeUniqueViolation) && !hasCode(err, codeDuplicateTable) {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// DropPartition drops the partition table if it exists.
func (s *Storage) DropPartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, migrations.Postgres.DropPartitionSQL(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}
