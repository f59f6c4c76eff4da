package sqlite

import (
	"context"
	"fmt"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/migrations"
)

// Storage implements provision.Storage for SQLite.
//
// The storage root is the database file itself, which exists as soon as the
// connection is open. SQLite compares table names case-insensitively, so two
// partition names differing only in case share one physical table. Rows stay
// apart because AggregateId is compared byte for byte.
type Storage struct {
	db es.DBTX
}

// NewStorage creates a Storage over an open SQLite database.
func NewStorage(db es.DBTX) *Storage {
	return &Storage{db: db}
}

// RootExists reports whether the database answers queries.
func (s *Storage) RootExists(ctx context.Context) (bool, error) {
	var one int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return false, fmt.Errorf("query database: %w", err)
	}
	return true, nil
}

// CreateRoot is a no-op: opening the database created it.
func (s *Storage) CreateRoot(context.Context) error {
	return nil
}

// PartitionExists reports whether a table with the given name exists.
func (s *Storage) PartitionExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ? COLLATE NOCASE",
		name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query sqlite_master: %w", err)
	}
	return count > 0, nil
}

// CreatePartition creates the partition table if it does not exist.
func (s *Storage) CreatePartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, migrations.SQLite.CreatePartitionSQL(name)); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// DropPartition drops the partition table if it exists.
func (s *Storage) DropPartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, migrations.SQLite.DropPartitionSQL(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}
