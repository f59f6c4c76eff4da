package mysql

import (
	"context"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/migrations"
)

// Storage implements provision.Storage for MySQL.
//
// The storage root is a schema (database). Partition names differ only by the
// case of their chunk, so the server must keep table names case-sensitive
// (lower_case_table_names=0, the Linux default). Existence checks compare names
// byte for byte; on a case-folding server they never converge and provisioning
// fails instead of silently merging partitions.
type Storage struct {
	admin    es.DBTX
	db       es.DBTX
	database string
}

// NewStorage creates a Storage. admin may be connected without a default database
// (see AdminDSN); db must be connected to database.
func NewStorage(admin, db es.DBTX, database string) *Storage {
	return &Storage{admin: admin, db: db, database: database}
}

// MaxPartitionNameLength implements provision.NameLimiter.
func (s *Storage) MaxPartitionNameLength() int {
	return migrations.MySQL.MaxIdentifierLength()
}

// AdminDSN derives a DSN without a default database from dsn and returns the database name.
func AdminDSN(dsn string) (admin, database string, err error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", "", fmt.Errorf("parse dsn: %w", err)
	}
	database = cfg.DBName
	if database == "" {
		return "", "", fmt.Errorf("dsn has no database name")
	}
	cfg.DBName = ""
	return cfg.FormatDSN(), database, nil
}

// RootExists reports whether the schema exists.
func (s *Storage) RootExists(ctx context.Context) (bool, error) {
	var count int
	err := s.admin.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.SCHEMATA WHERE SCHEMA_NAME = ?",
		s.database).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query information_schema: %w", err)
	}
	return count > 0, nil
}

// CreateRoot creates the schema if it does not exist.
func (s *Storage) CreateRoot(ctx context.Context) error {
	_, err := s.admin.ExecContext(ctx,
		"CREATE DATABASE IF NOT EXISTS "+migrations.MySQL.QuoteIdentifier(s.database)+" CHARACTER SET utf8mb4")
	if err != nil {
		return fmt.Errorf("create database %s: %w", s.database, err)
	}
	return nil
}

// PartitionExists reports whether the partition table exists in the schema.
func (s *Storage) PartitionExists(ctx context.Context, name string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND BINARY TABLE_NAME = ?",
		s.database, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query information_schema: %w", err)
	}
	return count > 0, nil
}

// CreatePartition creates the partition table if it does not exist.
func (s *Storage) CreatePartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, migrations.MySQL.CreatePartitionSQL(name)); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}
	return nil
}

// DropPartition drops the partition table if it exists.
func (s *Storage) DropPartition(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, migrations.MySQL.DropPartitionSQL(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	return nil
}
