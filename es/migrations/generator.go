// Package migrations renders partition DDL and generates migration scripts.
package migrations

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getpup/pupcommits/es/partition"
)

// Config configures migration generation.
type Config struct {
	// OutputFolder is the directory where the migration file will be written
	OutputFolder string

	// OutputFilename is the name of the migration file
	OutputFilename string

	// Dialect selects the SQL flavor
	Dialect Dialect

	// Registry supplies the bounded contexts and their partition strategies
	Registry *partition.Registry
}

// DefaultConfig returns the default configuration.
// Registry must still be set by the caller.
func DefaultConfig() Config {
	timestamp := time.Now().Format("20060102150405")
	return Config{
		OutputFolder:   "migrations",
		OutputFilename: fmt.Sprintf("%s_init_commit_partitions.sql", timestamp),
		Dialect:        Postgres,
	}
}

// Generate writes a migration creating every partition of every registered bounded context.
// It is the offline alternative to runtime provisioning; both render the same DDL.
func Generate(config *Config) error {
	if config.Registry == nil {
		return fmt.Errorf("registry is required")
	}
	if err := config.Registry.CheckNameLength(config.Dialect.MaxIdentifierLength()); err != nil {
		return err
	}

	if err := os.MkdirAll(config.OutputFolder, 0o755); err != nil {
		return fmt.Errorf("failed to create output folder: %w", err)
	}

	sql := Render(config.Dialect, config.Registry)

	outputPath := filepath.Join(config.OutputFolder, config.OutputFilename)
	if err := os.WriteFile(outputPath, []byte(sql), 0o600); err != nil {
		return fmt.Errorf("failed to write migration file: %w", err)
	}

	return nil
}

// Render returns the migration script as a string.
func Render(dialect Dialect, registry *partition.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Aggregate commit partitions (%s)\n", dialect)
	fmt.Fprintf(&b, "-- Generated: %s\n", time.Now().Format(time.RFC3339))
	b.WriteString("-- One table per partition; primary key (AggregateId, Revision) enforces optimistic concurrency.\n")

	for _, bc := range registry.BoundedContexts() {
		strategy, err := registry.Lookup(bc)
		if err != nil {
			continue
		}
		names := strategy.All(bc)
		fmt.Fprintf(&b, "\n-- Bounded context %s: %d partitions\n", bc, len(names))
		for _, name := range names {
			b.WriteString(dialect.CreatePartitionSQL(name))
			b.WriteString(";\n")
		}
	}
	return b.String()
}
