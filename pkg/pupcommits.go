// Package pupcommits stores aggregate commits in partitioned SQL tables.
//
// This package serves as the main entry point for the pupcommits library.
// The functionality lives in the es package and its subpackages:
//
//	es                   - Commit, identity and stream types
//	es/store             - Store contract, error kinds and conflict retries
//	es/partition         - Partition naming and bounded context registry
//	es/provision         - Storage provisioning
//	es/adapters/postgres - PostgreSQL implementation
//	es/adapters/mysql    - MySQL/MariaDB implementation
//	es/adapters/sqlite   - SQLite implementation
//	es/migrations        - Partition DDL and script generation
//
// Quick Start:
//
//  1. Provision storage once per deployment:
//     go run github.com/getpup/pupcommits/cmd/provision -config pupcommits.yaml
//
//  2. Create a store and append commits:
//     registry := partition.NewDefaultRegistry("Collaboration")
//     s := postgres.NewStore(db, registry, postgres.DefaultStoreConfig())
//     err := s.Append(ctx, commit)
//
//  3. Rebuild an aggregate:
//     stream, err := s.Load(ctx, es.NewAggregateID("Collaboration", id))
//
// See the examples directory for complete working examples.
package pupcommits

// Version returns the current version of the library.
func Version() string {
	return "0.1.0-dev"
}
