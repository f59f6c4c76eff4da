// Package store defines the event store contract and its error taxonomy.
package store

import (
	"context"

	"github.com/getpup/pupcommits/es"
)

// EventStore appends and loads aggregate commits.
//
// Implementations resolve the target partition through a partition.Registry,
// serialize the whole commit with an es.Serializer and rely on the primary key
// (AggregateId, Revision) of the partition for optimistic concurrency.
type EventStore interface {
	// Append durably writes one commit.
	// The commit revision must be exactly one above the last stored revision;
	// the store does not check this itself. A second writer for the same
	// revision receives an error matching ErrOptimisticConcurrency.
	// A commit that cannot be serialized fails with ErrStorage and touches no table.
	Append(ctx context.Context, commit es.AggregateCommit) error

	// Load returns the full history of an aggregate ordered by revision.
	// An aggregate without commits yields an empty stream and no error.
	// A row that does not decode to this aggregate's commit at its revision
	// fails the whole load with ErrStorage.
	Load(ctx context.Context, id es.AggregateID) (es.EventStream, error)
}
