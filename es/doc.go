// Package es provides the core types of the aggregate commit store.
//
// # Overview
//
// An aggregate commit is one durable unit of change of one aggregate: the
// bounded context it belongs to, the raw identity bytes, a revision, a
// timestamp and an opaque payload holding the serialized domain events.
// Commits are appended once and never updated or deleted.
//
//   - AggregateCommit: the unit of storage
//   - AggregateID: bounded context plus raw identity
//   - EventStream: the commits of one aggregate in revision order
//   - Serializer: converts commits to and from bytes
//   - DBTX: database handle abstraction used by provisioning
//   - Logger: optional structured logging
//
// # Storage layout
//
// Each bounded context is split into many partition tables. The partition of
// an aggregate is derived from the trailing symbols of the base64 encoding of
// its identity (see package es/partition), so appends of unrelated aggregates
// spread over many tables. Within a partition the primary key
// (AggregateId, Revision) is the only concurrency guard: the second writer of
// a revision fails with a concurrency error and must reload and retry.
//
// # Quick Start
//
// 1. Provision storage (or generate a script with cmd/migrate-gen):
//
//	registry := partition.NewDefaultRegistry("Collaboration")
//	p := provision.New(sqlite.NewStorage(db), registry, provision.DefaultConfig())
//	if err := p.EnsureStorage(ctx); err != nil {
//	    return err
//	}
//
// 2. Append a commit:
//
//	s := sqlite.NewStore(db, registry, sqlite.DefaultStoreConfig())
//	id := es.NewAggregateID("Collaboration", uuid.New())
//
//	err := s.Append(ctx, es.AggregateCommit{
//	    BoundedContext:  id.BoundedContext,
//	    AggregateRootID: id.Raw,
//	    Revision:        0,
//	    Timestamp:       time.Now().UnixNano(),
//	    Payload:         events,
//	})
//
// 3. Rebuild the aggregate:
//
//	stream, err := s.Load(ctx, id)
//	for _, c := range stream.Commits {
//	    // apply c.Payload
//	}
//
// Conflicts are detected with errors.Is(err, store.ErrOptimisticConcurrency);
// store.RetryOnConflict wraps the reload-and-retry loop.
package es
