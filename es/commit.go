package es

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// AggregateID identifies one aggregate instance within its bounded context.
type AggregateID struct {
	// BoundedContext names the domain module that owns the aggregate
	BoundedContext string

	// Raw holds the identity bytes. Partition resolution is derived from them.
	Raw []byte
}

// NewAggregateID builds an AggregateID from a UUID.
func NewAggregateID(boundedContext string, id uuid.UUID) AggregateID {
	raw := make([]byte, len(id))
	copy(raw, id[:])
	return AggregateID{BoundedContext: boundedContext, Raw: raw}
}

// String returns the padded standard base64 form of Raw.
// This is the value stored in the AggregateId column.
func (id AggregateID) String() string {
	return base64.StdEncoding.EncodeToString(id.Raw)
}

// AggregateCommit is one durable, immutable unit of change for a single aggregate.
// A commit is created once by the domain layer, appended once and never mutated.
type AggregateCommit struct {
	// BoundedContext identifies the owning domain module
	BoundedContext string

	// AggregateRootID holds the raw identity bytes of the aggregate
	AggregateRootID []byte

	// Revision is unique per aggregate identity and increases by one per commit
	Revision int

	// Timestamp is the creation time of the commit (unix nanoseconds by convention)
	Timestamp int64

	// Payload contains the serialized events of the commit.
	// The store treats it as opaque bytes.
	Payload []byte
}

// ErrCommitMismatch indicates a decoded commit that does not belong to the row it was read from.
var ErrCommitMismatch = errors.New("commit does not match its row")

// BelongsTo checks that the commit is the one stored for id at revision.
func (c AggregateCommit) BelongsTo(id AggregateID, revision int) error {
	if c.BoundedContext != id.BoundedContext || !bytes.Equal(c.AggregateRootID, id.Raw) {
		return fmt.Errorf("%w: found aggregate %q/%s, want %q/%s", ErrCommitMismatch,
			c.BoundedContext, c.ID().String(), id.BoundedContext, id.String())
	}
	if c.Revision != revision {
		return fmt.Errorf("%w: found revision %d in row %d", ErrCommitMismatch, c.Revision, revision)
	}
	return nil
}

// ID returns the identity of the aggregate the commit belongs to.
func (c AggregateCommit) ID() AggregateID {
	return AggregateID{BoundedContext: c.BoundedContext, Raw: c.AggregateRootID}
}

// EventStream is the ordered commit history of one aggregate.
// Commits are sorted by ascending revision.
type EventStream struct {
	AggregateID AggregateID
	Commits     []AggregateCommit
}

// IsEmpty reports whether the stream has no commits.
// An aggregate that was never appended to loads as an empty stream.
func (s EventStream) IsEmpty() bool {
	return len(s.Commits) == 0
}

// Len returns the number of commits in the stream.
func (s EventStream) Len() int {
	return len(s.Commits)
}

// LastRevision returns the revision of the newest commit, or -1 for an empty stream.
func (s EventStream) LastRevision() int {
	if len(s.Commits) == 0 {
		return -1
	}
	return s.Commits[len(s.Commits)-1].Revision
}

// CheckRevisions verifies that revisions are contiguous and strictly increasing.
// Stores never call it; aggregate repositories may use it to detect corrupted histories.
func (s EventStream) CheckRevisions() error {
	for i := 1; i < len(s.Commits); i++ {
		prev, cur := s.Commits[i-1].Revision, s.Commits[i].Revision
		if cur != prev+1 {
			return fmt.Errorf("revision %d follows %d at position %d", cur, prev, i)
		}
	}
	return nil
}
