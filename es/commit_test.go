package es_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/getpup/pupcommits/es"
)

func TestNewAggregateID(t *testing.T) {
	u := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	id := es.NewAggregateID("Collaboration", u)

	if id.BoundedContext != "Collaboration" {
		t.Errorf("expected bounded context Collaboration, got %s", id.BoundedContext)
	}
	if !bytes.Equal(id.Raw, u[:]) {
		t.Errorf("expected raw bytes to equal uuid bytes")
	}

	// Mutating the uuid copy must not leak into the id
	u[15] = 0xFF
	if id.Raw[15] != 0x01 {
		t.Errorf("expected raw bytes to be copied")
	}
}

func TestAggregateIDString(t *testing.T) {
	id := es.AggregateID{BoundedContext: "Collaboration", Raw: []byte{0x00, 0x01}}
	if got := id.String(); got != "AAE=" {
		t.Errorf("expected padded base64 AAE=, got %s", got)
	}
}

func TestAggregateCommitID(t *testing.T) {
	c := es.AggregateCommit{BoundedContext: "Billing", AggregateRootID: []byte{1, 2, 3}}
	id := c.ID()
	if id.BoundedContext != "Billing" || !bytes.Equal(id.Raw, []byte{1, 2, 3}) {
		t.Errorf("unexpected id %+v", id)
	}
}

func TestEventStream(t *testing.T) {
	var empty es.EventStream
	if !empty.IsEmpty() || empty.Len() != 0 || empty.LastRevision() != -1 {
		t.Errorf("unexpected empty stream state")
	}
	if err := empty.CheckRevisions(); err != nil {
		t.Errorf("empty stream should be valid: %v", err)
	}

	stream := es.EventStream{Commits: []es.AggregateCommit{{Revision: 0}, {Revision: 1}, {Revision: 2}}}
	if stream.IsEmpty() || stream.Len() != 3 || stream.LastRevision() != 2 {
		t.Errorf("unexpected stream state")
	}
	if err := stream.CheckRevisions(); err != nil {
		t.Errorf("contiguous stream should be valid: %v", err)
	}
}

func TestEventStreamCheckRevisions(t *testing.T) {
	tests := []struct {
		name      string
		revisions []int
	}{
		{"gap", []int{1, 2, 4}},
		{"duplicate", []int{1, 1, 2}},
		{"descending", []int{2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stream es.EventStream
			for _, r := range tt.revisions {
				stream.Commits = append(stream.Commits, es.AggregateCommit{Revision: r})
			}
			if err := stream.CheckRevisions(); err == nil {
				t.Errorf("expected error for revisions %v", tt.revisions)
			}
		})
	}
}

func TestAggregateCommitBelongsTo(t *testing.T) {
	id := es.AggregateID{BoundedContext: "Collaboration", Raw: []byte{0x00, 0x01}}
	commit := es.AggregateCommit{BoundedContext: "Collaboration", AggregateRootID: []byte{0x00, 0x01}, Revision: 3}

	if err := commit.BelongsTo(id, 3); err != nil {
		t.Errorf("expected commit to belong to its row, got %v", err)
	}

	tests := []struct {
		name     string
		commit   es.AggregateCommit
		revision int
	}{
		{"zero commit", es.AggregateCommit{}, 0},
		{"other bounded context", es.AggregateCommit{BoundedContext: "Billing", AggregateRootID: []byte{0x00, 0x01}, Revision: 3}, 3},
		{"other identity", es.AggregateCommit{BoundedContext: "Collaboration", AggregateRootID: []byte{0x00, 0x02}, Revision: 3}, 3},
		{"other revision", commit, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.commit.BelongsTo(id, tt.revision); !errors.Is(err, es.ErrCommitMismatch) {
				t.Errorf("expected ErrCommitMismatch, got %v", err)
			}
		})
	}
}
