// Package partition maps aggregate identities to physical partitions (tables).
//
// The mapping is a static, pre-computed sharding scheme: the set of partition
// names of a bounded context is fixed and enumerable ahead of time, so every
// partition can be provisioned once at startup instead of lazily per identity.
package partition

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
)

// Alphabet is the standard base64 alphabet partition chunks are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// DefaultChunkLength is the number of alphabet symbols in a partition suffix.
// 2 symbols give 64^2 = 4096 partitions per bounded context.
const DefaultChunkLength = 2

// separator joins the bounded context and the chunk.
const separator = "_es_"

var (
	// ErrIdentityTooShort indicates raw identity bytes that encode to fewer symbols than the chunk.
	ErrIdentityTooShort = errors.New("aggregate identity too short for partition chunk")

	// ErrUnknownBoundedContext indicates a bounded context missing from the registry.
	ErrUnknownBoundedContext = errors.New("unknown bounded context")

	// ErrNameTooLong indicates a partition name longer than the storage engine keeps intact.
	ErrNameTooLong = errors.New("partition name too long")
)

// Strategy resolves partition names for aggregate identities.
// Implementations must be pure: the same inputs always yield the same name,
// and every name Resolve can return must be part of All.
type Strategy interface {
	// Resolve returns the partition holding the given identity.
	Resolve(boundedContext string, raw []byte) (string, error)

	// All returns every partition name the strategy can produce for the bounded context.
	All(boundedContext string) []string
}

// TablePerAggregateIDGroup groups aggregates into tables by the trailing
// symbols of the unpadded base64 encoding of their raw identity.
//
// Example: raw [0x00, 0x01] encodes to "AAE", the chunk is "AE" and the
// partition of bounded context "Collaboration" is "Collaboration_es_AE".
//
// Identities whose length is not a multiple of 3 leave low bits of the last
// symbol unused, so they reach only part of the enumerated set. A 16-byte UUID
// ends in one of A, Q, g or w and lands in 256 of the 4096 default partitions.
// All still provisions every name.
type TablePerAggregateIDGroup struct {
	// ChunkLength is the number of trailing symbols used; 0 means DefaultChunkLength
	ChunkLength int
}

// NewTablePerAggregateIDGroup returns the strategy with the default chunk length.
func NewTablePerAggregateIDGroup() TablePerAggregateIDGroup {
	return TablePerAggregateIDGroup{ChunkLength: DefaultChunkLength}
}

func (g TablePerAggregateIDGroup) chunkLength() int {
	if g.ChunkLength <= 0 {
		return DefaultChunkLength
	}
	return g.ChunkLength
}

// Resolve implements Strategy.
// Padding is not part of the alphabet, so the raw (unpadded) encoding is used.
func (g TablePerAggregateIDGroup) Resolve(boundedContext string, raw []byte) (string, error) {
	n := g.chunkLength()
	encoded := base64.RawStdEncoding.EncodeToString(raw)
	if len(encoded) < n {
		return "", fmt.Errorf("%w: %d bytes encode to %d symbols, need %d", ErrIdentityTooShort, len(raw), len(encoded), n)
	}
	return Name(boundedContext, encoded[len(encoded)-n:]), nil
}

// All implements Strategy.
// Names are returned in alphabet order; the result has 64^ChunkLength entries.
func (g TablePerAggregateIDGroup) All(boundedContext string) []string {
	n := g.chunkLength()
	total := 1
	for i := 0; i < n; i++ {
		total *= len(Alphabet)
	}

	names := make([]string, 0, total)
	chunk := make([]byte, n)
	for i := 0; i < total; i++ {
		rem := i
		for pos := n - 1; pos >= 0; pos-- {
			chunk[pos] = Alphabet[rem%len(Alphabet)]
			rem /= len(Alphabet)
		}
		names = append(names, Name(boundedContext, string(chunk)))
	}
	return names
}

// Name builds a partition name from a bounded context and a chunk.
func Name(boundedContext, chunk string) string {
	return boundedContext + separator + chunk
}

// Registry maps bounded contexts to their partition strategies.
// It is supplied by the hosting application and is read-only after construction.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// NewDefaultRegistry registers the default TablePerAggregateIDGroup for each bounded context.
func NewDefaultRegistry(boundedContexts ...string) *Registry {
	r := NewRegistry()
	for _, bc := range boundedContexts {
		r.Register(bc, NewTablePerAggregateIDGroup())
	}
	return r
}

// Register sets the strategy for a bounded context and returns the registry for chaining.
// It must not be called once the registry is shared with a store.
func (r *Registry) Register(boundedContext string, strategy Strategy) *Registry {
	r.strategies[boundedContext] = strategy
	return r
}

// Lookup returns the strategy registered for a bounded context.
func (r *Registry) Lookup(boundedContext string) (Strategy, error) {
	s, ok := r.strategies[boundedContext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoundedContext, boundedContext)
	}
	return s, nil
}

// Resolve looks up the strategy of the bounded context and resolves the partition.
func (r *Registry) Resolve(boundedContext string, raw []byte) (string, error) {
	s, err := r.Lookup(boundedContext)
	if err != nil {
		return "", err
	}
	return s.Resolve(boundedContext, raw)
}

// BoundedContexts returns the registered bounded contexts in sorted order.
func (r *Registry) BoundedContexts() []string {
	out := make([]string, 0, len(r.strategies))
	for bc := range r.strategies {
		out = append(out, bc)
	}
	sort.Strings(out)
	return out
}

// CheckNameLength returns ErrNameTooLong for the first partition name longer than limit bytes.
// A limit of 0 or less disables the check.
func (r *Registry) CheckNameLength(limit int) error {
	if limit <= 0 {
		return nil
	}
	for _, name := range r.Partitions() {
		if len(name) > limit {
			return fmt.Errorf("%w: %q is %d bytes, limit is %d", ErrNameTooLong, name, len(name), limit)
		}
	}
	return nil
}

// Partitions returns every partition of every registered bounded context.
func (r *Registry) Partitions() []string {
	var out []string
	for _, bc := range r.BoundedContexts() {
		out = append(out, r.strategies[bc].All(bc)...)
	}
	return out
}
