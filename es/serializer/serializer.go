// Package serializer provides es.Serializer implementations.
//
// CBOR is the default: a compact binary encoding with deterministic output.
// JSON is available for deployments that want human-readable payload columns.
package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/getpup/pupcommits/es"
)

// wireCommit is the persisted shape of es.AggregateCommit.
// Field keys are part of the storage format and must not be renumbered.
type wireCommit struct {
	BoundedContext  string `cbor:"1,keyasint" json:"boundedContext"`
	AggregateRootID []byte `cbor:"2,keyasint" json:"aggregateRootId"`
	Revision        int    `cbor:"3,keyasint" json:"revision"`
	Timestamp       int64  `cbor:"4,keyasint" json:"timestamp"`
	Payload         []byte `cbor:"5,keyasint" json:"payload"`
}

func toWire(c es.AggregateCommit) wireCommit {
	return wireCommit{
		BoundedContext:  c.BoundedContext,
		AggregateRootID: c.AggregateRootID,
		Revision:        c.Revision,
		Timestamp:       c.Timestamp,
		Payload:         c.Payload,
	}
}

func (w wireCommit) commit() es.AggregateCommit {
	return es.AggregateCommit{
		BoundedContext:  w.BoundedContext,
		AggregateRootID: w.AggregateRootID,
		Revision:        w.Revision,
		Timestamp:       w.Timestamp,
		Payload:         w.Payload,
	}
}

// CBOR serializes commits as CBOR maps with integer keys.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

// NewCBOR creates a CBOR serializer using core deterministic encoding.
func NewCBOR() *CBOR {
	enc, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoder options: %v", err))
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbor decoder options: %v", err))
	}
	return &CBOR{enc: enc, dec: dec}
}

// Serialize implements es.Serializer.
func (s *CBOR) Serialize(commit es.AggregateCommit) ([]byte, error) {
	data, err := s.enc.Marshal(toWire(commit))
	if err != nil {
		return nil, fmt.Errorf("cbor encode commit: %w", err)
	}
	return data, nil
}

// Deserialize implements es.Serializer.
func (s *CBOR) Deserialize(data []byte) (es.AggregateCommit, error) {
	var w wireCommit
	if err := s.dec.Unmarshal(data, &w); err != nil {
		return es.AggregateCommit{}, fmt.Errorf("cbor decode commit: %w", err)
	}
	return w.commit(), nil
}

// JSON serializes commits as JSON objects. Byte fields are base64 encoded.
type JSON struct{}

// NewJSON creates a JSON serializer.
func NewJSON() JSON {
	return JSON{}
}

// Serialize implements es.Serializer.
func (JSON) Serialize(commit es.AggregateCommit) ([]byte, error) {
	data, err := json.Marshal(toWire(commit))
	if err != nil {
		return nil, fmt.Errorf("json encode commit: %w", err)
	}
	return data, nil
}

// Deserialize implements es.Serializer.
func (JSON) Deserialize(data []byte) (es.AggregateCommit, error) {
	var w wireCommit
	if err := json.Unmarshal(data, &w); err != nil {
		return es.AggregateCommit{}, fmt.Errorf("json decode commit: %w", err)
	}
	return w.commit(), nil
}

var (
	_ es.Serializer = (*CBOR)(nil)
	_ es.Serializer = JSON{}
)
