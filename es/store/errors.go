package store

import (
	"errors"
	"fmt"
)

// Kind classifies store failures. The set is closed.
type Kind uint8

const (
	// KindConcurrency means another writer already stored the target revision.
	// The caller should reload the aggregate and retry the business operation.
	KindConcurrency Kind = iota + 1

	// KindStorage covers connectivity, serialization and every other engine error.
	KindStorage

	// KindProvisioning means the storage root or a partition could not be created.
	KindProvisioning
)

func (k Kind) String() string {
	switch k {
	case KindConcurrency:
		return "concurrency"
	case KindStorage:
		return "storage"
	case KindProvisioning:
		return "provisioning"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	// ErrOptimisticConcurrency matches every KindConcurrency error.
	ErrOptimisticConcurrency = errors.New("optimistic concurrency conflict")

	// ErrStorage matches every KindStorage error.
	ErrStorage = errors.New("storage failure")

	// ErrProvisioning matches every KindProvisioning error.
	ErrProvisioning = errors.New("provisioning failed")
)

// Error is the error type returned by stores and the provisioner.
// The original cause is kept in Err for diagnostics.
type Error struct {
	Kind      Kind
	Op        string
	Partition string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.String()
	if e.Partition != "" {
		msg += " (partition " + e.Partition + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the original cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrOptimisticConcurrency:
		return e.Kind == KindConcurrency
	case ErrStorage:
		return e.Kind == KindStorage
	case ErrProvisioning:
		return e.Kind == KindProvisioning
	}
	return false
}

// ConcurrencyError wraps err as a KindConcurrency error.
func ConcurrencyError(op, partition string, err error) error {
	return &Error{Kind: KindConcurrency, Op: op, Partition: partition, Err: err}
}

// StorageError wraps err as a KindStorage error.
func StorageError(op, partition string, err error) error {
	return &Error{Kind: KindStorage, Op: op, Partition: partition, Err: err}
}

// ProvisioningError wraps err as a KindProvisioning error.
func ProvisioningError(op, partition string, err error) error {
	return &Error{Kind: KindProvisioning, Op: op, Partition: partition, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not a store error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
