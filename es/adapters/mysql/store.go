// Package mysql provides a MySQL/MariaDB adapter for the aggregate commit store.
package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/migrations"
	"github.com/getpup/pupcommits/es/partition"
	"github.com/getpup/pupcommits/es/serializer"
	"github.com/getpup/pupcommits/es/store"
)

const tracerName = "github.com/getpup/pupcommits/es/adapters/mysql"

// ER_DUP_ENTRY
const errDuplicateEntry = 1062

// StoreConfig contains configuration for the MySQL commit store.
// Configuration is immutable after construction.
type StoreConfig struct {
	// Logger is an optional logger for observability.
	// If nil, logging is disabled (zero overhead).
	Logger es.Logger

	// Serializer converts commits to the Data column
	Serializer es.Serializer

	// OperationTimeout bounds each Append and Load. Zero leaves the caller's context untouched.
	OperationTimeout time.Duration

	// Tracer opens one span per operation
	Tracer trace.Tracer
}

// DefaultStoreConfig returns the default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Serializer: serializer.NewCBOR(),
		Tracer:     otel.Tracer(tracerName),
		Logger:     nil, // No logging by default
	}
}

// StoreOption is a functional option for configuring a Store.
type StoreOption func(*StoreConfig)

// WithLogger sets a logger for the store.
func WithLogger(logger es.Logger) StoreOption {
	return func(c *StoreConfig) {
		c.Logger = logger
	}
}

// WithSerializer replaces the default CBOR serializer.
func WithSerializer(s es.Serializer) StoreOption {
	return func(c *StoreConfig) {
		c.Serializer = s
	}
}

// WithOperationTimeout bounds every store operation.
func WithOperationTimeout(d time.Duration) StoreOption {
	return func(c *StoreConfig) {
		c.OperationTimeout = d
	}
}

// WithTracer sets the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) StoreOption {
	return func(c *StoreConfig) {
		c.Tracer = tracer
	}
}

// NewStoreConfig creates a new store configuration with functional options.
// It starts with the default configuration and applies the given options.
func NewStoreConfig(opts ...StoreOption) StoreConfig {
	config := DefaultStoreConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Store is a MySQL-backed commit store. It is safe for concurrent use.
type Store struct {
	db       *sql.DB
	registry *partition.Registry
	config   StoreConfig
}

// NewStore creates a new MySQL commit store.
func NewStore(db *sql.DB, registry *partition.Registry, config StoreConfig) *Store {
	if config.Serializer == nil {
		config.Serializer = serializer.NewCBOR()
	}
	if config.Tracer == nil {
		config.Tracer = otel.Tracer(tracerName)
	}
	return &Store{db: db, registry: registry, config: config}
}

// Append implements store.EventStore.
// A duplicate (AggregateId, Revision) key is reported as a concurrency error.
func (s *Store) Append(ctx context.Context, commit es.AggregateCommit) (err error) {
	ctx, span := s.config.Tracer.Start(ctx, "mysql.Append", trace.WithAttributes(
		attribute.String("pupcommits.bounded_context", commit.BoundedContext),
		attribute.Int("pupcommits.revision", commit.Revision)))
	defer func() { finishSpan(span, err) }()

	table, err := s.registry.Resolve(commit.BoundedContext, commit.AggregateRootID)
	if err != nil {
		return store.StorageError("append", "", err)
	}
	span.SetAttributes(attribute.String("pupcommits.partition", table))

	data, err := s.config.Serializer.Serialize(commit)
	if err != nil {
		return store.StorageError("append", table, fmt.Errorf("serialize commit: %w", err))
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	aggregateID := commit.ID().String()
	_, err = s.db.ExecContext(ctx, migrations.MySQL.InsertSQL(table),
		aggregateID, commit.Revision, commit.Timestamp, data)
	if err != nil {
		if IsUniqueViolation(err) {
			if s.config.Logger != nil {
				s.config.Logger.Error(ctx, "optimistic concurrency conflict",
					"partition", table,
					"aggregate_id", aggregateID,
					"revision", commit.Revision)
			}
			return store.ConcurrencyError("append", table, err)
		}
		if s.config.Logger != nil {
			s.config.Logger.Error(ctx, "append failed", "partition", table, "error", err)
		}
		return store.StorageError("append", table, fmt.Errorf("insert commit: %w", err))
	}

	if s.config.Logger != nil {
		s.config.Logger.Debug(ctx, "commit appended",
			"partition", table,
			"aggregate_id", aggregateID,
			"revision", commit.Revision)
	}
	return nil
}

// Load implements store.EventStore.
func (s *Store) Load(ctx context.Context, id es.AggregateID) (stream es.EventStream, err error) {
	ctx, span := s.config.Tracer.Start(ctx, "mysql.Load", trace.WithAttributes(
		attribute.String("pupcommits.bounded_context", id.BoundedContext)))
	defer func() { finishSpan(span, err) }()

	table, err := s.registry.Resolve(id.BoundedContext, id.Raw)
	if err != nil {
		return es.EventStream{}, store.StorageError("load", "", err)
	}
	span.SetAttributes(attribute.String("pupcommits.partition", table))

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, migrations.MySQL.LoadSQL(table), id.String())
	if err != nil {
		return es.EventStream{}, store.StorageError("load", table, fmt.Errorf("query commits: %w", err))
	}
	defer rows.Close()

	stream = es.EventStream{AggregateID: id}
	for rows.Next() {
		var (
			revision int
			data     []byte
		)
		if err := rows.Scan(&revision, &data); err != nil {
			return es.EventStream{}, store.StorageError("load", table, fmt.Errorf("scan commit: %w", err))
		}
		commit, err := s.config.Serializer.Deserialize(data)
		if err != nil {
			if s.config.Logger != nil {
				s.config.Logger.Error(ctx, "corrupted commit",
					"partition", table,
					"aggregate_id", id.String(),
					"error", err)
			}
			return es.EventStream{}, store.StorageError("load", table,
				fmt.Errorf("deserialize commit %d: %w", len(stream.Commits), err))
		}
		if err := commit.BelongsTo(id, revision); err != nil {
			if s.config.Logger != nil {
				s.config.Logger.Error(ctx, "foreign commit in stream",
					"partition", table,
					"aggregate_id", id.String(),
					"revision", revision,
					"error", err)
			}
			return es.EventStream{}, store.StorageError("load", table, err)
		}
		stream.Commits = append(stream.Commits, commit)
	}
	if err := rows.Err(); err != nil {
		return es.EventStream{}, store.StorageError("load", table, fmt.Errorf("rows error: %w", err))
	}

	if s.config.Logger != nil {
		s.config.Logger.Debug(ctx, "stream loaded",
			"partition", table,
			"aggregate_id", id.String(),
			"commits", len(stream.Commits))
	}
	return stream, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.OperationTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.config.OperationTimeout)
}

func finishSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// IsUniqueViolation checks if an error is a MySQL duplicate key error.
// This is exported for testing purposes.
func IsUniqueViolation(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == errDuplicateEntry
	}
	return false
}
