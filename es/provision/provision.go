// Package provision creates the storage root and every partition before traffic is served.
//
// Provisioning is idempotent: every step checks before it creates, and a second
// run against fully provisioned storage only performs existence checks.
// Callers in the same process are serialized by a named lock; callers in other
// processes are tolerated through IF NOT EXISTS DDL and existence re-checks.
package provision

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/getpup/pupcommits/es"
	"github.com/getpup/pupcommits/es/partition"
	"github.com/getpup/pupcommits/es/store"
)

// Storage is the engine-specific half of provisioning. Adapters implement it.
type Storage interface {
	// RootExists reports whether the database (storage root) exists.
	RootExists(ctx context.Context) (bool, error)

	// CreateRoot creates the storage root. Creation may complete asynchronously.
	CreateRoot(ctx context.Context) error

	// PartitionExists reports whether the partition table exists.
	PartitionExists(ctx context.Context, name string) (bool, error)

	// CreatePartition creates the partition table if it does not exist.
	CreatePartition(ctx context.Context, name string) error

	// DropPartition drops the partition table. Maintenance only.
	DropPartition(ctx context.Context, name string) error
}

// NameLimiter is implemented by storages whose engine bounds table name length.
// EnsureStorage rejects registries with longer partition names before any DDL runs.
type NameLimiter interface {
	MaxPartitionNameLength() int
}

type partitionError struct {
	name string
	err  error
}

func (e partitionError) Error() string { return e.name + ": " + e.err.Error() }

// errNotVisible is returned by existence polls that have not observed the object yet.
var errNotVisible = errors.New("not visible yet")

// Config configures a Provisioner.
type Config struct {
	// Logger is an optional logger for observability.
	// If nil, logging is disabled (zero overhead).
	Logger es.Logger

	// LockName names the in-process lock. Provisioners sharing a name never run concurrently.
	LockName string

	// RetryAttempts bounds the existence polls after a create
	RetryAttempts uint

	// RetryInterval is the pause between existence polls
	RetryInterval time.Duration

	// RetryDeadline bounds the wall-clock time spent polling for one object (0 disables it)
	RetryDeadline time.Duration

	// Concurrency is the number of partitions checked in parallel
	Concurrency int

	// DDLRate limits existence checks and DDL statements per second (0 means unlimited)
	DDLRate float64
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		LockName:      "pupcommits/provision",
		RetryAttempts: 100,
		RetryInterval: 50 * time.Millisecond,
		RetryDeadline: 30 * time.Second,
		Concurrency:   8,
	}
}

// Option is a functional option for configuring a Provisioner.
type Option func(*Config)

// WithLogger sets a logger for the provisioner.
func WithLogger(logger es.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithRetry sets the existence poll budget.
func WithRetry(attempts uint, interval, deadline time.Duration) Option {
	return func(c *Config) {
		c.RetryAttempts = attempts
		c.RetryInterval = interval
		c.RetryDeadline = deadline
	}
}

// WithConcurrency sets the number of partitions checked in parallel.
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.Concurrency = n
	}
}

// WithDDLRate limits storage calls per second.
func WithDDLRate(perSecond float64) Option {
	return func(c *Config) {
		c.DDLRate = perSecond
	}
}

// WithLockName sets the in-process lock name.
func WithLockName(name string) Option {
	return func(c *Config) {
		c.LockName = name
	}
}

// NewConfig creates a configuration from the defaults and the given options.
func NewConfig(opts ...Option) Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

var locks sync.Map // lock name -> *sync.Mutex

func namedLock(name string) *sync.Mutex {
	mu, _ := locks.LoadOrStore(name, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Provisioner ensures the storage root and all partitions exist.
type Provisioner struct {
	storage  Storage
	registry *partition.Registry
	config   Config
	limiter  *rate.Limiter
}

// New creates a Provisioner for the partitions of every bounded context in the registry.
func New(storage Storage, registry *partition.Registry, config Config) *Provisioner {
	if config.LockName == "" {
		config.LockName = DefaultConfig().LockName
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 1
	}

	limit := rate.Inf
	if config.DDLRate > 0 {
		limit = rate.Limit(config.DDLRate)
	}

	return &Provisioner{
		storage:  storage,
		registry: registry,
		config:   config,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// EnsureStorage creates whatever is missing. It is all-or-nothing for the caller:
// any failure is returned as a store.KindProvisioning error, although partitions
// created before the failure remain and a later run picks up where this one stopped.
func (p *Provisioner) EnsureStorage(ctx context.Context) error {
	mu := namedLock(p.config.LockName)
	mu.Lock()
	defer mu.Unlock()

	started := time.Now()
	partitions := p.registry.Partitions()

	if p.config.Logger != nil {
		p.config.Logger.Info(ctx, "provisioning started",
			"bounded_contexts", p.registry.BoundedContexts(),
			"partitions", len(partitions))
	}

	if limiter, ok := p.storage.(NameLimiter); ok {
		if err := p.registry.CheckNameLength(limiter.MaxPartitionNameLength()); err != nil {
			return p.fail(ctx, "", err)
		}
	}

	if err := p.ensureRoot(ctx); err != nil {
		return p.fail(ctx, "", err)
	}

	var created atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for _, name := range partitions {
		g.Go(func() error {
			made, err := p.ensurePartition(gctx, name)
			if err != nil {
				return partitionError{name: name, err: err}
			}
			if made {
				created.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var pe partitionError
		if errors.As(err, &pe) {
			return p.fail(ctx, pe.name, pe.err)
		}
		return p.fail(ctx, "", err)
	}

	if p.config.Logger != nil {
		p.config.Logger.Info(ctx, "provisioning completed",
			"partitions", len(partitions),
			"created", created.Load(),
			"duration", time.Since(started).String())
	}
	return nil
}

// Teardown drops every partition of every registered bounded context.
// It is a maintenance and test entry point and is never called at runtime.
func (p *Provisioner) Teardown(ctx context.Context) error {
	mu := namedLock(p.config.LockName)
	mu.Lock()
	defer mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.config.Concurrency)
	for _, name := range p.registry.Partitions() {
		g.Go(func() error {
			if err := p.limiter.Wait(gctx); err != nil {
				return err
			}
			if err := p.storage.DropPartition(gctx, name); err != nil {
				return fmt.Errorf("drop partition %s: %w", name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return store.ProvisioningError("teardown", "", err)
	}

	if p.config.Logger != nil {
		p.config.Logger.Info(ctx, "partitions dropped", "bounded_contexts", p.registry.BoundedContexts())
	}
	return nil
}

func (p *Provisioner) ensureRoot(ctx context.Context) error {
	exists, err := p.storage.RootExists(ctx)
	if err != nil {
		return fmt.Errorf("check storage root: %w", err)
	}
	if exists {
		return nil
	}

	if p.config.Logger != nil {
		p.config.Logger.Info(ctx, "creating storage root")
	}
	if err := p.storage.CreateRoot(ctx); err != nil {
		return fmt.Errorf("create storage root: %w", err)
	}
	if err := p.waitFor(ctx, p.storage.RootExists); err != nil {
		return fmt.Errorf("storage root not visible after create: %w", err)
	}
	return nil
}

// ensurePartition reports whether it had to create the partition.
func (p *Provisioner) ensurePartition(ctx context.Context, name string) (bool, error) {
	exists := func(ctx context.Context) (bool, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return false, err
		}
		return p.storage.PartitionExists(ctx, name)
	}

	ok, err := exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check partition: %w", err)
	}
	if ok {
		return false, nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return false, err
	}
	if err := p.storage.CreatePartition(ctx, name); err != nil {
		return false, fmt.Errorf("create partition: %w", err)
	}
	if err := p.waitFor(ctx, exists); err != nil {
		return false, fmt.Errorf("partition not visible after create: %w", err)
	}

	if p.config.Logger != nil {
		p.config.Logger.Debug(ctx, "partition created", "partition", name)
	}
	return true, nil
}

// waitFor polls check until it reports true, the attempt budget is spent or the deadline passes.
// Errors from check end the wait immediately.
func (p *Provisioner) waitFor(ctx context.Context, check func(context.Context) (bool, error)) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		ok, err := check(ctx)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		if !ok {
			return struct{}{}, errNotVisible
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(p.config.RetryInterval)),
		backoff.WithMaxTries(p.config.RetryAttempts),
		backoff.WithMaxElapsedTime(p.config.RetryDeadline),
	)
	return err
}

func (p *Provisioner) fail(ctx context.Context, partitionName string, err error) error {
	if p.config.Logger != nil {
		p.config.Logger.Error(ctx, "provisioning failed",
			"partition", partitionName,
			"error", err)
	}
	return store.ProvisioningError("ensure storage", partitionName, err)
}
