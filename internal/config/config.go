// Package config loads process configuration for the command line tools.
//
// Values come from an optional YAML file and are then overridden by
// PUPCOMMITS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/getpup/pupcommits/es/migrations"
	"github.com/getpup/pupcommits/es/partition"
	"github.com/getpup/pupcommits/es/provision"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

// MaxChunkLength bounds chunk_length. Every partition name is built in memory
// during provisioning, and 64^3 is already 262144 tables per bounded context.
const MaxChunkLength = 3

// Config is the process configuration.
type Config struct {
	// Driver is the database/sql driver: postgres, pgx, mysql or sqlite
	Driver string `yaml:"driver" env:"PUPCOMMITS_DRIVER"`

	// DSN connects to the commit database (a file path for sqlite)
	DSN string `yaml:"dsn" env:"PUPCOMMITS_DSN"`

	// AdminDSN connects to the server without the commit database. Postgres only.
	AdminDSN string `yaml:"admin_dsn" env:"PUPCOMMITS_ADMIN_DSN"`

	// Database names the storage root. MySQL derives it from DSN when empty.
	Database string `yaml:"database" env:"PUPCOMMITS_DATABASE"`

	BoundedContexts []string `yaml:"bounded_contexts" env:"PUPCOMMITS_BOUNDED_CONTEXTS" envSeparator:","`
	ChunkLength     int      `yaml:"chunk_length" env:"PUPCOMMITS_CHUNK_LENGTH"`

	OperationTimeout time.Duration `yaml:"operation_timeout" env:"PUPCOMMITS_OPERATION_TIMEOUT"`

	Provision Provision `yaml:"provision"`
	Log       Log       `yaml:"log"`
}

// Provision configures the storage provisioner.
type Provision struct {
	RetryAttempts uint          `yaml:"retry_attempts" env:"PUPCOMMITS_PROVISION_RETRY_ATTEMPTS"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"PUPCOMMITS_PROVISION_RETRY_INTERVAL"`
	RetryDeadline time.Duration `yaml:"retry_deadline" env:"PUPCOMMITS_PROVISION_RETRY_DEADLINE"`
	Concurrency   int           `yaml:"concurrency" env:"PUPCOMMITS_PROVISION_CONCURRENCY"`
	DDLRate       float64       `yaml:"ddl_rate" env:"PUPCOMMITS_PROVISION_DDL_RATE"`
}

// Log configures the zap logger.
type Log struct {
	Mode  string `yaml:"mode" env:"PUPCOMMITS_LOG_MODE"`
	Level string `yaml:"level" env:"PUPCOMMITS_LOG_LEVEL"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	p := provision.DefaultConfig()
	return Config{
		Driver:      DriverSQLite,
		DSN:         "pupcommits.db",
		ChunkLength: partition.DefaultChunkLength,
		Provision: Provision{
			RetryAttempts: p.RetryAttempts,
			RetryInterval: p.RetryInterval,
			RetryDeadline: p.RetryDeadline,
			Concurrency:   p.Concurrency,
		},
		Log: Log{Mode: "production", Level: "info"},
	}
}

// Load reads path (skipped when empty), applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverPgx:
		if c.AdminDSN == "" || c.Database == "" {
			return errors.New("postgres requires admin_dsn and database")
		}
	case DriverMySQL, DriverSQLite:
	default:
		return fmt.Errorf("unsupported driver %q", c.Driver)
	}
	if c.DSN == "" {
		return errors.New("dsn is required")
	}
	if len(c.BoundedContexts) == 0 {
		return errors.New("at least one bounded context is required")
	}
	if c.ChunkLength < 1 || c.ChunkLength > MaxChunkLength {
		return fmt.Errorf("chunk_length must be between 1 and %d, got %d", MaxChunkLength, c.ChunkLength)
	}
	if err := c.Registry().CheckNameLength(c.Dialect().MaxIdentifierLength()); err != nil {
		return fmt.Errorf("bounded_contexts: %w", err)
	}
	return nil
}

// Dialect returns the SQL dialect of the configured driver.
func (c Config) Dialect() migrations.Dialect {
	switch c.Driver {
	case DriverPostgres, DriverPgx:
		return migrations.Postgres
	case DriverMySQL:
		return migrations.MySQL
	default:
		return migrations.SQLite
	}
}

// Registry builds the partition registry of the configured bounded contexts.
func (c Config) Registry() *partition.Registry {
	r := partition.NewRegistry()
	for _, bc := range c.BoundedContexts {
		r.Register(bc, partition.TablePerAggregateIDGroup{ChunkLength: c.ChunkLength})
	}
	return r
}

// ProvisionConfig converts the provisioning settings.
func (c Config) ProvisionConfig(opts ...provision.Option) provision.Config {
	base := []provision.Option{
		provision.WithRetry(c.Provision.RetryAttempts, c.Provision.RetryInterval, c.Provision.RetryDeadline),
		provision.WithConcurrency(c.Provision.Concurrency),
		provision.WithDDLRate(c.Provision.DDLRate),
	}
	return provision.NewConfig(append(base, opts...)...)
}
