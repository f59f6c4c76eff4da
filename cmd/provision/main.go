// Command provision creates the storage root and every commit partition.
//
// Usage:
//
//	go run github.com/getpup/pupcommits/cmd/provision -config pupcommits.yaml
//
// Every setting can be overridden with PUPCOMMITS_* environment variables:
//
//	PUPCOMMITS_DRIVER=sqlite PUPCOMMITS_DSN=commits.db PUPCOMMITS_BOUNDED_CONTEXTS=Collaboration \
//	    go run github.com/getpup/pupcommits/cmd/provision
//
// Pass -teardown to drop every partition instead. It is meant for test environments.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver

	"github.com/getpup/pupcommits/es/adapters/mysql"
	"github.com/getpup/pupcommits/es/adapters/postgres"
	"github.com/getpup/pupcommits/es/adapters/sqlite"
	"github.com/getpup/pupcommits/es/logging"
	"github.com/getpup/pupcommits/es/provision"
	"github.com/getpup/pupcommits/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to a YAML configuration file")
		teardown   = flag.Bool("teardown", false, "Drop every partition instead of creating them")
	)
	flag.Parse()

	if err := run(*configPath, *teardown); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, teardown bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewZap(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, closeAll, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	p := provision.New(storage, cfg.Registry(), cfg.ProvisionConfig(provision.WithLogger(logger)))
	if teardown {
		return p.Teardown(ctx)
	}
	return p.EnsureStorage(ctx)
}

// openStorage opens the connections the configured driver needs.
// Pools connect lazily, so a database created by provisioning is usable afterwards.
func openStorage(ctx context.Context, cfg config.Config) (provision.Storage, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres, config.DriverPgx:
		admin, err := sql.Open(cfg.Driver, cfg.AdminDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open admin connection: %w", err)
		}
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			_ = admin.Close()
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return postgres.NewStorage(admin, db, cfg.Database), closer(admin, db), nil

	case config.DriverMySQL:
		adminDSN, database, err := mysql.AdminDSN(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Database != "" {
			database = cfg.Database
		}
		admin, err := sql.Open("mysql", adminDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open admin connection: %w", err)
		}
		db, err := sql.Open("mysql", cfg.DSN)
		if err != nil {
			_ = admin.Close()
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		return mysql.NewStorage(admin, db, database), closer(admin, db), nil

	default:
		db, err := sqlite.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return sqlite.NewStorage(db), closer(db), nil
	}
}

func closer(dbs ...*sql.DB) func() {
	return func() {
		for _, db := range dbs {
			_ = db.Close()
		}
	}
}
