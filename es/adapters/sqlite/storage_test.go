package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/getpup/pupcommits/es/adapters/sqlite"
	"github.com/getpup/pupcommits/es/provision"
)

func countTables(t *testing.T, s *sqlite.Storage, names []string) int {
	t.Helper()
	n := 0
	for _, name := range names {
		ok, err := s.PartitionExists(context.Background(), name)
		if err != nil {
			t.Fatalf("PartitionExists failed: %v", err)
		}
		if ok {
			n++
		}
	}
	return n
}

func TestStorage_ProvisioningIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "commits.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	registry := testRegistry()
	storage := sqlite.NewStorage(db)
	p := provision.New(storage, registry, provision.NewConfig(provision.WithLockName(t.Name())))

	for run := 0; run < 2; run++ {
		if err := p.EnsureStorage(ctx); err != nil {
			t.Fatalf("EnsureStorage run %d failed: %v", run, err)
		}
	}

	names := registry.Partitions()
	if got := countTables(t, storage, names); got != len(names) {
		t.Errorf("Expected all %d partitions visible, got %d", len(names), got)
	}

	// Upper and lower case letters collide, digits and '+' '/' do not: 26 + 10 + 2 per context
	var physical int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&physical); err != nil {
		t.Fatalf("Failed to count tables: %v", err)
	}
	if physical != 2*38 {
		t.Errorf("Expected %d physical tables, got %d", 2*38, physical)
	}
}

func TestStorage_Teardown(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "commits.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	registry := testRegistry()
	storage := sqlite.NewStorage(db)
	p := provision.New(storage, registry, provision.NewConfig(provision.WithLockName(t.Name())))

	if err := p.EnsureStorage(ctx); err != nil {
		t.Fatalf("EnsureStorage failed: %v", err)
	}
	if err := p.Teardown(ctx); err != nil {
		t.Fatalf("Teardown failed: %v", err)
	}
	if got := countTables(t, storage, registry.Partitions()); got != 0 {
		t.Errorf("Expected no partitions after teardown, got %d", got)
	}
}

func TestStorage_RootAlwaysExists(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "commits.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	storage := sqlite.NewStorage(db)
	if err := storage.CreateRoot(ctx); err != nil {
		t.Fatalf("CreateRoot failed: %v", err)
	}
	ok, err := storage.RootExists(ctx)
	if err != nil || !ok {
		t.Errorf("Expected root to exist, got %v, %v", ok, err)
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	if _, err := sqlite.Open(context.Background(), ""); err == nil {
		t.Error("Expected error for empty path")
	}
}
