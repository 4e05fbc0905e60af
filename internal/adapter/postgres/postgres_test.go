package postgres_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/TenantForge/internal/adapter/postgres"
)

func TestMigratorListsEmbeddedSources(t *testing.T) {
	// pgxpool connects lazily, so no server is needed to build the provider.
	pool, err := pgxpool.New(context.Background(), "postgres://tf:tf@127.0.0.1:1/tf?sslmode=disable")
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	m, err := postgres.NewMigrator(pool)
	if err != nil {
		t.Fatalf("migrator: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	if diff := cmp.Diff([]int64{1}, m.Sources()); diff != "" {
		t.Fatalf("sources mismatch (-want +got):\n%s", diff)
	}
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("requires DATABASE_URL")
	}
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	// Two migrators on one pool share nothing but the database.
	for i := range 2 {
		m, err := postgres.NewMigrator(pool)
		if err != nil {
			t.Fatalf("migrator %d: %v", i, err)
		}
		if _, err := m.Up(ctx); err != nil {
			t.Fatalf("up %d: %v", i, err)
		}
		v, err := m.Version(ctx)
		if err != nil {
			t.Fatalf("version %d: %v", i, err)
		}
		if v != 1 {
			t.Fatalf("version %d = %d, want 1", i, v)
		}
		if err := m.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}

	// The pool stays usable after the migrators close their handles.
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("pool closed by migrator: %v", err)
	}
}
