//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tenancy/migrations"
)

// tenancyTables lists every table the migrations create, children first.
var tenancyTables = []string{"outbox", "tenant_members", "tenants"}

// Postgres is a migrated tenancy database.
type Postgres struct {
	DSN string
	DB  *sql.DB
}

func startPostgres(t *testing.T) *Postgres {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, "postgres:18-alpine",
		postgres.WithDatabase("tenancy_test"),
		postgres.WithUsername("tenancy"),
		postgres.WithPassword("tenancy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	pg, err := openMigrated(ctx, ctr)
	if err != nil {
		_ = ctr.Terminate(context.Background())
		t.Fatalf("prepare postgres: %v", err)
	}
	return pg
}

func openMigrated(ctx context.Context, ctr *postgres.PostgresContainer) (*Postgres, error) {
	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("connection string: %w", err)
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	if err := migrateUp(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Postgres{DSN: dsn, DB: db}, nil
}

// migrateUp applies the embedded *.up.sql files in lexical order.
func migrateUp(ctx context.Context, db *sql.DB) error {
	files, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	slices.Sort(files)
	for _, name := range files {
		script, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(script)); err != nil {
			return fmt.Errorf("apply %s: %w", path.Base(name), err)
		}
	}
	return nil
}

// Reset empties every tenancy table so a test starts from a clean database.
func (p *Postgres) Reset(ctx context.Context) error {
	stmt := "TRUNCATE TABLE "
	for i, table := range tenancyTables {
		if i > 0 {
			stmt += ", "
		}
		stmt += table
	}
	if _, err := p.DB.ExecContext(ctx, stmt+" CASCADE"); err != nil {
		return fmt.Errorf("reset tenancy tables: %w", err)
	}
	return nil
}
