//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/brighthive/master-client-index/internal/platform/postgres"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// index schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("mci_dev"),
		tcpostgres.WithUsername("brighthive"),
		tcpostgres.WithPassword("brighthive"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if err := postgres.ApplySchema(ctx, db); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateData wipes the individual aggregate and audit tables between
// tests. Reference vocabularies survive so seeds only happen once.
func (p *PostgresContainer) TruncateData(ctx context.Context) error {
	tables := []string{
		"individual_ethnicity_race",
		"individual_disposition",
		"audit_event",
		"individual",
		"address",
	}
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedReference inserts one vocabulary label and returns its id. Reuses the
// existing row when the label is already present.
func (p *PostgresContainer) SeedReference(ctx context.Context, table, column, label string) (int64, error) {
	var id int64
	query := fmt.Sprintf("SELECT id FROM %s WHERE LOWER(%s) = LOWER($1)", table, column)
	err := p.DB.QueryRowContext(ctx, query, label).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("lookup %s seed: %w", table, err)
	}
	query = fmt.Sprintf("INSERT INTO %s (%s) VALUES ($1) RETURNING id", table, column)
	if err := p.DB.QueryRowContext(ctx, query, label).Scan(&id); err != nil {
		return 0, fmt.Errorf("seed %s: %w", table, err)
	}
	return id, nil
}
