package reference

import (
	"context"
	"database/sql"
	"fmt"

	txcontext "github.com/brighthive/master-client-index/pkg/platform/tx"
)

// PostgresStore reads the reference tables. Read-only: vocabulary rows are
// managed by the lookup CRUD surface, not by resolution.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed reference store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LookupLabel(ctx context.Context, category Category, label string) (int64, error) {
	meta, ok := categories[category]
	if !ok {
		return 0, fmt.Errorf("unknown reference category %q", category)
	}
	q := txcontext.QuerierFrom(ctx, s.db)

	// Table and column names come from the static category map, never from
	// input.
	query := fmt.Sprintf(`SELECT id FROM %s WHERE LOWER(%s) = LOWER($1)`, meta.table, meta.labelColumn)

	var id int64
	err := q.QueryRowContext(ctx, query, label).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("lookup %s label: %w", category, err)
	}
	return id, nil
}

func (s *PostgresStore) LabelByID(ctx context.Context, category Category, id int64) (string, error) {
	meta, ok := categories[category]
	if !ok {
		return "", fmt.Errorf("unknown reference category %q", category)
	}
	q := txcontext.QuerierFrom(ctx, s.db)

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, meta.labelColumn, meta.table)

	var label string
	err := q.QueryRowContext(ctx, query, id).Scan(&label)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("lookup %s id: %w", category, err)
	}
	return label, nil
}
