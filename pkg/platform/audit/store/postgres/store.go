package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "github.com/brighthive/master-client-index/pkg/platform/audit"
	txcontext "github.com/brighthive/master-client-index/pkg/platform/tx"
)

// Store persists audit events in the audit_event table. Appends join an
// enclosing transaction when one is bound to the context, so lifecycle
// events commit atomically with the write they describe.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL-backed audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Append writes one audit event.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	query := `
		INSERT INTO audit_event (id, action, mci_id, score, request_id, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := q.ExecContext(ctx, query,
		uuid.NewString(),
		string(event.Action),
		event.MciID,
		event.Score,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// ListByMciID returns the trail for one individual, oldest first.
func (s *Store) ListByMciID(ctx context.Context, mciID string) ([]audit.Event, error) {
	q := txcontext.QuerierFrom(ctx, s.db)
	rows, err := q.QueryContext(ctx, `
		SELECT action, mci_id, score, request_id, occurred_at
		FROM audit_event
		WHERE mci_id = $1
		ORDER BY occurred_at ASC
	`, mciID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var ev audit.Event
		var action string
		if err := rows.Scan(&action, &ev.MciID, &ev.Score, &ev.RequestID, &ev.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		ev.Action = audit.Action(action)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
