package worker

import (
	"context"
	"log/slog"

	audit "github.com/brighthive/master-client-index/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. A store
// failure is logged and the worker keeps draining; the audit trail must not
// take the server down with it.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("failed to persist audit event",
					"action", string(event.Action),
					"mci_id", event.MciID,
					"error", err.Error(),
				)
			}
		}
	}
}
