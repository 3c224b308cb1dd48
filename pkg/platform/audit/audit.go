// Package audit records identity lifecycle actions. The MCI assigns durable
// identifiers and erases PII on request; both demand an append-only trail of
// who was created, matched, or scrubbed, and when.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action names an audited lifecycle event.
type Action string

const (
	// ActionIndividualCreated records a resolution that created a new
	// individual.
	ActionIndividualCreated Action = "individual_created"

	// ActionIndividualMatched records a resolution that returned an
	// existing individual instead of creating one.
	ActionIndividualMatched Action = "individual_matched"

	// ActionPIIRemoved records the one-way erasure of an individual's PII.
	ActionPIIRemoved Action = "pii_removed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Action Action
	// MciID is the individual the action applied to.
	MciID string
	// Score carries the match probability for matched resolutions.
	Score float64
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	Timestamp time.Time
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByMciID(ctx context.Context, mciID string) ([]Event, error)
}

// Publisher decouples event emission from persistence so resolution latency
// never waits on the audit trail.
type Publisher interface {
	Publish(event Event)
}

// ChannelPublisher feeds a buffered channel drained by a Worker. Publishing
// never blocks; when the buffer is full the event is dropped and logged,
// which is preferable to stalling identity resolution.
type ChannelPublisher struct {
	inbox  chan Event
	logger *slog.Logger
}

// NewChannelPublisher creates a publisher with the given buffer size.
func NewChannelPublisher(buffer int, logger *slog.Logger) *ChannelPublisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &ChannelPublisher{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Publish enqueues the event for the worker.
func (p *ChannelPublisher) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", string(event.Action),
			"mci_id", event.MciID,
		)
	}
}

// Inbox exposes the channel for the draining worker.
func (p *ChannelPublisher) Inbox() <-chan Event {
	return p.inbox
}
