package audit_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	audit "github.com/brighthive/master-client-index/pkg/platform/audit"
	"github.com/brighthive/master-client-index/pkg/platform/audit/store/memory"
	"github.com/brighthive/master-client-index/pkg/platform/audit/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestPublishNeverBlocks(t *testing.T) {
	pub := audit.NewChannelPublisher(1, discardLogger())

	// Second publish overflows the buffer; it must drop, not block.
	done := make(chan struct{})
	go func() {
		pub.Publish(audit.Event{Action: audit.ActionIndividualCreated, MciID: "a"})
		pub.Publish(audit.Event{Action: audit.ActionIndividualCreated, MciID: "b"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full buffer")
	}
}

func TestPublishStampsTimestamp(t *testing.T) {
	pub := audit.NewChannelPublisher(4, discardLogger())
	pub.Publish(audit.Event{Action: audit.ActionPIIRemoved, MciID: "abc"})

	ev := <-pub.Inbox()
	require.False(t, ev.Timestamp.IsZero())
}

func TestWorkerDrainsToStore(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := audit.NewChannelPublisher(16, discardLogger())
	w := worker.New(store, pub.Inbox(), discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()

	pub.Publish(audit.Event{Action: audit.ActionIndividualCreated, MciID: "abc123"})
	pub.Publish(audit.Event{Action: audit.ActionIndividualMatched, MciID: "abc123", Score: 0.97})

	require.Eventually(t, func() bool {
		events, err := store.ListByMciID(context.Background(), "abc123")
		return err == nil && len(events) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByMciID(context.Background(), "abc123")
	require.NoError(t, err)
	require.Equal(t, audit.ActionIndividualCreated, events[0].Action)
	require.Equal(t, audit.ActionIndividualMatched, events[1].Action)
	require.Equal(t, 0.97, events[1].Score)
}
