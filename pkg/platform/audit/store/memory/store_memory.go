package memory

import (
	"context"
	"sync"

	audit "github.com/brighthive/master-client-index/pkg/platform/audit"
)

// InMemoryStore keeps audit events per individual for tests and local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[string][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[string][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.MciID] = append(s.events[event.MciID], event)
	return nil
}

func (s *InMemoryStore) ListByMciID(_ context.Context, mciID string) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[mciID]...), nil
}

// Clear resets the store between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]audit.Event)
}
