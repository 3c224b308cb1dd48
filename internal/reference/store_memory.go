package reference

import (
	"context"
	"strings"
	"sync"
)

// InMemoryStore keeps the reference vocabularies in maps for tests and
// local runs.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	// byLabel maps category -> lowercased label -> id.
	byLabel map[Category]map[string]int64
	// byID maps category -> id -> canonical label.
	byID map[Category]map[int64]string
}

// NewInMemoryStore creates an empty store; seed it with Add.
func NewInMemoryStore() *InMemoryStore {
	s := &InMemoryStore{
		nextID:  1,
		byLabel: make(map[Category]map[string]int64),
		byID:    make(map[Category]map[int64]string),
	}
	for cat := range categories {
		s.byLabel[cat] = make(map[string]int64)
		s.byID[cat] = make(map[int64]string)
	}
	return s
}

// Add seeds one vocabulary entry and returns its id.
func (s *InMemoryStore) Add(category Category, label string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.byLabel[category][strings.ToLower(label)] = id
	s.byID[category][id] = label
	return id
}

func (s *InMemoryStore) LookupLabel(_ context.Context, category Category, label string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byLabel[category][strings.ToLower(label)]
	if !ok {
		return 0, ErrNotFound
	}
	return id, nil
}

func (s *InMemoryStore) LabelByID(_ context.Context, category Category, id int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	label, ok := s.byID[category][id]
	if !ok {
		return "", ErrNotFound
	}
	return label, nil
}
