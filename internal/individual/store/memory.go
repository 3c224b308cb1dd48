package store

import (
	"context"
	"sort"
	"sync"

	"github.com/brighthive/master-client-index/internal/individual/models"
)

// InMemoryStore is the test double for the PostgreSQL store. It mirrors the
// production semantics, address reuse by natural key included, behind one
// mutex.
type InMemoryStore struct {
	mu          sync.Mutex
	individuals map[string]*models.Individual
	addresses   []models.Address
	nextAddrID  int64
}

// NewInMemory constructs an empty in-memory individual store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		individuals: make(map[string]*models.Individual),
		nextAddrID:  1,
	}
}

// Create stores a copy of ind, reusing an existing address when addr matches
// one on every field.
func (s *InMemoryStore) Create(ctx context.Context, ind *models.Individual, addr *models.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if addr != nil {
		id := s.findOrCreateAddressLocked(addr)
		ind.MailingAddressID = &id
	}

	stored := *ind
	s.individuals[ind.MciID] = &stored
	return nil
}

func (s *InMemoryStore) findOrCreateAddressLocked(addr *models.Address) int64 {
	for _, existing := range s.addresses {
		if existing.SameLocation(*addr) {
			addr.ID = existing.ID
			return existing.ID
		}
	}
	addr.ID = s.nextAddrID
	s.nextAddrID++
	s.addresses = append(s.addresses, *addr)
	return addr.ID
}

// FindByID returns a copy of the stored individual and its mailing address.
func (s *InMemoryStore) FindByID(ctx context.Context, mciID string) (*models.Individual, *models.Address, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ind, ok := s.individuals[mciID]
	if !ok {
		return nil, nil, ErrNotFound
	}
	found := *ind

	var addr *models.Address
	if found.MailingAddressID != nil {
		for _, existing := range s.addresses {
			if existing.ID == *found.MailingAddressID {
				a := existing
				addr = &a
				break
			}
		}
	}
	return &found, addr, nil
}

// List returns summaries ordered by registration date then mci_id, plus the
// total count.
func (s *InMemoryStore) List(ctx context.Context, offset, limit int) ([]models.Summary, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]*models.Individual, 0, len(s.individuals))
	for _, ind := range s.individuals {
		all = append(all, ind)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].RegistrationDate.Equal(all[j].RegistrationDate) {
			return all[i].RegistrationDate.Before(all[j].RegistrationDate)
		}
		return all[i].MciID < all[j].MciID
	})

	total := len(all)
	if offset >= total {
		return []models.Summary{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	summaries := make([]models.Summary, 0, end-offset)
	for _, ind := range all[offset:end] {
		summaries = append(summaries, models.Summary{
			MciID:     ind.MciID,
			VendorID:  ind.VendorID,
			FirstName: ind.FirstName,
			LastName:  ind.LastName,
		})
	}
	return summaries, total, nil
}

// RemovePII nulls the PII fields of the stored individual.
func (s *InMemoryStore) RemovePII(ctx context.Context, mciID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ind, ok := s.individuals[mciID]
	if !ok {
		return ErrNotFound
	}
	ind.SSN = nil
	ind.FirstName = nil
	ind.MiddleName = nil
	ind.LastName = nil
	ind.Suffix = nil
	ind.EmailAddress = nil
	ind.Telephone = nil
	ind.DateOfBirth = nil
	ind.MailingAddressID = nil
	return nil
}

// AddressCount reports how many distinct addresses have been stored.
func (s *InMemoryStore) AddressCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.addresses)
}

// Count reports the stored population size.
func (s *InMemoryStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.individuals)
}
