package store

import (
	"context"
	"sync"

	"idlookup/internal/holidays"
	"idlookup/internal/identity/models"
	"idlookup/pkg/domain"
	"idlookup/pkg/platform/sentinel"
	"idlookup/pkg/requestcontext"
)

// InMemoryStore keeps identities in a map. A single lock covers the counter
// and the holiday collection, so upserts for the same number serialize.
type InMemoryStore struct {
	mu         sync.RWMutex
	identities map[domain.IDNumber]*models.Identity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		identities: make(map[domain.IDNumber]*models.Identity),
	}
}

func (s *InMemoryStore) Find(_ context.Context, idNumber domain.IDNumber) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.identities[idNumber]; ok {
		return identity.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Upsert(ctx context.Context, idNumber domain.IDNumber, fields models.Fields, hs []holidays.Holiday) (*models.Identity, bool, error) {
	now := requestcontext.Now(ctx)
	replacement := append(make([]holidays.Holiday, 0, len(hs)), hs...)

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.identities[idNumber]
	if !ok {
		identity := &models.Identity{
			IDNumber:    idNumber,
			Fields:      fields,
			SearchCount: 1,
			Holidays:    replacement,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.identities[idNumber] = identity
		return identity.Clone(), true, nil
	}

	existing.SearchCount++
	existing.Holidays = replacement
	existing.UpdatedAt = now
	return existing.Clone(), false, nil
}

var _ Store = (*InMemoryStore)(nil)
