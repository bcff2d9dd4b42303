package identity

import (
	"context"
	"sync"

	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

type claimKey struct {
	subject id.Identity
	issuer  id.Identity
	topic   uint32
}

// InMemoryStore keeps identity records and claims in maps.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[id.Identity]*Record
	claims  map[claimKey]*Claim
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[id.Identity]*Record),
		claims:  make(map[claimKey]*Claim),
	}
}

func (s *InMemoryStore) GetRecord(_ context.Context, identity id.Identity) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[identity]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	cp.Tags = append([]string(nil), record.Tags...)
	return &cp, nil
}

func (s *InMemoryStore) PutRecord(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *record
	cp.Tags = append([]string(nil), record.Tags...)
	s.records[record.Identity] = &cp
	return nil
}

func (s *InMemoryStore) GetClaims(_ context.Context, subject id.Identity, topic uint32) ([]Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Claim, 0)
	for key, claim := range s.claims {
		if key.subject == subject && key.topic == topic {
			out = append(out, *claim)
		}
	}
	return out, nil
}

func (s *InMemoryStore) PutClaim(_ context.Context, claim *Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *claim
	s.claims[claimKey{claim.Subject, claim.Issuer, claim.Topic}] = &cp
	return nil
}
