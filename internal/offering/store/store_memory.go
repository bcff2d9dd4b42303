package store

import (
	"context"
	"sync"
	"time"

	"crest/internal/offering/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

type subKey struct {
	asset    id.AssetID
	investor id.Identity
}

// InMemoryStore keeps offerings and subscriptions in maps, with mutations
// serialized under the store lock.
type InMemoryStore struct {
	mu        sync.RWMutex
	offerings map[id.AssetID]*models.Offering
	subs      map[subKey]*models.Subscription
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		offerings: make(map[id.AssetID]*models.Offering),
		subs:      make(map[subKey]*models.Subscription),
	}
}

func (s *InMemoryStore) Create(_ context.Context, offering *models.Offering) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.offerings[offering.Asset]; exists {
		return sentinel.ErrConflict
	}
	s.offerings[offering.Asset] = offering.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, asset id.AssetID) (*models.Offering, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	offering, exists := s.offerings[asset]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return offering.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, asset id.AssetID, mutate func(*models.Offering) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offering, exists := s.offerings[asset]
	if !exists {
		return sentinel.ErrNotFound
	}

	next := offering.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	s.offerings[asset] = next
	return nil
}

func (s *InMemoryStore) UpdateWithSubscription(_ context.Context, asset id.AssetID, investor id.Identity, mutate func(o *models.Offering, sub *models.Subscription) (*models.Subscription, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	offering, exists := s.offerings[asset]
	if !exists {
		return sentinel.ErrNotFound
	}

	nextOffering := offering.Clone()
	var sub *models.Subscription
	if stored, ok := s.subs[subKey{asset, investor}]; ok {
		cp := *stored
		sub = &cp
	}

	nextSub, err := mutate(nextOffering, sub)
	if err != nil {
		return err
	}

	nextOffering.UpdatedAt = time.Now().UTC()
	s.offerings[asset] = nextOffering
	if nextSub != nil {
		cp := *nextSub
		s.subs[subKey{asset, investor}] = &cp
	}
	return nil
}

func (s *InMemoryStore) GetSubscription(_ context.Context, asset id.AssetID, investor id.Identity) (*models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, exists := s.subs[subKey{asset, investor}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *InMemoryStore) PutSubscription(_ context.Context, sub *models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *sub
	s.subs[subKey{sub.Asset, sub.Investor}] = &cp
	return nil
}
