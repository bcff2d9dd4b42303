package store

import (
	"context"
	"sync"
	"time"

	"crest/internal/asset/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// InMemoryStore keeps aggregates in a map. Mutations run under the store
// lock, so Update is atomic with respect to readers; Get hands out deep
// copies so callers can never alias live state.
type InMemoryStore struct {
	mu     sync.RWMutex
	assets map[id.AssetID]*models.AssetConfig
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		assets: make(map[id.AssetID]*models.AssetConfig),
	}
}

func (s *InMemoryStore) Create(_ context.Context, cfg *models.AssetConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.assets[cfg.Asset]; exists {
		return sentinel.ErrConflict
	}
	s.assets[cfg.Asset] = cfg.Clone()
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, asset id.AssetID) (*models.AssetConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.assets[asset]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cfg.Clone(), nil
}

func (s *InMemoryStore) Update(_ context.Context, asset id.AssetID, mutate func(*models.AssetConfig) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, exists := s.assets[asset]
	if !exists {
		return sentinel.ErrNotFound
	}

	next := cfg.Clone()
	if err := mutate(next); err != nil {
		return err
	}
	next.UpdatedAt = time.Now().UTC()
	s.assets[asset] = next
	return nil
}
