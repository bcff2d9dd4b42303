package volume

import (
	"context"
	"sync"

	id "crest/pkg/domain"
)

type usageKey struct {
	asset  id.AssetID
	sender id.Identity
}

// InMemoryStore keeps accumulators in a map.
type InMemoryStore struct {
	mu    sync.RWMutex
	usage map[usageKey]Usage
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{usage: make(map[usageKey]Usage)}
}

func (s *InMemoryStore) Get(_ context.Context, asset id.AssetID, sender id.Identity) (Usage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usage[usageKey{asset, sender}], nil
}

func (s *InMemoryStore) Put(_ context.Context, asset id.AssetID, sender id.Identity, usage Usage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[usageKey{asset, sender}] = usage
	return nil
}
