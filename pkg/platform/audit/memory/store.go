// Package memory provides an in-memory audit sink for development and tests.
package memory

import (
	"context"
	"sync"

	id "crest/pkg/domain"
	"crest/pkg/platform/audit"
)

type Store struct {
	mu     sync.RWMutex
	events []audit.Event
}

func New() *Store {
	return &Store{}
}

func (s *Store) Emit(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// ByAsset returns recorded events for an asset, in emission order.
func (s *Store) ByAsset(asset id.AssetID) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, 0)
	for _, e := range s.events {
		if e.Asset == asset {
			out = append(out, e)
		}
	}
	return out
}

// All returns every recorded event.
func (s *Store) All() []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Event, len(s.events))
	copy(out, s.events)
	return out
}
