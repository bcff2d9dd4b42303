// Package ledger holds the in-process position ledger used when no external
// token-movement collaborator is wired. Positions are set administratively or
// by tests; the engine only reads them.
package ledger

import (
	"context"
	"sync"

	id "crest/pkg/domain"
)

type positionKey struct {
	asset  id.AssetID
	holder id.Identity
}

// InMemoryLedger is a thread-safe position map.
type InMemoryLedger struct {
	mu        sync.RWMutex
	positions map[positionKey]uint64
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{positions: make(map[positionKey]uint64)}
}

// Position returns the holder's current position, zero when unknown.
func (l *InMemoryLedger) Position(_ context.Context, asset id.AssetID, holder id.Identity) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.positions[positionKey{asset, holder}], nil
}

// SetPosition records a holder's position.
func (l *InMemoryLedger) SetPosition(asset id.AssetID, holder id.Identity, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.positions[positionKey{asset, holder}] = amount
}
