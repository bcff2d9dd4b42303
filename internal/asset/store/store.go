// Package store persists per-asset compliance configuration aggregates.
package store

import (
	"context"

	"crest/internal/asset/models"
	id "crest/pkg/domain"
)

// Store is the asset configuration port. Get returns a snapshot the caller
// owns; Update applies a mutation atomically under exclusive access to the
// record, so a failed mutation leaves no partial state and concurrent readers
// never observe a half-written aggregate.
type Store interface {
	// Create inserts a new aggregate. Returns sentinel.ErrConflict (wrapped)
	// if the asset already has one.
	Create(ctx context.Context, cfg *models.AssetConfig) error

	// Get returns a deep copy of the aggregate, or sentinel.ErrNotFound.
	Get(ctx context.Context, asset id.AssetID) (*models.AssetConfig, error)

	// Update loads the aggregate, applies mutate to a private copy, and
	// persists the result only if mutate returns nil. Returns
	// sentinel.ErrNotFound if the asset is unknown.
	Update(ctx context.Context, asset id.AssetID, mutate func(*models.AssetConfig) error) error
}
