// Package store persists offering state and subscriptions.
package store

import (
	"context"

	"crest/internal/offering/models"
	id "crest/pkg/domain"
)

// Store is the offering port. Mutations run atomically against the record;
// reads return snapshots.
type Store interface {
	// Create inserts a new offering; sentinel.ErrConflict if one exists.
	Create(ctx context.Context, offering *models.Offering) error

	// Get returns a deep copy, or sentinel.ErrNotFound.
	Get(ctx context.Context, asset id.AssetID) (*models.Offering, error)

	// Update applies mutate atomically; sentinel.ErrNotFound if unknown.
	Update(ctx context.Context, asset id.AssetID, mutate func(*models.Offering) error) error

	// UpdateWithSubscription applies mutate atomically across the offering
	// and the investor's subscription: both are read, mutated, and written
	// inside one critical section, so concurrent calls for the same investor
	// serialize and a failure leaves neither record changed. sub is nil when
	// the investor has no subscription yet; a non-nil return value is
	// persisted alongside the offering. sentinel.ErrNotFound if the offering
	// is unknown.
	UpdateWithSubscription(ctx context.Context, asset id.AssetID, investor id.Identity, mutate func(o *models.Offering, sub *models.Subscription) (*models.Subscription, error)) error

	// GetSubscription returns a copy, or sentinel.ErrNotFound.
	GetSubscription(ctx context.Context, asset id.AssetID, investor id.Identity) (*models.Subscription, error)

	// PutSubscription upserts a subscription.
	PutSubscription(ctx context.Context, sub *models.Subscription) error
}
