package engine

import (
	"context"

	assetmodels "crest/internal/asset/models"
	"crest/internal/identity"
	offeringmodels "crest/internal/offering/models"
	id "crest/pkg/domain"
)

// ConfigSource yields the compliance configuration aggregate for an asset.
// The asset store satisfies this directly.
type ConfigSource interface {
	Get(ctx context.Context, asset id.AssetID) (*assetmodels.AssetConfig, error)
}

// OfferingSource yields the offering record for an asset. sentinel.ErrNotFound
// means no offering exists yet, which the engine treats as phase Draft.
type OfferingSource interface {
	Get(ctx context.Context, asset id.AssetID) (*offeringmodels.Offering, error)
}

// IdentityVerifier answers claim verification queries. Must reflect revocation
// and expiry at call time. The identity service satisfies this directly.
type IdentityVerifier interface {
	IsVerified(ctx context.Context, subject id.Identity, topics []uint32, trusted identity.TrustedIssuers) (bool, error)
}

// PositionLedger reports a holder's current position in an asset. Balance
// custody lives with the token-movement collaborator, not the engine; the
// lockup module only needs the position to size the vested portion.
type PositionLedger interface {
	Position(ctx context.Context, asset id.AssetID, holder id.Identity) (uint64, error)
}
