package identity

import (
	"context"

	id "crest/pkg/domain"
)

// Store is the identity/claims port.
type Store interface {
	// GetRecord returns a copy of the identity record, or sentinel.ErrNotFound.
	GetRecord(ctx context.Context, identity id.Identity) (*Record, error)

	// PutRecord upserts an identity record.
	PutRecord(ctx context.Context, record *Record) error

	// GetClaims returns all claims for (subject, topic), any issuer.
	GetClaims(ctx context.Context, subject id.Identity, topic uint32) ([]Claim, error)

	// PutClaim upserts the claim keyed by (subject, issuer, topic).
	PutClaim(ctx context.Context, claim *Claim) error
}
