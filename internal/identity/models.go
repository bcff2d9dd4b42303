// Package identity manages identity records and topic claims, and answers
// verification queries for the compliance engine. Verification reflects
// revocation and expiry at call time; there is no cached verdict on the
// transfer path.
package identity

import (
	"time"

	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
)

// Claim topic constants. Topics are open-ended uint32s; these cover the
// standard set.
const (
	TopicKYC            uint32 = 1
	TopicAML            uint32 = 2
	TopicAccredited     uint32 = 3
	TopicResidency      uint32 = 4
	TopicPEP            uint32 = 5
	TopicSanctionsClear uint32 = 6
	TopicKYB            uint32 = 7
)

// Record is the registered identity for a participant.
type Record struct {
	Identity     id.Identity `json:"identity"`
	Active       bool        `json:"active"`
	Level        uint8       `json:"level"`
	Tags         []string    `json:"tags,omitempty"`
	RegisteredAt time.Time   `json:"registered_at"`
	LastUpdate   time.Time   `json:"last_update"`
}

// Claim attests one topic for one subject, signed off by an issuer.
// ValidUntil of zero means the claim does not expire.
type Claim struct {
	Subject    id.Identity `json:"subject"`
	Issuer     id.Identity `json:"issuer"`
	Topic      uint32      `json:"topic"`
	DataHash   [32]byte    `json:"-"`
	IssuedAt   int64       `json:"issued_at"`
	ValidUntil int64       `json:"valid_until"`
	Revoked    bool        `json:"revoked"`
}

// ValidAt reports whether the claim is usable at ts: issued, unrevoked, and
// unexpired.
func (c Claim) ValidAt(ts int64) bool {
	if c.Revoked {
		return false
	}
	if c.ValidUntil != 0 && ts > c.ValidUntil {
		return false
	}
	return true
}

// NewClaim creates a claim with invariant validation.
func NewClaim(subject, issuer id.Identity, topic uint32, validUntil int64) (*Claim, error) {
	if subject.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "claim subject is required")
	}
	if issuer.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "claim issuer is required")
	}
	now := time.Now().Unix()
	if validUntil != 0 && validUntil <= now {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "claim already expired")
	}
	return &Claim{
		Subject:    subject,
		Issuer:     issuer,
		Topic:      topic,
		IssuedAt:   now,
		ValidUntil: validUntil,
	}, nil
}
