// Package domain defines the typed identifiers shared across services.
//
// Identifiers are typed strings rather than raw strings so a sender identity
// can never be passed where an asset id is expected. Construction goes through
// the Parse helpers, which validate shape once at the boundary; everything
// past the boundary trusts the type.
package domain

import (
	"strings"

	dErrors "crest/pkg/domain-errors"
)

// AssetID identifies a regulated tokenized security.
type AssetID string

// Identity identifies a participant: an investor, an admin, a program, or a
// claim issuer. The gateway treats identities as opaque addresses.
type Identity string

// ParseAssetID validates and converts a raw string into an AssetID.
func ParseAssetID(s string) (AssetID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset id cannot be empty")
	}
	if strings.ContainsAny(s, ": \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "asset id contains invalid characters")
	}
	return AssetID(s), nil
}

// ParseIdentity validates and converts a raw string into an Identity.
func ParseIdentity(s string) (Identity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity cannot be empty")
	}
	if strings.ContainsAny(s, ": \t\n") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "identity contains invalid characters")
	}
	return Identity(s), nil
}

func (a AssetID) String() string { return string(a) }

func (a AssetID) IsZero() bool { return a == "" }

func (i Identity) String() string { return string(i) }

func (i Identity) IsZero() bool { return i == "" }
