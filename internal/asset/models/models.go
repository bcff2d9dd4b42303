// Package models defines the per-asset compliance configuration aggregate:
// roles, required claim topics, trusted issuers, the enabled module set, and
// token-level controls. One aggregate exists per asset, created at issuance
// and soft-disabled via Paused, never deleted.
package models

import (
	"time"

	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
)

// ModuleID enumerates the compliance rule modules. The set is closed: wire
// integers are mapped through ParseModuleID exactly once at the boundary so
// an unmapped integer can never reach the engine.
type ModuleID uint8

const (
	ModuleJurisdiction ModuleID = iota
	ModuleSanctions
	ModuleAccredited
	ModuleLockup
	ModuleMaxHolders
	ModuleVolumeCaps
	ModuleTransferWindow
	ModuleProgramAllowlist
	ModuleAccountAllowlist
	ModuleOfferingRules
	ModuleInvestorLimits

	moduleCount
)

var moduleNames = map[ModuleID]string{
	ModuleJurisdiction:     "jurisdiction",
	ModuleSanctions:        "sanctions",
	ModuleAccredited:       "accredited",
	ModuleLockup:           "lockup",
	ModuleMaxHolders:       "max_holders",
	ModuleVolumeCaps:       "volume_caps",
	ModuleTransferWindow:   "transfer_window",
	ModuleProgramAllowlist: "program_allowlist",
	ModuleAccountAllowlist: "account_allowlist",
	ModuleOfferingRules:    "offering_rules",
	ModuleInvestorLimits:   "investor_limits",
}

// ParseModuleID maps a wire integer to a ModuleID.
func ParseModuleID(raw uint8) (ModuleID, error) {
	m := ModuleID(raw)
	if m >= moduleCount {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid module id %d", raw)
	}
	return m, nil
}

// ParseModuleName maps a module name (as used in URLs) to a ModuleID.
func ParseModuleName(name string) (ModuleID, error) {
	for m, n := range moduleNames {
		if n == name {
			return m, nil
		}
	}
	return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid module %q", name)
}

func (m ModuleID) String() string {
	if n, ok := moduleNames[m]; ok {
		return n
	}
	return "unknown"
}

// IsValid reports whether the module id is within the closed set.
func (m ModuleID) IsValid() bool { return m < moduleCount }

// ModuleSet is the enabled-module membership structure. A bitmask keeps the
// transfer hot path at a single AND per check.
type ModuleSet uint16

// Has reports membership.
func (s ModuleSet) Has(m ModuleID) bool { return s&(1<<m) != 0 }

// With returns the set with m added.
func (s ModuleSet) With(m ModuleID) ModuleSet { return s | 1<<m }

// Without returns the set with m removed.
func (s ModuleSet) Without(m ModuleID) ModuleSet { return s &^ (1 << m) }

// List returns the members in module-id order.
func (s ModuleSet) List() []ModuleID {
	out := make([]ModuleID, 0)
	for m := ModuleID(0); m < moduleCount; m++ {
		if s.Has(m) {
			out = append(out, m)
		}
	}
	return out
}

// RoleType selects one of the three administrative roles.
type RoleType string

const (
	RoleIssuerAdmin       RoleType = "issuer_admin"
	RoleComplianceOfficer RoleType = "compliance_officer"
	RoleTransferAgent     RoleType = "transfer_agent"
)

// IsValid reports whether the role type is one of the supported values.
func (r RoleType) IsValid() bool {
	switch r {
	case RoleIssuerAdmin, RoleComplianceOfficer, RoleTransferAgent:
		return true
	}
	return false
}

// Roles is the administrative role triple for an asset.
type Roles struct {
	IssuerAdmin       id.Identity `json:"issuer_admin"`
	ComplianceOfficer id.Identity `json:"compliance_officer"`
	TransferAgent     id.Identity `json:"transfer_agent"`
}

// TrustedIssuer authorizes one issuer identity for one claim topic. The
// relation is many-to-many: a topic may trust several issuers and an issuer
// may cover several topics.
type TrustedIssuer struct {
	Topic  uint32      `json:"topic"`
	Issuer id.Identity `json:"issuer"`
}

// TokenControls are token-level transfer controls.
type TokenControls struct {
	DefaultFrozen     bool        `json:"default_frozen"`
	PermanentDelegate id.Identity `json:"permanent_delegate,omitempty"`
}

// Currency is the pricing/NAV base currency.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencyBRL Currency = "BRL"
	CurrencyEUR Currency = "EUR"
)

// IsValid reports whether the currency is supported.
func (c Currency) IsValid() bool {
	switch c {
	case CurrencyUSD, CurrencyBRL, CurrencyEUR:
		return true
	}
	return false
}

// OracleConfig references the NAV/price oracle setup for an asset.
type OracleConfig struct {
	Feeds        []string    `json:"feeds,omitempty"`
	HeartbeatSec uint32      `json:"heartbeat_sec"`
	MaxDevBps    uint32      `json:"max_dev_bps"`
	NavFeeder    id.Identity `json:"nav_feeder,omitempty"`
	BaseCurrency Currency    `json:"base_currency"`
}

// AssetConfig is the per-asset compliance aggregate. Module parameters are a
// per-module keyed map, not a shared append-only blob: disabling a module
// purges its parameters so a later enable cannot read stale data.
type AssetConfig struct {
	Version           uint8                `json:"version"`
	Asset             id.AssetID           `json:"asset"`
	Roles             Roles                `json:"roles"`
	RequiredTopics    []uint32             `json:"required_topics"`
	TrustedIssuers    []TrustedIssuer      `json:"trusted_issuers"`
	EnabledModules    ModuleSet            `json:"enabled_modules"`
	ModuleParams      map[ModuleID][]byte  `json:"module_params"`
	TokenControls     TokenControls        `json:"token_controls"`
	Oracle            OracleConfig         `json:"oracle"`
	ComplianceVersion uint16               `json:"compliance_version"`
	MetadataURI       string               `json:"metadata_uri,omitempty"`
	Paused            bool                 `json:"paused"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

// NewAssetConfig creates an aggregate with domain invariant validation.
func NewAssetConfig(asset id.AssetID, roles Roles, requiredTopics []uint32, controls TokenControls) (*AssetConfig, error) {
	if asset.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset id is required")
	}
	if roles.IssuerAdmin.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "issuer admin role is required")
	}
	now := time.Now().UTC()
	return &AssetConfig{
		Version:        1,
		Asset:          asset,
		Roles:          roles,
		RequiredTopics: append([]uint32(nil), requiredTopics...),
		ModuleParams:   make(map[ModuleID][]byte),
		TokenControls:  controls,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// HasRole reports whether identity holds the given role on this asset.
func (c *AssetConfig) HasRole(identity id.Identity, role RoleType) bool {
	if identity.IsZero() {
		return false
	}
	switch role {
	case RoleIssuerAdmin:
		return c.Roles.IssuerAdmin == identity
	case RoleComplianceOfficer:
		return c.Roles.ComplianceOfficer == identity
	case RoleTransferAgent:
		return c.Roles.TransferAgent == identity
	}
	return false
}

// HasAnyRole reports whether identity holds at least one of the given roles.
func (c *AssetConfig) HasAnyRole(identity id.Identity, roles ...RoleType) bool {
	for _, r := range roles {
		if c.HasRole(identity, r) {
			return true
		}
	}
	return false
}

// TrustedIssuersFor returns the issuers trusted for a topic. An empty result
// means the topic has no issuer restriction.
func (c *AssetConfig) TrustedIssuersFor(topic uint32) []id.Identity {
	out := make([]id.Identity, 0)
	for _, e := range c.TrustedIssuers {
		if e.Topic == topic {
			out = append(out, e.Issuer)
		}
	}
	return out
}

// Clone returns a deep copy so stores can hand out snapshots.
func (c *AssetConfig) Clone() *AssetConfig {
	cp := *c
	cp.RequiredTopics = append([]uint32(nil), c.RequiredTopics...)
	cp.TrustedIssuers = append([]TrustedIssuer(nil), c.TrustedIssuers...)
	cp.ModuleParams = make(map[ModuleID][]byte, len(c.ModuleParams))
	for m, p := range c.ModuleParams {
		cp.ModuleParams[m] = append([]byte(nil), p...)
	}
	cp.Oracle.Feeds = append([]string(nil), c.Oracle.Feeds...)
	return &cp
}
