// Package models defines the offering lifecycle state for an asset: phase,
// time window, funding targets, pricing, admission rules, and running totals.
package models

import (
	"time"

	assetmodels "crest/internal/asset/models"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
)

// Phase is the offering lifecycle phase. Transitions are monotonic through
// the main sequence; Refund is an escape branch reachable from any phase
// after soft-cap failure.
type Phase string

const (
	PhaseDraft       Phase = "draft"
	PhasePreOffer    Phase = "pre_offer"
	PhaseOfferOpen   Phase = "offer_open"
	PhaseOfferLocked Phase = "offer_locked"
	PhaseOfferClosed Phase = "offer_closed"
	PhaseSettlement  Phase = "settlement"
	PhaseRefund      Phase = "refund"
)

// IsValid reports whether the phase is one of the supported values.
func (p Phase) IsValid() bool {
	switch p {
	case PhaseDraft, PhasePreOffer, PhaseOfferOpen, PhaseOfferLocked,
		PhaseOfferClosed, PhaseSettlement, PhaseRefund:
		return true
	}
	return false
}

// TransfersAllowed reports whether secondary transfers are meaningful in this
// phase. Draft, PreOffer, and Refund gate all transfers off.
func (p Phase) TransfersAllowed() bool {
	switch p {
	case PhaseOfferOpen, PhaseOfferLocked, PhaseOfferClosed, PhaseSettlement:
		return true
	}
	return false
}

// CanTransitionTo enforces the ordered state machine. Out-of-order attempts
// are rejected, never silently absorbed.
func (p Phase) CanTransitionTo(next Phase) bool {
	if next == PhaseRefund {
		return p != PhaseRefund
	}
	switch p {
	case PhaseDraft:
		return next == PhasePreOffer || next == PhaseOfferOpen
	case PhasePreOffer:
		return next == PhaseOfferOpen
	case PhaseOfferOpen:
		return next == PhaseOfferLocked
	case PhaseOfferLocked:
		return next == PhaseOfferClosed
	case PhaseOfferClosed:
		return next == PhaseSettlement
	}
	return false
}

// PricingModel selects how units are priced during the offering.
type PricingModel string

const (
	PricingFixed  PricingModel = "fixed"
	PricingNAV    PricingModel = "nav"
	PricingHybrid PricingModel = "hybrid"
)

// DistributionPolicy selects the oversubscription policy.
type DistributionPolicy string

const (
	DistributionProRata         DistributionPolicy = "pro_rata"
	DistributionFCFS            DistributionPolicy = "fcfs"
	DistributionPriorityBuckets DistributionPolicy = "priority_buckets"
)

// InvestorType classifies eligible investors.
type InvestorType string

const (
	InvestorRetailQualified InvestorType = "retail_qualified"
	InvestorAccredited      InvestorType = "accredited"
	InvestorInstitutional   InvestorType = "institutional"
)

// TimeWindow is the offering's open interval, unix seconds.
type TimeWindow struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether ts falls within [Start, End]. A zero window
// (both bounds unset) places no restriction.
func (w TimeWindow) Contains(ts int64) bool {
	if w.Start == 0 && w.End == 0 {
		return true
	}
	return ts >= w.Start && ts <= w.End
}

// Target is the funding target pair.
type Target struct {
	SoftCap uint64 `json:"soft_cap"`
	HardCap uint64 `json:"hard_cap"`
}

// Pricing describes unit pricing for the offering.
type Pricing struct {
	Model     PricingModel        `json:"model"`
	UnitPrice uint64              `json:"unit_price"`
	Currency  assetmodels.Currency `json:"currency"`
}

// Eligibility filters who may participate.
type Eligibility struct {
	Jurisdictions []uint16       `json:"jurisdictions,omitempty"`
	InvestorTypes []InvestorType `json:"investor_types,omitempty"`
}

// Rules are the offering admission rules.
type Rules struct {
	MinTicket      uint64      `json:"min_ticket"`
	PerInvestorCap uint64      `json:"per_investor_cap"`
	MaxInvestors   uint32      `json:"max_investors"`
	Eligibility    Eligibility `json:"eligibility"`
}

// Funding tracks running totals.
type Funding struct {
	Raised    uint64 `json:"raised"`
	Investors uint32 `json:"investors"`
}

// Fees are the platform fee schedule in basis points.
type Fees struct {
	OriginationBps uint16 `json:"origination_bps"`
	PlatformBps    uint16 `json:"platform_bps"`
	SuccessBps     uint16 `json:"success_bps"`
}

// SettlementDestinations names where settled funds flow.
type SettlementDestinations struct {
	IssuerTreasury id.Identity `json:"issuer_treasury"`
	FeeTreasury    id.Identity `json:"fee_treasury"`
}

// Offering is the per-asset offering state.
type Offering struct {
	Asset        id.AssetID             `json:"asset"`
	Phase        Phase                  `json:"phase"`
	Window       TimeWindow             `json:"window"`
	Target       Target                 `json:"target"`
	Pricing      Pricing                `json:"pricing"`
	Rules        Rules                  `json:"rules"`
	Distribution DistributionPolicy     `json:"distribution"`
	Funding      Funding                `json:"funding"`
	Fees         Fees                   `json:"fees"`
	Settlement   SettlementDestinations `json:"settlement"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// NewOffering creates an offering in Draft with domain invariant validation.
func NewOffering(asset id.AssetID, window TimeWindow, target Target, pricing Pricing, rules Rules, distribution DistributionPolicy) (*Offering, error) {
	if asset.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "asset id is required")
	}
	if target.HardCap > 0 && target.SoftCap > target.HardCap {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "soft cap cannot exceed hard cap")
	}
	if window.End != 0 && window.End < window.Start {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "window end precedes start")
	}
	now := time.Now().UTC()
	return &Offering{
		Asset:        asset,
		Phase:        PhaseDraft,
		Window:       window,
		Target:       target,
		Pricing:      pricing,
		Rules:        rules,
		Distribution: distribution,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Clone returns a deep copy.
func (o *Offering) Clone() *Offering {
	cp := *o
	cp.Rules.Eligibility.Jurisdictions = append([]uint16(nil), o.Rules.Eligibility.Jurisdictions...)
	cp.Rules.Eligibility.InvestorTypes = append([]InvestorType(nil), o.Rules.Eligibility.InvestorTypes...)
	return &cp
}

// SubscriptionStatus tracks a commitment through settlement.
type SubscriptionStatus string

const (
	SubscriptionPending   SubscriptionStatus = "pending"
	SubscriptionAllocated SubscriptionStatus = "allocated"
	SubscriptionRefunded  SubscriptionStatus = "refunded"
)

// Subscription is one investor's commitment to an offering.
type Subscription struct {
	Asset     id.AssetID         `json:"asset"`
	Investor  id.Identity        `json:"investor"`
	Committed uint64             `json:"committed"`
	Paid      uint64             `json:"paid"`
	Allocated uint64             `json:"allocated"`
	Status    SubscriptionStatus `json:"status"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
