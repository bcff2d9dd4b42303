// Package service implements the offering state machine: role-checked phase
// transitions, subscriptions during the open phase, and refunds.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	assetmodels "crest/internal/asset/models"
	"crest/internal/offering/models"
	"crest/internal/offering/store"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/audit"
	"crest/pkg/platform/sentinel"
)

// Administrative errors surfaced to callers.
var (
	ErrUnauthorized     = dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the required role")
	ErrInvalidPhase     = dErrors.New(dErrors.CodeInvalidState, "invalid phase transition")
	ErrOfferingNotFound = dErrors.New(dErrors.CodeNotFound, "offering not found")
	ErrOfferingExists   = dErrors.New(dErrors.CodeConflict, "offering already exists")
	ErrNotOpen          = dErrors.New(dErrors.CodeInvalidState, "offering is not open for subscriptions")
	ErrBelowMinTicket   = dErrors.New(dErrors.CodeInvalidInput, "amount below minimum ticket")
	ErrAboveInvestorCap = dErrors.New(dErrors.CodeInvalidInput, "amount above per-investor cap")
	ErrHardCapReached   = dErrors.New(dErrors.CodeInvalidState, "hard cap reached")
	ErrMaxInvestors     = dErrors.New(dErrors.CodeInvalidState, "maximum investor count reached")
	ErrNotRefunding     = dErrors.New(dErrors.CodeInvalidState, "offering is not in refund")
)

// ConfigSource supplies the asset's role triple for authorization checks.
// The asset store satisfies this.
type ConfigSource interface {
	Get(ctx context.Context, asset id.AssetID) (*assetmodels.AssetConfig, error)
}

type Service struct {
	store   store.Store
	configs ConfigSource
	logger  *slog.Logger
	pub     audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func New(st store.Store, configs ConfigSource, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("offering store is required")
	}
	if configs == nil {
		return nil, fmt.Errorf("asset config source is required")
	}
	svc := &Service{store: st, configs: configs}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateParams carries the initial offering terms.
type CreateParams struct {
	Asset        id.AssetID
	Window       models.TimeWindow
	Target       models.Target
	Pricing      models.Pricing
	Rules        models.Rules
	Distribution models.DistributionPolicy
	Fees         models.Fees
	Settlement   models.SettlementDestinations
}

// Create initializes the offering in Draft. Issuer admin only.
func (s *Service) Create(ctx context.Context, caller id.Identity, p CreateParams) (*models.Offering, error) {
	if err := s.requireRole(ctx, caller, p.Asset, assetmodels.RoleIssuerAdmin); err != nil {
		return nil, err
	}
	offering, err := models.NewOffering(p.Asset, p.Window, p.Target, p.Pricing, p.Rules, p.Distribution)
	if err != nil {
		return nil, err
	}
	offering.Fees = p.Fees
	offering.Settlement = p.Settlement

	if err := s.store.Create(ctx, offering); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrOfferingExists
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create offering")
	}
	return offering, nil
}

// Get returns the offering snapshot.
func (s *Service) Get(ctx context.Context, asset id.AssetID) (*models.Offering, error) {
	offering, err := s.store.Get(ctx, asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ErrOfferingNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get offering")
	}
	return offering, nil
}

// MarkPreOffer moves Draft to PreOffer, opening the announcement period
// before subscriptions start. Issuer admin only.
func (s *Service) MarkPreOffer(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhasePreOffer,
		assetmodels.RoleIssuerAdmin)
}

// Open moves Draft|PreOffer to OfferOpen. Issuer admin only.
func (s *Service) Open(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhaseOfferOpen,
		assetmodels.RoleIssuerAdmin)
}

// Lock moves OfferOpen to OfferLocked, freezing new commitments.
func (s *Service) Lock(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhaseOfferLocked,
		assetmodels.RoleIssuerAdmin, assetmodels.RoleTransferAgent)
}

// Close moves OfferLocked to OfferClosed.
func (s *Service) Close(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhaseOfferClosed,
		assetmodels.RoleIssuerAdmin, assetmodels.RoleTransferAgent)
}

// Settle moves OfferClosed to Settlement.
func (s *Service) Settle(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhaseSettlement,
		assetmodels.RoleIssuerAdmin, assetmodels.RoleTransferAgent)
}

// MarkRefund branches to Refund from any phase. The soft-cap failure policy
// that triggers this lives in the admission path, not here.
func (s *Service) MarkRefund(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	return s.transition(ctx, caller, asset, models.PhaseRefund,
		assetmodels.RoleIssuerAdmin, assetmodels.RoleTransferAgent)
}

func (s *Service) transition(ctx context.Context, caller id.Identity, asset id.AssetID, next models.Phase, roles ...assetmodels.RoleType) error {
	cfg, err := s.config(ctx, asset)
	if err != nil {
		return err
	}
	if !cfg.HasAnyRole(caller, roles...) {
		return ErrUnauthorized
	}

	var previous models.Phase
	err = s.store.Update(ctx, asset, func(o *models.Offering) error {
		if !o.Phase.CanTransitionTo(next) {
			return ErrInvalidPhase
		}
		previous, o.Phase = o.Phase, next
		return nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrOfferingNotFound
	}
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "transition offering")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionOfferingPhaseChanged,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"from": string(previous), "to": string(next)},
	})
	return nil
}

// Subscribe commits an investor to the offering. Only meaningful while
// OfferOpen; enforces min ticket, per-investor cap, hard cap, and the
// max-investor count for first-time investors. The funding total can never
// exceed the hard cap through this path.
func (s *Service) Subscribe(ctx context.Context, investor id.Identity, asset id.AssetID, amount uint64) (*models.Subscription, error) {
	if investor.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "investor identity is required")
	}
	if amount == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "amount must be positive")
	}

	// The subscription read, the cap checks, and both writes share one
	// critical section, so concurrent subscriptions from the same investor
	// serialize and funding totals can never diverge from the subscription
	// book.
	var sub *models.Subscription
	err := s.store.UpdateWithSubscription(ctx, asset, investor,
		func(o *models.Offering, existing *models.Subscription) (*models.Subscription, error) {
			if o.Phase != models.PhaseOfferOpen {
				return nil, ErrNotOpen
			}
			if amount < o.Rules.MinTicket {
				return nil, ErrBelowMinTicket
			}
			committed := amount
			if existing != nil {
				committed += existing.Committed
			}
			if o.Rules.PerInvestorCap > 0 && committed > o.Rules.PerInvestorCap {
				return nil, ErrAboveInvestorCap
			}
			if o.Target.HardCap > 0 && o.Funding.Raised+amount > o.Target.HardCap {
				return nil, ErrHardCapReached
			}
			newInvestor := existing == nil
			if newInvestor && o.Rules.MaxInvestors > 0 && o.Funding.Investors >= o.Rules.MaxInvestors {
				return nil, ErrMaxInvestors
			}

			o.Funding.Raised += amount
			if newInvestor {
				o.Funding.Investors++
			}

			now := time.Now().UTC()
			if existing != nil {
				sub = existing
				sub.Committed += amount
				sub.Paid += amount
				sub.UpdatedAt = now
			} else {
				sub = &models.Subscription{
					Asset:     asset,
					Investor:  investor,
					Committed: amount,
					Paid:      amount,
					Status:    models.SubscriptionPending,
					CreatedAt: now,
					UpdatedAt: now,
				}
			}
			return sub, nil
		})
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ErrOfferingNotFound
	}
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "subscribe")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionSubscriptionCreated,
		Asset:   asset,
		Subject: investor,
		Detail:  map[string]any{"amount": amount},
	})
	return sub, nil
}

// Refund marks an investor's subscription refunded. Only in the Refund phase.
func (s *Service) Refund(ctx context.Context, caller id.Identity, asset id.AssetID, investor id.Identity) error {
	cfg, err := s.config(ctx, asset)
	if err != nil {
		return err
	}
	if !cfg.HasAnyRole(caller, assetmodels.RoleIssuerAdmin, assetmodels.RoleTransferAgent) {
		return ErrUnauthorized
	}

	var paid uint64
	var already bool
	err = s.store.UpdateWithSubscription(ctx, asset, investor,
		func(o *models.Offering, sub *models.Subscription) (*models.Subscription, error) {
			if o.Phase != models.PhaseRefund {
				return nil, ErrNotRefunding
			}
			if sub == nil {
				return nil, dErrors.New(dErrors.CodeNotFound, "subscription not found")
			}
			if sub.Status == models.SubscriptionRefunded {
				already = true
				return nil, nil
			}
			sub.Status = models.SubscriptionRefunded
			sub.UpdatedAt = time.Now().UTC()
			paid = sub.Paid
			return sub, nil
		})
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrOfferingNotFound
	}
	if err != nil {
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "refund subscription")
	}
	if already {
		return nil
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionSubscriptionRefunded,
		Asset:   asset,
		Actor:   caller,
		Subject: investor,
		Detail:  map[string]any{"paid": paid},
	})
	return nil
}

func (s *Service) config(ctx context.Context, asset id.AssetID) (*assetmodels.AssetConfig, error) {
	cfg, err := s.configs.Get(ctx, asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get asset config")
	}
	return cfg, nil
}

func (s *Service) requireRole(ctx context.Context, caller id.Identity, asset id.AssetID, roles ...assetmodels.RoleType) error {
	cfg, err := s.config(ctx, asset)
	if err != nil {
		return err
	}
	if !cfg.HasAnyRole(caller, roles...) {
		return ErrUnauthorized
	}
	return nil
}
