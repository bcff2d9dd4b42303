// Package engine implements the compliance policy engine: the transfer
// authorization entry point that evaluates the asset's enabled rule modules
// in a fixed order, short-circuiting on the first failure.
//
// A Decision distinguishes policy denials (closed Reason taxonomy, terminal
// and user-visible) from infrastructure errors (error return). Identity
// verifier I/O failure is the one deliberate exception: policy must fail
// closed, so a verifier fault denies with KYCFailed instead of erroring.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/bits"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	assetmodels "crest/internal/asset/models"
	"crest/internal/engine/metrics"
	"crest/internal/engine/volume"
	"crest/internal/identity"
	modulestore "crest/internal/moduleconfig/store"
	offeringmodels "crest/internal/offering/models"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/audit"
	"crest/pkg/platform/sentinel"
	"crest/pkg/requestcontext"
)

// Service evaluates transfer authorization requests.
type Service struct {
	assets    ConfigSource
	offerings OfferingSource
	modules   modulestore.Store
	verifier  IdentityVerifier
	ledger    PositionLedger
	volumes   volume.Store

	locks   stripedMutex
	metrics *metrics.Metrics
	logger  *slog.Logger
	pub     audit.Publisher
	tracer  trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(assets ConfigSource, offerings OfferingSource, modules modulestore.Store, verifier IdentityVerifier, ledger PositionLedger, volumes volume.Store, opts ...Option) (*Service, error) {
	if assets == nil {
		return nil, fmt.Errorf("asset config source is required")
	}
	if offerings == nil {
		return nil, fmt.Errorf("offering source is required")
	}
	if modules == nil {
		return nil, fmt.Errorf("module config store is required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("identity verifier is required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("position ledger is required")
	}
	if volumes == nil {
		return nil, fmt.Errorf("volume store is required")
	}
	svc := &Service{
		assets:    assets,
		offerings: offerings,
		modules:   modules,
		verifier:  verifier,
		ledger:    ledger,
		volumes:   volumes,
		tracer:    otel.Tracer("crest/internal/engine"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AuthorizeTransfer evaluates one proposed transfer against the asset's
// enabled modules in the fixed order and returns the decision. Evaluation is
// fail-fast: the first failing check sets the reason and later checks never
// run. Volume accumulators advance only when the overall evaluation
// authorizes.
//
// Evaluations for the same (asset, sender) are serialized; different pairs
// proceed in parallel.
func (s *Service) AuthorizeTransfer(ctx context.Context, req TransferRequest) (*Decision, error) {
	if req.Asset.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "asset is required")
	}
	if req.From.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "sender is required")
	}

	ctx, span := s.tracer.Start(ctx, "engine.AuthorizeTransfer",
		trace.WithAttributes(attribute.String("asset", req.Asset.String())))
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.ObserveEvaluateLatency(time.Since(start)) }()

	mu := s.locks.lock(req.Asset, req.From)
	defer mu.Unlock()

	decision, err := s.evaluate(ctx, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.metrics.RecordOutcome(decision.Authorized, string(decision.Reason))
	span.SetAttributes(attribute.Bool("authorized", decision.Authorized))
	if !decision.Authorized {
		span.SetAttributes(attribute.String("reason", string(decision.Reason)))
		audit.Emit(ctx, s.logger, s.pub, audit.Event{
			Action:  audit.ActionTransferDenied,
			Asset:   req.Asset,
			Subject: req.From,
			Detail: map[string]any{
				"reason": string(decision.Reason),
				"amount": req.Amount,
			},
		})
	}
	return decision, nil
}

func (s *Service) evaluate(ctx context.Context, req TransferRequest) (*Decision, error) {
	cfg, err := s.assets.Get(ctx, req.Asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get asset config")
	}

	// 1. Global pause.
	if cfg.Paused {
		return denied(ReasonTransferPaused), nil
	}

	// 2. Offering phase gate. No offering yet means Draft.
	phase := offeringmodels.PhaseDraft
	var offering *offeringmodels.Offering
	offering, err = s.offerings.Get(ctx, req.Asset)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		offering = nil
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get offering")
	default:
		phase = offering.Phase
	}
	if !phase.TransfersAllowed() {
		return denied(ReasonOfferingRulesViolated), nil
	}

	enabled := cfg.EnabledModules

	// 3. Transfer window.
	if enabled.Has(assetmodels.ModuleTransferWindow) {
		if offering != nil && !offering.Window.Contains(req.Timestamp) {
			return denied(ReasonWindowClosed), nil
		}
		wcfg, err := s.modules.GetTransferWindow(ctx, req.Asset)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get transfer window config")
		}
		if wcfg != nil {
			at := time.Unix(req.Timestamp, 0).UTC()
			if !wcfg.HourAllowed(at.Hour()) || wcfg.DayBlocked(int(at.Weekday())) {
				return denied(ReasonWindowClosed), nil
			}
		}
	}

	// 4-5. Identity verification for sender and recipient. The accredited
	// module widens the required topic set rather than running its own check.
	topics := requiredTopics(cfg, enabled)
	if d := s.verify(ctx, req.From, topics, cfg); d != nil {
		return d, nil
	}
	if !req.To.IsZero() {
		if d := s.verify(ctx, req.To, topics, cfg); d != nil {
			return d, nil
		}
	} else if len(topics) > 0 || cfg.TokenControls.DefaultFrozen {
		return denied(ReasonKYCFailed), nil
	}

	// 6. Offering rules. Max-investor overflow is advisory only.
	if enabled.Has(assetmodels.ModuleOfferingRules) && offering != nil {
		if req.Amount < offering.Rules.MinTicket {
			return denied(ReasonOfferingRulesViolated), nil
		}
		if limit := offering.Rules.MaxInvestors; limit > 0 && offering.Funding.Investors >= limit {
			if s.logger != nil {
				s.logger.WarnContext(ctx, "offering investor count at or above maximum",
					"asset", req.Asset.String(),
					"investors", offering.Funding.Investors,
					"max_investors", limit,
				)
			}
		}
	}

	// 7. Per-transaction investor cap.
	if enabled.Has(assetmodels.ModuleInvestorLimits) && offering != nil {
		if limit := offering.Rules.PerInvestorCap; limit > 0 && req.Amount > limit {
			return denied(ReasonInvestorLimitExceeded), nil
		}
	}

	// 8. Volume caps. The accumulator write is staged and committed only if
	// every later check also passes.
	var commitVolume func(context.Context) error
	if enabled.Has(assetmodels.ModuleVolumeCaps) {
		d, commit, err := s.checkVolume(ctx, req)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
		commitVolume = commit
	}

	// 9. Lockup.
	if enabled.Has(assetmodels.ModuleLockup) {
		d, err := s.checkLockup(ctx, req)
		if err != nil {
			return nil, err
		}
		if d != nil {
			return d, nil
		}
	}

	// 10. Account allowlist. An unconfigured list admits nobody.
	if enabled.Has(assetmodels.ModuleAccountAllowlist) {
		list, err := s.modules.GetAccountAllowlist(ctx, req.Asset)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get account allowlist")
		}
		if req.To.IsZero() || list == nil || !list.Contains(req.To) {
			return denied(ReasonAccountNotAllowlisted), nil
		}
	}

	// 11. Program allowlist, evaluated against the invoking program identity.
	if enabled.Has(assetmodels.ModuleProgramAllowlist) {
		list, err := s.modules.GetProgramAllowlist(ctx, req.Asset)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get program allowlist")
		}
		program := requestcontext.Program(ctx)
		if program.IsZero() || list == nil || !list.Contains(program) {
			return denied(ReasonProgramNotAllowlisted), nil
		}
	}

	// 12. Sanctions.
	if enabled.Has(assetmodels.ModuleSanctions) {
		list, err := s.modules.GetSanctions(ctx, req.Asset)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get sanctions list")
		}
		if list != nil {
			if list.Contains(req.From) || (!req.To.IsZero() && list.Contains(req.To)) {
				return denied(ReasonSanctioned), nil
			}
		}
	}

	// 13. Jurisdiction, read from the sender's investor profile. A sender
	// with no profile evaluates as jurisdiction code zero.
	if enabled.Has(assetmodels.ModuleJurisdiction) {
		jcfg, err := s.modules.GetJurisdiction(ctx, req.Asset)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get jurisdiction config")
		}
		if jcfg != nil {
			var code uint16
			profile, err := s.modules.GetInvestorProfile(ctx, req.Asset, req.From)
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get investor profile")
			}
			if profile != nil {
				code = profile.Jurisdiction
			}
			if !jcfg.Permits(code) {
				return denied(ReasonJurisdictionDenied), nil
			}
		}
	}

	if commitVolume != nil {
		if err := commitVolume(ctx); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "commit volume accumulator")
		}
	}
	return authorized(), nil
}

// verify runs the identity check and maps every failure mode, including
// verifier I/O faults, to a KYCFailed denial. Policy fails closed.
func (s *Service) verify(ctx context.Context, subject id.Identity, topics []uint32, cfg *assetmodels.AssetConfig) *Decision {
	ok, err := s.verifier.IsVerified(ctx, subject, topics, cfg.TrustedIssuersFor)
	if err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "identity verification failed, denying transfer",
				"subject", subject.String(), "error", err)
		}
		return denied(ReasonKYCFailed)
	}
	if !ok {
		return denied(ReasonKYCFailed)
	}
	return nil
}

func requiredTopics(cfg *assetmodels.AssetConfig, enabled assetmodels.ModuleSet) []uint32 {
	topics := append([]uint32(nil), cfg.RequiredTopics...)
	if !enabled.Has(assetmodels.ModuleAccredited) {
		return topics
	}
	for _, t := range topics {
		if t == identity.TopicAccredited {
			return topics
		}
	}
	return append(topics, identity.TopicAccredited)
}

func (s *Service) checkVolume(ctx context.Context, req TransferRequest) (*Decision, func(context.Context) error, error) {
	vcfg, err := s.modules.GetVolumeCaps(ctx, req.Asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "get volume caps config")
	}

	if vcfg.MaxSingleTx > 0 && req.Amount > vcfg.MaxSingleTx {
		return denied(ReasonMaxTxExceeded), nil, nil
	}

	usage, err := s.volumes.Get(ctx, req.Asset, req.From)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "get volume usage")
	}

	daily := usage.DailyUsed
	monthly := usage.MonthlyUsed
	if !sameUTCDay(usage.LastTs, req.Timestamp) {
		daily = 0
	}
	if !sameUTCMonth(usage.LastTs, req.Timestamp) {
		monthly = 0
	}

	if vcfg.DailyCap > 0 && daily+req.Amount > vcfg.DailyCap {
		return denied(ReasonDailyCapExceeded), nil, nil
	}
	if vcfg.MonthlyCap > 0 && monthly+req.Amount > vcfg.MonthlyCap {
		return denied(ReasonMonthlyCapExceeded), nil, nil
	}

	next := volume.Usage{
		DailyUsed:   daily + req.Amount,
		MonthlyUsed: monthly + req.Amount,
		LastTs:      req.Timestamp,
	}
	commit := func(ctx context.Context) error {
		return s.volumes.Put(ctx, req.Asset, req.From, next)
	}
	return nil, commit, nil
}

func (s *Service) checkLockup(ctx context.Context, req TransferRequest) (*Decision, error) {
	sched, err := s.modules.GetLockup(ctx, req.Asset, req.From)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get lockup schedule")
	}
	if req.Timestamp >= sched.End {
		return nil, nil
	}
	if !sched.LinearVesting {
		return denied(ReasonLockupActive), nil
	}

	num, den := sched.VestedNumerator(req.Timestamp)
	if num == 0 {
		if req.Amount > 0 {
			return denied(ReasonLockupActive), nil
		}
		return nil, nil
	}

	position, err := s.ledger.Position(ctx, req.Asset, req.From)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get sender position")
	}
	if req.Amount > mulDiv(position, uint64(num), uint64(den)) {
		return denied(ReasonLockupActive), nil
	}
	return nil, nil
}

// mulDiv computes floor(value * num / den) without overflow. num <= den is
// guaranteed by VestedNumerator, so the quotient fits in 64 bits.
func mulDiv(value, num, den uint64) uint64 {
	hi, lo := bits.Mul64(value, num)
	q, _ := bits.Div64(hi, lo, den)
	return q
}

func sameUTCDay(a, b int64) bool {
	const day = 86400
	return floorDiv(a, day) == floorDiv(b, day)
}

func sameUTCMonth(a, b int64) bool {
	ta, tb := time.Unix(a, 0).UTC(), time.Unix(b, 0).UTC()
	return ta.Year() == tb.Year() && ta.Month() == tb.Month()
}

func floorDiv(v, d int64) int64 {
	q := v / d
	if v%d != 0 && (v < 0) != (d < 0) {
		q--
	}
	return q
}
