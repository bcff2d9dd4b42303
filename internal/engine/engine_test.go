package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	assetmodels "crest/internal/asset/models"
	assetstore "crest/internal/asset/store"
	"crest/internal/engine/ledger"
	"crest/internal/engine/volume"
	"crest/internal/identity"
	modulemodels "crest/internal/moduleconfig/models"
	modulestore "crest/internal/moduleconfig/store"
	offeringmodels "crest/internal/offering/models"
	offeringstore "crest/internal/offering/store"
	id "crest/pkg/domain"
	"crest/pkg/requestcontext"
)

// =============================================================================
// Engine Test Suite
// =============================================================================
// Justification for unit tests: the evaluation order, fail-fast semantics, and
// accumulator all-or-nothing commit are the contract of this package and are
// impractical to pin down through HTTP-level tests.

const (
	testAsset id.AssetID  = "asset-1"
	alice     id.Identity = "alice"
	bob       id.Identity = "bob"
	kycIssuer id.Identity = "issuer-kyc"
)

type EngineSuite struct {
	suite.Suite
	assets     *assetstore.InMemoryStore
	offerings  *offeringstore.InMemoryStore
	modules    *modulestore.InMemoryStore
	identities *identity.InMemoryStore
	ledger     *ledger.InMemoryLedger
	volumes    *volume.InMemoryStore
	service    *Service
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	ctx := context.Background()

	s.assets = assetstore.NewInMemory()
	s.offerings = offeringstore.NewInMemory()
	s.modules = modulestore.NewInMemory()
	s.identities = identity.NewInMemoryStore()
	s.ledger = ledger.NewInMemoryLedger()
	s.volumes = volume.NewInMemoryStore()

	cfg, err := assetmodels.NewAssetConfig(testAsset, assetmodels.Roles{
		IssuerAdmin:       "admin-1",
		ComplianceOfficer: "officer-1",
		TransferAgent:     "agent-1",
	}, nil, assetmodels.TokenControls{})
	s.Require().NoError(err)
	s.Require().NoError(s.assets.Create(ctx, cfg))

	s.Require().NoError(s.offerings.Create(ctx, &offeringmodels.Offering{
		Asset: testAsset,
		Phase: offeringmodels.PhaseOfferOpen,
	}))

	s.register(alice)
	s.register(bob)

	verifier, err := identity.New(s.identities)
	s.Require().NoError(err)

	s.service, err = New(s.assets, s.offerings, s.modules, verifier, s.ledger, s.volumes)
	s.Require().NoError(err)
}

func (s *EngineSuite) register(who id.Identity) {
	s.Require().NoError(s.identities.PutRecord(context.Background(), &identity.Record{
		Identity: who,
		Active:   true,
	}))
}

func (s *EngineSuite) claim(subject, issuer id.Identity, topic uint32) {
	s.Require().NoError(s.identities.PutClaim(context.Background(), &identity.Claim{
		Subject: subject,
		Issuer:  issuer,
		Topic:   topic,
	}))
}

func (s *EngineSuite) enable(modules ...assetmodels.ModuleID) {
	err := s.assets.Update(context.Background(), testAsset, func(cfg *assetmodels.AssetConfig) error {
		for _, m := range modules {
			cfg.EnabledModules = cfg.EnabledModules.With(m)
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *EngineSuite) disable(module assetmodels.ModuleID) {
	err := s.assets.Update(context.Background(), testAsset, func(cfg *assetmodels.AssetConfig) error {
		cfg.EnabledModules = cfg.EnabledModules.Without(module)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EngineSuite) mutateOffering(mutate func(*offeringmodels.Offering)) {
	err := s.offerings.Update(context.Background(), testAsset, func(o *offeringmodels.Offering) error {
		mutate(o)
		return nil
	})
	s.Require().NoError(err)
}

func (s *EngineSuite) authorize(ctx context.Context, req TransferRequest) *Decision {
	decision, err := s.service.AuthorizeTransfer(ctx, req)
	s.Require().NoError(err)
	return decision
}

func (s *EngineSuite) transfer(amount uint64, ts int64) TransferRequest {
	return TransferRequest{Asset: testAsset, From: alice, To: bob, Amount: amount, Timestamp: ts}
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *EngineSuite) TestNew() {
	s.Run("nil asset source returns error", func() {
		_, err := New(nil, s.offerings, s.modules, s.verifier(), s.ledger, s.volumes)
		s.Error(err)
	})

	s.Run("nil volume store returns error", func() {
		_, err := New(s.assets, s.offerings, s.modules, s.verifier(), s.ledger, nil)
		s.Error(err)
	})
}

func (s *EngineSuite) verifier() *identity.Service {
	svc, err := identity.New(s.identities)
	s.Require().NoError(err)
	return svc
}

// =============================================================================
// Input Validation
// =============================================================================

func (s *EngineSuite) TestInputValidation() {
	ctx := context.Background()

	s.Run("missing asset is an error, not a denial", func() {
		_, err := s.service.AuthorizeTransfer(ctx, TransferRequest{From: alice, Amount: 1})
		s.Error(err)
	})

	s.Run("missing sender is an error", func() {
		_, err := s.service.AuthorizeTransfer(ctx, TransferRequest{Asset: testAsset, Amount: 1})
		s.Error(err)
	})

	s.Run("unknown asset is an error", func() {
		_, err := s.service.AuthorizeTransfer(ctx, TransferRequest{Asset: "nope", From: alice, Amount: 1})
		s.Error(err)
	})
}

// =============================================================================
// Pause and Fail-Fast Ordering
// =============================================================================

func (s *EngineSuite) TestPause() {
	ctx := context.Background()

	s.Run("paused asset denies everything", func() {
		s.setPaused(true)
		defer s.setPaused(false)

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.False(decision.Authorized)
		s.Equal(ReasonTransferPaused, decision.Reason)
	})

	s.Run("paused wins over sanctions", func() {
		s.enable(assetmodels.ModuleSanctions)
		s.Require().NoError(s.modules.SetSanctions(ctx, testAsset, modulemodels.SanctionsList{
			Addresses: []id.Identity{alice},
		}))
		s.setPaused(true)
		defer s.setPaused(false)

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonTransferPaused, decision.Reason)
	})
}

func (s *EngineSuite) setPaused(paused bool) {
	err := s.assets.Update(context.Background(), testAsset, func(cfg *assetmodels.AssetConfig) error {
		cfg.Paused = paused
		return nil
	})
	s.Require().NoError(err)
}

// =============================================================================
// Offering Phase Gate
// =============================================================================

func (s *EngineSuite) TestPhaseGate() {
	ctx := context.Background()

	s.Run("draft phase denies transfers", func() {
		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseDraft })

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonOfferingRulesViolated, decision.Reason)

		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseOfferOpen })
	})

	s.Run("refund phase denies transfers", func() {
		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseRefund })

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonOfferingRulesViolated, decision.Reason)

		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseOfferOpen })
	})

	s.Run("settlement phase allows transfers", func() {
		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseSettlement })

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.True(decision.Authorized)

		s.mutateOffering(func(o *offeringmodels.Offering) { o.Phase = offeringmodels.PhaseOfferOpen })
	})
}

// =============================================================================
// Transfer Window
// =============================================================================

func (s *EngineSuite) TestTransferWindow() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleTransferWindow)

	s.Require().NoError(s.modules.SetTransferWindow(ctx, testAsset, modulemodels.TransferWindowConfig{
		AllowedHours: []uint8{9, 10, 11, 12, 13, 14, 15, 16, 17},
	}))

	s.Run("hour 3 is outside allowed hours", func() {
		decision := s.authorize(ctx, s.transfer(1, 3*3600))
		s.Equal(ReasonWindowClosed, decision.Reason)
	})

	s.Run("hour 10 passes", func() {
		decision := s.authorize(ctx, s.transfer(1, 10*3600))
		s.True(decision.Authorized)
	})

	s.Run("blocked weekday denies", func() {
		s.Require().NoError(s.modules.SetTransferWindow(ctx, testAsset, modulemodels.TransferWindowConfig{
			// 1970-01-01 was a Thursday (weekday 4).
			BlockedDays: []uint8{4},
		}))
		decision := s.authorize(ctx, s.transfer(1, 10*3600))
		s.Equal(ReasonWindowClosed, decision.Reason)
	})

	s.Run("outside offering window denies", func() {
		s.Require().NoError(s.modules.SetTransferWindow(ctx, testAsset, modulemodels.TransferWindowConfig{}))
		s.mutateOffering(func(o *offeringmodels.Offering) {
			o.Window = offeringmodels.TimeWindow{Start: 1000, End: 2000}
		})
		decision := s.authorize(ctx, s.transfer(1, 5000))
		s.Equal(ReasonWindowClosed, decision.Reason)

		decision = s.authorize(ctx, s.transfer(1, 1500))
		s.True(decision.Authorized)
	})
}

// =============================================================================
// Identity Verification
// =============================================================================

func (s *EngineSuite) TestIdentityVerification() {
	ctx := context.Background()

	s.setRequiredTopics([]uint32{identity.TopicKYC})

	s.Run("sender without claim denies KYCFailed", func() {
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonKYCFailed, decision.Reason)
	})

	s.Run("both parties with claims pass", func() {
		s.claim(alice, kycIssuer, identity.TopicKYC)
		s.claim(bob, kycIssuer, identity.TopicKYC)

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.True(decision.Authorized)
	})

	s.Run("untrusted issuer denies when issuer list is restricted", func() {
		err := s.assets.Update(ctx, testAsset, func(cfg *assetmodels.AssetConfig) error {
			cfg.TrustedIssuers = []assetmodels.TrustedIssuer{{Topic: identity.TopicKYC, Issuer: "someone-else"}}
			return nil
		})
		s.Require().NoError(err)

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonKYCFailed, decision.Reason)

		err = s.assets.Update(ctx, testAsset, func(cfg *assetmodels.AssetConfig) error {
			cfg.TrustedIssuers = nil
			return nil
		})
		s.Require().NoError(err)
	})

	s.Run("absent recipient with required topics denies KYCFailed", func() {
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: alice, Amount: 1, Timestamp: 1000})
		s.Equal(ReasonKYCFailed, decision.Reason)
	})

	s.Run("unregistered recipient denies KYCFailed", func() {
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: alice, To: "stranger", Amount: 1, Timestamp: 1000})
		s.Equal(ReasonKYCFailed, decision.Reason)
	})

	s.Run("inactive sender denies KYCFailed", func() {
		s.Require().NoError(s.identities.PutRecord(ctx, &identity.Record{Identity: alice, Active: false}))
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonKYCFailed, decision.Reason)
		s.register(alice)
	})

	s.Run("accredited module widens the topic set", func() {
		s.enable(assetmodels.ModuleAccredited)

		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonKYCFailed, decision.Reason)

		s.claim(alice, kycIssuer, identity.TopicAccredited)
		s.claim(bob, kycIssuer, identity.TopicAccredited)
		decision = s.authorize(ctx, s.transfer(1, 1000))
		s.True(decision.Authorized)

		s.disable(assetmodels.ModuleAccredited)
	})
}

func (s *EngineSuite) TestDefaultFrozenRequiresRecipient() {
	ctx := context.Background()

	err := s.assets.Update(ctx, testAsset, func(cfg *assetmodels.AssetConfig) error {
		cfg.TokenControls.DefaultFrozen = true
		return nil
	})
	s.Require().NoError(err)

	decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: alice, Amount: 1, Timestamp: 1000})
	s.Equal(ReasonKYCFailed, decision.Reason)

	decision = s.authorize(ctx, s.transfer(1, 1000))
	s.True(decision.Authorized)
}

func (s *EngineSuite) TestVerifierFaultFailsClosed() {
	ctx := context.Background()

	svc, err := New(s.assets, s.offerings, s.modules, failingVerifier{}, s.ledger, s.volumes)
	s.Require().NoError(err)

	decision, err := svc.AuthorizeTransfer(ctx, s.transfer(1, 1000))
	s.Require().NoError(err)
	s.Equal(ReasonKYCFailed, decision.Reason)
}

type failingVerifier struct{}

func (failingVerifier) IsVerified(context.Context, id.Identity, []uint32, identity.TrustedIssuers) (bool, error) {
	return false, errors.New("verifier unavailable")
}

func (s *EngineSuite) setRequiredTopics(topics []uint32) {
	err := s.assets.Update(context.Background(), testAsset, func(cfg *assetmodels.AssetConfig) error {
		cfg.RequiredTopics = topics
		return nil
	})
	s.Require().NoError(err)
}

// =============================================================================
// Offering Rules and Investor Limits
// =============================================================================

func (s *EngineSuite) TestOfferingRules() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleOfferingRules)
	s.mutateOffering(func(o *offeringmodels.Offering) { o.Rules.MinTicket = 10 })

	s.Run("below min ticket denies", func() {
		decision := s.authorize(ctx, s.transfer(5, 1000))
		s.Equal(ReasonOfferingRulesViolated, decision.Reason)
	})

	s.Run("at min ticket passes", func() {
		decision := s.authorize(ctx, s.transfer(10, 1000))
		s.True(decision.Authorized)
	})

	s.Run("max investor overflow is advisory, never a deny", func() {
		s.mutateOffering(func(o *offeringmodels.Offering) {
			o.Rules.MaxInvestors = 1
			o.Funding.Investors = 5
		})
		decision := s.authorize(ctx, s.transfer(10, 1000))
		s.True(decision.Authorized)
	})
}

func (s *EngineSuite) TestInvestorLimits() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleInvestorLimits)
	s.mutateOffering(func(o *offeringmodels.Offering) { o.Rules.PerInvestorCap = 100 })

	decision := s.authorize(ctx, s.transfer(150, 1000))
	s.Equal(ReasonInvestorLimitExceeded, decision.Reason)

	decision = s.authorize(ctx, s.transfer(100, 1000))
	s.True(decision.Authorized)
}

// =============================================================================
// Volume Caps
// =============================================================================

func (s *EngineSuite) TestVolumeCaps() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleVolumeCaps)

	s.Require().NoError(s.modules.SetVolumeCaps(ctx, testAsset, modulemodels.VolumeCapsConfig{
		DailyCap: 100,
	}))

	s.Run("denied attempt does not consume the cap", func() {
		decision := s.authorize(ctx, s.transfer(60, 1000))
		s.True(decision.Authorized)

		decision = s.authorize(ctx, s.transfer(50, 2000))
		s.Equal(ReasonDailyCapExceeded, decision.Reason)

		// 60 + 40 = 100 still fits, proving the denied 50 never advanced
		// the accumulator.
		decision = s.authorize(ctx, s.transfer(40, 3000))
		s.True(decision.Authorized)
	})

	s.Run("daily accumulator resets at UTC midnight", func() {
		const nextDay = 86400 + 1000
		decision := s.authorize(ctx, s.transfer(100, nextDay))
		s.True(decision.Authorized)
	})

	s.Run("max single tx", func() {
		s.Require().NoError(s.modules.SetVolumeCaps(ctx, testAsset, modulemodels.VolumeCapsConfig{
			MaxSingleTx: 25,
		}))
		decision := s.authorize(ctx, s.transfer(26, 200000))
		s.Equal(ReasonMaxTxExceeded, decision.Reason)
	})

	s.Run("monthly cap spans days", func() {
		s.Require().NoError(s.modules.SetVolumeCaps(ctx, testAsset, modulemodels.VolumeCapsConfig{
			MonthlyCap: 200,
		}))
		// Fresh sender so earlier subtests do not interfere.
		s.register("carol")
		fromCarol := func(amount uint64, ts int64) TransferRequest {
			return TransferRequest{Asset: testAsset, From: "carol", To: bob, Amount: amount, Timestamp: ts}
		}

		decision := s.authorize(ctx, fromCarol(150, 1000))
		s.True(decision.Authorized)

		decision = s.authorize(ctx, fromCarol(100, 86400+1000))
		s.Equal(ReasonMonthlyCapExceeded, decision.Reason)

		// February 1970 is a new calendar month.
		decision = s.authorize(ctx, fromCarol(100, 32*86400))
		s.True(decision.Authorized)
	})
}

func (s *EngineSuite) TestReconfiguredCapsApplyImmediately() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleVolumeCaps)
	s.Require().NoError(s.modules.SetVolumeCaps(ctx, testAsset, modulemodels.VolumeCapsConfig{
		MaxSingleTx: 100,
	}))

	decision := s.authorize(ctx, s.transfer(150, 1000))
	s.Equal(ReasonMaxTxExceeded, decision.Reason)

	// Disable, re-enable with new parameters: the next evaluation must see
	// only the new values.
	s.disable(assetmodels.ModuleVolumeCaps)
	decision = s.authorize(ctx, s.transfer(150, 1000))
	s.True(decision.Authorized)

	s.enable(assetmodels.ModuleVolumeCaps)
	s.Require().NoError(s.modules.SetVolumeCaps(ctx, testAsset, modulemodels.VolumeCapsConfig{
		MaxSingleTx: 200,
	}))
	decision = s.authorize(ctx, s.transfer(150, 1000))
	s.True(decision.Authorized)

	decision = s.authorize(ctx, s.transfer(250, 1000))
	s.Equal(ReasonMaxTxExceeded, decision.Reason)
}

// =============================================================================
// Lockup
// =============================================================================

func (s *EngineSuite) TestLockup() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleLockup)

	schedule := modulemodels.LockupSchedule{Start: 0, Cliff: 50, End: 150, LinearVesting: true}
	s.Require().NoError(s.modules.SetLockup(ctx, testAsset, alice, schedule))
	s.ledger.SetPosition(testAsset, alice, 100)

	s.Run("before cliff everything is locked", func() {
		decision := s.authorize(ctx, s.transfer(1, 40))
		s.Equal(ReasonLockupActive, decision.Reason)
	})

	s.Run("midway at most half the position is transferable", func() {
		decision := s.authorize(ctx, s.transfer(50, 100))
		s.True(decision.Authorized)

		decision = s.authorize(ctx, s.transfer(51, 100))
		s.Equal(ReasonLockupActive, decision.Reason)
	})

	s.Run("after end no restriction", func() {
		decision := s.authorize(ctx, s.transfer(100, 150))
		s.True(decision.Authorized)
	})

	s.Run("non-linear locks the whole position until end", func() {
		s.Require().NoError(s.modules.SetLockup(ctx, testAsset, alice, modulemodels.LockupSchedule{
			Start: 0, Cliff: 50, End: 150,
		}))
		decision := s.authorize(ctx, s.transfer(1, 149))
		s.Equal(ReasonLockupActive, decision.Reason)
	})

	s.Run("sender without a schedule is unrestricted", func() {
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: bob, To: alice, Amount: 10, Timestamp: 40})
		s.True(decision.Authorized)
	})
}

// =============================================================================
// Allowlists
// =============================================================================

func (s *EngineSuite) TestAccountAllowlist() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleAccountAllowlist)

	s.Run("unconfigured list admits nobody", func() {
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonAccountNotAllowlisted, decision.Reason)
	})

	s.Run("listed recipient passes", func() {
		s.Require().NoError(s.modules.SetAccountAllowlist(ctx, testAsset, modulemodels.Allowlist{
			Members: []id.Identity{bob},
		}))
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.True(decision.Authorized)
	})

	s.Run("unlisted recipient denies", func() {
		s.register("carol")
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: alice, To: "carol", Amount: 1, Timestamp: 1000})
		s.Equal(ReasonAccountNotAllowlisted, decision.Reason)
	})
}

func (s *EngineSuite) TestProgramAllowlist() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleProgramAllowlist)
	s.Require().NoError(s.modules.SetProgramAllowlist(ctx, testAsset, modulemodels.Allowlist{
		Members: []id.Identity{"settlement-bridge"},
	}))

	s.Run("no invoking program denies", func() {
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonProgramNotAllowlisted, decision.Reason)
	})

	s.Run("listed program passes", func() {
		progCtx := requestcontext.WithProgram(ctx, "settlement-bridge")
		decision := s.authorize(progCtx, s.transfer(1, 1000))
		s.True(decision.Authorized)
	})

	s.Run("unlisted program denies", func() {
		progCtx := requestcontext.WithProgram(ctx, "rogue-program")
		decision := s.authorize(progCtx, s.transfer(1, 1000))
		s.Equal(ReasonProgramNotAllowlisted, decision.Reason)
	})
}

// =============================================================================
// Sanctions and Jurisdiction
// =============================================================================

func (s *EngineSuite) TestSanctions() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleSanctions)
	s.Require().NoError(s.modules.SetSanctions(ctx, testAsset, modulemodels.SanctionsList{
		Addresses: []id.Identity{bob},
	}))

	s.Run("sanctioned recipient denies", func() {
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonSanctioned, decision.Reason)
	})

	s.Run("sanctioned sender denies", func() {
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: bob, To: alice, Amount: 1, Timestamp: 1000})
		s.Equal(ReasonSanctioned, decision.Reason)
	})

	s.Run("clean parties pass", func() {
		s.register("carol")
		decision := s.authorize(ctx, TransferRequest{Asset: testAsset, From: alice, To: "carol", Amount: 1, Timestamp: 1000})
		s.True(decision.Authorized)
	})
}

func (s *EngineSuite) TestJurisdiction() {
	ctx := context.Background()
	s.enable(assetmodels.ModuleJurisdiction)
	s.Require().NoError(s.modules.SetJurisdiction(ctx, testAsset, modulemodels.JurisdictionConfig{
		Allow:  []uint16{840},
		Policy: modulemodels.JurisdictionAllowOnly,
	}))

	s.Run("sender without profile denies under allow-only", func() {
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonJurisdictionDenied, decision.Reason)
	})

	s.Run("allowed jurisdiction passes", func() {
		s.Require().NoError(s.modules.SetInvestorProfile(ctx, testAsset, alice, modulemodels.InvestorProfile{
			Jurisdiction: 840,
		}))
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.True(decision.Authorized)
	})

	s.Run("denied jurisdiction denies", func() {
		s.Require().NoError(s.modules.SetJurisdiction(ctx, testAsset, modulemodels.JurisdictionConfig{
			Deny:   []uint16{840},
			Policy: modulemodels.JurisdictionDenyOnly,
		}))
		decision := s.authorize(ctx, s.transfer(1, 1000))
		s.Equal(ReasonJurisdictionDenied, decision.Reason)
	})
}
