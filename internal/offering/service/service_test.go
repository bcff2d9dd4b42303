package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	assetmodels "crest/internal/asset/models"
	assetstore "crest/internal/asset/store"
	"crest/internal/offering/models"
	"crest/internal/offering/store"
	id "crest/pkg/domain"
)

// =============================================================================
// Offering Service Test Suite
// =============================================================================
// Justification for unit tests: the phase state machine and the subscription
// admission rules (min ticket, caps, investor count) are order-sensitive and
// must reject out-of-order transitions rather than no-op.

const (
	testAsset id.AssetID  = "asset-1"
	admin     id.Identity = "admin-1"
	agent     id.Identity = "agent-1"
	investor  id.Identity = "investor-1"
)

type OfferingServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	assets  *assetstore.InMemoryStore
	service *Service
}

func TestOfferingServiceSuite(t *testing.T) {
	suite.Run(t, new(OfferingServiceSuite))
}

func (s *OfferingServiceSuite) SetupTest() {
	ctx := context.Background()

	s.store = store.NewInMemory()
	s.assets = assetstore.NewInMemory()

	cfg, err := assetmodels.NewAssetConfig(testAsset, assetmodels.Roles{
		IssuerAdmin:   admin,
		TransferAgent: agent,
	}, nil, assetmodels.TokenControls{})
	s.Require().NoError(err)
	s.Require().NoError(s.assets.Create(ctx, cfg))

	s.service, err = New(s.store, s.assets)
	s.Require().NoError(err)
}

func (s *OfferingServiceSuite) create(rules models.Rules, target models.Target) {
	_, err := s.service.Create(context.Background(), admin, CreateParams{
		Asset:        testAsset,
		Target:       target,
		Pricing:      models.Pricing{Model: models.PricingFixed, UnitPrice: 1, Currency: assetmodels.CurrencyUSD},
		Rules:        rules,
		Distribution: models.DistributionFCFS,
	})
	s.Require().NoError(err)
}

// =============================================================================
// Creation
// =============================================================================

func (s *OfferingServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("only issuer admin may create", func() {
		_, err := s.service.Create(ctx, agent, CreateParams{Asset: testAsset})
		s.ErrorIs(err, ErrUnauthorized)
	})

	s.Run("creates in draft", func() {
		s.create(models.Rules{}, models.Target{SoftCap: 10, HardCap: 100})
		offering, err := s.service.Get(ctx, testAsset)
		s.Require().NoError(err)
		s.Equal(models.PhaseDraft, offering.Phase)
	})

	s.Run("duplicate conflicts", func() {
		_, err := s.service.Create(ctx, admin, CreateParams{
			Asset:   testAsset,
			Pricing: models.Pricing{Model: models.PricingFixed, UnitPrice: 1, Currency: assetmodels.CurrencyUSD},
		})
		s.ErrorIs(err, ErrOfferingExists)
	})

	s.Run("soft cap above hard cap rejected", func() {
		cfg, err := assetmodels.NewAssetConfig("asset-2", assetmodels.Roles{IssuerAdmin: admin}, nil, assetmodels.TokenControls{})
		s.Require().NoError(err)
		s.Require().NoError(s.assets.Create(ctx, cfg))

		_, err = s.service.Create(ctx, admin, CreateParams{
			Asset:   "asset-2",
			Target:  models.Target{SoftCap: 200, HardCap: 100},
			Pricing: models.Pricing{Model: models.PricingFixed, UnitPrice: 1, Currency: assetmodels.CurrencyUSD},
		})
		s.Error(err)
	})
}

// =============================================================================
// Phase State Machine
// =============================================================================

func (s *OfferingServiceSuite) TestTransitions() {
	ctx := context.Background()
	s.create(models.Rules{}, models.Target{})

	s.Run("full lifecycle in order", func() {
		s.NoError(s.service.Open(ctx, admin, testAsset))
		s.NoError(s.service.Lock(ctx, agent, testAsset))
		s.NoError(s.service.Close(ctx, agent, testAsset))
		s.NoError(s.service.Settle(ctx, admin, testAsset))

		offering, err := s.service.Get(ctx, testAsset)
		s.Require().NoError(err)
		s.Equal(models.PhaseSettlement, offering.Phase)
	})

	s.Run("out-of-order transition fails, never no-ops", func() {
		s.ErrorIs(s.service.Open(ctx, admin, testAsset), ErrInvalidPhase)

		offering, err := s.service.Get(ctx, testAsset)
		s.Require().NoError(err)
		s.Equal(models.PhaseSettlement, offering.Phase)
	})

	s.Run("refund reachable from settlement", func() {
		s.NoError(s.service.MarkRefund(ctx, admin, testAsset))
	})

	s.Run("refund is terminal", func() {
		s.ErrorIs(s.service.MarkRefund(ctx, admin, testAsset), ErrInvalidPhase)
	})
}

func (s *OfferingServiceSuite) TestPreOffer() {
	ctx := context.Background()
	s.create(models.Rules{}, models.Target{})

	s.Run("agent may not announce", func() {
		s.ErrorIs(s.service.MarkPreOffer(ctx, agent, testAsset), ErrUnauthorized)
	})

	s.Run("draft moves to pre-offer", func() {
		s.NoError(s.service.MarkPreOffer(ctx, admin, testAsset))

		offering, err := s.service.Get(ctx, testAsset)
		s.Require().NoError(err)
		s.Equal(models.PhasePreOffer, offering.Phase)
	})

	s.Run("pre-offer opens the book", func() {
		s.NoError(s.service.Open(ctx, admin, testAsset))
	})

	s.Run("cannot re-enter pre-offer once open", func() {
		s.ErrorIs(s.service.MarkPreOffer(ctx, admin, testAsset), ErrInvalidPhase)
	})
}

func (s *OfferingServiceSuite) TestTransitionRoles() {
	ctx := context.Background()
	s.create(models.Rules{}, models.Target{})

	s.Run("agent may not open", func() {
		s.ErrorIs(s.service.Open(ctx, agent, testAsset), ErrUnauthorized)
	})

	s.Run("outsider may not lock", func() {
		s.Require().NoError(s.service.Open(ctx, admin, testAsset))
		s.ErrorIs(s.service.Lock(ctx, "outsider", testAsset), ErrUnauthorized)
	})
}

// =============================================================================
// Subscriptions
// =============================================================================

func (s *OfferingServiceSuite) TestSubscribe() {
	ctx := context.Background()
	s.create(models.Rules{MinTicket: 10, PerInvestorCap: 100, MaxInvestors: 2},
		models.Target{SoftCap: 50, HardCap: 150})

	s.Run("closed book rejects subscriptions", func() {
		_, err := s.service.Subscribe(ctx, investor, testAsset, 20)
		s.ErrorIs(err, ErrNotOpen)
	})

	s.Require().NoError(s.service.Open(ctx, admin, testAsset))

	s.Run("below min ticket rejected", func() {
		_, err := s.service.Subscribe(ctx, investor, testAsset, 5)
		s.ErrorIs(err, ErrBelowMinTicket)
	})

	s.Run("commitment recorded", func() {
		sub, err := s.service.Subscribe(ctx, investor, testAsset, 60)
		s.Require().NoError(err)
		s.Equal(uint64(60), sub.Committed)
		s.Equal(models.SubscriptionPending, sub.Status)

		offering, err := s.service.Get(ctx, testAsset)
		s.Require().NoError(err)
		s.Equal(uint64(60), offering.Funding.Raised)
		s.Equal(uint32(1), offering.Funding.Investors)
	})

	s.Run("per-investor cap is cumulative", func() {
		_, err := s.service.Subscribe(ctx, investor, testAsset, 50)
		s.ErrorIs(err, ErrAboveInvestorCap)

		sub, err := s.service.Subscribe(ctx, investor, testAsset, 40)
		s.Require().NoError(err)
		s.Equal(uint64(100), sub.Committed)
	})

	s.Run("hard cap bounds total raise", func() {
		_, err := s.service.Subscribe(ctx, "investor-2", testAsset, 60)
		s.ErrorIs(err, ErrHardCapReached)

		_, err = s.service.Subscribe(ctx, "investor-2", testAsset, 40)
		s.NoError(err)
	})

	s.Run("max investors enforced for new investors", func() {
		_, err := s.service.Subscribe(ctx, "investor-3", testAsset, 10)
		s.ErrorIs(err, ErrMaxInvestors)
	})

	s.Run("zero amount rejected", func() {
		_, err := s.service.Subscribe(ctx, investor, testAsset, 0)
		s.Error(err)
	})
}

func (s *OfferingServiceSuite) TestSubscribeConcurrentSameInvestor() {
	ctx := context.Background()
	s.create(models.Rules{PerInvestorCap: 100}, models.Target{HardCap: 1000})
	s.Require().NoError(s.service.Open(ctx, admin, testAsset))

	// Two simultaneous commitments from the same investor must serialize:
	// the second sees the first's cumulative commitment and trips the cap.
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Subscribe(ctx, investor, testAsset, 60)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var rejected int
	for err := range errs {
		if err != nil {
			s.ErrorIs(err, ErrAboveInvestorCap)
			rejected++
		}
	}
	s.Equal(1, rejected)

	offering, err := s.service.Get(ctx, testAsset)
	s.Require().NoError(err)
	s.Equal(uint64(60), offering.Funding.Raised)
	s.Equal(uint32(1), offering.Funding.Investors)

	sub, err := s.store.GetSubscription(ctx, testAsset, investor)
	s.Require().NoError(err)
	s.Equal(uint64(60), sub.Committed)
}

func (s *OfferingServiceSuite) TestRefund() {
	ctx := context.Background()
	s.create(models.Rules{}, models.Target{})
	s.Require().NoError(s.service.Open(ctx, admin, testAsset))

	_, err := s.service.Subscribe(ctx, investor, testAsset, 25)
	s.Require().NoError(err)

	s.Run("refund outside refund phase rejected", func() {
		s.ErrorIs(s.service.Refund(ctx, admin, testAsset, investor), ErrNotRefunding)
	})

	s.Require().NoError(s.service.MarkRefund(ctx, admin, testAsset))

	s.Run("marks subscription refunded, idempotently", func() {
		s.NoError(s.service.Refund(ctx, admin, testAsset, investor))

		sub, err := s.store.GetSubscription(ctx, testAsset, investor)
		s.Require().NoError(err)
		s.Equal(models.SubscriptionRefunded, sub.Status)

		s.NoError(s.service.Refund(ctx, admin, testAsset, investor))
	})

	s.Run("unknown subscription not found", func() {
		err := s.service.Refund(ctx, admin, testAsset, "investor-9")
		s.Error(err)
	})

	s.Run("outsider may not refund", func() {
		err := s.service.Refund(ctx, "outsider", testAsset, investor)
		s.ErrorIs(err, ErrUnauthorized)
	})
}
