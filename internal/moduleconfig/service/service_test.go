package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	assetmodels "crest/internal/asset/models"
	assetstore "crest/internal/asset/store"
	"crest/internal/moduleconfig/models"
	"crest/internal/moduleconfig/store"
	id "crest/pkg/domain"
)

// =============================================================================
// Module Config Service Test Suite
// =============================================================================

const (
	testAsset id.AssetID  = "asset-1"
	admin     id.Identity = "admin-1"
	officer   id.Identity = "officer-1"
	agent     id.Identity = "agent-1"
	holder    id.Identity = "holder-1"
)

type ModuleConfigServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	service *Service
}

func TestModuleConfigServiceSuite(t *testing.T) {
	suite.Run(t, new(ModuleConfigServiceSuite))
}

func (s *ModuleConfigServiceSuite) SetupTest() {
	ctx := context.Background()

	s.store = store.NewInMemory()
	assets := assetstore.NewInMemory()

	cfg, err := assetmodels.NewAssetConfig(testAsset, assetmodels.Roles{
		IssuerAdmin:       admin,
		ComplianceOfficer: officer,
		TransferAgent:     agent,
	}, nil, assetmodels.TokenControls{})
	s.Require().NoError(err)
	s.Require().NoError(assets.Create(ctx, cfg))

	s.service, err = New(s.store, assets)
	s.Require().NoError(err)
}

func (s *ModuleConfigServiceSuite) TestAuthorization() {
	ctx := context.Background()

	s.Run("officer may configure", func() {
		s.NoError(s.service.SetSanctions(ctx, officer, testAsset, models.SanctionsList{}))
	})

	s.Run("transfer agent may not", func() {
		err := s.service.SetSanctions(ctx, agent, testAsset, models.SanctionsList{})
		s.ErrorIs(err, ErrUnauthorized)
	})

	s.Run("unknown asset not found", func() {
		err := s.service.SetSanctions(ctx, admin, "missing", models.SanctionsList{})
		s.Error(err)
	})
}

func (s *ModuleConfigServiceSuite) TestSettersReplaceFully() {
	ctx := context.Background()

	s.Require().NoError(s.service.SetSanctions(ctx, admin, testAsset, models.SanctionsList{
		Addresses: []id.Identity{"bad-1", "bad-2"},
	}))
	s.Require().NoError(s.service.SetSanctions(ctx, admin, testAsset, models.SanctionsList{
		Addresses: []id.Identity{"bad-3"},
	}))

	list, err := s.store.GetSanctions(ctx, testAsset)
	s.Require().NoError(err)
	s.Equal([]id.Identity{"bad-3"}, list.Addresses)
}

func (s *ModuleConfigServiceSuite) TestSetLockup() {
	ctx := context.Background()

	s.Run("valid schedule stored per user", func() {
		err := s.service.SetLockup(ctx, officer, testAsset, holder, models.LockupSchedule{
			Start: 0, Cliff: 10, End: 100, LinearVesting: true,
		})
		s.NoError(err)

		sched, err := s.store.GetLockup(ctx, testAsset, holder)
		s.Require().NoError(err)
		s.True(sched.LinearVesting)
	})

	s.Run("cliff before start rejected", func() {
		err := s.service.SetLockup(ctx, officer, testAsset, holder, models.LockupSchedule{
			Start: 50, Cliff: 10, End: 100,
		})
		s.Error(err)
	})

	s.Run("end before cliff rejected", func() {
		err := s.service.SetLockup(ctx, officer, testAsset, holder, models.LockupSchedule{
			Start: 0, Cliff: 50, End: 10,
		})
		s.Error(err)
	})
}

func (s *ModuleConfigServiceSuite) TestSetTransferWindow() {
	ctx := context.Background()

	s.Run("valid hours and days", func() {
		err := s.service.SetTransferWindow(ctx, admin, testAsset, models.TransferWindowConfig{
			AllowedHours: []uint8{9, 17},
			BlockedDays:  []uint8{0, 6},
		})
		s.NoError(err)
	})

	s.Run("hour out of range rejected", func() {
		err := s.service.SetTransferWindow(ctx, admin, testAsset, models.TransferWindowConfig{
			AllowedHours: []uint8{24},
		})
		s.Error(err)
	})

	s.Run("day out of range rejected", func() {
		err := s.service.SetTransferWindow(ctx, admin, testAsset, models.TransferWindowConfig{
			BlockedDays: []uint8{7},
		})
		s.Error(err)
	})
}

func (s *ModuleConfigServiceSuite) TestSetInvestorProfile() {
	ctx := context.Background()

	err := s.service.SetInvestorProfile(ctx, officer, testAsset, holder, models.InvestorProfile{
		Class:        models.ClassAccredited,
		Jurisdiction: 840,
	})
	s.NoError(err)

	profile, err := s.store.GetInvestorProfile(ctx, testAsset, holder)
	s.Require().NoError(err)
	s.Equal(uint16(840), profile.Jurisdiction)
}
