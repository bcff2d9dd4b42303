package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"crest/internal/asset/models"
	"crest/pkg/platform/sentinel"
)

type AssetStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestAssetStoreSuite(t *testing.T) {
	suite.Run(t, new(AssetStoreSuite))
}

func (s *AssetStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AssetStoreSuite) newConfig() *models.AssetConfig {
	cfg, err := models.NewAssetConfig("asset-1", models.Roles{
		IssuerAdmin: "admin-1",
	}, []uint32{1}, models.TokenControls{})
	s.Require().NoError(err)
	return cfg
}

func (s *AssetStoreSuite) TestCreationAndLookups() {
	s.Run("creates and retrieves", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newConfig()))

		found, err := s.store.Get(s.ctx, "asset-1")
		s.Require().NoError(err)
		s.Equal(models.Roles{IssuerAdmin: "admin-1"}, found.Roles)
	})

	s.Run("conflicts on duplicate asset", func() {
		err := s.store.Create(s.ctx, s.newConfig())
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("not found for unknown asset", func() {
		_, err := s.store.Get(s.ctx, "ghost")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AssetStoreSuite) TestSnapshotIsolation() {
	s.Require().NoError(s.store.Create(s.ctx, s.newConfig()))

	// Mutating a returned snapshot must not leak into stored state.
	snap, err := s.store.Get(s.ctx, "asset-1")
	s.Require().NoError(err)
	snap.RequiredTopics[0] = 99
	snap.Paused = true

	fresh, err := s.store.Get(s.ctx, "asset-1")
	s.Require().NoError(err)
	s.Equal(uint32(1), fresh.RequiredTopics[0])
	s.False(fresh.Paused)
}

func (s *AssetStoreSuite) TestUpdate() {
	s.Require().NoError(s.store.Create(s.ctx, s.newConfig()))

	s.Run("applies mutation atomically", func() {
		err := s.store.Update(s.ctx, "asset-1", func(cfg *models.AssetConfig) error {
			cfg.EnabledModules = cfg.EnabledModules.With(models.ModuleSanctions)
			return nil
		})
		s.Require().NoError(err)

		found, err := s.store.Get(s.ctx, "asset-1")
		s.Require().NoError(err)
		s.True(found.EnabledModules.Has(models.ModuleSanctions))
	})

	s.Run("failed mutation leaves state untouched", func() {
		boom := errors.New("boom")
		err := s.store.Update(s.ctx, "asset-1", func(cfg *models.AssetConfig) error {
			cfg.Paused = true
			return boom
		})
		s.ErrorIs(err, boom)

		found, err := s.store.Get(s.ctx, "asset-1")
		s.Require().NoError(err)
		s.False(found.Paused)
	})

	s.Run("not found for unknown asset", func() {
		err := s.store.Update(s.ctx, "ghost", func(*models.AssetConfig) error { return nil })
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}
