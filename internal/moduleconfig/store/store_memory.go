package store

import (
	"context"
	"sync"

	"crest/internal/moduleconfig/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// InMemoryStore keeps each record family in its own map. Values are stored
// and returned by value, so callers can never alias live state.
type InMemoryStore struct {
	mu            sync.RWMutex
	jurisdictions map[id.AssetID]models.JurisdictionConfig
	sanctions     map[id.AssetID]models.SanctionsList
	accredited    map[id.AssetID]models.AccreditedConfig
	lockups       map[userKey]models.LockupSchedule
	volumeCaps    map[id.AssetID]models.VolumeCapsConfig
	windows       map[id.AssetID]models.TransferWindowConfig
	programs      map[id.AssetID]models.Allowlist
	accounts      map[id.AssetID]models.Allowlist
	profiles      map[userKey]models.InvestorProfile
}

type userKey struct {
	asset id.AssetID
	user  id.Identity
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		jurisdictions: make(map[id.AssetID]models.JurisdictionConfig),
		sanctions:     make(map[id.AssetID]models.SanctionsList),
		accredited:    make(map[id.AssetID]models.AccreditedConfig),
		lockups:       make(map[userKey]models.LockupSchedule),
		volumeCaps:    make(map[id.AssetID]models.VolumeCapsConfig),
		windows:       make(map[id.AssetID]models.TransferWindowConfig),
		programs:      make(map[id.AssetID]models.Allowlist),
		accounts:      make(map[id.AssetID]models.Allowlist),
		profiles:      make(map[userKey]models.InvestorProfile),
	}
}

func getAsset[T any](s *InMemoryStore, m map[id.AssetID]T, asset id.AssetID) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := m[asset]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func setAsset[T any](s *InMemoryStore, m map[id.AssetID]T, asset id.AssetID, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m[asset] = v
	return nil
}

func getUser[T any](s *InMemoryStore, m map[userKey]T, asset id.AssetID, user id.Identity) (*T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := m[userKey{asset, user}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &v, nil
}

func setUser[T any](s *InMemoryStore, m map[userKey]T, asset id.AssetID, user id.Identity, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m[userKey{asset, user}] = v
	return nil
}

func (s *InMemoryStore) GetJurisdiction(_ context.Context, asset id.AssetID) (*models.JurisdictionConfig, error) {
	return getAsset(s, s.jurisdictions, asset)
}

func (s *InMemoryStore) SetJurisdiction(_ context.Context, asset id.AssetID, cfg models.JurisdictionConfig) error {
	return setAsset(s, s.jurisdictions, asset, cfg)
}

func (s *InMemoryStore) GetSanctions(_ context.Context, asset id.AssetID) (*models.SanctionsList, error) {
	return getAsset(s, s.sanctions, asset)
}

func (s *InMemoryStore) SetSanctions(_ context.Context, asset id.AssetID, list models.SanctionsList) error {
	return setAsset(s, s.sanctions, asset, list)
}

func (s *InMemoryStore) GetAccredited(_ context.Context, asset id.AssetID) (*models.AccreditedConfig, error) {
	return getAsset(s, s.accredited, asset)
}

func (s *InMemoryStore) SetAccredited(_ context.Context, asset id.AssetID, cfg models.AccreditedConfig) error {
	return setAsset(s, s.accredited, asset, cfg)
}

func (s *InMemoryStore) GetLockup(_ context.Context, asset id.AssetID, user id.Identity) (*models.LockupSchedule, error) {
	return getUser(s, s.lockups, asset, user)
}

func (s *InMemoryStore) SetLockup(_ context.Context, asset id.AssetID, user id.Identity, schedule models.LockupSchedule) error {
	return setUser(s, s.lockups, asset, user, schedule)
}

func (s *InMemoryStore) GetVolumeCaps(_ context.Context, asset id.AssetID) (*models.VolumeCapsConfig, error) {
	return getAsset(s, s.volumeCaps, asset)
}

func (s *InMemoryStore) SetVolumeCaps(_ context.Context, asset id.AssetID, cfg models.VolumeCapsConfig) error {
	return setAsset(s, s.volumeCaps, asset, cfg)
}

func (s *InMemoryStore) GetTransferWindow(_ context.Context, asset id.AssetID) (*models.TransferWindowConfig, error) {
	return getAsset(s, s.windows, asset)
}

func (s *InMemoryStore) SetTransferWindow(_ context.Context, asset id.AssetID, cfg models.TransferWindowConfig) error {
	return setAsset(s, s.windows, asset, cfg)
}

func (s *InMemoryStore) GetProgramAllowlist(_ context.Context, asset id.AssetID) (*models.Allowlist, error) {
	return getAsset(s, s.programs, asset)
}

func (s *InMemoryStore) SetProgramAllowlist(_ context.Context, asset id.AssetID, list models.Allowlist) error {
	return setAsset(s, s.programs, asset, list)
}

func (s *InMemoryStore) GetAccountAllowlist(_ context.Context, asset id.AssetID) (*models.Allowlist, error) {
	return getAsset(s, s.accounts, asset)
}

func (s *InMemoryStore) SetAccountAllowlist(_ context.Context, asset id.AssetID, list models.Allowlist) error {
	return setAsset(s, s.accounts, asset, list)
}

func (s *InMemoryStore) GetInvestorProfile(_ context.Context, asset id.AssetID, user id.Identity) (*models.InvestorProfile, error) {
	return getUser(s, s.profiles, asset, user)
}

func (s *InMemoryStore) SetInvestorProfile(_ context.Context, asset id.AssetID, user id.Identity, profile models.InvestorProfile) error {
	return setUser(s, s.profiles, asset, user, profile)
}
