// Package service exposes one role-checked setter per module configuration
// record. Every setter replaces the full record rather than patching it, so
// repeated calls with the same payload are idempotent.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	assetmodels "crest/internal/asset/models"
	"crest/internal/moduleconfig/models"
	"crest/internal/moduleconfig/store"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/audit"
	"crest/pkg/platform/sentinel"
)

var ErrUnauthorized = dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the required role")

// ConfigSource supplies the asset's role triple for authorization checks.
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
		return nil, fmt.Errorf("module config store is required")
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

func (s *Service) authorize(ctx context.Context, caller id.Identity, asset id.AssetID) error {
	cfg, err := s.configs.Get(ctx, asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "asset not found")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "get asset config")
	}
	if !cfg.HasAnyRole(caller, assetmodels.RoleIssuerAdmin, assetmodels.RoleComplianceOfficer) {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) emit(ctx context.Context, asset id.AssetID, caller id.Identity, module assetmodels.ModuleID) {
	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionModuleConfigUpdated,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"module": module.String()},
	})
}

// SetJurisdiction replaces the jurisdiction allow/deny policy.
func (s *Service) SetJurisdiction(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.JurisdictionConfig) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetJurisdiction(ctx, asset, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set jurisdiction config")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleJurisdiction)
	return nil
}

// SetSanctions replaces the sanctions list.
func (s *Service) SetSanctions(ctx context.Context, caller id.Identity, asset id.AssetID, list models.SanctionsList) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetSanctions(ctx, asset, list); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set sanctions list")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleSanctions)
	return nil
}

// SetAccredited replaces the accreditation requirement flag.
func (s *Service) SetAccredited(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.AccreditedConfig) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetAccredited(ctx, asset, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set accredited config")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleAccredited)
	return nil
}

// SetLockup replaces one user's vesting schedule.
func (s *Service) SetLockup(ctx context.Context, caller id.Identity, asset id.AssetID, user id.Identity, schedule models.LockupSchedule) error {
	if user.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "user identity is required")
	}
	if err := schedule.Validate(); err != nil {
		return err
	}
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetLockup(ctx, asset, user, schedule); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set lockup schedule")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleLockup)
	return nil
}

// SetVolumeCaps replaces the volume cap configuration.
func (s *Service) SetVolumeCaps(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.VolumeCapsConfig) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetVolumeCaps(ctx, asset, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set volume caps")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleVolumeCaps)
	return nil
}

// SetTransferWindow replaces the hour/day restriction configuration.
func (s *Service) SetTransferWindow(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.TransferWindowConfig) error {
	for _, h := range cfg.AllowedHours {
		if h > 23 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "invalid hour %d", h)
		}
	}
	for _, d := range cfg.BlockedDays {
		if d > 6 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "invalid weekday %d", d)
		}
	}
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetTransferWindow(ctx, asset, cfg); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set transfer window")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleTransferWindow)
	return nil
}

// SetProgramAllowlist replaces the program allowlist.
func (s *Service) SetProgramAllowlist(ctx context.Context, caller id.Identity, asset id.AssetID, list models.Allowlist) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetProgramAllowlist(ctx, asset, list); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set program allowlist")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleProgramAllowlist)
	return nil
}

// SetAccountAllowlist replaces the account allowlist.
func (s *Service) SetAccountAllowlist(ctx context.Context, caller id.Identity, asset id.AssetID, list models.Allowlist) error {
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetAccountAllowlist(ctx, asset, list); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set account allowlist")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleAccountAllowlist)
	return nil
}

// SetInvestorProfile replaces one investor's profile.
func (s *Service) SetInvestorProfile(ctx context.Context, caller id.Identity, asset id.AssetID, user id.Identity, profile models.InvestorProfile) error {
	if user.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "user identity is required")
	}
	if err := s.authorize(ctx, caller, asset); err != nil {
		return err
	}
	if err := s.store.SetInvestorProfile(ctx, asset, user, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "set investor profile")
	}
	s.emit(ctx, asset, caller, assetmodels.ModuleInvestorLimits)
	return nil
}
