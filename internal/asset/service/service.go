// Package service implements the administrative operations on an asset's
// compliance configuration: module registry (enable/disable), pause, role
// rotation, trusted issuers, required topics, and oracle config. Every
// operation is role-checked against the aggregate's role triple and either
// fully applies or fully fails.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"crest/internal/asset/models"
	"crest/internal/asset/store"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/audit"
	"crest/pkg/platform/sentinel"
)

// Administrative errors surfaced to callers. Returned unwrapped so callers
// can compare with errors.Is.
var (
	ErrUnauthorized         = dErrors.New(dErrors.CodeUnauthorized, "caller does not hold the required role")
	ErrModuleAlreadyEnabled = dErrors.New(dErrors.CodeConflict, "module already enabled")
	ErrModuleNotEnabled     = dErrors.New(dErrors.CodeInvalidState, "module not enabled")
	ErrAssetNotFound        = dErrors.New(dErrors.CodeNotFound, "asset not found")
	ErrAssetExists          = dErrors.New(dErrors.CodeConflict, "asset already exists")
)

type Service struct {
	store  store.Store
	logger *slog.Logger
	pub    audit.Publisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("asset store is required")
	}
	svc := &Service{store: st}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateParams carries the issuance-time configuration for a new asset.
type CreateParams struct {
	Asset          id.AssetID
	Roles          models.Roles
	RequiredTopics []uint32
	TrustedIssuers []models.TrustedIssuer
	TokenControls  models.TokenControls
	MetadataURI    string
}

// Create initializes the compliance aggregate for a new asset.
func (s *Service) Create(ctx context.Context, caller id.Identity, p CreateParams) (*models.AssetConfig, error) {
	if caller.IsZero() {
		return nil, ErrUnauthorized
	}
	cfg, err := models.NewAssetConfig(p.Asset, p.Roles, p.RequiredTopics, p.TokenControls)
	if err != nil {
		return nil, err
	}
	cfg.TrustedIssuers = append([]models.TrustedIssuer(nil), p.TrustedIssuers...)
	cfg.MetadataURI = p.MetadataURI

	if err := s.store.Create(ctx, cfg); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, ErrAssetExists
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "create asset config")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:     audit.ActionAssetCreated,
		Asset:      p.Asset,
		Actor:      caller,
		OccurredAt: cfg.CreatedAt,
	})
	return cfg, nil
}

// Get returns the aggregate snapshot.
func (s *Service) Get(ctx context.Context, asset id.AssetID) (*models.AssetConfig, error) {
	cfg, err := s.store.Get(ctx, asset)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get asset config")
	}
	return cfg, nil
}

// EnableModule adds a module to the enabled set and stores its parameters.
// Fails with ErrModuleAlreadyEnabled when present; the enabled set never
// holds duplicates.
func (s *Service) EnableModule(ctx context.Context, caller id.Identity, asset id.AssetID, module models.ModuleID, params []byte) error {
	if !module.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid module id %d", module)
	}
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasAnyRole(caller, models.RoleIssuerAdmin, models.RoleComplianceOfficer) {
			return ErrUnauthorized
		}
		if cfg.EnabledModules.Has(module) {
			return ErrModuleAlreadyEnabled
		}
		cfg.EnabledModules = cfg.EnabledModules.With(module)
		cfg.ModuleParams[module] = append([]byte(nil), params...)
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionModuleEnabled,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"module": module.String()},
	})
	return nil
}

// DisableModule removes a module from the enabled set and purges its
// parameters, so a later enable must resupply them.
func (s *Service) DisableModule(ctx context.Context, caller id.Identity, asset id.AssetID, module models.ModuleID) error {
	if !module.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid module id %d", module)
	}
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasAnyRole(caller, models.RoleIssuerAdmin, models.RoleComplianceOfficer) {
			return ErrUnauthorized
		}
		if !cfg.EnabledModules.Has(module) {
			return ErrModuleNotEnabled
		}
		cfg.EnabledModules = cfg.EnabledModules.Without(module)
		delete(cfg.ModuleParams, module)
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionModuleDisabled,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"module": module.String()},
	})
	return nil
}

// SetPaused flips the global pause flag.
func (s *Service) SetPaused(ctx context.Context, caller id.Identity, asset id.AssetID, paused bool) error {
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasAnyRole(caller, models.RoleIssuerAdmin, models.RoleComplianceOfficer) {
			return ErrUnauthorized
		}
		cfg.Paused = paused
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionPausedSet,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"paused": paused},
	})
	return nil
}

// RotateRole replaces one role holder. Issuer admin only.
func (s *Service) RotateRole(ctx context.Context, caller id.Identity, asset id.AssetID, role models.RoleType, next id.Identity) error {
	if !role.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid role type %q", role)
	}
	if next.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "new role identity is required")
	}
	var previous id.Identity
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasRole(caller, models.RoleIssuerAdmin) {
			return ErrUnauthorized
		}
		switch role {
		case models.RoleIssuerAdmin:
			previous, cfg.Roles.IssuerAdmin = cfg.Roles.IssuerAdmin, next
		case models.RoleComplianceOfficer:
			previous, cfg.Roles.ComplianceOfficer = cfg.Roles.ComplianceOfficer, next
		case models.RoleTransferAgent:
			previous, cfg.Roles.TransferAgent = cfg.Roles.TransferAgent, next
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionRoleRotated,
		Asset:   asset,
		Actor:   caller,
		Subject: next,
		Detail:  map[string]any{"role": string(role), "previous": previous.String()},
	})
	return nil
}

// UpdateTrustedIssuer adds or removes one (topic, issuer) trust entry.
// Both directions are idempotent.
func (s *Service) UpdateTrustedIssuer(ctx context.Context, caller id.Identity, asset id.AssetID, topic uint32, issuer id.Identity, add bool) error {
	if issuer.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "issuer identity is required")
	}
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasAnyRole(caller, models.RoleIssuerAdmin, models.RoleComplianceOfficer) {
			return ErrUnauthorized
		}
		entry := models.TrustedIssuer{Topic: topic, Issuer: issuer}
		idx := -1
		for i, e := range cfg.TrustedIssuers {
			if e == entry {
				idx = i
				break
			}
		}
		switch {
		case add && idx < 0:
			cfg.TrustedIssuers = append(cfg.TrustedIssuers, entry)
		case !add && idx >= 0:
			cfg.TrustedIssuers = append(cfg.TrustedIssuers[:idx], cfg.TrustedIssuers[idx+1:]...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionTrustedIssuerUpdated,
		Asset:   asset,
		Actor:   caller,
		Subject: issuer,
		Detail:  map[string]any{"topic": topic, "added": add},
	})
	return nil
}

// SetOracleConfig replaces the oracle/NAV reference config. Issuer admin only.
func (s *Service) SetOracleConfig(ctx context.Context, caller id.Identity, asset id.AssetID, oracle models.OracleConfig) error {
	if oracle.BaseCurrency != "" && !oracle.BaseCurrency.IsValid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "invalid base currency %q", oracle.BaseCurrency)
	}
	err := s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasRole(caller, models.RoleIssuerAdmin) {
			return ErrUnauthorized
		}
		cfg.Oracle = oracle
		return nil
	})
	if err != nil {
		return err
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action: audit.ActionOracleConfigUpdated,
		Asset:  asset,
		Actor:  caller,
		Detail: map[string]any{"feeds": len(oracle.Feeds)},
	})
	return nil
}

// SetRequiredTopics replaces the required claim topic set.
func (s *Service) SetRequiredTopics(ctx context.Context, caller id.Identity, asset id.AssetID, topics []uint32) error {
	return s.update(ctx, asset, func(cfg *models.AssetConfig) error {
		if !cfg.HasAnyRole(caller, models.RoleIssuerAdmin, models.RoleComplianceOfficer) {
			return ErrUnauthorized
		}
		cfg.RequiredTopics = append([]uint32(nil), topics...)
		return nil
	})
}

func (s *Service) update(ctx context.Context, asset id.AssetID, mutate func(*models.AssetConfig) error) error {
	err := s.store.Update(ctx, asset, mutate)
	if errors.Is(err, sentinel.ErrNotFound) {
		return ErrAssetNotFound
	}
	var de *dErrors.Error
	if err != nil && !errors.As(err, &de) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "update asset config")
	}
	return err
}
