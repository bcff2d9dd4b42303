// Package store persists per-module configuration records, each addressable
// deterministically by (asset, module kind[, user]).
package store

import (
	"context"

	"crest/internal/moduleconfig/models"
	id "crest/pkg/domain"
)

// Store is the module configuration port. Getters return sentinel.ErrNotFound
// when a record was never configured; setters replace the full record
// (idempotent by construction). Records survive module disable.
type Store interface {
	GetJurisdiction(ctx context.Context, asset id.AssetID) (*models.JurisdictionConfig, error)
	SetJurisdiction(ctx context.Context, asset id.AssetID, cfg models.JurisdictionConfig) error

	GetSanctions(ctx context.Context, asset id.AssetID) (*models.SanctionsList, error)
	SetSanctions(ctx context.Context, asset id.AssetID, list models.SanctionsList) error

	GetAccredited(ctx context.Context, asset id.AssetID) (*models.AccreditedConfig, error)
	SetAccredited(ctx context.Context, asset id.AssetID, cfg models.AccreditedConfig) error

	GetLockup(ctx context.Context, asset id.AssetID, user id.Identity) (*models.LockupSchedule, error)
	SetLockup(ctx context.Context, asset id.AssetID, user id.Identity, schedule models.LockupSchedule) error

	GetVolumeCaps(ctx context.Context, asset id.AssetID) (*models.VolumeCapsConfig, error)
	SetVolumeCaps(ctx context.Context, asset id.AssetID, cfg models.VolumeCapsConfig) error

	GetTransferWindow(ctx context.Context, asset id.AssetID) (*models.TransferWindowConfig, error)
	SetTransferWindow(ctx context.Context, asset id.AssetID, cfg models.TransferWindowConfig) error

	GetProgramAllowlist(ctx context.Context, asset id.AssetID) (*models.Allowlist, error)
	SetProgramAllowlist(ctx context.Context, asset id.AssetID, list models.Allowlist) error

	GetAccountAllowlist(ctx context.Context, asset id.AssetID) (*models.Allowlist, error)
	SetAccountAllowlist(ctx context.Context, asset id.AssetID, list models.Allowlist) error

	GetInvestorProfile(ctx context.Context, asset id.AssetID, user id.Identity) (*models.InvestorProfile, error)
	SetInvestorProfile(ctx context.Context, asset id.AssetID, user id.Identity, profile models.InvestorProfile) error
}
