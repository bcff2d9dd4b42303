package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crest/internal/moduleconfig/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// PostgresStore persists every record family in one table, addressed by
// (asset_id, module_kind, user_id); user_id is '' for asset-scoped records.
//
// Schema:
//
//	CREATE TABLE module_configs (
//	    asset_id    TEXT NOT NULL,
//	    module_kind TEXT NOT NULL,
//	    user_id     TEXT NOT NULL DEFAULT '',
//	    record      JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (asset_id, module_kind, user_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	kindJurisdiction     = "jurisdiction"
	kindSanctions        = "sanctions"
	kindAccredited       = "accredited"
	kindLockup           = "lockup"
	kindVolumeCaps       = "volume_caps"
	kindTransferWindow   = "transfer_window"
	kindProgramAllowlist = "program_allowlist"
	kindAccountAllowlist = "account_allowlist"
	kindInvestorProfile  = "investor_profile"
)

func (s *PostgresStore) get(ctx context.Context, asset id.AssetID, kind string, user id.Identity, out any) error {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT record FROM module_configs
		 WHERE asset_id = $1 AND module_kind = $2 AND user_id = $3`,
		asset.String(), kind, user.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select %s config: %w", kind, err)
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("unmarshal %s config: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) set(ctx context.Context, asset id.AssetID, kind string, user id.Identity, record any) error {
	doc, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal %s config: %w", kind, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO module_configs (asset_id, module_kind, user_id, record, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (asset_id, module_kind, user_id)
		 DO UPDATE SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`,
		asset.String(), kind, user.String(), doc, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert %s config: %w", kind, err)
	}
	return nil
}

func (s *PostgresStore) GetJurisdiction(ctx context.Context, asset id.AssetID) (*models.JurisdictionConfig, error) {
	var cfg models.JurisdictionConfig
	if err := s.get(ctx, asset, kindJurisdiction, "", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresStore) SetJurisdiction(ctx context.Context, asset id.AssetID, cfg models.JurisdictionConfig) error {
	return s.set(ctx, asset, kindJurisdiction, "", cfg)
}

func (s *PostgresStore) GetSanctions(ctx context.Context, asset id.AssetID) (*models.SanctionsList, error) {
	var list models.SanctionsList
	if err := s.get(ctx, asset, kindSanctions, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *PostgresStore) SetSanctions(ctx context.Context, asset id.AssetID, list models.SanctionsList) error {
	return s.set(ctx, asset, kindSanctions, "", list)
}

func (s *PostgresStore) GetAccredited(ctx context.Context, asset id.AssetID) (*models.AccreditedConfig, error) {
	var cfg models.AccreditedConfig
	if err := s.get(ctx, asset, kindAccredited, "", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresStore) SetAccredited(ctx context.Context, asset id.AssetID, cfg models.AccreditedConfig) error {
	return s.set(ctx, asset, kindAccredited, "", cfg)
}

func (s *PostgresStore) GetLockup(ctx context.Context, asset id.AssetID, user id.Identity) (*models.LockupSchedule, error) {
	var schedule models.LockupSchedule
	if err := s.get(ctx, asset, kindLockup, user, &schedule); err != nil {
		return nil, err
	}
	return &schedule, nil
}

func (s *PostgresStore) SetLockup(ctx context.Context, asset id.AssetID, user id.Identity, schedule models.LockupSchedule) error {
	return s.set(ctx, asset, kindLockup, user, schedule)
}

func (s *PostgresStore) GetVolumeCaps(ctx context.Context, asset id.AssetID) (*models.VolumeCapsConfig, error) {
	var cfg models.VolumeCapsConfig
	if err := s.get(ctx, asset, kindVolumeCaps, "", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresStore) SetVolumeCaps(ctx context.Context, asset id.AssetID, cfg models.VolumeCapsConfig) error {
	return s.set(ctx, asset, kindVolumeCaps, "", cfg)
}

func (s *PostgresStore) GetTransferWindow(ctx context.Context, asset id.AssetID) (*models.TransferWindowConfig, error) {
	var cfg models.TransferWindowConfig
	if err := s.get(ctx, asset, kindTransferWindow, "", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresStore) SetTransferWindow(ctx context.Context, asset id.AssetID, cfg models.TransferWindowConfig) error {
	return s.set(ctx, asset, kindTransferWindow, "", cfg)
}

func (s *PostgresStore) GetProgramAllowlist(ctx context.Context, asset id.AssetID) (*models.Allowlist, error) {
	var list models.Allowlist
	if err := s.get(ctx, asset, kindProgramAllowlist, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *PostgresStore) SetProgramAllowlist(ctx context.Context, asset id.AssetID, list models.Allowlist) error {
	return s.set(ctx, asset, kindProgramAllowlist, "", list)
}

func (s *PostgresStore) GetAccountAllowlist(ctx context.Context, asset id.AssetID) (*models.Allowlist, error) {
	var list models.Allowlist
	if err := s.get(ctx, asset, kindAccountAllowlist, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

func (s *PostgresStore) SetAccountAllowlist(ctx context.Context, asset id.AssetID, list models.Allowlist) error {
	return s.set(ctx, asset, kindAccountAllowlist, "", list)
}

func (s *PostgresStore) GetInvestorProfile(ctx context.Context, asset id.AssetID, user id.Identity) (*models.InvestorProfile, error) {
	var profile models.InvestorProfile
	if err := s.get(ctx, asset, kindInvestorProfile, user, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *PostgresStore) SetInvestorProfile(ctx context.Context, asset id.AssetID, user id.Identity, profile models.InvestorProfile) error {
	return s.set(ctx, asset, kindInvestorProfile, user, profile)
}
