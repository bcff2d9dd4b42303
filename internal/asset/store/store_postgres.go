package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crest/internal/asset/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// PostgresStore persists aggregates as one JSONB document per asset.
//
// Schema:
//
//	CREATE TABLE asset_configs (
//	    asset_id   TEXT PRIMARY KEY,
//	    config     JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cfg *models.AssetConfig) error {
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal asset config: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO asset_configs (asset_id, config, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (asset_id) DO NOTHING`,
		cfg.Asset.String(), doc, cfg.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert asset config: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert asset config: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, asset id.AssetID) (*models.AssetConfig, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM asset_configs WHERE asset_id = $1`,
		asset.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select asset config: %w", err)
	}
	var cfg models.AssetConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal asset config: %w", err)
	}
	if cfg.ModuleParams == nil {
		cfg.ModuleParams = make(map[models.ModuleID][]byte)
	}
	return &cfg, nil
}

// Update runs the mutation inside a transaction with the row locked, so the
// read-modify-write is atomic across instances.
func (s *PostgresStore) Update(ctx context.Context, asset id.AssetID, mutate func(*models.AssetConfig) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT config FROM asset_configs WHERE asset_id = $1 FOR UPDATE`,
		asset.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select asset config for update: %w", err)
	}

	var cfg models.AssetConfig
	if err := json.Unmarshal(doc, &cfg); err != nil {
		return fmt.Errorf("unmarshal asset config: %w", err)
	}
	if cfg.ModuleParams == nil {
		cfg.ModuleParams = make(map[models.ModuleID][]byte)
	}

	if err := mutate(&cfg); err != nil {
		return err
	}
	cfg.UpdatedAt = time.Now().UTC()

	next, err := json.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal asset config: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE asset_configs SET config = $2, updated_at = $3 WHERE asset_id = $1`,
		asset.String(), next, cfg.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update asset config: %w", err)
	}
	return tx.Commit()
}
