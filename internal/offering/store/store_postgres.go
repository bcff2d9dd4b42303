package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"crest/internal/offering/models"
	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// PostgresStore persists offerings and subscriptions as JSONB documents.
//
// Schema:
//
//	CREATE TABLE offerings (
//	    asset_id   TEXT PRIMARY KEY,
//	    state      JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE subscriptions (
//	    asset_id    TEXT NOT NULL,
//	    investor_id TEXT NOT NULL,
//	    state       JSONB NOT NULL,
//	    updated_at  TIMESTAMPTZ NOT NULL,
//	    PRIMARY KEY (asset_id, investor_id)
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, offering *models.Offering) error {
	doc, err := json.Marshal(offering)
	if err != nil {
		return fmt.Errorf("marshal offering: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO offerings (asset_id, state, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (asset_id) DO NOTHING`,
		offering.Asset.String(), doc, offering.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert offering: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert offering: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, asset id.AssetID) (*models.Offering, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM offerings WHERE asset_id = $1`,
		asset.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select offering: %w", err)
	}
	var offering models.Offering
	if err := json.Unmarshal(doc, &offering); err != nil {
		return nil, fmt.Errorf("unmarshal offering: %w", err)
	}
	return &offering, nil
}

func (s *PostgresStore) Update(ctx context.Context, asset id.AssetID, mutate func(*models.Offering) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM offerings WHERE asset_id = $1 FOR UPDATE`,
		asset.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select offering for update: %w", err)
	}

	var offering models.Offering
	if err := json.Unmarshal(doc, &offering); err != nil {
		return fmt.Errorf("unmarshal offering: %w", err)
	}

	if err := mutate(&offering); err != nil {
		return err
	}
	offering.UpdatedAt = time.Now().UTC()

	next, err := json.Marshal(&offering)
	if err != nil {
		return fmt.Errorf("marshal offering: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE offerings SET state = $2, updated_at = $3 WHERE asset_id = $1`,
		asset.String(), next, offering.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) UpdateWithSubscription(ctx context.Context, asset id.AssetID, investor id.Identity, mutate func(o *models.Offering, sub *models.Subscription) (*models.Subscription, error)) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var doc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM offerings WHERE asset_id = $1 FOR UPDATE`,
		asset.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select offering for update: %w", err)
	}
	var offering models.Offering
	if err := json.Unmarshal(doc, &offering); err != nil {
		return fmt.Errorf("unmarshal offering: %w", err)
	}

	var sub *models.Subscription
	var subDoc []byte
	err = tx.QueryRowContext(ctx,
		`SELECT state FROM subscriptions WHERE asset_id = $1 AND investor_id = $2 FOR UPDATE`,
		asset.String(), investor.String(),
	).Scan(&subDoc)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("select subscription for update: %w", err)
	}
	if subDoc != nil {
		sub = &models.Subscription{}
		if err := json.Unmarshal(subDoc, sub); err != nil {
			return fmt.Errorf("unmarshal subscription: %w", err)
		}
	}

	nextSub, err := mutate(&offering, sub)
	if err != nil {
		return err
	}
	offering.UpdatedAt = time.Now().UTC()

	next, err := json.Marshal(&offering)
	if err != nil {
		return fmt.Errorf("marshal offering: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE offerings SET state = $2, updated_at = $3 WHERE asset_id = $1`,
		asset.String(), next, offering.UpdatedAt,
	); err != nil {
		return fmt.Errorf("update offering: %w", err)
	}

	if nextSub != nil {
		subNext, err := json.Marshal(nextSub)
		if err != nil {
			return fmt.Errorf("marshal subscription: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (asset_id, investor_id, state, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (asset_id, investor_id)
			 DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
			nextSub.Asset.String(), nextSub.Investor.String(), subNext, nextSub.UpdatedAt,
		); err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) GetSubscription(ctx context.Context, asset id.AssetID, investor id.Identity) (*models.Subscription, error) {
	var doc []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM subscriptions WHERE asset_id = $1 AND investor_id = $2`,
		asset.String(), investor.String(),
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select subscription: %w", err)
	}
	var sub models.Subscription
	if err := json.Unmarshal(doc, &sub); err != nil {
		return nil, fmt.Errorf("unmarshal subscription: %w", err)
	}
	return &sub, nil
}

func (s *PostgresStore) PutSubscription(ctx context.Context, sub *models.Subscription) error {
	doc, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("marshal subscription: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO subscriptions (asset_id, investor_id, state, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (asset_id, investor_id)
		 DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		sub.Asset.String(), sub.Investor.String(), doc, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}
