package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// PostgresStore persists identity records and claims relationally; claims are
// queried on the hot path by (subject, topic).
//
// Schema:
//
//	CREATE TABLE identities (
//	    identity_id   TEXT PRIMARY KEY,
//	    active        BOOLEAN NOT NULL,
//	    level         SMALLINT NOT NULL,
//	    registered_at TIMESTAMPTZ NOT NULL,
//	    last_update   TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE claims (
//	    subject_id  TEXT NOT NULL,
//	    issuer_id   TEXT NOT NULL,
//	    topic       BIGINT NOT NULL,
//	    issued_at   BIGINT NOT NULL,
//	    valid_until BIGINT NOT NULL,
//	    revoked     BOOLEAN NOT NULL,
//	    PRIMARY KEY (subject_id, issuer_id, topic)
//	);
//	CREATE INDEX claims_subject_topic ON claims (subject_id, topic);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GetRecord(ctx context.Context, identity id.Identity) (*Record, error) {
	var record Record
	err := s.db.QueryRowContext(ctx,
		`SELECT identity_id, active, level, registered_at, last_update
		 FROM identities WHERE identity_id = $1`,
		identity.String(),
	).Scan(&record.Identity, &record.Active, &record.Level, &record.RegisteredAt, &record.LastUpdate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select identity: %w", err)
	}
	return &record, nil
}

func (s *PostgresStore) PutRecord(ctx context.Context, record *Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (identity_id, active, level, registered_at, last_update)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (identity_id)
		 DO UPDATE SET active = EXCLUDED.active, level = EXCLUDED.level,
		               last_update = EXCLUDED.last_update`,
		record.Identity.String(), record.Active, record.Level,
		record.RegisteredAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetClaims(ctx context.Context, subject id.Identity, topic uint32) ([]Claim, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT subject_id, issuer_id, topic, issued_at, valid_until, revoked
		 FROM claims WHERE subject_id = $1 AND topic = $2`,
		subject.String(), topic,
	)
	if err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	defer rows.Close()

	out := make([]Claim, 0)
	for rows.Next() {
		var c Claim
		if err := rows.Scan(&c.Subject, &c.Issuer, &c.Topic, &c.IssuedAt, &c.ValidUntil, &c.Revoked); err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) PutClaim(ctx context.Context, claim *Claim) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO claims (subject_id, issuer_id, topic, issued_at, valid_until, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (subject_id, issuer_id, topic)
		 DO UPDATE SET issued_at = EXCLUDED.issued_at,
		               valid_until = EXCLUDED.valid_until,
		               revoked = EXCLUDED.revoked`,
		claim.Subject.String(), claim.Issuer.String(), claim.Topic,
		claim.IssuedAt, claim.ValidUntil, claim.Revoked,
	)
	if err != nil {
		return fmt.Errorf("upsert claim: %w", err)
	}
	return nil
}
