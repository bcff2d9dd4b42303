package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/audit"
	"crest/pkg/platform/sentinel"
)

// TrustedIssuers narrows which issuers count for a topic. A nil func or an
// empty result means any issuer is acceptable for that topic.
type TrustedIssuers func(topic uint32) []id.Identity

// Service manages identity records and claims, and answers verification
// queries.
type Service struct {
	store  Store
	logger *slog.Logger
	pub    audit.Publisher
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(pub audit.Publisher) Option {
	return func(s *Service) { s.pub = pub }
}

// WithClock injects a time source for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	svc := &Service{store: store, now: time.Now}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates or reactivates an identity record.
func (s *Service) Register(ctx context.Context, identity id.Identity, level uint8, tags []string) (*Record, error) {
	if identity.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "identity is required")
	}
	now := s.now().UTC()
	record := &Record{
		Identity:     identity,
		Active:       true,
		Level:        level,
		Tags:         append([]string(nil), tags...),
		RegisteredAt: now,
		LastUpdate:   now,
	}
	if existing, err := s.store.GetRecord(ctx, identity); err == nil {
		record.RegisteredAt = existing.RegisteredAt
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get identity record")
	}
	if err := s.store.PutRecord(ctx, record); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store identity record")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:     audit.ActionIdentityRegistered,
		Subject:    identity,
		OccurredAt: now,
	})
	return record, nil
}

// SetActive flips the active flag on an identity record.
func (s *Service) SetActive(ctx context.Context, identity id.Identity, active bool) error {
	record, err := s.store.GetRecord(ctx, identity)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "identity not registered")
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "get identity record")
	}
	record.Active = active
	record.LastUpdate = s.now().UTC()
	if err := s.store.PutRecord(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store identity record")
	}
	return nil
}

// AddClaim issues or refreshes a claim for (subject, issuer, topic).
func (s *Service) AddClaim(ctx context.Context, subject, issuer id.Identity, topic uint32, validUntil int64) (*Claim, error) {
	claim, err := NewClaim(subject, issuer, topic, validUntil)
	if err != nil {
		return nil, err
	}
	if _, err := s.store.GetRecord(ctx, subject); errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "subject identity not registered")
	} else if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "get identity record")
	}
	if err := s.store.PutClaim(ctx, claim); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "store claim")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionClaimIssued,
		Actor:   issuer,
		Subject: subject,
		Detail:  map[string]any{"topic": topic},
	})
	return claim, nil
}

// RevokeClaim marks the claim revoked. Only the issuing identity may revoke.
func (s *Service) RevokeClaim(ctx context.Context, caller, subject id.Identity, topic uint32) error {
	claims, err := s.store.GetClaims(ctx, subject, topic)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "get claims")
	}
	var target *Claim
	for i := range claims {
		if claims[i].Issuer == caller {
			target = &claims[i]
			break
		}
	}
	if target == nil {
		return dErrors.New(dErrors.CodeNotFound, "claim not found for issuer")
	}
	if target.Revoked {
		return nil
	}
	target.Revoked = true
	if err := s.store.PutClaim(ctx, target); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "store claim")
	}

	audit.Emit(ctx, s.logger, s.pub, audit.Event{
		Action:  audit.ActionClaimRevoked,
		Actor:   caller,
		Subject: subject,
		Detail:  map[string]any{"topic": topic},
	})
	return nil
}

// IsVerified reports whether subject holds a valid, unrevoked, unexpired
// claim for every required topic, from a trusted issuer where the asset
// restricts issuers. The subject's identity record must exist and be active.
// An unregistered subject verifies false, not as an error.
func (s *Service) IsVerified(ctx context.Context, subject id.Identity, topics []uint32, trusted TrustedIssuers) (bool, error) {
	record, err := s.store.GetRecord(ctx, subject)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get identity record: %w", err)
	}
	if !record.Active {
		return false, nil
	}

	now := s.now().Unix()
	for _, topic := range topics {
		claims, err := s.store.GetClaims(ctx, subject, topic)
		if err != nil {
			return false, fmt.Errorf("get claims for topic %d: %w", topic, err)
		}
		if !anyValid(claims, now, trustedFor(trusted, topic)) {
			return false, nil
		}
	}
	return true, nil
}

func trustedFor(trusted TrustedIssuers, topic uint32) []id.Identity {
	if trusted == nil {
		return nil
	}
	return trusted(topic)
}

func anyValid(claims []Claim, now int64, issuers []id.Identity) bool {
	for _, c := range claims {
		if !c.ValidAt(now) {
			continue
		}
		if len(issuers) == 0 {
			return true
		}
		for _, issuer := range issuers {
			if c.Issuer == issuer {
				return true
			}
		}
	}
	return false
}
