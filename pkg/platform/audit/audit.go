// Package audit defines the audit event model and the Publisher port.
//
// Every administrative mutation and every transfer denial emits an event.
// Publishing is best-effort: an audit failure is logged but never blocks or
// reverses the operation that produced it.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	id "crest/pkg/domain"
)

// Action names are stable identifiers consumed by downstream compliance
// tooling; renaming one is a breaking change.
const (
	ActionAssetCreated         = "asset.created"
	ActionModuleEnabled        = "asset.module_enabled"
	ActionModuleDisabled       = "asset.module_disabled"
	ActionPausedSet            = "asset.paused_set"
	ActionRoleRotated          = "asset.role_rotated"
	ActionTrustedIssuerUpdated = "asset.trusted_issuer_updated"
	ActionOracleConfigUpdated  = "asset.oracle_config_updated"
	ActionModuleConfigUpdated  = "asset.module_config_updated"
	ActionOfferingPhaseChanged = "offering.phase_changed"
	ActionSubscriptionCreated  = "offering.subscription_created"
	ActionSubscriptionRefunded = "offering.subscription_refunded"
	ActionIdentityRegistered   = "identity.registered"
	ActionClaimIssued          = "identity.claim_issued"
	ActionClaimRevoked         = "identity.claim_revoked"
	ActionTransferDenied       = "transfer.denied"
)

// Event is a single audit record.
type Event struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Asset      id.AssetID     `json:"asset,omitempty"`
	Actor      id.Identity    `json:"actor,omitempty"`
	Subject    id.Identity    `json:"subject,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers audit events to a sink.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Emit publishes through an optional publisher and always logs. A nil
// publisher degrades to log-only, which keeps audit optional in tests.
// Every event is stamped with a fresh id; OccurredAt defaults to now when
// the caller did not pin a domain timestamp.
func Emit(ctx context.Context, logger *slog.Logger, pub Publisher, event Event) {
	event.ID = uuid.NewString()
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if logger != nil {
		logger.InfoContext(ctx, "audit",
			"action", event.Action,
			"asset", event.Asset,
			"actor", event.Actor,
		)
	}
	if pub == nil {
		return
	}
	if err := pub.Emit(ctx, event); err != nil && logger != nil {
		logger.ErrorContext(ctx, "audit publish failed",
			"action", event.Action,
			"error", err,
		)
	}
}
