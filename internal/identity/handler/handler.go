// Package handler exposes identity registration and claim management over
// HTTP. Claim issuance is attributed to the authenticated caller.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crest/internal/identity"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for identity operations.
type Service interface {
	Register(ctx context.Context, who id.Identity, level uint8, tags []string) (*identity.Record, error)
	SetActive(ctx context.Context, who id.Identity, active bool) error
	AddClaim(ctx context.Context, subject, issuer id.Identity, topic uint32, validUntil int64) (*identity.Claim, error)
	RevokeClaim(ctx context.Context, caller, subject id.Identity, topic uint32) error
}

// Handler wires identity endpoints to the identity service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an identity handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts identity endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/identities", h.HandleRegister)
	r.Post("/v1/identities/{identity}/active", h.HandleSetActive)
	r.Post("/v1/claims", h.HandleAddClaim)
	r.Post("/v1/claims/revoke", h.HandleRevokeClaim)
}

// RegisterRequest is the wire form of identity registration.
type RegisterRequest struct {
	Identity string   `json:"identity"`
	Level    uint8    `json:"level,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// SetActiveRequest flips the active flag.
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// AddClaimRequest issues a claim from the authenticated caller.
type AddClaimRequest struct {
	Subject    string `json:"subject"`
	Topic      uint32 `json:"topic"`
	ValidUntil int64  `json:"valid_until,omitempty"`
}

// RevokeClaimRequest revokes the caller's claim on a subject and topic.
type RevokeClaimRequest struct {
	Subject string `json:"subject"`
	Topic   uint32 `json:"topic"`
}

func caller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	c := requestcontext.Caller(r.Context())
	if c.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return c, false
	}
	return c, true
}

// HandleRegister handles POST /v1/identities.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := caller(w, r); !ok {
		return
	}
	req, ok := httputil.Decode[RegisterRequest](w, r)
	if !ok {
		return
	}
	who, err := id.ParseIdentity(req.Identity)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identity"))
		return
	}

	record, err := h.service.Register(ctx, who, req.Level, req.Tags)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "identity registered",
		"request_id", requestcontext.RequestID(ctx),
		"identity", who,
	)
	httputil.WriteJSON(w, http.StatusCreated, record)
}

// HandleSetActive handles POST /v1/identities/{identity}/active.
func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	if _, ok := caller(w, r); !ok {
		return
	}
	who, err := id.ParseIdentity(chi.URLParam(r, "identity"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identity"))
		return
	}
	req, ok := httputil.Decode[SetActiveRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.SetActive(r.Context(), who, req.Active); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAddClaim handles POST /v1/claims. The issuer is the caller.
func (h *Handler) HandleAddClaim(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	issuer, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[AddClaimRequest](w, r)
	if !ok {
		return
	}
	subject, err := id.ParseIdentity(req.Subject)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subject identity"))
		return
	}

	claim, err := h.service.AddClaim(ctx, subject, issuer, req.Topic, req.ValidUntil)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "claim issued",
		"request_id", requestcontext.RequestID(ctx),
		"subject", subject,
		"issuer", issuer,
		"topic", req.Topic,
	)
	httputil.WriteJSON(w, http.StatusCreated, claim)
}

// HandleRevokeClaim handles POST /v1/claims/revoke.
func (h *Handler) HandleRevokeClaim(w http.ResponseWriter, r *http.Request) {
	issuer, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RevokeClaimRequest](w, r)
	if !ok {
		return
	}
	subject, err := id.ParseIdentity(req.Subject)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid subject identity"))
		return
	}

	if err := h.service.RevokeClaim(r.Context(), issuer, subject, req.Topic); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
