// Package handler exposes the transfer authorization entry point over HTTP.
// A policy denial is a successful evaluation, not an HTTP error: the endpoint
// answers 200 with the decision either way.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"crest/internal/engine"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for transfer evaluation.
type Service interface {
	AuthorizeTransfer(ctx context.Context, req engine.TransferRequest) (*engine.Decision, error)
}

// Handler wires the authorization endpoint to the engine.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an engine handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts engine endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/transfers/authorize", h.HandleAuthorize)
}

// AuthorizeRequest is the wire form of a transfer authorization query.
type AuthorizeRequest struct {
	Asset     string `json:"asset"`
	From      string `json:"from"`
	To        string `json:"to,omitempty"`
	Amount    uint64 `json:"amount"`
	Timestamp int64  `json:"timestamp"`
}

// HandleAuthorize handles POST /v1/transfers/authorize.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	req, ok := httputil.Decode[AuthorizeRequest](w, r)
	if !ok {
		return
	}

	asset, err := id.ParseAssetID(req.Asset)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid asset id"))
		return
	}
	from, err := id.ParseIdentity(req.From)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid sender identity"))
		return
	}
	var to id.Identity
	if req.To != "" {
		if to, err = id.ParseIdentity(req.To); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid recipient identity"))
			return
		}
	}

	decision, err := h.service.AuthorizeTransfer(ctx, engine.TransferRequest{
		Asset:     asset,
		From:      from,
		To:        to,
		Amount:    req.Amount,
		Timestamp: req.Timestamp,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "transfer evaluation failed",
			"request_id", requestcontext.RequestID(ctx),
			"asset", req.Asset,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "transfer evaluated",
		"request_id", requestcontext.RequestID(ctx),
		"asset", req.Asset,
		"authorized", decision.Authorized,
		"reason", string(decision.Reason),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, decision)
}
