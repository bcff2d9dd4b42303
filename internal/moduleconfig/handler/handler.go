// Package handler exposes the per-module configuration setters over HTTP.
// Each setter replaces the full record; there are no incremental updates.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crest/internal/moduleconfig/models"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for module configuration operations.
type Service interface {
	SetJurisdiction(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.JurisdictionConfig) error
	SetSanctions(ctx context.Context, caller id.Identity, asset id.AssetID, list models.SanctionsList) error
	SetAccredited(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.AccreditedConfig) error
	SetLockup(ctx context.Context, caller id.Identity, asset id.AssetID, user id.Identity, schedule models.LockupSchedule) error
	SetVolumeCaps(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.VolumeCapsConfig) error
	SetTransferWindow(ctx context.Context, caller id.Identity, asset id.AssetID, cfg models.TransferWindowConfig) error
	SetProgramAllowlist(ctx context.Context, caller id.Identity, asset id.AssetID, list models.Allowlist) error
	SetAccountAllowlist(ctx context.Context, caller id.Identity, asset id.AssetID, list models.Allowlist) error
	SetInvestorProfile(ctx context.Context, caller id.Identity, asset id.AssetID, user id.Identity, profile models.InvestorProfile) error
}

// Handler wires module configuration endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a module configuration handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts configuration endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/v1/assets/{asset}/config/jurisdiction", h.HandleJurisdiction)
	r.Put("/v1/assets/{asset}/config/sanctions", h.HandleSanctions)
	r.Put("/v1/assets/{asset}/config/accredited", h.HandleAccredited)
	r.Put("/v1/assets/{asset}/config/lockup/{user}", h.HandleLockup)
	r.Put("/v1/assets/{asset}/config/volume-caps", h.HandleVolumeCaps)
	r.Put("/v1/assets/{asset}/config/transfer-window", h.HandleTransferWindow)
	r.Put("/v1/assets/{asset}/config/program-allowlist", h.HandleProgramAllowlist)
	r.Put("/v1/assets/{asset}/config/account-allowlist", h.HandleAccountAllowlist)
	r.Put("/v1/assets/{asset}/config/investor-profile/{user}", h.HandleInvestorProfile)
}

func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) (id.Identity, id.AssetID, bool) {
	who := requestcontext.Caller(r.Context())
	if who.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return who, "", false
	}
	asset, err := id.ParseAssetID(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid asset id"))
		return who, asset, false
	}
	return who, asset, true
}

func userParam(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	user, err := id.ParseIdentity(chi.URLParam(r, "user"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid user identity"))
		return user, false
	}
	return user, true
}

// setConfig decodes a record of type T and applies it through set. Shared by
// every asset-scoped setter.
func setConfig[T any](h *Handler, w http.ResponseWriter, r *http.Request, name string, set func(context.Context, id.Identity, id.AssetID, T) error) {
	ctx := r.Context()
	who, asset, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	record, ok := httputil.Decode[T](w, r)
	if !ok {
		return
	}
	if err := set(ctx, who, asset, record); err != nil {
		httputil.WriteError(w, err)
		return
	}
	h.logger.InfoContext(ctx, "module config updated",
		"request_id", requestcontext.RequestID(ctx),
		"asset", asset,
		"module", name,
		"caller", who,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleJurisdiction handles PUT /v1/assets/{asset}/config/jurisdiction.
func (h *Handler) HandleJurisdiction(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "jurisdiction", h.service.SetJurisdiction)
}

// HandleSanctions handles PUT /v1/assets/{asset}/config/sanctions.
func (h *Handler) HandleSanctions(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "sanctions", h.service.SetSanctions)
}

// HandleAccredited handles PUT /v1/assets/{asset}/config/accredited.
func (h *Handler) HandleAccredited(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "accredited", h.service.SetAccredited)
}

// HandleVolumeCaps handles PUT /v1/assets/{asset}/config/volume-caps.
func (h *Handler) HandleVolumeCaps(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "volume_caps", h.service.SetVolumeCaps)
}

// HandleTransferWindow handles PUT /v1/assets/{asset}/config/transfer-window.
func (h *Handler) HandleTransferWindow(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "transfer_window", h.service.SetTransferWindow)
}

// HandleProgramAllowlist handles PUT /v1/assets/{asset}/config/program-allowlist.
func (h *Handler) HandleProgramAllowlist(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "program_allowlist", h.service.SetProgramAllowlist)
}

// HandleAccountAllowlist handles PUT /v1/assets/{asset}/config/account-allowlist.
func (h *Handler) HandleAccountAllowlist(w http.ResponseWriter, r *http.Request) {
	setConfig(h, w, r, "account_allowlist", h.service.SetAccountAllowlist)
}

// HandleLockup handles PUT /v1/assets/{asset}/config/lockup/{user}.
func (h *Handler) HandleLockup(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	setConfig(h, w, r, "lockup", func(ctx context.Context, who id.Identity, asset id.AssetID, schedule models.LockupSchedule) error {
		return h.service.SetLockup(ctx, who, asset, user, schedule)
	})
}

// HandleInvestorProfile handles PUT /v1/assets/{asset}/config/investor-profile/{user}.
func (h *Handler) HandleInvestorProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := userParam(w, r)
	if !ok {
		return
	}
	setConfig(h, w, r, "investor_limits", func(ctx context.Context, who id.Identity, asset id.AssetID, profile models.InvestorProfile) error {
		return h.service.SetInvestorProfile(ctx, who, asset, user, profile)
	})
}
