// Package handler exposes the asset compliance registry over HTTP. Role
// enforcement lives in the service; handlers only authenticate, decode, and
// translate errors.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crest/internal/asset/models"
	"crest/internal/asset/service"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for asset registry operations.
type Service interface {
	Create(ctx context.Context, caller id.Identity, p service.CreateParams) (*models.AssetConfig, error)
	Get(ctx context.Context, asset id.AssetID) (*models.AssetConfig, error)
	EnableModule(ctx context.Context, caller id.Identity, asset id.AssetID, module models.ModuleID, params []byte) error
	DisableModule(ctx context.Context, caller id.Identity, asset id.AssetID, module models.ModuleID) error
	SetPaused(ctx context.Context, caller id.Identity, asset id.AssetID, paused bool) error
	RotateRole(ctx context.Context, caller id.Identity, asset id.AssetID, role models.RoleType, next id.Identity) error
	UpdateTrustedIssuer(ctx context.Context, caller id.Identity, asset id.AssetID, topic uint32, issuer id.Identity, add bool) error
	SetOracleConfig(ctx context.Context, caller id.Identity, asset id.AssetID, oracle models.OracleConfig) error
	SetRequiredTopics(ctx context.Context, caller id.Identity, asset id.AssetID, topics []uint32) error
}

// Handler wires asset registry endpoints to the asset service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an asset handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts asset endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/assets", h.HandleCreate)
	r.Get("/v1/assets/{asset}", h.HandleGet)
	r.Post("/v1/assets/{asset}/modules/{module}/enable", h.HandleEnableModule)
	r.Post("/v1/assets/{asset}/modules/{module}/disable", h.HandleDisableModule)
	r.Post("/v1/assets/{asset}/pause", h.HandleSetPaused)
	r.Post("/v1/assets/{asset}/roles/rotate", h.HandleRotateRole)
	r.Post("/v1/assets/{asset}/trusted-issuers", h.HandleTrustedIssuer)
	r.Post("/v1/assets/{asset}/oracle", h.HandleOracleConfig)
	r.Put("/v1/assets/{asset}/required-topics", h.HandleRequiredTopics)
}

func caller(w http.ResponseWriter, r *http.Request) (id.Identity, bool) {
	c := requestcontext.Caller(r.Context())
	if c.IsZero() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return c, false
	}
	return c, true
}

func assetParam(w http.ResponseWriter, r *http.Request) (id.AssetID, bool) {
	asset, err := id.ParseAssetID(chi.URLParam(r, "asset"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid asset id"))
		return asset, false
	}
	return asset, true
}

func moduleParam(w http.ResponseWriter, r *http.Request) (models.ModuleID, bool) {
	module, err := models.ParseModuleName(chi.URLParam(r, "module"))
	if err != nil {
		httputil.WriteError(w, err)
		return module, false
	}
	return module, true
}

// HandleCreate handles POST /v1/assets.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, ok := caller(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CreateAssetRequest](w, r)
	if !ok {
		return
	}
	params, err := req.Params()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cfg, err := h.service.Create(ctx, who, params)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "asset created",
		"request_id", requestcontext.RequestID(ctx),
		"asset", cfg.Asset,
		"caller", who,
	)
	httputil.WriteJSON(w, http.StatusCreated, cfg)
}

// HandleGet handles GET /v1/assets/{asset}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	cfg, err := h.service.Get(r.Context(), asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cfg)
}

// HandleEnableModule handles POST /v1/assets/{asset}/modules/{module}/enable.
func (h *Handler) HandleEnableModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	module, ok := moduleParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[EnableModuleRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.EnableModule(ctx, who, asset, module, req.Params); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "module enabled",
		"request_id", requestcontext.RequestID(ctx),
		"asset", asset,
		"module", module.String(),
		"caller", who,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleDisableModule handles POST /v1/assets/{asset}/modules/{module}/disable.
func (h *Handler) HandleDisableModule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	module, ok := moduleParam(w, r)
	if !ok {
		return
	}

	if err := h.service.DisableModule(ctx, who, asset, module); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "module disabled",
		"request_id", requestcontext.RequestID(ctx),
		"asset", asset,
		"module", module.String(),
		"caller", who,
	)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSetPaused handles POST /v1/assets/{asset}/pause.
func (h *Handler) HandleSetPaused(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SetPausedRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.SetPaused(r.Context(), who, asset, req.Paused); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRotateRole handles POST /v1/assets/{asset}/roles/rotate.
func (h *Handler) HandleRotateRole(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RotateRoleRequest](w, r)
	if !ok {
		return
	}
	next, err := id.ParseIdentity(req.Identity)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid identity"))
		return
	}

	if err := h.service.RotateRole(r.Context(), who, asset, models.RoleType(req.Role), next); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleTrustedIssuer handles POST /v1/assets/{asset}/trusted-issuers.
func (h *Handler) HandleTrustedIssuer(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[TrustedIssuerRequest](w, r)
	if !ok {
		return
	}
	issuer, err := id.ParseIdentity(req.Issuer)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid issuer identity"))
		return
	}

	if err := h.service.UpdateTrustedIssuer(r.Context(), who, asset, req.Topic, issuer, req.Add); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleOracleConfig handles POST /v1/assets/{asset}/oracle.
func (h *Handler) HandleOracleConfig(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[OracleConfigRequest](w, r)
	if !ok {
		return
	}

	oracle := models.OracleConfig{
		Feeds:        req.Feeds,
		HeartbeatSec: req.HeartbeatSec,
		MaxDevBps:    req.MaxDevBps,
		NavFeeder:    id.Identity(req.NavFeeder),
		BaseCurrency: models.Currency(req.BaseCurrency),
	}
	if err := h.service.SetOracleConfig(r.Context(), who, asset, oracle); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleRequiredTopics handles PUT /v1/assets/{asset}/required-topics.
func (h *Handler) HandleRequiredTopics(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RequiredTopicsRequest](w, r)
	if !ok {
		return
	}

	if err := h.service.SetRequiredTopics(r.Context(), who, asset, req.Topics); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
