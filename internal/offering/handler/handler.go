// Package handler exposes the offering lifecycle and subscription book over
// HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crest/internal/offering/models"
	"crest/internal/offering/service"
	id "crest/pkg/domain"
	dErrors "crest/pkg/domain-errors"
	"crest/pkg/platform/httputil"
	"crest/pkg/requestcontext"
)

// Service defines the interface for offering operations.
type Service interface {
	Create(ctx context.Context, caller id.Identity, p service.CreateParams) (*models.Offering, error)
	Get(ctx context.Context, asset id.AssetID) (*models.Offering, error)
	MarkPreOffer(ctx context.Context, caller id.Identity, asset id.AssetID) error
	Open(ctx context.Context, caller id.Identity, asset id.AssetID) error
	Lock(ctx context.Context, caller id.Identity, asset id.AssetID) error
	Close(ctx context.Context, caller id.Identity, asset id.AssetID) error
	Settle(ctx context.Context, caller id.Identity, asset id.AssetID) error
	MarkRefund(ctx context.Context, caller id.Identity, asset id.AssetID) error
	Subscribe(ctx context.Context, investor id.Identity, asset id.AssetID, amount uint64) (*models.Subscription, error)
	Refund(ctx context.Context, caller id.Identity, asset id.AssetID, investor id.Identity) error
}

// Handler wires offering endpoints to the offering service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs an offering handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts offering endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/v1/assets/{asset}/offering", h.HandleCreate)
	r.Get("/v1/assets/{asset}/offering", h.HandleGet)
	r.Post("/v1/assets/{asset}/offering/pre-offer", h.transition(Service.MarkPreOffer))
	r.Post("/v1/assets/{asset}/offering/open", h.transition(Service.Open))
	r.Post("/v1/assets/{asset}/offering/lock", h.transition(Service.Lock))
	r.Post("/v1/assets/{asset}/offering/close", h.transition(Service.Close))
	r.Post("/v1/assets/{asset}/offering/settle", h.transition(Service.Settle))
	r.Post("/v1/assets/{asset}/offering/refund", h.transition(Service.MarkRefund))
	r.Post("/v1/assets/{asset}/offering/subscribe", h.HandleSubscribe)
	r.Post("/v1/assets/{asset}/offering/subscriptions/refund", h.HandleRefundSubscription)
}

// CreateOfferingRequest is the wire form of offering creation.
type CreateOfferingRequest struct {
	Window       models.TimeWindow             `json:"window"`
	Target       models.Target                 `json:"target"`
	Pricing      models.Pricing                `json:"pricing"`
	Rules        models.Rules                  `json:"rules"`
	Distribution models.DistributionPolicy     `json:"distribution"`
	Fees         models.Fees                   `json:"fees"`
	Settlement   models.SettlementDestinations `json:"settlement"`
}

// SubscribeRequest commits an amount from the calling investor.
type SubscribeRequest struct {
	Amount uint64 `json:"amount"`
}

// RefundSubscriptionRequest marks one investor's subscription refunded.
type RefundSubscriptionRequest struct {
	Investor string `json:"investor"`
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

// HandleCreate handles POST /v1/assets/{asset}/offering.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[CreateOfferingRequest](w, r)
	if !ok {
		return
	}

	offering, err := h.service.Create(ctx, who, service.CreateParams{
		Asset:        asset,
		Window:       req.Window,
		Target:       req.Target,
		Pricing:      req.Pricing,
		Rules:        req.Rules,
		Distribution: req.Distribution,
		Fees:         req.Fees,
		Settlement:   req.Settlement,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "offering created",
		"request_id", requestcontext.RequestID(ctx),
		"asset", asset,
		"caller", who,
	)
	httputil.WriteJSON(w, http.StatusCreated, offering)
}

// HandleGet handles GET /v1/assets/{asset}/offering.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	offering, err := h.service.Get(r.Context(), asset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, offering)
}

// transition adapts one phase-transition service method into a handler.
func (h *Handler) transition(op func(Service, context.Context, id.Identity, id.AssetID) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := caller(w, r)
		if !ok {
			return
		}
		asset, ok := assetParam(w, r)
		if !ok {
			return
		}
		if err := op(h.service, r.Context(), who, asset); err != nil {
			httputil.WriteError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleSubscribe handles POST /v1/assets/{asset}/offering/subscribe. The
// calling identity is the investor.
func (h *Handler) HandleSubscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[SubscribeRequest](w, r)
	if !ok {
		return
	}

	sub, err := h.service.Subscribe(ctx, who, asset, req.Amount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "subscription recorded",
		"request_id", requestcontext.RequestID(ctx),
		"asset", asset,
		"investor", who,
		"amount", req.Amount,
	)
	httputil.WriteJSON(w, http.StatusCreated, sub)
}

// HandleRefundSubscription handles POST /v1/assets/{asset}/offering/subscriptions/refund.
func (h *Handler) HandleRefundSubscription(w http.ResponseWriter, r *http.Request) {
	who, ok := caller(w, r)
	if !ok {
		return
	}
	asset, ok := assetParam(w, r)
	if !ok {
		return
	}
	req, ok := httputil.Decode[RefundSubscriptionRequest](w, r)
	if !ok {
		return
	}
	investor, err := id.ParseIdentity(req.Investor)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid investor identity"))
		return
	}

	if err := h.service.Refund(r.Context(), who, asset, investor); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
