package pricing

import (
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hsd87/JerseyAI-sub001/internal/common"
	"github.com/hsd87/JerseyAI-sub001/internal/obs"
)

// EstimateRequest is the body of POST /api/price/estimate.
type EstimateRequest struct {
	Cart         []EstimateItem `json:"cart" validate:"dive"`
	IsSubscriber bool           `json:"isSubscriber"`
}

// EstimateItem mirrors LineItem with validation tags for the HTTP boundary.
type EstimateItem struct {
	ProductID   string `json:"productId"`
	ProductType string `json:"productType"`
	UnitPrice   Money  `json:"unitPrice" validate:"gte=0"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
}

// EstimateResponse preserves the storefront UI's contract: invalid carts come
// back success:false with a message instead of an HTTP error, and the UI
// disables checkout when success is false.
type EstimateResponse struct {
	Success   bool                `json:"success"`
	Error     string              `json:"error,omitempty"`
	Breakdown *Breakdown          `json:"breakdown,omitempty"`
	Formatted *FormattedBreakdown `json:"formatted,omitempty"`
}

// Handler exposes the pricing endpoints.
type Handler struct {
	store     *Store
	formatter Formatter
	validate  *validator.Validate
	logger    zerolog.Logger
	metrics   *obs.PricingMetrics
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Store     *Store
	Formatter Formatter
	Logger    zerolog.Logger
	Metrics   *obs.PricingMetrics
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		store:     cfg.Store,
		formatter: cfg.Formatter,
		validate:  validator.New(),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Rules handles GET /api/price/rules. Display only; callers never feed these
// values back into a calculation.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing store not configured", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": h.store.Snapshot()})
}

// Estimate handles POST /api/price/estimate.
func (h *Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing store not configured", nil)
		return
	}
	var req EstimateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		h.reject(w, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.reject(w, "invalid cart: "+err.Error())
		return
	}

	cart := make([]LineItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		cart = append(cart, LineItem{
			ProductID:   item.ProductID,
			ProductType: item.ProductType,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	breakdown, err := Calculate(cart, h.store.Snapshot(), TierSetStandard, req.IsSubscriber)
	if err != nil {
		if errors.Is(err, ErrInvalidCartItem) {
			h.reject(w, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("price estimate failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "price calculation not available", nil)
		return
	}
	if breakdown.Clamped() {
		h.logger.Error().
			Int64("base_total", breakdown.BaseTotal).
			Msg("discounts exceeded base total, subtotal clamped to zero")
	}
	if h.metrics != nil {
		h.metrics.Estimates.WithLabelValues("ok", string(TierSetStandard)).Inc()
		h.metrics.GrandTotal.Observe(float64(breakdown.GrandTotal))
	}

	formatted := h.formatter.FormatBreakdown(breakdown)
	common.JSON(w, http.StatusOK, EstimateResponse{
		Success:   true,
		Breakdown: &breakdown,
		Formatted: &formatted,
	})
}

func (h *Handler) reject(w http.ResponseWriter, message string) {
	if h.metrics != nil {
		h.metrics.Estimates.WithLabelValues("invalid_cart", string(TierSetStandard)).Inc()
	}
	common.JSON(w, http.StatusOK, EstimateResponse{Success: false, Error: message})
}
