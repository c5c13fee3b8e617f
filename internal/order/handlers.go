package order

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hsd87/JerseyAI-sub001/internal/common"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// CreateRequest is the body of POST /api/orders.
type CreateRequest struct {
	Cart         []CartItem `json:"cart" validate:"required,min=1,dive"`
	IsSubscriber bool       `json:"isSubscriber"`
}

// CartItem mirrors pricing.LineItem with validation tags.
type CartItem struct {
	ProductID   string        `json:"productId" validate:"required"`
	ProductType string        `json:"productType"`
	UnitPrice   pricing.Money `json:"unitPrice" validate:"gte=0"`
	Quantity    int           `json:"quantity" validate:"gte=1"`
}

// Handler exposes the order endpoints.
type Handler struct {
	service   *Service
	formatter pricing.Formatter
	validate  *validator.Validate
	logger    zerolog.Logger
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service   *Service
	Formatter pricing.Formatter
	Logger    zerolog.Logger
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:   cfg.Service,
		formatter: cfg.Formatter,
		validate:  validator.New(),
		logger:    cfg.Logger,
	}
}

// Create handles POST /api/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req CreateRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body", err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "invalid order payload", err.Error())
		return
	}

	cart := make([]pricing.LineItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		cart = append(cart, pricing.LineItem{
			ProductID:   item.ProductID,
			ProductType: item.ProductType,
			UnitPrice:   item.UnitPrice,
			Quantity:    item.Quantity,
		})
	}

	o, err := h.service.Create(r.Context(), CreateInput{Cart: cart, IsSubscriber: req.IsSubscriber})
	if err != nil {
		if errors.Is(err, pricing.ErrInvalidCartItem) {
			common.JSONError(w, http.StatusBadRequest, "INVALID_CART", err.Error(), nil)
			return
		}
		h.logger.Error().Err(err).Msg("create order")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not create order", nil)
		return
	}

	formatted := h.formatter.FormatBreakdown(o.Breakdown)
	common.JSON(w, http.StatusCreated, map[string]any{
		"data":      o,
		"formatted": formatted,
	})
}

// Get handles GET /api/orders/{id}. The response is the stored snapshot;
// prices are never recomputed for display.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return
	}
	o, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
			return
		}
		h.logger.Error().Err(err).Str("order_id", id.String()).Msg("get order")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "could not load order", nil)
		return
	}
	formatted := h.formatter.FormatBreakdown(o.Breakdown)
	common.JSON(w, http.StatusOK, map[string]any{
		"data":      o,
		"formatted": formatted,
	})
}
