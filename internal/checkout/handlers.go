package checkout

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hsd87/JerseyAI-sub001/internal/common"
	"github.com/hsd87/JerseyAI-sub001/internal/order"
)

type IntentRequest struct {
	OrderID string `json:"orderId" validate:"required,uuid4"`
}

type Handler struct {
	service  *Service
	validate *validator.Validate
	logger   zerolog.Logger
}

type HandlerConfig struct {
	Service *Service
	Logger  zerolog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		service:  cfg.Service,
		validate: validator.New(),
		logger:   cfg.Logger,
	}
}

// CreateIntent handles POST /api/checkout/intent.
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var req IntentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "orderId must be a valid UUID", nil)
		return
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "orderId must be a valid UUID", nil)
		return
	}

	out, err := h.service.CreateIntent(r.Context(), orderID)
	switch {
	case errors.Is(err, order.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
		return
	case errors.Is(err, ErrNotPayable):
		common.JSONError(w, http.StatusUnprocessableEntity, "NOT_PAYABLE", "order total must be positive", nil)
		return
	case err != nil:
		h.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("create payment intent")
		common.JSONError(w, http.StatusBadGateway, "PAYMENT_PROVIDER", "payment provider unavailable", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
