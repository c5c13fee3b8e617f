package kitconfig

import (
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hsd87/JerseyAI-sub001/internal/common"
	"github.com/hsd87/JerseyAI-sub001/internal/pricing"
)

// ConfigureRequest is the body of POST /api/kit-config/configure.
type ConfigureRequest struct {
	Selections   []Selection `json:"selections" validate:"required,min=1,dive"`
	IsSubscriber bool        `json:"isSubscriber"`
}

// ConfigureResponse mirrors the estimate envelope so the configurator UI can
// share response handling with the cart.
type ConfigureResponse struct {
	Success   bool                        `json:"success"`
	Error     string                      `json:"error,omitempty"`
	Result    *Result                     `json:"result,omitempty"`
	Formatted *pricing.FormattedBreakdown `json:"formatted,omitempty"`
}

// Handler exposes the kit configurator endpoints.
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

// Configure handles POST /api/kit-config/configure.
func (h *Handler) Configure(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "kitconfig service not configured", nil)
		return
	}
	var req ConfigureRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSON(w, http.StatusOK, ConfigureResponse{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		common.JSON(w, http.StatusOK, ConfigureResponse{Success: false, Error: "invalid selections: " + err.Error()})
		return
	}
	result, err := h.service.Configure(r.Context(), req.Selections, req.IsSubscriber)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownSKU), errors.Is(err, ErrInactiveSKU), errors.Is(err, pricing.ErrInvalidCartItem):
			common.JSON(w, http.StatusOK, ConfigureResponse{Success: false, Error: err.Error()})
		default:
			h.logger.Error().Err(err).Msg("kit configure failed")
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "price calculation not available", nil)
		}
		return
	}
	formatted := h.formatter.FormatBreakdown(result.Breakdown)
	common.JSON(w, http.StatusOK, ConfigureResponse{Success: true, Result: &result, Formatted: &formatted})
}

// Sports handles GET /api/kit-config/sports.
func (h *Handler) Sports(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "kitconfig service not configured", nil)
		return
	}
	resp, err := h.service.ListSports(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list sports failed")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog not available", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": resp.Sports})
}
