package handler

import (
	"net/http"

	"bulkmart/internal/model"
	"bulkmart/internal/service"

	"github.com/rs/zerolog"
)

// AdminHandler handles back-office HTTP requests. Routes are guarded by the
// API key middleware.
type AdminHandler struct {
	service service.AdminService
	logger  zerolog.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(service service.AdminService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("handler", "admin").Logger(),
	}
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

type returnStatusRequest struct {
	Status model.ReturnStatus `json:"status"`
}

// UpsertProduct handles PUT /api/admin/products requests.
func (h *AdminHandler) UpsertProduct(w http.ResponseWriter, r *http.Request) {
	var p model.Product
	if err := decodeJSON(r, &p); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.UpsertProduct(r.Context(), &p); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdateStock handles PUT /api/admin/products/{id}/stock requests.
func (h *AdminHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var req stockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.Stock == nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeMissingField, "stock is required", h.logger)
		return
	}

	if err := h.service.UpdateStock(r.Context(), r.PathValue("id"), *req.Stock); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpsertCategory handles PUT /api/admin/categories requests.
func (h *AdminHandler) UpsertCategory(w http.ResponseWriter, r *http.Request) {
	var c model.Category
	if err := decodeJSON(r, &c); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.UpsertCategory(r.Context(), &c); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

// UpdateOrderStatus handles PUT /api/admin/orders/{id}/status requests.
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateReturnStatus handles PUT /api/admin/returns/{id}/status requests.
func (h *AdminHandler) UpdateReturnStatus(w http.ResponseWriter, r *http.Request) {
	var req returnStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.UpdateReturnStatus(r.Context(), r.PathValue("id"), req.Status); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReloadContent handles POST /api/admin/content/reload requests.
func (h *AdminHandler) ReloadContent(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReloadContent(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("content reload failed")
		writeError(w, http.StatusBadGateway, model.ErrCodeInternalError, "failed to reload content", h.logger)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}
