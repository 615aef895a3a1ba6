package handler

import (
	"net/http"

	"bulkmart/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart and wishlist HTTP requests for the request's session.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type wishlistResponse struct {
	ProductID  string `json:"productId"`
	InWishlist bool   `json:"inWishlist"`
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.View(r.Context(), sessionID(r)))
}

// Add handles POST /api/cart/items requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addToCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	item, err := h.service.Add(r.Context(), sessionID(r), req.ProductID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, item)
}

// UpdateQuantity handles PUT /api/cart/items/{id} requests.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	item, err := h.service.UpdateQuantity(r.Context(), sessionID(r), r.PathValue("id"), req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Increment handles POST /api/cart/items/{id}/increment requests.
func (h *CartHandler) Increment(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, true)
}

// Decrement handles POST /api/cart/items/{id}/decrement requests.
func (h *CartHandler) Decrement(w http.ResponseWriter, r *http.Request) {
	h.step(w, r, false)
}

func (h *CartHandler) step(w http.ResponseWriter, r *http.Request, up bool) {
	item, err := h.service.Step(r.Context(), sessionID(r), r.PathValue("id"), up)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Remove handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Remove(r.Context(), sessionID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionID(r)); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Reconcile handles POST /api/cart/reconcile requests.
func (h *CartHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Reconcile(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// Wishlist handles GET /api/wishlist requests.
func (h *CartHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.Wishlist(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// ToggleWishlist handles POST /api/wishlist/{productId} requests.
func (h *CartHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")
	in, err := h.service.ToggleWishlist(r.Context(), sessionID(r), productID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, wishlistResponse{ProductID: productID, InWishlist: in})
}
