package handler

import (
	"net/http"

	"bulkmart/internal/auth"
	"bulkmart/internal/model"
	"bulkmart/internal/service"

	"github.com/rs/zerolog"
)

// AccountHandler handles sign-in and address book HTTP requests.
type AccountHandler struct {
	service service.AccountService
	logger  zerolog.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(service service.AccountService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		service: service,
		logger:  logger.With().Str("handler", "account").Logger(),
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login requests.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	sess, err := h.service.Login(r.Context(), sessionID(r), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// Signup handles POST /api/auth/signup requests.
func (h *AccountHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	sess, err := h.service.Signup(r.Context(), sessionID(r), req)
	if err != nil {
		writeAuthError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

// Logout handles POST /api/auth/logout requests. The session is signed out
// even when the provider could not be reached.
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), sessionID(r)); err != nil {
		h.logger.Warn().Err(err).Msg("remote sign-out failed")
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /api/auth/me requests.
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context(), sessionID(r))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// ListAddresses handles GET /api/addresses requests.
func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Addresses(r.Context(), sessionID(r)))
}

// AddAddress handles POST /api/addresses requests.
func (h *AccountHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	var a model.Address
	if err := decodeJSON(r, &a); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	saved, err := h.service.AddAddress(r.Context(), sessionID(r), a)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, saved)
}

// UpdateAddress handles PUT /api/addresses/{id} requests.
func (h *AccountHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	var a model.Address
	if err := decodeJSON(r, &a); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	a.ID = r.PathValue("id")

	saved, err := h.service.UpdateAddress(r.Context(), sessionID(r), a)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// DeleteAddress handles DELETE /api/addresses/{id} requests.
func (h *AccountHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAddress(r.Context(), sessionID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultAddress handles POST /api/addresses/{id}/default requests.
func (h *AccountHandler) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SetDefaultAddress(r.Context(), sessionID(r), r.PathValue("id")); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.service.Addresses(r.Context(), sessionID(r)))
}

// writeAuthError reports a sign-in failure with the message the shopper
// should see for it.
func writeAuthError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	if _, ok := model.AsDomainError(err); ok {
		writeServiceError(w, err, logger)
		return
	}
	logger.Error().Err(err).Msg("authentication error")
	writeJSON(w, http.StatusBadGateway, model.ErrorResponse{
		Error:   model.ErrCodeAuthFailed,
		Message: auth.Message(err),
	})
}
