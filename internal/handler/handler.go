package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bulkmart/internal/middleware"
	"bulkmart/internal/model"
	"bulkmart/internal/service"

	"github.com/rs/zerolog"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// The status line is already sent.
		return
	}
}

// writeError writes an error response with the given status code, code and message.
func writeError(w http.ResponseWriter, status int, code, message string, logger zerolog.Logger) {
	logger.Error().Str("code", code).Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: code, Message: message})
}

// writeServiceError maps an error returned by a service to a response.
// Domain errors keep their code and message; anything else is a 500 with a
// generic message.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var changed *service.CartChangedError
	if errors.As(err, &changed) {
		logger.Info().Int("changes", len(changed.Report.Changes)).Msg("cart changed at checkout")
		writeJSON(w, http.StatusConflict, model.ErrorResponse{
			Error:   model.ErrCodeCartChanged,
			Message: changed.Error(),
			Details: changed.Report,
		})
		return
	}

	de, ok := model.AsDomainError(err)
	if !ok {
		logger.Error().Err(err).Msg("unexpected service error")
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
			Error:   model.ErrCodeInternalError,
			Message: "internal server error",
		})
		return
	}

	status := statusFor(de.Code)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("code", de.Code).Msg("service failure")
	} else {
		logger.Debug().Str("code", de.Code).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, model.ErrorResponse{Error: de.Code, Message: de.Message})
}

func statusFor(code string) int {
	switch code {
	case model.ErrCodeInvalidJSON, model.ErrCodeMissingField, model.ErrCodeInvalidField,
		model.ErrCodeInvalidQuantity, model.ErrCodeInvalidCursor, model.ErrCodeInvalidBulkPricing,
		model.ErrCodeCartEmpty:
		return http.StatusBadRequest
	case model.ErrCodeProductNotFound, model.ErrCodeCategoryNotFound, model.ErrCodeOrderNotFound,
		model.ErrCodeReturnNotFound, model.ErrCodeCartItemNotFound, model.ErrCodeAddressNotFound:
		return http.StatusNotFound
	case model.ErrCodeOutOfStock, model.ErrCodeInsufficientStock, model.ErrCodeCartChanged,
		model.ErrCodeReturnNotAllowed, model.ErrCodeInvalidTransition, model.ErrCodeEmailInUse:
		return http.StatusConflict
	case model.ErrCodeUnauthorised, model.ErrCodeInvalidCredentials, model.ErrCodeUserNotFound,
		model.ErrCodeWrongPassword, model.ErrCodeSessionExpired:
		return http.StatusUnauthorized
	case model.ErrCodeAccountDisabled, model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeTooManyRequests:
		return http.StatusTooManyRequests
	case model.ErrCodeAuthFailed:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for requests whose body may be empty.
func decodeOptionalJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "invalid request body")
	}
	return nil
}

func sessionID(r *http.Request) string {
	return middleware.SessionID(r.Context())
}
