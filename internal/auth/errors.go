package auth

import (
	"bulkmart/internal/model"
)

// Authentication failures. Each carries its own user-facing message.
var (
	ErrInvalidCredentials = model.NewDomainError(model.ErrCodeInvalidCredentials, "Invalid email or password.")
	ErrUserNotFound       = model.NewDomainError(model.ErrCodeUserNotFound, "No account found with this email.")
	ErrWrongPassword      = model.NewDomainError(model.ErrCodeWrongPassword, "Incorrect password. Please try again.")
	ErrTooManyRequests    = model.NewDomainError(model.ErrCodeTooManyRequests, "Too many failed attempts. Please try again later.")
	ErrAccountDisabled    = model.NewDomainError(model.ErrCodeAccountDisabled, "This account has been disabled. Please contact support.")
	ErrAuthFailed         = model.NewDomainError(model.ErrCodeAuthFailed, "Authentication failed. Please try again.")
	ErrEmailInUse         = model.NewDomainError(model.ErrCodeEmailInUse, "An account with this email already exists.")
	ErrSessionExpired     = model.NewDomainError(model.ErrCodeSessionExpired, "Your session has expired. Please log in again.")
)

// Message returns the text to show a shopper for err. Errors that are not
// domain errors read as a generic failure so internal detail never leaks.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if de, ok := model.AsDomainError(err); ok {
		return de.Message
	}
	return ErrAuthFailed.Message
}
