// Package auth authenticates shoppers and keeps each session's sign-in state.
package auth

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"bulkmart/internal/model"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 6

// Session is the result of a successful sign-in.
type Session struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      model.User `json:"user"`
}

// SignupRequest is the payload of the account creation form.
type SignupRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the form before anything is sent to the provider.
func (r SignupRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return model.NewDomainError(model.ErrCodeMissingField, "Name is required")
	case strings.TrimSpace(r.Email) == "":
		return model.NewDomainError(model.ErrCodeMissingField, "Email is required")
	case !validEmail(r.Email):
		return model.NewDomainError(model.ErrCodeInvalidField, "Email address is not valid")
	case len(r.Password) < MinPasswordLength:
		return model.NewDomainError(model.ErrCodeInvalidField, "Password must be at least 6 characters")
	case r.Password != r.ConfirmPassword:
		return model.NewDomainError(model.ErrCodeInvalidField, "Passwords do not match")
	}
	return nil
}

// Provider is the remote authentication service.
type Provider interface {
	// Login verifies credentials and opens a session.
	Login(ctx context.Context, email, password string) (Session, error)

	// Signup creates an account and opens a session for it.
	Signup(ctx context.Context, req SignupRequest) (Session, error)

	// Logout ends the session identified by token.
	Logout(ctx context.Context, token string) error

	// CurrentUser resolves a session token to its user.
	CurrentUser(ctx context.Context, token string) (*model.User, error)
}

// NormaliseEmail lower-cases and trims an address for lookups.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	return err == nil && addr.Address == strings.TrimSpace(email)
}
