package service

import (
	"context"

	"bulkmart/internal/auth"
	"bulkmart/internal/model"
	"bulkmart/internal/session"

	"github.com/rs/zerolog"
)

// accountService implements AccountService.
type accountService struct {
	sessions *session.Registry
	logger   zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(sessions *session.Registry, logger zerolog.Logger) AccountService {
	return &accountService{
		sessions: sessions,
		logger:   logger.With().Str("service", "account").Logger(),
	}
}

// Login signs the session in.
func (s *accountService) Login(ctx context.Context, sessionID, email, password string) (*auth.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID).Gate.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Signup creates an account and signs the session in as it.
func (s *accountService) Signup(ctx context.Context, sessionID string, req auth.SignupRequest) (*auth.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID).Gate.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Logout signs the session out.
func (s *accountService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Get(ctx, sessionID).Gate.Logout(ctx)
}

// Restore signs the session in from a bearer token.
func (s *accountService) Restore(ctx context.Context, sessionID, token string) (*model.User, error) {
	return s.sessions.Get(ctx, sessionID).Gate.Restore(ctx, token)
}

// Me returns the signed-in user.
func (s *accountService) Me(ctx context.Context, sessionID string) (*model.User, error) {
	user := s.sessions.Get(ctx, sessionID).Gate.CurrentUser()
	if user == nil {
		return nil, model.ErrUnauthenticated
	}
	return user, nil
}

// Addresses lists the saved addresses.
func (s *accountService) Addresses(ctx context.Context, sessionID string) []model.Address {
	return s.sessions.Get(ctx, sessionID).Addresses.List()
}

// AddAddress saves a new address.
func (s *accountService) AddAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error) {
	saved, err := s.sessions.Get(ctx, sessionID).Addresses.Add(ctx, a)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// UpdateAddress replaces an existing address.
func (s *accountService) UpdateAddress(ctx context.Context, sessionID string, a model.Address) (*model.Address, error) {
	saved, err := s.sessions.Get(ctx, sessionID).Addresses.Update(ctx, a)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

// DeleteAddress removes an address.
func (s *accountService) DeleteAddress(ctx context.Context, sessionID, addressID string) error {
	return s.sessions.Get(ctx, sessionID).Addresses.Delete(ctx, addressID)
}

// SetDefaultAddress makes an address the default.
func (s *accountService) SetDefaultAddress(ctx context.Context, sessionID, addressID string) error {
	return s.sessions.Get(ctx, sessionID).Addresses.SetDefault(ctx, addressID)
}
