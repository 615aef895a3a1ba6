package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"bulkmart/internal/model"
	"bulkmart/internal/notify"

	"github.com/rs/zerolog"
)

// State is the sign-in state of a session as broadcast to subscribers.
type State struct {
	Authenticated bool        `json:"authenticated"`
	User          *model.User `json:"user,omitempty"`
}

// Gate caches the sign-in state of one browsing session. Checks such as
// IsAuthenticated read the cache and never call the provider.
type Gate struct {
	provider Provider
	logger   zerolog.Logger
	hub      *notify.Hub[State]
	now      func() time.Time

	mu        sync.RWMutex
	user      *model.User
	token     string
	expiresAt time.Time
}

// NewGate creates a signed-out gate.
func NewGate(provider Provider, logger zerolog.Logger) *Gate {
	g := &Gate{
		provider: provider,
		logger:   logger.With().Str("component", "auth-gate").Logger(),
		hub:      notify.NewHub[State]("auth", logger),
		now:      time.Now,
	}
	g.hub.Publish(State{})
	return g
}

// IsAuthenticated reports whether the session holds an unexpired sign-in.
func (g *Gate) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.activeLocked()
}

// CurrentUser returns a copy of the signed-in user, or nil.
func (g *Gate) CurrentUser() *model.User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.activeLocked() {
		return nil
	}
	u := *g.user
	return &u
}

// Token returns the session token, or an empty string when signed out.
func (g *Gate) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if !g.activeLocked() {
		return ""
	}
	return g.token
}

func (g *Gate) activeLocked() bool {
	if g.user == nil {
		return false
	}
	return g.expiresAt.IsZero() || g.now().Before(g.expiresAt)
}

// Login signs in with email and password.
func (g *Gate) Login(ctx context.Context, email, password string) (Session, error) {
	if strings.TrimSpace(email) == "" {
		return Session{}, model.NewDomainError(model.ErrCodeMissingField, "Email is required")
	}
	if password == "" {
		return Session{}, model.NewDomainError(model.ErrCodeMissingField, "Password is required")
	}

	session, err := g.provider.Login(ctx, email, password)
	if err != nil {
		g.logger.Warn().Err(err).Str("email", NormaliseEmail(email)).Msg("login failed")
		return Session{}, err
	}

	g.set(session)
	g.logger.Info().Str("user_id", session.User.ID).Msg("user logged in")
	return session, nil
}

// Signup creates an account and signs in as it.
func (g *Gate) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return Session{}, err
	}

	session, err := g.provider.Signup(ctx, req)
	if err != nil {
		g.logger.Warn().Err(err).Str("email", NormaliseEmail(req.Email)).Msg("signup failed")
		return Session{}, err
	}

	g.set(session)
	g.logger.Info().Str("user_id", session.User.ID).Msg("user signed up")
	return session, nil
}

// Restore signs the session in from an existing token, such as one presented
// in an Authorization header. A token already cached is accepted as is.
func (g *Gate) Restore(ctx context.Context, token string) (*model.User, error) {
	g.mu.RLock()
	if g.activeLocked() && g.token == token {
		u := *g.user
		g.mu.RUnlock()
		return &u, nil
	}
	g.mu.RUnlock()

	user, err := g.provider.CurrentUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrSessionExpired
	}

	g.set(Session{Token: token, User: *user})
	u := *user
	return &u, nil
}

// Logout signs the session out. The cached state is always cleared; an error
// from the provider is returned afterwards.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	token := g.token
	wasIn := g.user != nil
	g.user = nil
	g.token = ""
	g.expiresAt = time.Time{}
	g.mu.Unlock()

	if wasIn {
		g.hub.Publish(State{})
	}

	if token == "" {
		return nil
	}
	if err := g.provider.Logout(ctx, token); err != nil {
		g.logger.Error().Err(err).Msg("remote sign-out failed, local session cleared")
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

// Subscribe registers fn for sign-in transitions. fn first receives the
// current state.
func (g *Gate) Subscribe(fn func(State)) *notify.Subscription[State] {
	return g.hub.Subscribe(fn)
}

// Close releases the gate's notification hub.
func (g *Gate) Close() {
	g.hub.Close()
}

func (g *Gate) set(session Session) {
	user := session.User

	g.mu.Lock()
	g.user = &user
	g.token = session.Token
	g.expiresAt = session.ExpiresAt
	g.mu.Unlock()

	published := user
	g.hub.Publish(State{Authenticated: true, User: &published})
}
