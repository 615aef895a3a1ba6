package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bulkmart/internal/localstore"
	"bulkmart/internal/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"
)

// revocationNamespace is the localstore session under which revoked token
// IDs are kept.
const revocationNamespace = "auth-revocations"

// UserRepository stores accounts.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Create(ctx context.Context, user *model.User) error
}

// Config controls token issuance and attempt limiting.
type Config struct {
	JWTSecret     string
	Issuer        string
	TokenTTL      time.Duration
	MaxAttempts   int
	AttemptWindow time.Duration
}

// Claims are the JWT claims of a session token.
type Claims struct {
	UserID string     `json:"user_id"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

type attemptLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localProvider implements Provider against the user table.
type localProvider struct {
	users       UserRepository
	revocations localstore.Store
	cfg         Config
	logger      zerolog.Logger
	now         func() time.Time

	mu       sync.Mutex
	attempts map[string]*attemptLimiter
}

// NewLocalProvider creates a Provider that verifies bcrypt password hashes and
// issues HS256 session tokens.
func NewLocalProvider(users UserRepository, revocations localstore.Store, cfg Config, logger zerolog.Logger) Provider {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "bulkmart"
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}
	return &localProvider{
		users:       users,
		revocations: revocations,
		cfg:         cfg,
		logger:      logger.With().Str("component", "auth-provider").Logger(),
		now:         time.Now,
		attempts:    make(map[string]*attemptLimiter),
	}
}

// Login verifies credentials and issues a session token.
func (p *localProvider) Login(ctx context.Context, email, password string) (Session, error) {
	email = NormaliseEmail(email)
	if !validEmail(email) || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	if !p.allow(email) {
		return Session{}, ErrTooManyRequests
	}

	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		p.logger.Error().Err(err).Str("email", email).Msg("failed to look up user")
		return Session{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if user == nil {
		return Session{}, ErrUserNotFound
	}
	if user.Disabled {
		return Session{}, ErrAccountDisabled
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return Session{}, ErrWrongPassword
		}
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to compare password hash")
		return Session{}, ErrAuthFailed
	}

	return p.issue(*user)
}

// Signup creates a customer account.
func (p *localProvider) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	if err := req.Validate(); err != nil {
		return Session{}, err
	}
	email := NormaliseEmail(req.Email)

	if !p.allow(email) {
		return Session{}, ErrTooManyRequests
	}

	existing, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		p.logger.Error().Err(err).Str("email", email).Msg("failed to look up user")
		return Session{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if existing != nil {
		return Session{}, ErrEmailInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to hash password")
		return Session{}, ErrAuthFailed
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Role:         model.RoleCustomer,
		PasswordHash: string(hash),
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.Create(ctx, user); err != nil {
		if de, ok := model.AsDomainError(err); ok && de.Code == model.ErrCodeEmailInUse {
			return Session{}, ErrEmailInUse
		}
		p.logger.Error().Err(err).Str("email", email).Msg("failed to create user")
		return Session{}, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}

	p.logger.Info().Str("user_id", user.ID).Msg("account created")
	return p.issue(*user)
}

// Logout revokes the token until it would have expired anyway.
func (p *localProvider) Logout(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		// Nothing to revoke.
		return nil
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := p.revocations.SaveUntil(ctx, revocationNamespace, claims.ID, expiresAt, expiresAt); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// CurrentUser resolves a token to the stored user.
func (p *localProvider) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, ErrSessionExpired
	}

	var revokedUntil time.Time
	revoked, err := p.revocations.Load(ctx, revocationNamespace, claims.ID, &revokedUntil)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to check token revocation")
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if revoked {
		return nil, ErrSessionExpired
	}

	user, err := p.users.GetByEmail(ctx, claims.Email)
	if err != nil {
		p.logger.Error().Err(err).Str("email", claims.Email).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if user == nil || user.ID != claims.UserID {
		return nil, ErrUserNotFound
	}
	if user.Disabled {
		return nil, ErrAccountDisabled
	}

	u := *user
	u.PasswordHash = ""
	return &u, nil
}

func (p *localProvider) issue(user model.User) (Session, error) {
	now := p.now()
	expiresAt := now.Add(p.cfg.TokenTTL)

	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   user.ID,
			Issuer:    p.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.cfg.JWTSecret))
	if err != nil {
		p.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to sign session token")
		return Session{}, ErrAuthFailed
	}

	p.reset(user.Email)

	user.PasswordHash = ""
	return Session{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (p *localProvider) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(p.cfg.JWTSecret), nil
	},
		jwt.WithIssuer(p.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || claims.ID == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// allow consumes one attempt for email.
func (p *localProvider) allow(email string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	p.pruneLocked(now)

	a, ok := p.attempts[email]
	if !ok {
		every := p.cfg.AttemptWindow / time.Duration(p.cfg.MaxAttempts)
		a = &attemptLimiter{limiter: rate.NewLimiter(rate.Every(every), p.cfg.MaxAttempts)}
		p.attempts[email] = a
	}
	a.lastSeen = now
	return a.limiter.AllowN(now, 1)
}

// reset forgets the attempts of a successful sign-in.
func (p *localProvider) reset(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.attempts, email)
}

func (p *localProvider) pruneLocked(now time.Time) {
	if len(p.attempts) < 1024 {
		return
	}
	for email, a := range p.attempts {
		if now.Sub(a.lastSeen) > p.cfg.AttemptWindow {
			delete(p.attempts, email)
		}
	}
}
