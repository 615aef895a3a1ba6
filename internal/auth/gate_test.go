package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"bulkmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockProvider is a mock implementation of Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Login(ctx context.Context, email, password string) (Session, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(Session), args.Error(1)
}

func (m *MockProvider) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(Session), args.Error(1)
}

func (m *MockProvider) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockProvider) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func testSession() Session {
	return Session{
		Token:     "token-1",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      model.User{ID: "u1", Email: "buyer@example.com", Name: "Buyer", Role: model.RoleCustomer},
	}
}

func TestGate_LoginCachesSession(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Login", mock.Anything, "buyer@example.com", "secret1").Return(testSession(), nil).Once()

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	assert.False(t, gate.IsAuthenticated())
	assert.Nil(t, gate.CurrentUser())

	_, err := gate.Login(context.Background(), "buyer@example.com", "secret1")
	require.NoError(t, err)

	// Repeated checks are served from the cache.
	for i := 0; i < 3; i++ {
		assert.True(t, gate.IsAuthenticated())
		require.NotNil(t, gate.CurrentUser())
		assert.Equal(t, "u1", gate.CurrentUser().ID)
	}
	assert.Equal(t, "token-1", gate.Token())
	provider.AssertExpectations(t)
}

func TestGate_LoginValidationSkipsProvider(t *testing.T) {
	provider := new(MockProvider)
	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	_, err := gate.Login(context.Background(), " ", "pw")
	de, ok := model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCodeMissingField, de.Code)

	_, err = gate.Login(context.Background(), "a@b.com", "")
	require.Error(t, err)

	_, err = gate.Signup(context.Background(), SignupRequest{
		Name: "A", Email: "a@b.com", Password: "secret1", ConfirmPassword: "secret2",
	})
	de, ok = model.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "Passwords do not match", de.Message)

	provider.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	provider.AssertNotCalled(t, "Signup", mock.Anything, mock.Anything)
}

func TestGate_LoginFailureLeavesSignedOut(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(Session{}, ErrWrongPassword)

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	_, err := gate.Login(context.Background(), "buyer@example.com", "bad")
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.False(t, gate.IsAuthenticated())
}

func TestGate_LogoutClearsEvenWhenRemoteFails(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(testSession(), nil)
	provider.On("Logout", mock.Anything, "token-1").Return(errors.New("network unreachable"))

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	_, err := gate.Login(context.Background(), "buyer@example.com", "secret1")
	require.NoError(t, err)

	err = gate.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to sign out")
	assert.False(t, gate.IsAuthenticated())
	assert.Nil(t, gate.CurrentUser())
	assert.Empty(t, gate.Token())
}

func TestGate_LogoutWhenSignedOut(t *testing.T) {
	provider := new(MockProvider)
	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	require.NoError(t, gate.Logout(context.Background()))
	provider.AssertNotCalled(t, "Logout", mock.Anything, mock.Anything)
}

func TestGate_ExpiredSessionIsSignedOut(t *testing.T) {
	provider := new(MockProvider)
	session := testSession()
	provider.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(session, nil)

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	_, err := gate.Login(context.Background(), "buyer@example.com", "secret1")
	require.NoError(t, err)

	gate.now = func() time.Time { return session.ExpiresAt.Add(time.Second) }
	assert.False(t, gate.IsAuthenticated())
	assert.Empty(t, gate.Token())
}

func TestGate_Restore(t *testing.T) {
	provider := new(MockProvider)
	user := &model.User{ID: "u2", Email: "x@example.com"}
	provider.On("CurrentUser", mock.Anything, "good").Return(user, nil).Once()
	provider.On("CurrentUser", mock.Anything, "bad").Return(nil, ErrSessionExpired)

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	got, err := gate.Restore(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u2", got.ID)

	// Second restore with the cached token does not hit the provider.
	_, err = gate.Restore(context.Background(), "good")
	require.NoError(t, err)

	_, err = gate.Restore(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrSessionExpired)
	provider.AssertExpectations(t)
}

func TestGate_SubscribeReceivesTransitions(t *testing.T) {
	provider := new(MockProvider)
	provider.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(testSession(), nil)
	provider.On("Logout", mock.Anything, mock.Anything).Return(nil)

	gate := NewGate(provider, zerolog.Nop())
	defer gate.Close()

	states := make(chan State, 8)
	sub := gate.Subscribe(func(s State) { states <- s })
	defer sub.Close()

	next := func() State {
		select {
		case s := <-states:
			return s
		case <-time.After(2 * time.Second):
			t.Fatal("no state delivered")
			return State{}
		}
	}

	assert.False(t, next().Authenticated)

	_, err := gate.Login(context.Background(), "buyer@example.com", "secret1")
	require.NoError(t, err)
	s := next()
	assert.True(t, s.Authenticated)
	assert.Equal(t, "u1", s.User.ID)

	require.NoError(t, gate.Logout(context.Background()))
	assert.False(t, next().Authenticated)
}

func TestMessage_DistinctPerError(t *testing.T) {
	errs := []error{
		ErrInvalidCredentials, ErrUserNotFound, ErrWrongPassword,
		ErrTooManyRequests, ErrAccountDisabled, ErrAuthFailed,
	}

	seen := make(map[string]bool)
	for _, err := range errs {
		msg := Message(err)
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "duplicate message %q", msg)
		seen[msg] = true
	}

	assert.Equal(t, ErrAuthFailed.Message, Message(errors.New("dial tcp: refused")))
	assert.Equal(t, ErrWrongPassword.Message, Message(errors.Join(errors.New("ctx"), ErrWrongPassword)))
	assert.Empty(t, Message(nil))
}
