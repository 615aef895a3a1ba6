package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bulkmart/internal/auth"
	"bulkmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newAccountFixture(t *testing.T) (*MockProvider, AccountService) {
	t.Helper()
	provider := new(MockProvider)
	sessions := newTestRegistry(t, provider, new(MockProductRepository))
	return provider, NewAccountService(sessions, zerolog.Nop())
}

func TestAccountService_LoginAndLogout(t *testing.T) {
	provider, svc := newAccountFixture(t)
	ctx := context.Background()

	provider.On("Login", ctx, testUser.Email, "secret1").Return(auth.Session{
		Token:     "tok",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      testUser,
	}, nil)
	provider.On("Logout", ctx, "tok").Return(nil)

	_, err := svc.Me(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	sess, err := svc.Login(ctx, "s1", testUser.Email, "secret1")
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)

	me, err := svc.Me(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, testUser.Email, me.Email)

	// Sign-in is per session.
	_, err = svc.Me(ctx, "s2")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)

	require.NoError(t, svc.Logout(ctx, "s1"))
	_, err = svc.Me(ctx, "s1")
	assert.ErrorIs(t, err, model.ErrUnauthenticated)
	provider.AssertExpectations(t)
}

func TestAccountService_LoginFailures(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		password    string
		providerErr error
		expectedErr error
	}{
		{name: "Wrong password", email: testUser.Email, password: "nope", providerErr: auth.ErrWrongPassword, expectedErr: auth.ErrWrongPassword},
		{name: "Unknown account", email: "ghost@example.com", password: "secret1", providerErr: auth.ErrUserNotFound, expectedErr: auth.ErrUserNotFound},
		{name: "Missing password", email: testUser.Email},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, svc := newAccountFixture(t)
			ctx := context.Background()
			provider.On("Login", ctx, tt.email, tt.password).Return(auth.Session{}, tt.providerErr)

			sess, err := svc.Login(ctx, "s1", tt.email, tt.password)

			assert.Nil(t, sess)
			require.Error(t, err)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				provider.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestAccountService_Signup(t *testing.T) {
	provider, svc := newAccountFixture(t)
	ctx := context.Background()

	req := auth.SignupRequest{
		Name:            "Asha Traders",
		Email:           testUser.Email,
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	provider.On("Signup", ctx, req).Return(auth.Session{Token: "tok", User: testUser}, nil)

	sess, err := svc.Signup(ctx, "s1", req)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, sess.User.ID)

	mismatch := req
	mismatch.ConfirmPassword = "other"
	_, err = svc.Signup(ctx, "s2", mismatch)
	assert.Error(t, err)
	provider.AssertNumberOfCalls(t, "Signup", 1)
}

func TestAccountService_Restore(t *testing.T) {
	provider, svc := newAccountFixture(t)
	ctx := context.Background()

	provider.On("CurrentUser", ctx, "good").Return(&testUser, nil).Once()
	provider.On("CurrentUser", ctx, "revoked").Return(nil, auth.ErrSessionExpired)

	user, err := svc.Restore(ctx, "s1", "good")
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, user.ID)

	// The same token is served from the gate without another lookup.
	_, err = svc.Restore(ctx, "s1", "good")
	require.NoError(t, err)

	_, err = svc.Restore(ctx, "s2", "revoked")
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	provider.AssertNumberOfCalls(t, "CurrentUser", 2)
}

func TestAccountService_Addresses(t *testing.T) {
	_, svc := newAccountFixture(t)
	ctx := context.Background()

	first, err := svc.AddAddress(ctx, "s1", testAddress())
	require.NoError(t, err)
	assert.True(t, first.IsDefault, "first address becomes the default")

	second, err := svc.AddAddress(ctx, "s1", testAddress())
	require.NoError(t, err)
	assert.False(t, second.IsDefault)

	require.NoError(t, svc.SetDefaultAddress(ctx, "s1", second.ID))

	second.City = "Mumbai"
	updated, err := svc.UpdateAddress(ctx, "s1", *second)
	require.NoError(t, err)
	assert.Equal(t, "Mumbai", updated.City)

	require.NoError(t, svc.DeleteAddress(ctx, "s1", first.ID))
	list := svc.Addresses(ctx, "s1")
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDefault)

	incomplete := testAddress()
	incomplete.Pincode = ""
	_, err = svc.AddAddress(ctx, "s1", incomplete)
	assert.Error(t, err)

	err = svc.DeleteAddress(ctx, "s1", "missing")
	assert.True(t, errors.Is(err, model.ErrAddressNotFound))
}
