package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"bulkmart/internal/auth"
	"bulkmart/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAccountHandler_Login(t *testing.T) {
	logger := zerolog.Nop()

	sess := &auth.Session{
		Token:     "tok-1",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      model.User{ID: "u-1", Email: "buyer@example.com", Name: "Asha Traders"},
	}

	tests := []struct {
		name            string
		requestBody     any
		mockReturn      *auth.Session
		mockError       error
		expectedStatus  int
		expectedCode    string
		expectedMessage string
		expectService   bool
	}{
		{
			name:           "Success",
			requestBody:    loginRequest{Email: "buyer@example.com", Password: "secret1"},
			mockReturn:     sess,
			expectedStatus: http.StatusOK,
			expectService:  true,
		},
		{
			name:            "Wrong password",
			requestBody:     loginRequest{Email: "buyer@example.com", Password: "secret1"},
			mockError:       auth.ErrWrongPassword,
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    model.ErrCodeWrongPassword,
			expectedMessage: auth.ErrWrongPassword.Message,
			expectService:   true,
		},
		{
			name:           "Throttled",
			requestBody:    loginRequest{Email: "buyer@example.com", Password: "secret1"},
			mockError:      auth.ErrTooManyRequests,
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   model.ErrCodeTooManyRequests,
			expectService:  true,
		},
		{
			name:           "Disabled account",
			requestBody:    loginRequest{Email: "buyer@example.com", Password: "secret1"},
			mockError:      auth.ErrAccountDisabled,
			expectedStatus: http.StatusForbidden,
			expectedCode:   model.ErrCodeAccountDisabled,
			expectService:  true,
		},
		{
			name:            "Provider failure shows generic message",
			requestBody:     loginRequest{Email: "buyer@example.com", Password: "secret1"},
			mockError:       errors.New("pq: relation \"users\" does not exist"),
			expectedStatus:  http.StatusBadGateway,
			expectedCode:    model.ErrCodeAuthFailed,
			expectedMessage: auth.ErrAuthFailed.Message,
			expectService:   true,
		},
		{
			name:           "Invalid JSON",
			requestBody:    "{",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   model.ErrCodeInvalidJSON,
			expectService:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAccountService)
			handler := NewAccountHandler(mockService, logger)

			if tt.expectService {
				mockService.On("Login", mock.Anything, testSession, "buyer@example.com", "secret1").
					Return(tt.mockReturn, tt.mockError)
			}

			w := serve("POST /api/auth/login", handler.Login, newRequest(t, http.MethodPost, "/api/auth/login", tt.requestBody))

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				resp := decodeError(t, w)
				assert.Equal(t, tt.expectedCode, resp.Error)
				if tt.expectedMessage != "" {
					assert.Equal(t, tt.expectedMessage, resp.Message)
				}
			}
			mockService.AssertExpectations(t)
		})
	}
}

func TestAccountHandler_Signup(t *testing.T) {
	mockService := new(MockAccountService)
	handler := NewAccountHandler(mockService, zerolog.Nop())

	req := auth.SignupRequest{
		Name:            "Asha Traders",
		Email:           "buyer@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	}
	mockService.On("Signup", mock.Anything, testSession, req).
		Return(&auth.Session{Token: "tok-1", User: model.User{ID: "u-1", Email: req.Email}}, nil).Once()
	mockService.On("Signup", mock.Anything, testSession, req).
		Return(nil, auth.ErrEmailInUse).Once()

	w := serve("POST /api/auth/signup", handler.Signup, newRequest(t, http.MethodPost, "/api/auth/signup", req))
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve("POST /api/auth/signup", handler.Signup, newRequest(t, http.MethodPost, "/api/auth/signup", req))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, model.ErrCodeEmailInUse, decodeError(t, w).Error)

	mockService.AssertExpectations(t)
}

func TestAccountHandler_LogoutAlwaysSucceeds(t *testing.T) {
	mockService := new(MockAccountService)
	handler := NewAccountHandler(mockService, zerolog.Nop())
	mockService.On("Logout", mock.Anything, testSession).Return(errors.New("provider unreachable"))

	w := serve("POST /api/auth/logout", handler.Logout, newRequest(t, http.MethodPost, "/api/auth/logout", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestAccountHandler_Me(t *testing.T) {
	t.Run("signed in", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		mockService.On("Me", mock.Anything, testSession).Return(&model.User{ID: "u-1", Email: "buyer@example.com"}, nil)

		w := serve("GET /api/auth/me", handler.Me, newRequest(t, http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var u model.User
		require.NoError(t, json.NewDecoder(w.Body).Decode(&u))
		assert.Equal(t, "u-1", u.ID)
	})

	t.Run("signed out", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		mockService.On("Me", mock.Anything, testSession).Return(nil, model.ErrUnauthenticated)

		w := serve("GET /api/auth/me", handler.Me, newRequest(t, http.MethodGet, "/api/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, model.ErrCodeUnauthorised, decodeError(t, w).Error)
	})
}

func TestAccountHandler_Addresses(t *testing.T) {
	addr := model.Address{
		FullName: "Asha Traders",
		Phone:    "9876543210",
		City:     "Pune",
		State:    "MH",
		Pincode:  "411001",
	}
	saved := addr
	saved.ID = "a-1"
	saved.IsDefault = true

	t.Run("add", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		mockService.On("AddAddress", mock.Anything, testSession, addr).Return(&saved, nil)

		w := serve("POST /api/addresses", handler.AddAddress, newRequest(t, http.MethodPost, "/api/addresses", addr))

		assert.Equal(t, http.StatusCreated, w.Code)
		var got model.Address
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "a-1", got.ID)
		assert.True(t, got.IsDefault)
		mockService.AssertExpectations(t)
	})

	t.Run("update takes ID from path", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		withID := addr
		withID.ID = "a-1"
		mockService.On("UpdateAddress", mock.Anything, testSession, withID).Return(&saved, nil)

		w := serve("PUT /api/addresses/{id}", handler.UpdateAddress, newRequest(t, http.MethodPut, "/api/addresses/a-1", addr))

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("delete unknown", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		mockService.On("DeleteAddress", mock.Anything, testSession, "a-9").Return(model.ErrAddressNotFound)

		w := serve("DELETE /api/addresses/{id}", handler.DeleteAddress, newRequest(t, http.MethodDelete, "/api/addresses/a-9", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("set default returns the list", func(t *testing.T) {
		mockService := new(MockAccountService)
		handler := NewAccountHandler(mockService, zerolog.Nop())
		mockService.On("SetDefaultAddress", mock.Anything, testSession, "a-1").Return(nil)
		mockService.On("Addresses", mock.Anything, testSession).Return([]model.Address{saved})

		w := serve("POST /api/addresses/{id}/default", handler.SetDefaultAddress,
			newRequest(t, http.MethodPost, "/api/addresses/a-1/default", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var got []model.Address
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		require.Len(t, got, 1)
		assert.True(t, got[0].IsDefault)
		mockService.AssertExpectations(t)
	})
}
