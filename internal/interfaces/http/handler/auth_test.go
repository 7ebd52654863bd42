package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/application/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/auth"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/config"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAuthenticator struct {
	mock.Mock
}

func (m *MockAuthenticator) Register(ctx context.Context, input identity.RegisterInput) (*identity.UserDTO, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserDTO), args.Error(1)
}

func (m *MockAuthenticator) Authenticate(ctx context.Context, email, password string) (*identity.UserDTO, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.UserDTO), args.Error(1)
}

type MockTokenRevoker struct {
	mock.Mock
}

func (m *MockTokenRevoker) Revoke(ctx context.Context, claims *auth.Claims) error {
	return m.Called(ctx, claims).Error(0)
}

func newAuthTestEngine(h *AuthHandler, claims *auth.Claims) http.Handler {
	engine := newTestEngine()
	engine.Use(func(c *gin.Context) {
		if claims != nil {
			c.Set(middleware.JWTClaimsKey, claims)
		}
		c.Next()
	})
	engine.POST("/users/register", h.Register)
	engine.POST("/users/login", h.Login)
	engine.POST("/users/logout", h.Logout)
	return engine
}

func TestAuthHandler_Register(t *testing.T) {
	users := new(MockAuthenticator)
	users.On("Register", mock.Anything, identity.RegisterInput{
		Email: "ann@example.com", FirstName: "Ann", LastName: "Lee", Password: "long-enough-pw",
	}).Return(&identity.UserDTO{ID: uuid.New(), Email: "ann@example.com"}, nil)
	engine := newAuthTestEngine(NewAuthHandler(users, nil, nil), nil)

	rec := doRequest(engine, http.MethodPost, "/users/register", uuid.Nil, map[string]string{
		"email": "ann@example.com", "first_name": "Ann", "last_name": "Lee", "password": "long-enough-pw",
	})
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doRequest(engine, http.MethodPost, "/users/register", uuid.Nil, map[string]string{
		"email": "ann@example.com", "first_name": "Ann", "last_name": "Lee", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNumberOfCalls(t, "Register", 1)
}

func TestAuthHandler_Login(t *testing.T) {
	userID := uuid.New()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Enabled:  true,
		Secret:   "test-secret-key-at-least-32-chars!!",
		Issuer:   "expenseai-test",
		TokenTTL: time.Hour,
	})

	t.Run("issues a token", func(t *testing.T) {
		users := new(MockAuthenticator)
		users.On("Authenticate", mock.Anything, "ann@example.com", "secret-pass").
			Return(&identity.UserDTO{ID: userID, Email: "ann@example.com"}, nil)
		engine := newAuthTestEngine(NewAuthHandler(users, jwtService, nil), nil)

		rec := doRequest(engine, http.MethodPost, "/users/login", uuid.Nil,
			LoginRequest{Email: "ann@example.com", Password: "secret-pass"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Data LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.NotNil(t, body.Data.Token)
		assert.Equal(t, "Bearer", body.Data.Token.TokenType)

		claims, err := jwtService.ValidateToken(body.Data.Token.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.UserID)
	})

	t.Run("without jwt only verifies", func(t *testing.T) {
		users := new(MockAuthenticator)
		users.On("Authenticate", mock.Anything, "ann@example.com", "secret-pass").
			Return(&identity.UserDTO{ID: userID, Email: "ann@example.com"}, nil)
		engine := newAuthTestEngine(NewAuthHandler(users, nil, nil), nil)

		rec := doRequest(engine, http.MethodPost, "/users/login", uuid.Nil,
			LoginRequest{Email: "ann@example.com", Password: "secret-pass"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotContains(t, rec.Body.String(), "access_token")
	})

	t.Run("bad credentials", func(t *testing.T) {
		users := new(MockAuthenticator)
		users.On("Authenticate", mock.Anything, "ann@example.com", "wrong").
			Return(nil, shared.NewDomainError(shared.CodeForbidden, "Invalid email or password"))
		engine := newAuthTestEngine(NewAuthHandler(users, jwtService, nil), nil)

		rec := doRequest(engine, http.MethodPost, "/users/login", uuid.Nil,
			LoginRequest{Email: "ann@example.com", Password: "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, dto.ErrCodeUnauthorized, decodeResponse(t, rec).Error.Code)
	})
}

func TestAuthHandler_Logout(t *testing.T) {
	claims := &auth.Claims{UserID: uuid.New().String()}
	claims.ID = "jti-1"

	t.Run("revokes presented token", func(t *testing.T) {
		revoker := new(MockTokenRevoker)
		revoker.On("Revoke", mock.Anything, claims).Return(nil)
		engine := newAuthTestEngine(NewAuthHandler(new(MockAuthenticator), nil, revoker), claims)

		rec := doRequest(engine, http.MethodPost, "/users/logout", uuid.Nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		revoker.AssertExpectations(t)
	})

	t.Run("revocation failure", func(t *testing.T) {
		revoker := new(MockTokenRevoker)
		revoker.On("Revoke", mock.Anything, claims).Return(errors.New("redis down"))
		engine := newAuthTestEngine(NewAuthHandler(new(MockAuthenticator), nil, revoker), claims)

		rec := doRequest(engine, http.MethodPost, "/users/logout", uuid.Nil, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("no token is a no-op", func(t *testing.T) {
		revoker := new(MockTokenRevoker)
		engine := newAuthTestEngine(NewAuthHandler(new(MockAuthenticator), nil, revoker), nil)

		rec := doRequest(engine, http.MethodPost, "/users/logout", uuid.Nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		revoker.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything)
	})
}
