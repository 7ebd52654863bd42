package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/application/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/auth"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/logger"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// Authenticator registers and verifies users
type Authenticator interface {
	Register(ctx context.Context, input identity.RegisterInput) (*identity.UserDTO, error)
	Authenticate(ctx context.Context, email, password string) (*identity.UserDTO, error)
}

// TokenIssuer issues access tokens
type TokenIssuer interface {
	GenerateToken(userID uuid.UUID, email string) (*auth.Token, error)
}

// TokenRevoker revokes access tokens on logout
type TokenRevoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
}

// AuthHandler handles registration, login and logout
type AuthHandler struct {
	BaseHandler
	users   Authenticator
	tokens  TokenIssuer
	revoker TokenRevoker
}

// NewAuthHandler creates a new AuthHandler. tokens and revoker are nil when
// JWT is disabled; login then only verifies the credentials.
func NewAuthHandler(users Authenticator, tokens TokenIssuer, revoker TokenRevoker) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, revoker: revoker}
}

// LoginRequest carries login credentials
// @Description Login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"ann@example.com"`
	Password string `json:"password" binding:"required" example:"correct horse battery"`
}

// LoginResponse is returned on successful login
// @Description Login result
type LoginResponse struct {
	User  *identity.UserDTO `json:"user"`
	Token *auth.Token       `json:"token,omitempty"`
}

// Register godoc
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterInput true "Registration"
// @Success      201 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /users/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, user)
}

// Login godoc
// @Summary      Log in
// @Description  Verifies the credentials and returns a bearer token when JWT is enabled
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} APIResponse[LoginResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      429 {object} ErrorResponse
// @Router       /users/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == shared.CodeForbidden {
			h.Unauthorized(c, "Invalid email or password")
			return
		}
		h.HandleError(c, err)
		return
	}

	resp := LoginResponse{User: user}
	if h.tokens != nil {
		token, err := h.tokens.GenerateToken(user.ID, user.Email)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		resp.Token = token
	}
	h.Success(c, resp)
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the presented token until it expires
// @Tags         users
// @Success      204
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil || h.revoker == nil {
		h.NoContent(c)
		return
	}
	if err := h.revoker.Revoke(c.Request.Context(), claims); err != nil {
		logger.FromContext(c.Request.Context()).Error("Failed to revoke token", zap.Error(err))
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Failed to log out")
		return
	}
	h.NoContent(c)
}
