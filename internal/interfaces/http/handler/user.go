package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/application/identity"
)

// ProfileUseCases reads and edits the current user's profile
type ProfileUseCases interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*identity.UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, input identity.UpdateProfileInput) (*identity.UserDTO, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, input identity.UpdatePreferencesInput) (*identity.UserDTO, error)
}

// UserHandler handles the current user's profile
type UserHandler struct {
	BaseHandler
	service ProfileUseCases
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service ProfileUseCases) *UserHandler {
	return &UserHandler{service: service}
}

// Me godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdateMe godoc
// @Summary      Update profile
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdateProfileInput true "Profile"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req identity.UpdateProfileInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// UpdatePreferences godoc
// @Summary      Update preferences
// @Description  Preferred currency (ISO 4217) and IANA time zone
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request body identity.UpdatePreferencesInput true "Preferences"
// @Success      200 {object} APIResponse[identity.UserDTO]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /users/me/preferences [put]
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req identity.UpdatePreferencesInput
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdatePreferences(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
