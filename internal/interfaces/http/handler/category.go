package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
)

// CategoryUseCases is the category application surface the handler drives
type CategoryUseCases interface {
	List(ctx context.Context, userID uuid.UUID) ([]financeapp.CategoryResponse, error)
	Create(ctx context.Context, userID uuid.UUID, req financeapp.CreateCategoryRequest) (*financeapp.CategoryResponse, error)
	Update(ctx context.Context, userID uuid.UUID, name string, req financeapp.UpdateCategoryRequest) (*financeapp.CategoryResponse, error)
	Deactivate(ctx context.Context, userID uuid.UUID, name string) error
}

// CategoryHandler handles expense category endpoints
type CategoryHandler struct {
	BaseHandler
	service CategoryUseCases
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(service CategoryUseCases) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// List godoc
// @Summary      List categories
// @Description  System categories first, then the user's active categories
// @Tags         categories
// @Produce      json
// @Success      200 {object} APIResponse[[]financeapp.CategoryResponse]
// @Security     BearerAuth
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	categories, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, categories)
}

// Create godoc
// @Summary      Create a category
// @Description  Names are unique per user ignoring case and may not shadow a system category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateCategoryRequest true "Category"
// @Success      201 {object} APIResponse[financeapp.CategoryResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /categories [post]
func (h *CategoryHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req financeapp.CreateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, category)
}

// Update godoc
// @Summary      Update a category
// @Tags         categories
// @Accept       json
// @Produce      json
// @Param        name path string true "Current category name"
// @Param        request body financeapp.UpdateCategoryRequest true "Category"
// @Success      200 {object} APIResponse[financeapp.CategoryResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /categories/{name} [put]
func (h *CategoryHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req financeapp.UpdateCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	category, err := h.service.Update(c.Request.Context(), userID, c.Param("name"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, category)
}

// Deactivate godoc
// @Summary      Deactivate a category
// @Description  System categories cannot be deactivated
// @Tags         categories
// @Param        name path string true "Category name"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /categories/{name} [delete]
func (h *CategoryHandler) Deactivate(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), userID, c.Param("name")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
