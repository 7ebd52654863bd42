package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// BudgetUseCases is the budget application surface the handler drives
type BudgetUseCases interface {
	Create(ctx context.Context, userID uuid.UUID, req financeapp.CreateBudgetRequest) (*financeapp.BudgetResponse, error)
	Update(ctx context.Context, userID, budgetID uuid.UUID, req financeapp.UpdateBudgetRequest) (*financeapp.BudgetResponse, error)
	SetAlertThreshold(ctx context.Context, userID, budgetID uuid.UUID, pct decimal.Decimal) (*financeapp.BudgetResponse, error)
	SetRecurrence(ctx context.Context, userID, budgetID uuid.UUID, recurrence string) (*financeapp.BudgetResponse, error)
	RemoveRecurrence(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error)
	Deactivate(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error)
	Delete(ctx context.Context, userID, budgetID uuid.UUID) error
	Get(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter financeapp.BudgetListFilter) (shared.Paginated[financeapp.BudgetResponse], error)
	Performance(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetPerformanceResponse, error)
}

// BudgetHandler handles budget API endpoints
type BudgetHandler struct {
	BaseHandler
	service BudgetUseCases
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(service BudgetUseCases) *BudgetHandler {
	return &BudgetHandler{service: service}
}

// AlertThresholdRequest sets the alert percentage
// @Description Alert threshold in percent of the budget amount (0-100)
type AlertThresholdRequest struct {
	Threshold decimal.Decimal `json:"threshold" swaggertype:"string" example:"80"`
}

// RecurrenceRequest sets the budget recurrence
// @Description Budget recurrence
type RecurrenceRequest struct {
	Recurrence string `json:"recurrence" binding:"required,oneof=weekly monthly quarterly yearly" example:"monthly"`
}

// Create godoc
// @Summary      Create a budget
// @Description  Budgets of the same category may not overlap while active
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateBudgetRequest true "Budget"
// @Success      201 {object} APIResponse[financeapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req financeapp.CreateBudgetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	budget, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, budget)
}

// List godoc
// @Summary      List budgets
// @Tags         budgets
// @Produce      json
// @Param        category query string false "Category name"
// @Param        active_only query bool false "Only active budgets"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]financeapp.BudgetResponse]
// @Security     BearerAuth
// @Router       /budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter financeapp.BudgetListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListByUser(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Get godoc
// @Summary      Get a budget
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	h.withBudget(c, h.service.Get)
}

// Update godoc
// @Summary      Update a budget
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Param        request body financeapp.UpdateBudgetRequest true "Budget"
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	var req financeapp.UpdateBudgetRequest
	h.withBudgetBody(c, &req, func(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error) {
		return h.service.Update(ctx, userID, budgetID, req)
	})
}

// SetThreshold godoc
// @Summary      Set the alert threshold
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Param        request body AlertThresholdRequest true "Threshold"
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/threshold [put]
func (h *BudgetHandler) SetThreshold(c *gin.Context) {
	var req AlertThresholdRequest
	h.withBudgetBody(c, &req, func(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error) {
		return h.service.SetAlertThreshold(ctx, userID, budgetID, req.Threshold)
	})
}

// SetRecurrence godoc
// @Summary      Make a budget recurring
// @Tags         budgets
// @Accept       json
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Param        request body RecurrenceRequest true "Recurrence"
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/recurrence [put]
func (h *BudgetHandler) SetRecurrence(c *gin.Context) {
	var req RecurrenceRequest
	h.withBudgetBody(c, &req, func(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error) {
		return h.service.SetRecurrence(ctx, userID, budgetID, req.Recurrence)
	})
}

// RemoveRecurrence godoc
// @Summary      Stop a budget recurring
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Security     BearerAuth
// @Router       /budgets/{id}/recurrence [delete]
func (h *BudgetHandler) RemoveRecurrence(c *gin.Context) {
	h.withBudget(c, h.service.RemoveRecurrence)
}

// Deactivate godoc
// @Summary      Deactivate a budget
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.BudgetResponse]
// @Security     BearerAuth
// @Router       /budgets/{id}/deactivate [post]
func (h *BudgetHandler) Deactivate(c *gin.Context) {
	h.withBudget(c, h.service.Deactivate)
}

// Delete godoc
// @Summary      Delete a budget
// @Tags         budgets
// @Param        id path string true "Budget ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, budgetID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Performance godoc
// @Summary      Budget performance
// @Description  Spending of the budget category inside the budget window. Crossing the alert threshold emits an event once.
// @Tags         budgets
// @Produce      json
// @Param        id path string true "Budget ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.BudgetPerformanceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /budgets/{id}/performance [get]
func (h *BudgetHandler) Performance(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	perf, err := h.service.Performance(c.Request.Context(), userID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, perf)
}

type budgetAction func(ctx context.Context, userID, budgetID uuid.UUID) (*financeapp.BudgetResponse, error)

func (h *BudgetHandler) withBudget(c *gin.Context, action budgetAction) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	budget, err := action(c.Request.Context(), userID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, budget)
}

func (h *BudgetHandler) withBudgetBody(c *gin.Context, req any, action budgetAction) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	budgetID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if !h.bindJSON(c, req) {
		return
	}

	budget, err := action(c.Request.Context(), userID, budgetID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, budget)
}
