package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
)

// ExpenseUseCases is the expense application surface the handler drives
type ExpenseUseCases interface {
	Create(ctx context.Context, userID uuid.UUID, req financeapp.CreateExpenseRequest) (*financeapp.ExpenseResponse, error)
	Update(ctx context.Context, userID, expenseID uuid.UUID, req financeapp.UpdateExpenseRequest) (*financeapp.ExpenseResponse, error)
	Submit(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error)
	Approve(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error)
	Reject(ctx context.Context, userID, expenseID uuid.UUID, reason string) (*financeapp.ExpenseResponse, error)
	MarkReimbursed(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error)
	AddTag(ctx context.Context, userID, expenseID uuid.UUID, tag string) (*financeapp.ExpenseResponse, error)
	RemoveTag(ctx context.Context, userID, expenseID uuid.UUID, tag string) (*financeapp.ExpenseResponse, error)
	Delete(ctx context.Context, userID, expenseID uuid.UUID) error
	Get(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter financeapp.ExpenseListFilter) (shared.Paginated[financeapp.ExpenseResponse], error)
	UploadReceipt(ctx context.Context, userID, expenseID uuid.UUID, req financeapp.UploadReceiptRequest) (*financeapp.ExpenseResponse, error)
	Statistics(ctx context.Context, userID uuid.UUID, from, to *time.Time) (*financeapp.ExpenseStatistics, error)
}

// ExpenseHandler handles expense API endpoints
type ExpenseHandler struct {
	BaseHandler
	service ExpenseUseCases
}

// NewExpenseHandler creates a new ExpenseHandler
func NewExpenseHandler(service ExpenseUseCases) *ExpenseHandler {
	return &ExpenseHandler{service: service}
}

// RejectExpenseRequest carries the reviewer's reason
// @Description Request body for rejecting an expense
type RejectExpenseRequest struct {
	Reason string `json:"reason" binding:"required,max=500" example:"Missing receipt"`
}

// TagRequest names a tag to add
// @Description Request body for tagging an expense
type TagRequest struct {
	Tag string `json:"tag" binding:"required,max=50" example:"client-visit"`
}

// StatisticsQuery bounds the statistics period
type StatisticsQuery struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// Create godoc
// @Summary      Create an expense
// @Description  Record a new draft expense. Uncategorized expenses are offered to the categorizer.
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateExpenseRequest true "Expense"
// @Success      201 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses [post]
func (h *ExpenseHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req financeapp.CreateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	expense, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, expense)
}

// Get godoc
// @Summary      Get an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      403 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [get]
func (h *ExpenseHandler) Get(c *gin.Context) {
	h.withExpense(c, h.service.Get)
}

// List godoc
// @Summary      List expenses
// @Description  Paginated expenses of the current user, newest first by default
// @Tags         expenses
// @Produce      json
// @Param        search query string false "Search in description, merchant and notes"
// @Param        status query string false "Status" Enums(draft, submitted, approved, rejected)
// @Param        category query string false "Category name"
// @Param        from_date query string false "From date (YYYY-MM-DD)"
// @Param        to_date query string false "To date (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]financeapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses [get]
func (h *ExpenseHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter financeapp.ExpenseListFilter
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

// Update godoc
// @Summary      Update an expense
// @Description  Only draft and rejected expenses can be edited
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body financeapp.UpdateExpenseRequest true "Expense"
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [put]
func (h *ExpenseHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	expenseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.UpdateExpenseRequest
	if !h.bindJSON(c, &req) {
		return
	}

	expense, err := h.service.Update(c.Request.Context(), userID, expenseID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// Delete godoc
// @Summary      Delete an expense
// @Tags         expenses
// @Param        id path string true "Expense ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id} [delete]
func (h *ExpenseHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	expenseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, expenseID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Submit godoc
// @Summary      Submit an expense for review
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id}/submit [post]
func (h *ExpenseHandler) Submit(c *gin.Context) {
	h.withExpense(c, h.service.Submit)
}

// Approve godoc
// @Summary      Approve a submitted expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id}/approve [post]
func (h *ExpenseHandler) Approve(c *gin.Context) {
	h.withExpense(c, h.service.Approve)
}

// Reject godoc
// @Summary      Reject a submitted expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body RejectExpenseRequest true "Reason"
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id}/reject [post]
func (h *ExpenseHandler) Reject(c *gin.Context) {
	var req RejectExpenseRequest
	h.withExpenseBody(c, &req, func(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error) {
		return h.service.Reject(ctx, userID, expenseID, req.Reason)
	})
}

// Reimburse godoc
// @Summary      Mark an approved expense as reimbursed
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id}/reimburse [post]
func (h *ExpenseHandler) Reimburse(c *gin.Context) {
	h.withExpense(c, h.service.MarkReimbursed)
}

// AddTag godoc
// @Summary      Tag an expense
// @Tags         expenses
// @Accept       json
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        request body TagRequest true "Tag"
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Security     BearerAuth
// @Router       /expenses/{id}/tags [post]
func (h *ExpenseHandler) AddTag(c *gin.Context) {
	var req TagRequest
	h.withExpenseBody(c, &req, func(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error) {
		return h.service.AddTag(ctx, userID, expenseID, req.Tag)
	})
}

// RemoveTag godoc
// @Summary      Remove a tag from an expense
// @Tags         expenses
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        tag query string true "Tag"
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Security     BearerAuth
// @Router       /expenses/{id}/tags [delete]
func (h *ExpenseHandler) RemoveTag(c *gin.Context) {
	tag := c.Query("tag")
	if tag == "" {
		h.BadRequest(c, "tag query parameter is required")
		return
	}
	h.withExpense(c, func(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error) {
		return h.service.RemoveTag(ctx, userID, expenseID, tag)
	})
}

// UploadReceipt godoc
// @Summary      Upload a receipt
// @Description  Stores the receipt and, for text receipts, applies the extracted text and category
// @Tags         expenses
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Expense ID" format(uuid)
// @Param        file formData file true "Receipt (pdf, jpg, png, gif; max 10MB)"
// @Success      200 {object} APIResponse[financeapp.ExpenseResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /expenses/{id}/receipt [post]
func (h *ExpenseHandler) UploadReceipt(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	expenseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "file form field is required")
		return
	}
	if header.Size > financeapp.MaxReceiptSize {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "Receipt exceeds the 10MB limit")
		return
	}
	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Unable to read uploaded file")
		return
	}
	defer file.Close()

	expense, err := h.service.UploadReceipt(c.Request.Context(), userID, expenseID, financeapp.UploadReceiptRequest{
		File:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

// Statistics godoc
// @Summary      Expense statistics
// @Description  Totals per category, currency and status. Amounts are never converted between currencies.
// @Tags         expenses
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} APIResponse[financeapp.ExpenseStatistics]
// @Security     BearerAuth
// @Router       /expenses/statistics [get]
func (h *ExpenseHandler) Statistics(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var q StatisticsQuery
	if !h.bindQuery(c, &q) {
		return
	}

	stats, err := h.service.Statistics(c.Request.Context(), userID, q.From, q.To)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

type expenseAction func(ctx context.Context, userID, expenseID uuid.UUID) (*financeapp.ExpenseResponse, error)

func (h *ExpenseHandler) withExpense(c *gin.Context, action expenseAction) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	expenseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	expense, err := action(c.Request.Context(), userID, expenseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}

func (h *ExpenseHandler) withExpenseBody(c *gin.Context, req any, action expenseAction) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	expenseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if !h.bindJSON(c, req) {
		return
	}

	expense, err := action(c.Request.Context(), userID, expenseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, expense)
}
