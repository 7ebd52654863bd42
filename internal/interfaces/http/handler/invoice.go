package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/interfaces/http/dto"
)

// InvoiceUseCases is the invoice application surface the handler drives
type InvoiceUseCases interface {
	Create(ctx context.Context, userID uuid.UUID, req financeapp.CreateInvoiceRequest) (*financeapp.InvoiceResponse, error)
	Update(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.UpdateInvoiceRequest) (*financeapp.InvoiceResponse, error)
	Delete(ctx context.Context, userID, invoiceID uuid.UUID) error
	AddLineItem(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.LineItemRequest) (*financeapp.InvoiceResponse, error)
	UpdateLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int, req financeapp.LineItemRequest) (*financeapp.InvoiceResponse, error)
	RemoveLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int) (*financeapp.InvoiceResponse, error)
	Send(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error)
	MarkAsPaid(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.MarkInvoicePaidRequest) (*financeapp.InvoiceResponse, error)
	Cancel(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error)
	Get(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter financeapp.InvoiceListFilter) (shared.Paginated[financeapp.InvoiceResponse], error)
	ListOverdue(ctx context.Context, userID uuid.UUID) ([]financeapp.InvoiceResponse, error)
}

// InvoiceHandler handles invoice API endpoints
type InvoiceHandler struct {
	BaseHandler
	service InvoiceUseCases
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(service InvoiceUseCases) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

// Create godoc
// @Summary      Create an invoice
// @Description  Creates a draft invoice with a freshly generated unique number
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body financeapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req financeapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// List godoc
// @Summary      List invoices
// @Tags         invoices
// @Produce      json
// @Param        search query string false "Search in number and client"
// @Param        status query string false "Status" Enums(draft, sent, paid, cancelled)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Items per page" default(20)
// @Success      200 {object} APIResponse[[]financeapp.InvoiceResponse]
// @Security     BearerAuth
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter financeapp.InvoiceListFilter
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

// ListOverdue godoc
// @Summary      List overdue invoices
// @Description  Sent invoices whose due date has passed
// @Tags         invoices
// @Produce      json
// @Success      200 {object} APIResponse[[]financeapp.InvoiceResponse]
// @Security     BearerAuth
// @Router       /invoices/overdue [get]
func (h *InvoiceHandler) ListOverdue(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}

	invoices, err := h.service.ListOverdue(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if invoices == nil {
		invoices = []financeapp.InvoiceResponse{}
	}
	h.Success(c, invoices)
}

// Get godoc
// @Summary      Get an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) Get(c *gin.Context) {
	h.withInvoice(c, h.service.Get)
}

// Update godoc
// @Summary      Update an invoice
// @Description  Replaces client details, dates and notes. Only draft invoices can be edited.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body financeapp.UpdateInvoiceRequest true "Invoice"
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [put]
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.service.Update(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete godoc
// @Summary      Delete an invoice
// @Description  Paid invoices cannot be deleted
// @Tags         invoices
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), userID, invoiceID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// AddLineItem godoc
// @Summary      Add a line item
// @Description  Only draft invoices can be edited
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body financeapp.LineItemRequest true "Line item"
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/items [post]
func (h *InvoiceHandler) AddLineItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.LineItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.service.AddLineItem(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateLineItem godoc
// @Summary      Replace a line item
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        index path int true "Zero-based line index"
// @Param        request body financeapp.LineItemRequest true "Line item"
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/items/{index} [put]
func (h *InvoiceHandler) UpdateLineItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	index, ok := h.lineIndex(c)
	if !ok {
		return
	}
	var req financeapp.LineItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.service.UpdateLineItem(c.Request.Context(), userID, invoiceID, index, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RemoveLineItem godoc
// @Summary      Remove a line item
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        index path int true "Zero-based line index"
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/items/{index} [delete]
func (h *InvoiceHandler) RemoveLineItem(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	index, ok := h.lineIndex(c)
	if !ok {
		return
	}

	invoice, err := h.service.RemoveLineItem(c.Request.Context(), userID, invoiceID, index)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Send godoc
// @Summary      Send an invoice
// @Description  Moves a draft invoice with at least one line item to sent
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/send [post]
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.withInvoice(c, h.service.Send)
}

// Pay godoc
// @Summary      Record payment
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body financeapp.MarkInvoicePaidRequest true "Payment"
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) Pay(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.MarkInvoicePaidRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invoice, err := h.service.MarkAsPaid(c.Request.Context(), userID, invoiceID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Cancel godoc
// @Summary      Cancel an invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[financeapp.InvoiceResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.withInvoice(c, h.service.Cancel)
}

func (h *InvoiceHandler) lineIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.BadRequest(c, "Invalid index format")
		return 0, false
	}
	return index, true
}

func (h *InvoiceHandler) withInvoice(c *gin.Context, action func(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error)) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoiceID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	invoice, err := action(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}
