package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	financeapp "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockInvoiceUseCases struct {
	mock.Mock
}

func (m *MockInvoiceUseCases) response(args mock.Arguments) (*financeapp.InvoiceResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*financeapp.InvoiceResponse), args.Error(1)
}

func (m *MockInvoiceUseCases) Create(ctx context.Context, userID uuid.UUID, req financeapp.CreateInvoiceRequest) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, req))
}

func (m *MockInvoiceUseCases) Update(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.UpdateInvoiceRequest) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID, req))
}

func (m *MockInvoiceUseCases) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	return m.Called(ctx, userID, invoiceID).Error(0)
}

func (m *MockInvoiceUseCases) AddLineItem(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.LineItemRequest) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID, req))
}

func (m *MockInvoiceUseCases) UpdateLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int, req financeapp.LineItemRequest) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID, index, req))
}

func (m *MockInvoiceUseCases) RemoveLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID, index))
}

func (m *MockInvoiceUseCases) Send(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID))
}

func (m *MockInvoiceUseCases) MarkAsPaid(ctx context.Context, userID, invoiceID uuid.UUID, req financeapp.MarkInvoicePaidRequest) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID, req))
}

func (m *MockInvoiceUseCases) Cancel(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID))
}

func (m *MockInvoiceUseCases) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*financeapp.InvoiceResponse, error) {
	return m.response(m.Called(ctx, userID, invoiceID))
}

func (m *MockInvoiceUseCases) ListByUser(ctx context.Context, userID uuid.UUID, filter financeapp.InvoiceListFilter) (shared.Paginated[financeapp.InvoiceResponse], error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).(shared.Paginated[financeapp.InvoiceResponse]), args.Error(1)
}

func (m *MockInvoiceUseCases) ListOverdue(ctx context.Context, userID uuid.UUID) ([]financeapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]financeapp.InvoiceResponse), args.Error(1)
}

func newInvoiceTestEngine(svc InvoiceUseCases) http.Handler {
	h := NewInvoiceHandler(svc)
	engine := newTestEngine()
	g := engine.Group("/invoices")
	g.GET("/overdue", h.ListOverdue)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.DELETE("/:id/items/:index", h.RemoveLineItem)
	g.POST("/:id/pay", h.Pay)
	g.POST("/:id/cancel", h.Cancel)
	return engine
}

func TestInvoiceHandler_RemoveLineItem(t *testing.T) {
	userID := uuid.New()
	invoiceID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("RemoveLineItem", mock.Anything, userID, invoiceID, 4).Return(nil, shared.ErrIndexOutOfRange)
	svc.On("RemoveLineItem", mock.Anything, userID, invoiceID, 0).Return(&financeapp.InvoiceResponse{ID: invoiceID}, nil)
	engine := newInvoiceTestEngine(svc)
	base := "/invoices/" + invoiceID.String() + "/items/"

	assert.Equal(t, http.StatusBadRequest, doRequest(engine, http.MethodDelete, base+"first", userID, nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(engine, http.MethodDelete, base+"4", userID, nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(engine, http.MethodDelete, base+"0", userID, nil).Code)
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_Pay(t *testing.T) {
	userID := uuid.New()
	invoiceID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("MarkAsPaid", mock.Anything, userID, invoiceID, mock.MatchedBy(func(req financeapp.MarkInvoicePaidRequest) bool {
		return req.PaymentReference == "TX-88" && req.PaidDate.Day() == 21
	})).Return(&financeapp.InvoiceResponse{ID: invoiceID, Status: "paid"}, nil)
	engine := newInvoiceTestEngine(svc)
	path := "/invoices/" + invoiceID.String() + "/pay"

	rec := doRequest(engine, http.MethodPost, path, userID, map[string]string{"payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(engine, http.MethodPost, path, userID, map[string]string{
		"paid_date":         "2026-05-21T00:00:00Z",
		"payment_method":    "bank_transfer",
		"payment_reference": "TX-88",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_CancelPaid(t *testing.T) {
	userID := uuid.New()
	invoiceID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("Cancel", mock.Anything, userID, invoiceID).
		Return(nil, shared.NewDomainError(shared.CodeIllegalOperation, "Paid invoices cannot be cancelled"))

	rec := doRequest(newInvoiceTestEngine(svc), http.MethodPost, "/invoices/"+invoiceID.String()+"/cancel", userID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, shared.CodeIllegalOperation, decodeResponse(t, rec).Error.Code)
}

func TestInvoiceHandler_ListOverdueEmpty(t *testing.T) {
	userID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("ListOverdue", mock.Anything, userID).Return(nil, nil)

	rec := doRequest(newInvoiceTestEngine(svc), http.MethodGet, "/invoices/overdue", userID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestInvoiceHandler_Update(t *testing.T) {
	userID := uuid.New()
	invoiceID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("Update", mock.Anything, userID, invoiceID, mock.MatchedBy(func(req financeapp.UpdateInvoiceRequest) bool {
		return req.ClientName == "Globex" && req.ClientAddress == "" && req.DueDate.Day() == 30
	})).Return(&financeapp.InvoiceResponse{ID: invoiceID, ClientName: "Globex"}, nil).Once()
	engine := newInvoiceTestEngine(svc)
	path := "/invoices/" + invoiceID.String()

	rec := doRequest(engine, http.MethodPut, path, userID, map[string]string{"client_name": "Globex"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(engine, http.MethodPut, path, userID, map[string]string{
		"client_name":  "Globex",
		"client_email": "ap@globex.test",
		"issue_date":   "2026-06-01T00:00:00Z",
		"due_date":     "2026-06-30T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_UpdateSent(t *testing.T) {
	userID := uuid.New()
	invoiceID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("Update", mock.Anything, userID, invoiceID, mock.Anything).
		Return(nil, shared.NewDomainError(shared.CodeIllegalOperation, "Cannot change client of invoice in sent status"))

	rec := doRequest(newInvoiceTestEngine(svc), http.MethodPut, "/invoices/"+invoiceID.String(), userID, map[string]string{
		"client_name":  "Globex",
		"client_email": "ap@globex.test",
		"issue_date":   "2026-06-01T00:00:00Z",
		"due_date":     "2026-06-30T00:00:00Z",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, shared.CodeIllegalOperation, decodeResponse(t, rec).Error.Code)
}

func TestInvoiceHandler_Delete(t *testing.T) {
	userID := uuid.New()
	draftID := uuid.New()
	paidID := uuid.New()
	svc := new(MockInvoiceUseCases)
	svc.On("Delete", mock.Anything, userID, draftID).Return(nil)
	svc.On("Delete", mock.Anything, userID, paidID).
		Return(shared.NewDomainError(shared.CodeIllegalOperation, "Cannot delete paid invoice"))
	engine := newInvoiceTestEngine(svc)

	assert.Equal(t, http.StatusBadRequest, doRequest(engine, http.MethodDelete, "/invoices/not-a-uuid", userID, nil).Code)
	assert.Equal(t, http.StatusNoContent, doRequest(engine, http.MethodDelete, "/invoices/"+draftID.String(), userID, nil).Code)

	rec := doRequest(engine, http.MethodDelete, "/invoices/"+paidID.String(), userID, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, shared.CodeIllegalOperation, decodeResponse(t, rec).Error.Code)
	svc.AssertExpectations(t)
}
