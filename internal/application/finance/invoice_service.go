package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// MaxInvoiceNumberAttempts bounds how many candidate numbers Create tries
	MaxInvoiceNumberAttempts = 5

	// DefaultNumberReservationTTL is how long a candidate number stays reserved
	DefaultNumberReservationTTL = 5 * time.Minute

	invoiceNumberKeyPrefix = "invoice_number:"
)

// InvoiceService provides application-level invoice operations
type InvoiceService struct {
	uow            UnitOfWork
	generator      finance.InvoiceNumberGenerator
	reservations   shared.ReservationStore
	publisher      shared.EventPublisher
	logger         *zap.Logger
	reservationTTL time.Duration
	now            func() time.Time
}

// InvoiceServiceOption is a functional option for configuring InvoiceService
type InvoiceServiceOption func(*InvoiceService)

// WithReservationStore reserves candidate invoice numbers before they are saved
func WithReservationStore(store shared.ReservationStore) InvoiceServiceOption {
	return func(s *InvoiceService) { s.reservations = store }
}

// WithReservationTTL overrides DefaultNumberReservationTTL
func WithReservationTTL(ttl time.Duration) InvoiceServiceOption {
	return func(s *InvoiceService) {
		if ttl > 0 {
			s.reservationTTL = ttl
		}
	}
}

// WithClock sets the time source used for overdue checks
func WithClock(now func() time.Time) InvoiceServiceOption {
	return func(s *InvoiceService) { s.now = now }
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	uow UnitOfWork,
	generator finance.InvoiceNumberGenerator,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	opts ...InvoiceServiceOption,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &InvoiceService{
		uow:            uow,
		generator:      generator,
		publisher:      publisher,
		logger:         logger,
		reservationTTL: DefaultNumberReservationTTL,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LineItemResponse represents an invoice line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID               uuid.UUID          `json:"id"`
	UserID           uuid.UUID          `json:"user_id"`
	InvoiceNumber    string             `json:"invoice_number"`
	ClientName       string             `json:"client_name"`
	ClientEmail      string             `json:"client_email"`
	ClientAddress    string             `json:"client_address,omitempty"`
	IssueDate        time.Time          `json:"issue_date"`
	DueDate          time.Time          `json:"due_date"`
	Currency         string             `json:"currency"`
	TaxRate          decimal.Decimal    `json:"tax_rate"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	TaxAmount        decimal.Decimal    `json:"tax_amount"`
	Total            decimal.Decimal    `json:"total"`
	Notes            string             `json:"notes,omitempty"`
	Status           string             `json:"status"`
	PaidDate         *time.Time         `json:"paid_date,omitempty"`
	PaymentMethod    string             `json:"payment_method,omitempty"`
	PaymentReference string             `json:"payment_reference,omitempty"`
	IsOverdue        bool               `json:"is_overdue"`
	DaysOverdue      int                `json:"days_overdue"`
	LineItems        []LineItemResponse `json:"line_items"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	Version          int                `json:"version"`
}

// LineItemRequest describes one invoice line
type LineItemRequest struct {
	Description string          `json:"description" binding:"required,max=500"`
	UnitPrice   decimal.Decimal `json:"unit_price" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// CreateInvoiceRequest represents a request to create an invoice
type CreateInvoiceRequest struct {
	ClientName    string            `json:"client_name" binding:"required,max=200"`
	ClientEmail   string            `json:"client_email" binding:"required,email"`
	ClientAddress string            `json:"client_address" binding:"max=500"`
	IssueDate     time.Time         `json:"issue_date" binding:"required"`
	DueDate       time.Time         `json:"due_date" binding:"required"`
	Currency      string            `json:"currency" binding:"omitempty,len=3"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	Notes         string            `json:"notes" binding:"max=2000"`
	LineItems     []LineItemRequest `json:"line_items" binding:"omitempty,dive"`
}

// UpdateInvoiceRequest replaces the client details, dates and notes of a
// draft invoice. An empty address or notes clears the stored value.
type UpdateInvoiceRequest struct {
	ClientName    string    `json:"client_name" binding:"required,max=200"`
	ClientEmail   string    `json:"client_email" binding:"required,email"`
	ClientAddress string    `json:"client_address" binding:"max=500"`
	IssueDate     time.Time `json:"issue_date" binding:"required"`
	DueDate       time.Time `json:"due_date" binding:"required"`
	Notes         string    `json:"notes" binding:"max=2000"`
}

// MarkInvoicePaidRequest represents a request to record payment
type MarkInvoicePaidRequest struct {
	PaidDate         time.Time `json:"paid_date" binding:"required"`
	PaymentMethod    string    `json:"payment_method" binding:"max=50"`
	PaymentReference string    `json:"payment_reference" binding:"max=100"`
}

// InvoiceListFilter defines filtering options for invoice list queries
type InvoiceListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=draft sent paid cancelled"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// Create creates a draft invoice under a freshly generated number. Each
// candidate number is reserved and checked against stored invoices; after
// MaxInvoiceNumberAttempts collisions Create fails with CONCURRENCY_CONFLICT.
func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create",
		telemetry.WithAttribute(telemetry.SpanAttrUserID, userID.String()))
	defer span.End()

	currency := currencyOrDefault(req.Currency)
	prices := make([]valueobject.Money, len(req.LineItems))
	for i, li := range req.LineItems {
		price, err := valueobject.NewMoney(li.UnitPrice, currency)
		if err != nil {
			return nil, err
		}
		prices[i] = price
	}

	number, err := s.allocateNumber(ctx, req.IssueDate)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	invoice, err := finance.NewInvoice(userID, number, req.ClientName, req.ClientEmail, req.IssueDate, req.DueDate, currency, req.TaxRate,
		finance.WithClientAddress(req.ClientAddress),
		finance.WithInvoiceNotes(req.Notes),
	)
	if err != nil {
		s.releaseNumber(ctx, number)
		return nil, err
	}
	for i, li := range req.LineItems {
		if _, err := invoice.AddLineItem(li.Description, prices[i], li.Quantity); err != nil {
			s.releaseNumber(ctx, number)
			return nil, err
		}
	}

	if err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		return repos.Invoices().Save(ctx, invoice)
	}); err != nil {
		s.releaseNumber(ctx, number)
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrInvoiceID, invoice.ID.String(),
		telemetry.SpanAttrInvoiceNumber, invoice.Number)
	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.Number),
		zap.Int("line_items", invoice.ItemCount()))

	publishEvents(ctx, s.publisher, s.logger, invoice)
	return s.toInvoiceResponse(invoice), nil
}

// Update edits the header of a draft invoice
func (s *InvoiceService) Update(ctx context.Context, userID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, "update", userID, invoiceID, func(i *finance.Invoice) error {
		if err := i.UpdateClient(req.ClientName, req.ClientEmail, req.ClientAddress); err != nil {
			return err
		}
		if err := i.UpdateDates(req.IssueDate, req.DueDate); err != nil {
			return err
		}
		return i.UpdateNotes(req.Notes)
	})
}

// Delete removes an invoice and its line items. Paid invoices are kept.
func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "delete",
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()))
	defer span.End()

	var number string
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Invoices().FindByID(ctx, invoiceID)
		invoice, err := checkOwnership(found, err, userID, "Invoice")
		if err != nil {
			return err
		}
		if err := invoice.EnsureDeletable(); err != nil {
			return err
		}
		number = invoice.Number
		return repos.Invoices().Delete(ctx, invoice.ID)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	s.logger.Info("invoice deleted",
		zap.String("invoice_id", invoiceID.String()),
		zap.String("invoice_number", number))
	return nil
}

// AddLineItem appends a line item to a draft invoice
func (s *InvoiceService) AddLineItem(ctx context.Context, userID, invoiceID uuid.UUID, req LineItemRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, "add_line_item", userID, invoiceID, func(i *finance.Invoice) error {
		price, err := valueobject.NewMoney(req.UnitPrice, i.Currency.String())
		if err != nil {
			return err
		}
		_, err = i.AddLineItem(req.Description, price, req.Quantity)
		return err
	})
}

// UpdateLineItem replaces the line item at index on a draft invoice
func (s *InvoiceService) UpdateLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int, req LineItemRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, "update_line_item", userID, invoiceID, func(i *finance.Invoice) error {
		price, err := valueobject.NewMoney(req.UnitPrice, i.Currency.String())
		if err != nil {
			return err
		}
		return i.UpdateLineItem(index, req.Description, price, req.Quantity)
	})
}

// RemoveLineItem removes the line item at index from a draft invoice
func (s *InvoiceService) RemoveLineItem(ctx context.Context, userID, invoiceID uuid.UUID, index int) (*InvoiceResponse, error) {
	return s.mutate(ctx, "remove_line_item", userID, invoiceID, func(i *finance.Invoice) error {
		return i.RemoveLineItem(index)
	})
}

// Send sends a draft invoice to its client
func (s *InvoiceService) Send(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, "send", userID, invoiceID, (*finance.Invoice).Send)
}

// MarkAsPaid records payment of a sent invoice
func (s *InvoiceService) MarkAsPaid(ctx context.Context, userID, invoiceID uuid.UUID, req MarkInvoicePaidRequest) (*InvoiceResponse, error) {
	return s.mutate(ctx, "mark_paid", userID, invoiceID, func(i *finance.Invoice) error {
		return i.MarkAsPaid(req.PaidDate, req.PaymentMethod, req.PaymentReference)
	})
}

// Cancel cancels an unpaid invoice
func (s *InvoiceService) Cancel(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	return s.mutate(ctx, "cancel", userID, invoiceID, (*finance.Invoice).Cancel)
}

// Get returns one of the user's invoices
func (s *InvoiceService) Get(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	found, err := s.uow.Invoices().FindByID(ctx, invoiceID)
	invoice, err := checkOwnership(found, err, userID, "Invoice")
	if err != nil {
		return nil, err
	}
	return s.toInvoiceResponse(invoice), nil
}

// ListByUser lists the user's invoices
func (s *InvoiceService) ListByUser(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) (shared.Paginated[InvoiceResponse], error) {
	domainFilter := finance.InvoiceFilter{}
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.Search = filter.Search
	domainFilter.OrderBy = filter.OrderBy
	domainFilter.OrderDir = filter.OrderDir
	normalizePage(&domainFilter.Filter)

	if filter.Status != "" {
		status := finance.InvoiceStatus(filter.Status)
		if !status.IsValid() {
			return shared.Paginated[InvoiceResponse]{}, shared.NewDomainErrorf(shared.CodeInvalidArgument, "Unknown invoice status %q", filter.Status)
		}
		domainFilter.Status = &status
	}

	invoices, total, err := s.uow.Invoices().FindByUser(ctx, userID, domainFilter)
	if err != nil {
		return shared.Paginated[InvoiceResponse]{}, err
	}
	items := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = *s.toInvoiceResponse(inv)
	}
	return shared.NewPaginated(items, total, domainFilter.Page, domainFilter.PageSize), nil
}

// ListOverdue lists the user's sent invoices whose due date has passed
func (s *InvoiceService) ListOverdue(ctx context.Context, userID uuid.UUID) ([]InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_overdue")
	defer span.End()

	invoices, err := s.uow.Invoices().FindOverdue(ctx, userID, s.now())
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	items := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		items[i] = *s.toInvoiceResponse(inv)
	}
	return items, nil
}

// allocateNumber finds an unused invoice number and holds a reservation on it
func (s *InvoiceService) allocateNumber(ctx context.Context, issueDate time.Time) (string, error) {
	span := telemetry.SpanFromContext(ctx)
	for attempt := 1; attempt <= MaxInvoiceNumberAttempts; attempt++ {
		number, err := s.generator.Next(ctx, issueDate)
		if err != nil {
			return "", err
		}

		if s.reservations != nil {
			reserved, err := s.reservations.Reserve(ctx, invoiceNumberKeyPrefix+number, s.reservationTTL)
			if err != nil {
				return "", err
			}
			if !reserved {
				s.logger.Debug("invoice number already reserved",
					zap.String("invoice_number", number),
					zap.Int("attempt", attempt))
				continue
			}
		}

		taken, err := s.uow.Invoices().ExistsByNumber(ctx, number)
		if err != nil {
			s.releaseNumber(ctx, number)
			return "", err
		}
		if taken {
			s.releaseNumber(ctx, number)
			s.logger.Debug("invoice number already used",
				zap.String("invoice_number", number),
				zap.Int("attempt", attempt))
			continue
		}

		telemetry.AddEvent(span, "invoice_number_reserved",
			telemetry.SpanAttrInvoiceNumber, number,
			"attempt", attempt)
		return number, nil
	}

	s.logger.Warn("could not allocate invoice number", zap.Int("attempts", MaxInvoiceNumberAttempts))
	return "", shared.NewDomainErrorf(shared.CodeConcurrencyConflict,
		"Could not allocate a unique invoice number after %d attempts", MaxInvoiceNumberAttempts)
}

func (s *InvoiceService) releaseNumber(ctx context.Context, number string) {
	if s.reservations == nil {
		return
	}
	if err := s.reservations.Release(ctx, invoiceNumberKeyPrefix+number); err != nil {
		s.logger.Warn("failed to release invoice number",
			zap.String("invoice_number", number),
			zap.Error(err))
	}
}

func (s *InvoiceService) mutate(ctx context.Context, method string, userID, invoiceID uuid.UUID, fn func(*finance.Invoice) error) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", method,
		telemetry.WithAttribute(telemetry.SpanAttrInvoiceID, invoiceID.String()))
	defer span.End()

	var invoice *finance.Invoice
	err := s.uow.Execute(ctx, func(ctx context.Context, repos Repositories) error {
		found, err := repos.Invoices().FindByID(ctx, invoiceID)
		inv, err := checkOwnership(found, err, userID, "Invoice")
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("invoice "+method,
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("status", invoice.Status.String()))
	publishEvents(ctx, s.publisher, s.logger, invoice)
	return s.toInvoiceResponse(invoice), nil
}

func (s *InvoiceService) toInvoiceResponse(i *finance.Invoice) *InvoiceResponse {
	now := s.now()
	lines := i.LineItems()
	items := make([]LineItemResponse, len(lines))
	for idx, li := range lines {
		items[idx] = LineItemResponse{
			ID:          li.ID,
			Description: li.Description,
			UnitPrice:   li.UnitPrice.Amount(),
			Quantity:    li.Quantity,
			Total:       li.Total().Amount(),
		}
	}
	return &InvoiceResponse{
		ID:               i.ID,
		UserID:           i.UserID,
		InvoiceNumber:    i.Number,
		ClientName:       i.ClientName,
		ClientEmail:      i.ClientEmail,
		ClientAddress:    i.ClientAddress,
		IssueDate:        i.IssueDate,
		DueDate:          i.DueDate,
		Currency:         i.Currency.String(),
		TaxRate:          i.TaxRate,
		Subtotal:         i.Subtotal().Amount(),
		TaxAmount:        i.TaxAmount().Amount(),
		Total:            i.Total().Amount(),
		Notes:            i.Notes,
		Status:           i.Status.String(),
		PaidDate:         i.PaidDate,
		PaymentMethod:    i.PaymentMethod,
		PaymentReference: i.PaymentReference,
		IsOverdue:        i.IsOverdue(now),
		DaysOverdue:      i.DaysOverdue(now),
		LineItems:        items,
		CreatedAt:        i.CreatedAt,
		UpdatedAt:        i.UpdatedAt,
		Version:          i.Version,
	}
}
