package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type names raised by Invoice
const (
	EventTypeInvoiceGenerated = "InvoiceGenerated"
	EventTypeInvoicePaid      = "InvoicePaid"
	EventTypeInvoiceCancelled = "InvoiceCancelled"

	aggregateTypeInvoice = "Invoice"
)

// InvoiceGeneratedEvent is raised when an invoice is sent to its client
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	DueDate       time.Time       `json:"due_date"`
}

// NewInvoiceGeneratedEvent creates a new InvoiceGeneratedEvent
func NewInvoiceGeneratedEvent(i *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, aggregateTypeInvoice, i.ID, i.UserID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.Number,
		ClientName:      i.ClientName,
		ClientEmail:     i.ClientEmail,
		TotalAmount:     i.Total().Amount(),
		Currency:        i.Currency.String(),
		DueDate:         i.DueDate,
	}
}

// InvoicePaidEvent is raised when payment of an invoice is recorded
type InvoicePaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID        uuid.UUID       `json:"invoice_id"`
	InvoiceNumber    string          `json:"invoice_number"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	PaidDate         time.Time       `json:"paid_date"`
	PaymentMethod    string          `json:"payment_method"`
	PaymentReference string          `json:"payment_reference"`
}

// NewInvoicePaidEvent creates a new InvoicePaidEvent
func NewInvoicePaidEvent(i *Invoice) *InvoicePaidEvent {
	var paid time.Time
	if i.PaidDate != nil {
		paid = *i.PaidDate
	}
	return &InvoicePaidEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeInvoicePaid, aggregateTypeInvoice, i.ID, i.UserID),
		InvoiceID:        i.ID,
		InvoiceNumber:    i.Number,
		TotalAmount:      i.Total().Amount(),
		Currency:         i.Currency.String(),
		PaidDate:         paid,
		PaymentMethod:    i.PaymentMethod,
		PaymentReference: i.PaymentReference,
	}
}

// InvoiceCancelledEvent is raised when an invoice is cancelled
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID      uuid.UUID     `json:"invoice_id"`
	InvoiceNumber  string        `json:"invoice_number"`
	PreviousStatus InvoiceStatus `json:"previous_status"`
}

// NewInvoiceCancelledEvent creates a new InvoiceCancelledEvent
func NewInvoiceCancelledEvent(i *Invoice, previous InvoiceStatus) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, aggregateTypeInvoice, i.ID, i.UserID),
		InvoiceID:       i.ID,
		InvoiceNumber:   i.Number,
		PreviousStatus:  previous,
	}
}
