package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Event type names raised by Expense
const (
	EventTypeExpenseCreated    = "ExpenseCreated"
	EventTypeExpenseUpdated    = "ExpenseUpdated"
	EventTypeExpenseSubmitted  = "ExpenseSubmitted"
	EventTypeExpenseApproved   = "ExpenseApproved"
	EventTypeExpenseRejected   = "ExpenseRejected"
	EventTypeExpenseReimbursed = "ExpenseReimbursed"
	EventTypeExpenseDeleted    = "ExpenseDeleted"

	aggregateTypeExpense = "Expense"
)

// ExpenseCreatedEvent is raised when a new expense is recorded
type ExpenseCreatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID       `json:"expense_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	ExpenseDate time.Time       `json:"expense_date"`
}

// NewExpenseCreatedEvent creates a new ExpenseCreatedEvent
func NewExpenseCreatedEvent(e *Expense) *ExpenseCreatedEvent {
	return &ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseCreated, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
		Description:     e.Description,
		Amount:          e.Amount.Amount(),
		Currency:        e.Amount.Currency().String(),
		Category:        e.Category,
		ExpenseDate:     e.ExpenseDate,
	}
}

// ExpenseUpdatedEvent is raised when an expense amount changes
type ExpenseUpdatedEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID       `json:"expense_id"`
	OldAmount   decimal.Decimal `json:"old_amount"`
	OldCurrency string          `json:"old_currency"`
	NewAmount   decimal.Decimal `json:"new_amount"`
	NewCurrency string          `json:"new_currency"`
}

// NewExpenseUpdatedEvent creates a new ExpenseUpdatedEvent
func NewExpenseUpdatedEvent(e *Expense, old valueobject.Money) *ExpenseUpdatedEvent {
	return &ExpenseUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseUpdated, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
		OldAmount:       old.Amount(),
		OldCurrency:     old.Currency().String(),
		NewAmount:       e.Amount.Amount(),
		NewCurrency:     e.Amount.Currency().String(),
	}
}

// ExpenseSubmittedEvent is raised when an expense is submitted for approval
type ExpenseSubmittedEvent struct {
	shared.BaseDomainEvent
	ExpenseID   uuid.UUID       `json:"expense_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// NewExpenseSubmittedEvent creates a new ExpenseSubmittedEvent
func NewExpenseSubmittedEvent(e *Expense) *ExpenseSubmittedEvent {
	submittedAt := time.Now()
	if e.SubmittedAt != nil {
		submittedAt = *e.SubmittedAt
	}
	return &ExpenseSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseSubmitted, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
		Amount:          e.Amount.Amount(),
		Currency:        e.Amount.Currency().String(),
		SubmittedAt:     submittedAt,
	}
}

// ExpenseApprovedEvent is raised when an expense is approved
type ExpenseApprovedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID `json:"expense_id"`
}

// NewExpenseApprovedEvent creates a new ExpenseApprovedEvent
func NewExpenseApprovedEvent(e *Expense) *ExpenseApprovedEvent {
	return &ExpenseApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseApproved, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
	}
}

// ExpenseRejectedEvent is raised when an expense is rejected
type ExpenseRejectedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID `json:"expense_id"`
	Reason    string    `json:"reason"`
}

// NewExpenseRejectedEvent creates a new ExpenseRejectedEvent
func NewExpenseRejectedEvent(e *Expense) *ExpenseRejectedEvent {
	return &ExpenseRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseRejected, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
		Reason:          e.RejectionReason,
	}
}

// ExpenseReimbursedEvent is raised when an expense is paid back
type ExpenseReimbursedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID       `json:"expense_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// NewExpenseReimbursedEvent creates a new ExpenseReimbursedEvent
func NewExpenseReimbursedEvent(e *Expense) *ExpenseReimbursedEvent {
	return &ExpenseReimbursedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseReimbursed, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
		Amount:          e.Amount.Amount(),
		Currency:        e.Amount.Currency().String(),
	}
}

// ExpenseDeletedEvent is raised before an expense is removed
type ExpenseDeletedEvent struct {
	shared.BaseDomainEvent
	ExpenseID uuid.UUID `json:"expense_id"`
}

// NewExpenseDeletedEvent creates a new ExpenseDeletedEvent
func NewExpenseDeletedEvent(e *Expense) *ExpenseDeletedEvent {
	return &ExpenseDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseDeleted, aggregateTypeExpense, e.ID, e.UserID),
		ExpenseID:       e.ID,
	}
}
