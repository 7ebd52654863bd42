package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
)

// ExpenseFilter defines filtering options for expense queries
type ExpenseFilter struct {
	shared.Filter
	Status   *ExpenseStatus // Filter by status
	Category string         // Filter by category name, case-insensitive
	FromDate *time.Time     // Expense date range start (inclusive)
	ToDate   *time.Time     // Expense date range end (exclusive)
}

// ExpenseRepository defines the interface for expense persistence
type ExpenseRepository interface {
	// FindByID finds an expense by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Expense, error)

	// FindByUser finds a page of a user's expenses
	FindByUser(ctx context.Context, userID uuid.UUID, filter ExpenseFilter) ([]*Expense, int64, error)

	// FindByUserAndCategory finds all of a user's expenses in a category
	FindByUserAndCategory(ctx context.Context, userID uuid.UUID, category string) ([]*Expense, error)

	// Save creates or updates an expense with optimistic locking
	Save(ctx context.Context, expense *Expense) error

	// Delete removes an expense
	Delete(ctx context.Context, id uuid.UUID) error

	// Exists checks whether an expense exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// BudgetFilter defines filtering options for budget queries
type BudgetFilter struct {
	shared.Filter
	Category   string // Filter by category name, case-insensitive
	ActiveOnly bool   // Only active budgets
}

// BudgetRepository defines the interface for budget persistence
type BudgetRepository interface {
	// FindByID finds a budget by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Budget, error)

	// FindByUser finds a page of a user's budgets
	FindByUser(ctx context.Context, userID uuid.UUID, filter BudgetFilter) ([]*Budget, int64, error)

	// FindOverlapping finds active budgets of the user in category whose
	// window intersects r
	FindOverlapping(ctx context.Context, userID uuid.UUID, category string, r valueobject.DateRange) ([]*Budget, error)

	// Save creates or updates a budget with optimistic locking
	Save(ctx context.Context, budget *Budget) error

	// Delete removes a budget
	Delete(ctx context.Context, id uuid.UUID) error

	// Exists checks whether a budget exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// InvoiceFilter defines filtering options for invoice queries
type InvoiceFilter struct {
	shared.Filter
	Status *InvoiceStatus // Filter by status
}

// InvoiceRepository defines the interface for invoice persistence.
// Line items are loaded and saved together with their invoice.
type InvoiceRepository interface {
	SequenceSource

	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByUser finds a page of a user's invoices
	FindByUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]*Invoice, int64, error)

	// FindOverdue finds the user's sent invoices due before now
	FindOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*Invoice, error)

	// ExistsByNumber checks whether an invoice number is taken
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// Save creates or updates an invoice and its line items with optimistic locking
	Save(ctx context.Context, invoice *Invoice) error

	// Delete removes an invoice and its line items
	Delete(ctx context.Context, id uuid.UUID) error

	// Exists checks whether an invoice exists
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CategoryRepository defines the interface for user-defined category persistence
type CategoryRepository interface {
	// FindByID finds a category by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)

	// FindByUser finds all categories of a user, active or not
	FindByUser(ctx context.Context, userID uuid.UUID) ([]Category, error)

	// ExistsByName checks whether the user already has a category called name
	ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error)

	// Save creates or updates a category. Categories are deactivated, never deleted.
	Save(ctx context.Context, category *Category) error
}
