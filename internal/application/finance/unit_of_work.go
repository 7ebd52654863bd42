package finance

import (
	"context"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
)

// Repositories groups the repositories that take part in a unit of work
type Repositories interface {
	Expenses() finance.ExpenseRepository
	Budgets() finance.BudgetRepository
	Invoices() finance.InvoiceRepository
	Categories() finance.CategoryRepository
	Users() identity.UserRepository
}

// Transaction is one open unit of work. Repositories obtained from it write
// through the same database transaction.
type Transaction interface {
	Repositories

	// SaveChanges flushes pending writes without committing
	SaveChanges(ctx context.Context) error
	// Commit makes all writes durable
	Commit() error
	// Rollback discards all writes. Calling it after Commit is a no-op.
	Rollback() error
}

// TxFunc is the body of a transactional operation
type TxFunc func(ctx context.Context, repos Repositories) error

// UnitOfWork opens transactions. Its own repositories read outside any
// transaction and are meant for queries.
type UnitOfWork interface {
	Repositories

	// Begin opens a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// Execute runs fn in a new transaction. It commits when fn returns nil,
	// rolls back when fn returns an error or panics, and re-panics after the
	// rollback.
	Execute(ctx context.Context, fn TxFunc) error
}
