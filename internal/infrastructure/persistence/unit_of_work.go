package persistence

import (
	"context"
	"errors"

	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"gorm.io/gorm"
)

var errTransactionClosed = errors.New("transaction already committed or rolled back")

// repositories builds every repository on one gorm handle
type repositories struct {
	expenses   *GormExpenseRepository
	budgets    *GormBudgetRepository
	invoices   *GormInvoiceRepository
	categories *GormCategoryRepository
	users      *GormUserRepository
}

func newRepositories(db *gorm.DB) repositories {
	return repositories{
		expenses:   NewGormExpenseRepository(db),
		budgets:    NewGormBudgetRepository(db),
		invoices:   NewGormInvoiceRepository(db),
		categories: NewGormCategoryRepository(db),
		users:      NewGormUserRepository(db),
	}
}

func (r repositories) Expenses() finance.ExpenseRepository    { return r.expenses }
func (r repositories) Budgets() finance.BudgetRepository      { return r.budgets }
func (r repositories) Invoices() finance.InvoiceRepository    { return r.invoices }
func (r repositories) Categories() finance.CategoryRepository { return r.categories }
func (r repositories) Users() identity.UserRepository         { return r.users }

// GormUnitOfWork implements the application UnitOfWork on a gorm connection
type GormUnitOfWork struct {
	repositories
	db *gorm.DB
}

// NewGormUnitOfWork creates a new GormUnitOfWork
func NewGormUnitOfWork(db *gorm.DB) *GormUnitOfWork {
	return &GormUnitOfWork{
		repositories: newRepositories(db),
		db:           db,
	}
}

// Begin opens a new database transaction
func (u *GormUnitOfWork) Begin(ctx context.Context) (appfinance.Transaction, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTransaction{repositories: newRepositories(tx), tx: tx}, nil
}

// Execute runs fn inside a transaction, committing on success and rolling
// back on error or panic
func (u *GormUnitOfWork) Execute(ctx context.Context, fn appfinance.TxFunc) (err error) {
	txn, err := u.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			_ = txn.Rollback()
			panic(r)
		}
	}()

	if err := fn(ctx, txn); err != nil {
		if rbErr := txn.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return txn.Commit()
}

type gormTransaction struct {
	repositories
	tx   *gorm.DB
	done bool
}

// SaveChanges is a no-op: repositories write through the open transaction
func (t *gormTransaction) SaveChanges(ctx context.Context) error {
	if t.done {
		return errTransactionClosed
	}
	return nil
}

func (t *gormTransaction) Commit() error {
	if t.done {
		return errTransactionClosed
	}
	t.done = true
	return t.tx.Commit().Error
}

func (t *gormTransaction) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	return t.tx.Rollback().Error
}

var _ appfinance.UnitOfWork = (*GormUnitOfWork)(nil)
