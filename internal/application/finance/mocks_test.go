package finance

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Expense, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.ExpenseFilter) ([]*finance.Expense, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*finance.Expense), args.Get(1).(int64), args.Error(2)
}

func (m *MockExpenseRepository) FindByUserAndCategory(ctx context.Context, userID uuid.UUID, category string) ([]*finance.Expense, error) {
	args := m.Called(ctx, userID, category)
	return args.Get(0).([]*finance.Expense), args.Error(1)
}

func (m *MockExpenseRepository) Save(ctx context.Context, expense *finance.Expense) error {
	return m.Called(ctx, expense).Error(0)
}

func (m *MockExpenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockExpenseRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Budget, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Budget), args.Error(1)
}

func (m *MockBudgetRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.BudgetFilter) ([]*finance.Budget, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*finance.Budget), args.Get(1).(int64), args.Error(2)
}

func (m *MockBudgetRepository) FindOverlapping(ctx context.Context, userID uuid.UUID, category string, r valueobject.DateRange) ([]*finance.Budget, error) {
	args := m.Called(ctx, userID, category, r)
	return args.Get(0).([]*finance.Budget), args.Error(1)
}

func (m *MockBudgetRepository) Save(ctx context.Context, budget *finance.Budget) error {
	return m.Called(ctx, budget).Error(0)
}

func (m *MockBudgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockBudgetRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) LastSequenceForYear(ctx context.Context, year int) (int, error) {
	args := m.Called(ctx, year)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter finance.InvoiceFilter) ([]*finance.Invoice, int64, error) {
	args := m.Called(ctx, userID, filter)
	return args.Get(0).([]*finance.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceRepository) FindOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]*finance.Invoice, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).([]*finance.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ExistsByNumber(ctx context.Context, number string) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *finance.Invoice) error {
	return m.Called(ctx, invoice).Error(0)
}

func (m *MockInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockInvoiceRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]finance.Category, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]finance.Category), args.Error(1)
}

func (m *MockCategoryRepository) ExistsByName(ctx context.Context, userID uuid.UUID, name string) (bool, error) {
	args := m.Called(ctx, userID, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *finance.Category) error {
	return m.Called(ctx, category).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// =============================================================================
// Unit of work double
// =============================================================================

// fakeUnitOfWork hands out the same mock repositories inside and outside
// transactions and counts commits and rollbacks.
type fakeUnitOfWork struct {
	expenses   *MockExpenseRepository
	budgets    *MockBudgetRepository
	invoices   *MockInvoiceRepository
	categories *MockCategoryRepository
	users      *MockUserRepository

	commits   int
	rollbacks int
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		expenses:   new(MockExpenseRepository),
		budgets:    new(MockBudgetRepository),
		invoices:   new(MockInvoiceRepository),
		categories: new(MockCategoryRepository),
		users:      new(MockUserRepository),
	}
}

func (u *fakeUnitOfWork) Expenses() finance.ExpenseRepository    { return u.expenses }
func (u *fakeUnitOfWork) Budgets() finance.BudgetRepository      { return u.budgets }
func (u *fakeUnitOfWork) Invoices() finance.InvoiceRepository    { return u.invoices }
func (u *fakeUnitOfWork) Categories() finance.CategoryRepository { return u.categories }
func (u *fakeUnitOfWork) Users() identity.UserRepository         { return u.users }

func (u *fakeUnitOfWork) Begin(context.Context) (Transaction, error) {
	return &fakeTransaction{fakeUnitOfWork: u}, nil
}

func (u *fakeUnitOfWork) Execute(ctx context.Context, fn TxFunc) error {
	if err := fn(ctx, u); err != nil {
		u.rollbacks++
		return err
	}
	u.commits++
	return nil
}

func (u *fakeUnitOfWork) assertExpectations(t mock.TestingT) {
	u.expenses.AssertExpectations(t)
	u.budgets.AssertExpectations(t)
	u.invoices.AssertExpectations(t)
	u.categories.AssertExpectations(t)
	u.users.AssertExpectations(t)
}

type fakeTransaction struct {
	*fakeUnitOfWork
}

func (t *fakeTransaction) SaveChanges(context.Context) error { return nil }
func (t *fakeTransaction) Commit() error                     { t.commits++; return nil }
func (t *fakeTransaction) Rollback() error                   { t.rollbacks++; return nil }

// =============================================================================
// Mock ports
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

// recordingPublisher keeps every published event for assertions
type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

type MockCategorizer struct {
	mock.Mock
}

func (m *MockCategorizer) Categorize(ctx context.Context, req CategorizationRequest) (CategorySuggestion, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(CategorySuggestion), args.Error(1)
}

type MockDocumentExtractor struct {
	mock.Mock
}

func (m *MockDocumentExtractor) Extract(ctx context.Context, r io.Reader, filename string) (ExtractionResult, error) {
	args := m.Called(ctx, r, filename)
	return args.Get(0).(ExtractionResult), args.Error(1)
}

type MockFileStorage struct {
	mock.Mock
}

func (m *MockFileStorage) Upload(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	args := m.Called(ctx, r, filename, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockFileStorage) Remove(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

type MockReservationStore struct {
	mock.Mock
}

func (m *MockReservationStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) IsReserved(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type stubNumberGenerator struct {
	numbers []string
	calls   int
}

func (g *stubNumberGenerator) Next(context.Context, time.Time) (string, error) {
	n := g.numbers[g.calls%len(g.numbers)]
	g.calls++
	return n, nil
}
