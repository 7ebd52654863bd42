package finance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBudgetServiceForTest() (*BudgetService, *fakeUnitOfWork, *recordingPublisher) {
	uow := newFakeUnitOfWork()
	pub := &recordingPublisher{}
	return NewBudgetService(uow, finance.DefaultTaxonomy(), pub, zap.NewNop()), uow, pub
}

func storedBudget(t *testing.T, userID uuid.UUID, category string, limit valueobject.Money) *finance.Budget {
	t.Helper()
	window, err := valueobject.NewDateRange(day(2026, 3, 1), day(2026, 4, 1))
	require.NoError(t, err)
	b, err := finance.NewBudget(userID, "March "+category, limit, category, window)
	require.NoError(t, err)
	b.ClearDomainEvents()
	return b
}

func marchBudgetRequest() CreateBudgetRequest {
	return CreateBudgetRequest{
		Name:       "Travel March",
		Amount:     decimal.NewFromInt(500),
		Category:   "travel",
		StartDate:  day(2026, 3, 1),
		EndDate:    day(2026, 4, 1),
		Recurrence: "monthly",
	}
}

func TestBudgetService_Create(t *testing.T) {
	userID := uuid.New()

	t.Run("no overlap", func(t *testing.T) {
		svc, uow, pub := newBudgetServiceForTest()
		uow.categories.On("FindByUser", mock.Anything, userID).Return([]finance.Category{}, nil)
		uow.budgets.On("FindOverlapping", mock.Anything, userID, finance.CategoryTravel, mock.Anything).Return([]*finance.Budget{}, nil)
		uow.budgets.On("Save", mock.Anything, mock.AnythingOfType("*finance.Budget")).Return(nil)

		resp, err := svc.Create(context.Background(), userID, marchBudgetRequest())
		require.NoError(t, err)
		assert.Equal(t, finance.CategoryTravel, resp.Category)
		assert.Equal(t, "monthly", resp.Recurrence)
		assert.True(t, decimal.NewFromInt(80).Equal(resp.AlertThreshold))
		assert.Equal(t, []string{finance.EventTypeBudgetCreated}, pub.types())
	})

	t.Run("overlapping budget", func(t *testing.T) {
		svc, uow, pub := newBudgetServiceForTest()
		existing := storedBudget(t, userID, finance.CategoryTravel, usd("300.00"))
		uow.categories.On("FindByUser", mock.Anything, userID).Return([]finance.Category{}, nil)
		uow.budgets.On("FindOverlapping", mock.Anything, userID, finance.CategoryTravel, mock.Anything).Return([]*finance.Budget{existing}, nil)

		_, err := svc.Create(context.Background(), userID, marchBudgetRequest())
		assert.ErrorIs(t, err, shared.ErrOverlappingBudget)
		assert.Equal(t, 1, uow.rollbacks)
		assert.Empty(t, pub.events)
		uow.budgets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inverted window", func(t *testing.T) {
		svc, _, _ := newBudgetServiceForTest()
		req := marchBudgetRequest()
		req.StartDate, req.EndDate = req.EndDate, req.StartDate

		_, err := svc.Create(context.Background(), userID, req)
		assert.ErrorIs(t, err, shared.ErrInvalidDateRange)
	})
}

func TestBudgetService_UpdateRechecksOverlap(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryMeals, usd("200.00"))
	other := storedBudget(t, userID, finance.CategoryTravel, usd("900.00"))

	svc, uow, _ := newBudgetServiceForTest()
	uow.categories.On("FindByUser", mock.Anything, userID).Return([]finance.Category{}, nil)
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.budgets.On("FindOverlapping", mock.Anything, userID, finance.CategoryTravel, mock.Anything).
		Return([]*finance.Budget{budget, other}, nil)

	_, err := svc.Update(context.Background(), userID, budget.ID, UpdateBudgetRequest{
		Name:      "Moved to travel",
		Amount:    decimal.NewFromInt(250),
		Category:  "Travel",
		StartDate: day(2026, 3, 15),
		EndDate:   day(2026, 4, 15),
	})
	assert.ErrorIs(t, err, shared.ErrOverlappingBudget)
	uow.budgets.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestBudgetService_Settings(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryOffice, usd("150.00"))

	svc, uow, _ := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.budgets.On("Save", mock.Anything, budget).Return(nil)
	ctx := context.Background()

	_, err := svc.SetAlertThreshold(ctx, userID, budget.ID, decimal.NewFromInt(120))
	assert.ErrorIs(t, err, shared.ErrOutOfRange)

	_, err = svc.SetAlertThreshold(ctx, userID, budget.ID, decimal.RequireFromString("82.125"))
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	resp, err := svc.SetAlertThreshold(ctx, userID, budget.ID, decimal.NewFromInt(90))
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(90).Equal(resp.AlertThreshold))

	_, err = svc.SetRecurrence(ctx, userID, budget.ID, "fortnightly")
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	resp, err = svc.SetRecurrence(ctx, userID, budget.ID, "Quarterly")
	require.NoError(t, err)
	assert.Equal(t, "quarterly", resp.Recurrence)

	resp, err = svc.RemoveRecurrence(ctx, userID, budget.ID)
	require.NoError(t, err)
	assert.Empty(t, resp.Recurrence)

	resp, err = svc.Deactivate(ctx, userID, budget.ID)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	_, err = svc.Deactivate(ctx, uuid.New(), budget.ID)
	assert.ErrorIs(t, err, shared.ErrForbidden)
}

func TestBudgetService_Performance(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryMeals, usd("500.00"))
	expenses := []*finance.Expense{
		storedExpense(t, userID, finance.CategoryMeals, usd("300.00")),
		storedExpense(t, userID, finance.CategoryMeals, usd("110.25")),
	}

	svc, uow, pub := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.expenses.On("FindByUserAndCategory", mock.Anything, userID, finance.CategoryMeals).Return(expenses, nil)
	uow.budgets.On("Save", mock.Anything, budget).Return(nil).Once()

	perf, err := svc.Performance(context.Background(), userID, budget.ID)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("410.25").Equal(perf.Spent))
	assert.True(t, decimal.RequireFromString("89.75").Equal(perf.Remaining))
	assert.True(t, decimal.RequireFromString("82.05").Equal(perf.PercentageUsed))
	assert.True(t, perf.ThresholdReached)
	assert.False(t, perf.IsOverBudget)
	assert.Equal(t, 2, perf.ExpenseCount)
	assert.Equal(t, []string{finance.EventTypeBudgetThresholdReached}, pub.types())
	assert.NotNil(t, budget.ThresholdAlertedAt)

	t.Run("later reads stay silent", func(t *testing.T) {
		perf, err := svc.Performance(context.Background(), userID, budget.ID)
		require.NoError(t, err)
		assert.True(t, perf.ThresholdReached)
		assert.Len(t, pub.events, 1)
		uow.budgets.AssertNumberOfCalls(t, "Save", 1)
	})
}

func TestBudgetService_PerformanceRearmsAlert(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryMeals, usd("500.00"))
	alertedAt := day(2026, 3, 20)
	budget.ThresholdAlertedAt = &alertedAt

	svc, uow, pub := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.expenses.On("FindByUserAndCategory", mock.Anything, userID, finance.CategoryMeals).
		Return([]*finance.Expense{storedExpense(t, userID, finance.CategoryMeals, usd("50.00"))}, nil)
	uow.budgets.On("Save", mock.Anything, budget).Return(nil).Once()

	perf, err := svc.Performance(context.Background(), userID, budget.ID)
	require.NoError(t, err)
	assert.False(t, perf.ThresholdReached)
	assert.Nil(t, budget.ThresholdAlertedAt)
	assert.Empty(t, pub.events)
	uow.budgets.AssertExpectations(t)
}

func TestBudgetService_PerformanceAlertSaveConflict(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryMeals, usd("500.00"))

	svc, uow, pub := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.expenses.On("FindByUserAndCategory", mock.Anything, userID, finance.CategoryMeals).
		Return([]*finance.Expense{storedExpense(t, userID, finance.CategoryMeals, usd("450.00"))}, nil)
	uow.budgets.On("Save", mock.Anything, budget).
		Return(shared.NewDomainError(shared.CodeConcurrencyConflict, "modified concurrently"))

	perf, err := svc.Performance(context.Background(), userID, budget.ID)
	require.NoError(t, err)
	assert.True(t, perf.ThresholdReached)
	assert.Empty(t, pub.events)
	assert.Empty(t, budget.GetDomainEvents())
	assert.Equal(t, 1, uow.rollbacks)
}

func TestBudgetService_PerformanceBelowThreshold(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryMeals, usd("500.00"))

	svc, uow, pub := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.expenses.On("FindByUserAndCategory", mock.Anything, userID, finance.CategoryMeals).
		Return([]*finance.Expense{storedExpense(t, userID, finance.CategoryMeals, usd("50.00"))}, nil)

	perf, err := svc.Performance(context.Background(), userID, budget.ID)
	require.NoError(t, err)
	assert.False(t, perf.ThresholdReached)
	assert.Empty(t, pub.events)
}

func TestBudgetService_Delete(t *testing.T) {
	userID := uuid.New()
	budget := storedBudget(t, userID, finance.CategoryTravel, usd("500.00"))
	ctx := context.Background()

	svc, uow, pub := newBudgetServiceForTest()
	uow.budgets.On("FindByID", mock.Anything, budget.ID).Return(budget, nil)
	uow.budgets.On("Delete", mock.Anything, budget.ID).Return(nil).Once()

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New(), budget.ID), shared.ErrForbidden)
	uow.budgets.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)

	require.NoError(t, svc.Delete(ctx, userID, budget.ID))
	uow.budgets.AssertExpectations(t)
	assert.Empty(t, pub.events)

	missing := uuid.New()
	uow.budgets.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, userID, missing), shared.ErrNotFound)
}
