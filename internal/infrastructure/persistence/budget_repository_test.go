package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func window(t *testing.T, start, end time.Time) valueobject.DateRange {
	t.Helper()
	r, err := valueobject.NewDateRange(start, end)
	require.NoError(t, err)
	return r
}

func TestGormBudgetRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBudgetRepository(newTestDB(t))
	userID := uuid.New()

	budget, err := finance.NewBudget(userID, "Travel Q2", usd("1500.00"), finance.CategoryTravel,
		window(t, day(2026, 4, 1), day(2026, 7, 1)),
		finance.WithRecurrence(finance.BudgetPeriodQuarterly), finance.WithBudgetTags("Ops"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, budget))

	found, err := repo.FindByID(ctx, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "Travel Q2", found.Name)
	assert.True(t, decimal.RequireFromString("1500").Equal(found.Limit.Amount()))
	assert.Equal(t, finance.BudgetPeriodQuarterly, found.Recurrence)
	assert.True(t, finance.DefaultAlertThreshold.Equal(found.AlertThreshold))
	assert.Equal(t, []string{"ops"}, found.Tags)
	assert.True(t, found.Window().Start().Equal(day(2026, 4, 1)))
	assert.Nil(t, found.ThresholdAlertedAt)

	alertedAt := day(2026, 5, 20)
	found.ThresholdAlertedAt = &alertedAt
	require.NoError(t, repo.Save(ctx, found))
	found, err = repo.FindByID(ctx, budget.ID)
	require.NoError(t, err)
	require.NotNil(t, found.ThresholdAlertedAt)
	assert.True(t, found.ThresholdAlertedAt.Equal(alertedAt))

	found.Deactivate()
	require.NoError(t, repo.Save(ctx, found))

	items, total, err := repo.FindByUser(ctx, userID, finance.BudgetFilter{Filter: shared.DefaultFilter(), ActiveOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	_, total, err = repo.FindByUser(ctx, userID, finance.BudgetFilter{Filter: shared.DefaultFilter()})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestGormBudgetRepository_FindOverlapping(t *testing.T) {
	ctx := context.Background()
	repo := NewGormBudgetRepository(newTestDB(t))
	userID := uuid.New()

	save := func(name, category string, start, end time.Time) *finance.Budget {
		b, err := finance.NewBudget(userID, name, usd("100"), category, window(t, start, end))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, b))
		return b
	}
	march := save("March meals", finance.CategoryMeals, day(2026, 3, 1), day(2026, 4, 1))
	save("April meals", finance.CategoryMeals, day(2026, 4, 1), day(2026, 5, 1))
	save("March travel", finance.CategoryTravel, day(2026, 3, 1), day(2026, 4, 1))

	// [Mar 15, Apr 1) touches only March because windows are half-open
	overlapping, err := repo.FindOverlapping(ctx, userID, "MEALS", window(t, day(2026, 3, 15), day(2026, 4, 1)))
	require.NoError(t, err)
	require.Len(t, overlapping, 1)
	assert.Equal(t, march.ID, overlapping[0].ID)

	overlapping, err = repo.FindOverlapping(ctx, userID, finance.CategoryMeals, window(t, day(2026, 3, 31), day(2026, 4, 2)))
	require.NoError(t, err)
	assert.Len(t, overlapping, 2)

	overlapping, err = repo.FindOverlapping(ctx, uuid.New(), finance.CategoryMeals, window(t, day(2026, 3, 1), day(2026, 5, 1)))
	require.NoError(t, err)
	assert.Empty(t, overlapping)
}
