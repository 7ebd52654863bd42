//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/lhajoosten/ExpenseAI/internal/application/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/lhajoosten/ExpenseAI/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDB starts a throwaway postgres container with the schema migrated
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("expenseai_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	migrator, err := migration.New(migrationDB, migration.Embedded(), zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NoError(t, migrator.Up())
	version, dirty, err := migrator.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(5), version)
	assert.False(t, dirty)
	_ = migrator.Close()

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestPostgres_RepositoriesAgainstMigratedSchema(t *testing.T) {
	ctx := context.Background()
	db := newPostgresDB(t)
	uow := NewGormUnitOfWork(db)

	user, err := identity.NewUser("owner@example.com", "Olive", "Owner", "S3cure-pass1")
	require.NoError(t, err)
	require.NoError(t, uow.Users().Save(ctx, user))

	expense := newExpense(t, user.ID, "Conference ticket", "349.99", finance.CategoryProfessional, 12,
		finance.WithTags("conference"))
	require.NoError(t, uow.Expenses().Save(ctx, expense))

	stale, err := uow.Expenses().FindByID(ctx, expense.ID)
	require.NoError(t, err)
	require.NoError(t, expense.Submit())
	require.NoError(t, uow.Expenses().Save(ctx, expense))
	require.NoError(t, stale.AddTag("late"))
	assert.ErrorIs(t, uow.Expenses().Save(ctx, stale), shared.ErrConcurrencyConflict)

	items, total, err := uow.Expenses().FindByUser(ctx, user.ID, finance.ExpenseFilter{
		Filter:   shared.DefaultFilter(),
		Category: "professional",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, finance.ExpenseStatusSubmitted, items[0].Status)
	assert.True(t, decimal.RequireFromString("349.99").Equal(items[0].Amount.Amount()))

	invoice := newInvoice(t, user.ID, "INV-2026-0042", 31)
	_, err = invoice.AddLineItem("Audit", usd("1200"), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, uow.Invoices().Save(ctx, invoice))

	seq, err := uow.Invoices().LastSequenceForYear(ctx, 2026)
	require.NoError(t, err)
	assert.Equal(t, 42, seq)

	duplicate := newInvoice(t, user.ID, "INV-2026-0042", 31)
	assert.Error(t, uow.Invoices().Save(ctx, duplicate), "invoice numbers are unique")

	budget, err := finance.NewBudget(user.ID, "Training", usd("2000"), finance.CategoryProfessional,
		window(t, day(2026, 1, 1), day(2027, 1, 1)))
	require.NoError(t, err)
	require.NoError(t, uow.Budgets().Save(ctx, budget))

	overlapping, err := uow.Budgets().FindOverlapping(ctx, user.ID, finance.CategoryProfessional,
		window(t, day(2026, 6, 1), day(2026, 7, 1)))
	require.NoError(t, err)
	assert.Len(t, overlapping, 1)

	err = uow.Execute(ctx, func(ctx context.Context, repos appfinance.Repositories) error {
		orphan := newExpense(t, uuid.New(), "No such user", "1.00", finance.CategoryOffice, 1)
		return repos.Expenses().Save(ctx, orphan)
	})
	assert.Error(t, err, "foreign key violation rolls the transaction back")
}
