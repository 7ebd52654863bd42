package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestBusinessMetrics_Handle(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := NewBusinessMetrics(provider.Meter("test"))
	require.NoError(t, err)
	assert.Nil(t, m.EventTypes())

	ctx := context.Background()
	userID := uuid.New()
	expenseID := uuid.New()
	require.NoError(t, m.Handle(ctx, &finance.ExpenseCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(finance.EventTypeExpenseCreated, "Expense", expenseID, userID),
		Amount:          decimal.RequireFromString("42.50"),
		Currency:        "USD",
		Category:        finance.CategoryMeals,
	}))
	for i := 0; i < 2; i++ {
		require.NoError(t, m.Handle(ctx, &finance.InvoicePaidEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(finance.EventTypeInvoicePaid, "Invoice", uuid.New(), userID),
			TotalAmount:     decimal.NewFromInt(100),
			Currency:        "USD",
		}))
	}

	metrics := collect(t, reader)

	events, ok := metrics["expenseai.domain_events"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range events.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)

	paid, ok := metrics["expenseai.invoice.paid_amount"].Data.(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, paid.DataPoints, 1)
	assert.Equal(t, 200.0, paid.DataPoints[0].Value)

	amounts, ok := metrics["expenseai.expense.amount"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, amounts.DataPoints, 1)
	assert.Equal(t, uint64(1), amounts.DataPoints[0].Count)
	assert.Equal(t, 42.5, amounts.DataPoints[0].Sum)
}
