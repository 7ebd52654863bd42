package telemetry

import (
	"context"
	"errors"

	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/identity"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// BusinessMetrics turns domain events into OpenTelemetry counters and
// histograms. Subscribe it to the event bus for all event types.
type BusinessMetrics struct {
	events        metric.Int64Counter
	expenseAmount metric.Float64Histogram
	reimbursed    metric.Float64Counter
	invoiced      metric.Float64Counter
	paid          metric.Float64Counter
	budgetAlerts  metric.Int64Counter
	users         metric.Int64UpDownCounter
}

// NewBusinessMetrics creates the instruments on the given meter, or on the
// global meter provider when meter is nil
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		meter = otel.Meter(TracerName)
	}
	m := &BusinessMetrics{}
	var errs [7]error
	m.events, errs[0] = meter.Int64Counter("expenseai.domain_events",
		metric.WithDescription("Domain events observed, by type"))
	m.expenseAmount, errs[1] = meter.Float64Histogram("expenseai.expense.amount",
		metric.WithDescription("Amount of recorded expenses"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 5000))
	m.reimbursed, errs[2] = meter.Float64Counter("expenseai.expense.reimbursed",
		metric.WithDescription("Total amount reimbursed"))
	m.invoiced, errs[3] = meter.Float64Counter("expenseai.invoice.generated_amount",
		metric.WithDescription("Total amount invoiced"))
	m.paid, errs[4] = meter.Float64Counter("expenseai.invoice.paid_amount",
		metric.WithDescription("Total amount collected on invoices"))
	m.budgetAlerts, errs[5] = meter.Int64Counter("expenseai.budget.threshold_reached",
		metric.WithDescription("Budget alert threshold crossings"))
	m.users, errs[6] = meter.Int64UpDownCounter("expenseai.users.active",
		metric.WithDescription("Active user accounts"))
	if err := errors.Join(errs[:]...); err != nil {
		return nil, err
	}
	return m, nil
}

// EventTypes returns nil so the handler receives every event
func (m *BusinessMetrics) EventTypes() []string {
	return nil
}

// Handle records metrics for a single event
func (m *BusinessMetrics) Handle(ctx context.Context, evt shared.DomainEvent) error {
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", evt.EventType())))

	switch e := evt.(type) {
	case *finance.ExpenseCreatedEvent:
		m.expenseAmount.Record(ctx, e.Amount.InexactFloat64(), metric.WithAttributes(
			attribute.String(SpanAttrCategory, e.Category),
			attribute.String(SpanAttrCurrency, e.Currency),
		))
	case *finance.ExpenseReimbursedEvent:
		m.reimbursed.Add(ctx, e.Amount.InexactFloat64(), currencyAttr(e.Currency))
	case *finance.InvoiceGeneratedEvent:
		m.invoiced.Add(ctx, e.TotalAmount.InexactFloat64(), currencyAttr(e.Currency))
	case *finance.InvoicePaidEvent:
		m.paid.Add(ctx, e.TotalAmount.InexactFloat64(), currencyAttr(e.Currency))
	case *finance.BudgetThresholdReachedEvent:
		m.budgetAlerts.Add(ctx, 1, metric.WithAttributes(
			attribute.String(SpanAttrCategory, e.Category),
			attribute.Bool("over_budget", e.IsOverBudget),
		))
	case *identity.UserCreatedEvent:
		m.users.Add(ctx, 1)
	case *identity.UserDeactivatedEvent:
		m.users.Add(ctx, -1)
	}
	return nil
}

func currencyAttr(currency string) metric.AddOption {
	return metric.WithAttributes(attribute.String(SpanAttrCurrency, currency))
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
