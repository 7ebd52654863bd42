package finance_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lhajoosten/ExpenseAI/internal/domain/finance"
	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, taxRate string) *finance.Invoice {
	t.Helper()
	inv, err := finance.NewInvoice(uuid.New(), "INV-2026-0001", "Acme BV", " Billing@Acme.Example ",
		date(2026, 3, 1), date(2026, 3, 31), "usd", decimal.RequireFromString(taxRate),
		finance.WithClientAddress("Main street 1"),
		finance.WithInvoiceNotes("Net 30"),
	)
	require.NoError(t, err)
	return inv
}

func TestNewInvoice(t *testing.T) {
	inv := newTestInvoice(t, "0.21")
	assert.Equal(t, finance.InvoiceStatusDraft, inv.Status)
	assert.Equal(t, "billing@acme.example", inv.ClientEmail)
	assert.Equal(t, "USD", inv.Currency.String())
	assert.Equal(t, "Main street 1", inv.ClientAddress)
	assert.Equal(t, "Net 30", inv.Notes)
	assert.Equal(t, "0.00 USD", inv.Total().String())
	assert.Empty(t, inv.LineItems())

	userID := uuid.New()
	tests := []struct {
		name    string
		number  string
		client  string
		issue   time.Time
		due     time.Time
		rate    string
		wantErr error
	}{
		{"blank number", " ", "Acme", date(2026, 3, 1), date(2026, 3, 31), "0", shared.ErrInvalidArgument},
		{"blank client", "INV-1", "", date(2026, 3, 1), date(2026, 3, 31), "0", shared.ErrInvalidArgument},
		{"due before issue", "INV-1", "Acme", date(2026, 3, 31), date(2026, 3, 1), "0", shared.ErrInvalidDateRange},
		{"tax above one", "INV-1", "Acme", date(2026, 3, 1), date(2026, 3, 31), "1.5", shared.ErrInvalidArgument},
		{"negative tax", "INV-1", "Acme", date(2026, 3, 1), date(2026, 3, 31), "-0.1", shared.ErrInvalidArgument},
		{"tax beyond four decimals", "INV-1", "Acme", date(2026, 3, 1), date(2026, 3, 31), "0.08875", shared.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := finance.NewInvoice(userID, tt.number, tt.client, "a@b.example", tt.issue, tt.due, "USD", decimal.RequireFromString(tt.rate))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("tax with four decimals", func(t *testing.T) {
		inv, err := finance.NewInvoice(userID, "INV-1", "Acme", "a@b.example", date(2026, 3, 1), date(2026, 3, 31), "USD", decimal.RequireFromString("0.0888"))
		require.NoError(t, err)
		assert.Equal(t, "0.0888", inv.TaxRate.String())
	})

	t.Run("trailing zeros beyond four decimals", func(t *testing.T) {
		_, err := finance.NewInvoice(userID, "INV-1", "Acme", "a@b.example", date(2026, 3, 1), date(2026, 3, 31), "USD", decimal.RequireFromString("0.210000"))
		assert.NoError(t, err)
	})

	t.Run("due on issue date", func(t *testing.T) {
		_, err := finance.NewInvoice(userID, "INV-1", "Acme", "a@b.example", date(2026, 3, 1), date(2026, 3, 1), "USD", decimal.Zero)
		assert.NoError(t, err)
	})
}

func TestInvoice_Totals(t *testing.T) {
	inv := newTestInvoice(t, "0.075")

	_, err := inv.AddLineItem("Consulting", usd("19.99"), decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, "19.99 USD", inv.Subtotal().String())
	assert.Equal(t, "1.50 USD", inv.TaxAmount().String())
	assert.Equal(t, "21.49 USD", inv.Total().String())

	_, err = inv.AddLineItem("Hosting", usd("10.00"), decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.Equal(t, "44.99 USD", inv.Subtotal().String())
	assert.Equal(t, "3.37 USD", inv.TaxAmount().String())
	assert.Equal(t, "48.36 USD", inv.Total().String())

	require.NoError(t, inv.UpdateLineItem(1, "Hosting (annual)", usd("100.00"), decimal.NewFromInt(1)))
	assert.Equal(t, "119.99 USD", inv.Subtotal().String())

	require.NoError(t, inv.RemoveLineItem(0))
	assert.Equal(t, "100.00 USD", inv.Subtotal().String())
	assert.Equal(t, "107.50 USD", inv.Total().String())
	require.Len(t, inv.LineItems(), 1)
	assert.Equal(t, "Hosting (annual)", inv.LineItems()[0].Description)
}

func TestInvoice_LineItemValidation(t *testing.T) {
	inv := newTestInvoice(t, "0")

	_, err := inv.AddLineItem(" ", usd("1.00"), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = inv.AddLineItem("Work", usd("1.00"), decimal.Zero)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = inv.AddLineItem("Work", usd("1.00"), decimal.RequireFromString("0.00001"))
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)

	_, err = inv.AddLineItem("Work", eur("1.00"), decimal.NewFromInt(1))
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)

	assert.ErrorIs(t, inv.RemoveLineItem(0), shared.ErrIndexOutOfRange)
	assert.ErrorIs(t, inv.UpdateLineItem(-1, "Work", usd("1.00"), decimal.NewFromInt(1)), shared.ErrIndexOutOfRange)
	assert.Equal(t, 0, inv.ItemCount())

	_, err = inv.AddLineItem("Work", usd("1.00"), decimal.RequireFromString("0.0001"))
	require.NoError(t, err)
	assert.ErrorIs(t, inv.UpdateLineItem(0, "Work", usd("1.00"), decimal.RequireFromString("1.23456")), shared.ErrInvalidArgument)
}

func TestInvoice_LineItemsReturnsCopy(t *testing.T) {
	inv := newTestInvoice(t, "0")
	_, err := inv.AddLineItem("Work", usd("5.00"), decimal.NewFromInt(1))
	require.NoError(t, err)

	items := inv.LineItems()
	items[0].Description = "tampered"
	assert.Equal(t, "Work", inv.LineItems()[0].Description)
}

func TestInvoice_Lifecycle(t *testing.T) {
	t.Run("send empty invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "0")
		assert.ErrorIs(t, inv.Send(), shared.ErrEmptyInvoice)
		assert.Equal(t, finance.InvoiceStatusDraft, inv.Status)
	})

	t.Run("send, pay and freeze", func(t *testing.T) {
		inv := newTestInvoice(t, "0.1")
		_, err := inv.AddLineItem("Design", usd("200.00"), decimal.NewFromInt(1))
		require.NoError(t, err)

		assert.ErrorIs(t, inv.MarkAsPaid(date(2026, 3, 5), "bank", "ref"), shared.ErrIllegalTransition)

		require.NoError(t, inv.Send())
		require.Len(t, inv.GetDomainEvents(), 1)
		generated, ok := inv.GetDomainEvents()[0].(*finance.InvoiceGeneratedEvent)
		require.True(t, ok)
		assert.Equal(t, "INV-2026-0001", generated.InvoiceNumber)
		assert.Equal(t, "billing@acme.example", generated.ClientEmail)
		assert.Equal(t, "220.00", generated.TotalAmount.StringFixed(2))

		assert.ErrorIs(t, inv.Send(), shared.ErrIllegalTransition)
		_, err = inv.AddLineItem("Extra", usd("1.00"), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, shared.ErrIllegalOperation)
		assert.ErrorIs(t, inv.UpdateClient("Other", "x@y.example", ""), shared.ErrIllegalOperation)

		require.NoError(t, inv.MarkAsPaid(date(2026, 3, 20), " bank ", " TX-1 "))
		assert.Equal(t, finance.InvoiceStatusPaid, inv.Status)
		assert.Equal(t, "bank", inv.PaymentMethod)
		assert.Equal(t, "TX-1", inv.PaymentReference)
		assert.ErrorIs(t, inv.RemoveLineItem(0), shared.ErrIllegalOperation)
		assert.ErrorIs(t, inv.Cancel(), shared.ErrIllegalOperation)
	})

	t.Run("cancel", func(t *testing.T) {
		inv := newTestInvoice(t, "0")
		require.NoError(t, inv.Cancel())
		assert.Equal(t, finance.InvoiceStatusCancelled, inv.Status)
		assert.ErrorIs(t, inv.Cancel(), shared.ErrIllegalTransition)
		_, err := inv.AddLineItem("Late", usd("1.00"), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, shared.ErrIllegalOperation)
		assert.ErrorIs(t, inv.Send(), shared.ErrIllegalTransition)
	})
}

func TestInvoice_Overdue(t *testing.T) {
	inv := newTestInvoice(t, "0")
	_, err := inv.AddLineItem("Design", usd("200.00"), decimal.NewFromInt(1))
	require.NoError(t, err)

	late := date(2026, 4, 10)
	assert.False(t, inv.IsOverdue(late), "draft invoices are never overdue")

	require.NoError(t, inv.Send())
	assert.False(t, inv.IsOverdue(date(2026, 3, 31)))
	assert.True(t, inv.IsOverdue(late))
	assert.Equal(t, 10, inv.DaysOverdue(late))
	assert.Equal(t, 0, inv.DaysOverdue(date(2026, 3, 15)))
}

func TestInvoice_UpdateClientAndDates(t *testing.T) {
	inv := newTestInvoice(t, "0")

	require.NoError(t, inv.UpdateClient("Globex", "AP@Globex.Example", "Elm road 2"))
	assert.Equal(t, "Globex", inv.ClientName)
	assert.Equal(t, "ap@globex.example", inv.ClientEmail)
	assert.Equal(t, "Elm road 2", inv.ClientAddress)

	assert.ErrorIs(t, inv.UpdateDates(date(2026, 5, 1), date(2026, 4, 1)), shared.ErrInvalidDateRange)
	require.NoError(t, inv.UpdateDates(date(2026, 5, 1), date(2026, 5, 31)))
	assert.Equal(t, date(2026, 5, 31), inv.DueDate)
}

func TestInvoice_UpdateClientClearsAddress(t *testing.T) {
	inv := newTestInvoice(t, "0")
	require.Equal(t, "Main street 1", inv.ClientAddress)

	require.NoError(t, inv.UpdateClient("Acme BV", "billing@acme.example", "  "))
	assert.Empty(t, inv.ClientAddress)
}

func TestInvoice_UpdateNotes(t *testing.T) {
	inv := newTestInvoice(t, "0")

	require.NoError(t, inv.UpdateNotes(" Net 14 "))
	assert.Equal(t, "Net 14", inv.Notes)
	require.NoError(t, inv.UpdateNotes(""))
	assert.Empty(t, inv.Notes)

	require.NoError(t, inv.Cancel())
	assert.ErrorIs(t, inv.UpdateNotes("late"), shared.ErrIllegalOperation)
}

func TestInvoice_EnsureDeletable(t *testing.T) {
	inv := newTestInvoice(t, "0")
	assert.NoError(t, inv.EnsureDeletable())

	_, err := inv.AddLineItem("Design", usd("200.00"), decimal.NewFromInt(1))
	require.NoError(t, err)
	require.NoError(t, inv.Send())
	assert.NoError(t, inv.EnsureDeletable())

	require.NoError(t, inv.MarkAsPaid(date(2026, 3, 20), "bank", "TX-1"))
	assert.ErrorIs(t, inv.EnsureDeletable(), shared.ErrIllegalOperation)
}
