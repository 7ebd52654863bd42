package finance_test

import (
	"math"
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

func usd(amount string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(amount), "USD")
}

func eur(amount string) valueobject.Money {
	return valueobject.MustNewMoney(decimal.RequireFromString(amount), "EUR")
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestExpense(t *testing.T, opts ...finance.ExpenseOption) *finance.Expense {
	t.Helper()
	e, err := finance.NewExpense(uuid.New(), "Team lunch", usd("42.50"), finance.CategoryMeals, date(2026, 3, 10), opts...)
	require.NoError(t, err)
	e.ClearDomainEvents()
	return e
}

func TestNewExpense(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name        string
		userID      uuid.UUID
		description string
		amount      valueobject.Money
		category    string
		expenseDate time.Time
		wantErr     error
	}{
		{"valid expense", userID, "  Taxi to airport  ", usd("35.00"), finance.CategoryTravel, date(2026, 1, 5), nil},
		{"nil user", uuid.Nil, "Taxi", usd("35.00"), finance.CategoryTravel, date(2026, 1, 5), shared.ErrInvalidArgument},
		{"blank description", userID, "   ", usd("35.00"), finance.CategoryTravel, date(2026, 1, 5), shared.ErrInvalidArgument},
		{"zero amount", userID, "Taxi", usd("0"), finance.CategoryTravel, date(2026, 1, 5), shared.ErrInvalidAmount},
		{"missing amount", userID, "Taxi", valueobject.Money{}, finance.CategoryTravel, date(2026, 1, 5), shared.ErrInvalidAmount},
		{"blank category", userID, "Taxi", usd("35.00"), " ", date(2026, 1, 5), shared.ErrInvalidArgument},
		{"zero date", userID, "Taxi", usd("35.00"), finance.CategoryTravel, time.Time{}, shared.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := finance.NewExpense(tt.userID, tt.description, tt.amount, tt.category, tt.expenseDate)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, e)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Taxi to airport", e.Description)
			assert.Equal(t, finance.ExpenseStatusDraft, e.Status)
			assert.Equal(t, 1, e.Version)
			assert.True(t, e.IsOwnedBy(userID))
			require.Len(t, e.GetDomainEvents(), 1)
			assert.Equal(t, finance.EventTypeExpenseCreated, e.GetDomainEvents()[0].EventType())
		})
	}
}

func TestNewExpense_Options(t *testing.T) {
	e, err := finance.NewExpense(uuid.New(), "Flight", usd("320.00"), finance.CategoryTravel, date(2026, 2, 1),
		finance.WithNotes(" economy "),
		finance.WithMerchant("KLM"),
		finance.WithPaymentMethod("card"),
		finance.WithReimbursable(true),
		finance.WithTags("Trip", "trip ", "client"),
	)
	require.NoError(t, err)
	assert.Equal(t, "economy", e.Notes)
	assert.Equal(t, "KLM", e.MerchantName)
	assert.Equal(t, "card", e.PaymentMethod)
	assert.True(t, e.IsReimbursable)
	assert.Equal(t, []string{"trip", "client"}, e.Tags)
}

func TestExpense_StateMachine(t *testing.T) {
	t.Run("submit then approve", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		assert.Equal(t, finance.ExpenseStatusSubmitted, e.Status)
		assert.NotNil(t, e.SubmittedAt)

		require.NoError(t, e.Approve())
		assert.Equal(t, finance.ExpenseStatusApproved, e.Status)
		assert.NotNil(t, e.ReviewedAt)
		require.Len(t, e.GetDomainEvents(), 2)
		assert.Equal(t, finance.EventTypeExpenseApproved, e.GetDomainEvents()[1].EventType())
	})

	t.Run("approve requires submitted", func(t *testing.T) {
		e := newTestExpense(t)
		assert.ErrorIs(t, e.Approve(), shared.ErrIllegalTransition)
		assert.Equal(t, finance.ExpenseStatusDraft, e.Status)
	})

	t.Run("submit twice", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		assert.ErrorIs(t, e.Submit(), shared.ErrIllegalTransition)
	})

	t.Run("reject with blank reason", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		assert.ErrorIs(t, e.Reject("  "), shared.ErrInvalidArgument)
		assert.Equal(t, finance.ExpenseStatusSubmitted, e.Status)
	})

	t.Run("reject draft", func(t *testing.T) {
		e := newTestExpense(t)
		assert.ErrorIs(t, e.Reject("missing receipt"), shared.ErrIllegalTransition)
	})

	t.Run("rejected expense is corrected and resubmitted", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		require.NoError(t, e.Reject("missing receipt"))
		assert.Equal(t, "missing receipt", e.RejectionReason)
		assert.ErrorIs(t, e.Submit(), shared.ErrIllegalTransition)

		require.NoError(t, e.UpdateDetails(finance.ExpenseDetails{
			Description: e.Description,
			Amount:      e.Amount,
			Category:    e.Category,
			ExpenseDate: e.ExpenseDate,
		}))
		assert.Equal(t, finance.ExpenseStatusDraft, e.Status)
		assert.Empty(t, e.RejectionReason)

		require.NoError(t, e.Submit())
		require.NoError(t, e.Approve())
		assert.Empty(t, e.RejectionReason)
	})
}

func TestExpense_MarkReimbursed(t *testing.T) {
	t.Run("not reimbursable", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		require.NoError(t, e.Approve())
		assert.ErrorIs(t, e.MarkReimbursed(), shared.ErrIllegalOperation)
	})

	t.Run("not approved", func(t *testing.T) {
		e := newTestExpense(t, finance.WithReimbursable(true))
		assert.ErrorIs(t, e.MarkReimbursed(), shared.ErrIllegalOperation)
	})

	t.Run("approved and reimbursable, only once", func(t *testing.T) {
		e := newTestExpense(t, finance.WithReimbursable(true))
		require.NoError(t, e.Submit())
		require.NoError(t, e.Approve())

		require.NoError(t, e.MarkReimbursed())
		assert.True(t, e.IsReimbursed)
		assert.NotNil(t, e.ReimbursedAt)

		assert.ErrorIs(t, e.MarkReimbursed(), shared.ErrIllegalOperation)
	})
}

func TestExpense_UpdateDetails(t *testing.T) {
	t.Run("amount change raises event", func(t *testing.T) {
		e := newTestExpense(t)
		err := e.UpdateDetails(finance.ExpenseDetails{
			Description: "Team lunch with client",
			Amount:      usd("55.00"),
			Category:    finance.CategoryMeals,
			ExpenseDate: e.ExpenseDate,
			Notes:       "three people",
		})
		require.NoError(t, err)
		assert.Equal(t, "Team lunch with client", e.Description)
		require.Len(t, e.GetDomainEvents(), 1)

		event, ok := e.GetDomainEvents()[0].(*finance.ExpenseUpdatedEvent)
		require.True(t, ok)
		assert.Equal(t, "42.5", event.OldAmount.String())
		assert.Equal(t, "55", event.NewAmount.String())
	})

	t.Run("same amount raises nothing", func(t *testing.T) {
		e := newTestExpense(t)
		err := e.UpdateDetails(finance.ExpenseDetails{
			Description: "Lunch",
			Amount:      usd("42.50"),
			Category:    finance.CategoryMeals,
			ExpenseDate: e.ExpenseDate,
		})
		require.NoError(t, err)
		assert.Empty(t, e.GetDomainEvents())
	})

	t.Run("invalid input leaves expense untouched", func(t *testing.T) {
		e := newTestExpense(t)
		err := e.UpdateDetails(finance.ExpenseDetails{
			Description: "Changed",
			Amount:      usd("99.00"),
			Category:    "",
			ExpenseDate: e.ExpenseDate,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidArgument)
		assert.Equal(t, "Team lunch", e.Description)
		assert.Equal(t, "42.50 USD", e.Amount.String())
	})

	t.Run("approved expense is immutable", func(t *testing.T) {
		e := newTestExpense(t)
		require.NoError(t, e.Submit())
		require.NoError(t, e.Approve())
		err := e.UpdateDetails(finance.ExpenseDetails{
			Description: "Changed",
			Amount:      usd("1.00"),
			Category:    finance.CategoryMeals,
			ExpenseDate: e.ExpenseDate,
		})
		assert.ErrorIs(t, err, shared.ErrIllegalOperation)
	})
}

func TestExpense_SetAiCategorization(t *testing.T) {
	e := newTestExpense(t)

	assert.ErrorIs(t, e.SetAiCategorization(finance.CategoryTravel, 1.2, ""), shared.ErrInvalidArgument)
	assert.ErrorIs(t, e.SetAiCategorization(finance.CategoryTravel, -0.1, ""), shared.ErrInvalidArgument)
	assert.ErrorIs(t, e.SetAiCategorization(finance.CategoryMeals, math.NaN(), ""), shared.ErrInvalidArgument)
	assert.False(t, e.IsAiCategorized)
	assert.Zero(t, e.AiConfidenceScore)

	require.NoError(t, e.SetAiCategorization(finance.CategoryTravel, 0.85, "UBER *TRIP"))
	assert.Equal(t, finance.CategoryTravel, e.Category)
	assert.True(t, e.IsAiCategorized)
	assert.InDelta(t, 0.85, e.AiConfidenceScore, 1e-9)
	assert.Equal(t, "UBER *TRIP", e.ExtractedText)

	require.NoError(t, e.Submit())
	require.NoError(t, e.Approve())
	assert.ErrorIs(t, e.SetAiCategorization(finance.CategoryOffice, 0.9, ""), shared.ErrIllegalOperation)
}

func TestExpense_Tags(t *testing.T) {
	e := newTestExpense(t)

	require.NoError(t, e.AddTag(" Client "))
	require.NoError(t, e.AddTag("client"))
	assert.Equal(t, []string{"client"}, e.Tags)
	assert.True(t, e.HasTag("CLIENT"))

	assert.ErrorIs(t, e.AddTag("  "), shared.ErrInvalidArgument)

	require.NoError(t, e.RemoveTag("Client"))
	assert.Empty(t, e.Tags)
	require.NoError(t, e.RemoveTag("absent"))
}

func TestExpense_AttachReceipt(t *testing.T) {
	e := newTestExpense(t)
	assert.ErrorIs(t, e.AttachReceipt(" "), shared.ErrInvalidArgument)
	require.NoError(t, e.AttachReceipt("https://files.example.com/r/1.pdf"))
	assert.Equal(t, "https://files.example.com/r/1.pdf", e.ReceiptURL)
}

func TestExpense_MarkDeleted(t *testing.T) {
	e := newTestExpense(t)
	e.MarkDeleted()
	require.Len(t, e.GetDomainEvents(), 1)
	assert.Equal(t, finance.EventTypeExpenseDeleted, e.GetDomainEvents()[0].EventType())
}
