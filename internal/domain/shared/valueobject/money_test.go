package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, amount, currency string) Money {
	t.Helper()
	m, err := NewMoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), "USD")
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.50")))
	})

	t.Run("normalizes currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(1), " eur ")
		require.NoError(t, err)
		assert.Equal(t, EUR, m.Currency())
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(-1), "USD")
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		assert.ErrorIs(t, err, shared.ErrInvalidCurrency)
	})

	t.Run("rejects malformed currency", func(t *testing.T) {
		for _, c := range []string{"US", "USDX", "U5D"} {
			_, err := NewMoney(decimal.NewFromInt(1), c)
			assert.ErrorIs(t, err, shared.ErrInvalidCurrency, c)
		}
	})
}

func TestNewMoneyRounding(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"10.004", "10.00"},
		{"10.005", "10.01"},
		{"10.015", "10.02"},
		{"0.125", "0.13"},
		{"99.999", "100.00"},
		{"7", "7.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m := mustMoney(t, tt.in, "USD")
			assert.Equal(t, tt.want, m.StringFixed())
			assert.True(t, m.Amount().Equal(decimal.RequireFromString(tt.in).Round(2)))
		})
	}
}

func TestNewMoneyFromString(t *testing.T) {
	_, err := NewMoneyFromString("not-a-number", "USD")
	assert.ErrorIs(t, err, shared.ErrInvalidAmount)
}

func TestZero(t *testing.T) {
	m := Zero(USD)
	assert.True(t, m.IsZero())
	assert.False(t, m.IsPositive())
	assert.Equal(t, USD, m.Currency())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		result, err := mustMoney(t, "100.50", "USD").Add(mustMoney(t, "50.25", "USD"))
		require.NoError(t, err)
		assert.Equal(t, "150.75 USD", result.String())
	})

	t.Run("fails for different currencies", func(t *testing.T) {
		_, err := mustMoney(t, "10", "USD").Add(mustMoney(t, "5", "EUR"))
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	})
}

func TestMoneySubtract(t *testing.T) {
	t.Run("positive difference", func(t *testing.T) {
		d, err := mustMoney(t, "100", "USD").Subtract(mustMoney(t, "40.25", "USD"))
		require.NoError(t, err)
		assert.False(t, d.IsNegative())
		assert.Equal(t, "59.75 USD", d.String())
	})

	t.Run("negative difference is allowed", func(t *testing.T) {
		d, err := mustMoney(t, "40", "USD").Subtract(mustMoney(t, "100", "USD"))
		require.NoError(t, err)
		assert.True(t, d.IsNegative())
		assert.Equal(t, "-60.00 USD", d.String())
		assert.Equal(t, "60.00 USD", d.Abs().String())
	})

	t.Run("fails for different currencies", func(t *testing.T) {
		_, err := mustMoney(t, "10", "USD").Subtract(mustMoney(t, "5", "EUR"))
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	})
}

func TestMoneyMultiply(t *testing.T) {
	t.Run("quantity scaling", func(t *testing.T) {
		m, err := mustMoney(t, "100.00", "USD").Multiply(decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "200.00", m.StringFixed())
	})

	t.Run("re-rounds tax rate scaling", func(t *testing.T) {
		m, err := mustMoney(t, "19.99", "USD").Multiply(decimal.RequireFromString("0.075"))
		require.NoError(t, err)
		// 1.49925 -> 1.50
		assert.Equal(t, "1.50", m.StringFixed())
	})

	t.Run("rejects negative factor", func(t *testing.T) {
		_, err := mustMoney(t, "1", "USD").Multiply(decimal.NewFromInt(-1))
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}

func TestMoneyComparison(t *testing.T) {
	small := mustMoney(t, "10", "USD")
	large := mustMoney(t, "20", "USD")

	lt, err := small.LessThan(large)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := large.GreaterThan(small)
	require.NoError(t, err)
	assert.True(t, gt)

	gte, err := small.GreaterThanOrEqual(mustMoney(t, "10.00", "USD"))
	require.NoError(t, err)
	assert.True(t, gte)

	eq, err := small.Equals(mustMoney(t, "10.001", "USD"))
	require.NoError(t, err)
	assert.True(t, eq)

	t.Run("every comparison rejects mixed currencies", func(t *testing.T) {
		eur := mustMoney(t, "10", "EUR")
		_, err := small.LessThan(eur)
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
		_, err = small.GreaterThan(eur)
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
		_, err = small.GreaterThanOrEqual(eur)
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
		_, err = small.Equals(eur)
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
		_, err = small.Compare(eur)
		assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
	})
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(mustMoney(t, "12.5", "usd"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"12.50","currency":"USD"}`, string(data))

	t.Run("decoding validates", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"-3","currency":"USD"}`), &m)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, shared.CodeInvalidAmount, domainErr.Code)
	})
}

func TestSignedAmountAdd(t *testing.T) {
	d, err := mustMoney(t, "10", "USD").Subtract(mustMoney(t, "25", "USD"))
	require.NoError(t, err)

	back, err := d.Add(mustMoney(t, "25", "USD"))
	require.NoError(t, err)
	assert.Equal(t, "10.00 USD", back.String())

	_, err = d.Add(mustMoney(t, "1", "EUR"))
	assert.ErrorIs(t, err, shared.ErrCurrencyMismatch)
}
