package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SignedAmount is a currency-tagged amount that may be negative.
// It is only produced by Money.Subtract and represents deltas such as the
// remaining part of a budget; Money itself never goes below zero.
type SignedAmount struct {
	amount   decimal.Decimal
	currency Currency
}

// Amount returns the signed decimal amount
func (s SignedAmount) Amount() decimal.Decimal {
	return s.amount
}

// Currency returns the currency code
func (s SignedAmount) Currency() Currency {
	return s.currency
}

// IsNegative reports a deficit
func (s SignedAmount) IsNegative() bool {
	return s.amount.IsNegative()
}

// IsZero returns true if the amount is zero
func (s SignedAmount) IsZero() bool {
	return s.amount.IsZero()
}

// Abs returns the magnitude as Money
func (s SignedAmount) Abs() Money {
	return Money{amount: s.amount.Abs(), currency: s.currency}
}

// Add adds a Money value to the signed amount
func (s SignedAmount) Add(m Money) (SignedAmount, error) {
	if s.currency != m.currency {
		return SignedAmount{}, shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot add money with different currencies: %s and %s", s.currency, m.currency)
	}
	return SignedAmount{amount: s.amount.Add(m.amount), currency: s.currency}, nil
}

// String returns a string representation like "-12.50 USD"
func (s SignedAmount) String() string {
	return fmt.Sprintf("%s %s", s.amount.StringFixed(MoneyScale), s.currency)
}

// MarshalJSON implements json.Marshaler
func (s SignedAmount) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   s.amount.StringFixed(MoneyScale),
		Currency: s.currency,
	})
}
