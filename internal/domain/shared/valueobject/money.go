package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lhajoosten/ExpenseAI/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency represents a currency code (ISO 4217)
type Currency string

const (
	USD Currency = "USD" // US Dollar (default)
	EUR Currency = "EUR" // Euro
	GBP Currency = "GBP" // British Pound
)

// DefaultCurrency is the default currency for the system
const DefaultCurrency = USD

// MoneyScale is the number of decimal places every amount is rounded to
const MoneyScale int32 = 2

// ParseCurrency normalizes a currency code (trim + uppercase) and checks it
// is a three-letter code.
func ParseCurrency(code string) (Currency, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", shared.NewDomainError(shared.CodeInvalidCurrency, "Currency cannot be empty")
	}
	if len(c) != 3 {
		return "", shared.NewDomainErrorf(shared.CodeInvalidCurrency, "Currency %q must be a 3-letter ISO code", code)
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", shared.NewDomainErrorf(shared.CodeInvalidCurrency, "Currency %q must be a 3-letter ISO code", code)
		}
	}
	return Currency(c), nil
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// Money is a value object representing a non-negative monetary amount.
// It is immutable - all operations return new Money instances.
// Amounts are held at two decimal places, rounded half away from zero.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, shared.NewDomainErrorf(shared.CodeInvalidAmount, "Amount cannot be negative: %s", amount.String())
	}
	c, err := ParseCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{
		amount:   amount.Round(MoneyScale),
		currency: c,
	}, nil
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64, currency string) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount), currency)
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, shared.NewDomainErrorf(shared.CodeInvalidAmount, "Invalid amount %q", amount)
	}
	return NewMoney(d, currency)
}

// MustNewMoney is NewMoney for literals known to be valid; it panics otherwise
func MustNewMoney(amount decimal.Decimal, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// NewUSD creates Money in US dollars
func NewUSD(amount float64) (Money, error) {
	return NewMoneyFromFloat(amount, string(USD))
}

// NewEUR creates Money in euros
func NewEUR(amount float64) (Money, error) {
	return NewMoneyFromFloat(amount, string(EUR))
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

func (m Money) checkCurrency(op string, other Money) error {
	if m.currency != other.currency {
		return shared.NewDomainErrorf(shared.CodeCurrencyMismatch,
			"Cannot %s money with different currencies: %s and %s", op, m.currency, other.currency)
	}
	return nil
}

// Add returns a new Money with the sum of both amounts
// Returns CURRENCY_MISMATCH if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if err := m.checkCurrency("add", other); err != nil {
		return Money{}, err
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// Subtract returns the signed difference m - other.
// The result may be negative, so it is a SignedAmount rather than Money.
func (m Money) Subtract(other Money) (SignedAmount, error) {
	if err := m.checkCurrency("subtract", other); err != nil {
		return SignedAmount{}, err
	}
	return SignedAmount{
		amount:   m.amount.Sub(other.amount),
		currency: m.currency,
	}, nil
}

// Multiply returns a new Money multiplied by the given factor, re-rounded to
// two places. Negative factors are rejected.
func (m Money) Multiply(factor decimal.Decimal) (Money, error) {
	if factor.IsNegative() {
		return Money{}, shared.NewDomainErrorf(shared.CodeInvalidAmount, "Cannot multiply money by negative factor %s", factor.String())
	}
	return Money{
		amount:   m.amount.Mul(factor).Round(MoneyScale),
		currency: m.currency,
	}, nil
}

// Compare returns -1, 0 or 1 comparing m to other
func (m Money) Compare(other Money) (int, error) {
	if err := m.checkCurrency("compare", other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equals returns true if both Money values are equal.
// Returns CURRENCY_MISMATCH if currencies don't match.
func (m Money) Equals(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c == 0 && err == nil, err
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c < 0 && err == nil, err
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c > 0 && err == nil, err
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) (bool, error) {
	c, err := m.Compare(other)
	return c >= 0 && err == nil, err
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(MoneyScale), m.currency)
}

// StringFixed returns the amount as a string with two decimal places
func (m Money) StringFixed() string {
	return m.amount.StringFixed(MoneyScale)
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{
		Amount:   m.amount.StringFixed(MoneyScale),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Decoded values go through NewMoney validation.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, string(v.Currency))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
