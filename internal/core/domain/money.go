package domain

import (
	"fmt"

	"wallet-ledger-service/pkg/apperror"

	"github.com/shopspring/decimal"
)

// Money is an immutable exact-decimal amount in a single currency.
// All arithmetic requires equal currencies; there is no implicit conversion.
// Money itself may hold a negative amount (e.g. intermediate arithmetic);
// the non-negative balance rule is enforced by the Wallet aggregate.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// NewMoney creates a Money value.
func NewMoney(amount decimal.Decimal, currency string) Money {
	return Money{Amount: amount, Currency: currency}
}

// ParseMoney creates a Money value from a decimal string such as "100.50".
func ParseMoney(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, apperror.ErrInvalidArgument(fmt.Sprintf("invalid amount %q", amount))
	}
	return Money{Amount: d, Currency: currency}, nil
}

// Zero returns the zero value for the given currency.
func Zero(currency string) Money {
	return Money{Amount: decimal.Zero, Currency: currency}
}

// Add returns m + other. Fails on currency mismatch.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperror.ErrCurrencyMismatch(m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Fails on currency mismatch.
// The result may be negative; callers enforce balance rules.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, apperror.ErrCurrencyMismatch(m.Currency, other.Currency)
	}
	return Money{Amount: m.Amount.Sub(other.Amount), Currency: m.Currency}, nil
}

// Compare returns -1, 0 or 1 ordering m against other.
// Comparing across currencies fails rather than returning false.
func (m Money) Compare(other Money) (int, error) {
	if m.Currency != other.Currency {
		return 0, apperror.ErrCurrencyMismatch(m.Currency, other.Currency)
	}
	return m.Amount.Cmp(other.Amount), nil
}

// Equal reports whether two Money values have the same amount and currency.
func (m Money) Equal(other Money) bool {
	return m.Currency == other.Currency && m.Amount.Equal(other.Amount)
}

// SameCurrency reports whether both values share a currency.
func (m Money) SameCurrency(other Money) bool {
	return m.Currency == other.Currency
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }
func (m Money) IsPositive() bool { return m.Amount.IsPositive() }

// Neg returns the arithmetic negation of m.
func (m Money) Neg() Money {
	return Money{Amount: m.Amount.Neg(), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.String(), m.Currency)
}
