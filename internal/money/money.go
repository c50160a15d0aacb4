package money

import "errors"

// The ledger supports exactly one currency and one precision system-wide.
// This is not a multi-currency ledger.
const (
	DefaultCurrency  = "EUR"
	DefaultPrecision = 2
)

var (
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrPrecisionMismatch = errors.New("precision mismatch")
)

// Money is a monetary value in minor units (e.g. cents). No floats.
type Money struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Precision int    `json:"precision"`
}

// New returns a Money in the system currency and precision.
func New(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency, Precision: DefaultPrecision}
}

// Zero is the identity element for summation.
func Zero() Money { return New(0) }

// ToStorage converts a Money to its stored minor-unit integer. Values in any
// other currency or precision are rejected, never coerced.
func ToStorage(v Money) (int64, error) {
	if v.Currency != DefaultCurrency {
		return 0, ErrCurrencyMismatch
	}
	if v.Precision != DefaultPrecision {
		return 0, ErrPrecisionMismatch
	}
	return v.Amount, nil
}

// FromStorage converts a stored integer back to a Money. A nil stored value
// maps to zero, not an error.
func FromStorage(v *int64) Money {
	if v == nil {
		return Zero()
	}
	return New(*v)
}

// Add returns m + o. Operands must share currency and precision.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, ErrCurrencyMismatch
	}
	if m.Precision != o.Precision {
		return Money{}, ErrPrecisionMismatch
	}
	m.Amount += o.Amount
	return m, nil
}

// Times returns m multiplied by an integer quantity.
func (m Money) Times(n int64) Money {
	m.Amount *= n
	return m
}

// Negate returns -m.
func (m Money) Negate() Money {
	m.Amount = -m.Amount
	return m
}

// Equals is structural equality of amount, currency and precision.
func (m Money) Equals(o Money) bool {
	return m.Amount == o.Amount && m.Currency == o.Currency && m.Precision == o.Precision
}

func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }
func (m Money) IsZero() bool     { return m.Amount == 0 }
