package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the currency assigned to portfolios that don't
// specify one explicitly.
const DefaultCurrency = "USD"

// Money is an exact decimal amount tagged with a currency code.
// Amounts are rounded to two decimal places on construction and after
// every multiplication so arithmetic never accumulates sub-cent drift.
// Money produced by constructors is non-negative; a negative amount can
// only arise from Sub, which is how signed deltas (profit/loss) are
// represented.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// NewMoney builds a Money from a decimal amount. It returns
// ErrInvalidAmount for negative amounts.
func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	return Money{amount: amount.Round(2), currency: currency}, nil
}

// ParseMoney builds a Money from its decimal string representation,
// e.g. "1320.00".
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("parse money %q: %w", s, ErrInvalidAmount)
	}
	return NewMoney(d, currency)
}

// NewSignedMoney builds a Money that may be negative. It exists for
// reconstructing signed deltas (profit/loss) from persisted state;
// user-facing amounts go through NewMoney.
func NewSignedMoney(amount decimal.Decimal, currency string) Money {
	return Money{amount: amount.Round(2), currency: currency}
}

// ZeroMoney returns a zero amount in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the underlying decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the currency code.
func (m Money) Currency() string { return m.currency }

// IsPositive reports whether the amount is strictly greater than zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// IsNegative reports whether the amount is strictly less than zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// SameCurrency reports whether both amounts carry the same currency code.
func (m Money) SameCurrency(o Money) bool { return m.currency == o.currency }

// Add returns m + o. It returns ErrCurrencyMismatch if the currency
// codes differ.
func (m Money) Add(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Add(o.amount), currency: m.currency}, nil
}

// Sub returns m - o. The result may be negative; callers that require a
// non-negative result must check Cmp first. It returns
// ErrCurrencyMismatch if the currency codes differ.
func (m Money) Sub(o Money) (Money, error) {
	if !m.SameCurrency(o) {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount.Sub(o.amount), currency: m.currency}, nil
}

// Cmp compares the amounts, ignoring currency: -1 if m < o, 0 if equal,
// +1 if m > o.
func (m Money) Cmp(o Money) int { return m.amount.Cmp(o.amount) }

// Equal reports whether both amount and currency are equal.
func (m Money) Equal(o Money) bool {
	return m.currency == o.currency && m.amount.Equal(o.amount)
}

// String formats the amount with exactly two decimal places, e.g.
// "80.00 USD".
func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

// Price is the per-share price of a security: a strictly positive Money
// amount. A distinct type keeps prices from being used where cash
// amounts are expected and vice versa.
type Price struct {
	value Money
}

// NewPrice builds a Price from a decimal amount. It returns
// ErrInvalidAmount unless the amount is strictly positive.
func NewPrice(amount decimal.Decimal, currency string) (Price, error) {
	if !amount.IsPositive() {
		return Price{}, ErrInvalidAmount
	}
	return Price{value: Money{amount: amount.Round(2), currency: currency}}, nil
}

// ParsePrice builds a Price from its decimal string representation.
func ParsePrice(s, currency string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("parse price %q: %w", s, ErrInvalidAmount)
	}
	return NewPrice(d, currency)
}

// Amount returns the underlying decimal amount.
func (p Price) Amount() decimal.Decimal { return p.value.amount }

// Currency returns the currency code.
func (p Price) Currency() string { return p.value.currency }

// Times returns the total Money value of q shares at this price.
func (p Price) Times(q ShareQuantity) Money {
	total := p.value.amount.Mul(decimal.NewFromInt(int64(q))).Round(2)
	return Money{amount: total, currency: p.value.currency}
}

// IsZero reports whether the price is the zero value (never produced by
// NewPrice).
func (p Price) IsZero() bool { return p.value.currency == "" }

func (p Price) String() string { return p.value.String() }
