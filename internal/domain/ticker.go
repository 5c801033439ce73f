package domain

import (
	"fmt"
	"regexp"
	"strings"
)

var tickerRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,9}$`)

// Ticker is a normalized stock symbol. The zero value is invalid; use
// NewTicker. Ticker is comparable and usable as a map key, which is how
// a Portfolio indexes its Holdings.
type Ticker struct {
	symbol string
}

// NewTicker normalizes (trims, uppercases) and validates a symbol.
func NewTicker(s string) (Ticker, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !tickerRegex.MatchString(s) {
		return Ticker{}, &ValidationError{
			Message: fmt.Sprintf("ticker must match %s, got %q", tickerRegex.String(), s),
		}
	}
	return Ticker{symbol: s}, nil
}

// String returns the normalized symbol.
func (t Ticker) String() string { return t.symbol }

// IsZero reports whether the ticker is the invalid zero value.
func (t Ticker) IsZero() bool { return t.symbol == "" }
