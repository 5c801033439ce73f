package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInsufficientFunds = errors.New("insufficient_funds")
	ErrConflictQuantity  = errors.New("conflict_quantity")
	ErrHoldingNotFound   = errors.New("holding_not_found")
	ErrPortfolioNotFound = errors.New("portfolio_not_found")
	ErrPriceUnavailable  = errors.New("price_unavailable")
	ErrCurrencyMismatch  = errors.New("currency_mismatch")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
