// Package pricing looks up current market prices for tickers. The
// portfolio core consumes prices only through the Source interface;
// every failure surfaces as domain.ErrPriceUnavailable so the use-case
// layer never needs to know which provider is wired in. No retrying
// happens here — retry policy, if any, belongs to the caller.
package pricing

import (
	"context"

	"github.com/efolio/portfoliod/internal/domain"
)

// Source provides current market prices.
type Source interface {
	// CurrentPrice returns the latest price for ticker. It wraps any
	// provider failure in domain.ErrPriceUnavailable.
	CurrentPrice(ctx context.Context, ticker domain.Ticker) (domain.Price, error)

	// CurrentPrices returns the latest price for each ticker. Tickers
	// whose price cannot be determined are absent from the result; the
	// call fails only when the provider as a whole is unreachable.
	CurrentPrices(ctx context.Context, tickers []domain.Ticker) (map[domain.Ticker]domain.Price, error)
}
