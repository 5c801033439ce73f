package pricing

import (
	"context"
	"fmt"
	"sync"

	"github.com/efolio/portfoliod/internal/domain"
)

// StaticSource serves a fixed price table. It backs the tests and the
// "static" provider mode for local development without network access.
type StaticSource struct {
	mu     sync.RWMutex
	prices map[domain.Ticker]domain.Price
}

// NewStaticSource creates a StaticSource with the given price table.
func NewStaticSource(prices map[domain.Ticker]domain.Price) *StaticSource {
	if prices == nil {
		prices = make(map[domain.Ticker]domain.Price)
	}
	return &StaticSource{prices: prices}
}

// Set adds or replaces the price for ticker. Safe for concurrent use.
func (s *StaticSource) Set(ticker domain.Ticker, price domain.Price) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[ticker] = price
}

func (s *StaticSource) CurrentPrice(_ context.Context, ticker domain.Ticker) (domain.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	price, ok := s.prices[ticker]
	if !ok {
		return domain.Price{}, fmt.Errorf("%w: no price for %s", domain.ErrPriceUnavailable, ticker)
	}
	return price, nil
}

func (s *StaticSource) CurrentPrices(_ context.Context, tickers []domain.Ticker) (map[domain.Ticker]domain.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prices := make(map[domain.Ticker]domain.Price, len(tickers))
	for _, ticker := range tickers {
		if price, ok := s.prices[ticker]; ok {
			prices[ticker] = price
		}
	}
	return prices, nil
}
