package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

// YahooSource fetches prices from the Yahoo Finance v8 chart endpoint,
// with a small in-process cache so repeated lookups within the TTL
// don't hit the network.
type YahooSource struct {
	cli      *http.Client
	baseURL  string
	currency string
	ttl      time.Duration

	mu    sync.RWMutex
	cache map[domain.Ticker]cachedQuote
}

type cachedQuote struct {
	price   domain.Price
	fetched time.Time
}

// NewYahooSource creates a YahooSource quoting in the given currency.
func NewYahooSource(currency string, ttl time.Duration) *YahooSource {
	return &YahooSource{
		cli:      &http.Client{Timeout: 8 * time.Second},
		baseURL:  "https://query2.finance.yahoo.com",
		currency: currency,
		ttl:      ttl,
		cache:    make(map[domain.Ticker]cachedQuote),
	}
}

func (s *YahooSource) CurrentPrice(ctx context.Context, ticker domain.Ticker) (domain.Price, error) {
	s.mu.RLock()
	if c, ok := s.cache[ticker]; ok && time.Since(c.fetched) < s.ttl {
		s.mu.RUnlock()
		return c.price, nil
	}
	s.mu.RUnlock()

	price, err := s.fetch(ctx, ticker)
	if err != nil {
		return domain.Price{}, err
	}

	s.mu.Lock()
	s.cache[ticker] = cachedQuote{price: price, fetched: time.Now()}
	s.mu.Unlock()

	return price, nil
}

func (s *YahooSource) CurrentPrices(ctx context.Context, tickers []domain.Ticker) (map[domain.Ticker]domain.Price, error) {
	prices := make(map[domain.Ticker]domain.Price, len(tickers))
	for _, ticker := range tickers {
		price, err := s.CurrentPrice(ctx, ticker)
		if err != nil {
			// Skip tickers the provider can't quote; the caller
			// renders them without a market value.
			continue
		}
		prices[ticker] = price
	}
	return prices, nil
}

func (s *YahooSource) fetch(ctx context.Context, ticker domain.Ticker) (domain.Price, error) {
	url := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1m&range=1d", s.baseURL, ticker)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	req.Header.Set("User-Agent", "portfoliod/1.0")

	resp, err := s.cli.Do(req)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.Price{}, fmt.Errorf("%w: yahoo http %d", domain.ErrPriceUnavailable, resp.StatusCode)
	}

	var raw struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
				Timestamp  []int64 `json:"timestamp"`
				Indicators struct {
					Quote []struct {
						Close []float64 `json:"close"`
					} `json:"quote"`
				} `json:"indicators"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return domain.Price{}, fmt.Errorf("%w: decode: %v", domain.ErrPriceUnavailable, err)
	}
	if len(raw.Chart.Result) == 0 {
		return domain.Price{}, fmt.Errorf("%w: no result for %s", domain.ErrPriceUnavailable, ticker)
	}

	r := raw.Chart.Result[0]
	quote := r.Meta.RegularMarketPrice

	// Fall back to the last non-zero close when the meta price is
	// missing.
	if quote <= 0 && len(r.Indicators.Quote) > 0 && len(r.Indicators.Quote[0].Close) == len(r.Timestamp) {
		for i := len(r.Timestamp) - 1; i >= 0; i-- {
			if c := r.Indicators.Quote[0].Close[i]; c > 0 {
				quote = c
				break
			}
		}
	}
	if quote <= 0 {
		return domain.Price{}, fmt.Errorf("%w: no quote for %s", domain.ErrPriceUnavailable, ticker)
	}

	price, err := domain.NewPrice(decimal.NewFromFloat(quote), s.currency)
	if err != nil {
		return domain.Price{}, fmt.Errorf("%w: malformed quote %v for %s", domain.ErrPriceUnavailable, quote, ticker)
	}
	return price, nil
}
