package pricing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

func mustTicker(t *testing.T, s string) domain.Ticker {
	t.Helper()
	ticker, err := domain.NewTicker(s)
	if err != nil {
		t.Fatalf("NewTicker(%q): %v", s, err)
	}
	return ticker
}

func mustPrice(t *testing.T, s string) domain.Price {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad price %q", s)
	}
	p, err := domain.NewPrice(d, "USD")
	if err != nil {
		t.Fatalf("NewPrice(%q): %v", s, err)
	}
	return p
}

func TestStaticSource(t *testing.T) {
	aapl := mustTicker(t, "AAPL")
	msft := mustTicker(t, "MSFT")
	s := NewStaticSource(map[domain.Ticker]domain.Price{
		aapl: mustPrice(t, "110.00"),
	})

	price, err := s.CurrentPrice(context.Background(), aapl)
	if err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if price.String() != "110.00 USD" {
		t.Fatalf("price = %s, want 110.00 USD", price)
	}

	if _, err := s.CurrentPrice(context.Background(), msft); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("unknown ticker expected ErrPriceUnavailable, got %v", err)
	}

	// Batch lookup drops unknown tickers instead of failing.
	prices, err := s.CurrentPrices(context.Background(), []domain.Ticker{aapl, msft})
	if err != nil {
		t.Fatalf("CurrentPrices: %v", err)
	}
	if len(prices) != 1 {
		t.Fatalf("prices = %d entries, want 1", len(prices))
	}
	if _, ok := prices[aapl]; !ok {
		t.Fatal("known ticker missing from batch result")
	}
}

func TestYahooSource_CurrentPrice(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":187.44}}]}}`))
	}))
	defer srv.Close()

	s := NewYahooSource("USD", time.Minute)
	s.baseURL = srv.URL

	aapl := mustTicker(t, "AAPL")
	price, err := s.CurrentPrice(context.Background(), aapl)
	if err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if price.String() != "187.44 USD" {
		t.Fatalf("price = %s, want 187.44 USD", price)
	}

	// Second lookup within the TTL is served from cache.
	if _, err := s.CurrentPrice(context.Background(), aapl); err != nil {
		t.Fatalf("cached CurrentPrice: %v", err)
	}
	if calls != 1 {
		t.Fatalf("provider called %d times, want 1", calls)
	}
}

func TestYahooSource_FallbackToLastClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"regularMarketPrice":0},` +
			`"timestamp":[1,2,3],"indicators":{"quote":[{"close":[101.5,102.25,0]}]}}]}}`))
	}))
	defer srv.Close()

	s := NewYahooSource("USD", time.Minute)
	s.baseURL = srv.URL

	price, err := s.CurrentPrice(context.Background(), mustTicker(t, "MSFT"))
	if err != nil {
		t.Fatalf("CurrentPrice: %v", err)
	}
	if price.String() != "102.25 USD" {
		t.Fatalf("price = %s, want last non-zero close 102.25 USD", price)
	}
}

func TestYahooSource_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"http error", "", http.StatusBadGateway},
		{"empty result", `{"chart":{"result":[]}}`, http.StatusOK},
		{"malformed body", `{`, http.StatusOK},
		{"zero quote", `{"chart":{"result":[{"meta":{"regularMarketPrice":0}}]}}`, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			s := NewYahooSource("USD", time.Minute)
			s.baseURL = srv.URL

			_, err := s.CurrentPrice(context.Background(), mustTicker(t, "TSLA"))
			if !errors.Is(err, domain.ErrPriceUnavailable) {
				t.Fatalf("expected ErrPriceUnavailable, got %v", err)
			}
		})
	}
}
