package domain

import (
	"errors"
	"testing"
	"time"
)

func newTestHolding(t *testing.T) *Holding {
	t.Helper()
	ticker, err := NewTicker("AAPL")
	if err != nil {
		t.Fatalf("NewTicker: %v", err)
	}
	return NewHolding(ticker)
}

func TestHolding_Buy(t *testing.T) {
	h := newTestHolding(t)

	lot1, err := h.Buy(10, mustPrice(t, "100.00"), time.Now())
	if err != nil {
		t.Fatalf("Buy unexpected error: %v", err)
	}
	lot2, err := h.Buy(5, mustPrice(t, "120.00"), time.Now())
	if err != nil {
		t.Fatalf("Buy unexpected error: %v", err)
	}

	if h.TotalShares() != 15 {
		t.Fatalf("total shares = %d, want 15", h.TotalShares())
	}
	if len(h.Lots) != 2 {
		t.Fatalf("lots = %d, want 2", len(h.Lots))
	}
	// Purchase order defines FIFO order.
	if h.Lots[0].ID != lot1.ID || h.Lots[1].ID != lot2.ID {
		t.Fatal("lots must be kept in purchase order")
	}
}

func TestHolding_BuyInvalidQuantity(t *testing.T) {
	h := newTestHolding(t)

	if _, err := h.Buy(0, mustPrice(t, "100.00"), time.Now()); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("Buy(0) expected ErrInvalidQuantity, got %v", err)
	}
	if len(h.Lots) != 0 {
		t.Fatal("failed Buy must not append a lot")
	}
}

func TestHolding_SellFIFO(t *testing.T) {
	h := newTestHolding(t)
	_, _ = h.Buy(10, mustPrice(t, "100.00"), time.Now())
	_, _ = h.Buy(5, mustPrice(t, "120.00"), time.Now())

	// Selling 12 consumes all 10 from the first lot and 2 from the
	// second, regardless of price.
	result, err := h.Sell(12, mustPrice(t, "110.00"))
	if err != nil {
		t.Fatalf("Sell unexpected error: %v", err)
	}

	if result.Proceeds.String() != "1320.00 USD" {
		t.Errorf("proceeds = %s, want 1320.00 USD", result.Proceeds)
	}
	if result.CostBasis.String() != "1240.00 USD" {
		t.Errorf("cost basis = %s, want 1240.00 USD", result.CostBasis)
	}
	if result.Profit.String() != "80.00 USD" {
		t.Errorf("profit = %s, want 80.00 USD", result.Profit)
	}

	if h.Lots[0].Remaining != 0 {
		t.Errorf("lot1 remaining = %d, want 0", h.Lots[0].Remaining)
	}
	if h.Lots[1].Remaining != 3 {
		t.Errorf("lot2 remaining = %d, want 3", h.Lots[1].Remaining)
	}
	if h.TotalShares() != 3 {
		t.Errorf("total shares = %d, want 3", h.TotalShares())
	}
}

func TestHolding_SellSkipsExhaustedLots(t *testing.T) {
	h := newTestHolding(t)
	_, _ = h.Buy(10, mustPrice(t, "100.00"), time.Now())
	_, _ = h.Buy(5, mustPrice(t, "120.00"), time.Now())
	_, _ = h.Buy(5, mustPrice(t, "90.00"), time.Now())

	if _, err := h.Sell(10, mustPrice(t, "110.00")); err != nil {
		t.Fatalf("first Sell: %v", err)
	}

	// Lot 1 is now exhausted; the next sale starts at lot 2.
	result, err := h.Sell(7, mustPrice(t, "110.00"))
	if err != nil {
		t.Fatalf("second Sell: %v", err)
	}
	// 5 × 120.00 + 2 × 90.00 = 780.00
	if result.CostBasis.String() != "780.00 USD" {
		t.Errorf("cost basis = %s, want 780.00 USD", result.CostBasis)
	}
	if h.Lots[1].Remaining != 0 || h.Lots[2].Remaining != 3 {
		t.Errorf("remaining = %d/%d, want 0/3", h.Lots[1].Remaining, h.Lots[2].Remaining)
	}

	// Exhausted lots are retained, never pruned.
	if len(h.Lots) != 3 {
		t.Fatalf("lots = %d, want 3", len(h.Lots))
	}
}

func TestHolding_SellNegativeProfit(t *testing.T) {
	h := newTestHolding(t)
	_, _ = h.Buy(10, mustPrice(t, "100.00"), time.Now())

	result, err := h.Sell(10, mustPrice(t, "90.00"))
	if err != nil {
		t.Fatalf("Sell unexpected error: %v", err)
	}
	if result.Profit.String() != "-100.00 USD" {
		t.Errorf("profit = %s, want -100.00 USD", result.Profit)
	}
}

func TestHolding_SellInsufficientShares(t *testing.T) {
	h := newTestHolding(t)
	_, _ = h.Buy(10, mustPrice(t, "100.00"), time.Now())
	_, _ = h.Buy(5, mustPrice(t, "120.00"), time.Now())

	_, err := h.Sell(16, mustPrice(t, "110.00"))
	if !errors.Is(err, ErrConflictQuantity) {
		t.Fatalf("expected ErrConflictQuantity, got %v", err)
	}

	// Validation failure must not touch any lot.
	if h.Lots[0].Remaining != 10 || h.Lots[1].Remaining != 5 {
		t.Fatalf("lots mutated on failed sell: %d/%d", h.Lots[0].Remaining, h.Lots[1].Remaining)
	}
}

func TestHolding_SellInvalidQuantity(t *testing.T) {
	h := newTestHolding(t)
	_, _ = h.Buy(10, mustPrice(t, "100.00"), time.Now())

	for _, q := range []int64{0, -5} {
		if _, err := h.Sell(ShareQuantity(q), mustPrice(t, "110.00")); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("Sell(%d) expected ErrInvalidQuantity, got %v", q, err)
		}
	}
	if h.TotalShares() != 10 {
		t.Fatalf("total shares = %d, want 10", h.TotalShares())
	}
}
