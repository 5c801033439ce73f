package domain

import (
	"time"

	"github.com/google/uuid"
)

// SellResult captures the outcome of one completed sale: what the
// shares sold for, what they originally cost, and the difference.
// Profit is a signed delta and may be negative.
type SellResult struct {
	Proceeds  Money
	CostBasis Money
	Profit    Money
}

// Holding is one ticker's full position within a portfolio: an ordered
// sequence of lots in purchase order. Purchase order is semantically
// significant — it defines which shares a sale consumes first (FIFO).
// A Holding is created lazily on the first purchase of its ticker and
// never removed, even when its share count drops to zero.
type Holding struct {
	ID     uuid.UUID
	Ticker Ticker
	Lots   []*Lot
}

// NewHolding creates an empty holding for the given ticker.
func NewHolding(ticker Ticker) *Holding {
	return &Holding{
		ID:     uuid.New(),
		Ticker: ticker,
		Lots:   []*Lot{},
	}
}

// Buy appends a new lot of quantity shares at unitPrice. The Portfolio
// validates the quantity before delegating; Buy re-validates anyway.
func (h *Holding) Buy(quantity ShareQuantity, unitPrice Price, at time.Time) (*Lot, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	lot := NewLot(quantity, unitPrice, at)
	h.Lots = append(h.Lots, lot)
	return lot, nil
}

// Sell consumes quantity shares from the holding's lots oldest-first
// and returns the resulting proceeds, cost basis, and profit at
// sellPrice. It returns ErrInvalidQuantity for a non-positive quantity
// and ErrConflictQuantity when the holding has fewer than quantity
// shares; in both cases no lot is mutated.
//
// The FIFO walk is strict purchase-order precedence: exhausted lots are
// skipped, each non-exhausted lot is drained before the next is
// touched, and a lot is never skipped in favor of a cheaper one.
func (h *Holding) Sell(quantity ShareQuantity, sellPrice Price) (SellResult, error) {
	if quantity <= 0 {
		return SellResult{}, ErrInvalidQuantity
	}
	if quantity > h.TotalShares() {
		return SellResult{}, ErrConflictQuantity
	}

	costBasis := ZeroMoney(sellPrice.Currency())
	remaining := quantity
	for _, lot := range h.Lots {
		if remaining == 0 {
			break
		}
		if lot.Exhausted() {
			continue
		}
		consumed := min(lot.Remaining, remaining)
		var err error
		costBasis, err = costBasis.Add(lot.UnitPrice.Times(consumed))
		if err != nil {
			return SellResult{}, err
		}
		if err := lot.Reduce(consumed); err != nil {
			return SellResult{}, err
		}
		remaining -= consumed
	}

	proceeds := sellPrice.Times(quantity)
	profit, err := proceeds.Sub(costBasis)
	if err != nil {
		return SellResult{}, err
	}
	return SellResult{
		Proceeds:  proceeds,
		CostBasis: costBasis,
		Profit:    profit,
	}, nil
}

// TotalShares sums the remaining share count across all lots. It is
// recomputed on every call rather than cached.
func (h *Holding) TotalShares() ShareQuantity {
	var total ShareQuantity
	for _, lot := range h.Lots {
		total += lot.Remaining
	}
	return total
}

// clone returns an independent deep copy of the holding.
func (h *Holding) clone() *Holding {
	lots := make([]*Lot, len(h.Lots))
	for i, l := range h.Lots {
		lots[i] = l.clone()
	}
	return &Holding{ID: h.ID, Ticker: h.Ticker, Lots: lots}
}
