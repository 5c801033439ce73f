package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lot is a single acquisition batch of shares: the quantity bought in
// one purchase at one price. A lot is created with remaining == initial
// and only ever shrinks, via Reduce; it is never re-increased. Each lot
// belongs to exactly one Holding, which identifies it by ID.
type Lot struct {
	ID          uuid.UUID
	Initial     ShareQuantity
	Remaining   ShareQuantity
	UnitPrice   Price
	PurchasedAt time.Time
}

// NewLot creates a lot for a purchase of quantity shares at unitPrice.
func NewLot(quantity ShareQuantity, unitPrice Price, purchasedAt time.Time) *Lot {
	return &Lot{
		ID:          uuid.New(),
		Initial:     quantity,
		Remaining:   quantity,
		UnitPrice:   unitPrice,
		PurchasedAt: purchasedAt,
	}
}

// Reduce decrements the remaining share count by quantity. It returns
// ErrInvalidQuantity for a non-positive quantity. A quantity exceeding
// the remaining count is a caller bug (Holding validates the total
// before walking lots) and surfaces as an invariant-violation error
// rather than a sentinel.
func (l *Lot) Reduce(quantity ShareQuantity) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > l.Remaining {
		return fmt.Errorf("lot %s: reduce by %d exceeds remaining %d", l.ID, quantity, l.Remaining)
	}
	l.Remaining -= quantity
	return nil
}

// Exhausted reports whether every share in the lot has been sold.
// Exhausted lots stay in their Holding; the FIFO walk skips them.
func (l *Lot) Exhausted() bool { return l.Remaining == 0 }

// clone returns an independent copy of the lot.
func (l *Lot) clone() *Lot {
	c := *l
	return &c
}
