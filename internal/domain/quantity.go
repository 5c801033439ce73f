package domain

// ShareQuantity is a non-negative count of whole shares. Fractional
// shares are not supported.
type ShareQuantity int64

// NewShareQuantity validates a raw share count. It returns
// ErrInvalidQuantity for negative values; zero is a valid quantity for
// derived values (e.g. an exhausted lot's remaining count) but is
// rejected by every buy/sell entry point.
func NewShareQuantity(n int64) (ShareQuantity, error) {
	if n < 0 {
		return 0, ErrInvalidQuantity
	}
	return ShareQuantity(n), nil
}

// Int64 returns the raw share count.
func (q ShareQuantity) Int64() int64 { return int64(q) }
