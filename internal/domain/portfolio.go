package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Portfolio is the aggregate root: cash balance plus per-ticker
// holdings. All mutations go through its methods; external code never
// reaches into Holdings or Lots directly. Invariants: balance ≥ 0, at
// most one Holding per ticker, and every mutation either fully applies
// (balance and holdings updated together) or fully fails.
//
// A Portfolio is not safe for concurrent use. Callers serialize access
// per portfolio id through the repository's exclusive lease (see
// store.PortfolioRepository).
type Portfolio struct {
	ID        uuid.UUID
	OwnerName string
	Balance   Money
	Holdings  map[Ticker]*Holding
	CreatedAt time.Time
}

// NewPortfolio creates an empty portfolio for ownerName with a
// generated id and zero balance. An empty currency selects
// DefaultCurrency. The currency is fixed for the portfolio's lifetime:
// every amount and price flowing through it must match.
func NewPortfolio(ownerName, currency string) *Portfolio {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Portfolio{
		ID:        uuid.New(),
		OwnerName: ownerName,
		Balance:   ZeroMoney(currency),
		Holdings:  make(map[Ticker]*Holding),
		CreatedAt: time.Now(),
	}
}

// Currency returns the portfolio's fixed currency code.
func (p *Portfolio) Currency() string { return p.Balance.Currency() }

// Deposit adds amount to the balance. It returns ErrInvalidAmount for a
// non-positive amount and ErrCurrencyMismatch for a foreign currency.
func (p *Portfolio) Deposit(amount Money) error {
	if err := p.checkAmount(amount); err != nil {
		return err
	}
	balance, err := p.Balance.Add(amount)
	if err != nil {
		return err
	}
	p.Balance = balance
	return nil
}

// Withdraw subtracts amount from the balance. It returns
// ErrInvalidAmount for a non-positive amount and ErrInsufficientFunds
// when amount exceeds the balance. The balance is unchanged on failure.
func (p *Portfolio) Withdraw(amount Money) error {
	if err := p.checkAmount(amount); err != nil {
		return err
	}
	if p.Balance.Cmp(amount) < 0 {
		return ErrInsufficientFunds
	}
	balance, err := p.Balance.Sub(amount)
	if err != nil {
		return err
	}
	p.Balance = balance
	return nil
}

// Buy purchases quantity shares of ticker at price: it appends a new
// lot to the ticker's holding (created lazily on first purchase) and
// deducts price×quantity from the balance. All validation happens
// before any state changes, so a failed buy leaves the portfolio
// untouched — including not creating an empty holding.
func (p *Portfolio) Buy(ticker Ticker, quantity ShareQuantity, price Price) (*Lot, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if price.Currency() != p.Currency() {
		return nil, ErrCurrencyMismatch
	}
	cost := price.Times(quantity)
	if p.Balance.Cmp(cost) < 0 {
		return nil, ErrInsufficientFunds
	}

	holding, ok := p.Holdings[ticker]
	if !ok {
		holding = NewHolding(ticker)
		p.Holdings[ticker] = holding
	}
	lot, err := holding.Buy(quantity, price, time.Now())
	if err != nil {
		return nil, err
	}
	balance, err := p.Balance.Sub(cost)
	if err != nil {
		// Unreachable after the currency check above; failing here
		// would leave an appended lot behind.
		return nil, fmt.Errorf("portfolio %s: deduct cost: %w", p.ID, err)
	}
	p.Balance = balance
	return lot, nil
}

// Sell sells quantity shares of ticker at price using FIFO lot
// accounting and credits the proceeds to the balance. It returns
// ErrInvalidQuantity for a non-positive quantity, ErrHoldingNotFound
// when the ticker was never purchased, and ErrConflictQuantity when
// quantity exceeds the shares held. No lot or balance change survives
// a failure.
func (p *Portfolio) Sell(ticker Ticker, quantity ShareQuantity, price Price) (SellResult, error) {
	if quantity <= 0 {
		return SellResult{}, ErrInvalidQuantity
	}
	if price.Currency() != p.Currency() {
		return SellResult{}, ErrCurrencyMismatch
	}
	holding, ok := p.Holdings[ticker]
	if !ok {
		return SellResult{}, ErrHoldingNotFound
	}

	result, err := holding.Sell(quantity, price)
	if err != nil {
		return SellResult{}, err
	}
	balance, err := p.Balance.Add(result.Proceeds)
	if err != nil {
		return SellResult{}, fmt.Errorf("portfolio %s: credit proceeds: %w", p.ID, err)
	}
	p.Balance = balance
	return result, nil
}

// Holding returns the holding for ticker, if one exists.
func (p *Portfolio) Holding(ticker Ticker) (*Holding, bool) {
	h, ok := p.Holdings[ticker]
	return h, ok
}

// Tickers returns the tickers of all holdings, in no particular order.
func (p *Portfolio) Tickers() []Ticker {
	tickers := make([]Ticker, 0, len(p.Holdings))
	for t := range p.Holdings {
		tickers = append(tickers, t)
	}
	return tickers
}

// Clone returns an independent deep copy of the portfolio. The
// in-memory repository hands out clones so that a rolled-back mutation
// never leaks into stored state.
func (p *Portfolio) Clone() *Portfolio {
	holdings := make(map[Ticker]*Holding, len(p.Holdings))
	for t, h := range p.Holdings {
		holdings[t] = h.clone()
	}
	return &Portfolio{
		ID:        p.ID,
		OwnerName: p.OwnerName,
		Balance:   p.Balance,
		Holdings:  holdings,
		CreatedAt: p.CreatedAt,
	}
}

func (p *Portfolio) checkAmount(amount Money) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if amount.Currency() != p.Currency() {
		return ErrCurrencyMismatch
	}
	return nil
}
