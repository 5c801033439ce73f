package service

import (
	"context"
	"regexp"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
	"github.com/efolio/portfoliod/internal/pricing"
	"github.com/efolio/portfoliod/internal/store"
)

var (
	ownerNameRegex = regexp.MustCompile(`^[\pL\pN][\pL\pN .,'-]{0,99}$`)
	currencyRegex  = regexp.MustCompile(`^[A-Z]{3}$`)
)

// CreatePortfolioRequest represents the input for portfolio creation.
type CreatePortfolioRequest struct {
	OwnerName string
	Currency  string // empty selects the default
}

// HoldingView is one holding enriched with current market data. Market
// fields are nil when the price source can't quote the ticker.
type HoldingView struct {
	Ticker           domain.Ticker
	Shares           domain.ShareQuantity
	CostBasis        domain.Money
	MarketPrice      *domain.Price
	MarketValue      *domain.Money
	UnrealizedProfit *domain.Money
}

// PortfolioView is a read model of one portfolio with per-holding
// valuation, ordered by ticker.
type PortfolioView struct {
	Portfolio *domain.Portfolio
	Holdings  []HoldingView
}

// PortfolioService runs the portfolio use cases. Every mutation is one
// unit of work: acquire the exclusive lease, run exactly one aggregate
// method, commit, then append the transaction record. A failure before
// commit rolls the lease back, so no partial state is ever persisted.
type PortfolioService struct {
	repo         store.PortfolioRepository
	log          store.TransactionLog
	prices       pricing.Source
	leaseTimeout time.Duration
}

// NewPortfolioService creates a PortfolioService. leaseTimeout bounds
// how long a request waits for a contended lease before giving up with
// a transient failure.
func NewPortfolioService(repo store.PortfolioRepository, log store.TransactionLog, prices pricing.Source, leaseTimeout time.Duration) *PortfolioService {
	return &PortfolioService{
		repo:         repo,
		log:          log,
		prices:       prices,
		leaseTimeout: leaseTimeout,
	}
}

// Create validates the request and persists a new empty portfolio.
func (s *PortfolioService) Create(ctx context.Context, req CreatePortfolioRequest) (*domain.Portfolio, error) {
	if !ownerNameRegex.MatchString(req.OwnerName) {
		return nil, &domain.ValidationError{
			Message: "owner_name must be 1-100 letters, digits, spaces, or .,'-",
		}
	}
	if req.Currency != "" && !currencyRegex.MatchString(req.Currency) {
		return nil, &domain.ValidationError{
			Message: "currency must be a 3-letter uppercase code",
		}
	}

	p := domain.NewPortfolio(req.OwnerName, req.Currency)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns the portfolio with each holding valued at the current
// market price. Holdings the price source can't quote are included
// without market fields; an unreachable price source degrades the view
// the same way rather than failing the read.
func (s *PortfolioService) Get(ctx context.Context, id uuid.UUID) (*PortfolioView, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	prices, err := s.prices.CurrentPrices(ctx, p.Tickers())
	if err != nil {
		prices = nil
	}

	view := &PortfolioView{Portfolio: p}
	for ticker, holding := range p.Holdings {
		hv := HoldingView{
			Ticker:    ticker,
			Shares:    holding.TotalShares(),
			CostBasis: remainingCostBasis(holding, p.Currency()),
		}
		if price, ok := prices[ticker]; ok {
			value := price.Times(hv.Shares)
			if unrealized, err := value.Sub(hv.CostBasis); err == nil {
				hv.MarketPrice = &price
				hv.MarketValue = &value
				hv.UnrealizedProfit = &unrealized
			}
		}
		view.Holdings = append(view.Holdings, hv)
	}
	sort.Slice(view.Holdings, func(i, j int) bool {
		return view.Holdings[i].Ticker.String() < view.Holdings[j].Ticker.String()
	})
	return view, nil
}

// Deposit adds amount to the portfolio's balance and records a deposit
// transaction.
func (s *PortfolioService) Deposit(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	return s.mutate(ctx, id, func(p *domain.Portfolio) (*domain.Transaction, error) {
		m, err := domain.NewMoney(amount, p.Currency())
		if err != nil {
			return nil, err
		}
		if err := p.Deposit(m); err != nil {
			return nil, err
		}
		return domain.NewDepositTransaction(p.ID, m), nil
	})
}

// Withdraw subtracts amount from the portfolio's balance and records a
// withdrawal transaction.
func (s *PortfolioService) Withdraw(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*domain.Transaction, error) {
	return s.mutate(ctx, id, func(p *domain.Portfolio) (*domain.Transaction, error) {
		m, err := domain.NewMoney(amount, p.Currency())
		if err != nil {
			return nil, err
		}
		if err := p.Withdraw(m); err != nil {
			return nil, err
		}
		return domain.NewWithdrawalTransaction(p.ID, m), nil
	})
}

// Buy purchases quantity shares of symbol at the current market price
// and records a purchase transaction. The price lookup happens before
// the lease is acquired so a slow provider never extends the lease
// hold.
func (s *PortfolioService) Buy(ctx context.Context, id uuid.UUID, symbol string, quantity int64) (*domain.Transaction, error) {
	ticker, err := domain.NewTicker(symbol)
	if err != nil {
		return nil, err
	}
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	price, err := s.prices.CurrentPrice(ctx, ticker)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, id, func(p *domain.Portfolio) (*domain.Transaction, error) {
		if _, err := p.Buy(ticker, domain.ShareQuantity(quantity), price); err != nil {
			return nil, err
		}
		return domain.NewPurchaseTransaction(p.ID, ticker, domain.ShareQuantity(quantity), price), nil
	})
}

// Sell sells quantity shares of symbol at the current market price
// using FIFO lot accounting, records a sale transaction, and returns
// the sale's proceeds, cost basis, and profit.
func (s *PortfolioService) Sell(ctx context.Context, id uuid.UUID, symbol string, quantity int64) (domain.SellResult, *domain.Transaction, error) {
	ticker, err := domain.NewTicker(symbol)
	if err != nil {
		return domain.SellResult{}, nil, err
	}
	if quantity <= 0 {
		return domain.SellResult{}, nil, domain.ErrInvalidQuantity
	}

	price, err := s.prices.CurrentPrice(ctx, ticker)
	if err != nil {
		return domain.SellResult{}, nil, err
	}

	var result domain.SellResult
	tx, err := s.mutate(ctx, id, func(p *domain.Portfolio) (*domain.Transaction, error) {
		r, err := p.Sell(ticker, domain.ShareQuantity(quantity), price)
		if err != nil {
			return nil, err
		}
		result = r
		return domain.NewSaleTransaction(p.ID, ticker, domain.ShareQuantity(quantity), price, r), nil
	})
	if err != nil {
		return domain.SellResult{}, nil, err
	}
	return result, tx, nil
}

// mutate runs one aggregate mutation as a unit of work under the
// portfolio's exclusive lease. fn must leave the aggregate unchanged
// when it returns an error.
func (s *PortfolioService) mutate(ctx context.Context, id uuid.UUID, fn func(*domain.Portfolio) (*domain.Transaction, error)) (*domain.Transaction, error) {
	leaseCtx, cancel := context.WithTimeout(ctx, s.leaseTimeout)
	defer cancel()

	lease, err := s.repo.AcquireExclusive(leaseCtx, id)
	if err != nil {
		return nil, err
	}

	tx, err := fn(lease.Portfolio())
	if err != nil {
		_ = lease.Rollback(leaseCtx)
		return nil, err
	}

	if err := lease.Commit(leaseCtx); err != nil {
		return nil, err
	}

	// The log sits outside the aggregate's consistency boundary; an
	// append failure surfaces to the caller but cannot undo the
	// committed mutation.
	if err := s.log.Append(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// remainingCostBasis sums remaining × unitPrice over the holding's
// lots: the purchase cost still tied up in the position.
func remainingCostBasis(h *domain.Holding, currency string) domain.Money {
	cost := domain.ZeroMoney(currency)
	for _, lot := range h.Lots {
		if lot.Exhausted() {
			continue
		}
		next, err := cost.Add(lot.UnitPrice.Times(lot.Remaining))
		if err != nil {
			return cost
		}
		cost = next
	}
	return cost
}
