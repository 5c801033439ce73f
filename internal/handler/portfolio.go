package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
	"github.com/efolio/portfoliod/internal/service"
)

// PortfolioHandler handles HTTP requests for portfolio endpoints.
type PortfolioHandler struct {
	svc *service.PortfolioService
}

// NewPortfolioHandler creates a new PortfolioHandler.
func NewPortfolioHandler(svc *service.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{svc: svc}
}

// createPortfolioRequest is the JSON request body for POST /portfolios.
type createPortfolioRequest struct {
	OwnerName string `json:"owner_name"`
	Currency  string `json:"currency,omitempty"`
}

// amountRequest is the JSON request body for deposits and withdrawals.
// Amounts travel as JSON strings or numbers and are parsed as exact
// decimals; float64 never touches a monetary value.
type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// tradeRequest is the JSON request body for purchases and sales.
type tradeRequest struct {
	Ticker   string `json:"ticker"`
	Quantity int64  `json:"quantity"`
}

// portfolioResponse is the JSON shape of a portfolio without holdings.
type portfolioResponse struct {
	ID        string `json:"id"`
	OwnerName string `json:"owner_name"`
	Balance   string `json:"balance"`
	Currency  string `json:"currency"`
	CreatedAt string `json:"created_at"`
}

// holdingResponse is one valued holding in the portfolio view.
type holdingResponse struct {
	Ticker           string  `json:"ticker"`
	Shares           int64   `json:"shares"`
	CostBasis        string  `json:"cost_basis"`
	MarketPrice      *string `json:"market_price,omitempty"`
	MarketValue      *string `json:"market_value,omitempty"`
	UnrealizedProfit *string `json:"unrealized_profit,omitempty"`
}

// portfolioViewResponse is the JSON response for GET /portfolios/{id}.
type portfolioViewResponse struct {
	portfolioResponse
	Holdings []holdingResponse `json:"holdings"`
}

// transactionResponse is the JSON shape of one transaction record.
type transactionResponse struct {
	ID          string  `json:"id"`
	PortfolioID string  `json:"portfolio_id"`
	Type        string  `json:"type"`
	Ticker      *string `json:"ticker,omitempty"`
	Quantity    *int64  `json:"quantity,omitempty"`
	UnitPrice   *string `json:"unit_price,omitempty"`
	TotalAmount string  `json:"total_amount"`
	Profit      *string `json:"profit,omitempty"`
	Currency    string  `json:"currency"`
	CreatedAt   string  `json:"created_at"`
}

// sellResponse is the JSON response for POST /portfolios/{id}/sales.
type sellResponse struct {
	Proceeds    string              `json:"proceeds"`
	CostBasis   string              `json:"cost_basis"`
	Profit      string              `json:"profit"`
	Transaction transactionResponse `json:"transaction"`
}

// Create handles POST /portfolios.
func (h *PortfolioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPortfolioRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	p, err := h.svc.Create(r.Context(), service.CreatePortfolioRequest{
		OwnerName: req.OwnerName,
		Currency:  req.Currency,
	})
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toPortfolioResponse(p))
}

// Get handles GET /portfolios/{portfolio_id}.
func (h *PortfolioHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePortfolioID(w, r)
	if !ok {
		return
	}

	view, err := h.svc.Get(r.Context(), id)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := portfolioViewResponse{
		portfolioResponse: toPortfolioResponse(view.Portfolio),
		Holdings:          make([]holdingResponse, len(view.Holdings)),
	}
	for i, hv := range view.Holdings {
		hr := holdingResponse{
			Ticker:    hv.Ticker.String(),
			Shares:    hv.Shares.Int64(),
			CostBasis: hv.CostBasis.Amount().StringFixed(2),
		}
		if hv.MarketPrice != nil {
			hr.MarketPrice = fixedStr(hv.MarketPrice.Amount())
		}
		if hv.MarketValue != nil {
			hr.MarketValue = fixedStr(hv.MarketValue.Amount())
		}
		if hv.UnrealizedProfit != nil {
			hr.UnrealizedProfit = fixedStr(hv.UnrealizedProfit.Amount())
		}
		resp.Holdings[i] = hr
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Deposit handles POST /portfolios/{portfolio_id}/deposits.
func (h *PortfolioHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	h.moveCash(w, r, h.svc.Deposit)
}

// Withdraw handles POST /portfolios/{portfolio_id}/withdrawals.
func (h *PortfolioHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.moveCash(w, r, h.svc.Withdraw)
}

func (h *PortfolioHandler) moveCash(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, decimal.Decimal) (*domain.Transaction, error)) {
	id, ok := parsePortfolioID(w, r)
	if !ok {
		return
	}

	var req amountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	tx, err := op(r.Context(), id, req.Amount)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// Buy handles POST /portfolios/{portfolio_id}/purchases.
func (h *PortfolioHandler) Buy(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePortfolioID(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	tx, err := h.svc.Buy(r.Context(), id, req.Ticker, req.Quantity)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

// Sell handles POST /portfolios/{portfolio_id}/sales.
func (h *PortfolioHandler) Sell(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePortfolioID(w, r)
	if !ok {
		return
	}

	var req tradeRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, tx, err := h.svc.Sell(r.Context(), id, req.Ticker, req.Quantity)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, sellResponse{
		Proceeds:    result.Proceeds.Amount().StringFixed(2),
		CostBasis:   result.CostBasis.Amount().StringFixed(2),
		Profit:      result.Profit.Amount().StringFixed(2),
		Transaction: toTransactionResponse(tx),
	})
}

func toPortfolioResponse(p *domain.Portfolio) portfolioResponse {
	return portfolioResponse{
		ID:        p.ID.String(),
		OwnerName: p.OwnerName,
		Balance:   p.Balance.Amount().StringFixed(2),
		Currency:  p.Currency(),
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:          tx.ID.String(),
		PortfolioID: tx.PortfolioID.String(),
		Type:        string(tx.Type),
		TotalAmount: tx.TotalAmount.Amount().StringFixed(2),
		Currency:    tx.TotalAmount.Currency(),
		CreatedAt:   tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
	if tx.Ticker != nil {
		s := tx.Ticker.String()
		resp.Ticker = &s
	}
	if tx.Quantity != nil {
		n := tx.Quantity.Int64()
		resp.Quantity = &n
	}
	if tx.UnitPrice != nil {
		resp.UnitPrice = fixedStr(tx.UnitPrice.Amount())
	}
	if tx.Profit != nil {
		resp.Profit = fixedStr(tx.Profit.Amount())
	}
	return resp
}

func fixedStr(d decimal.Decimal) *string {
	s := d.StringFixed(2)
	return &s
}

func parsePortfolioID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "portfolio_id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "portfolio_id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// mapDomainError maps domain errors to HTTP responses.
func mapDomainError(w http.ResponseWriter, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		WriteError(w, http.StatusBadRequest, "validation_error", validationErr.Message)
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_amount", "amount must be a positive decimal with at most 2 decimal places")
	case errors.Is(err, domain.ErrInvalidQuantity):
		WriteError(w, http.StatusUnprocessableEntity, "invalid_quantity", "quantity must be a positive whole number of shares")
	case errors.Is(err, domain.ErrCurrencyMismatch):
		WriteError(w, http.StatusUnprocessableEntity, "currency_mismatch", "amount currency does not match the portfolio's currency")
	case errors.Is(err, domain.ErrInsufficientFunds):
		WriteError(w, http.StatusConflict, "insufficient_funds", "the portfolio's balance does not cover this operation")
	case errors.Is(err, domain.ErrConflictQuantity):
		WriteError(w, http.StatusConflict, "conflict_quantity", "sale quantity exceeds the shares currently held")
	case errors.Is(err, domain.ErrHoldingNotFound):
		WriteError(w, http.StatusNotFound, "holding_not_found", "no holding exists for this ticker")
	case errors.Is(err, domain.ErrPortfolioNotFound):
		WriteError(w, http.StatusNotFound, "portfolio_not_found", "no portfolio exists with this id")
	case errors.Is(err, domain.ErrPriceUnavailable):
		WriteError(w, http.StatusBadGateway, "price_unavailable", "the market price source is unavailable or returned no quote")
	case errors.Is(err, context.DeadlineExceeded):
		WriteError(w, http.StatusServiceUnavailable, "lease_timeout", "the portfolio is busy; retry the operation")
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
