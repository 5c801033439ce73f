package handler

import (
	"net/http"
	"strconv"

	"github.com/efolio/portfoliod/internal/domain"
	"github.com/efolio/portfoliod/internal/service"
)

// TransactionHandler handles HTTP requests for transaction history.
type TransactionHandler struct {
	svc *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{svc: svc}
}

// transactionListResponse is the JSON response for
// GET /portfolios/{portfolio_id}/transactions.
type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}

// List handles GET /portfolios/{portfolio_id}/transactions.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := parsePortfolioID(w, r)
	if !ok {
		return
	}

	var typeFilter *domain.TransactionType
	if s := r.URL.Query().Get("type"); s != "" {
		typ := domain.TransactionType(s)
		typeFilter = &typ
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		var err error
		page, err = strconv.Atoi(p)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "page must be a valid integer")
			return
		}
	}

	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be a valid integer")
			return
		}
	}

	txs, total, err := h.svc.List(r.Context(), id, typeFilter, page, limit)
	if err != nil {
		mapDomainError(w, err)
		return
	}

	resp := transactionListResponse{
		Transactions: make([]transactionResponse, len(txs)),
		Total:        total,
		Page:         page,
		Limit:        limit,
	}
	for i, tx := range txs {
		resp.Transactions[i] = toTransactionResponse(tx)
	}

	WriteJSON(w, http.StatusOK, resp)
}
