package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/efolio/portfoliod/internal/domain"
	"github.com/efolio/portfoliod/internal/store"
)

// TransactionService reads the append-only transaction log.
type TransactionService struct {
	repo store.PortfolioRepository
	log  store.TransactionLog
}

// NewTransactionService creates a TransactionService.
func NewTransactionService(repo store.PortfolioRepository, log store.TransactionLog) *TransactionService {
	return &TransactionService{repo: repo, log: log}
}

// List returns the portfolio's transactions newest first, optionally
// filtered by type. It returns domain.ErrPortfolioNotFound for an
// unknown portfolio so an empty history is distinguishable from a
// missing one.
func (s *TransactionService) List(ctx context.Context, id uuid.UUID, typ *domain.TransactionType, page, limit int) ([]*domain.Transaction, int, error) {
	if typ != nil && !domain.ValidTransactionTypes[*typ] {
		return nil, 0, &domain.ValidationError{
			Message: fmt.Sprintf("unknown transaction type %q; must be one of: deposit, withdrawal, purchase, sale", *typ),
		}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, 0, err
	}
	return s.log.ListByPortfolio(ctx, id, typ, page, limit)
}
