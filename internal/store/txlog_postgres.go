package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

// PostgresTransactionLog is a TransactionLog backed by the
// transactions table.
type PostgresTransactionLog struct {
	pool *pgxpool.Pool
}

// NewPostgresTransactionLog creates a log on the given pool.
func NewPostgresTransactionLog(pool *pgxpool.Pool) *PostgresTransactionLog {
	return &PostgresTransactionLog{pool: pool}
}

// Append inserts the transaction row.
func (l *PostgresTransactionLog) Append(ctx context.Context, tx *domain.Transaction) error {
	var ticker *string
	if tx.Ticker != nil {
		s := tx.Ticker.String()
		ticker = &s
	}
	var quantity *int64
	if tx.Quantity != nil {
		n := tx.Quantity.Int64()
		quantity = &n
	}
	var unitPrice *string
	if tx.UnitPrice != nil {
		s := tx.UnitPrice.Amount().String()
		unitPrice = &s
	}
	var profit *string
	if tx.Profit != nil {
		s := tx.Profit.Amount().String()
		profit = &s
	}

	_, err := l.pool.Exec(ctx,
		`INSERT INTO transactions (id, portfolio_id, type, ticker, quantity, unit_price, total_amount, currency, profit, created_at)
		 VALUES ($1::UUID, $2::UUID, $3, $4, $5, $6::NUMERIC, $7::NUMERIC, $8, $9::NUMERIC, $10)`,
		tx.ID.String(), tx.PortfolioID.String(), string(tx.Type),
		ticker, quantity, unitPrice,
		tx.TotalAmount.Amount().String(), tx.TotalAmount.Currency(), profit,
		tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}
	return nil
}

// ListByPortfolio selects the portfolio's transactions newest first.
func (l *PostgresTransactionLog) ListByPortfolio(ctx context.Context, id uuid.UUID, typ *domain.TransactionType, page, limit int) ([]*domain.Transaction, int, error) {
	args := []any{id.String()}
	filter := ""
	if typ != nil {
		filter = " AND type = $2"
		args = append(args, string(*typ))
	}

	var total int
	err := l.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE portfolio_id = $1::UUID`+filter,
		args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transactions for %s: %w", id, err)
	}

	offset := (page - 1) * limit
	pageArgs := append(args, limit, offset)
	rows, err := l.pool.Query(ctx,
		fmt.Sprintf(
			`SELECT id::TEXT, type, ticker, quantity, unit_price::TEXT, total_amount::TEXT, currency, profit::TEXT, created_at
			 FROM transactions WHERE portfolio_id = $1::UUID%s
			 ORDER BY created_at DESC, id DESC
			 LIMIT $%d OFFSET $%d`,
			filter, len(args)+1, len(args)+2),
		pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
	}
	defer rows.Close()

	txs := make([]*domain.Transaction, 0, limit)
	for rows.Next() {
		tx := &domain.Transaction{PortfolioID: id}
		var idStr, typStr, totalStr, currency string
		var ticker, priceStr, profitStr *string
		var quantity *int64
		if err := rows.Scan(&idStr, &typStr, &ticker, &quantity, &priceStr, &totalStr, &currency, &profitStr, &tx.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
		}
		if tx.ID, err = uuid.Parse(idStr); err != nil {
			return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
		}
		tx.Type = domain.TransactionType(typStr)
		if ticker != nil {
			t, err := domain.NewTicker(*ticker)
			if err != nil {
				return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
			}
			tx.Ticker = &t
		}
		if quantity != nil {
			q, err := domain.NewShareQuantity(*quantity)
			if err != nil {
				return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
			}
			tx.Quantity = &q
		}
		if priceStr != nil {
			d, err := decimal.NewFromString(*priceStr)
			if err != nil {
				return nil, 0, fmt.Errorf("list transactions for %s: bad unit price %q: %w", id, *priceStr, err)
			}
			p, err := domain.NewPrice(d, currency)
			if err != nil {
				return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
			}
			tx.UnitPrice = &p
		}
		totalDec, err := decimal.NewFromString(totalStr)
		if err != nil {
			return nil, 0, fmt.Errorf("list transactions for %s: bad total %q: %w", id, totalStr, err)
		}
		if tx.TotalAmount, err = domain.NewMoney(totalDec, currency); err != nil {
			return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
		}
		if profitStr != nil {
			profitDec, err := decimal.NewFromString(*profitStr)
			if err != nil {
				return nil, 0, fmt.Errorf("list transactions for %s: bad profit %q: %w", id, *profitStr, err)
			}
			profit := domain.NewSignedMoney(profitDec, currency)
			tx.Profit = &profit
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list transactions for %s: %w", id, err)
	}

	return txs, total, nil
}
