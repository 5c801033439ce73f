package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

// Schema creates the portfolio tables. Monetary values are stored as
// NUMERIC for exact decimal precision; lots carry their position within
// the holding so the FIFO order survives a round-trip.
const Schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	id         UUID PRIMARY KEY,
	owner_name TEXT NOT NULL,
	balance    NUMERIC NOT NULL CHECK (balance >= 0),
	currency   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	id           UUID PRIMARY KEY,
	portfolio_id UUID NOT NULL REFERENCES portfolios (id),
	ticker       TEXT NOT NULL,
	UNIQUE (portfolio_id, ticker)
);

CREATE TABLE IF NOT EXISTS lots (
	id               UUID PRIMARY KEY,
	holding_id       UUID NOT NULL REFERENCES holdings (id),
	position         INT NOT NULL,
	initial_quantity BIGINT NOT NULL,
	remaining        BIGINT NOT NULL CHECK (remaining >= 0 AND remaining <= initial_quantity),
	unit_price       NUMERIC NOT NULL,
	purchased_at     TIMESTAMPTZ NOT NULL,
	UNIQUE (holding_id, position)
);

CREATE TABLE IF NOT EXISTS transactions (
	id           UUID PRIMARY KEY,
	portfolio_id UUID NOT NULL REFERENCES portfolios (id),
	type         TEXT NOT NULL,
	ticker       TEXT,
	quantity     BIGINT,
	unit_price   NUMERIC,
	total_amount NUMERIC NOT NULL,
	currency     TEXT NOT NULL,
	profit       NUMERIC,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS transactions_portfolio_created_idx
	ON transactions (portfolio_id, created_at DESC);
`

// pgQuerier is the subset of pgx shared by pgxpool.Pool and pgx.Tx, so
// the load helpers work both with and without an open transaction.
type pgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresRepository is a PortfolioRepository backed by PostgreSQL.
// The exclusive lease is a row lock: AcquireExclusive opens a
// transaction and selects the portfolio row FOR UPDATE, so concurrent
// requests for the same id queue inside the database until Commit or
// Rollback ends the transaction.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a repository on the given pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the tables if they don't exist.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, Schema)
	return err
}

// Create persists a new portfolio row. Holdings and lots are written by
// the first committed mutation.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Portfolio) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolios (id, owner_name, balance, currency, created_at)
		 VALUES ($1::UUID, $2, $3::NUMERIC, $4, $5)`,
		p.ID.String(), p.OwnerName, p.Balance.Amount().String(), p.Currency(), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create portfolio %s: %w", p.ID, err)
	}
	return nil
}

// Get loads a snapshot without locking the row.
func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	return loadPortfolio(ctx, r.pool, id, false)
}

// AcquireExclusive opens a transaction, locks the portfolio row, and
// loads the aggregate under the lock.
func (r *PostgresRepository) AcquireExclusive(ctx context.Context, id uuid.UUID) (Lease, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin lease for portfolio %s: %w", id, err)
	}

	p, err := loadPortfolio(ctx, tx, id, true)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, err
	}

	return &postgresLease{tx: tx, portfolio: p}, nil
}

type postgresLease struct {
	tx        pgx.Tx
	portfolio *domain.Portfolio
	done      bool
}

func (l *postgresLease) Portfolio() *domain.Portfolio { return l.portfolio }

func (l *postgresLease) Commit(ctx context.Context) error {
	if l.done {
		return fmt.Errorf("lease for portfolio %s already released", l.portfolio.ID)
	}
	l.done = true

	if err := savePortfolio(ctx, l.tx, l.portfolio); err != nil {
		_ = l.tx.Rollback(ctx)
		return err
	}
	if err := l.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit portfolio %s: %w", l.portfolio.ID, err)
	}
	return nil
}

func (l *postgresLease) Rollback(ctx context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	return l.tx.Rollback(ctx)
}

func loadPortfolio(ctx context.Context, q pgQuerier, id uuid.UUID, forUpdate bool) (*domain.Portfolio, error) {
	query := `SELECT owner_name, balance::TEXT, currency, created_at
	          FROM portfolios WHERE id = $1::UUID`
	if forUpdate {
		query += " FOR UPDATE"
	}

	p := &domain.Portfolio{ID: id, Holdings: make(map[domain.Ticker]*domain.Holding)}
	var balanceStr, currency string
	err := q.QueryRow(ctx, query, id.String()).
		Scan(&p.OwnerName, &balanceStr, &currency, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load portfolio %s: %w", id, err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("load portfolio %s: bad balance %q: %w", id, balanceStr, err)
	}
	p.Balance, err = domain.NewMoney(balance, currency)
	if err != nil {
		return nil, fmt.Errorf("load portfolio %s: %w", id, err)
	}

	holdingsByID := make(map[uuid.UUID]*domain.Holding)
	rows, err := q.Query(ctx,
		`SELECT id::TEXT, ticker FROM holdings WHERE portfolio_id = $1::UUID`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("load holdings for %s: %w", id, err)
	}
	defer rows.Close()
	for rows.Next() {
		var idStr, symbol string
		if err := rows.Scan(&idStr, &symbol); err != nil {
			return nil, fmt.Errorf("load holdings for %s: %w", id, err)
		}
		holdingID, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("load holdings for %s: %w", id, err)
		}
		ticker, err := domain.NewTicker(symbol)
		if err != nil {
			return nil, fmt.Errorf("load holdings for %s: %w", id, err)
		}
		h := &domain.Holding{ID: holdingID, Ticker: ticker, Lots: []*domain.Lot{}}
		holdingsByID[holdingID] = h
		p.Holdings[ticker] = h
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load holdings for %s: %w", id, err)
	}

	lotRows, err := q.Query(ctx,
		`SELECT l.id::TEXT, l.holding_id::TEXT, l.initial_quantity, l.remaining,
		        l.unit_price::TEXT, l.purchased_at
		 FROM lots l
		 JOIN holdings h ON h.id = l.holding_id
		 WHERE h.portfolio_id = $1::UUID
		 ORDER BY l.holding_id, l.position`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("load lots for %s: %w", id, err)
	}
	defer lotRows.Close()
	for lotRows.Next() {
		lot := &domain.Lot{}
		var lotIDStr, holdingIDStr, priceStr string
		var initial, remaining int64
		if err := lotRows.Scan(&lotIDStr, &holdingIDStr, &initial, &remaining, &priceStr, &lot.PurchasedAt); err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		if lot.ID, err = uuid.Parse(lotIDStr); err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		holdingID, err := uuid.Parse(holdingIDStr)
		if err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		h, ok := holdingsByID[holdingID]
		if !ok {
			return nil, fmt.Errorf("load lots for %s: lot %s references unknown holding %s", id, lot.ID, holdingID)
		}
		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			return nil, fmt.Errorf("load lots for %s: bad unit price %q: %w", id, priceStr, err)
		}
		if lot.UnitPrice, err = domain.NewPrice(price, currency); err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		if lot.Initial, err = domain.NewShareQuantity(initial); err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		if lot.Remaining, err = domain.NewShareQuantity(remaining); err != nil {
			return nil, fmt.Errorf("load lots for %s: %w", id, err)
		}
		h.Lots = append(h.Lots, lot)
	}
	if err := lotRows.Err(); err != nil {
		return nil, fmt.Errorf("load lots for %s: %w", id, err)
	}

	return p, nil
}

// savePortfolio writes the aggregate's full current state inside the
// lease's transaction. Holdings and lots are insert-only apart from a
// lot's shrinking remaining count, so upserts cover every mutation the
// aggregate can produce.
func savePortfolio(ctx context.Context, tx pgx.Tx, p *domain.Portfolio) error {
	_, err := tx.Exec(ctx,
		`UPDATE portfolios SET balance = $2::NUMERIC WHERE id = $1::UUID`,
		p.ID.String(), p.Balance.Amount().String())
	if err != nil {
		return fmt.Errorf("save portfolio %s: %w", p.ID, err)
	}

	for _, h := range p.Holdings {
		_, err := tx.Exec(ctx,
			`INSERT INTO holdings (id, portfolio_id, ticker)
			 VALUES ($1::UUID, $2::UUID, $3)
			 ON CONFLICT (id) DO NOTHING`,
			h.ID.String(), p.ID.String(), h.Ticker.String())
		if err != nil {
			return fmt.Errorf("save holding %s: %w", h.ID, err)
		}
		for i, lot := range h.Lots {
			_, err := tx.Exec(ctx,
				`INSERT INTO lots (id, holding_id, position, initial_quantity, remaining, unit_price, purchased_at)
				 VALUES ($1::UUID, $2::UUID, $3, $4, $5, $6::NUMERIC, $7)
				 ON CONFLICT (id) DO UPDATE SET remaining = EXCLUDED.remaining`,
				lot.ID.String(), h.ID.String(), i,
				lot.Initial.Int64(), lot.Remaining.Int64(),
				lot.UnitPrice.Amount().String(), lot.PurchasedAt)
			if err != nil {
				return fmt.Errorf("save lot %s: %w", lot.ID, err)
			}
		}
	}
	return nil
}
