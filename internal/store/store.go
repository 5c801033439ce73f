// Package store holds portfolio state and the transaction log behind
// narrow interfaces. Implementations include in-memory (default, and
// used throughout the tests) and PostgreSQL.
//
// The central contract is the exclusive lease: every mutation of a
// portfolio runs as acquire → mutate → commit (or rollback), and the
// repository guarantees that at most one lease per portfolio id exists
// at a time. The lease spans the entire load-mutate-persist sequence;
// concurrent requests for the same id block until it is released and
// then observe the committed state. Requests for different ids never
// contend.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/efolio/portfoliod/internal/domain"
)

// Lease is an exclusive hold on one portfolio. Exactly one of Commit
// or Rollback must be called; both release the lease, and only Commit
// persists the mutated aggregate. A lease is not safe for concurrent
// use and must not outlive the request that acquired it.
type Lease interface {
	// Portfolio returns the aggregate loaded under this lease. The
	// caller mutates it freely until Commit or Rollback.
	Portfolio() *domain.Portfolio

	// Commit persists the aggregate's current state and releases the
	// lease. The lease is released even if persistence fails.
	Commit(ctx context.Context) error

	// Rollback releases the lease without persisting. Safe to call
	// after Commit; it then does nothing.
	Rollback(ctx context.Context) error
}

// PortfolioRepository stores portfolio aggregates.
type PortfolioRepository interface {
	// Create persists a new portfolio.
	Create(ctx context.Context, p *domain.Portfolio) error

	// Get returns a read-only snapshot of the portfolio without
	// acquiring the lease. It returns domain.ErrPortfolioNotFound if
	// no such portfolio exists.
	Get(ctx context.Context, id uuid.UUID) (*domain.Portfolio, error)

	// AcquireExclusive blocks until the exclusive lease for id can be
	// obtained, then loads the portfolio under it. It returns
	// domain.ErrPortfolioNotFound if no such portfolio exists, and the
	// context's error if ctx is done before the lease is obtained.
	AcquireExclusive(ctx context.Context, id uuid.UUID) (Lease, error)
}

// TransactionLog is the append-only record of completed operations.
// It lives outside the portfolio aggregate's consistency boundary.
type TransactionLog interface {
	// Append records a completed operation.
	Append(ctx context.Context, tx *domain.Transaction) error

	// ListByPortfolio returns the portfolio's transactions newest
	// first. If typ is non-nil only transactions of that type are
	// included. Pagination is 1-based; the second return value is the
	// total count of matching transactions before pagination.
	ListByPortfolio(ctx context.Context, id uuid.UUID, typ *domain.TransactionType, page, limit int) ([]*domain.Transaction, int, error)
}
