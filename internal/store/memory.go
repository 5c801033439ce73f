package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/efolio/portfoliod/internal/domain"
)

// MemoryRepository is an in-memory PortfolioRepository. Each portfolio
// carries a one-slot semaphore that serves as its exclusive lease:
// acquiring the lease is a channel send, so waiters queue without
// spinning and acquisition honors context cancellation.
//
// Leases hand out a deep copy of the stored aggregate and write it
// back on Commit, so a rolled-back mutation never leaks into stored
// state.
type MemoryRepository struct {
	mu         sync.RWMutex
	portfolios map[uuid.UUID]*memoryEntry
}

type memoryEntry struct {
	sem       chan struct{} // cap 1: held token = active lease
	portfolio *domain.Portfolio
}

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		portfolios: make(map[uuid.UUID]*memoryEntry),
	}
}

// Create adds a portfolio to the repository.
func (r *MemoryRepository) Create(_ context.Context, p *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.portfolios[p.ID]; exists {
		return fmt.Errorf("portfolio %s already exists", p.ID)
	}
	r.portfolios[p.ID] = &memoryEntry{
		sem:       make(chan struct{}, 1),
		portfolio: p.Clone(),
	}
	return nil
}

// Get returns a snapshot of the portfolio without acquiring the lease.
func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*domain.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.portfolios[id]
	if !ok {
		return nil, domain.ErrPortfolioNotFound
	}
	return e.portfolio.Clone(), nil
}

// AcquireExclusive blocks until the portfolio's lease is free, then
// loads a working copy under it.
func (r *MemoryRepository) AcquireExclusive(ctx context.Context, id uuid.UUID) (Lease, error) {
	r.mu.RLock()
	e, ok := r.portfolios[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrPortfolioNotFound
	}

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// The stored pointer is only swapped while the lease is held, so
	// reading it here needs no extra locking beyond the semaphore.
	return &memoryLease{repo: r, entry: e, working: e.portfolio.Clone()}, nil
}

type memoryLease struct {
	repo    *MemoryRepository
	entry   *memoryEntry
	working *domain.Portfolio
	done    bool
}

func (l *memoryLease) Portfolio() *domain.Portfolio { return l.working }

func (l *memoryLease) Commit(_ context.Context) error {
	if l.done {
		return fmt.Errorf("lease for portfolio %s already released", l.working.ID)
	}
	l.done = true

	l.repo.mu.Lock()
	l.entry.portfolio = l.working.Clone()
	l.repo.mu.Unlock()

	<-l.entry.sem
	return nil
}

func (l *memoryLease) Rollback(_ context.Context) error {
	if l.done {
		return nil
	}
	l.done = true
	<-l.entry.sem
	return nil
}
