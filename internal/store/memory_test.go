package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/efolio/portfoliod/internal/domain"
)

func newTestPortfolio(t *testing.T, owner string, balance int64) *domain.Portfolio {
	t.Helper()
	p := domain.NewPortfolio(owner, "USD")
	if balance > 0 {
		m, err := domain.NewMoney(decimal.NewFromInt(balance), "USD")
		if err != nil {
			t.Fatalf("NewMoney: %v", err)
		}
		if err := p.Deposit(m); err != nil {
			t.Fatalf("Deposit: %v", err)
		}
	}
	return p
}

func TestMemoryRepository_CreateGet(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	p := newTestPortfolio(t, "alice", 1000)

	if err := r.Create(ctx, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create(ctx, p); err == nil {
		t.Fatal("duplicate Create expected error")
	}

	got, err := r.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != p.ID || got.OwnerName != "alice" {
		t.Fatalf("Get returned wrong portfolio: %s/%s", got.ID, got.OwnerName)
	}

	_, err = r.Get(ctx, uuid.New())
	if !errors.Is(err, domain.ErrPortfolioNotFound) {
		t.Fatalf("Get of unknown id expected ErrPortfolioNotFound, got %v", err)
	}
}

func TestMemoryRepository_GetReturnsSnapshot(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	p := newTestPortfolio(t, "alice", 1000)
	_ = r.Create(ctx, p)

	snap, _ := r.Get(ctx, p.ID)
	m, _ := domain.NewMoney(decimal.NewFromInt(500), "USD")
	if err := snap.Withdraw(m); err != nil {
		t.Fatalf("Withdraw on snapshot: %v", err)
	}

	stored, _ := r.Get(ctx, p.ID)
	if stored.Balance.String() != "1000.00 USD" {
		t.Fatalf("mutating a snapshot leaked into stored state: %s", stored.Balance)
	}
}

func TestMemoryRepository_AcquireUnknownPortfolio(t *testing.T) {
	r := NewMemoryRepository()

	_, err := r.AcquireExclusive(context.Background(), uuid.New())
	if !errors.Is(err, domain.ErrPortfolioNotFound) {
		t.Fatalf("expected ErrPortfolioNotFound, got %v", err)
	}
}

func TestMemoryRepository_CommitPersistsRollbackDiscards(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	p := newTestPortfolio(t, "alice", 1000)
	_ = r.Create(ctx, p)

	m, _ := domain.NewMoney(decimal.NewFromInt(700), "USD")

	// Committed mutation is visible afterwards.
	lease, err := r.AcquireExclusive(ctx, p.ID)
	if err != nil {
		t.Fatalf("AcquireExclusive: %v", err)
	}
	if err := lease.Portfolio().Withdraw(m); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if err := lease.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	got, _ := r.Get(ctx, p.ID)
	if got.Balance.String() != "300.00 USD" {
		t.Fatalf("balance after commit = %s, want 300.00 USD", got.Balance)
	}

	// Rolled-back mutation is discarded.
	lease, err = r.AcquireExclusive(ctx, p.ID)
	if err != nil {
		t.Fatalf("AcquireExclusive: %v", err)
	}
	hundred, _ := domain.NewMoney(decimal.NewFromInt(100), "USD")
	if err := lease.Portfolio().Withdraw(hundred); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if err := lease.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}
	got, _ = r.Get(ctx, p.ID)
	if got.Balance.String() != "300.00 USD" {
		t.Fatalf("balance after rollback = %s, want 300.00 USD", got.Balance)
	}
}

func TestMemoryRepository_LeaseBlocksSecondAcquirer(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	p := newTestPortfolio(t, "alice", 1000)
	_ = r.Create(ctx, p)

	lease, err := r.AcquireExclusive(ctx, p.ID)
	if err != nil {
		t.Fatalf("AcquireExclusive: %v", err)
	}

	// A second acquisition must not complete while the lease is held.
	shortCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if _, err := r.AcquireExclusive(shortCtx, p.ID); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire expected DeadlineExceeded, got %v", err)
	}

	// After release it succeeds and observes committed state.
	m, _ := domain.NewMoney(decimal.NewFromInt(250), "USD")
	_ = lease.Portfolio().Withdraw(m)
	if err := lease.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	lease2, err := r.AcquireExclusive(ctx, p.ID)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	defer func() { _ = lease2.Rollback(ctx) }()
	if lease2.Portfolio().Balance.String() != "750.00 USD" {
		t.Fatalf("second lease observed %s, want 750.00 USD", lease2.Portfolio().Balance)
	}
}

func TestMemoryRepository_LeasesOnDifferentIDsDoNotContend(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	a := newTestPortfolio(t, "alice", 100)
	b := newTestPortfolio(t, "bob", 100)
	_ = r.Create(ctx, a)
	_ = r.Create(ctx, b)

	leaseA, err := r.AcquireExclusive(ctx, a.ID)
	if err != nil {
		t.Fatalf("acquire a: %v", err)
	}
	defer func() { _ = leaseA.Rollback(ctx) }()

	// Holding a's lease must not block b's.
	shortCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	leaseB, err := r.AcquireExclusive(shortCtx, b.ID)
	if err != nil {
		t.Fatalf("acquire b while a held: %v", err)
	}
	_ = leaseB.Rollback(ctx)
}

// TestMemoryRepository_SerializedWithdrawals races many withdrawing
// goroutines through the lease, released by a shared start gate. The
// lease serializes them, so the final balance is exactly the initial
// amount minus the successful withdrawals.
func TestMemoryRepository_SerializedWithdrawals(t *testing.T) {
	r := NewMemoryRepository()
	ctx := context.Background()
	p := newTestPortfolio(t, "alice", 1000)
	_ = r.Create(ctx, p)

	const workers = 10
	amount, _ := domain.NewMoney(decimal.NewFromInt(300), "USD")

	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			lease, err := r.AcquireExclusive(ctx, p.ID)
			if err != nil {
				errs[i] = fmt.Errorf("acquire: %w", err)
				return
			}
			if err := lease.Portfolio().Withdraw(amount); err != nil {
				errs[i] = err
				_ = lease.Rollback(ctx)
				return
			}
			errs[i] = lease.Commit(ctx)
		}(i)
	}

	close(start)
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrInsufficientFunds):
		default:
			t.Fatalf("worker %d unexpected error: %v", i, err)
		}
	}

	// 1000 / 300 → exactly 3 withdrawals fit.
	if succeeded != 3 {
		t.Fatalf("succeeded = %d, want 3", succeeded)
	}
	got, _ := r.Get(ctx, p.ID)
	if got.Balance.String() != "100.00 USD" {
		t.Fatalf("final balance = %s, want 100.00 USD", got.Balance)
	}
}
