package store

import (
	"context"
	"sync"

	"github.com/google/btree"
	"github.com/google/uuid"

	"github.com/efolio/portfoliod/internal/domain"
)

// txEntry is one transaction resting in the per-portfolio B-tree,
// ordered by creation time with a sequence number breaking ties so two
// operations committed in the same instant keep their append order.
type txEntry struct {
	seq uint64
	tx  *domain.Transaction
}

func txLess(a, b txEntry) bool {
	if !a.tx.CreatedAt.Equal(b.tx.CreatedAt) {
		return a.tx.CreatedAt.Before(b.tx.CreatedAt)
	}
	return a.seq < b.seq
}

// MemoryTransactionLog is an in-memory TransactionLog keeping one
// B-tree per portfolio, ordered chronologically.
type MemoryTransactionLog struct {
	mu      sync.RWMutex
	byOwner map[uuid.UUID]*btree.BTreeG[txEntry]
	nextSeq uint64
}

// NewMemoryTransactionLog creates an empty MemoryTransactionLog.
func NewMemoryTransactionLog() *MemoryTransactionLog {
	return &MemoryTransactionLog{
		byOwner: make(map[uuid.UUID]*btree.BTreeG[txEntry]),
	}
}

// Append adds a transaction to its portfolio's tree.
func (l *MemoryTransactionLog) Append(_ context.Context, tx *domain.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	tree, ok := l.byOwner[tx.PortfolioID]
	if !ok {
		const degree = 32
		tree = btree.NewG[txEntry](degree, txLess)
		l.byOwner[tx.PortfolioID] = tree
	}
	l.nextSeq++
	tree.ReplaceOrInsert(txEntry{seq: l.nextSeq, tx: tx})
	return nil
}

// ListByPortfolio walks the portfolio's tree newest first, filtering by
// type when requested, and paginates the result.
func (l *MemoryTransactionLog) ListByPortfolio(_ context.Context, id uuid.UUID, typ *domain.TransactionType, page, limit int) ([]*domain.Transaction, int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	tree, ok := l.byOwner[id]
	if !ok {
		return []*domain.Transaction{}, 0, nil
	}

	filtered := make([]*domain.Transaction, 0, tree.Len())
	tree.Descend(func(e txEntry) bool {
		if typ != nil && e.tx.Type != *typ {
			return true
		}
		filtered = append(filtered, e.tx)
		return true
	})

	total := len(filtered)

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Transaction{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}

	return filtered[start:end], total, nil
}
