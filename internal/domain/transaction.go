package domain

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType identifies which portfolio operation a transaction
// records.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionPurchase   TransactionType = "purchase"
	TransactionSale       TransactionType = "sale"
)

// ValidTransactionTypes lists all transaction type values for
// request validation.
var ValidTransactionTypes = map[TransactionType]bool{
	TransactionDeposit:    true,
	TransactionWithdrawal: true,
	TransactionPurchase:   true,
	TransactionSale:       true,
}

// Transaction is an immutable record of one completed portfolio
// operation, appended to the transaction log after the mutation has
// been persisted. Ticker, Quantity, and UnitPrice are set only for
// purchases and sales; Profit only for sales. Transactions live outside
// the aggregate's consistency boundary and are never mutated or
// deleted.
type Transaction struct {
	ID          uuid.UUID
	PortfolioID uuid.UUID
	Type        TransactionType
	Ticker      *Ticker
	Quantity    *ShareQuantity
	UnitPrice   *Price
	TotalAmount Money
	Profit      *Money
	CreatedAt   time.Time
}

// NewDepositTransaction records a completed deposit.
func NewDepositTransaction(portfolioID uuid.UUID, amount Money) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        TransactionDeposit,
		TotalAmount: amount,
		CreatedAt:   time.Now(),
	}
}

// NewWithdrawalTransaction records a completed withdrawal.
func NewWithdrawalTransaction(portfolioID uuid.UUID, amount Money) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        TransactionWithdrawal,
		TotalAmount: amount,
		CreatedAt:   time.Now(),
	}
}

// NewPurchaseTransaction records a completed purchase of quantity
// shares of ticker at unitPrice.
func NewPurchaseTransaction(portfolioID uuid.UUID, ticker Ticker, quantity ShareQuantity, unitPrice Price) *Transaction {
	return &Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        TransactionPurchase,
		Ticker:      &ticker,
		Quantity:    &quantity,
		UnitPrice:   &unitPrice,
		TotalAmount: unitPrice.Times(quantity),
		CreatedAt:   time.Now(),
	}
}

// NewSaleTransaction records a completed sale, folding the SellResult's
// proceeds and profit into the transaction.
func NewSaleTransaction(portfolioID uuid.UUID, ticker Ticker, quantity ShareQuantity, unitPrice Price, result SellResult) *Transaction {
	profit := result.Profit
	return &Transaction{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Type:        TransactionSale,
		Ticker:      &ticker,
		Quantity:    &quantity,
		UnitPrice:   &unitPrice,
		TotalAmount: result.Proceeds,
		Profit:      &profit,
		CreatedAt:   time.Now(),
	}
}
