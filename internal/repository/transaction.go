package repository

import (
	"context"

	"ridepay/internal/domain"
)

// TransactionRepository is the append-only ledger store.
// It exposes no update or delete operation.
type TransactionRepository interface {
	// Append writes a new transaction. Appending an ID that already exists is
	// a no-op, so a parked record can be re-appended safely.
	Append(ctx context.Context, txn *domain.Transaction) error

	// GetByID retrieves a transaction.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// List returns transactions matching filter, newest first.
	List(ctx context.Context, filter domain.TransactionFilter) ([]*domain.Transaction, error)
}
