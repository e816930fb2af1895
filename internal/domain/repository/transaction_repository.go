// Package repository internal/domain/repository/transaction_repository.go
package repository

import (
	"context"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
)

// TransactionRepository defines the interface for ledger persistence.
// A nil session means the repository acquires and releases its own connection.
type TransactionRepository interface {
	// ListRecentTransactions returns up to limit transactions for a customer, most recent first
	ListRecentTransactions(ctx context.Context, customerID, limit int, session db.Session) ([]entity.Transaction, error)

	// RecordTransaction appends a transaction and reports whether exactly one row was written
	RecordTransaction(ctx context.Context, tx *entity.Transaction, session db.Session) (bool, error)
}

var _ TransactionRepository = (*db.TransactionStore)(nil)
