// Package events publishes ledger events to Kafka.
package events

import (
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// DefaultTopic receives TransactionRecorded events unless configured otherwise
const DefaultTopic = "ledger.transaction_recorded"

// TransactionRecorded is emitted once a transaction has been committed
type TransactionRecorded struct {
	TransactionID int64           `json:"transaction_id"`
	CustomerID    int             `json:"customer_id"`
	Type          string          `json:"type"`
	AmountMinor   int64           `json:"amount_minor"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// NewTransactionRecorded builds the event for a stored transaction
func NewTransactionRecorded(tx entity.Transaction) TransactionRecorded {
	return TransactionRecorded{
		TransactionID: tx.ID,
		CustomerID:    tx.CustomerID,
		Type:          tx.Type,
		AmountMinor:   tx.Amount,
		Amount:        decimal.New(tx.SignedAmount(), -2),
		Description:   tx.Description,
		OccurredAt:    tx.CreatedAt.UTC(),
	}
}
