package handler

import (
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
)

// RecordTransactionRequest represents the request body for recording a transaction
type RecordTransactionRequest struct {
	Amount      int64  `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// TransactionResponse represents one ledger entry in API responses
type TransactionResponse struct {
	ID            int64  `json:"id"`
	CustomerID    int    `json:"customer_id"`
	Amount        int64  `json:"amount"`
	AmountDisplay string `json:"amount_display"`
	Type          string `json:"type"`
	Description   string `json:"description"`
	CreatedAt     string `json:"created_at"`
}

// StatementResponse represents the response for the list endpoint
type StatementResponse struct {
	CustomerID   int                   `json:"customer_id"`
	Count        int                   `json:"count"`
	Transactions []TransactionResponse `json:"transactions"`
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description"`
	RequestID   string `json:"request_id"`
}

func newTransactionResponse(tx entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:            tx.ID,
		CustomerID:    tx.CustomerID,
		Amount:        tx.Amount,
		AmountDisplay: entity.FormatAmount(tx.Amount),
		Type:          tx.Type,
		Description:   tx.Description,
		CreatedAt:     tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
