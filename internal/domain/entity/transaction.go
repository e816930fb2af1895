package entity

import (
	"fmt"
	"time"
)

// Transaction types
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// Schema bounds for the ledger columns
const (
	MaxTypeLength        = 10
	MaxDescriptionLength = 50
)

// Transaction represents a single ledger entry for a customer account.
// ID and CreatedAt are assigned by the backing store at insert time.
type Transaction struct {
	ID          int64     `json:"id"`
	CustomerID  int       `json:"customer_id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ValidationError reports a transaction field that breaks a business rule
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate ensures the transaction meets all requirements before it is recorded
func (t *Transaction) Validate() error {
	if t.CustomerID <= 0 {
		return &ValidationError{Field: "customer_id", Reason: "must be a positive integer"}
	}

	if t.Amount <= 0 {
		return &ValidationError{Field: "amount", Reason: "must be a positive number of minor units"}
	}

	if t.Type != TypeCredit && t.Type != TypeDebit {
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("must be %q or %q", TypeCredit, TypeDebit)}
	}

	if t.Description == "" {
		return &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	if len(t.Description) > MaxDescriptionLength {
		return &ValidationError{
			Field:  "description",
			Reason: fmt.Sprintf("must not exceed %d characters", MaxDescriptionLength),
		}
	}

	return nil
}

// SignedAmount returns the amount with the sign implied by the transaction type
func (t *Transaction) SignedAmount() int64 {
	if t.Type == TypeDebit {
		return -t.Amount
	}
	return t.Amount
}
