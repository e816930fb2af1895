package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{CustomerID: 42, Amount: 100, Type: TypeCredit, Description: "deposit"}

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
		field  string
	}{
		{"valid credit", func(tx *Transaction) {}, ""},
		{"valid debit", func(tx *Transaction) { tx.Type = TypeDebit }, ""},
		{"zero customer", func(tx *Transaction) { tx.CustomerID = 0 }, "customer_id"},
		{"negative amount", func(tx *Transaction) { tx.Amount = -5 }, "amount"},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, "amount"},
		{"unknown type", func(tx *Transaction) { tx.Type = "refund" }, "type"},
		{"empty description", func(tx *Transaction) { tx.Description = "" }, "description"},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", MaxDescriptionLength+1) }, "description"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)

			err := tx.Validate()
			if tc.field == "" {
				assert.NoError(t, err)
				return
			}

			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tc.field, verr.Field)
			}
		})
	}
}

func TestSignedAmount(t *testing.T) {
	credit := Transaction{Amount: 100, Type: TypeCredit}
	debit := Transaction{Amount: 50, Type: TypeDebit}

	assert.Equal(t, int64(100), credit.SignedAmount())
	assert.Equal(t, int64(-50), debit.SignedAmount())
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "10.50", FormatAmount(1050))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "-2.50", FormatAmount(-250))
	assert.Equal(t, "0.00", FormatAmount(0))
}
