// Package export renders customer statements as spreadsheets.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the statement rows
const SheetName = "Transactions"

// ContentType is the MIME type of the rendered workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// moneyFormat is the built-in "0.00" number format
const moneyFormat = 2

const (
	creditColumn = 5
	debitColumn  = 6
)

var headers = []string{"Transaction ID", "Created At", "Type", "Description", "Credit", "Debit"}

// Filename returns the suggested download name for a customer's statement
func Filename(customerID int) string {
	return fmt.Sprintf("customer_%d_transactions.xlsx", customerID)
}

// WriteStatement writes txs, in the order given, as an XLSX workbook to w.
// The last row holds the credit and debit totals of the listed rows.
func WriteStatement(w io.Writer, customerID int, txs []entity.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   fmt.Sprintf("Customer %d statement", customerID),
		Created: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		return fmt.Errorf("failed to set document properties: %w", err)
	}

	if err := setRow(f, 1, toCells(headers)); err != nil {
		return err
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: moneyFormat})
	if err != nil {
		return fmt.Errorf("failed to create money style: %w", err)
	}

	var credits, debits decimal.Decimal
	for i, tx := range txs {
		row := i + 2
		if err := setRow(f, row, []interface{}{tx.ID, tx.CreatedAt.UTC().Format(time.RFC3339), tx.Type, tx.Description}); err != nil {
			return err
		}

		amount := decimal.New(tx.Amount, -2)
		col := creditColumn
		if tx.Type == entity.TypeDebit {
			col = debitColumn
			debits = debits.Add(amount)
		} else {
			credits = credits.Add(amount)
		}
		if err := setMoney(f, col, row, amount, money); err != nil {
			return err
		}
	}

	totalRow := len(txs) + 2
	if err := setRow(f, totalRow, []interface{}{"Total"}); err != nil {
		return err
	}
	if err := setMoney(f, creditColumn, totalRow, credits, money); err != nil {
		return err
	}
	if err := setMoney(f, debitColumn, totalRow, debits, money); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// setMoney writes amount as an exact numeric literal rather than a float64
func setMoney(f *excelize.File, col, row int, amount decimal.Decimal, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellDefault(SheetName, cell, amount.StringFixed(2)); err != nil {
		return fmt.Errorf("failed to write %s: %w", cell, err)
	}
	return f.SetCellStyle(SheetName, cell, cell, style)
}

func toCells(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}
