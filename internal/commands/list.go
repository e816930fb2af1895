package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/export"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newListCommand(envFile *string) *cobra.Command {
	var (
		customerID int
		limit      int
		xlsxPath   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a customer's most recent transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := middleware.WithRequestID(cmd.Context(), "cli-"+uuid.New().String())

			a, err := openApp(ctx, *envFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			txs, err := a.service.ListTransactions(ctx, customerID, limit)
			if err != nil {
				return fmt.Errorf("listing transactions: %w", err)
			}

			if xlsxPath != "" {
				if err := writeWorkbook(xlsxPath, customerID, txs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d transactions to %s\n", len(txs), xlsxPath)
				return nil
			}

			return printStatement(cmd.OutOrStdout(), txs)
		},
	}

	cmd.Flags().IntVar(&customerID, "customer", 0, "customer id (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of transactions (default: configured limit)")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the statement to this XLSX file instead of printing it")
	_ = cmd.MarkFlagRequired("customer")

	return cmd
}

func writeWorkbook(path string, customerID int, txs []entity.Transaction) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return export.WriteStatement(f, customerID, txs)
}

func printStatement(w io.Writer, txs []entity.Transaction) error {
	if len(txs) == 0 {
		_, err := fmt.Fprintln(w, "no transactions")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tDESCRIPTION\tCREATED AT\t")

	var balance int64
	for _, tx := range txs {
		balance += tx.SignedAmount()
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n",
			tx.ID, tx.Type, entity.FormatAmount(tx.SignedAmount()), tx.Description,
			tx.CreatedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "\t\t%s\tnet of listed\t\t\n", entity.FormatAmount(balance))

	return tw.Flush()
}
