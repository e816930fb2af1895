package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRecordCommand(envFile *string) *cobra.Command {
	var (
		customerID  int
		amount      int64
		txType      string
		description string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Append one transaction to a customer's ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := middleware.WithRequestID(cmd.Context(), "cli-"+uuid.New().String())

			a, err := openApp(ctx, *envFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			tx, err := a.service.RecordTransaction(ctx, customerID, amount, txType, description)
			if err != nil {
				return fmt.Errorf("recording transaction: %w", err)
			}

			printTransaction(cmd.OutOrStdout(), tx)
			return nil
		},
	}

	cmd.Flags().IntVar(&customerID, "customer", 0, "customer id (required)")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in minor units, e.g. cents (required)")
	cmd.Flags().StringVar(&txType, "type", entity.TypeCredit, "transaction type: credit or debit")
	cmd.Flags().StringVar(&description, "description", "", "short description (required)")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func printTransaction(w io.Writer, tx *entity.Transaction) {
	fmt.Fprintf(w, "recorded #%d customer=%d %s %s %q at %s\n",
		tx.ID, tx.CustomerID, tx.Type, entity.FormatAmount(tx.Amount), tx.Description,
		tx.CreatedAt.UTC().Format(time.RFC3339))
}
