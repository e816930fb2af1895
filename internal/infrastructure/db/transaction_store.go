package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
)

// DefaultListLimit bounds list results when the caller has no explicit limit
const DefaultListLimit = 1000

// TransactionStore persists ledger transactions through a connection provider.
// It holds no mutable state; concurrent calls each clone their own command and
// use their own session.
type TransactionStore struct {
	provider ConnectionProvider
	tracer   Tracer
	logger   logger.Logger
}

// NewTransactionStore creates a transaction store. A nil tracer disables tracing
// and a nil logger falls back to the default logger.
func NewTransactionStore(provider ConnectionProvider, tracer Tracer, log logger.Logger) *TransactionStore {
	if tracer == nil {
		tracer = NoopTracer{}
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &TransactionStore{
		provider: provider,
		tracer:   tracer,
		logger:   log.WithField("component", "transaction_store"),
	}
}

// ListRecentTransactions returns up to limit transactions for the customer ordered
// by id descending. A customer with no transactions yields an empty slice.
func (s *TransactionStore) ListRecentTransactions(ctx context.Context, customerID, limit int, session Session) (txs []entity.Transaction, err error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.ListRecentTransactions")
	defer func() { span.End(err) }()

	cmd := ListRecentCommand.Clone()
	if err := bind(cmd, customerID, limit); err != nil {
		return nil, err
	}

	err = s.withSession(ctx, session, func(sess Session) error {
		rows, err := sess.Query(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w: %w", cmd.Name(), ErrQuery, err)
		}
		defer rows.Close()

		txs = make([]entity.Transaction, 0)
		for rows.Next() {
			var tx entity.Transaction
			if err := rows.Scan(&tx.ID, &tx.CustomerID, &tx.Amount, &tx.Type, &tx.Description, &tx.CreatedAt); err != nil {
				return fmt.Errorf("failed to map %s row: %w: %w", cmd.Name(), ErrMapping, err)
			}
			txs = append(txs, tx)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to read %s rows: %w: %w", cmd.Name(), ErrQuery, err)
		}
		return nil
	})
	if err != nil {
		s.logFailure("List recent transactions failed", err, map[string]interface{}{
			"customer_id": customerID,
			"limit":       limit,
		})
		return nil, err
	}

	s.logger.Debug("Listed recent transactions", map[string]interface{}{
		"customer_id": customerID,
		"limit":       limit,
		"count":       len(txs),
	})

	return txs, nil
}

// RecordTransaction appends the transaction to the ledger. ID and CreatedAt are
// assigned by the backing store. It returns true only if exactly one row was written.
func (s *TransactionStore) RecordTransaction(ctx context.Context, tx *entity.Transaction, session Session) (ok bool, err error) {
	ctx, span := s.tracer.Start(ctx, "TransactionStore.RecordTransaction")
	defer func() { span.End(err) }()

	if tx == nil {
		return false, fmt.Errorf("failed to bind %s: %w: transaction is nil", InsertTransactionCommandName, ErrQuery)
	}

	cmd := InsertTransactionCommand.Clone()
	if err := bind(cmd, tx.CustomerID, tx.Amount, tx.Type, tx.Description); err != nil {
		return false, err
	}

	var affected int64
	err = s.withSession(ctx, session, func(sess Session) error {
		n, err := sess.Exec(ctx, cmd)
		if err != nil {
			return fmt.Errorf("failed to execute %s: %w: %w", cmd.Name(), ErrQuery, err)
		}
		affected = n
		return nil
	})
	if err != nil {
		s.logFailure("Record transaction failed", err, map[string]interface{}{
			"customer_id": tx.CustomerID,
			"type":        tx.Type,
		})
		return false, err
	}

	if affected != 1 {
		s.logger.Warn("Record transaction affected unexpected row count", map[string]interface{}{
			"customer_id": tx.CustomerID,
			"affected":    affected,
		})
		return false, nil
	}

	s.logger.Debug("Recorded transaction", map[string]interface{}{
		"customer_id": tx.CustomerID,
		"amount":      tx.Amount,
		"type":        tx.Type,
	})

	return true, nil
}

// withSession runs fn on the borrowed session, or on a connection acquired for
// this call only and released on every path.
func (s *TransactionStore) withSession(ctx context.Context, session Session, fn func(Session) error) error {
	if session != nil {
		return fn(session)
	}

	conn, err := s.provider.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrConnection) {
			return err
		}
		return fmt.Errorf("failed to acquire connection: %w: %w", ErrConnection, err)
	}

	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.Warn("Failed to release connection", map[string]interface{}{
				"error": cerr.Error(),
			})
		}
	}()

	return fn(conn)
}

func (s *TransactionStore) logFailure(msg string, err error, fields map[string]interface{}) {
	fields["error"] = err.Error()
	switch {
	case errors.Is(err, ErrConnection):
		fields["category"] = "connection"
	case errors.Is(err, ErrMapping):
		fields["category"] = "mapping"
	default:
		fields["category"] = "query"
	}
	s.logger.Error(msg, fields)
}

func bind(cmd *Command, values ...any) error {
	for i, v := range values {
		if err := cmd.Bind(i, v); err != nil {
			return fmt.Errorf("failed to bind %s: %w: %w", cmd.Name(), ErrQuery, err)
		}
	}
	return nil
}
