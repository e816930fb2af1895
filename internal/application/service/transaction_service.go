package service

import (
	"context"
	"errors"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/domain/repository"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/events"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
)

// ErrNotRecorded is returned when the store executed the insert but wrote no row
var ErrNotRecorded = errors.New("transaction was not recorded")

// ErrReadBack is returned when the recorded row could not be found among the
// customer's most recent transactions
var ErrReadBack = errors.New("recorded transaction not found on read-back")

// readBackWindow bounds the rows scanned for the just-recorded transaction when
// insert and read-back do not share a snapshot
const readBackWindow = 20

// EventPublisher receives an event for every committed transaction
type EventPublisher interface {
	Publish(ctx context.Context, event events.TransactionRecorded) error
}

// TransactionService handles business logic for ledger transactions
type TransactionService struct {
	repo         repository.TransactionRepository
	transactor   db.Transactor
	defaultLimit int
	publisher    EventPublisher
	logger       logger.Logger
}

// NewTransactionService creates a new transaction service. transactor may be nil,
// in which case record-and-read-back runs as two independent store calls.
func NewTransactionService(repo repository.TransactionRepository, transactor db.Transactor, defaultLimit int) *TransactionService {
	if defaultLimit <= 0 || defaultLimit > db.DefaultListLimit {
		defaultLimit = db.DefaultListLimit
	}

	return &TransactionService{
		repo:         repo,
		transactor:   transactor,
		defaultLimit: defaultLimit,
		logger:       logger.GetDefaultLogger(),
	}
}

// WithPublisher announces recorded transactions on p. A failed publish is
// logged; the transaction stays recorded.
func (s *TransactionService) WithPublisher(p EventPublisher, log logger.Logger) *TransactionService {
	s.publisher = p
	if log != nil {
		s.logger = log
	}
	return s
}

// RecordTransaction validates and records a transaction, then returns it as stored
func (s *TransactionService) RecordTransaction(ctx context.Context, customerID int, amount int64, txType, description string) (*entity.Transaction, error) {
	tx := &entity.Transaction{
		CustomerID:  customerID,
		Amount:      amount,
		Type:        txType,
		Description: description,
	}

	// Validate
	if err := tx.Validate(); err != nil {
		return nil, err
	}

	var stored *entity.Transaction
	recordAndRead := func(session db.Session) error {
		ok, err := s.repo.RecordTransaction(ctx, tx, session)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotRecorded
		}

		// Inside a transaction the snapshot hides rows committed after the
		// insert, so the newest row is ours. Without one, concurrent inserts
		// for the same customer may land on top of it.
		window := 1
		if session == nil {
			window = readBackWindow
		}

		recent, err := s.repo.ListRecentTransactions(ctx, customerID, window, session)
		if err != nil {
			return err
		}
		for i := range recent {
			if sameContent(&recent[i], tx) {
				stored = &recent[i]
				return nil
			}
		}
		return ErrReadBack
	}

	var err error
	if s.transactor == nil {
		err = recordAndRead(nil)
	} else {
		err = s.transactor.WithinTx(ctx, recordAndRead)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, *stored)
	return stored, nil
}

// sameContent reports whether got carries the caller-supplied fields of want
func sameContent(got, want *entity.Transaction) bool {
	return got.CustomerID == want.CustomerID &&
		got.Amount == want.Amount &&
		got.Type == want.Type &&
		got.Description == want.Description
}

func (s *TransactionService) publish(ctx context.Context, tx entity.Transaction) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, events.NewTransactionRecorded(tx)); err != nil {
		s.logger.Warn("Failed to publish transaction event", map[string]interface{}{
			"transaction_id": tx.ID,
			"customer_id":    tx.CustomerID,
			"error":          err.Error(),
		})
	}
}

// ListTransactions returns the most recent transactions for a customer.
// A non-positive limit selects the configured default; limits above
// db.DefaultListLimit are capped.
func (s *TransactionService) ListTransactions(ctx context.Context, customerID, limit int) ([]entity.Transaction, error) {
	if customerID <= 0 {
		return nil, &entity.ValidationError{Field: "customer_id", Reason: "must be a positive integer"}
	}

	switch {
	case limit <= 0:
		limit = s.defaultLimit
	case limit > db.DefaultListLimit:
		limit = db.DefaultListLimit
	}

	return s.repo.ListRecentTransactions(ctx, customerID, limit, nil)
}
