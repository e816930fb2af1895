package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/events"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/damon-houk/ledger-transaction-store/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRecordTransaction(t *testing.T) {
	ctx := context.Background()
	stored := entity.Transaction{
		ID: 17, CustomerID: 42, Amount: 100, Type: "credit", Description: "deposit", CreatedAt: time.Now(),
	}

	t.Run("Valid transaction", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)

		// Mock expectations
		repo.On("RecordTransaction", ctx, mock.MatchedBy(func(tx *entity.Transaction) bool {
			return tx.CustomerID == 42 && tx.Amount == 100 && tx.Type == "credit" && tx.Description == "deposit"
		}), nil).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, readBackWindow, nil).Return([]entity.Transaction{stored}, nil).Once()

		// Execute
		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		// Assert
		assert.NoError(t, err)
		assert.Equal(t, &stored, got)
		repo.AssertExpectations(t)
	})

	t.Run("Shares one session when transactional", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		transactor := new(mocks.MockTransactorProvider)
		session := new(mocks.MockSession)
		service := NewTransactionService(repo, transactor, 0)

		transactor.On("WithinTx", ctx, mock.Anything).Return(session, nil).Once()
		repo.On("RecordTransaction", ctx, mock.Anything, session).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, 1, session).Return([]entity.Transaction{stored}, nil).Once()

		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.NoError(t, err)
		assert.Equal(t, int64(17), got.ID)
		transactor.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("Concurrent insert committed before read-back", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		publisher := new(mocks.MockEventPublisher)
		service := NewTransactionService(repo, nil, 0).WithPublisher(publisher, nil)
		other := entity.Transaction{
			ID: 18, CustomerID: 42, Amount: 999, Type: "credit", Description: "other request", CreatedAt: time.Now(),
		}

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, readBackWindow, nil).
			Return([]entity.Transaction{other, stored}, nil).Once()
		publisher.On("Publish", ctx, events.NewTransactionRecorded(stored)).Return(nil).Once()

		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.NoError(t, err)
		assert.Equal(t, int64(17), got.ID)
		assert.Equal(t, "deposit", got.Description)
		publisher.AssertExpectations(t)
	})

	t.Run("Read-back does not find the row", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		transactor := new(mocks.MockTransactorProvider)
		session := new(mocks.MockSession)
		service := NewTransactionService(repo, transactor, 0)
		other := entity.Transaction{ID: 18, CustomerID: 42, Amount: 999, Type: "credit", Description: "other request"}

		transactor.On("WithinTx", ctx, mock.Anything).Return(session, nil).Once()
		repo.On("RecordTransaction", ctx, mock.Anything, session).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, 1, session).Return([]entity.Transaction{other}, nil).Once()

		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.ErrorIs(t, err, ErrReadBack)
		assert.Nil(t, got)
	})

	t.Run("Invalid type", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)

		got, err := service.RecordTransaction(ctx, 42, 100, "transfer", "deposit")

		var verr *entity.ValidationError
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "type", verr.Field)
		assert.Nil(t, got)
		repo.AssertNotCalled(t, "RecordTransaction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid amount", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)

		_, err := service.RecordTransaction(ctx, 42, -100, "debit", "withdrawal")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount")
	})

	t.Run("Row not written", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(false, nil).Once()

		_, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.ErrorIs(t, err, ErrNotRecorded)
		repo.AssertNotCalled(t, "ListRecentTransactions", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Repository error", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)
		storeErr := errors.New("repository error")

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(false, storeErr).Once()

		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.ErrorIs(t, err, storeErr)
		assert.Nil(t, got)
	})

	t.Run("Publishes after commit", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		publisher := new(mocks.MockEventPublisher)
		service := NewTransactionService(repo, nil, 0).WithPublisher(publisher, nil)

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, readBackWindow, nil).Return([]entity.Transaction{stored}, nil).Once()
		publisher.On("Publish", ctx, events.NewTransactionRecorded(stored)).Return(nil).Once()

		_, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.NoError(t, err)
		publisher.AssertExpectations(t)
	})

	t.Run("Publish failure keeps the record", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		publisher := new(mocks.MockEventPublisher)
		var logs bytes.Buffer
		service := NewTransactionService(repo, nil, 0).
			WithPublisher(publisher, logger.NewJSONLogger(&logs, logger.InfoLevel))

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(true, nil).Once()
		repo.On("ListRecentTransactions", ctx, 42, readBackWindow, nil).Return([]entity.Transaction{stored}, nil).Once()
		publisher.On("Publish", ctx, mock.Anything).Return(errors.New("kafka: leader not available")).Once()

		got, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.NoError(t, err)
		assert.Equal(t, int64(17), got.ID)
		assert.Contains(t, logs.String(), "Failed to publish transaction event")
	})

	t.Run("No publish on failure", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		publisher := new(mocks.MockEventPublisher)
		service := NewTransactionService(repo, nil, 0).WithPublisher(publisher, nil)

		repo.On("RecordTransaction", ctx, mock.Anything, nil).Return(false, nil).Once()

		_, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.ErrorIs(t, err, ErrNotRecorded)
		publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})

	t.Run("Transaction aborted", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		transactor := new(mocks.MockTransactorProvider)
		service := NewTransactionService(repo, transactor, 0)
		beginErr := errors.New("begin failed")

		transactor.On("WithinTx", ctx, mock.Anything).Return(nil, beginErr).Once()

		_, err := service.RecordTransaction(ctx, 42, 100, "credit", "deposit")

		assert.ErrorIs(t, err, beginErr)
		repo.AssertNotCalled(t, "RecordTransaction", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListTransactions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name         string
		defaultLimit int
		limit        int
		want         int
	}{
		{"Explicit limit", 0, 10, 10},
		{"Unset limit uses default", 0, 0, db.DefaultListLimit},
		{"Unset limit uses configured default", 25, 0, 25},
		{"Limit is capped", 0, 5000, db.DefaultListLimit},
		{"Configured default is capped", 5000, -1, db.DefaultListLimit},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(mocks.MockTransactionRepository)
			service := NewTransactionService(repo, nil, tc.defaultLimit)

			repo.On("ListRecentTransactions", ctx, 42, tc.want, nil).Return([]entity.Transaction{}, nil).Once()

			txs, err := service.ListTransactions(ctx, 42, tc.limit)

			assert.NoError(t, err)
			assert.Empty(t, txs)
			repo.AssertExpectations(t)
		})
	}

	t.Run("Invalid customer", func(t *testing.T) {
		repo := new(mocks.MockTransactionRepository)
		service := NewTransactionService(repo, nil, 0)

		_, err := service.ListTransactions(ctx, 0, 10)

		var verr *entity.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}
