package internal

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/application/service"
	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db/badgerdb"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/tracing"
)

func TestPerformance(t *testing.T) {
	// Skip in short mode or CI
	if testing.Short() {
		t.Skip("Skipping performance test in short mode")
	}

	// Setup test database
	dbPath, err := os.MkdirTemp("", "badger-perf-test")
	if err != nil {
		t.Fatalf("Failed to create temp directory: %v", err)
	}
	defer os.RemoveAll(dbPath)

	provider, err := badgerdb.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer provider.Close()

	// Tracing on, so span bookkeeping is part of what gets measured
	log := logger.NewJSONLogger(io.Discard, logger.DebugLevel)
	store := db.NewTransactionStore(provider, tracing.New(true, log), log)
	txService := service.NewTransactionService(store, provider, 0)

	// Performance test configuration
	numTransactions := 200
	concurrency := 10
	customers := 5

	var recorded [6]atomic.Int64

	t.Run("Transaction Recording", func(t *testing.T) {
		startTime := time.Now()

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		txPerWorker := numTransactions / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				ctx := context.Background()
				for j := 0; j < txPerWorker; j++ {
					customerID := 1 + (workerID+j)%customers
					txType := entity.TypeCredit
					if rand.Intn(2) == 0 {
						txType = entity.TypeDebit
					}

					_, err := txService.RecordTransaction(ctx, customerID, int64(1+rand.Intn(10000)), txType,
						fmt.Sprintf("worker %d tx %d", workerID, j))
					if err != nil {
						t.Errorf("Error recording transaction: %v", err)
						continue
					}
					recorded[customerID].Add(1)
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		// Calculate throughput
		throughput := float64(numTransactions) / duration.Seconds()
		t.Logf("Transaction recording: %d transactions in %v (%.2f tx/sec)",
			numTransactions, duration, throughput)
	})

	t.Run("No rows lost", func(t *testing.T) {
		ctx := context.Background()
		for customerID := 1; customerID <= customers; customerID++ {
			txs, err := txService.ListTransactions(ctx, customerID, db.DefaultListLimit)
			if err != nil {
				t.Fatalf("Failed to list transactions: %v", err)
			}
			if int64(len(txs)) != recorded[customerID].Load() {
				t.Errorf("customer %d: got %d rows, recorded %d", customerID, len(txs), recorded[customerID].Load())
			}
			for i := 1; i < len(txs); i++ {
				if txs[i-1].ID <= txs[i].ID {
					t.Errorf("customer %d: ids out of order at %d", customerID, i)
				}
			}
		}
	})

	t.Run("Statement Retrieval", func(t *testing.T) {
		startTime := time.Now()

		wg := sync.WaitGroup{}
		wg.Add(concurrency)

		readsPerWorker := numTransactions / concurrency

		for i := 0; i < concurrency; i++ {
			go func(workerID int) {
				defer wg.Done()

				ctx := context.Background()
				for j := 0; j < readsPerWorker; j++ {
					customerID := 1 + (workerID*readsPerWorker+j)%customers
					if _, err := txService.ListTransactions(ctx, customerID, 10); err != nil {
						t.Errorf("Error listing transactions: %v", err)
					}
				}
			}(i)
		}

		wg.Wait()
		duration := time.Since(startTime)

		// Calculate throughput
		throughput := float64(numTransactions) / duration.Seconds()
		t.Logf("Statement retrieval: %d reads in %v (%.2f reads/sec)",
			numTransactions, duration, throughput)
	})
}
