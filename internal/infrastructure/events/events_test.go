package events

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransactionRecorded(t *testing.T) {
	created := time.Date(2024, 2, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))

	event := NewTransactionRecorded(entity.Transaction{
		ID: 7, CustomerID: 42, Amount: 250, Type: entity.TypeDebit, Description: "coffee", CreatedAt: created,
	})

	assert.Equal(t, int64(7), event.TransactionID)
	assert.Equal(t, int64(250), event.AmountMinor)
	assert.Equal(t, "-2.5", event.Amount.String())
	assert.Equal(t, time.UTC, event.OccurredAt.Location())

	data, err := json.Marshal(event)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":"-2.5"`)
	assert.Contains(t, string(data), `"customer_id":42`)
}

func TestNewKafkaPublisher(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "")
	defer p.Close()

	assert.Equal(t, DefaultTopic, p.Topic())
	assert.Equal(t, "localhost:9092", p.writer.Addr.String())
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	assert.Equal(t, 10*time.Millisecond, p.writer.BatchTimeout)
	assert.False(t, p.writer.Async)
}

func TestKafkaPublisherIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	brokers := os.Getenv("LEDGER_TEST_KAFKA_BROKERS")
	if brokers == "" {
		t.Skip("LEDGER_TEST_KAFKA_BROKERS not set")
	}

	topic := "ledger-test-" + time.Now().Format("20060102150405")
	p := NewKafkaPublisher(strings.Split(brokers, ","), topic)
	defer p.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	event := NewTransactionRecorded(entity.Transaction{
		ID: 1, CustomerID: 42, Amount: 100, Type: entity.TypeCredit, Description: "deposit", CreatedAt: time.Now(),
	})
	require.NoError(t, p.Publish(ctx, event))

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(brokers, ","),
		Topic:   topic,
	})
	defer reader.Close()

	msg, err := reader.ReadMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", string(msg.Key))

	var got TransactionRecorded
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, event.TransactionID, got.TransactionID)
}
