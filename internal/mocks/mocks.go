// Package mocks holds testify mocks for the ledger's collaborator interfaces.
package mocks

import (
	"context"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/events"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockTransactionRepository mocks the TransactionRepository interface
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) ListRecentTransactions(ctx context.Context, customerID, limit int, session db.Session) ([]entity.Transaction, error) {
	args := m.Called(ctx, customerID, limit, session)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) RecordTransaction(ctx context.Context, tx *entity.Transaction, session db.Session) (bool, error) {
	args := m.Called(ctx, tx, session)
	return args.Bool(0), args.Error(1)
}

// MockConnectionProvider mocks db.ConnectionProvider
type MockConnectionProvider struct {
	mock.Mock
}

func (m *MockConnectionProvider) Acquire(ctx context.Context) (db.Conn, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Conn), args.Error(1)
}

// MockTransactorProvider mocks a provider that also implements db.Transactor.
// WithinTx hands fn the session given to the expectation.
type MockTransactorProvider struct {
	MockConnectionProvider
}

func (m *MockTransactorProvider) WithinTx(ctx context.Context, fn func(db.Session) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(1); err != nil {
		return err
	}
	session, _ := args.Get(0).(db.Session)
	return fn(session)
}

// MockSession mocks db.Session
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Query(ctx context.Context, cmd *db.Command) (db.Rows, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(db.Rows), args.Error(1)
}

func (m *MockSession) Exec(ctx context.Context, cmd *db.Command) (int64, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0).(int64), args.Error(1)
}

// MockConn mocks db.Conn
type MockConn struct {
	MockSession
}

func (m *MockConn) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRows mocks db.Rows
type MockRows struct {
	mock.Mock
}

func (m *MockRows) Next() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockRows) Scan(dest ...any) error {
	args := m.Called(dest...)
	return args.Error(0)
}

func (m *MockRows) Err() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRows) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockEventPublisher mocks the service's event publisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event events.TransactionRecorded) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	m.Called(key, value)
	return m
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	m.Called(fields)
	return m
}

var (
	_ db.ConnectionProvider = (*MockConnectionProvider)(nil)
	_ db.Transactor         = (*MockTransactorProvider)(nil)
	_ db.Conn               = (*MockConn)(nil)
	_ db.Rows               = (*MockRows)(nil)
	_ logger.Logger         = (*MockLogger)(nil)
)
