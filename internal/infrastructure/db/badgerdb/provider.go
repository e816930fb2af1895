// Package badgerdb is an embedded ledger backend built on BadgerDB. It runs the
// store's command templates by name instead of parsing their SQL.
package badgerdb

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	"github.com/dgraph-io/badger/v3"
)

var (
	keyPrefix   = []byte("txn:")
	sequenceKey = []byte("seq:transactions")
)

const maxConflictRetries = 5

// ErrConnClosed is returned when a released connection is used again
var ErrConnClosed = errors.New("badger connection is closed")

// Provider implements db.ConnectionProvider and db.Transactor over BadgerDB
type Provider struct {
	db    *badger.DB
	seq   *badger.Sequence
	owned bool
	now   func() time.Time
}

// Open opens a BadgerDB database at path. An empty path opens an in-memory database.
func Open(path string) (*Provider, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Disable Badger's default logger

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	p, err := New(bdb)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// New creates a provider on an already open database. The caller keeps
// ownership of bdb; Close only releases the id sequence.
func New(bdb *badger.DB) (*Provider, error) {
	seq, err := bdb.GetSequence(sequenceKey, 100)
	if err != nil {
		return nil, fmt.Errorf("failed to lease transaction ids: %w", err)
	}

	return &Provider{
		db:  bdb,
		seq: seq,
		now: time.Now,
	}, nil
}

// Close releases the id lease and, if the provider opened the database, closes it
func (p *Provider) Close() error {
	err := p.seq.Release()
	if p.owned {
		if cerr := p.db.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Acquire returns a connection that runs each command in its own badger transaction
func (p *Provider) Acquire(ctx context.Context) (db.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.db.IsClosed() {
		return nil, errors.New("badger database is closed")
	}
	return &conn{p: p}, nil
}

// WithinTx runs fn inside a single read-write badger transaction, committed
// only when fn succeeds. fn is run again if the commit loses a conflict with
// a concurrent transaction.
func (p *Provider) WithinTx(ctx context.Context, fn func(db.Session) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if err = ctx.Err(); err != nil {
			return err
		}
		err = p.db.Update(func(txn *badger.Txn) error {
			return fn(&txSession{p: p, txn: txn})
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

type conn struct {
	p      *Provider
	closed atomic.Bool
}

func (c *conn) Query(ctx context.Context, cmd *db.Command) (db.Rows, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}

	var rows db.Rows
	err := c.p.db.View(func(txn *badger.Txn) error {
		var err error
		rows, err = c.p.query(ctx, txn, cmd)
		return err
	})
	return rows, err
}

func (c *conn) Exec(ctx context.Context, cmd *db.Command) (int64, error) {
	if c.closed.Load() {
		return 0, ErrConnClosed
	}

	var n int64
	err := c.p.db.Update(func(txn *badger.Txn) error {
		var err error
		n, err = c.p.exec(ctx, txn, cmd)
		return err
	})
	return n, err
}

func (c *conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return ErrConnClosed
	}
	return nil
}

type txSession struct {
	p   *Provider
	txn *badger.Txn
}

func (s *txSession) Query(ctx context.Context, cmd *db.Command) (db.Rows, error) {
	return s.p.query(ctx, s.txn, cmd)
}

func (s *txSession) Exec(ctx context.Context, cmd *db.Command) (int64, error) {
	return s.p.exec(ctx, s.txn, cmd)
}

func (p *Provider) query(ctx context.Context, txn *badger.Txn, cmd *db.Command) (db.Rows, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cmd.Name() != db.ListRecentCommandName {
		return nil, fmt.Errorf("unsupported query %q", cmd.Name())
	}

	args, err := cmd.Args()
	if err != nil {
		return nil, err
	}
	customerID, _ := db.Int64Arg(args[0])
	limit, _ := db.Int64Arg(args[1])
	if limit < 0 {
		return nil, errors.New("LIMIT must not be negative")
	}

	prefix := customerPrefix(customerID)
	opts := badger.DefaultIteratorOptions
	opts.Reverse = true
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	// reverse iteration starts at the largest id under the prefix
	seek := make([]byte, 0, len(prefix)+8)
	seek = append(seek, prefix...)
	seek = append(seek, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff)

	values := make([][]byte, 0)
	for it.Seek(seek); it.ValidForPrefix(prefix) && int64(len(values)) < limit; it.Next() {
		val, err := it.Item().ValueCopy(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to read transaction: %w", err)
		}
		values = append(values, val)
	}

	return &valueRows{values: values}, nil
}

func (p *Provider) exec(ctx context.Context, txn *badger.Txn, cmd *db.Command) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if cmd.Name() != db.InsertTransactionCommandName {
		return 0, fmt.Errorf("unsupported command %q", cmd.Name())
	}

	args, err := cmd.Args()
	if err != nil {
		return 0, err
	}
	customerID, _ := db.Int64Arg(args[0])
	amount, _ := db.Int64Arg(args[1])

	next, err := p.seq.Next()
	if err != nil {
		return 0, fmt.Errorf("failed to assign transaction id: %w", err)
	}

	tx := entity.Transaction{
		ID:          int64(next) + 1,
		CustomerID:  int(customerID),
		Amount:      amount,
		Type:        args[2].(string),
		Description: args[3].(string),
		CreatedAt:   p.now().UTC(),
	}

	// Serialize transaction to JSON
	data, err := json.Marshal(tx)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal transaction: %w", err)
	}

	if err := txn.Set(transactionKey(customerID, tx.ID), data); err != nil {
		return 0, fmt.Errorf("failed to store transaction: %w", err)
	}

	return 1, nil
}

func customerPrefix(customerID int64) []byte {
	key := make([]byte, 0, len(keyPrefix)+8)
	key = append(key, keyPrefix...)
	return binary.BigEndian.AppendUint64(key, uint64(customerID))
}

func transactionKey(customerID, id int64) []byte {
	return binary.BigEndian.AppendUint64(customerPrefix(customerID), uint64(id))
}

var (
	_ db.ConnectionProvider = (*Provider)(nil)
	_ db.Transactor         = (*Provider)(nil)
)
