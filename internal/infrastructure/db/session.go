// Package db implements the transaction store: the component that turns ledger
// operations into parameterized commands, runs them against a session and maps
// the resulting rows back to entities.
package db

import "context"

// Rows is a forward-only cursor over a query result. *sql.Rows satisfies it.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Session executes bound commands. A session handed to the store by a caller is
// borrowed: the store never closes it.
type Session interface {
	Query(ctx context.Context, cmd *Command) (Rows, error)
	Exec(ctx context.Context, cmd *Command) (int64, error)
}

// Conn is a session the store acquired and must release
type Conn interface {
	Session
	Close() error
}

// ConnectionProvider yields ready-to-use connections
type ConnectionProvider interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Transactor is implemented by providers that can run several commands in one
// caller-managed transaction. fn's error aborts the transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(Session) error) error
}
