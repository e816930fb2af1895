// Package postgres provides the lib/pq backed connection provider for the
// transaction store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
	_ "github.com/lib/pq"
)

// txOptions isolates WithinTx at REPEATABLE READ: the snapshot is taken at the
// first statement, so rows other sessions commit afterwards stay invisible.
var txOptions = &sql.TxOptions{Isolation: sql.LevelRepeatableRead}

// Provider hands out pooled connections and caches one prepared statement per
// command template.
type Provider struct {
	db    *sql.DB
	stmts map[*db.CommandTemplate]*sql.Stmt
}

// Open connects to PostgreSQL with a lib/pq DSN and verifies the connection
func Open(ctx context.Context, dsn string) (*Provider, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p, err := New(ctx, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return p, nil
}

// New prepares the ledger command templates on sqlDB
func New(ctx context.Context, sqlDB *sql.DB) (*Provider, error) {
	p := &Provider{
		db:    sqlDB,
		stmts: make(map[*db.CommandTemplate]*sql.Stmt),
	}

	for _, tmpl := range []*db.CommandTemplate{db.ListRecentCommand, db.InsertTransactionCommand} {
		stmt, err := sqlDB.PrepareContext(ctx, tmpl.SQL())
		if err != nil {
			p.closeStatements()
			return nil, fmt.Errorf("failed to prepare %s: %w", tmpl.Name(), err)
		}
		p.stmts[tmpl] = stmt
	}

	return p, nil
}

// DB exposes the underlying pool
func (p *Provider) DB() *sql.DB { return p.db }

// Close closes the prepared statements and the pool
func (p *Provider) Close() error {
	p.closeStatements()
	return p.db.Close()
}

func (p *Provider) closeStatements() {
	for _, stmt := range p.stmts {
		stmt.Close()
	}
}

// Acquire reserves one connection from the pool until the returned Conn is closed
func (p *Provider) Acquire(ctx context.Context) (db.Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w: %w", db.ErrConnection, err)
	}
	return &conn{p: p, conn: c}, nil
}

// WithinTx runs fn in a database transaction. Cached statements are rebound to
// the transaction rather than prepared again.
func (p *Provider) WithinTx(ctx context.Context, fn func(db.Session) error) (err error) {
	tx, err := p.db.BeginTx(ctx, txOptions)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w: %w", db.ErrConnection, err)
	}

	defer func() {
		if err != nil {
			if rerr := rollback(tx); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
	}()

	if err = fn(&txSession{p: p, tx: tx}); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (p *Provider) statement(tmpl *db.CommandTemplate) (*sql.Stmt, error) {
	stmt, ok := p.stmts[tmpl]
	if !ok {
		return nil, fmt.Errorf("no prepared statement for %s", tmpl.Name())
	}
	return stmt, nil
}

// conn runs each command in its own short transaction on the reserved
// connection so the pool's prepared statement can be rebound to it.
type conn struct {
	p    *Provider
	conn *sql.Conn
}

func (c *conn) Query(ctx context.Context, cmd *db.Command) (db.Rows, error) {
	args, err := cmd.Args()
	if err != nil {
		return nil, err
	}

	stmt, err := c.p.statement(cmd.Template())
	if err != nil {
		return nil, err
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	rows, err := tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	if err != nil {
		return nil, errors.Join(err, rollback(tx))
	}
	return &txRows{Rows: rows, tx: tx}, nil
}

func (c *conn) Exec(ctx context.Context, cmd *db.Command) (int64, error) {
	args, err := cmd.Args()
	if err != nil {
		return 0, err
	}

	stmt, err := c.p.statement(cmd.Template())
	if err != nil {
		return 0, err
	}

	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	res, err := tx.StmtContext(ctx, stmt).ExecContext(ctx, args...)
	if err != nil {
		return 0, errors.Join(err, rollback(tx))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Join(err, rollback(tx))
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit: %w", err)
	}
	return affected, nil
}

func (c *conn) Close() error {
	return c.conn.Close()
}

// txRows ends the read transaction when the rows are closed
type txRows struct {
	*sql.Rows
	tx *sql.Tx
}

func (r *txRows) Close() error {
	err := r.Rows.Close()
	if cerr := r.tx.Commit(); cerr != nil && !errors.Is(cerr, sql.ErrTxDone) {
		err = errors.Join(err, fmt.Errorf("failed to end read transaction: %w", cerr))
	}
	return err
}

func rollback(tx *sql.Tx) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	return nil
}

type txSession struct {
	p  *Provider
	tx *sql.Tx
}

// Query leaves the transaction-bound statement open; the transaction closes it
// on commit or rollback, after the rows are consumed.
func (s *txSession) Query(ctx context.Context, cmd *db.Command) (db.Rows, error) {
	args, err := cmd.Args()
	if err != nil {
		return nil, err
	}

	stmt, err := s.p.statement(cmd.Template())
	if err != nil {
		return nil, err
	}

	rows, err := s.tx.StmtContext(ctx, stmt).QueryContext(ctx, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *txSession) Exec(ctx context.Context, cmd *db.Command) (int64, error) {
	args, err := cmd.Args()
	if err != nil {
		return 0, err
	}

	stmt, err := s.p.statement(cmd.Template())
	if err != nil {
		return 0, err
	}

	txStmt := s.tx.StmtContext(ctx, stmt)
	defer txStmt.Close()

	res, err := txStmt.ExecContext(ctx, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var (
	_ db.ConnectionProvider = (*Provider)(nil)
	_ db.Transactor         = (*Provider)(nil)
)
