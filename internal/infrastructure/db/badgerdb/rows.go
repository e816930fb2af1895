package badgerdb

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/damon-houk/ledger-transaction-store/internal/domain/entity"
	"github.com/damon-houk/ledger-transaction-store/internal/infrastructure/db"
)

// valueRows is a cursor over stored transaction values. Values are decoded on
// Scan so a corrupt record surfaces as a scan error.
type valueRows struct {
	values [][]byte
	pos    int
	closed bool
}

func (r *valueRows) Next() bool {
	if r.closed || r.pos >= len(r.values) {
		return false
	}
	r.pos++
	return true
}

func (r *valueRows) Scan(dest ...any) error {
	if r.closed {
		return errors.New("rows are closed")
	}
	if r.pos == 0 {
		return errors.New("Scan called without calling Next")
	}
	if len(dest) != len(db.TransactionColumns) {
		return fmt.Errorf("expected %d destination arguments in Scan, not %d", len(db.TransactionColumns), len(dest))
	}

	var tx entity.Transaction
	if err := json.Unmarshal(r.values[r.pos-1], &tx); err != nil {
		return fmt.Errorf("failed to decode transaction: %w", err)
	}

	src := []any{tx.ID, tx.CustomerID, tx.Amount, tx.Type, tx.Description, tx.CreatedAt}
	for i, d := range dest {
		if err := assign(d, src[i]); err != nil {
			return fmt.Errorf("column %s: %w", db.TransactionColumns[i], err)
		}
	}
	return nil
}

func (r *valueRows) Err() error { return nil }

func (r *valueRows) Close() error {
	r.closed = true
	return nil
}

func assign(dest, src any) error {
	switch d := dest.(type) {
	case *any:
		*d = src
		return nil
	case *int64:
		if n, ok := db.Int64Arg(src); ok {
			*d = n
			return nil
		}
	case *int:
		if n, ok := db.Int64Arg(src); ok {
			*d = int(n)
			return nil
		}
	case *string:
		if s, ok := src.(string); ok {
			*d = s
			return nil
		}
	case *time.Time:
		if t, ok := src.(time.Time); ok {
			*d = t
			return nil
		}
	}
	return fmt.Errorf("cannot scan %T into %T", src, dest)
}
