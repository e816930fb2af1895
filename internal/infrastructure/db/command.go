package db

import "fmt"

// ParamType is the type a command parameter must be bound with
type ParamType int

const (
	// IntegerParam accepts int, int32 and int64 values
	IntegerParam ParamType = iota
	// VarcharParam accepts string values
	VarcharParam
)

func (p ParamType) String() string {
	switch p {
	case IntegerParam:
		return "integer"
	case VarcharParam:
		return "varchar"
	default:
		return fmt.Sprintf("ParamType(%d)", int(p))
	}
}

// CommandTemplate is a long-lived parameterized command. Templates are built once
// and never mutated; each invocation works on its own Clone.
type CommandTemplate struct {
	name   string
	text   string
	params []ParamType
}

// NewCommandTemplate creates a template for a named SQL command with positional parameters
func NewCommandTemplate(name, text string, params ...ParamType) *CommandTemplate {
	p := make([]ParamType, len(params))
	copy(p, params)

	return &CommandTemplate{name: name, text: text, params: p}
}

// Name identifies the command to backends that do not speak SQL
func (t *CommandTemplate) Name() string { return t.name }

// SQL returns the command text
func (t *CommandTemplate) SQL() string { return t.text }

// Clone returns a command with an independent, unbound parameter set
func (t *CommandTemplate) Clone() *Command {
	return &Command{
		template: t,
		args:     make([]any, len(t.params)),
		bound:    make([]bool, len(t.params)),
	}
}

// Command is a template clone that owns its parameter values
type Command struct {
	template *CommandTemplate
	args     []any
	bound    []bool
}

// Template returns the template the command was cloned from
func (c *Command) Template() *CommandTemplate { return c.template }

// Name returns the template name
func (c *Command) Name() string { return c.template.name }

// SQL returns the template text
func (c *Command) SQL() string { return c.template.text }

// Bind sets the value of the parameter at position i
func (c *Command) Bind(i int, value any) error {
	if i < 0 || i >= len(c.args) {
		return fmt.Errorf("%s: parameter %d out of range [0,%d)", c.template.name, i, len(c.args))
	}

	want := c.template.params[i]
	if !accepts(want, value) {
		return fmt.Errorf("%s: parameter %d expects %s, got %T", c.template.name, i, want, value)
	}

	c.args[i] = value
	c.bound[i] = true
	return nil
}

// Args returns a copy of the bound values in positional order.
// It fails if any parameter was left unbound.
func (c *Command) Args() ([]any, error) {
	for i, ok := range c.bound {
		if !ok {
			return nil, fmt.Errorf("%s: parameter %d is not bound", c.template.name, i)
		}
	}

	args := make([]any, len(c.args))
	copy(args, c.args)
	return args, nil
}

func accepts(p ParamType, value any) bool {
	switch p {
	case IntegerParam:
		switch value.(type) {
		case int, int32, int64:
			return true
		}
	case VarcharParam:
		_, ok := value.(string)
		return ok
	}
	return false
}

// Int64Arg reads an integer argument regardless of its concrete width
func Int64Arg(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

// Column names of the transactions table, in the order list queries return them
const (
	ColumnID          = "transaction_id"
	ColumnCustomerID  = "customer_id"
	ColumnAmount      = "transaction_amount"
	ColumnType        = "transaction_type"
	ColumnDescription = "transaction_description"
	ColumnCreatedAt   = "created_at"
)

// TransactionColumns lists the columns returned by ListRecentCommand
var TransactionColumns = []string{
	ColumnID, ColumnCustomerID, ColumnAmount, ColumnType, ColumnDescription, ColumnCreatedAt,
}

// Command names
const (
	ListRecentCommandName        = "transactions.list_recent"
	InsertTransactionCommandName = "transactions.insert"
)

var (
	// ListRecentCommand selects a customer's transactions newest first; params: customer id, limit
	ListRecentCommand = NewCommandTemplate(ListRecentCommandName,
		"SELECT transaction_id, customer_id, transaction_amount, transaction_type, transaction_description, created_at "+
			"FROM transactions WHERE customer_id = $1 ORDER BY transaction_id DESC LIMIT $2",
		IntegerParam, IntegerParam)

	// InsertTransactionCommand appends one row; params: customer id, amount, type, description
	InsertTransactionCommand = NewCommandTemplate(InsertTransactionCommandName,
		"INSERT INTO transactions (customer_id, transaction_amount, transaction_type, transaction_description) "+
			"VALUES ($1, $2, $3, $4)",
		IntegerParam, IntegerParam, VarcharParam, VarcharParam)
)
