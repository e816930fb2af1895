package db

import "errors"

var (
	// ErrConnection is returned when a connection cannot be obtained from the provider
	ErrConnection = errors.New("connection unavailable")

	// ErrQuery is returned when a command cannot be bound or executed
	ErrQuery = errors.New("query failed")

	// ErrMapping is returned when a result row does not match the transaction shape
	ErrMapping = errors.New("row mapping failed")
)
