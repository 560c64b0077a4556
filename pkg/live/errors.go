package live

import (
	"errors"
	"fmt"
)

// Sentinel errors for registry and server error conditions.
var (
	// ErrNotFound is returned when no node is registered under a name.
	ErrNotFound = errors.New("live: signal not found")

	// ErrReadOnly is returned when writing a computed node.
	ErrReadOnly = errors.New("live: signal is read-only")

	// ErrDuplicate is returned when registering a name twice.
	ErrDuplicate = errors.New("live: duplicate signal name")

	// ErrUnnamed is returned when registering a node without a name.
	ErrUnnamed = errors.New("live: signal has no name")

	// ErrSlowClient is the close reason for clients whose send queue is full.
	ErrSlowClient = errors.New("live: client too slow")
)

// NodeError wraps an error with the node and operation that failed.
type NodeError struct {
	Name string
	Op   string // Operation that failed
	Err  error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("live: %s %q: %v", e.Op, e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *NodeError) Unwrap() error {
	return e.Err
}
