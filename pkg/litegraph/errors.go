package litegraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for topology changes. Topology errors are reported and
// leave the graph unchanged; they never panic.
var (
	// ErrNotInGraph indicates a node operation that requires graph membership.
	ErrNotInGraph = errors.New("node is not in a graph")

	// ErrNodeNotFound indicates a missing or foreign target node.
	ErrNodeNotFound = errors.New("node not found")

	// ErrAlreadyInGraph indicates adding a node that belongs to another graph.
	ErrAlreadyInGraph = errors.New("node already belongs to a graph")

	// ErrSlotNotFound indicates a slot index or name that does not exist.
	ErrSlotNotFound = errors.New("slot not found")

	// ErrSelfLoop indicates an attempt to connect a node to itself.
	ErrSelfLoop = errors.New("cannot connect a node to itself")

	// ErrTypeMismatch indicates incompatible slot types.
	ErrTypeMismatch = errors.New("slot types are not compatible")

	// ErrConnectionRejected indicates a node hook vetoed the connection.
	ErrConnectionRejected = errors.New("connection rejected by node")

	// ErrTooManyNodes indicates the graph reached its node limit.
	ErrTooManyNodes = errors.New("graph node limit reached")

	// ErrDuplicateName indicates a graph input or output name is taken.
	ErrDuplicateName = errors.New("name already in use")
)

// Sentinel errors for the node type registry.
var (
	// ErrUnknownNodeType indicates a type name with no registration.
	ErrUnknownNodeType = errors.New("unknown node type")

	// ErrInvalidNodeType indicates a registration with an empty or malformed name.
	ErrInvalidNodeType = errors.New("invalid node type")
)

// Sentinel errors for execution and history.
var (
	// ErrNilContext indicates a nil context was passed to a blocking call.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrNoHistory indicates an undo or redo step outside the recorded range.
	ErrNoHistory = errors.New("no history at requested position")

	// ErrNotRunning indicates a call that requires a running graph.
	ErrNotRunning = errors.New("graph is not running")
)

// ConnectionError describes a refused connection.
type ConnectionError struct {
	OriginID   NodeID
	OriginSlot int
	TargetID   NodeID
	TargetSlot int
	Err        error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %d:%d -> %d:%d: %v",
		e.OriginID, e.OriginSlot, e.TargetID, e.TargetSlot, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// NodeError wraps an error with node context.
type NodeError struct {
	NodeID NodeID
	Type   string
	// Op is the operation that failed ("execute", "action", "event").
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return fmt.Sprintf("node %d (%s): %s: %v", e.NodeID, e.Type, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *NodeError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised while a step was running.
type PanicError struct {
	// NodeID is the node the step was processing.
	NodeID NodeID
	// Value is the value passed to panic().
	Value any
	// Stack is the stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("node %d panicked: %v", e.NodeID, e.Value)
}

// Unwrap exposes a panicked error value.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ConfigureError reports node types that could not be instantiated while
// loading a graph. The rest of the graph is still loaded; the affected
// nodes are placeholders.
type ConfigureError struct {
	Types []string
}

// Error implements the error interface.
func (e *ConfigureError) Error() string {
	return fmt.Sprintf("configure graph: %v: %s", ErrUnknownNodeType, strings.Join(e.Types, ", "))
}

// Unwrap returns ErrUnknownNodeType.
func (e *ConfigureError) Unwrap() error {
	return ErrUnknownNodeType
}

// HistoryError wraps a failure while moving through the undo history.
type HistoryError struct {
	// Op is "back", "forward" or "load".
	Op  string
	Seq int
	Err error
}

// Error implements the error interface.
func (e *HistoryError) Error() string {
	return fmt.Sprintf("history %s (seq %d): %v", e.Op, e.Seq, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HistoryError) Unwrap() error {
	return e.Err
}
