package litegraph

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

// Context is handed to node behaviors while they execute or handle an
// action. It extends context.Context with the node being run and the call
// parameters.
type Context interface {
	context.Context

	// Logger returns the graph logger tagged with graph and node ids.
	// Never nil.
	Logger() *slog.Logger

	// Graph returns the graph the node belongs to.
	Graph() *Graph

	// Node returns the node being run.
	Node() *Node

	// Param returns the parameter passed by the caller or the event source.
	Param() any

	// ActionCall returns the token identifying the logical event this call
	// belongs to.
	ActionCall() string
}

type nodeContext struct {
	context.Context

	node       *Node
	param      any
	actionCall string
}

func newNodeContext(ctx context.Context, n *Node, param any, actionCall string) *nodeContext {
	return &nodeContext{Context: ctx, node: n, param: param, actionCall: actionCall}
}

func (c *nodeContext) Logger() *slog.Logger {
	g := c.node.graph
	if g == nil {
		return slog.Default()
	}
	return observability.EnrichLogger(g.logger, g.id, int(c.node.ID))
}

func (c *nodeContext) Graph() *Graph      { return c.node.graph }
func (c *nodeContext) Node() *Node        { return c.node }
func (c *nodeContext) Param() any         { return c.param }
func (c *nodeContext) ActionCall() string { return c.actionCall }

// callConfig holds per-call options for execution entry points.
type callConfig struct {
	actionCall string
}

// CallOption configures DoExecute, ActionDo, Trigger and TriggerSlot.
type CallOption func(*callConfig)

// WithActionCall tags the call with the token of the logical event it
// belongs to. Calls sharing a token are subject to the idempotency
// guards; a token is generated when none is given.
func WithActionCall(token string) CallOption {
	return func(c *callConfig) {
		c.actionCall = token
	}
}

func newCallConfig(opts []CallOption) callConfig {
	var cfg callConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
