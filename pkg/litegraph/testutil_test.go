package litegraph

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

// Test behaviors shared across tests

// numberSource writes its "value" property to its output on every run.
type numberSource struct {
	runs int
}

func (s *numberSource) Init(n *Node) {
	n.AddOutput("out", "number")
	n.AddProperty("value", 1.0, "number")
}

func (s *numberSource) OnExecute(ctx Context) error {
	s.runs++
	n := ctx.Node()
	v, _ := n.Property("value")
	n.SetOutputData(0, v)
	return nil
}

// adder sums its two number inputs.
type adder struct {
	runs int
}

func (a *adder) Init(n *Node) {
	n.AddInput("a", "number")
	n.AddInput("b", "number")
	n.AddOutput("sum", "number")
}

func (a *adder) OnExecute(ctx Context) error {
	a.runs++
	n := ctx.Node()
	x, _ := n.InputData(0).(float64)
	y, _ := n.InputData(1).(float64)
	n.SetOutputData(0, x+y)
	return nil
}

// emitter fires its "fire" event output with its "payload" property.
type emitter struct {
	runs int
}

func (e *emitter) Init(n *Node) {
	n.AddOutput("fire", Event)
	n.AddProperty("payload", "ping", "string")
}

func (e *emitter) OnExecute(ctx Context) error {
	e.runs++
	v, _ := ctx.Node().Property("payload")
	return ctx.Node().Trigger(ctx, "fire", v)
}

// actionSink records the actions it receives. It never executes, so
// actions reach it immediately.
type actionSink struct {
	actions []string
	params  []any
	tokens  []string
}

func (s *actionSink) Init(n *Node) {
	n.AddInput("in", Action)
}

func (s *actionSink) OnAction(ctx Context, action string, _ int) error {
	s.actions = append(s.actions, action)
	s.params = append(s.params, ctx.Param())
	s.tokens = append(s.tokens, ctx.ActionCall())
	return nil
}

// steppedSink is an actionSink that also executes, so deferred actions
// queue on it until its next step.
type steppedSink struct {
	actionSink
	runs int
}

func (s *steppedSink) OnExecute(Context) error {
	s.runs++
	return nil
}

// runCounter counts executions and graph events.
type runCounter struct {
	runs   int
	events []string
}

func (c *runCounter) OnExecute(Context) error {
	c.runs++
	return nil
}

func (c *runCounter) OnGraphEvent(_ Context, event string) error {
	c.events = append(c.events, event)
	return nil
}

// failing returns err from every execution.
type failing struct {
	err error
}

func (f *failing) OnExecute(Context) error { return f.err }

// panicking panics with value on every execution.
type panicking struct {
	value any
}

func (p *panicking) OnExecute(Context) error { panic(p.value) }

// Helpers

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testRegistry returns a registry holding every test node type.
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	for _, nt := range []NodeType{
		{Type: "basic/source", New: func() any { return &numberSource{} }},
		{Type: "math/sum", New: func() any { return &adder{} }},
		{Type: "events/emitter", New: func() any { return &emitter{} }},
		{Type: "events/sink", New: func() any { return &actionSink{} }},
		{Type: "events/stepped_sink", New: func() any { return &steppedSink{} }},
		{Type: "basic/counter", New: func() any { return &runCounter{} }},
	} {
		require.NoError(t, r.Register(nt))
	}
	return r
}

// newTestGraph creates a graph over testRegistry with a silent logger.
func newTestGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	base := []Option{WithRegistry(testRegistry(t)), WithLogger(discardLogger())}
	return NewGraph(append(base, opts...)...)
}

// mustAdd creates a node of typ and adds it to g.
func mustAdd(t *testing.T, g *Graph, typ string) *Node {
	t.Helper()
	n, err := g.Registry().CreateNode(typ, "")
	require.NoError(t, err)
	require.NoError(t, g.Add(n))
	return n
}

// addBehavior adds a node driven by b to g.
func addBehavior(t *testing.T, g *Graph, title string, b Behavior) *Node {
	t.Helper()
	n := NewNodeWithBehavior(title, b)
	require.NoError(t, g.Add(n))
	return n
}

// mustConnect links slot of from to targetSlot of to.
func mustConnect(t *testing.T, from *Node, slot int, to *Node, targetSlot int) *Link {
	t.Helper()
	l, err := from.Connect(slot, to, targetSlot)
	require.NoError(t, err)
	return l
}

// behaviorOf returns the behavior of n as T.
func behaviorOf[T any](t *testing.T, n *Node) T {
	t.Helper()
	b, ok := n.Behavior().(T)
	require.True(t, ok, "behavior is %T", n.Behavior())
	return b
}

// settingsWith returns DefaultSettings modified by fn.
func settingsWith(fn func(*Settings)) Settings {
	s := DefaultSettings()
	fn(&s)
	return s
}

func testCtx() context.Context {
	return context.Background()
}
