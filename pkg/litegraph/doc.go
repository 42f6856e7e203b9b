/*
Package litegraph provides a dataflow graph engine: nodes with typed
input and output slots, links between them, and a scheduler that runs
the graph in dependency order.

# Overview

A Graph owns nodes and links. Each node carries a Behavior, a plain Go
value implementing whichever capability interfaces it needs (Executor,
ActionHandler, Initializer and so on). Every node hook can also be
overridden or extended at runtime through the node's callback.Handler.

Data flows through links: a node writes its outputs with SetOutputData
and downstream nodes read them with InputData. Events flow the same
way on Event outputs: Trigger fires every link of a named output and
the receiving node handles the action in OnAction.

# Basic Usage

Register node types, build a graph and step it:

	type Double struct{}

	func (Double) Init(n *litegraph.Node) {
	    n.AddInput("in", "number")
	    n.AddOutput("out", "number")
	}

	func (Double) OnExecute(ctx litegraph.Context) error {
	    v, _ := ctx.Node().InputData(0).(float64)
	    ctx.Node().SetOutputData(0, v*2)
	    return nil
	}

	reg := litegraph.NewRegistry()
	_ = reg.Register(litegraph.NodeType{
	    Type: "math/double",
	    New:  func() any { return Double{} },
	})

	g := litegraph.NewGraph(litegraph.WithRegistry(reg))
	a, _ := reg.CreateNode("math/double", "")
	b, _ := reg.CreateNode("math/double", "")
	_ = g.Add(a)
	_ = g.Add(b)
	_, _ = a.Connect(0, b, 0)

	if err := g.RunStep(ctx, 1); err != nil {
	    log.Fatal(err)
	}

# Execution Order

Nodes run in topological order computed from their input links, with
nodes caught in cycles appended in insertion order. The result is then
stably sorted by priority, lowest first.

# Modes

A node in mode Always runs on every step. OnEvent and OnTrigger nodes
run only when an event reaches them, Never nodes are skipped and
OnRequest nodes run when a downstream node pulls their data with
PullInputData.

# Running

Start drives RunStep from a ticker in its own goroutine until Stop,
an uncaught error or cancellation of its context. While the loop runs,
mutate the graph only through Do.

# History

With Settings.HistoryEnabled, every structural change stores a snapshot
of the serialized graph in a snapshot.Store, and HistoryBack and
HistoryForward move through them. Snapshots can live in memory, in
SQLite or in PostgreSQL.

# Persistence

Graph.Serialize and Graph.Configure convert to and from GraphData,
which encodes as the JSON format used by litegraph editors. Nodes of
unregistered types load as placeholders that keep their data, and
Graph.RefreshNodeTypes revives them once the type is registered.
*/
package litegraph
