package litegraph

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/litegraph/pkg/litegraph/callback"
	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

// Graph events, dispatched on Graph.Handlers().
const (
	// EventGraphChanged: action string. Follows every version bump.
	EventGraphChanged = "onGraphChanged"
	// EventNodeAdded, EventNodeRemoved: *Node.
	EventNodeAdded   = "onNodeAdded"
	EventNodeRemoved = "onNodeRemoved"
	// EventNodeConnectionChange: SlotKind, *Node, slot int, other *Node, other slot int.
	// The other endpoint is nil when a link was removed.
	EventNodeConnectionChange = "onNodeConnectionChange"
	// EventConnectionChange: *Node whose links changed.
	EventConnectionChange = "onConnectionChange"
	// EventPlay and EventStopGraph mark the start and end of the tick loop.
	EventPlay      = "onPlayEvent"
	EventStopGraph = "onStopEvent"
	// EventBeforeStep and EventAfterStep surround every tick of the loop.
	EventBeforeStep = "onBeforeStep"
	EventAfterStep  = "onAfterStep"
	// EventExecuteStep follows each iteration of RunStep.
	EventExecuteStep = "onExecuteStep"
	// EventAfterExecuteGraph follows all iterations of RunStep.
	EventAfterExecuteGraph = "onAfterExecute"
	// EventTrigger: action string, param. Sent by Graph.Trigger.
	EventTrigger = "onTrigger"
	// EventGraphSerialize: *GraphData, before it is returned.
	EventGraphSerialize = "onSerialize"
	// EventGraphConfigure: *GraphData, after it was loaded.
	EventGraphConfigure = "onConfigure"
)

// Config keys with defaults applied on Clear.
const (
	ConfigAlignToGrid = "align_to_grid"
	ConfigLinksOnTop  = "links_ontop"
)

const gridSize = 10

// Graph owns nodes and links and runs them.
//
// A Graph is not safe for concurrent use. While the tick loop started by
// Start is running, node hooks run on the loop goroutine; other goroutines
// must go through Do.
type Graph struct {
	id       string
	settings Settings
	registry *Registry
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	handlers *callback.Handler

	nodes           []*Node
	nodesByID       map[NodeID]*Node
	nodesInOrder    []*Node
	nodesExecutable []*Node
	executableStale bool
	links           map[LinkID]*Link
	groups          []*Group
	inputs          map[string]*GraphIO
	outputs         map[string]*GraphIO
	lastNodeID      NodeID
	lastLinkID      LinkID

	config map[string]any
	extra  map[string]any

	version      int
	savedVersion int

	iteration         int
	startTime         time.Time
	lastUpdate        time.Time
	globalTime        time.Duration
	fixedTime         time.Duration
	elapsedTime       time.Duration
	executionTime     time.Duration
	errorsInExecution bool

	nodesExecuting      map[NodeID]bool
	nodesActioning      map[NodeID]string
	executedAction      map[NodeID]string
	ancestorsCalculated map[NodeID]bool
	ancestorsCall       bool

	history     history
	holdHistory int

	status atomic.Int32
	runMu  sync.Mutex
	run    *runner
}

// NewGraph creates an empty, stopped graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		id:       uuid.NewString(),
		settings: DefaultSettings(),
		registry: NewRegistry(),
		logger:   slog.Default(),
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
		handlers: callback.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.history.init()
	g.status.Store(int32(StatusStopped))
	g.Clear()
	return g
}

// Clear removes everything from the graph and resets its counters and
// history. A running loop is asked to stop.
func (g *Graph) Clear() {
	g.clear(false)
}

// clear empties the graph. Restoring a snapshot keeps the history and
// the version, so versions stay monotonic across undo.
func (g *Graph) clear(restoring bool) {
	g.RequestStop()

	for _, n := range g.nodes {
		n.notifyRemoved(g)
		n.graph = nil
	}

	g.lastNodeID = 0
	g.lastLinkID = 0
	if !restoring {
		g.version = -1
		g.savedVersion = -1
	}

	g.nodes = nil
	g.nodesByID = make(map[NodeID]*Node)
	g.nodesInOrder = nil
	g.nodesExecutable = nil
	g.executableStale = false
	g.links = make(map[LinkID]*Link)
	g.groups = nil
	g.inputs = make(map[string]*GraphIO)
	g.outputs = make(map[string]*GraphIO)

	g.config = map[string]any{ConfigAlignToGrid: true, ConfigLinksOnTop: false}
	g.extra = make(map[string]any)

	g.iteration = 0
	g.startTime = time.Time{}
	g.lastUpdate = time.Time{}
	g.globalTime = 0
	g.fixedTime = 0
	g.elapsedTime = 0
	g.executionTime = 0

	g.nodesExecuting = make(map[NodeID]bool)
	g.nodesActioning = make(map[NodeID]string)
	g.executedAction = make(map[NodeID]string)
	g.ancestorsCalculated = make(map[NodeID]bool)
	g.ancestorsCall = false

	if !restoring {
		g.resetHistory()
	}
}

// ID returns the graph id.
func (g *Graph) ID() string { return g.id }

// Version returns the structural version, bumped by every change.
// A cleared graph is at -1.
func (g *Graph) Version() int { return g.version }

// Iteration returns the number of completed RunStep calls.
func (g *Graph) Iteration() int { return g.iteration }

// GlobalTime returns the time since the loop started, as of the last step.
func (g *Graph) GlobalTime() time.Duration { return g.globalTime }

// FixedTime returns the sum of FixedTimeLapse over all iterations.
func (g *Graph) FixedTime() time.Duration { return g.fixedTime }

// ElapsedTime returns the wall time between the last two steps.
func (g *Graph) ElapsedTime() time.Duration { return g.elapsedTime }

// ExecutionTime returns how long the last step took.
func (g *Graph) ExecutionTime() time.Duration { return g.executionTime }

// Status reports whether the tick loop is running.
func (g *Graph) Status() Status { return Status(g.status.Load()) }

// ErrorsInExecution reports whether the last caught step failed.
func (g *Graph) ErrorsInExecution() bool { return g.errorsInExecution }

// Handlers returns the dispatcher for graph events.
func (g *Graph) Handlers() *callback.Handler { return g.handlers }

// Settings returns the engine settings.
func (g *Graph) Settings() Settings { return g.settings }

// SetSettings replaces the engine settings.
func (g *Graph) SetSettings(s Settings) { g.settings = s }

// Config returns the persisted graph configuration map.
func (g *Graph) Config() map[string]any { return g.config }

// Extra returns the persisted map for application data.
func (g *Graph) Extra() map[string]any { return g.extra }

// Registry returns the node-type registry.
func (g *Graph) Registry() *Registry { return g.registry }

// Logger returns the graph logger.
func (g *Graph) Logger() *slog.Logger { return g.logger }

// changed bumps the version and, when record is set and history is on,
// stores a snapshot of the state after the change.
func (g *Graph) changed(action string, record bool) {
	g.version++
	g.handlers.Dispatch(EventGraphChanged, nil, action)
	if record {
		g.saveHistory(action)
	}
}

func (g *Graph) connectionChange(n *Node) {
	g.UpdateExecutionOrder()
	g.handlers.Dispatch(EventConnectionChange, nil, n)
	g.changed("connectionChange", false)
}

// Add inserts n into the graph and assigns it an id. A node whose id is
// already taken gets a fresh one.
func (g *Graph) Add(n *Node) error {
	return g.add(n, false, true)
}

func (g *Graph) add(n *Node, skipOrder, record bool) error {
	if n == nil {
		return ErrNodeNotFound
	}
	if n.graph == g {
		return nil
	}
	if n.graph != nil {
		return ErrAlreadyInGraph
	}
	if limit := g.settings.MaxNodes; limit > 0 && len(g.nodes) >= limit {
		return fmt.Errorf("%w (%d)", ErrTooManyNodes, limit)
	}

	if n.ID > 0 && g.nodesByID[n.ID] != nil {
		g.logger.Debug("node id taken, reassigning", slog.Int("node_id", int(n.ID)))
		n.ID = 0
	}
	switch {
	case n.ID <= 0:
		g.lastNodeID++
		n.ID = g.lastNodeID
	case n.ID > g.lastNodeID:
		g.lastNodeID = n.ID
	}

	n.graph = g
	g.nodes = append(g.nodes, n)
	g.nodesByID[n.ID] = n

	n.handlers.Dispatch(EventAdded, func(...any) (any, error) {
		if l, ok := n.behavior.(Lifecycle); ok {
			l.OnAdded(n, g)
		}
		return nil, nil
	}, g)

	if align, _ := g.config[ConfigAlignToGrid].(bool); align {
		n.Pos[0] = math.Round(n.Pos[0]/gridSize) * gridSize
		n.Pos[1] = math.Round(n.Pos[1]/gridSize) * gridSize
	}
	if !skipOrder {
		g.UpdateExecutionOrder()
	}
	g.handlers.Dispatch(EventNodeAdded, nil, n)
	g.changed("nodeAdd", record)
	return nil
}

// Remove disconnects n and takes it out of the graph. It reports whether
// n was in the graph.
func (g *Graph) Remove(n *Node) bool {
	if n == nil || n.graph != g || g.nodesByID[n.ID] != n {
		return false
	}
	for i := range n.Inputs {
		n.disconnectInput(i, false)
	}
	for i := range n.Outputs {
		n.disconnectOutput(i, nil, false)
	}

	n.notifyRemoved(g)
	n.graph = nil
	delete(g.nodesByID, n.ID)
	g.nodes = slices.DeleteFunc(g.nodes, func(x *Node) bool { return x == n })
	delete(g.nodesExecuting, n.ID)
	delete(g.nodesActioning, n.ID)
	delete(g.executedAction, n.ID)

	g.handlers.Dispatch(EventNodeRemoved, nil, n)
	g.UpdateExecutionOrder()
	g.changed("nodeRemove", true)
	return true
}

func (n *Node) notifyRemoved(g *Graph) {
	n.handlers.Dispatch(EventRemoved, func(...any) (any, error) {
		if l, ok := n.behavior.(Lifecycle); ok {
			l.OnRemoved(n, g)
		}
		return nil, nil
	}, g)
}

// NodeByID returns the node with id, or nil.
func (g *Graph) NodeByID(id NodeID) *Node { return g.nodesByID[id] }

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node { return slices.Clone(g.nodes) }

// FindNodesByType returns the nodes of a type, compared case-insensitively.
func (g *Graph) FindNodesByType(typ string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if strings.EqualFold(n.Type, typ) {
			out = append(out, n)
		}
	}
	return out
}

// FindNodesByTitle returns the nodes with the given title.
func (g *Graph) FindNodesByTitle(title string) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n.Title == title {
			out = append(out, n)
		}
	}
	return out
}

// FindNodeByTitle returns the first node with the given title, or nil.
func (g *Graph) FindNodeByTitle(title string) *Node {
	for _, n := range g.nodes {
		if n.Title == title {
			return n
		}
	}
	return nil
}

// Link returns the link with id, or nil.
func (g *Graph) Link(id LinkID) *Link { return g.links[id] }

// Links returns every link ordered by id.
func (g *Graph) Links() []*Link {
	out := make([]*Link, 0, len(g.links))
	for _, id := range slices.Sorted(maps.Keys(g.links)) {
		out = append(out, g.links[id])
	}
	return out
}

// RemoveLink disconnects the link with id and reports whether it existed.
func (g *Graph) RemoveLink(id LinkID) bool {
	l := g.links[id]
	if l == nil {
		return false
	}
	if t := g.NodeByID(l.TargetID); t != nil {
		return t.DisconnectInput(l.TargetSlot)
	}
	delete(g.links, id)
	g.changed("removeLink", true)
	return true
}

// AutoConnectNodes links every output of from to the first compatible
// input of to, preferring free inputs. Outputs that already have links
// are skipped unless includeConnected is set. It returns the new links.
func (g *Graph) AutoConnectNodes(from, to *Node, includeConnected bool) []*Link {
	if from == nil || to == nil || len(from.Outputs) == 0 || len(to.Inputs) == 0 {
		return nil
	}
	var made []*Link
	for i, out := range from.Outputs {
		if !includeConnected && len(out.Links) > 0 {
			continue
		}
		if l, err := from.ConnectByType(i, to, out.Type, true); err == nil {
			made = append(made, l)
		}
	}
	return made
}

// RefreshNodeTypes rebuilds nodes whose registered type changed since
// they were created, and revives placeholders whose type is now known.
// Nodes keep their id, slots, properties and links.
func (g *Graph) RefreshNodeTypes() error {
	var errs []error
	for i, n := range g.nodes {
		t, ok := g.registry.Lookup(n.Type)
		if !ok || (n.class != nil && n.class.revision == t.revision && !n.HasErrors()) {
			continue
		}
		data := n.Serialize()
		fresh, err := g.registry.CreateNode(n.Type, data.Title)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fresh.ID = n.ID
		fresh.graph = g
		n.graph = nil
		g.nodes[i] = fresh
		g.nodesByID[fresh.ID] = fresh
		fresh.Configure(data)
		g.logger.Debug("node rebuilt for current type",
			slog.Int("node_id", int(fresh.ID)),
			slog.String("node_type", fresh.Type))
	}
	g.UpdateExecutionOrder()
	return errors.Join(errs...)
}
