package litegraph

// Node hook names. Every hook is dispatched through the node's callback
// handler; the matching capability interface below, when the behavior
// implements it, is the default implementation. The comment on each
// constant lists the dispatch arguments in order.
const (
	// EventExecute: Context.
	EventExecute = "onExecute"
	// EventAction: Context, action string, slot int.
	EventAction = "onAction"
	// EventAfterExecute: Context.
	EventAfterExecute = "onAfterExecuteNode"
	// EventAfterAction: Context.
	EventAfterAction = "onAfterActionedNode"
	// EventConnectionsChange: SlotKind, slot int, connected bool, *Link, slot (*Input or *Output).
	EventConnectionsChange = "onConnectionsChange"
	// EventConnectInput: slot int, output type SlotType, *Output, origin *Node, origin slot int.
	// A false result vetoes the connection.
	EventConnectInput = "onConnectInput"
	// EventConnectOutput: slot int, input type SlotType, *Input, target *Node, target slot int.
	// A false result vetoes the connection.
	EventConnectOutput = "onConnectOutput"
	// EventBeforeConnectInput: slot int. An int result redirects the target slot.
	EventBeforeConnectInput = "onBeforeConnectInput"
	// EventPropertyChanged: name string, value, previous value. A false result reverts.
	EventPropertyChanged = "onPropertyChanged"
	// EventAdded: *Graph.
	EventAdded = "onAdded"
	// EventRemoved: *Graph.
	EventRemoved = "onRemoved"
	// EventConfigure: NodeData.
	EventConfigure = "onConfigure"
	// EventSerialize: *NodeData.
	EventSerialize = "onSerialize"
	// EventInputAdded, EventOutputAdded: the new slot.
	EventInputAdded  = "onInputAdded"
	EventOutputAdded = "onOutputAdded"
	// EventInputRemoved, EventOutputRemoved: slot index, removed slot.
	EventInputRemoved  = "onInputRemoved"
	EventOutputRemoved = "onOutputRemoved"
	// EventNodeCreated: none.
	EventNodeCreated = "onNodeCreated"
	// EventStart and EventStop are sent to every node when the loop starts
	// and stops. Arguments: Context.
	EventStart = "onStart"
	EventStop  = "onStop"
)

// Behavior is the per-type logic attached to a node. Any value may be a
// behavior; the engine discovers what it can do through the capability
// interfaces below.
type Behavior any

// Executor is implemented by behaviors that compute on every step.
type Executor interface {
	OnExecute(ctx Context) error
}

// ActionHandler is implemented by behaviors that react to events.
type ActionHandler interface {
	OnAction(ctx Context, action string, slot int) error
}

// Initializer creates the slots and properties of a freshly created node.
type Initializer interface {
	Init(n *Node)
}

// PropertyChangeHandler observes property writes. Returning false reverts
// the write.
type PropertyChangeHandler interface {
	OnPropertyChanged(n *Node, name string, value, prev any) bool
}

// ConnectionChangeHandler observes links being attached or detached.
type ConnectionChangeHandler interface {
	OnConnectionsChange(n *Node, kind SlotKind, slot int, connected bool, link *Link)
}

// InputConnector may veto links arriving on one of its inputs.
type InputConnector interface {
	OnConnectInput(n *Node, slot int, outType SlotType, origin *Node, originSlot int) bool
}

// OutputConnector may veto links leaving one of its outputs.
type OutputConnector interface {
	OnConnectOutput(n *Node, slot int, inType SlotType, target *Node, targetSlot int) bool
}

// BeforeInputConnector may redirect an incoming link to another input.
type BeforeInputConnector interface {
	OnBeforeConnectInput(n *Node, slot int) int
}

// Lifecycle observes graph membership.
type Lifecycle interface {
	OnAdded(n *Node, g *Graph)
	OnRemoved(n *Node, g *Graph)
}

// GraphEventHandler receives events broadcast with SendEventToAllNodes,
// including EventStart and EventStop.
type GraphEventHandler interface {
	OnGraphEvent(ctx Context, event string) error
}

// Configurer runs after a node was restored from serialized data.
type Configurer interface {
	OnConfigure(n *Node, data NodeData)
}

// Serializer may add to a node's serialized form.
type Serializer interface {
	OnSerialize(n *Node, data *NodeData)
}
