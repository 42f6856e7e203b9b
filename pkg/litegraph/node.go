package litegraph

import (
	"maps"
	"reflect"
	"slices"

	"github.com/randalmurphal/litegraph/pkg/litegraph/callback"
)

// Default geometry for new nodes.
var (
	DefaultNodePos  = [2]float64{100, 100}
	DefaultNodeSize = [2]float64{140, 26}
)

// Input is an input slot. It holds at most one link.
type Input struct {
	Name  string   `json:"name"`
	Type  SlotType `json:"type"`
	Link  *LinkID  `json:"link"`
	Label string   `json:"label,omitempty"`
}

// Output is an output slot. It may feed any number of links.
type Output struct {
	Name  string   `json:"name"`
	Type  SlotType `json:"type"`
	Links []LinkID `json:"links"`
	Label string   `json:"label,omitempty"`

	data any
}

func (in *Input) clone() *Input {
	c := *in
	if in.Link != nil {
		id := *in.Link
		c.Link = &id
	}
	return &c
}

func (out *Output) clone() *Output {
	c := *out
	c.Links = slices.Clone(out.Links)
	c.data = nil
	return &c
}

func (in *Input) slotName() string    { return in.Name }
func (in *Input) slotType() SlotType  { return in.Type }
func (out *Output) slotName() string  { return out.Name }
func (out *Output) slotType() SlotType { return out.Type }

// PropertyInfo describes a declared property.
type PropertyInfo struct {
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Default any    `json:"default,omitempty"`
}

type pendingAction struct {
	action     string
	param      any
	actionCall string
	slot       int
}

// Node is a vertex of a graph: typed slots, properties, a run mode and an
// optional behavior supplying its logic.
//
// A node belongs to at most one graph. Slot and property fields are
// exported for inspection; mutate them through the methods so hooks fire
// and links stay consistent.
type Node struct {
	ID       NodeID
	Type     string
	Title    string
	Mode     Mode
	Order    int
	Priority int

	Pos   [2]float64
	Size  [2]float64
	Flags map[string]any

	Inputs  []*Input
	Outputs []*Output

	Properties     map[string]any
	PropertiesInfo []PropertyInfo
	WidgetsValues  []any

	Color    string
	BgColor  string
	BoxColor string
	Shape    any

	graph    *Graph
	behavior Behavior
	handlers *callback.Handler
	class    *NodeType

	level int

	pending          []pendingAction
	executed         bool
	execVersion      int
	actionCall       string
	executeTriggered int
	actionTriggered  int

	placeholder *NodeData
}

// NewNode creates a bare node with no behavior.
func NewNode(title string) *Node {
	n := &Node{
		Title:      title,
		Mode:       Always,
		Pos:        DefaultNodePos,
		Size:       DefaultNodeSize,
		Flags:      make(map[string]any),
		Properties: make(map[string]any),
		handlers:   callback.New(),
	}
	n.handlers.Watch(func(name string) {
		if name == EventExecute && n.graph != nil {
			n.graph.executableStale = true
		}
	})
	return n
}

// NewNodeWithBehavior creates a node driven by b. Initializer behaviors
// get to declare slots and properties before the node is returned.
func NewNodeWithBehavior(title string, b Behavior) *Node {
	n := NewNode(title)
	n.behavior = b
	if init, ok := b.(Initializer); ok {
		init.Init(n)
	}
	return n
}

// Behavior returns the logic attached to the node, or nil.
func (n *Node) Behavior() Behavior { return n.behavior }

// Graph returns the graph the node belongs to, or nil.
func (n *Node) Graph() *Graph { return n.graph }

// Handlers returns the dispatcher every node hook goes through.
func (n *Node) Handlers() *callback.Handler { return n.handlers }

// Level returns the depth assigned by the last order computation that
// asked for levels. Root nodes have level 1.
func (n *Node) Level() int { return n.level }

// HasErrors reports whether the node is a placeholder for a type that was
// unknown when the graph was loaded.
func (n *Node) HasErrors() bool { return n.placeholder != nil }

// ExecuteTriggered returns the decaying counter set when the node executes.
func (n *Node) ExecuteTriggered() int { return n.executeTriggered }

// ActionTriggered returns the decaying counter set when the node handles
// an action.
func (n *Node) ActionTriggered() int { return n.actionTriggered }

// LastActionCall returns the token of the last execution or action.
func (n *Node) LastActionCall() string { return n.actionCall }

// PendingActions returns the number of queued deferred actions.
func (n *Node) PendingActions() int { return len(n.pending) }

// classTitle returns the registered title of the node's type.
func (n *Node) classTitle() string {
	if n.class != nil {
		return n.class.Title
	}
	return ""
}

// effectivePriority is the type priority when set, else the instance one.
func (n *Node) effectivePriority() int {
	if n.class != nil && n.class.Priority != 0 {
		return n.class.Priority
	}
	return n.Priority
}

func (n *Node) canExecute() bool {
	if _, ok := n.behavior.(Executor); ok {
		return true
	}
	return n.handlers.Has(EventExecute)
}

func (n *Node) canAction() bool {
	if _, ok := n.behavior.(ActionHandler); ok {
		return true
	}
	return n.handlers.Has(EventAction)
}

func (n *Node) settings() Settings {
	if n.graph != nil {
		return n.graph.settings
	}
	return DefaultSettings()
}

// dispatch runs a hook with no behavior default and returns the merged value.
func (n *Node) dispatch(name string, args ...any) any {
	v, _ := n.handlers.Dispatch(name, nil, args...)
	return v
}

// dispatchVeto runs a hook whose false result cancels an operation.
func (n *Node) dispatchVeto(name string, def callback.DefaultFunc, args ...any) bool {
	v, _ := n.handlers.Dispatch(name, def, args...)
	if b, ok := v.(bool); ok && !b {
		return false
	}
	return true
}

// AddProperty declares a property with its default value. An existing
// value is kept.
func (n *Node) AddProperty(name string, def any, typ string) {
	n.PropertiesInfo = append(n.PropertiesInfo, PropertyInfo{Name: name, Type: typ, Default: def})
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	if _, ok := n.Properties[name]; !ok {
		n.Properties[name] = def
	}
}

// SetProperty writes a property and notifies onPropertyChanged. Writing
// the current value does nothing. A false hook result reverts the write;
// SetProperty reports whether the new value was kept.
func (n *Node) SetProperty(name string, value any) bool {
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	prev, had := n.Properties[name]
	if had && reflect.DeepEqual(prev, value) {
		return true
	}
	n.Properties[name] = value

	keep := n.dispatchVeto(EventPropertyChanged, func(...any) (any, error) {
		if h, ok := n.behavior.(PropertyChangeHandler); ok {
			return h.OnPropertyChanged(n, name, value, prev), nil
		}
		return nil, nil
	}, name, value, prev)
	if keep {
		return true
	}
	if had {
		n.Properties[name] = prev
	} else {
		delete(n.Properties, name)
	}
	return false
}

// Property returns the value of a property.
func (n *Node) Property(name string) (any, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// ChangeMode switches the run mode. OnTrigger adds the onTrigger input
// and onExecuted output when missing. Unknown modes are refused.
func (n *Node) ChangeMode(m Mode) bool {
	if !m.Valid() {
		return false
	}
	if m == OnTrigger {
		n.AddOnTriggerInput()
		n.AddOnExecutedOutput()
	}
	n.Mode = m
	return true
}

// AddOnTriggerInput ensures the onTrigger event input exists and returns
// its index.
func (n *Node) AddOnTriggerInput() int {
	if i := n.FindInputSlot(TriggerInputName); i != -1 {
		return i
	}
	n.AddInput(TriggerInputName, Event)
	return len(n.Inputs) - 1
}

// AddOnExecutedOutput ensures the onExecuted action output exists and
// returns its index.
func (n *Node) AddOnExecutedOutput() int {
	if i := n.FindOutputSlot(ExecutedOutputName); i != -1 {
		return i
	}
	n.AddOutput(ExecutedOutputName, Action)
	return len(n.Outputs) - 1
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}
