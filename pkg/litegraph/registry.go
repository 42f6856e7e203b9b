package litegraph

import (
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/randalmurphal/litegraph/pkg/litegraph/callback"
	"github.com/randalmurphal/litegraph/pkg/litegraph/registry"
)

// Registry events, dispatched on Registry.Handlers().
const (
	// EventNodeTypeRegistered: type string, *NodeType.
	EventNodeTypeRegistered = "onNodeTypeRegistered"
	// EventNodeTypeReplaced: type string, new *NodeType, previous *NodeType.
	EventNodeTypeReplaced = "onNodeTypeReplaced"
)

// NodeType describes a registered kind of node.
type NodeType struct {
	// Type is the registry key, a slash separated path such as "math/sum".
	Type string
	// Title is the default node title.
	Title       string
	Description string
	// Priority, when non-zero, overrides the priority of every instance in
	// the execution order.
	Priority int
	// New returns a fresh behavior for one node instance. A nil New
	// creates bare nodes.
	New func() any

	revision int64
}

// Category returns the path of Type before its last slash, or "".
func (t *NodeType) Category() string {
	if i := strings.LastIndex(t.Type, "/"); i != -1 {
		return t.Type[:i]
	}
	return ""
}

// Registry maps type names to node types. It is safe for concurrent use.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	types    *registry.Registry[string, *NodeType]
	handlers *callback.Handler
	revision atomic.Int64
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    registry.New[string, *NodeType](),
		handlers: callback.New(),
	}
}

// Handlers returns the dispatcher for registry events.
func (r *Registry) Handlers() *callback.Handler { return r.handlers }

// Register adds t, replacing any type registered under the same name.
// Nodes of a replaced type are rebuilt by Graph.RefreshNodeTypes.
func (r *Registry) Register(t NodeType) error {
	if t.Type == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidNodeType)
	}
	if strings.HasPrefix(t.Type, "/") || strings.HasSuffix(t.Type, "/") {
		return fmt.Errorf("%w: malformed type path %q", ErrInvalidNodeType, t.Type)
	}
	if t.Title == "" {
		t.Title = t.Type[strings.LastIndex(t.Type, "/")+1:]
	}
	t.revision = r.revision.Add(1)

	nt := &t
	prev, replaced := r.types.Put(t.Type, nt)
	if replaced {
		r.handlers.Dispatch(EventNodeTypeReplaced, nil, t.Type, nt, prev)
	}
	r.handlers.Dispatch(EventNodeTypeRegistered, nil, t.Type, nt)
	return nil
}

// Unregister removes a type.
func (r *Registry) Unregister(typ string) error {
	if !r.types.Delete(typ) {
		return fmt.Errorf("%w: %s", ErrUnknownNodeType, typ)
	}
	return nil
}

// Clear removes every type.
func (r *Registry) Clear() { r.types.Clear() }

// Lookup returns the type registered under typ.
func (r *Registry) Lookup(typ string) (*NodeType, bool) { return r.types.Get(typ) }

// Has reports whether typ is registered.
func (r *Registry) Has(typ string) bool { return r.types.Has(typ) }

// Types returns the registered type names in sorted order.
func (r *Registry) Types() []string { return r.types.Keys() }

// Categories returns the distinct categories in sorted order. Types at
// the root contribute the empty category.
func (r *Registry) Categories() []string {
	seen := make(map[string]bool)
	r.types.Range(func(_ string, t *NodeType) bool {
		seen[t.Category()] = true
		return true
	})
	cats := make([]string, 0, len(seen))
	for c := range seen {
		cats = append(cats, c)
	}
	slices.Sort(cats)
	return cats
}

// InCategory returns the types whose category is cat, sorted by name.
func (r *Registry) InCategory(cat string) []*NodeType {
	return r.types.Filter(func(_ string, t *NodeType) bool { return t.Category() == cat })
}

// CreateNode instantiates a node of type typ. An empty title uses the
// type's title. A panicking constructor is reported as an error.
func (r *Registry) CreateNode(typ, title string) (n *Node, err error) {
	t, ok := r.types.Get(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNodeType, typ)
	}
	defer func() {
		if p := recover(); p != nil {
			n = nil
			err = fmt.Errorf("create node %s: panic: %v\n%s", typ, p, debug.Stack())
		}
	}()

	if title == "" {
		title = t.Title
	}
	var b Behavior
	if t.New != nil {
		b = t.New()
	}
	n = NewNodeWithBehavior(title, b)
	n.Type = t.Type
	n.class = t
	n.dispatch(EventNodeCreated)
	return n, nil
}
