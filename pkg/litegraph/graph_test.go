package litegraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/litegraph/pkg/litegraph/callback"
)

// TestGraph_AddAssignsIDs tests sequential ids and reassignment of taken ids.
func TestGraph_AddAssignsIDs(t *testing.T) {
	g := newTestGraph(t)
	a := mustAdd(t, g, "basic/source")
	b := mustAdd(t, g, "basic/source")
	assert.Equal(t, NodeID(1), a.ID)
	assert.Equal(t, NodeID(2), b.ID)

	dup := NewNode("dup")
	dup.ID = a.ID
	require.NoError(t, g.Add(dup))
	assert.Equal(t, NodeID(3), dup.ID)
	assert.Same(t, a, g.NodeByID(1))

	high := NewNode("high")
	high.ID = 40
	require.NoError(t, g.Add(high))
	assert.Equal(t, NodeID(40), high.ID)
	assert.Equal(t, NodeID(41), mustAdd(t, g, "basic/source").ID)
}

// TestGraph_AddErrors tests membership and size limits.
func TestGraph_AddErrors(t *testing.T) {
	g := newTestGraph(t, WithSettings(settingsWith(func(s *Settings) {
		s.MaxNodes = 2
	})))
	n := mustAdd(t, g, "basic/source")

	assert.NoError(t, g.Add(n))
	assert.Len(t, g.Nodes(), 1)

	other := newTestGraph(t)
	assert.ErrorIs(t, other.Add(n), ErrAlreadyInGraph)
	assert.ErrorIs(t, g.Add(nil), ErrNodeNotFound)

	mustAdd(t, g, "basic/source")
	assert.ErrorIs(t, g.Add(NewNode("third")), ErrTooManyNodes)
}

// TestGraph_AddAlignsToGrid tests positions snap to the grid on insertion.
func TestGraph_AddAlignsToGrid(t *testing.T) {
	g := newTestGraph(t)
	n := NewNode("n")
	n.Pos = [2]float64{13, 27}
	require.NoError(t, g.Add(n))
	assert.Equal(t, [2]float64{10, 30}, n.Pos)

	g.Config()[ConfigAlignToGrid] = false
	m := NewNode("m")
	m.Pos = [2]float64{13, 27}
	require.NoError(t, g.Add(m))
	assert.Equal(t, [2]float64{13, 27}, m.Pos)
}

// TestGraph_Remove tests removal disconnects the node.
func TestGraph_Remove(t *testing.T) {
	g := newTestGraph(t)
	src := mustAdd(t, g, "basic/source")
	sum := mustAdd(t, g, "math/sum")
	mustConnect(t, src, 0, sum, 0)
	var removed []*Node
	g.Handlers().Register(EventNodeRemoved, func(_ callback.Call, args ...any) (any, error) {
		removed = append(removed, args[0].(*Node))
		return nil, nil
	})

	require.True(t, g.Remove(src))

	assert.Nil(t, g.NodeByID(src.ID))
	assert.Nil(t, src.Graph())
	assert.False(t, sum.IsInputConnected(0))
	assert.Empty(t, g.Links())
	assert.Equal(t, []*Node{src}, removed)
	assert.Equal(t, []NodeID{sum.ID}, ids(g.NodesInOrder()))
	assert.False(t, g.Remove(src))
	assert.False(t, g.Remove(nil))
}

// TestGraph_RemoveLink tests removing a link by id.
func TestGraph_RemoveLink(t *testing.T) {
	g := newTestGraph(t)
	src := mustAdd(t, g, "basic/source")
	sum := mustAdd(t, g, "math/sum")
	l := mustConnect(t, src, 0, sum, 1)

	assert.Same(t, l, g.Link(l.ID))
	assert.True(t, g.RemoveLink(l.ID))
	assert.Nil(t, g.Link(l.ID))
	assert.False(t, sum.IsInputConnected(1))
	assert.False(t, src.IsAnyOutputConnected())
	assert.False(t, g.RemoveLink(l.ID))
}

// TestGraph_Find tests lookups by type and title.
func TestGraph_Find(t *testing.T) {
	g := newTestGraph(t)
	a := mustAdd(t, g, "math/sum")
	b := mustAdd(t, g, "math/sum")
	src := mustAdd(t, g, "basic/source")
	b.Title = "second"

	assert.Equal(t, []*Node{a, b}, g.FindNodesByType("MATH/SUM"))
	assert.Equal(t, []*Node{src}, g.FindNodesByType("basic/source"))
	assert.Empty(t, g.FindNodesByType("missing"))
	assert.Same(t, b, g.FindNodeByTitle("second"))
	assert.Equal(t, []*Node{a}, g.FindNodesByTitle("sum"))
	assert.Nil(t, g.FindNodeByTitle("none"))
}

// TestGraph_AutoConnectNodes tests wiring every output to matching inputs.
func TestGraph_AutoConnectNodes(t *testing.T) {
	g := newTestGraph(t)
	src := mustAdd(t, g, "basic/source")
	sum := mustAdd(t, g, "math/sum")

	links := g.AutoConnectNodes(src, sum, false)
	require.Len(t, links, 1)
	assert.Equal(t, 0, links[0].TargetSlot)

	assert.Empty(t, g.AutoConnectNodes(src, sum, false))

	links = g.AutoConnectNodes(src, sum, true)
	require.Len(t, links, 1)
	assert.Equal(t, 1, links[0].TargetSlot)

	sink := mustAdd(t, g, "events/sink")
	assert.Empty(t, g.AutoConnectNodes(sum, sink, false))
	assert.Nil(t, g.AutoConnectNodes(nil, sum, false))
}

// TestGraph_Groups tests group storage and membership.
func TestGraph_Groups(t *testing.T) {
	g := newTestGraph(t)
	inside := mustAdd(t, g, "basic/source")
	outside := mustAdd(t, g, "basic/source")
	inside.Pos = [2]float64{20, 20}
	outside.Pos = [2]float64{400, 400}
	gr := NewGroup("")
	assert.Equal(t, "Group", gr.Title)

	g.AddGroup(gr)

	assert.Equal(t, []*Group{gr}, g.Groups())
	assert.Equal(t, []*Node{inside}, g.NodesInGroup(gr))
	assert.True(t, g.RemoveGroup(gr))
	assert.False(t, g.RemoveGroup(gr))
	assert.Empty(t, g.Groups())
}

// TestGraph_IO tests graph-level inputs and outputs.
func TestGraph_IO(t *testing.T) {
	g := newTestGraph(t)
	var renamed []any
	g.Handlers().Register(EventInputRenamed, func(_ callback.Call, args ...any) (any, error) {
		renamed = args
		return nil, nil
	})

	assert.True(t, g.AddInput("speed", "number", 1.0))
	assert.False(t, g.AddInput("speed", "string", nil))
	assert.True(t, g.AddInput("angle", "number", nil))

	g.SetInputData("speed", 3.0)
	g.SetInputData("unknown", 1)
	assert.Equal(t, 3.0, g.InputData("speed"))
	assert.Nil(t, g.InputData("unknown"))

	require.NoError(t, g.RenameInput("speed", "velocity"))
	assert.Equal(t, []any{"speed", "velocity"}, renamed)
	assert.ErrorIs(t, g.RenameInput("velocity", "angle"), ErrDuplicateName)
	assert.ErrorIs(t, g.RenameInput("speed", "x"), ErrSlotNotFound)

	require.NoError(t, g.ChangeInputType("angle", "string"))
	assert.ErrorIs(t, g.ChangeInputType("missing", "string"), ErrSlotNotFound)

	assert.Equal(t, []GraphIO{
		{Name: "angle", Type: "string"},
		{Name: "velocity", Type: "number", Value: 3.0},
	}, g.Inputs())

	assert.True(t, g.RemoveInput("angle"))
	assert.False(t, g.RemoveInput("angle"))

	assert.True(t, g.AddOutput("result", "number", nil))
	g.SetOutputData("result", 9.0)
	assert.Equal(t, 9.0, g.OutputData("result"))
	require.NoError(t, g.RenameOutput("result", "total"))
	require.NoError(t, g.ChangeOutputType("total", "NUMBER"))
	assert.Equal(t, []GraphIO{{Name: "total", Type: "number", Value: 9.0}}, g.Outputs())
	assert.True(t, g.RemoveOutput("total"))
	assert.Empty(t, g.Outputs())
}

// TestGraph_VersionAndEvents tests change notifications.
func TestGraph_VersionAndEvents(t *testing.T) {
	g := newTestGraph(t)
	assert.Equal(t, -1, g.Version())
	var actions []any
	g.Handlers().Register(EventGraphChanged, func(_ callback.Call, args ...any) (any, error) {
		actions = append(actions, args[0])
		return nil, nil
	})
	var added []*Node
	g.Handlers().Register(EventNodeAdded, func(_ callback.Call, args ...any) (any, error) {
		added = append(added, args[0].(*Node))
		return nil, nil
	})

	n := mustAdd(t, g, "basic/source")

	assert.Equal(t, 0, g.Version())
	assert.Equal(t, []*Node{n}, added)
	assert.Equal(t, []any{"nodeAdd"}, actions)
}

// TestGraph_ClearNotifiesNodes tests nodes see their removal on Clear.
func TestGraph_ClearNotifiesNodes(t *testing.T) {
	g := newTestGraph(t)
	n := mustAdd(t, g, "basic/source")
	g.AddGroup(NewGroup("g"))
	g.AddInput("x", "number", nil)
	var removedFrom *Graph
	n.Handlers().Register(EventRemoved, func(_ callback.Call, args ...any) (any, error) {
		removedFrom = args[0].(*Graph)
		return nil, nil
	})

	g.Clear()

	assert.Same(t, g, removedFrom)
	assert.Nil(t, n.Graph())
	assert.Empty(t, g.Nodes())
	assert.Empty(t, g.Groups())
	assert.Empty(t, g.Inputs())
	assert.Equal(t, 0, g.Iteration())
	assert.Equal(t, true, g.Config()[ConfigAlignToGrid])
}
