package litegraph

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/litegraph/pkg/litegraph/snapshot"
)

func historyGraph(t *testing.T, opts ...Option) *Graph {
	t.Helper()
	s := settingsWith(func(s *Settings) {
		s.HistoryEnabled = true
	})
	return newTestGraph(t, append([]Option{WithSettings(s)}, opts...)...)
}

// TestHistory_Disabled tests nothing is recorded by default.
func TestHistory_Disabled(t *testing.T) {
	g := newTestGraph(t)
	mustAdd(t, g, "basic/source")

	assert.Zero(t, g.HistoryLen())
	assert.Equal(t, -1, g.HistoryPosition())
	assert.ErrorIs(t, g.HistoryBack(testCtx(), 1), ErrNoHistory)
}

// TestHistory_BackForward tests undo and redo of structural changes.
func TestHistory_BackForward(t *testing.T) {
	g := historyGraph(t)
	require.Equal(t, 1, g.HistoryLen())

	src := mustAdd(t, g, "basic/source")
	sum := mustAdd(t, g, "math/sum")
	mustConnect(t, src, 0, sum, 0)
	require.Equal(t, 4, g.HistoryLen())
	require.Equal(t, 3, g.HistoryPosition())

	require.NoError(t, g.HistoryBack(testCtx(), 1))
	assert.Len(t, g.Nodes(), 2)
	assert.Empty(t, g.Links())
	assert.Equal(t, 2, g.HistoryPosition())

	require.NoError(t, g.HistoryBack(testCtx(), 2))
	assert.Empty(t, g.Nodes())

	require.NoError(t, g.HistoryForward(testCtx(), 3))
	assert.Len(t, g.Nodes(), 2)
	require.Len(t, g.Links(), 1)
	restored := g.NodeByID(sum.ID)
	require.NotNil(t, restored)
	assert.NotSame(t, sum, restored)
	assert.True(t, restored.IsInputConnected(0))
	assert.Equal(t, 4, g.HistoryLen())
}

// TestHistory_OutOfRange tests moves past either end.
func TestHistory_OutOfRange(t *testing.T) {
	g := historyGraph(t)
	mustAdd(t, g, "basic/source")

	err := g.HistoryForward(testCtx(), 1)
	var he *HistoryError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, "forward", he.Op)
	assert.ErrorIs(t, err, ErrNoHistory)

	assert.ErrorIs(t, g.HistoryBack(testCtx(), 5), ErrNoHistory)
	assert.Len(t, g.Nodes(), 1)
	assert.Equal(t, 1, g.HistoryPosition())
}

// TestHistory_NewChangeTruncatesRedo tests that redo entries are dropped.
func TestHistory_NewChangeTruncatesRedo(t *testing.T) {
	g := historyGraph(t)
	mustAdd(t, g, "basic/source")
	mustAdd(t, g, "basic/source")
	require.NoError(t, g.HistoryBack(testCtx(), 1))

	mustAdd(t, g, "math/sum")

	assert.Equal(t, 3, g.HistoryLen())
	assert.Equal(t, 2, g.HistoryPosition())
	assert.ErrorIs(t, g.HistoryForward(testCtx(), 1), ErrNoHistory)
	assert.Len(t, g.FindNodesByType("math/sum"), 1)
}

// TestHistory_Eviction tests the snapshot bound.
func TestHistory_Eviction(t *testing.T) {
	g := newTestGraph(t, WithSettings(settingsWith(func(s *Settings) {
		s.HistoryEnabled = true
		s.HistoryMaxSave = 3
	})))
	for range 5 {
		mustAdd(t, g, "basic/source")
	}

	assert.Equal(t, 3, g.HistoryLen())
	require.NoError(t, g.HistoryBack(testCtx(), 2))
	assert.Len(t, g.Nodes(), 3)
}

// TestHistory_VersionMonotonic tests undo never moves the version backwards.
func TestHistory_VersionMonotonic(t *testing.T) {
	g := historyGraph(t)
	mustAdd(t, g, "basic/source")
	mustAdd(t, g, "basic/source")
	v := g.Version()

	require.NoError(t, g.HistoryBack(testCtx(), 1))
	assert.Greater(t, g.Version(), v)
}

// TestHistory_Load tests showing a snapshot without moving the position.
func TestHistory_Load(t *testing.T) {
	g := historyGraph(t)
	mustAdd(t, g, "basic/source")
	mustAdd(t, g, "basic/source")

	require.NoError(t, g.HistoryLoad(testCtx(), 0))
	assert.Empty(t, g.Nodes())
	assert.Equal(t, 2, g.HistoryPosition())
	assert.Equal(t, 3, g.HistoryLen())

	assert.ErrorIs(t, g.HistoryLoad(testCtx(), 9), ErrNoHistory)
}

// TestHistory_ConfigureResets tests loading a graph starts a new history.
func TestHistory_ConfigureResets(t *testing.T) {
	g := historyGraph(t)
	mustAdd(t, g, "basic/source")
	data := g.Serialize()
	mustAdd(t, g, "basic/source")

	require.NoError(t, g.Configure(data, false))

	assert.Equal(t, 1, g.HistoryLen())
	assert.Equal(t, 0, g.HistoryPosition())
	assert.Len(t, g.Nodes(), 1)
}

// TestHistory_ConfigureKeepOld tests merging records a single snapshot.
func TestHistory_ConfigureKeepOld(t *testing.T) {
	g := historyGraph(t)
	other := newTestGraph(t)
	mustAdd(t, other, "basic/source")
	data := other.Serialize()
	data.Nodes[0].ID = 50

	require.NoError(t, g.Configure(data, true))

	assert.Equal(t, 2, g.HistoryLen())
	assert.NotNil(t, g.NodeByID(50))
}

// TestHistory_ClosedStore tests store failures surface as HistoryError.
func TestHistory_ClosedStore(t *testing.T) {
	store := snapshot.NewMemoryStore()
	g := historyGraph(t, WithHistoryStore(store))
	mustAdd(t, g, "basic/source")
	require.NoError(t, store.Close())

	err := g.HistoryBack(testCtx(), 1)
	var he *HistoryError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, "back", he.Op)
	assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
	assert.Equal(t, 1, g.HistoryPosition())
}

// TestHistory_SQLiteStore tests undo through a persistent store.
func TestHistory_SQLiteStore(t *testing.T) {
	store, err := snapshot.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	g := historyGraph(t, WithHistoryStore(store), WithID("sqlite-graph"))
	mustAdd(t, g, "basic/source")
	mustAdd(t, g, "math/sum")

	infos, err := store.List(testCtx(), "sqlite-graph")
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "baseline", infos[0].Action)
	assert.Equal(t, "nodeAdd", infos[2].Action)

	require.NoError(t, g.HistoryBack(testCtx(), 1))
	assert.Len(t, g.Nodes(), 1)
}

// TestDirtyTracking tests MarkSaved and IsDirty.
func TestDirtyTracking(t *testing.T) {
	g := newTestGraph(t)
	assert.False(t, g.IsDirty())
	assert.Equal(t, -1, g.SavedVersion())

	mustAdd(t, g, "basic/source")
	assert.True(t, g.IsDirty())

	g.MarkSaved()
	assert.False(t, g.IsDirty())
	assert.Equal(t, g.Version(), g.SavedVersion())

	g.Clear()
	assert.False(t, g.IsDirty())
	assert.Equal(t, -1, g.Version())
}

// TestHistory_ConnectSnapshotOrder tests the snapshot saved for a connect
// carries the execution order computed for the new link.
func TestHistory_ConnectSnapshotOrder(t *testing.T) {
	store := snapshot.NewMemoryStore()
	g := historyGraph(t, WithHistoryStore(store))
	sum := mustAdd(t, g, "math/sum")
	src := mustAdd(t, g, "basic/source")
	require.Equal(t, 0, sum.Order)

	mustConnect(t, src, 0, sum, 0)
	require.Equal(t, 1, sum.Order)

	infos, err := store.List(testCtx(), g.ID())
	require.NoError(t, err)
	last := infos[len(infos)-1]
	require.Equal(t, "connect", last.Action)
	raw, err := store.Load(testCtx(), g.ID(), last.Seq)
	require.NoError(t, err)

	var data GraphData
	require.NoError(t, json.Unmarshal(raw, &data))
	orders := make(map[NodeID]int)
	for _, nd := range data.Nodes {
		orders[nd.ID] = nd.Order
	}
	assert.Equal(t, map[NodeID]int{src.ID: 0, sum.ID: 1}, orders)
}
