package benchmarks

import (
	"context"
	"testing"

	"github.com/randalmurphal/litegraph/pkg/litegraph"
)

// fire triggers its event output on every step.
type fire struct{}

func (fire) Init(n *litegraph.Node) {
	n.AddOutput("fire", litegraph.Event)
}

func (fire) OnExecute(ctx litegraph.Context) error {
	return ctx.Node().Trigger(ctx, "fire", 1)
}

// receive counts the actions it handles.
type receive struct {
	count int
}

func (r *receive) Init(n *litegraph.Node) {
	n.AddInput("in", litegraph.Action)
}

func (r *receive) OnAction(litegraph.Context, string, int) error {
	r.count++
	return nil
}

// BenchmarkRunStep_Linear_10 steps a 10-node chain.
func BenchmarkRunStep_Linear_10(b *testing.B) {
	benchmarkRunStep(b, buildLinearGraph(10))
}

// BenchmarkRunStep_Linear_100 steps a 100-node chain.
func BenchmarkRunStep_Linear_100(b *testing.B) {
	benchmarkRunStep(b, buildLinearGraph(100))
}

// BenchmarkRunStep_Layered steps a 10x10 layered graph.
func BenchmarkRunStep_Layered(b *testing.B) {
	benchmarkRunStep(b, buildLayeredGraph(10, 10))
}

// BenchmarkRunStep_EventFanOut fires one event into 50 action handlers.
func BenchmarkRunStep_EventFanOut(b *testing.B) {
	g := litegraph.NewGraph()
	src := litegraph.NewNodeWithBehavior("fire", fire{})
	_ = g.Add(src)
	for i := 0; i < 50; i++ {
		r := litegraph.NewNodeWithBehavior("receive", &receive{})
		_ = g.Add(r)
		_, _ = src.Connect(0, r, 0)
	}
	benchmarkRunStep(b, g)
}

// BenchmarkRunStep_TriggerChain fires through 20 nodes in OnTrigger mode.
func BenchmarkRunStep_TriggerChain(b *testing.B) {
	g := litegraph.NewGraph()
	src := litegraph.NewNodeWithBehavior("fire", fire{})
	_ = g.Add(src)
	prev, slot := src, 0
	for i := 0; i < 20; i++ {
		n := litegraph.NewNodeWithBehavior("pass", pass{})
		_ = g.Add(n)
		_, _ = prev.Connect(slot, n, litegraph.EventSlot)
		prev, slot = n, n.AddOnExecutedOutput()
	}
	benchmarkRunStep(b, g)
}

func benchmarkRunStep(b *testing.B, g *litegraph.Graph) {
	b.Helper()
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = g.RunStep(ctx, 1)
	}
}
