package litegraph

import (
	"cmp"
	"slices"
)

// titleHeight is the vertical room Arrange leaves for node titles.
const titleHeight = 30

// ComputeExecutionOrder sorts the nodes so that data providers come before
// their consumers.
//
// Nodes without linked inputs start the order; a node follows once every
// link reaching it was visited. Nodes left over by cycles are appended in
// insertion order. The result is then stably sorted by priority, lowest
// first, and every node's Order is set to its final index. With
// onlyExecutable, nodes that cannot execute are left out. With
// assignLevels, roots get level 1 and every other node one more than its
// deepest visited parent.
func (g *Graph) ComputeExecutionOrder(onlyExecutable, assignLevels bool) []*Node {
	pending := make(map[NodeID]bool, len(g.nodes))
	remaining := make(map[NodeID]int, len(g.nodes))
	var queue []*Node

	for _, n := range g.nodes {
		if onlyExecutable && !n.canExecute() {
			continue
		}
		pending[n.ID] = true
		linked := 0
		for _, in := range n.Inputs {
			if in != nil && in.Link != nil {
				linked++
			}
		}
		if linked == 0 {
			queue = append(queue, n)
			if assignLevels {
				n.level = 1
			}
			continue
		}
		remaining[n.ID] = linked
		if assignLevels {
			n.level = 0
		}
	}

	order := make([]*Node, 0, len(pending))
	visited := make(map[LinkID]bool)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		delete(pending, n.ID)

		for _, out := range n.Outputs {
			for _, id := range out.Links {
				l := g.links[id]
				if l == nil || visited[id] {
					continue
				}
				visited[id] = true
				t := g.NodeByID(l.TargetID)
				if t == nil || !pending[t.ID] {
					continue
				}
				if assignLevels && (t.level == 0 || t.level <= n.level) {
					t.level = n.level + 1
				}
				remaining[t.ID]--
				if remaining[t.ID] == 0 {
					queue = append(queue, t)
				}
			}
		}
	}

	if len(pending) > 0 {
		for _, n := range g.nodes {
			if pending[n.ID] {
				order = append(order, n)
			}
		}
		g.logger.Debug("execution order contains cycles", "nodes_in_cycles", len(pending))
	}

	for i, n := range order {
		n.Order = i
	}
	slices.SortStableFunc(order, func(a, b *Node) int {
		return cmp.Compare(a.effectivePriority(), b.effectivePriority())
	})
	for i, n := range order {
		n.Order = i
	}
	return order
}

// UpdateExecutionOrder recomputes the cached order. Topology changes call
// it; call it after changing node priorities. Registering or removing
// onExecute handlers refreshes the executable set on its own.
func (g *Graph) UpdateExecutionOrder() {
	g.nodesInOrder = g.ComputeExecutionOrder(false, false)
	g.refreshExecutable()
}

func (g *Graph) refreshExecutable() {
	g.executableStale = false
	g.nodesExecutable = make([]*Node, 0, len(g.nodesInOrder))
	for _, n := range g.nodesInOrder {
		if n.canExecute() {
			g.nodesExecutable = append(g.nodesExecutable, n)
		}
	}
}

// NodesInOrder returns the cached execution order of all nodes.
func (g *Graph) NodesInOrder() []*Node { return slices.Clone(g.nodesInOrder) }

// NodesExecutable returns the cached execution order of the nodes that
// can execute.
func (g *Graph) NodesExecutable() []*Node {
	if g.executableStale {
		g.refreshExecutable()
	}
	return slices.Clone(g.nodesExecutable)
}

// AncestorOptions filter Ancestors. Empty lists do not filter.
type AncestorOptions struct {
	// ModesSkip excludes nodes in these modes. Excluded nodes are not
	// crossed either.
	ModesSkip []Mode
	// ModesOnly keeps only nodes in these modes.
	ModesOnly []Mode
	// TypesSkip ignores input links of these types.
	TypesSkip []SlotType
	// TypesOnly follows only input links of these types.
	TypesOnly []SlotType
}

// Ancestors returns the nodes n transitively reads from, walking input
// links breadth first, sorted by Order. n itself is not included.
func (g *Graph) Ancestors(n *Node, opts AncestorOptions) []*Node {
	if n == nil {
		return nil
	}
	var ancestors []*Node
	seen := map[NodeID]bool{}
	queue := []*Node{n}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur.ID] {
			continue
		}
		seen[cur.ID] = true

		if cur != n {
			if len(opts.ModesSkip) > 0 && slices.Contains(opts.ModesSkip, cur.Mode) {
				continue
			}
			if len(opts.ModesOnly) > 0 && !slices.Contains(opts.ModesOnly, cur.Mode) {
				continue
			}
			ancestors = append(ancestors, cur)
		}

		for i, in := range cur.Inputs {
			src := cur.InputNode(i)
			if src == nil || seen[src.ID] {
				continue
			}
			if len(opts.TypesSkip) > 0 && slices.Contains(opts.TypesSkip, in.Type) {
				continue
			}
			if len(opts.TypesOnly) > 0 && !slices.Contains(opts.TypesOnly, in.Type) {
				continue
			}
			queue = append(queue, src)
		}
	}

	slices.SortStableFunc(ancestors, func(a, b *Node) int { return cmp.Compare(a.Order, b.Order) })
	return ancestors
}

// Arrange lays the nodes out in columns by level, margin apart. With
// vertical the columns become rows.
func (g *Graph) Arrange(margin float64, vertical bool) {
	if margin <= 0 {
		margin = 100
	}
	var columns [][]*Node
	for _, n := range g.ComputeExecutionOrder(false, true) {
		col := max(n.level, 1)
		for len(columns) <= col {
			columns = append(columns, nil)
		}
		columns[col] = append(columns[col], n)
	}

	along, across := 0, 1
	if vertical {
		along, across = 1, 0
	}
	x := margin
	for _, column := range columns {
		if len(column) == 0 {
			continue
		}
		widest := 100.0
		y := margin + titleHeight
		for _, n := range column {
			n.Pos[along] = x
			n.Pos[across] = y
			widest = max(widest, n.Size[along])
			y += n.Size[across] + margin + titleHeight
		}
		x += widest + margin
	}
	g.changed("arrange", true)
}
