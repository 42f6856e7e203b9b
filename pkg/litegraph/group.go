package litegraph

import (
	"math"
	"slices"
)

// Group is a titled rectangle gathering nodes for presentation. The
// engine only stores and persists groups.
type Group struct {
	Title    string     `json:"title"`
	Bounding [4]float64 `json:"bounding"`
	Color    string     `json:"color,omitempty"`
	FontSize int        `json:"font_size,omitempty"`
}

// NewGroup creates a group with the default geometry.
func NewGroup(title string) *Group {
	if title == "" {
		title = "Group"
	}
	return &Group{Title: title, Bounding: [4]float64{10, 10, 140, 80}, Color: "#AAA", FontSize: 24}
}

// Contains reports whether the position of n lies inside the group.
func (gr *Group) Contains(n *Node) bool {
	b := gr.Bounding
	return n.Pos[0] >= b[0] && n.Pos[1] >= b[1] && n.Pos[0] < b[0]+b[2] && n.Pos[1] < b[1]+b[3]
}

func (gr *Group) serialize() Group {
	c := *gr
	for i, v := range c.Bounding {
		c.Bounding[i] = math.Round(v)
	}
	return c
}

// AddGroup appends a group.
func (g *Graph) AddGroup(gr *Group) {
	g.groups = append(g.groups, gr)
	g.changed("addGroup", true)
}

// RemoveGroup removes a group and reports whether it was present.
func (g *Graph) RemoveGroup(gr *Group) bool {
	i := slices.Index(g.groups, gr)
	if i == -1 {
		return false
	}
	g.groups = slices.Delete(g.groups, i, i+1)
	g.changed("removeGroup", true)
	return true
}

// Groups returns the groups of the graph.
func (g *Graph) Groups() []*Group { return slices.Clone(g.groups) }

// NodesInGroup returns the nodes positioned inside gr, in insertion order.
func (g *Graph) NodesInGroup(gr *Group) []*Node {
	var nodes []*Node
	for _, n := range g.nodes {
		if gr.Contains(n) {
			nodes = append(nodes, n)
		}
	}
	return nodes
}
