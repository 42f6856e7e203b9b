package litegraph

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

// CurrentFormatVersion is written into serialized graphs.
const CurrentFormatVersion FormatVersion = "a0.11.0"

// FormatVersion is the version tag of a serialized graph. Older files
// store it as a number.
type FormatVersion string

// UnmarshalJSON accepts a string or a number.
func (v *FormatVersion) UnmarshalJSON(b []byte) error {
	var x any
	if err := json.Unmarshal(b, &x); err != nil {
		return err
	}
	switch t := x.(type) {
	case nil:
		*v = ""
	case string:
		*v = FormatVersion(t)
	case float64:
		*v = FormatVersion(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		return fmt.Errorf("unsupported format version %T", x)
	}
	return nil
}

// Vec2 is a position or size. It decodes from an array or from an object
// keyed "0" and "1".
type Vec2 [2]float64

// UnmarshalJSON accepts [x, y] or {"0": x, "1": y}.
func (v *Vec2) UnmarshalJSON(b []byte) error {
	var arr []float64
	if err := json.Unmarshal(b, &arr); err == nil {
		copy(v[:], arr)
		return nil
	}
	var obj map[string]float64
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("vec2: %w", err)
	}
	v[0], v[1] = obj["0"], obj["1"]
	return nil
}

// GraphData is the persisted form of a graph.
type GraphData struct {
	LastNodeID NodeID         `json:"last_node_id"`
	LastLinkID LinkID         `json:"last_link_id"`
	Nodes      []NodeData     `json:"nodes"`
	Links      []*Link        `json:"links"`
	Groups     []Group        `json:"groups"`
	Config     map[string]any `json:"config"`
	Extra      map[string]any `json:"extra"`
	Version    FormatVersion  `json:"version"`
}

// NodeData is the persisted form of a node. Keys the engine does not know
// are kept in Extra and written back unchanged.
type NodeData struct {
	ID            NodeID         `json:"id"`
	Type          string         `json:"type"`
	Pos           Vec2           `json:"pos"`
	Size          Vec2           `json:"size"`
	Flags         map[string]any `json:"flags"`
	Order         int            `json:"order"`
	Mode          Mode           `json:"mode"`
	Inputs        []*Input       `json:"inputs,omitempty"`
	Outputs       []*Output      `json:"outputs,omitempty"`
	Title         string         `json:"title,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	WidgetsValues []any          `json:"widgets_values,omitempty"`
	Color         string         `json:"color,omitempty"`
	BgColor       string         `json:"bgcolor,omitempty"`
	BoxColor      string         `json:"boxcolor,omitempty"`
	Shape         any            `json:"shape,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

type nodeDataFields NodeData

var nodeDataKeys = map[string]bool{
	"id": true, "type": true, "pos": true, "size": true, "flags": true,
	"order": true, "mode": true, "inputs": true, "outputs": true,
	"title": true, "properties": true, "widgets_values": true,
	"color": true, "bgcolor": true, "boxcolor": true, "shape": true,
}

// MarshalJSON writes the known fields followed by Extra.
func (d NodeData) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(nodeDataFields(d))
	if err != nil || len(d.Extra) == 0 {
		return b, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range d.Extra {
		if !nodeDataKeys[k] {
			m[k] = v
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the known fields and keeps the others in Extra.
func (d *NodeData) UnmarshalJSON(b []byte) error {
	var f nodeDataFields
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = NodeData(f)
	for k, v := range m {
		if nodeDataKeys[k] {
			continue
		}
		if d.Extra == nil {
			d.Extra = make(map[string]json.RawMessage)
		}
		d.Extra[k] = v
	}
	return nil
}

func (d NodeData) clone() NodeData {
	c := d
	c.Flags = cloneAnyMap(d.Flags)
	c.Properties = cloneAnyMap(d.Properties)
	c.WidgetsValues = slices.Clone(d.WidgetsValues)
	c.Inputs = cloneSlots(d.Inputs, (*Input).clone)
	c.Outputs = cloneSlots(d.Outputs, (*Output).clone)
	if d.Extra != nil {
		c.Extra = maps.Clone(d.Extra)
	}
	return c
}

func cloneSlots[S any](slots []S, clone func(S) S) []S {
	if slots == nil {
		return nil
	}
	out := make([]S, len(slots))
	for i, s := range slots {
		out[i] = clone(s)
	}
	return out
}

// Serialize returns the persisted form of the node. A placeholder returns
// the data it was loaded from. The title is omitted when it equals the
// title of the node's type.
func (n *Node) Serialize() NodeData {
	if n.placeholder != nil {
		d := n.placeholder.clone()
		d.ID = n.ID
		return d
	}
	d := NodeData{
		ID:            n.ID,
		Type:          n.Type,
		Pos:           Vec2(n.Pos),
		Size:          Vec2(n.Size),
		Flags:         cloneAnyMap(n.Flags),
		Order:         n.Order,
		Mode:          n.Mode,
		Inputs:        cloneSlots(n.Inputs, (*Input).clone),
		Outputs:       cloneSlots(n.Outputs, (*Output).clone),
		Properties:    cloneAnyMap(n.Properties),
		WidgetsValues: slices.Clone(n.WidgetsValues),
		Color:         n.Color,
		BgColor:       n.BgColor,
		BoxColor:      n.BoxColor,
		Shape:         n.Shape,
	}
	if d.Type == "" && n.class != nil {
		d.Type = n.class.Type
	}
	if n.Title != "" && n.Title != n.classTitle() {
		d.Title = n.Title
	}
	n.handlers.Dispatch(EventSerialize, func(...any) (any, error) {
		if s, ok := n.behavior.(Serializer); ok {
			s.OnSerialize(n, &d)
		}
		return nil, nil
	}, &d)
	return d
}

// Configure loads the node from its persisted form. Properties are
// written one by one through onPropertyChanged. When the graph reprocesses
// slots, the saved slots are reconciled with the ones the node declares
// and the links of the node are moved to the reconciled indices.
func (n *Node) Configure(d NodeData) {
	if n.graph == nil && d.ID != 0 {
		n.ID = d.ID
	}
	if n.Type == "" {
		n.Type = d.Type
	}
	n.Pos = [2]float64(d.Pos)
	n.Size = [2]float64(d.Size)
	if d.Flags != nil {
		n.Flags = cloneAnyMap(d.Flags)
	}
	n.Order = d.Order
	if d.Mode.Valid() {
		n.Mode = d.Mode
	}
	switch {
	case d.Title != "":
		n.Title = d.Title
	case n.classTitle() != "":
		n.Title = n.classTitle()
	}
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	for _, k := range slices.Sorted(maps.Keys(d.Properties)) {
		v := d.Properties[k]
		prev := n.Properties[k]
		n.Properties[k] = v
		n.handlers.Dispatch(EventPropertyChanged, func(...any) (any, error) {
			if h, ok := n.behavior.(PropertyChangeHandler); ok {
				h.OnPropertyChanged(n, k, v, prev)
			}
			return nil, nil
		}, k, v, prev)
	}
	if d.WidgetsValues != nil {
		n.WidgetsValues = slices.Clone(d.WidgetsValues)
	}
	n.Color, n.BgColor, n.BoxColor = d.Color, d.BgColor, d.BoxColor
	if d.Shape != nil {
		n.Shape = d.Shape
	}

	n.configureSlots(d)

	for i, in := range n.Inputs {
		if in.Link == nil {
			continue
		}
		n.notifyConnection(InputSlot, i, true, n.InputLink(i), in)
		n.dispatch(EventInputAdded, in)
	}
	for i, out := range n.Outputs {
		if len(out.Links) == 0 {
			continue
		}
		for _, id := range out.Links {
			var l *Link
			if n.graph != nil {
				l = n.graph.links[id]
			}
			n.notifyConnection(OutputSlot, i, true, l, out)
		}
		n.dispatch(EventOutputAdded, out)
	}

	n.handlers.Dispatch(EventConfigure, func(...any) (any, error) {
		if c, ok := n.behavior.(Configurer); ok {
			c.OnConfigure(n, d)
		}
		return nil, nil
	}, d)
	if n.graph != nil {
		n.graph.changed("nodeConfigure", false)
	}
}

// Serialize returns the persisted form of the graph.
func (g *Graph) Serialize() *GraphData {
	data := &GraphData{
		LastNodeID: g.lastNodeID,
		LastLinkID: g.lastLinkID,
		Nodes:      make([]NodeData, 0, len(g.nodes)),
		Links:      make([]*Link, 0, len(g.links)),
		Groups:     make([]Group, 0, len(g.groups)),
		Config:     cloneAnyMap(g.config),
		Extra:      cloneAnyMap(g.extra),
		Version:    CurrentFormatVersion,
	}
	for _, n := range g.nodes {
		data.Nodes = append(data.Nodes, n.Serialize())
	}
	for _, l := range g.Links() {
		data.Links = append(data.Links, l.clone())
	}
	for _, gr := range g.groups {
		data.Groups = append(data.Groups, gr.serialize())
	}
	g.handlers.Dispatch(EventGraphSerialize, nil, data)
	return data
}

// MarshalJSON writes the persisted form of the graph.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.Serialize())
}

// LoadJSON replaces the graph with the one encoded in b.
func (g *Graph) LoadJSON(b []byte) error {
	var data GraphData
	if err := json.Unmarshal(b, &data); err != nil {
		return fmt.Errorf("decode graph: %w", err)
	}
	return g.Configure(&data, false)
}

// Configure loads data into the graph, replacing its content unless
// keepOld is set.
//
// Nodes are created and added first, then configured, so links can
// resolve both endpoints. A node whose type is not registered becomes a
// placeholder that keeps its data and reports HasErrors; the rest of the
// graph still loads and a *ConfigureError lists the missing types.
// Loading starts a new history.
func (g *Graph) Configure(data *GraphData, keepOld bool) error {
	return g.configure(data, keepOld, false)
}

func (g *Graph) configure(data *GraphData, keepOld, restoring bool) error {
	if data == nil {
		return nil
	}
	g.holdHistory++
	if !keepOld {
		g.clear(restoring)
	}

	for _, l := range data.Links {
		if l == nil {
			g.logger.Warn("skipping empty link entry in graph data")
			continue
		}
		g.links[l.ID] = l.clone()
	}
	g.lastNodeID = max(g.lastNodeID, data.LastNodeID)
	g.lastLinkID = max(g.lastLinkID, data.LastLinkID)
	maps.Copy(g.config, data.Config)

	var unknown []string
	var errs []error
	created := make([]*Node, len(data.Nodes))
	for i, nd := range data.Nodes {
		n, err := g.registry.CreateNode(nd.Type, nd.Title)
		if err != nil {
			switch {
			case !errors.Is(err, ErrUnknownNodeType):
				errs = append(errs, err)
			case !slices.Contains(unknown, nd.Type):
				unknown = append(unknown, nd.Type)
				fallthrough
			default:
				observability.LogUnknownNodeType(g.logger, nd.Type, int(nd.ID))
			}
			n = NewNode(nd.Title)
			n.Type = nd.Type
			saved := nd.clone()
			n.placeholder = &saved
		}
		n.ID = nd.ID
		if err := g.add(n, true, false); err != nil {
			errs = append(errs, fmt.Errorf("add node %d: %w", nd.ID, err))
			continue
		}
		created[i] = n
	}
	for i, nd := range data.Nodes {
		if n := created[i]; n != nil {
			n.Configure(nd)
		}
	}

	if !keepOld {
		g.groups = nil
	}
	for _, gr := range data.Groups {
		c := gr
		g.groups = append(g.groups, &c)
	}

	g.UpdateExecutionOrder()
	g.extra = cloneAnyMap(data.Extra)
	if g.extra == nil {
		g.extra = make(map[string]any)
	}
	g.handlers.Dispatch(EventGraphConfigure, nil, data)
	g.changed("graphConfigure", false)
	g.holdHistory--

	switch {
	case restoring:
	case keepOld:
		g.saveHistory("graphConfigure")
	default:
		g.resetHistory()
	}

	if len(unknown) > 0 {
		errs = append([]error{&ConfigureError{Types: unknown}}, errs...)
	}
	return errors.Join(errs...)
}
