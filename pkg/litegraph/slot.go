package litegraph

import (
	"context"
	"slices"
)

// AddInput appends an input slot and returns it.
func (n *Node) AddInput(name string, typ SlotType) *Input {
	in := &Input{Name: name, Type: typ}
	n.Inputs = append(n.Inputs, in)
	n.dispatch(EventInputAdded, in)
	return in
}

// AddOutput appends an output slot and returns it.
func (n *Node) AddOutput(name string, typ SlotType) *Output {
	out := &Output{Name: name, Type: typ}
	n.Outputs = append(n.Outputs, out)
	n.dispatch(EventOutputAdded, out)
	return out
}

// RemoveInput disconnects and deletes an input slot. Links attached to
// later inputs are renumbered.
func (n *Node) RemoveInput(slot int) bool {
	if slot < 0 || slot >= len(n.Inputs) {
		return false
	}
	n.disconnectInput(slot, true)
	removed := n.Inputs[slot]
	n.Inputs = slices.Delete(n.Inputs, slot, slot+1)

	if n.graph != nil {
		for i := slot; i < len(n.Inputs); i++ {
			if in := n.Inputs[i]; in.Link != nil {
				if l := n.graph.links[*in.Link]; l != nil {
					l.TargetSlot--
				}
			}
		}
	}
	n.dispatch(EventInputRemoved, slot, removed)
	return true
}

// RemoveOutput disconnects and deletes an output slot. Links leaving
// later outputs are renumbered.
func (n *Node) RemoveOutput(slot int) bool {
	if slot < 0 || slot >= len(n.Outputs) {
		return false
	}
	n.disconnectOutput(slot, nil, true)
	removed := n.Outputs[slot]
	n.Outputs = slices.Delete(n.Outputs, slot, slot+1)

	if n.graph != nil {
		for i := slot; i < len(n.Outputs); i++ {
			for _, id := range n.Outputs[i].Links {
				if l := n.graph.links[id]; l != nil {
					l.OriginSlot--
				}
			}
		}
	}
	n.dispatch(EventOutputRemoved, slot, removed)
	return true
}

// FindInputSlot returns the index of the input named name, or -1.
func (n *Node) FindInputSlot(name string) int {
	return slices.IndexFunc(n.Inputs, func(in *Input) bool { return in.Name == name })
}

// FindOutputSlot returns the index of the output named name, or -1.
func (n *Node) FindOutputSlot(name string) int {
	return slices.IndexFunc(n.Outputs, func(out *Output) bool { return out.Name == name })
}

// FindInputSlotFree returns the first unlinked input whose type is not
// listed in notAccepted, or -1.
func (n *Node) FindInputSlotFree(notAccepted ...SlotType) int {
	for i, in := range n.Inputs {
		if in.Link != nil || typeExcluded(in.Type, notAccepted) {
			continue
		}
		return i
	}
	return -1
}

// FindOutputSlotFree returns the first unlinked output whose type is not
// listed in notAccepted, or -1.
func (n *Node) FindOutputSlotFree(notAccepted ...SlotType) int {
	for i, out := range n.Outputs {
		if len(out.Links) > 0 || typeExcluded(out.Type, notAccepted) {
			continue
		}
		return i
	}
	return -1
}

func typeExcluded(t SlotType, notAccepted []SlotType) bool {
	if len(notAccepted) == 0 {
		return false
	}
	for _, alt := range t.Alternatives() {
		for _, na := range notAccepted {
			if alt == na || (alt == "" && na.IsWildcard()) {
				return true
			}
		}
	}
	return false
}

// FindInputSlotByType returns the first input declaring typ, or -1.
// Types compare case-insensitively by alternative; a wildcard request
// only finds wildcard slots.
//
// With preferFree an unlinked match is preferred; an occupied match is
// returned as a fallback unless doNotUseOccupied is set.
func (n *Node) FindInputSlotByType(typ SlotType, preferFree, doNotUseOccupied bool) int {
	return findSlotByType(n.Inputs, typ, preferFree, doNotUseOccupied,
		func(in *Input) bool { return in.Link != nil })
}

// FindOutputSlotByType is FindInputSlotByType for outputs.
func (n *Node) FindOutputSlotByType(typ SlotType, preferFree, doNotUseOccupied bool) int {
	return findSlotByType(n.Outputs, typ, preferFree, doNotUseOccupied,
		func(out *Output) bool { return len(out.Links) > 0 })
}

type slotDef interface {
	slotName() string
	slotType() SlotType
}

func findSlotByType[S slotDef](slots []S, typ SlotType, preferFree, doNotUseOccupied bool, occupied func(S) bool) int {
	wanted := typ.Alternatives()
	occupiedMatch := -1
	for i, s := range slots {
		have := s.slotType().Alternatives()
		if !anyPairEqual(wanted, have) {
			continue
		}
		if preferFree && occupied(s) {
			if occupiedMatch == -1 {
				occupiedMatch = i
			}
			continue
		}
		return i
	}
	if preferFree && !doNotUseOccupied {
		return occupiedMatch
	}
	return -1
}

// anyPairEqual reports whether a and b share an alternative. Wildcards
// only match wildcards here.
func anyPairEqual(a, b []SlotType) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// ResolveInput maps an input index or name to an index, or -1 when the
// reference does not name an existing input.
func (n *Node) ResolveInput(ref any) int {
	switch r := ref.(type) {
	case int:
		if n.input(r) != nil {
			return r
		}
	case string:
		return n.FindInputSlot(r)
	}
	return -1
}

// ResolveOutput is ResolveInput for outputs.
func (n *Node) ResolveOutput(ref any) int {
	switch r := ref.(type) {
	case int:
		if n.output(r) != nil {
			return r
		}
	case string:
		return n.FindOutputSlot(r)
	}
	return -1
}

func (n *Node) input(slot int) *Input {
	if slot < 0 || slot >= len(n.Inputs) {
		return nil
	}
	return n.Inputs[slot]
}

func (n *Node) output(slot int) *Output {
	if slot < 0 || slot >= len(n.Outputs) {
		return nil
	}
	return n.Outputs[slot]
}

// InputLink returns the link feeding an input, or nil.
func (n *Node) InputLink(slot int) *Link {
	in := n.input(slot)
	if in == nil || in.Link == nil || n.graph == nil {
		return nil
	}
	return n.graph.links[*in.Link]
}

// InputNode returns the node feeding an input, or nil.
func (n *Node) InputNode(slot int) *Node {
	l := n.InputLink(slot)
	if l == nil {
		return nil
	}
	return n.graph.NodeByID(l.OriginID)
}

// OutputNodes returns the nodes fed by an output, in link order.
func (n *Node) OutputNodes(slot int) []*Node {
	out := n.output(slot)
	if out == nil || n.graph == nil {
		return nil
	}
	var nodes []*Node
	for _, id := range out.Links {
		if l := n.graph.links[id]; l != nil {
			if t := n.graph.NodeByID(l.TargetID); t != nil {
				nodes = append(nodes, t)
			}
		}
	}
	return nodes
}

// IsInputConnected reports whether an input has a link.
func (n *Node) IsInputConnected(slot int) bool {
	in := n.input(slot)
	return in != nil && in.Link != nil
}

// IsOutputConnected reports whether an output has at least one link.
func (n *Node) IsOutputConnected(slot int) bool {
	out := n.output(slot)
	return out != nil && len(out.Links) > 0
}

// IsAnyOutputConnected reports whether any output has a link.
func (n *Node) IsAnyOutputConnected() bool {
	for i := range n.Outputs {
		if n.IsOutputConnected(i) {
			return true
		}
	}
	return false
}

// SetOutputData stores v on an output and on every link leaving it.
func (n *Node) SetOutputData(slot int, v any) {
	out := n.output(slot)
	if out == nil {
		return
	}
	out.data = v
	if n.graph == nil {
		return
	}
	for _, id := range out.Links {
		if l := n.graph.links[id]; l != nil {
			l.Data = v
		}
	}
}

// SetOutputDataByName is SetOutputData addressing the output by name.
func (n *Node) SetOutputDataByName(name string, v any) {
	n.SetOutputData(n.FindOutputSlot(name), v)
}

// OutputData returns the last value written to an output.
func (n *Node) OutputData(slot int) any {
	if out := n.output(slot); out != nil {
		return out.data
	}
	return nil
}

// InputData returns the value carried by the link feeding an input.
// Action inputs carry no data and yield nil.
func (n *Node) InputData(slot int) any {
	in := n.input(slot)
	if in == nil || in.Type == Action {
		return nil
	}
	if l := n.InputLink(slot); l != nil {
		return l.Data
	}
	return nil
}

// InputDataByName is InputData addressing the input by name.
func (n *Node) InputDataByName(name string) any {
	return n.InputData(n.FindInputSlot(name))
}

// InputOrProperty returns the data of the connected input named name,
// falling back to the property of the same name.
func (n *Node) InputOrProperty(name string) any {
	if i := n.FindInputSlot(name); i != -1 && n.IsInputConnected(i) {
		return n.InputData(i)
	}
	return n.Properties[name]
}

// PullInputData executes the node feeding an input before reading it, so
// the value reflects the current step. With refreshTree the origin's own
// ancestors are recomputed first.
func (n *Node) PullInputData(ctx context.Context, slot int, refreshTree bool) (any, error) {
	in := n.input(slot)
	if in == nil || in.Type == Action {
		return nil, nil
	}
	l := n.InputLink(slot)
	if l == nil {
		return nil, nil
	}
	if origin := n.graph.NodeByID(l.OriginID); origin != nil {
		if refreshTree {
			if err := origin.RefreshAncestors(ctx, "", nil); err != nil {
				return nil, err
			}
		}
		if err := origin.DoExecute(ctx, nil); err != nil {
			return nil, err
		}
	}
	return l.Data, nil
}
