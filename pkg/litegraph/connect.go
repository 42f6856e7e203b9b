package litegraph

import (
	"slices"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
)

// Connect links output slot of n to targetSlot of target and returns the
// new link. Passing EventSlot as targetSlot switches target to OnTrigger
// mode and links to its onTrigger input.
//
// An occupied target input is disconnected first. On failure the graph is
// unchanged and the returned *ConnectionError wraps the reason.
func (n *Node) Connect(slot int, target *Node, targetSlot int) (*Link, error) {
	l, err := n.connect(slot, target, targetSlot)
	if err != nil {
		return nil, n.connectError(slot, target, targetSlot, err)
	}
	return l, nil
}

// ConnectByName is Connect addressing both slots by name.
func (n *Node) ConnectByName(slot string, target *Node, targetSlot string) (*Link, error) {
	in := 0
	if target != nil {
		if in = target.FindInputSlot(targetSlot); in == -1 {
			return nil, n.connectError(n.FindOutputSlot(slot), target, in, ErrSlotNotFound)
		}
	}
	return n.Connect(n.FindOutputSlot(slot), target, in)
}

func (n *Node) connectError(slot int, target *Node, targetSlot int, err error) error {
	tid := NodeID(-1)
	if target != nil {
		tid = target.ID
	}
	if n.graph != nil {
		observability.LogConnectRejected(n.graph.logger, int(n.ID), slot, int(tid), targetSlot, err)
	}
	return &ConnectionError{OriginID: n.ID, OriginSlot: slot, TargetID: tid, TargetSlot: targetSlot, Err: err}
}

func (n *Node) connect(slot int, target *Node, targetSlot int) (*Link, error) {
	g := n.graph
	if g == nil {
		return nil, ErrNotInGraph
	}
	out := n.output(slot)
	if out == nil {
		return nil, ErrSlotNotFound
	}
	if target == nil || target.graph != g {
		return nil, ErrNodeNotFound
	}
	if target == n {
		return nil, ErrSelfLoop
	}

	if targetSlot != EventSlot {
		return n.link(slot, out, target, targetSlot)
	}

	prevMode, nIn, nOut := target.Mode, len(target.Inputs), len(target.Outputs)
	target.ChangeMode(OnTrigger)
	l, err := n.link(slot, out, target, target.FindInputSlot(TriggerInputName))
	if err != nil {
		for len(target.Outputs) > nOut {
			target.RemoveOutput(len(target.Outputs) - 1)
		}
		for len(target.Inputs) > nIn {
			target.RemoveInput(len(target.Inputs) - 1)
		}
		target.Mode = prevMode
	}
	return l, err
}

// link runs the hook and type checks for an existing target slot and
// registers the link.
func (n *Node) link(slot int, out *Output, target *Node, targetSlot int) (*Link, error) {
	g := n.graph
	if target.input(targetSlot) == nil {
		return nil, ErrSlotNotFound
	}

	v, _ := target.handlers.Dispatch(EventBeforeConnectInput, func(...any) (any, error) {
		if h, ok := target.behavior.(BeforeInputConnector); ok {
			return h.OnBeforeConnectInput(target, targetSlot), nil
		}
		return nil, nil
	}, targetSlot)
	if redirected, ok := v.(int); ok {
		targetSlot = redirected
	}
	in := target.input(targetSlot)
	if in == nil {
		return nil, ErrSlotNotFound
	}

	if !n.dispatchVeto(EventConnectOutput, func(...any) (any, error) {
		if h, ok := n.behavior.(OutputConnector); ok {
			return h.OnConnectOutput(n, slot, in.Type, target, targetSlot), nil
		}
		return nil, nil
	}, slot, in.Type, in, target, targetSlot) {
		return nil, ErrConnectionRejected
	}

	if !IsValidConnection(out.Type, in.Type) {
		return nil, ErrTypeMismatch
	}

	if !target.dispatchVeto(EventConnectInput, func(...any) (any, error) {
		if h, ok := target.behavior.(InputConnector); ok {
			return h.OnConnectInput(target, targetSlot, out.Type, n, slot), nil
		}
		return nil, nil
	}, targetSlot, out.Type, out, n, slot) {
		return nil, ErrConnectionRejected
	}

	if in.Link != nil {
		target.disconnectInput(targetSlot, false)
	}
	if out.Type == Event && len(out.Links) > 0 && !g.settings.AllowMultiOutputForEvents {
		n.disconnectOutput(slot, nil, false)
	}

	g.lastLinkID++
	typ := in.Type
	if typ == "" {
		typ = out.Type
	}
	link := NewLink(g.lastLinkID, typ, n.ID, slot, target.ID, targetSlot)
	g.links[link.ID] = link
	out.Links = append(out.Links, link.ID)
	id := link.ID
	in.Link = &id

	n.notifyConnection(OutputSlot, slot, true, link, out)
	target.notifyConnection(InputSlot, targetSlot, true, link, in)
	g.handlers.Dispatch(EventNodeConnectionChange, nil, InputSlot, target, targetSlot, n, slot)
	g.handlers.Dispatch(EventNodeConnectionChange, nil, OutputSlot, n, slot, target, targetSlot)

	g.connectionChange(n)
	g.changed("connect", true)
	return link, nil
}

func (n *Node) notifyConnection(kind SlotKind, slot int, connected bool, link *Link, info any) {
	n.handlers.Dispatch(EventConnectionsChange, func(...any) (any, error) {
		if h, ok := n.behavior.(ConnectionChangeHandler); ok {
			h.OnConnectionsChange(n, kind, slot, connected, link)
		}
		return nil, nil
	}, kind, slot, connected, link, info)
}

// ConnectByType links output slot of n to the first input of target
// accepting typ. When no input matches, event types fall back to the
// onTrigger input, and wildcard requests to the first free non-event
// input.
func (n *Node) ConnectByType(slot int, target *Node, typ SlotType, preferFree bool) (*Link, error) {
	if target == nil {
		return n.Connect(slot, nil, 0)
	}
	if i := target.FindInputSlotByType(typ, preferFree, false); i != -1 {
		return n.Connect(slot, target, i)
	}
	if typ == Event {
		return n.Connect(slot, target, EventSlot)
	}
	if preferFree {
		if i := target.FindInputSlotByType(Wildcard, false, true); i != -1 {
			return n.Connect(slot, target, i)
		}
	}
	if typ.IsWildcard() {
		if i := target.FindInputSlotFree(Event); i != -1 {
			return n.Connect(slot, target, i)
		}
	}
	return nil, n.connectError(slot, target, -1, ErrSlotNotFound)
}

// ConnectByTypeOutput links the first output of source emitting typ to
// input slot of n. Event types create the onExecuted output on source
// when DoAddTriggerSlots is enabled.
func (n *Node) ConnectByTypeOutput(slot int, source *Node, typ SlotType, preferFree bool) (*Link, error) {
	if source == nil {
		return nil, &ConnectionError{OriginID: -1, OriginSlot: -1, TargetID: n.ID, TargetSlot: slot, Err: ErrNodeNotFound}
	}
	if i := source.FindOutputSlotByType(typ, preferFree, false); i != -1 {
		return source.Connect(i, n, slot)
	}
	if typ == Event && n.settings().DoAddTriggerSlots {
		source.ChangeMode(OnTrigger)
		return source.Connect(source.FindOutputSlot(ExecutedOutputName), n, slot)
	}
	if preferFree {
		if i := source.FindOutputSlotByType(Wildcard, false, true); i != -1 {
			return source.Connect(i, n, slot)
		}
	}
	if typ.IsWildcard() {
		if i := source.FindOutputSlotFree(Event); i != -1 {
			return source.Connect(i, n, slot)
		}
	}
	return nil, source.connectError(-1, n, slot, ErrSlotNotFound)
}

// DisconnectOutput removes the links leaving an output: all of them, or
// only those reaching target when target is non-nil. It reports whether
// anything was removed; an empty slot is not an error.
func (n *Node) DisconnectOutput(slot int, target *Node) bool {
	return n.disconnectOutput(slot, target, true)
}

// DisconnectInput removes the link feeding an input. It reports whether a
// link was removed; an empty slot is not an error.
func (n *Node) DisconnectInput(slot int) bool {
	return n.disconnectInput(slot, true)
}

func (n *Node) disconnectOutput(slot int, target *Node, record bool) bool {
	g := n.graph
	out := n.output(slot)
	if g == nil || out == nil || len(out.Links) == 0 {
		return false
	}

	removed := false
	keep := out.Links[:0:0]
	for _, id := range out.Links {
		l := g.links[id]
		if l == nil {
			continue
		}
		if target != nil && l.TargetID != target.ID {
			keep = append(keep, id)
			continue
		}
		if t := g.NodeByID(l.TargetID); t != nil {
			if in := t.input(l.TargetSlot); in != nil && in.Link != nil && *in.Link == id {
				in.Link = nil
				t.notifyConnection(InputSlot, l.TargetSlot, false, l, in)
			}
		}
		delete(g.links, id)
		removed = true
		n.notifyConnection(OutputSlot, slot, false, l, out)
		g.handlers.Dispatch(EventNodeConnectionChange, nil, OutputSlot, n, slot, nil, nil)
		g.handlers.Dispatch(EventNodeConnectionChange, nil, InputSlot, g.NodeByID(l.TargetID), l.TargetSlot, nil, nil)
	}
	if len(keep) == 0 {
		keep = nil
	}
	out.Links = keep

	if removed {
		g.connectionChange(n)
		g.changed("disconnectOutput", record)
	}
	return removed
}

func (n *Node) disconnectInput(slot int, record bool) bool {
	g := n.graph
	in := n.input(slot)
	if g == nil || in == nil || in.Link == nil {
		return false
	}
	id := *in.Link
	in.Link = nil

	l := g.links[id]
	if l != nil {
		if origin := g.NodeByID(l.OriginID); origin != nil {
			if out := origin.output(l.OriginSlot); out != nil {
				out.Links = slices.DeleteFunc(out.Links, func(x LinkID) bool { return x == id })
				if len(out.Links) == 0 {
					out.Links = nil
				}
				origin.notifyConnection(OutputSlot, l.OriginSlot, false, l, out)
				g.handlers.Dispatch(EventNodeConnectionChange, nil, OutputSlot, origin, l.OriginSlot, nil, nil)
			}
		}
		delete(g.links, id)
		n.notifyConnection(InputSlot, slot, false, l, in)
		g.handlers.Dispatch(EventNodeConnectionChange, nil, InputSlot, n, slot, nil, nil)
	}

	g.connectionChange(n)
	g.changed("disconnectInput", record)
	return true
}
