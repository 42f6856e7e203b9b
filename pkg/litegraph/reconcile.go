package litegraph

// configureSlots installs the serialized slots of d on n.
//
// With ReprocessSlotsOnConfigure the serialized slots are matched against
// the slots n currently defines, so a node type whose slots were reordered
// or renamed since the data was saved keeps its links on the right slots.
// Otherwise the serialized slots replace the current ones. Either way the
// graph's link endpoints are then rewritten from the final slot positions.
func (n *Node) configureSlots(d NodeData) {
	reprocess := n.settings().ReprocessSlotsOnConfigure && n.placeholder == nil

	if d.Inputs != nil {
		if reprocess {
			var moved map[int]int
			n.Inputs, moved = reconcileSlots(d.Inputs, n.Inputs, (*Input).clone,
				func(cur, saved *Input) *Input {
					c := cur.clone()
					c.Link = saved.clone().Link
					if saved.Label != "" {
						c.Label = saved.Label
					}
					return c
				})
			n.logRemap(InputSlot, moved)
		} else {
			n.Inputs = cloneSlots(d.Inputs, (*Input).clone)
		}
	}

	if d.Outputs != nil {
		if reprocess {
			var moved map[int]int
			n.Outputs, moved = reconcileSlots(d.Outputs, n.Outputs, (*Output).clone,
				func(cur, saved *Output) *Output {
					c := cur.clone()
					c.Links = saved.clone().Links
					if saved.Label != "" {
						c.Label = saved.Label
					}
					return c
				})
			n.logRemap(OutputSlot, moved)
		} else {
			n.Outputs = cloneSlots(d.Outputs, (*Output).clone)
		}
	}

	n.rewriteLinkEndpoints()
}

// reconcileSlots merges saved slots into the current definition.
//
// Each saved slot takes the unused current slot of the same name, or else
// the first unused current slot of the same type. A name match keeps the
// saved slot; a type match keeps the current slot with the saved links
// (adopt). Current slots left unmatched stay empty at their position and
// saved slots left unmatched are appended. moved maps every saved index
// whose position changed to its new index.
func reconcileSlots[S slotDef](saved, current []S, clone func(S) S, adopt func(cur, saved S) S) (result []S, moved map[int]int) {
	result = make([]S, len(current))
	copy(result, current)
	used := make([]bool, len(current))
	placed := make([]int, len(saved))
	for i := range placed {
		placed[i] = -1
	}

	for i, s := range saved {
		for j, c := range current {
			if !used[j] && c.slotName() == s.slotName() {
				used[j] = true
				placed[i] = j
				result[j] = clone(s)
				break
			}
		}
	}
	for i, s := range saved {
		if placed[i] != -1 {
			continue
		}
		for j, c := range current {
			if !used[j] && c.slotType() == s.slotType() {
				used[j] = true
				placed[i] = j
				result[j] = adopt(c, s)
				break
			}
		}
	}
	for i, s := range saved {
		if placed[i] == -1 {
			placed[i] = len(result)
			result = append(result, clone(s))
		}
	}

	moved = make(map[int]int)
	for i, j := range placed {
		if i != j {
			moved[i] = j
		}
	}
	return result, moved
}

// rewriteLinkEndpoints points every link attached to n at the slot that
// now holds it.
func (n *Node) rewriteLinkEndpoints() {
	if n.graph == nil {
		return
	}
	for i, in := range n.Inputs {
		if in == nil || in.Link == nil {
			continue
		}
		if l := n.graph.links[*in.Link]; l != nil && l.TargetID == n.ID {
			l.TargetSlot = i
		}
	}
	for i, out := range n.Outputs {
		if out == nil {
			continue
		}
		for _, id := range out.Links {
			if l := n.graph.links[id]; l != nil && l.OriginID == n.ID {
				l.OriginSlot = i
			}
		}
	}
}

func (n *Node) logRemap(kind SlotKind, moved map[int]int) {
	if len(moved) == 0 || n.graph == nil {
		return
	}
	n.graph.logger.Debug("slots remapped on configure",
		"node_id", int(n.ID),
		"kind", kind.String(),
		"moved", moved)
}
