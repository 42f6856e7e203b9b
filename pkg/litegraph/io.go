package litegraph

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Graph-level IO events, dispatched on Graph.Handlers(). Additions and
// removals reuse EventInputAdded, EventInputRemoved, EventOutputAdded and
// EventOutputRemoved with the name and type as arguments.
const (
	// EventInputRenamed, EventOutputRenamed: old name, new name.
	EventInputRenamed  = "onInputRenamed"
	EventOutputRenamed = "onOutputRenamed"
	// EventInputTypeChanged, EventOutputTypeChanged: name, new type.
	EventInputTypeChanged  = "onInputTypeChanged"
	EventOutputTypeChanged = "onOutputTypeChanged"
	// EventInputsOutputsChange follows every IO change. No arguments.
	EventInputsOutputsChange = "onInputsOutputsChange"
)

// GraphIO is a named value exchanged between a graph and its host.
type GraphIO struct {
	Name  string
	Type  SlotType
	Value any
}

type ioKind struct {
	label   string
	added   string
	removed string
	renamed string
	retyped string
}

var (
	inputKind  = ioKind{"Input", EventInputAdded, EventInputRemoved, EventInputRenamed, EventInputTypeChanged}
	outputKind = ioKind{"Output", EventOutputAdded, EventOutputRemoved, EventOutputRenamed, EventOutputTypeChanged}
)

func (g *Graph) ioAdd(set map[string]*GraphIO, k ioKind, name string, typ SlotType, value any) bool {
	if _, ok := set[name]; ok {
		return false
	}
	set[name] = &GraphIO{Name: name, Type: typ, Value: value}
	g.changed("add"+k.label, true)
	g.handlers.Dispatch(k.added, nil, name, typ)
	g.handlers.Dispatch(EventInputsOutputsChange, nil)
	return true
}

func (g *Graph) ioRename(set map[string]*GraphIO, k ioKind, oldName, name string) error {
	if oldName == name {
		return nil
	}
	io, ok := set[oldName]
	if !ok {
		return fmt.Errorf("graph %s %q: %w", strings.ToLower(k.label), oldName, ErrSlotNotFound)
	}
	if _, taken := set[name]; taken {
		return fmt.Errorf("graph %s %q: %w", strings.ToLower(k.label), name, ErrDuplicateName)
	}
	delete(set, oldName)
	io.Name = name
	set[name] = io
	g.changed("rename"+k.label, true)
	g.handlers.Dispatch(k.renamed, nil, oldName, name)
	g.handlers.Dispatch(EventInputsOutputsChange, nil)
	return nil
}

func (g *Graph) ioRetype(set map[string]*GraphIO, k ioKind, name string, typ SlotType) error {
	io, ok := set[name]
	if !ok {
		return fmt.Errorf("graph %s %q: %w", strings.ToLower(k.label), name, ErrSlotNotFound)
	}
	if io.Type != "" && strings.EqualFold(string(io.Type), string(typ)) {
		return nil
	}
	io.Type = typ
	g.changed("change"+k.label+"Type", true)
	g.handlers.Dispatch(k.retyped, nil, name, typ)
	g.handlers.Dispatch(EventInputsOutputsChange, nil)
	return nil
}

func (g *Graph) ioRemove(set map[string]*GraphIO, k ioKind, name string) bool {
	if _, ok := set[name]; !ok {
		return false
	}
	delete(set, name)
	g.changed("remove"+k.label, true)
	g.handlers.Dispatch(k.removed, nil, name)
	g.handlers.Dispatch(EventInputsOutputsChange, nil)
	return true
}

// AddInput declares a graph input. It reports false when the name exists.
func (g *Graph) AddInput(name string, typ SlotType, value any) bool {
	return g.ioAdd(g.inputs, inputKind, name, typ, value)
}

// SetInputData assigns the value of a graph input. Unknown names are ignored.
func (g *Graph) SetInputData(name string, v any) {
	if io, ok := g.inputs[name]; ok {
		io.Value = v
	}
}

// InputData returns the value of a graph input, or nil.
func (g *Graph) InputData(name string) any {
	if io, ok := g.inputs[name]; ok {
		return io.Value
	}
	return nil
}

// RenameInput renames a graph input.
func (g *Graph) RenameInput(oldName, name string) error {
	return g.ioRename(g.inputs, inputKind, oldName, name)
}

// ChangeInputType changes the type of a graph input. Setting an
// equivalent type (compared case-insensitively) is a no-op.
func (g *Graph) ChangeInputType(name string, typ SlotType) error {
	return g.ioRetype(g.inputs, inputKind, name, typ)
}

// RemoveInput deletes a graph input and reports whether it existed.
func (g *Graph) RemoveInput(name string) bool {
	return g.ioRemove(g.inputs, inputKind, name)
}

// Inputs returns the graph inputs sorted by name.
func (g *Graph) Inputs() []GraphIO { return sortedIO(g.inputs) }

// AddOutput declares a graph output. It reports false when the name exists.
func (g *Graph) AddOutput(name string, typ SlotType, value any) bool {
	return g.ioAdd(g.outputs, outputKind, name, typ, value)
}

// SetOutputData assigns the value of a graph output. Unknown names are ignored.
func (g *Graph) SetOutputData(name string, v any) {
	if io, ok := g.outputs[name]; ok {
		io.Value = v
	}
}

// OutputData returns the value of a graph output, or nil.
func (g *Graph) OutputData(name string) any {
	if io, ok := g.outputs[name]; ok {
		return io.Value
	}
	return nil
}

// RenameOutput renames a graph output.
func (g *Graph) RenameOutput(oldName, name string) error {
	return g.ioRename(g.outputs, outputKind, oldName, name)
}

// ChangeOutputType changes the type of a graph output.
func (g *Graph) ChangeOutputType(name string, typ SlotType) error {
	return g.ioRetype(g.outputs, outputKind, name, typ)
}

// RemoveOutput deletes a graph output and reports whether it existed.
func (g *Graph) RemoveOutput(name string) bool {
	return g.ioRemove(g.outputs, outputKind, name)
}

// Outputs returns the graph outputs sorted by name.
func (g *Graph) Outputs() []GraphIO { return sortedIO(g.outputs) }

func sortedIO(set map[string]*GraphIO) []GraphIO {
	out := make([]GraphIO, 0, len(set))
	for _, name := range slices.Sorted(maps.Keys(set)) {
		out = append(out, *set[name])
	}
	return out
}
