package litegraph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NodeID identifies a node within its graph.
type NodeID int

// SlotType is the declared type of a slot or link. The empty string and
// "*" are wildcards; several alternatives may be listed separated by
// commas (connection checks) or "|" (slot search).
type SlotType string

// Sentinel slot types. Event and Action are the same value: an output
// of type Event fires actions on the inputs it links to.
const (
	Event    SlotType = "_event_"
	Action            = Event
	Wildcard SlotType = "*"
)

// EventSlot passed as a target slot to Connect asks the target to expose
// its onTrigger input, switching it to OnTrigger mode.
const EventSlot = -1

// Names of the slots created for trigger-driven nodes.
const (
	TriggerInputName   = "onTrigger"
	ExecutedOutputName = "onExecuted"
)

// IsWildcard reports whether t accepts any type.
func (t SlotType) IsWildcard() bool {
	return t == "" || t == Wildcard
}

// Alternatives returns the lower-cased alternatives listed in t, split on
// "|" or ",". The event sentinel is preserved; wildcards yield "".
func (t SlotType) Alternatives() []SlotType {
	if t == Event {
		return []SlotType{Event}
	}
	if t.IsWildcard() {
		return []SlotType{""}
	}
	parts := strings.FieldsFunc(strings.ToLower(string(t)), func(r rune) bool {
		return r == '|' || r == ','
	})
	out := make([]SlotType, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		switch {
		case p == string(Event):
			out = append(out, Event)
		case p == "*":
			out = append(out, "")
		default:
			out = append(out, SlotType(p))
		}
	}
	if len(out) == 0 {
		out = append(out, "")
	}
	return out
}

// MarshalJSON writes the event sentinel as -1 and wildcards as 0, the
// encoding persisted graphs use.
func (t SlotType) MarshalJSON() ([]byte, error) {
	switch {
	case t == Event:
		return []byte("-1"), nil
	case t == "":
		return []byte("0"), nil
	}
	return json.Marshal(string(t))
}

// UnmarshalJSON accepts -1 (event), 0 or null (wildcard) and strings.
func (t *SlotType) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	st, err := slotTypeOf(v)
	if err != nil {
		return err
	}
	*t = st
	return nil
}

func slotTypeOf(v any) (SlotType, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return SlotType(x), nil
	case SlotType:
		return x, nil
	case float64:
		return numericSlotType(int(x))
	case int:
		return numericSlotType(x)
	case json.Number:
		n, err := x.Int64()
		if err != nil {
			return "", fmt.Errorf("slot type %q: %w", x, err)
		}
		return numericSlotType(int(n))
	}
	return "", fmt.Errorf("unsupported slot type %T", v)
}

func numericSlotType(n int) (SlotType, error) {
	switch n {
	case -1:
		return Event, nil
	case 0:
		return "", nil
	}
	return "", fmt.Errorf("unsupported numeric slot type %d", n)
}

// IsValidConnection reports whether an output of type a may feed an input
// of type b.
//
// Wildcards, identical types and the event/action pair always match.
// Otherwise the comparison is case-insensitive; comma-separated lists on
// either side match when any pair of alternatives matches.
func IsValidConnection(a, b SlotType) bool {
	if a == Wildcard {
		a = ""
	}
	if b == Wildcard {
		b = ""
	}
	if a == "" || b == "" || a == b || (a == Event && b == Action) {
		return true
	}

	la := strings.ToLower(string(a))
	lb := strings.ToLower(string(b))
	if !strings.Contains(la, ",") && !strings.Contains(lb, ",") {
		return la == lb
	}

	for _, x := range strings.Split(la, ",") {
		for _, y := range strings.Split(lb, ",") {
			if IsValidConnection(SlotType(x), SlotType(y)) {
				return true
			}
		}
	}
	return false
}

// Mode controls when a node runs.
type Mode int

// Node modes.
const (
	// Always runs the node on every step.
	Always Mode = iota
	// OnEvent runs the node only in response to actions.
	OnEvent
	// Never disables the node.
	Never
	// OnTrigger runs the node when its onTrigger input fires.
	OnTrigger
	// OnRequest runs the node only when a dependant pulls its data.
	OnRequest
)

var modeNames = [...]string{"Always", "On Event", "Never", "On Trigger", "On Request"}

// String returns the display name of the mode.
func (m Mode) String() string {
	if m.Valid() {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= Always && m <= OnRequest
}

// SlotKind distinguishes input from output slots in connection hooks.
type SlotKind int

// Slot kinds.
const (
	InputSlot  SlotKind = 1
	OutputSlot SlotKind = 2
)

// String returns "input" or "output".
func (k SlotKind) String() string {
	if k == InputSlot {
		return "input"
	}
	return "output"
}

// Status is the running state of a graph.
type Status int32

// Graph statuses.
const (
	StatusStopped Status = 1
	StatusRunning Status = 2
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusRunning {
		return "running"
	}
	return "stopped"
}
