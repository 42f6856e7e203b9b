package litegraph

import (
	"encoding/json"
	"fmt"
)

// LinkID identifies a link within its graph.
type LinkID int

// Link is a directed edge from an output slot to an input slot.
// Links are owned by their graph and referenced from slots by id.
type Link struct {
	ID         LinkID
	Type       SlotType
	OriginID   NodeID
	OriginSlot int
	TargetID   NodeID
	TargetSlot int

	// Data is the last value written by the origin output.
	// It is never persisted.
	Data any
}

// NewLink creates a link.
func NewLink(id LinkID, typ SlotType, originID NodeID, originSlot int, targetID NodeID, targetSlot int) *Link {
	return &Link{
		ID:         id,
		Type:       typ,
		OriginID:   originID,
		OriginSlot: originSlot,
		TargetID:   targetID,
		TargetSlot: targetSlot,
	}
}

// Serialize returns the positional form
// [id, origin_id, origin_slot, target_id, target_slot, type].
func (l *Link) Serialize() []any {
	return []any{int(l.ID), int(l.OriginID), l.OriginSlot, int(l.TargetID), l.TargetSlot, l.Type}
}

// Configure loads the link from its positional form ([]any) or from an
// object with snake_case field names (map[string]any), as produced by
// decoding JSON into interface values.
func (l *Link) Configure(v any) error {
	switch data := v.(type) {
	case []any:
		if len(data) < 5 {
			return fmt.Errorf("link tuple has %d fields, want 6", len(data))
		}
		ints := make([]int, 5)
		for i := range ints {
			n, err := toInt(data[i])
			if err != nil {
				return fmt.Errorf("link field %d: %w", i, err)
			}
			ints[i] = n
		}
		l.ID, l.OriginID, l.OriginSlot = LinkID(ints[0]), NodeID(ints[1]), ints[2]
		l.TargetID, l.TargetSlot = NodeID(ints[3]), ints[4]
		l.Type = ""
		if len(data) > 5 {
			t, err := slotTypeOf(data[5])
			if err != nil {
				return err
			}
			l.Type = t
		}
		return nil

	case map[string]any:
		fields := []struct {
			key string
			dst *int
		}{
			{"id", (*int)(&l.ID)},
			{"origin_id", (*int)(&l.OriginID)},
			{"origin_slot", &l.OriginSlot},
			{"target_id", (*int)(&l.TargetID)},
			{"target_slot", &l.TargetSlot},
		}
		for _, f := range fields {
			raw, ok := data[f.key]
			if !ok {
				continue
			}
			n, err := toInt(raw)
			if err != nil {
				return fmt.Errorf("link field %s: %w", f.key, err)
			}
			*f.dst = n
		}
		if raw, ok := data["type"]; ok {
			t, err := slotTypeOf(raw)
			if err != nil {
				return err
			}
			l.Type = t
		}
		return nil
	}
	return fmt.Errorf("unsupported link encoding %T", v)
}

// MarshalJSON writes the positional form.
func (l *Link) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.Serialize())
}

// UnmarshalJSON accepts the positional or the object form.
func (l *Link) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return l.Configure(v)
}

func (l *Link) clone() *Link {
	c := *l
	c.Data = nil
	return &c
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("non-integer %v", n)
		}
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case LinkID:
		return int(n), nil
	case NodeID:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	}
	return 0, fmt.Errorf("unsupported number %T", v)
}
