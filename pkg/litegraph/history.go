package litegraph

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/litegraph/pkg/litegraph/observability"
	"github.com/randalmurphal/litegraph/pkg/litegraph/snapshot"
)

// history tracks the snapshot sequence numbers of one graph. The store
// holds the payloads; seqs[ptr] is the state currently shown.
type history struct {
	store snapshot.Store
	seqs  []int
	ptr   int
	seq   int
}

func (h *history) init() {
	if h.store == nil {
		h.store = snapshot.NewMemoryStore()
	}
	h.ptr = -1
}

// resetHistory drops every snapshot and records the current state as the
// new baseline.
func (g *Graph) resetHistory() {
	if g.settings.HistoryEnabled && len(g.history.seqs) > 0 {
		if err := g.history.store.DeleteGraph(context.Background(), g.id); err != nil {
			observability.LogHistoryError(g.logger, "reset", err)
		}
	}
	g.history.seqs = nil
	g.history.ptr = -1
	g.saveHistory("baseline")
}

// saveHistory records the current state after action. Redo entries past
// the current position are dropped and the oldest entry is evicted once
// HistoryMaxSave is reached.
func (g *Graph) saveHistory(action string) {
	if !g.settings.HistoryEnabled || g.holdHistory > 0 {
		return
	}
	ctx := context.Background()
	h := &g.history

	data, err := json.Marshal(g.Serialize())
	if err != nil {
		observability.LogHistoryError(g.logger, "save", err)
		return
	}

	for _, seq := range h.seqs[h.ptr+1:] {
		if err := h.store.Delete(ctx, g.id, seq); err != nil {
			observability.LogHistoryError(g.logger, "truncate", err)
		}
	}
	h.seqs = h.seqs[:h.ptr+1]

	if limit := g.settings.HistoryMaxSave; limit > 0 {
		for len(h.seqs) >= limit {
			if err := h.store.Delete(ctx, g.id, h.seqs[0]); err != nil {
				observability.LogHistoryError(g.logger, "evict", err)
			}
			h.seqs = h.seqs[1:]
		}
	}

	h.seq++
	if err := h.store.Save(ctx, g.id, h.seq, action, data); err != nil {
		observability.LogHistoryError(g.logger, "save", err)
		h.ptr = len(h.seqs) - 1
		return
	}
	h.seqs = append(h.seqs, h.seq)
	h.ptr = len(h.seqs) - 1

	g.metrics.RecordSnapshot(ctx, int64(len(data)))
	observability.LogHistorySaved(g.logger, action, h.seq, len(data))
}

// HistoryBack undoes steps saved changes.
func (g *Graph) HistoryBack(ctx context.Context, steps int) error {
	return g.historyMove(ctx, "back", -max(steps, 1))
}

// HistoryForward redoes steps undone changes.
func (g *Graph) HistoryForward(ctx context.Context, steps int) error {
	return g.historyMove(ctx, "forward", max(steps, 1))
}

func (g *Graph) historyMove(ctx context.Context, op string, delta int) error {
	target := g.history.ptr + delta
	if target < 0 || target >= len(g.history.seqs) {
		return &HistoryError{Op: op, Seq: -1, Err: ErrNoHistory}
	}
	if err := g.restore(ctx, op, g.history.seqs[target]); err != nil {
		return err
	}
	g.history.ptr = target
	return nil
}

// HistoryLoad shows the snapshot at index without moving the history
// position. The next saved change truncates the history after the current
// position as usual.
func (g *Graph) HistoryLoad(ctx context.Context, index int) error {
	if index < 0 || index >= len(g.history.seqs) {
		return &HistoryError{Op: "load", Seq: -1, Err: ErrNoHistory}
	}
	return g.restore(ctx, "load", g.history.seqs[index])
}

func (g *Graph) restore(ctx context.Context, op string, seq int) error {
	if ctx == nil {
		return ErrNilContext
	}
	raw, err := g.history.store.Load(ctx, g.id, seq)
	if err != nil {
		return &HistoryError{Op: op, Seq: seq, Err: err}
	}
	var d GraphData
	if err := json.Unmarshal(raw, &d); err != nil {
		return &HistoryError{Op: op, Seq: seq, Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	if err := g.configure(&d, false, true); err != nil {
		return &HistoryError{Op: op, Seq: seq, Err: err}
	}
	return nil
}

// HistoryLen returns the number of recorded snapshots.
func (g *Graph) HistoryLen() int { return len(g.history.seqs) }

// HistoryPosition returns the index of the snapshot currently shown, or
// -1 when history is off.
func (g *Graph) HistoryPosition() int { return g.history.ptr }

// SavedVersion returns the version recorded by the last MarkSaved.
func (g *Graph) SavedVersion() int { return g.savedVersion }

// MarkSaved records the current version as persisted.
func (g *Graph) MarkSaved() { g.savedVersion = g.version }

// IsDirty reports whether the graph changed since the last MarkSaved.
func (g *Graph) IsDirty() bool { return g.version != g.savedVersion }
