// Package snapshot stores serialized graph states for undo and redo.
//
// A graph records one snapshot per saved change, keyed by its graph id and a
// monotonically increasing sequence number. Stores only hold opaque bytes;
// the graph decides what to keep and when to evict.
package snapshot

import (
	"context"
	"errors"
	"time"
)

// Store persists graph snapshots.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores data under (graphID, seq), overwriting any existing entry.
	Save(ctx context.Context, graphID string, seq int, action string, data []byte) error

	// Load returns the snapshot at (graphID, seq) or ErrNotFound.
	Load(ctx context.Context, graphID string, seq int) ([]byte, error)

	// List returns metadata for every snapshot of graphID ordered by seq.
	// A graph without snapshots yields an empty slice.
	List(ctx context.Context, graphID string) ([]Info, error)

	// Delete removes one snapshot. Missing entries are not an error.
	Delete(ctx context.Context, graphID string, seq int) error

	// DeleteGraph removes every snapshot of graphID.
	DeleteGraph(ctx context.Context, graphID string) error

	// Close releases resources. Closing twice is a no-op.
	Close() error
}

// Info describes a snapshot without its payload.
type Info struct {
	GraphID   string
	Seq       int
	Action    string
	Timestamp time.Time
	Size      int64
}

var (
	// ErrNotFound indicates the snapshot does not exist.
	ErrNotFound = errors.New("snapshot not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("snapshot store closed")

	// ErrUnknownStore indicates an unsupported store kind in configuration.
	ErrUnknownStore = errors.New("unknown snapshot store")
)
