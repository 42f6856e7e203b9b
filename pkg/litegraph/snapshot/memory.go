package snapshot

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps snapshots in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[int]stored // graphID -> seq -> snapshot
	closed bool
}

type stored struct {
	action    string
	data      []byte
	timestamp time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]map[int]stored)}
}

// Save implements Store.
func (m *MemoryStore) Save(_ context.Context, graphID string, seq int, action string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	if m.data[graphID] == nil {
		m.data[graphID] = make(map[int]stored)
	}
	m.data[graphID][seq] = stored{
		action:    action,
		data:      slices.Clone(data),
		timestamp: time.Now().UTC(),
	}
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(_ context.Context, graphID string, seq int) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	s, ok := m.data[graphID][seq]
	if !ok {
		return nil, ErrNotFound
	}
	return slices.Clone(s.data), nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, graphID string) ([]Info, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrStoreClosed
	}
	infos := make([]Info, 0, len(m.data[graphID]))
	for seq, s := range m.data[graphID] {
		infos = append(infos, Info{
			GraphID:   graphID,
			Seq:       seq,
			Action:    s.action,
			Timestamp: s.timestamp,
			Size:      int64(len(s.data)),
		})
	}
	slices.SortFunc(infos, func(a, b Info) int { return a.Seq - b.Seq })
	return infos, nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(_ context.Context, graphID string, seq int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data[graphID], seq)
	return nil
}

// DeleteGraph implements Store.
func (m *MemoryStore) DeleteGraph(_ context.Context, graphID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrStoreClosed
	}
	delete(m.data, graphID)
	return nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.data = nil
	return nil
}
