package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS litegraph_snapshots (
    graph_id   TEXT        NOT NULL,
    seq        INTEGER     NOT NULL,
    action     TEXT        NOT NULL,
    data       BYTEA       NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (graph_id, seq)
);
`

// PostgresStore persists snapshots in PostgreSQL through a pgx pool.
// The pool is owned by the caller unless the store was built by Open.
type PostgresStore struct {
	db       *pgxpool.Pool
	ownsPool bool

	mu     sync.RWMutex
	closed bool
}

// NewPostgresStore wraps an existing pool. Call CreateSchema once before use.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateSchema creates the snapshot table if it does not exist.
func (s *PostgresStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchemaSQL); err != nil {
		return fmt.Errorf("create snapshot schema: %w", err)
	}
	return nil
}

// DropSchema drops the snapshot table.
func (s *PostgresStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS litegraph_snapshots`)
	return err
}

func (s *PostgresStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Save implements Store.
func (s *PostgresStore) Save(ctx context.Context, graphID string, seq int, action string, data []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO litegraph_snapshots (graph_id, seq, action, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (graph_id, seq) DO UPDATE SET
			action = EXCLUDED.action,
			data = EXCLUDED.data,
			created_at = NOW()
	`, graphID, seq, action, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load implements Store.
func (s *PostgresStore) Load(ctx context.Context, graphID string, seq int) ([]byte, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	var data []byte
	err := s.db.QueryRow(ctx,
		`SELECT data FROM litegraph_snapshots WHERE graph_id = $1 AND seq = $2`,
		graphID, seq,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

// List implements Store.
func (s *PostgresStore) List(ctx context.Context, graphID string) ([]Info, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx, `
		SELECT seq, action, created_at, OCTET_LENGTH(data)
		FROM litegraph_snapshots
		WHERE graph_id = $1
		ORDER BY seq`, graphID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	infos := []Info{}
	for rows.Next() {
		info := Info{GraphID: graphID}
		var size int32
		if err := rows.Scan(&info.Seq, &info.Action, &info.Timestamp, &size); err != nil {
			return nil, fmt.Errorf("scan snapshot info: %w", err)
		}
		info.Size = int64(size)
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return infos, nil
}

// Delete implements Store.
func (s *PostgresStore) Delete(ctx context.Context, graphID string, seq int) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM litegraph_snapshots WHERE graph_id = $1 AND seq = $2`, graphID, seq); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// DeleteGraph implements Store.
func (s *PostgresStore) DeleteGraph(ctx context.Context, graphID string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx,
		`DELETE FROM litegraph_snapshots WHERE graph_id = $1`, graphID); err != nil {
		return fmt.Errorf("delete graph snapshots: %w", err)
	}
	return nil
}

// Close implements Store. The pool is closed only when the store owns it.
func (s *PostgresStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.ownsPool {
		s.db.Close()
	}
	return nil
}
