package snapshot

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/randalmurphal/litegraph/pkg/litegraph/config"
)

// Open builds a store from a history configuration section:
//
//	store: memory | sqlite | postgres   (default memory)
//	path:  ./history.db                  (sqlite)
//	dsn:   postgres://...                (postgres)
//
// The postgres store owns its pool and creates its schema.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch kind := cfg.String("store", "memory"); kind {
	case "memory", "":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(cfg.String("path", ":memory:"))
	case "postgres":
		dsn := cfg.String("dsn", "")
		if dsn == "" {
			return nil, fmt.Errorf("postgres snapshot store: dsn is required")
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		store := NewPostgresStore(pool)
		store.ownsPool = true
		if err := store.CreateSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStore, kind)
	}
}
