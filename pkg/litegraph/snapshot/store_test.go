package snapshot_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/litegraph/pkg/litegraph/config"
	"github.com/randalmurphal/litegraph/pkg/litegraph/snapshot"
)

type storeFactory struct {
	name string
	open func(t *testing.T) snapshot.Store
}

func factories(t *testing.T) []storeFactory {
	t.Helper()
	fs := []storeFactory{
		{"memory", func(*testing.T) snapshot.Store { return snapshot.NewMemoryStore() }},
		{"sqlite", func(t *testing.T) snapshot.Store {
			s, err := snapshot.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			return s
		}},
	}
	if dsn := os.Getenv("LITEGRAPH_TEST_DATABASE_URL"); dsn != "" {
		fs = append(fs, storeFactory{"postgres", func(t *testing.T) snapshot.Store {
			ctx := context.Background()
			pool, err := pgxpool.New(ctx, dsn)
			require.NoError(t, err)
			s := snapshot.NewPostgresStore(pool)
			require.NoError(t, s.DropSchema(ctx))
			require.NoError(t, s.CreateSchema(ctx))
			t.Cleanup(pool.Close)
			return s
		}})
	}
	return fs
}

// TestStore_Contract runs the shared behaviour checks on every store.
func TestStore_Contract(t *testing.T) {
	for _, f := range factories(t) {
		t.Run(f.name, func(t *testing.T) {
			t.Run("save and load", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				ctx := context.Background()

				require.NoError(t, s.Save(ctx, "g1", 1, "connect", []byte(`{"a":1}`)))
				data, err := s.Load(ctx, "g1", 1)
				require.NoError(t, err)
				assert.Equal(t, []byte(`{"a":1}`), data)
			})

			t.Run("overwrite", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				ctx := context.Background()

				require.NoError(t, s.Save(ctx, "g1", 1, "a", []byte("old")))
				require.NoError(t, s.Save(ctx, "g1", 1, "b", []byte("new")))
				data, err := s.Load(ctx, "g1", 1)
				require.NoError(t, err)
				assert.Equal(t, []byte("new"), data)

				infos, err := s.List(ctx, "g1")
				require.NoError(t, err)
				require.Len(t, infos, 1)
				assert.Equal(t, "b", infos[0].Action)
			})

			t.Run("load missing", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				_, err := s.Load(context.Background(), "g1", 99)
				assert.ErrorIs(t, err, snapshot.ErrNotFound)
			})

			t.Run("list ordered by seq", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				ctx := context.Background()

				for _, seq := range []int{3, 1, 2} {
					require.NoError(t, s.Save(ctx, "g1", seq, "change", []byte("xx")))
				}
				require.NoError(t, s.Save(ctx, "g2", 1, "other", []byte("x")))

				infos, err := s.List(ctx, "g1")
				require.NoError(t, err)
				require.Len(t, infos, 3)
				for i, info := range infos {
					assert.Equal(t, i+1, info.Seq)
					assert.Equal(t, "g1", info.GraphID)
					assert.Equal(t, int64(2), info.Size)
					assert.False(t, info.Timestamp.IsZero())
				}

				empty, err := s.List(ctx, "none")
				require.NoError(t, err)
				assert.Empty(t, empty)
			})

			t.Run("delete", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				ctx := context.Background()

				require.NoError(t, s.Save(ctx, "g1", 1, "a", []byte("1")))
				require.NoError(t, s.Save(ctx, "g1", 2, "b", []byte("2")))
				require.NoError(t, s.Delete(ctx, "g1", 1))
				require.NoError(t, s.Delete(ctx, "g1", 42))

				_, err := s.Load(ctx, "g1", 1)
				assert.ErrorIs(t, err, snapshot.ErrNotFound)
				_, err = s.Load(ctx, "g1", 2)
				assert.NoError(t, err)
			})

			t.Run("delete graph", func(t *testing.T) {
				s := f.open(t)
				defer s.Close()
				ctx := context.Background()

				require.NoError(t, s.Save(ctx, "g1", 1, "a", []byte("1")))
				require.NoError(t, s.Save(ctx, "g2", 1, "a", []byte("1")))
				require.NoError(t, s.DeleteGraph(ctx, "g1"))

				infos, err := s.List(ctx, "g1")
				require.NoError(t, err)
				assert.Empty(t, infos)
				_, err = s.Load(ctx, "g2", 1)
				assert.NoError(t, err)
			})

			t.Run("closed", func(t *testing.T) {
				s := f.open(t)
				ctx := context.Background()
				require.NoError(t, s.Close())
				require.NoError(t, s.Close())

				assert.ErrorIs(t, s.Save(ctx, "g", 1, "a", nil), snapshot.ErrStoreClosed)
				_, err := s.Load(ctx, "g", 1)
				assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
				_, err = s.List(ctx, "g")
				assert.ErrorIs(t, err, snapshot.ErrStoreClosed)
				assert.ErrorIs(t, s.Delete(ctx, "g", 1), snapshot.ErrStoreClosed)
				assert.ErrorIs(t, s.DeleteGraph(ctx, "g"), snapshot.ErrStoreClosed)
			})
		})
	}
}

// TestMemoryStore_CopiesData verifies callers cannot mutate stored bytes.
func TestMemoryStore_CopiesData(t *testing.T) {
	s := snapshot.NewMemoryStore()
	ctx := context.Background()
	buf := []byte("abc")

	require.NoError(t, s.Save(ctx, "g", 1, "a", buf))
	buf[0] = 'x'
	got, err := s.Load(ctx, "g", 1)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)

	got[0] = 'y'
	again, _ := s.Load(ctx, "g", 1)
	assert.Equal(t, []byte("abc"), again)
}

// TestSQLiteStore_Persistence verifies data survives reopening the file.
func TestSQLiteStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s1, err := snapshot.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, "g", 7, "nodeAdd", []byte("persistent")))
	require.NoError(t, s1.Close())

	s2, err := snapshot.NewSQLiteStore(path)
	require.NoError(t, err)
	defer s2.Close()
	data, err := s2.Load(ctx, "g", 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent"), data)
}

// TestSQLiteStore_InvalidPath verifies open errors surface.
func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := snapshot.NewSQLiteStore("/nonexistent/dir/history.db")
	assert.Error(t, err)
}

// TestSQLiteStore_Concurrent verifies the store tolerates parallel callers.
func TestSQLiteStore_Concurrent(t *testing.T) {
	s, err := snapshot.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := range 10 {
				_ = s.Save(ctx, "g", n*10+j, "change", []byte("x"))
				_, _ = s.List(ctx, "g")
			}
		}(i)
	}
	wg.Wait()

	infos, err := s.List(ctx, "g")
	require.NoError(t, err)
	assert.Len(t, infos, 200)
}

// TestOpen verifies store selection from configuration.
func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := snapshot.Open(ctx, config.New(nil))
	require.NoError(t, err)
	assert.IsType(t, &snapshot.MemoryStore{}, s)

	s, err = snapshot.Open(ctx, config.New(map[string]any{
		"store": "sqlite",
		"path":  filepath.Join(t.TempDir(), "h.db"),
	}))
	require.NoError(t, err)
	assert.IsType(t, &snapshot.SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = snapshot.Open(ctx, config.New(map[string]any{"store": "postgres"}))
	assert.ErrorContains(t, err, "dsn is required")

	_, err = snapshot.Open(ctx, config.New(map[string]any{"store": "redis"}))
	assert.ErrorIs(t, err, snapshot.ErrUnknownStore)
}
