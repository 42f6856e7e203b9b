package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestAccessors_Defaults verifies defaults for missing or mistyped keys.
func TestAccessors_Defaults(t *testing.T) {
	c := New(map[string]any{"s": 1, "b": "yes", "i": 1.5, "f": "x", "d": true})

	assert.Equal(t, "def", c.String("s", "def"))
	assert.True(t, c.Bool("b", true))
	assert.Equal(t, 7, c.Int("i", 7))
	assert.Equal(t, 2.5, c.Float("f", 2.5))
	assert.Equal(t, time.Second, c.Duration("d", time.Second))
	assert.Equal(t, "x", c.String("missing", "x"))
}

// TestAccessors_Values verifies conversions for present keys.
func TestAccessors_Values(t *testing.T) {
	c := New(map[string]any{
		"name":   "graph",
		"on":     true,
		"count":  float64(3),
		"int64":  int64(4),
		"ratio":  2,
		"frame":  "20ms",
		"millis": 16,
	})

	assert.Equal(t, "graph", c.String("name", ""))
	assert.True(t, c.Bool("on", false))
	assert.Equal(t, 3, c.Int("count", 0))
	assert.Equal(t, 4, c.Int("int64", 0))
	assert.Equal(t, 2.0, c.Float("ratio", 0))
	assert.Equal(t, 20*time.Millisecond, c.Duration("frame", 0))
	assert.Equal(t, 16*time.Millisecond, c.Duration("millis", 0))
}

// TestNew_NilMap verifies an empty config is usable.
func TestNew_NilMap(t *testing.T) {
	c := New(nil)
	assert.False(t, c.Has("x"))
	assert.Empty(t, c.Raw())
}

// TestSub verifies nested section access.
func TestSub(t *testing.T) {
	c := New(map[string]any{
		"engine": map[string]any{"max_nodes": 10},
		"flat":   "value",
	})

	assert.Equal(t, 10, c.Sub("engine").Int("max_nodes", 0))
	assert.False(t, c.Sub("flat").Has("anything"))
	assert.False(t, c.Sub("missing").Has("anything"))
}

// TestMerge verifies recursive overlay with the argument winning.
func TestMerge(t *testing.T) {
	base := New(map[string]any{
		"engine":  map[string]any{"max_nodes": 10, "throw_errors": true},
		"history": map[string]any{"enabled": false},
	})
	overlay := New(map[string]any{
		"engine":  map[string]any{"max_nodes": 20},
		"history": "off",
	})

	merged := base.Merge(overlay)

	assert.Equal(t, 20, merged.Sub("engine").Int("max_nodes", 0))
	assert.True(t, merged.Sub("engine").Bool("throw_errors", false))
	assert.Equal(t, "off", merged.String("history", ""))
	assert.Equal(t, 10, base.Sub("engine").Int("max_nodes", 0))
}

// TestFromFile_YAML verifies YAML loading with nested sections.
func TestFromFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litegraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_nodes: 5\n  frame_interval: 40ms\n"), 0o600))

	c, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Sub("engine").Int("max_nodes", 0))
	assert.Equal(t, 40*time.Millisecond, c.Sub("engine").Duration("frame_interval", 0))
}

// TestFromFile_JSON verifies JSON loading.
func TestFromFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "litegraph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"history":{"enabled":true,"max_save":12}}`), 0o600))

	c, err := FromFile(path)
	require.NoError(t, err)
	assert.True(t, c.Sub("history").Bool("enabled", false))
	assert.Equal(t, 12, c.Sub("history").Int("max_save", 0))
}

// TestFromFile_Errors verifies read, extension and parse failures.
func TestFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	txt := filepath.Join(dir, "conf.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o600))
	_, err = FromFile(txt)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = FromYAML([]byte("engine: [unclosed"))
	assert.ErrorContains(t, err, "yaml")

	_, err = FromJSON([]byte("{"))
	assert.ErrorContains(t, err, "json")

	_, err = Parse([]byte("a: 1"), Format("toml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

// TestFromFile_ExpandsEnv verifies environment references are substituted.
func TestFromFile_ExpandsEnv(t *testing.T) {
	t.Setenv("LITEGRAPH_TEST_DSN", "postgres://localhost/graphs")
	path := filepath.Join(t.TempDir(), "litegraph.yml")
	require.NoError(t, os.WriteFile(path, []byte("history:\n  store: postgres\n  dsn: ${LITEGRAPH_TEST_DSN}\n"), 0o600))

	c, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/graphs", c.Sub("history").String("dsn", ""))
}

// TestParse_Empty verifies empty documents decode to an empty Config.
func TestParse_Empty(t *testing.T) {
	testCases := []struct {
		name   string
		format Format
	}{
		{"yaml", YAML},
		{"json", JSON},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Parse([]byte("  \n"), tc.format)
			require.NoError(t, err)
			assert.False(t, c.Has("engine"))
			assert.Equal(t, 3, c.Sub("engine").Int("max_nodes", 3))
		})
	}
}
