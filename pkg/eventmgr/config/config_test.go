package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
)

func TestNew(t *testing.T) {
	assert.NotNil(t, config.New(nil).Raw())
	assert.False(t, config.New(nil).Has("anything"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"present", map[string]any{"failure_policy": "fail_fast"}, "fail_fast"},
		{"missing", map[string]any{}, "isolate"},
		{"empty string", map[string]any{"failure_policy": ""}, ""},
		{"wrong type", map[string]any{"failure_policy": 3}, "isolate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := config.New(tt.data).String("failure_policy", "isolate")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"metrics": true, "tracing": "yes"})
	assert.True(t, cfg.Bool("metrics", false))
	assert.False(t, cfg.Bool("tracing", false), "strings are not booleans")
	assert.True(t, cfg.Bool("missing", true))
}

func TestInt(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want int
	}{
		{"int", 5, 5},
		{"int64", int64(6), 6},
		{"whole float", 7.0, 7},
		{"fractional float", 7.5, 3},
		{"string", "8", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"n": tt.val})
			assert.Equal(t, tt.want, cfg.Int("n", 3))
		})
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want time.Duration
	}{
		{"duration string", "250ms", 250 * time.Millisecond},
		{"compound string", "1m30s", 90 * time.Second},
		{"int millis", 100, 100 * time.Millisecond},
		{"int64 millis", int64(40), 40 * time.Millisecond},
		{"float millis", 1.5, 1500 * time.Microsecond},
		{"duration", 2 * time.Second, 2 * time.Second},
		{"bad string", "soon", time.Second},
		{"wrong type", true, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"backoff": tt.val})
			assert.Equal(t, tt.want, cfg.Duration("backoff", time.Second))
		})
	}
}

func TestStringSlice(t *testing.T) {
	cfg := config.New(map[string]any{
		"any":    []any{"a", "b"},
		"typed":  []string{"c"},
		"single": "d",
		"mixed":  []any{"a", 1},
	})

	assert.Equal(t, []string{"a", "b"}, cfg.StringSlice("any", nil))
	assert.Equal(t, []string{"c"}, cfg.StringSlice("typed", nil))
	assert.Equal(t, []string{"d"}, cfg.StringSlice("single", nil))
	assert.Equal(t, []string{"x"}, cfg.StringSlice("mixed", []string{"x"}))
	assert.Nil(t, cfg.StringSlice("missing", nil))
}

func TestStringSliceMap(t *testing.T) {
	cfg := config.New(map[string]any{
		"kinds": map[string]any{
			"sub":    []any{"simple"},
			"both":   []any{"a", "b"},
			"single": "simple",
			"root":   nil,
		},
		"bad":    map[string]any{"sub": []any{1}},
		"scalar": "nope",
	})

	assert.Equal(t, map[string][]string{
		"sub":    {"simple"},
		"both":   {"a", "b"},
		"single": {"simple"},
		"root":   {},
	}, cfg.StringSliceMap("kinds"))

	assert.Nil(t, cfg.StringSliceMap("bad"))
	assert.Nil(t, cfg.StringSliceMap("scalar"))
	assert.Nil(t, cfg.StringSliceMap("missing"))
}

func TestSub(t *testing.T) {
	cfg := config.New(map[string]any{
		"retry":  map[string]any{"max_attempts": 5},
		"nested": config.New(map[string]any{"x": "y"}),
		"scalar": 1,
	})

	assert.Equal(t, 5, cfg.Sub("retry").Int("max_attempts", 0))
	assert.Equal(t, "y", cfg.Sub("nested").String("x", ""))
	assert.False(t, cfg.Sub("scalar").Has("anything"))
	assert.NotNil(t, cfg.Sub("missing").Raw())
}

func TestKeys(t *testing.T) {
	cfg := config.New(map[string]any{"a": 1, "b": 2})
	assert.ElementsMatch(t, []string{"a", "b"}, cfg.Keys())
}

func TestFromYAML(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
failure_policy: fail_fast
retry:
  max_attempts: 4
  initial_backoff: 20ms
kinds:
  sub: [simple]
`))
	require.NoError(t, err)

	assert.Equal(t, "fail_fast", cfg.String("failure_policy", ""))
	assert.Equal(t, 4, cfg.Sub("retry").Int("max_attempts", 0))
	assert.Equal(t, 20*time.Millisecond, cfg.Sub("retry").Duration("initial_backoff", 0))
	assert.Equal(t, map[string][]string{"sub": {"simple"}}, cfg.StringSliceMap("kinds"))

	empty, err := config.FromYAML(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Keys())

	_, err = config.FromYAML([]byte("kinds: [unclosed"))
	assert.Error(t, err)
}

func TestFromJSON(t *testing.T) {
	cfg, err := config.FromJSON([]byte(`{"metrics": true, "retry": {"max_attempts": 2, "max_backoff": 500}}`))
	require.NoError(t, err)

	assert.True(t, cfg.Bool("metrics", false))
	assert.Equal(t, 2, cfg.Sub("retry").Int("max_attempts", 0))
	assert.Equal(t, 500*time.Millisecond, cfg.Sub("retry").Duration("max_backoff", 0))

	_, err = config.FromJSON([]byte("{"))
	assert.Error(t, err)
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "events.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("tracing: true\n"), 0o600))
	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.True(t, cfg.Bool("tracing", false))

	jsonPath := filepath.Join(dir, "events.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"tracing": true}`), 0o600))
	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.True(t, cfg.Bool("tracing", false))

	_, err = config.FromFile(filepath.Join(dir, "events.toml"))
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
