package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/dispatch"
	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

func TestParseDefaults(t *testing.T) {
	s, err := config.Parse(config.New(nil))
	require.NoError(t, err)

	assert.Equal(t, dispatch.PolicyIsolate, s.Policy)
	assert.False(t, s.RecoverPanics)
	assert.False(t, s.Metrics)
	assert.False(t, s.Tracing)
	assert.False(t, s.LogDeliveries)
	assert.Nil(t, s.Retry)
	assert.Equal(t, kind.Flat, s.Hierarchy)
}

func TestParseFull(t *testing.T) {
	cfg, err := config.FromYAML([]byte(`
failure_policy: fail_fast
recover_panics: true
metrics: true
tracing: true
log_deliveries: true
retry:
  max_attempts: 5
  initial_backoff: 10ms
  max_backoff: 80ms
kinds:
  sub: [simple]
  leaf: [sub]
`))
	require.NoError(t, err)

	s, err := config.Parse(cfg)
	require.NoError(t, err)

	assert.Equal(t, dispatch.PolicyFailFast, s.Policy)
	assert.True(t, s.RecoverPanics)
	assert.True(t, s.Metrics)
	assert.True(t, s.Tracing)
	assert.True(t, s.LogDeliveries)

	require.NotNil(t, s.Retry)
	assert.Equal(t, 5, s.Retry.MaxAttempts)
	assert.Equal(t, 10*time.Millisecond, s.Retry.InitialBackoff)
	assert.Equal(t, 80*time.Millisecond, s.Retry.MaxBackoff)
	assert.Equal(t, emerrors.DefaultRetry.BackoffFactor, s.Retry.BackoffFactor)

	assert.True(t, s.Hierarchy.IsAncestorOrSelf("simple", "leaf"))
	assert.False(t, s.Hierarchy.IsAncestorOrSelf("leaf", "simple"))
}

func TestParseRetryDefaults(t *testing.T) {
	s, err := config.Parse(config.New(map[string]any{"retry": map[string]any{}}))
	require.NoError(t, err)
	require.NotNil(t, s.Retry)
	assert.Equal(t, emerrors.DefaultRetry.MaxAttempts, s.Retry.MaxAttempts)
	assert.Equal(t, emerrors.DefaultRetry.InitialBackoff, s.Retry.InitialBackoff)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   map[string]any
		target error
	}{
		{"unknown policy", map[string]any{"failure_policy": "ignore"}, emerrors.ErrInvalidArgument},
		{"unknown key", map[string]any{"failure_polcy": "isolate"}, config.ErrInvalid},
		{"malformed kinds", map[string]any{"kinds": []any{"sub"}}, config.ErrInvalid},
		{"cyclic kinds", map[string]any{"kinds": map[string]any{
			"a": []any{"b"},
			"b": []any{"a"},
		}}, kind.ErrCycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse(config.New(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrInvalid)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
