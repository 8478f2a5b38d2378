package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/randalmurphal/eventmgr/pkg/eventmgr/dispatch"
	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/kind"
)

// ErrInvalid is returned when a configuration document is well-formed but
// cannot be applied.
var ErrInvalid = errors.New("invalid configuration")

// Top-level keys understood by Parse.
const (
	KeyFailurePolicy = "failure_policy"
	KeyRecoverPanics = "recover_panics"
	KeyMetrics       = "metrics"
	KeyTracing       = "tracing"
	KeyLogDeliveries = "log_deliveries"
	KeyRetry         = "retry"
	KeyKinds         = "kinds"
)

var knownKeys = []string{
	KeyFailurePolicy,
	KeyRecoverPanics,
	KeyMetrics,
	KeyTracing,
	KeyLogDeliveries,
	KeyRetry,
	KeyKinds,
}

// Settings is the validated form of an event manager configuration.
type Settings struct {
	Policy        dispatch.Policy
	RecoverPanics bool
	Metrics       bool
	Tracing       bool
	LogDeliveries bool

	// Retry is nil unless a retry section is present.
	Retry *emerrors.RetryConfig

	// Hierarchy is built from the kinds section; kind.Flat when absent.
	Hierarchy kind.Hierarchy
}

// Parse validates c and converts it to Settings. Unknown top-level keys,
// an unknown failure policy, a malformed kinds table or a cyclic hierarchy
// are errors wrapping ErrInvalid.
func Parse(c Config) (Settings, error) {
	if unknown := lo.Without(c.Keys(), knownKeys...); len(unknown) > 0 {
		sort.Strings(unknown)
		return Settings{}, fmt.Errorf("%w: unknown keys %v", ErrInvalid, unknown)
	}

	policy, err := dispatch.ParsePolicy(c.String(KeyFailurePolicy, ""))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	s := Settings{
		Policy:        policy,
		RecoverPanics: c.Bool(KeyRecoverPanics, false),
		Metrics:       c.Bool(KeyMetrics, false),
		Tracing:       c.Bool(KeyTracing, false),
		LogDeliveries: c.Bool(KeyLogDeliveries, false),
		Hierarchy:     kind.Flat,
	}

	if c.Has(KeyRetry) {
		retry := parseRetry(c.Sub(KeyRetry))
		s.Retry = &retry
	}

	if c.Has(KeyKinds) {
		kinds := c.StringSliceMap(KeyKinds)
		if kinds == nil {
			return Settings{}, fmt.Errorf("%w: %s must map each kind to a list of parent kinds", ErrInvalid, KeyKinds)
		}
		table, err := kind.FromMap(kinds)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		s.Hierarchy = table
	}

	return s, nil
}

func parseRetry(c Config) emerrors.RetryConfig {
	d := emerrors.DefaultRetry
	return emerrors.NewRetryConfig(
		emerrors.WithMaxAttempts(c.Int("max_attempts", d.MaxAttempts)),
		emerrors.WithInitialBackoff(c.Duration("initial_backoff", d.InitialBackoff)),
		emerrors.WithMaxBackoff(c.Duration("max_backoff", d.MaxBackoff)),
	)
}
