package eventmgr

import (
	"github.com/randalmurphal/eventmgr/pkg/eventmgr/config"
	emerrors "github.com/randalmurphal/eventmgr/pkg/eventmgr/errors"
)

// Sentinel errors, re-exported for callers that only import this package.
var (
	// ErrInvalidArgument indicates a registration was rejected: empty key,
	// nil listener or an empty declared kind.
	ErrInvalidArgument = emerrors.ErrInvalidArgument

	// ErrInvalidConfig indicates a configuration document could not be applied.
	ErrInvalidConfig = config.ErrInvalid
)

// Error types returned by Publish.
type (
	// ListenerError is one listener's failure.
	ListenerError = emerrors.ListenerError

	// PublishError aggregates failures under PolicyIsolate.
	PublishError = emerrors.PublishError

	// PanicError is a recovered listener panic.
	PanicError = emerrors.PanicError
)
