package sandbox

import (
	"errors"
	"fmt"
)

// Sentinel errors per the error taxonomy. Use errors.Is to test for these;
// wrapped instances carry operation-specific detail via opErrorf.
var (
	// ErrConfigInvalid is returned by ValidateConfig when a merged Config
	// fails strict validation. Callers that load config tolerate this by
	// falling back to defaults; it is never fatal on its own.
	ErrConfigInvalid = errors.New("sandbox: invalid config")

	// ErrPlatformUnavailable is returned by a PlatformAdapter's
	// WrapCommand when the required OS mechanism (bwrap, sandbox-exec) is
	// missing, or on platforms with no adapter at all. This is fatal:
	// Manager.execute propagates it without ever starting a Session.
	ErrPlatformUnavailable = errors.New("sandbox: platform unavailable")

	// ErrUnknownProvider is returned by ProviderRegistry.Get for an
	// unregistered provider name.
	ErrUnknownProvider = errors.New("sandbox: unknown provider")

	// ErrSessionFailure is returned when the underlying Session dies or
	// times out during execute. Manager rebuilds and retries once before
	// propagating.
	ErrSessionFailure = errors.New("sandbox: session failure")
)

// opErrorf wraps one of the sentinels above with operation and detail
// context.
func opErrorf(sentinel error, op, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", op, sentinel, fmt.Sprintf(format, args...))
}
