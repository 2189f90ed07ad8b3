//go:build !linux && !darwin

package sandbox

import "runtime"

// unsupportedAdapter fails closed on any platform without an explicit
// adapter: WrapCommand always errors, never returning an unwrapped shell
// command.
type unsupportedAdapter struct{}

func newPlatformAdapter(debugf Debugf, _ AdapterOptions) (PlatformAdapter, error) {
	return nil, opErrorf(ErrPlatformUnavailable, "NewPlatformAdapter", "Sandbox not supported on platform: %s", runtime.GOOS)
}

func (unsupportedAdapter) WrapCommand(Policy) (string, error) {
	return "", opErrorf(ErrPlatformUnavailable, "WrapCommand", "Sandbox not supported on platform: %s", runtime.GOOS)
}

func (unsupportedAdapter) IsViolation(ExecOutput) bool           { return false }
func (unsupportedAdapter) ExtractViolationReason(ExecOutput) string { return "" }
func (unsupportedAdapter) ExtractBlockedResource(ExecOutput) string { return "" }
func (unsupportedAdapter) Cleanup() error                           { return nil }
