// Package sandbox implements the sandboxed command execution subsystem used
// by agentic callers to run untrusted shell commands under OS-level
// filesystem and network restrictions.
//
// The package is organized around five cooperating layers, consumed
// top-down by callers and built bottom-up here:
//
//   - Policy & Config: load, validate, merge, and path-expand a Policy from
//     defaults, a config file, a caller-supplied layer, and a runtime layer.
//   - Platform Adapter: translate a Policy into a concrete wrapper command
//     (bwrap on Linux, sandbox-exec on macOS) and classify stderr as a
//     policy violation.
//   - Session: a long-lived child shell process launched under the wrapper
//     command, executing commands sequentially and preserving cwd/env
//     across calls.
//   - Backend: pre-checks a command against the blacklist, delegates to the
//     Session, and post-classifies the result.
//   - Manager: owns lifecycle, lazy backend creation, the runtime
//     whitelist, and rebuild-on-failure retry.
//
// None of these layers parse or interpret the command text beyond the
// blacklist pre-check; the package never attempts to be secure on
// platforms it does not explicitly support.
package sandbox
