//go:build darwin

package sandbox

import (
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// MacAdapter wraps commands with macOS Seatbelt (sandbox-exec). It is
// stateful: each WrapCommand call writes a fresh .sb profile file and
// remembers its path for Cleanup.
type MacAdapter struct {
	debugf Debugf

	mu          sync.Mutex
	profilePath string
}

func newPlatformAdapter(debugf Debugf, _ AdapterOptions) (PlatformAdapter, error) {
	return &MacAdapter{debugf: debugf}, nil
}

var macReadOnlySubpaths = []string{
	"/usr/lib",
	"/usr/bin",
	"/bin",
	"/System",
	"/Library/Preferences",
	"/private/var/db",
	"/private/etc",
}

// WrapCommand writes the bit-exact-ordered Seatbelt profile and returns
// "sandbox-exec -f <profilePath> /bin/bash". Ordering is load-bearing: deny
// rules must follow allow rules to override them.
func (a *MacAdapter) WrapCommand(policy Policy) (string, error) {
	if _, err := exec.LookPath("sandbox-exec"); err != nil {
		return "", opErrorf(ErrPlatformUnavailable, "WrapCommand", "sandbox-exec is required on macOS for filesystem sandboxing")
	}

	profile, err := generateSBPL(policy)
	if err != nil {
		return "", err
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("synapse-sandbox-%d-%s.sb", time.Now().UnixMilli(), randomSuffix(6)))

	if err := os.WriteFile(path, []byte(profile), 0o600); err != nil {
		return "", opErrorf(ErrPlatformUnavailable, "WrapCommand", "writing seatbelt profile: %v", err)
	}

	a.mu.Lock()
	a.profilePath = path
	a.mu.Unlock()

	return fmt.Sprintf("sandbox-exec -f %s /bin/bash", path), nil
}

func generateSBPL(policy Policy) (string, error) {
	var b strings.Builder

	b.WriteString("(version 1)\n")
	b.WriteString("(deny default)\n")
	b.WriteString("(allow process-fork)\n(allow process-exec)\n(allow signal)\n")

	for _, p := range macReadOnlySubpaths {
		fmt.Fprintf(&b, "(allow file-read* (subpath %q))\n", p)
	}

	b.WriteString(`(allow file-read* file-write* (subpath "/dev"))` + "\n")
	b.WriteString("(allow sysctl-read)\n")

	if len(policy.Filesystem.Whitelist) > 0 {
		b.WriteString("(allow file-read* file-write*")
		for _, p := range policy.Filesystem.Whitelist {
			fmt.Fprintf(&b, " (subpath \"%s\")", sbplStringEscape(p))
		}
		b.WriteString(")\n")
	}

	if len(policy.Filesystem.Blacklist) > 0 {
		b.WriteString("(deny file-read* file-write*")
		for _, p := range policy.Filesystem.Blacklist {
			if hasGlobMeta(p) {
				fmt.Fprintf(&b, " (regex #\"%s\")", sbplStringEscape(globToRegexPattern(p)))
			} else {
				fmt.Fprintf(&b, " (subpath \"%s\")", sbplStringEscape(p))
			}
		}
		b.WriteString(")\n")
	}

	b.WriteString("(deny network*)\n(allow ipc-posix-shm*)\n(allow mach-lookup)\n")

	return b.String(), nil
}

func randomSuffix(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	out := make([]byte, n)
	for i := range out {
		out[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return string(out)
}

var (
	macSandboxExecPrefix = regexp.MustCompile(`(?i)sandbox-exec:\s`)
	macDenyWords         = regexp.MustCompile(`(?i)operation not permitted|denied|prohibited|failed|error`)
	macKernelDeny        = regexp.MustCompile(`\bSandbox:\s[^\n]*\bdeny\([^)]+\)`)
	macViolationReason   = regexp.MustCompile(`deny\s+([a-zA-Z0-9-]+)`)
	macBlockedResource   = regexp.MustCompile(`path\s+"([^"]+)"`)
)

func (a *MacAdapter) IsViolation(out ExecOutput) bool {
	if macSandboxExecPrefix.MatchString(out.Stderr) && macDenyWords.MatchString(out.Stderr) {
		return true
	}
	return macKernelDeny.MatchString(out.Stderr)
}

func (a *MacAdapter) ExtractViolationReason(out ExecOutput) string {
	m := macViolationReason.FindStringSubmatch(out.Stderr)
	if m == nil {
		return ""
	}
	return m[1]
}

func (a *MacAdapter) ExtractBlockedResource(out ExecOutput) string {
	m := macBlockedResource.FindStringSubmatch(out.Stderr)
	if m == nil {
		return ""
	}
	return m[1]
}

// Cleanup best-effort unlinks the profile file; a missing file is silently
// ignored.
func (a *MacAdapter) Cleanup() error {
	a.mu.Lock()
	path := a.profilePath
	a.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
