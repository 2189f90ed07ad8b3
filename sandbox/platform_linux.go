//go:build linux

package sandbox

import (
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// LinuxAdapter wraps commands with bubblewrap (bwrap). bwrap detection is
// cached at construction rather than resolved on every WrapCommand call.
type LinuxAdapter struct {
	debugf   Debugf
	opts     AdapterOptions
	bwrapBin string // "" if bwrap is not on PATH
}

func newPlatformAdapter(debugf Debugf, opts AdapterOptions) (PlatformAdapter, error) {
	bin, _ := exec.LookPath("bwrap")
	return &LinuxAdapter{debugf: debugf, opts: opts, bwrapBin: bin}, nil
}

// hasBwrap exists as a seam so tests can simulate a missing bwrap without
// touching PATH.
func (a *LinuxAdapter) hasBwrap() bool { return a.bwrapBin != "" }

const linuxRequiredDirsCount = 4

var linuxRequiredDirs = [linuxRequiredDirsCount]string{"/usr", "/bin", "/lib", "/etc"}

// WrapCommand builds the bit-exact required bwrap argv prefix, then
// appends whitelist binds (existing, non-glob paths only) and, when
// AdapterOptions.Docker is set, one additional Docker socket bind, and
// terminates with /bin/bash.
func (a *LinuxAdapter) WrapCommand(policy Policy) (string, error) {
	if !a.hasBwrap() {
		return "", opErrorf(ErrPlatformUnavailable, "WrapCommand", "bwrap is required on Linux for filesystem sandboxing")
	}

	args := []string{"bwrap", "--unshare-net", "--die-with-parent", "--new-session"}

	for _, dir := range linuxRequiredDirs {
		args = append(args, "--ro-bind", dir, dir)
	}

	for _, entry := range policy.Filesystem.Whitelist {
		if hasGlobMeta(entry) {
			a.debugf.call("sandbox: linux adapter dropping glob whitelist entry at bind step: %s", entry)
			continue
		}
		if _, err := os.Stat(entry); err != nil {
			continue
		}
		args = append(args, "--bind", entry, entry)
	}

	if a.opts.Docker {
		if sock, ok := resolveDockerSocket(a.debugf); ok {
			args = append(args, "--bind", sock, sock)
		}
	}

	args = append(args, "/bin/bash")

	return strings.Join(args, " "), nil
}

func resolveDockerSocket(debugf Debugf) (string, bool) {
	sock := "/var/run/docker.sock"
	if host := os.Getenv("DOCKER_HOST"); host != "" {
		if u, err := url.Parse(host); err == nil && u.Scheme == "unix" {
			if u.Path != "" {
				sock = u.Path
			} else {
				sock = u.Opaque
			}
		}
	}

	resolved, err := filepath.EvalSymlinks(sock)
	if err != nil {
		debugf.call("sandbox: docker socket %s not available: %v", sock, err)
		return "", false
	}

	return resolved, true
}

var (
	linuxPermissionDenied    = regexp.MustCompile(`(?i)permission denied`)
	linuxOperationNotPermitd = regexp.MustCompile(`(?i)operation not permitted`)
	linuxBlockedResourceRe   = regexp.MustCompile(`'([^']*)':\s*Permission denied`)
)

func (a *LinuxAdapter) IsViolation(out ExecOutput) bool {
	return linuxPermissionDenied.MatchString(out.Stderr) || linuxOperationNotPermitd.MatchString(out.Stderr)
}

func (a *LinuxAdapter) ExtractViolationReason(out ExecOutput) string {
	if strings.Contains(out.Stderr, "Permission denied") {
		return "Permission denied"
	}
	if strings.Contains(out.Stderr, "Operation not permitted") {
		return "Operation not permitted"
	}
	return ""
}

func (a *LinuxAdapter) ExtractBlockedResource(out ExecOutput) string {
	m := linuxBlockedResourceRe.FindStringSubmatch(out.Stderr)
	if m == nil {
		return ""
	}
	return m[1]
}

func (a *LinuxAdapter) Cleanup() error { return nil }
