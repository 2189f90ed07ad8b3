//go:build linux

package sandbox

import (
	"strings"
	"testing"
)

func Test_LinuxAdapter_FailsClosedWithoutBwrap(t *testing.T) {
	t.Parallel()

	adapter := &LinuxAdapter{bwrapBin: ""}

	_, err := adapter.WrapCommand(Policy{})
	if err == nil {
		t.Fatal("expected an error when bwrap is unavailable")
	}
	if !strings.Contains(err.Error(), "bwrap is required on Linux for filesystem sandboxing") {
		t.Fatalf("got error %v", err)
	}
}

func Test_LinuxAdapter_WrapCommandBuildsRequiredPrefix(t *testing.T) {
	t.Parallel()

	adapter := &LinuxAdapter{bwrapBin: "/usr/bin/bwrap"}

	cmd, err := adapter.WrapCommand(Policy{})
	if err != nil {
		t.Fatalf("WrapCommand: %v", err)
	}

	wantPrefix := "bwrap --unshare-net --die-with-parent --new-session --ro-bind /usr /usr --ro-bind /bin /bin --ro-bind /lib /lib --ro-bind /etc /etc"
	if !strings.HasPrefix(cmd, wantPrefix) {
		t.Fatalf("got %q, want prefix %q", cmd, wantPrefix)
	}
	if !strings.HasSuffix(cmd, "/bin/bash") {
		t.Fatalf("expected command to terminate with /bin/bash, got %q", cmd)
	}
}

func Test_LinuxAdapter_DropsGlobWhitelistEntriesAtBindStep(t *testing.T) {
	t.Parallel()

	adapter := &LinuxAdapter{bwrapBin: "/usr/bin/bwrap"}
	policy := Policy{Filesystem: FilesystemPolicy{Whitelist: []string{"/data/**/logs"}}}

	cmd, err := adapter.WrapCommand(policy)
	if err != nil {
		t.Fatalf("WrapCommand: %v", err)
	}
	if strings.Contains(cmd, "/data/**/logs") {
		t.Fatalf("expected glob whitelist entry to be dropped at the bind step, got %q", cmd)
	}
}

func Test_LinuxAdapter_IsViolationMatchesPermissionDenied(t *testing.T) {
	t.Parallel()

	adapter := &LinuxAdapter{}
	out := ExecOutput{Stderr: "bash: '/etc/shadow': Permission denied"}

	if !adapter.IsViolation(out) {
		t.Fatal("expected Permission denied to be classified as a violation")
	}
	if reason := adapter.ExtractViolationReason(out); reason != "Permission denied" {
		t.Fatalf("got reason %q", reason)
	}
	if resource := adapter.ExtractBlockedResource(out); resource != "/etc/shadow" {
		t.Fatalf("got resource %q", resource)
	}
}
