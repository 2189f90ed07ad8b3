package sandbox

import (
	"os/exec"
	"strings"
	"testing"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
}

func Test_execSession_PersistsCwdAcrossCalls(t *testing.T) {
	requireShell(t)

	session, err := NewSession("/bin/sh", "/tmp", nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = session.Kill() })

	if _, err := session.Execute("cd /"); err != nil {
		t.Fatalf("Execute(cd /): %v", err)
	}

	out, err := session.Execute("pwd")
	if err != nil {
		t.Fatalf("Execute(pwd): %v", err)
	}

	if strings.TrimSpace(out.Stdout) != "/" {
		t.Fatalf("expected cwd to persist as /, got stdout %q", out.Stdout)
	}
	if out.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", out.ExitCode)
	}
}

func Test_execSession_SeparatesStdoutAndStderr(t *testing.T) {
	requireShell(t)

	session, err := NewSession("/bin/sh", "/tmp", nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = session.Kill() })

	out, err := session.Execute("echo to-stdout; echo to-stderr 1>&2")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if strings.TrimSpace(out.Stdout) != "to-stdout" {
		t.Fatalf("got stdout %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "to-stderr" {
		t.Fatalf("got stderr %q", out.Stderr)
	}
}

func Test_execSession_ReportsNonZeroExitCode(t *testing.T) {
	requireShell(t)

	session, err := NewSession("/bin/sh", "/tmp", nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = session.Kill() })

	out, err := session.Execute("(exit 7)")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out.ExitCode != 7 {
		t.Fatalf("expected exit code 7, got %d", out.ExitCode)
	}
}

func Test_execSession_KillIsIdempotent(t *testing.T) {
	requireShell(t)

	session, err := NewSession("/bin/sh", "/tmp", nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if err := session.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if err := session.Kill(); err != nil {
		t.Fatalf("second Kill: %v", err)
	}
}
