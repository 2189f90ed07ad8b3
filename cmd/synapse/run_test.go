package main

import (
	"os"
	"strings"
	"testing"
)

func Test_Run_DisabledExecutesPlainCommands(t *testing.T) {
	t.Parallel()

	stdin := strings.NewReader("echo hello\n")
	var stdout, stderr strings.Builder

	sigCh := make(chan os.Signal)
	code := Run(stdin, &stdout, &stderr, []string{"--disable"}, nil, sigCh)

	if code != 0 {
		t.Fatalf("got exit code %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "hello") {
		t.Fatalf("expected stdout to contain command output, got %q", stdout.String())
	}
}

func Test_Run_HelpFlagPrintsUsage(t *testing.T) {
	t.Parallel()

	stdin := strings.NewReader("")
	var stdout, stderr strings.Builder

	sigCh := make(chan os.Signal)
	code := Run(stdin, &stdout, &stderr, []string{"--help"}, nil, sigCh)

	if code != 0 {
		t.Fatalf("got exit code %d", code)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Fatalf("expected usage text on stderr, got %q", stderr.String())
	}
}

func Test_Run_DisabledModeNeverReportsBlocked(t *testing.T) {
	t.Parallel()

	stdin := strings.NewReader("cat ~/.ssh/id_rsa\n")
	var stdout, stderr strings.Builder

	sigCh := make(chan os.Signal)
	code := Run(stdin, &stdout, &stderr, []string{"--disable"}, nil, sigCh)

	// Disabled mode never blocks; this asserts the command still runs
	// (and likely fails for lack of ~/.ssh/id_rsa) rather than being
	// reported as [blocked].
	if code != 0 {
		t.Fatalf("got exit code %d, stderr: %s", code, stderr.String())
	}
	if strings.Contains(stdout.String(), "[blocked]") {
		t.Fatal("disabled mode must never report a blocked command")
	}
}
