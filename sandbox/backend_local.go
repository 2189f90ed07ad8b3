package sandbox

import (
	"os"
	"strings"
	"sync"
)

// sessionFactory is a seam for tests to inject a fake Session without
// spawning a real child process.
type sessionFactory func(shellCommand, cwd string, env []string) (Session, error)

func defaultSessionFactory(shellCommand, cwd string, env []string) (Session, error) {
	return NewSession(shellCommand, cwd, env)
}

// LocalBackend pre-checks a command against the policy's blacklist before
// ever invoking the Session, and post-classifies Session output through the
// PlatformAdapter.
type LocalBackend struct {
	id      string
	policy  Policy
	adapter PlatformAdapter
	cwd     string
	env     []string
	debugf  Debugf

	newSession sessionFactory

	mu      sync.Mutex
	started bool
	session Session
}

// NewLocalBackend constructs a LocalBackend bound to policy. The Session is
// not started until the first Execute call.
func NewLocalBackend(policy Policy, adapter PlatformAdapter, cwd string, env []string, debugf Debugf) *LocalBackend {
	return &LocalBackend{
		id:         NewBackendId("local"),
		policy:     policy,
		adapter:    adapter,
		cwd:        cwd,
		env:        env,
		debugf:     debugf,
		newSession: defaultSessionFactory,
	}
}

func (b *LocalBackend) Id() string { return b.id }

// start computes the wrapper shell command once and launches the Session.
// Idempotent.
func (b *LocalBackend) start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return nil
	}

	shellCommand, err := b.adapter.WrapCommand(b.policy)
	if err != nil {
		return err
	}

	session, err := b.newSession(shellCommand, b.cwd, b.env)
	if err != nil {
		return err
	}

	b.session = session
	b.started = true
	return nil
}

// Execute pre-checks command against the blacklist, delegates to the
// Session when it is not blocked, and post-classifies the Session's output
// through the platform adapter.
func (b *LocalBackend) Execute(command string) (ExecuteResult, error) {
	if pattern, ok := b.blacklistMatch(command); ok {
		b.debugf.call("sandbox: blocked command by blacklist pattern %q", pattern)
		return ExecuteResult{
			Blocked:         true,
			BlockedReason:   "deny file-read",
			BlockedResource: pattern,
			ExitCode:        1,
			Stdout:          "",
			Stderr:          "Access denied by sandbox policy: " + pattern,
		}, nil
	}

	if err := b.start(); err != nil {
		return ExecuteResult{}, err
	}

	out, err := b.session.Execute(command)
	if err != nil {
		return ExecuteResult{}, err
	}

	if b.adapter.IsViolation(out) {
		return ExecuteResult{
			Blocked:         true,
			BlockedReason:   b.adapter.ExtractViolationReason(out),
			BlockedResource: b.adapter.ExtractBlockedResource(out),
			Stdout:          out.Stdout,
			Stderr:          out.Stderr,
			ExitCode:        out.ExitCode,
		}, nil
	}

	return ExecuteResult{
		Blocked:  false,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: out.ExitCode,
	}, nil
}

// blacklistMatch implements the three-variant HOME-evasion pre-check:
// the original command text, the original with every "~/" replaced by
// "$HOME/", and the original with every occurrence of $HOME's value
// replaced by "~". The first blacklist pattern to match any variant wins.
func (b *LocalBackend) blacklistMatch(command string) (string, bool) {
	variants := commandVariants(command)

	for _, pattern := range b.policy.Filesystem.Blacklist {
		if hasGlobMeta(pattern) {
			re, err := compileGlob(pattern)
			if err != nil {
				b.debugf.call("sandbox: invalid blacklist glob %q: %v", pattern, err)
				continue
			}
			for _, v := range variants {
				if re.MatchString(v) {
					return pattern, true
				}
			}
			continue
		}

		for _, v := range variants {
			if strings.Contains(v, pattern) {
				return pattern, true
			}
		}
	}

	return "", false
}

// commandVariants produces the deduplicated set of home-evasion variants
// for a command string.
func commandVariants(command string) []string {
	variants := []string{command}

	home := os.Getenv("HOME")

	withDollarHome := strings.ReplaceAll(command, "~/", "$HOME/")
	variants = appendVariant(variants, withDollarHome)

	if home != "" {
		withTilde := strings.ReplaceAll(command, home, "~")
		variants = appendVariant(variants, withTilde)
	}

	return variants
}

func appendVariant(variants []string, v string) []string {
	for _, existing := range variants {
		if existing == v {
			return variants
		}
	}
	return append(variants, v)
}

// Dispose kills/cleans up the Session, then calls the adapter's Cleanup.
// Idempotent; both sides tolerate missing resources.
func (b *LocalBackend) Dispose() error {
	b.mu.Lock()
	session := b.session
	b.started = false
	b.session = nil
	b.mu.Unlock()

	if session != nil {
		if err := session.Kill(); err != nil {
			_ = session.Cleanup()
		}
	}

	return b.adapter.Cleanup()
}
