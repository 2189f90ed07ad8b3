package sandbox

// UnsandboxedBackend is used only when Config.Enabled is false. It owns a
// bare Session launched under the default system shell and never blocks
// anything: no platform adapter, no pre-check.
type UnsandboxedBackend struct {
	id      string
	session Session
}

// NewUnsandboxedBackend launches a Session under shellCommand (typically
// "/bin/bash" with no wrapper at all).
func NewUnsandboxedBackend(shellCommand, cwd string, env []string) (*UnsandboxedBackend, error) {
	if shellCommand == "" {
		shellCommand = "/bin/bash"
	}

	session, err := NewSession(shellCommand, cwd, env)
	if err != nil {
		return nil, err
	}

	return &UnsandboxedBackend{
		id:      NewBackendId("unsandboxed"),
		session: session,
	}, nil
}

func (b *UnsandboxedBackend) Id() string { return b.id }

func (b *UnsandboxedBackend) Execute(command string) (ExecuteResult, error) {
	out, err := b.session.Execute(command)
	if err != nil {
		return ExecuteResult{}, err
	}

	return ExecuteResult{
		Blocked:  false,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		ExitCode: out.ExitCode,
	}, nil
}

func (b *UnsandboxedBackend) Dispose() error {
	return b.session.Kill()
}
