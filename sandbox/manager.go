package sandbox

import (
	"os"
	"sync"
)

// ManagerOptions customize a Manager's collaborators, mainly for testing.
type ManagerOptions struct {
	// Registry overrides the provider registry; defaults to
	// DefaultProviderRegistry().
	Registry *ProviderRegistry
	// CreateUnsandboxedBackend overrides how the unsandboxed fallback
	// backend is constructed.
	CreateUnsandboxedBackend func(cwd string, env []string) (Backend, error)
	Debugf                   Debugf
}

// SandboxManager owns lifecycle, lazy backend creation, the runtime
// whitelist, and rebuild-on-failure retry for a single configured Policy.
// Concurrent Execute calls on the same Manager are undefined behavior; the
// underlying Session is sequential by contract.
type SandboxManager struct {
	config   Config
	registry *ProviderRegistry
	debugf   Debugf

	createUnsandboxed func(cwd string, env []string) (Backend, error)

	mu               sync.Mutex
	provider         Provider
	backend          Backend
	runtimeWhitelist []string
}

// NewManager constructs a Manager around a frozen Config.
func NewManager(config Config, opts ManagerOptions) *SandboxManager {
	registry := opts.Registry
	if registry == nil {
		registry = DefaultProviderRegistry()
	}

	createUnsandboxed := opts.CreateUnsandboxedBackend
	if createUnsandboxed == nil {
		createUnsandboxed = func(cwd string, env []string) (Backend, error) {
			return NewUnsandboxedBackend("", cwd, env)
		}
	}

	return &SandboxManager{
		config:            config,
		registry:          registry,
		debugf:            opts.Debugf,
		createUnsandboxed: createUnsandboxed,
	}
}

// buildPolicy composes the effective policy for a create call: whitelist is
// dedup([cwd, ...configWhitelist, ...runtimeWhitelist, TMPDIR or "/tmp"]);
// blacklist is dedup(configBlacklist); both are then path-expanded against
// the current process environment and HOME.
func (m *SandboxManager) buildPolicy(cwd string) (Policy, error) {
	m.mu.Lock()
	runtime := append([]string(nil), m.runtimeWhitelist...)
	m.mu.Unlock()

	tmpdir := os.Getenv("TMPDIR")
	if tmpdir == "" {
		tmpdir = "/tmp"
	}

	whitelist := []string{cwd}
	whitelist = append(whitelist, m.config.Policy.Filesystem.Whitelist...)
	whitelist = append(whitelist, runtime...)
	whitelist = append(whitelist, tmpdir)
	whitelist = dedupPreserveOrder(whitelist)

	blacklist := dedupPreserveOrder(m.config.Policy.Filesystem.Blacklist)

	policy := Policy{
		Filesystem: FilesystemPolicy{
			Whitelist: whitelist,
			Blacklist: blacklist,
			Presets:   m.config.Policy.Filesystem.Presets,
		},
	}

	return BuildPolicy(policy, BuildEnv{HomeDir: os.Getenv("HOME"), WorkDir: cwd, Env: processEnvMap()})
}

func processEnvMap() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		for i := 0; i < len(kv); i++ {
			if kv[i] == '=' {
				out[kv[:i]] = kv[i+1:]
				break
			}
		}
	}
	return out
}

// getSandbox ensures a backend exists for cwd, creating one via the
// provider on first call. Idempotent once active.
func (m *SandboxManager) getSandbox(cwd string) (Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getSandboxLocked(cwd)
}

func (m *SandboxManager) getSandboxLocked(cwd string) (Backend, error) {
	if m.backend != nil {
		return m.backend, nil
	}

	if !m.config.Enabled {
		backend, err := m.createUnsandboxed(cwd, os.Environ())
		if err != nil {
			return nil, err
		}
		m.backend = backend
		return backend, nil
	}

	if m.provider == nil {
		provider, err := m.registry.Get(m.config.Provider)
		if err != nil {
			return nil, err
		}
		m.provider = provider
	}

	policy, err := m.buildPolicy(cwd)
	if err != nil {
		return nil, err
	}

	backend, err := m.provider.Create(CreateOptions{
		Cwd:             cwd,
		Policy:          policy,
		Env:             os.Environ(),
		ProviderOptions: m.config.ProviderOptions,
		Debugf:          m.debugf,
	})
	if err != nil {
		return nil, err
	}

	m.backend = backend
	return backend, nil
}

// AddRuntimeWhitelist adds path to the in-memory runtime set. If the
// manager is enabled and already active, this triggers a rebuild (destroy
// then create). It is a no-op transition when disabled, but the path is
// still recorded.
func (m *SandboxManager) AddRuntimeWhitelist(path, cwd string) error {
	m.mu.Lock()
	m.runtimeWhitelist = append(m.runtimeWhitelist, path)
	hasActive := m.backend != nil
	enabled := m.config.Enabled
	m.mu.Unlock()

	if !enabled || !hasActive {
		return nil
	}

	return m.rebuild(cwd)
}

func (m *SandboxManager) rebuild(cwd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.destroyLocked(); err != nil {
		return err
	}

	_, err := m.getSandboxLocked(cwd)
	return err
}

func (m *SandboxManager) destroyLocked() error {
	if m.backend == nil {
		return nil
	}

	id := m.backend.Id()
	m.backend = nil

	if !m.config.Enabled || m.provider == nil {
		return nil
	}

	return m.provider.Destroy(id)
}

// Execute ensures an active backend and runs command. On failure, if
// enabled, it rebuilds once and retries; any further failure propagates.
func (m *SandboxManager) Execute(command, cwd string) (ExecuteResult, error) {
	backend, err := m.getSandbox(cwd)
	if err != nil {
		return ExecuteResult{}, err
	}

	result, err := backend.Execute(command)
	if err == nil {
		return result, nil
	}

	m.mu.Lock()
	enabled := m.config.Enabled
	m.mu.Unlock()

	if !enabled {
		return ExecuteResult{}, err
	}

	m.debugf.call("sandbox: execute failed, rebuilding backend once: %v", err)

	if rebuildErr := m.rebuild(cwd); rebuildErr != nil {
		return ExecuteResult{}, rebuildErr
	}

	backend, err = m.getSandbox(cwd)
	if err != nil {
		return ExecuteResult{}, err
	}

	return backend.Execute(command)
}

// Shutdown transitions Active to Uninitialized via provider.Destroy (or
// backend.Dispose when disabled). Idempotent.
func (m *SandboxManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.backend == nil {
		return nil
	}

	if !m.config.Enabled {
		backend := m.backend
		m.backend = nil
		return backend.Dispose()
	}

	return m.destroyLocked()
}
