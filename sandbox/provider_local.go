package sandbox

import "sync"

// LocalProvider creates LocalBackend instances on the local machine.
type LocalProvider struct {
	mu       sync.Mutex
	backends map[string]*LocalBackend
}

func NewLocalProvider() *LocalProvider {
	return &LocalProvider{backends: make(map[string]*LocalBackend)}
}

func (p *LocalProvider) Type() string { return "local" }

func (p *LocalProvider) Create(opts CreateOptions) (Backend, error) {
	adapter, err := NewPlatformAdapter(opts.Debugf, AdapterOptions{Docker: providerOptionBool(opts.ProviderOptions, "docker")})
	if err != nil {
		return nil, err
	}

	backend := NewLocalBackend(opts.Policy, adapter, opts.Cwd, opts.Env, opts.Debugf)

	p.mu.Lock()
	p.backends[backend.Id()] = backend
	p.mu.Unlock()

	return backend, nil
}

func (p *LocalProvider) Destroy(backendId string) error {
	p.mu.Lock()
	backend, ok := p.backends[backendId]
	delete(p.backends, backendId)
	p.mu.Unlock()

	if !ok {
		return nil
	}
	return backend.Dispose()
}

func (p *LocalProvider) List() []BackendStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]BackendStatus, 0, len(p.backends))
	for id := range p.backends {
		out = append(out, BackendStatus{Id: id, Status: "active"})
	}
	return out
}

func providerOptionBool(opts map[string]any, key string) bool {
	v, ok := opts[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
