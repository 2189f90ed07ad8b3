package sandbox

import (
	"strings"
	"sync"
)

// CreateOptions are passed to a Provider's Create call.
type CreateOptions struct {
	Cwd             string
	Policy          Policy
	Env             []string
	ProviderOptions map[string]any
	Debugf          Debugf
}

// BackendStatus is one entry returned by Provider.List.
type BackendStatus struct {
	Id     string
	Status string
}

// Provider is a factory+lifecycle manager for Backends of one kind.
// Providers are internally responsible for tracking the backends they
// create so Destroy and List can operate on them.
type Provider interface {
	Type() string
	Create(opts CreateOptions) (Backend, error)
	// Destroy releases a backend by id. Destroying an unknown id is a
	// silent no-op.
	Destroy(backendId string) error
	// List returns the provider's currently tracked backends.
	List() []BackendStatus
}

// ProviderFactory constructs a fresh Provider instance. Registry.Get calls
// the factory on every call so each Manager gets its own provider
// instance.
type ProviderFactory func() Provider

// ProviderRegistry is a name-to-factory map of backend providers. Per the
// design notes, this is implemented as an explicit, instantiable type
// rather than forcing callers through hidden global state; a process-wide
// default instance is still provided via DefaultProviderRegistry for
// callers that want classic global-registry ergonomics.
type ProviderRegistry struct {
	mu        sync.Mutex
	factories map[string]ProviderFactory
}

// NewProviderRegistry returns an empty registry. Use Init to install the
// builtin providers.
func NewProviderRegistry() *ProviderRegistry {
	return &ProviderRegistry{factories: make(map[string]ProviderFactory)}
}

// Init installs the builtin providers: local and daytona.
func (r *ProviderRegistry) Init() {
	r.Register("local", func() Provider { return NewLocalProvider() })
	r.Register("daytona", func() Provider { return NewDaytonaProvider() })
}

// Register adds or overwrites the factory for name. Empty or
// whitespace-only names are rejected.
func (r *ProviderRegistry) Register(name string, factory ProviderFactory) error {
	if strings.TrimSpace(name) == "" {
		return opErrorf(ErrUnknownProvider, "Register", "provider name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
	return nil
}

// Get returns a fresh Provider instance for name, invoking its factory
// exactly once.
func (r *ProviderRegistry) Get(name string) (Provider, error) {
	r.mu.Lock()
	factory, ok := r.factories[name]
	known := r.listTypesLocked()
	r.mu.Unlock()

	if !ok {
		return nil, opErrorf(ErrUnknownProvider, "Get", "unknown provider %q, known: %s", name, strings.Join(known, ", "))
	}

	return factory(), nil
}

// ListTypes returns the registered provider names.
func (r *ProviderRegistry) ListTypes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listTypesLocked()
}

func (r *ProviderRegistry) listTypesLocked() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// ResetForTest clears the map without reinstalling builtins; callers must
// call Init again explicitly.
func (r *ProviderRegistry) ResetForTest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories = make(map[string]ProviderFactory)
}

var defaultRegistry = func() *ProviderRegistry {
	r := NewProviderRegistry()
	r.Init()
	return r
}()

// DefaultProviderRegistry returns the process-wide registry, initialized
// with the builtin providers.
func DefaultProviderRegistry() *ProviderRegistry { return defaultRegistry }
