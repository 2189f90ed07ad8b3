package sandbox

import "testing"

type countingProvider struct {
	calls int
}

func (p *countingProvider) Type() string { return "counting" }
func (p *countingProvider) Create(CreateOptions) (Backend, error) {
	p.calls++
	return &fakeBackend{id: NewBackendId("counting")}, nil
}
func (p *countingProvider) Destroy(string) error    { return nil }
func (p *countingProvider) List() []BackendStatus   { return nil }

type fakeBackend struct {
	id       string
	disposed bool
}

func (b *fakeBackend) Id() string { return b.id }
func (b *fakeBackend) Execute(string) (ExecuteResult, error) {
	return ExecuteResult{}, nil
}
func (b *fakeBackend) Dispose() error { b.disposed = true; return nil }

func Test_ProviderRegistry_GetInvokesFactoryOncePerCall(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	calls := 0
	if err := registry.Register("x", func() Provider { calls++; return &countingProvider{} }); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := registry.Get("x"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := registry.Get("x"); err != nil {
		t.Fatalf("Get: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected the factory to run once per Get, got %d calls", calls)
	}
}

func Test_ProviderRegistry_RegisterRejectsEmptyName(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	if err := registry.Register("   ", func() Provider { return nil }); err == nil {
		t.Fatal("expected an error for a whitespace-only provider name")
	}
}

func Test_ProviderRegistry_GetUnknownNameErrors(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	registry.Init()

	if _, err := registry.Get("does-not-exist"); err == nil {
		t.Fatal("expected an error for an unregistered provider name")
	}
}

func Test_ProviderRegistry_ResetForTestClearsWithoutReinstallingBuiltins(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	registry.Init()
	registry.ResetForTest()

	if types := registry.ListTypes(); len(types) != 0 {
		t.Fatalf("expected no registered types after ResetForTest, got %v", types)
	}
}

func Test_ProviderRegistry_RegisterOverwritesLastWriteWins(t *testing.T) {
	t.Parallel()

	registry := NewProviderRegistry()
	_ = registry.Register("x", func() Provider { return &countingProvider{calls: 1} })
	_ = registry.Register("x", func() Provider { return &countingProvider{calls: 2} })

	p, err := registry.Get("x")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got := p.(*countingProvider).calls; got != 2 {
		t.Fatalf("expected the second registration to win, got calls=%d", got)
	}
}
