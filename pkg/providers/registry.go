// Package providers implements the snapshot provider registry: the explicit
// in-process replacement for a host framework's dynamic plugin entry point.
// Providers register an initializer by name at process start; the
// orchestrator looks the name up and obtains a Source that materializes
// resource snapshots.
package providers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lockwarden/lockwarden/pkg/engine"
	"github.com/lockwarden/lockwarden/pkg/snapshot"
)

// Source materializes resource snapshots from a provider. Implementations
// own all external I/O (SDK calls, file reads); the engine only ever sees
// the returned collections.
type Source interface {
	// Snapshot returns the current resource snapshot.
	Snapshot(ctx context.Context) (*snapshot.Snapshot, error)
}

// Initializer constructs a Source from provider-specific configuration.
type Initializer func(ctx context.Context, config map[string]string) (Source, error)

// Registry maps provider names to initializers. It is safe for concurrent
// use; initialized sources are cached per name.
type Registry struct {
	mu           sync.RWMutex
	initializers map[string]Initializer
	sources      map[string]Source
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{
		initializers: make(map[string]Initializer),
		sources:      make(map[string]Source),
	}
}

// Register registers a provider initializer under a name. Registering a
// duplicate name fails so one provider cannot silently shadow another.
func (r *Registry) Register(name string, init Initializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.initializers[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	r.initializers[name] = init
	return nil
}

// Get returns the source for a provider. The first call initializes the
// source with the supplied configuration; subsequent calls return the cached
// source, mirroring the once-per-process initialization of a plugin entry
// point.
func (r *Registry) Get(ctx context.Context, name string, config map[string]string) (Source, error) {
	r.mu.RLock()
	if src, ok := r.sources[name]; ok {
		r.mu.RUnlock()
		return src, nil
	}
	init, ok := r.initializers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, engine.NewPermanentError(fmt.Sprintf("provider %s not registered", name), nil).
			WithCode(engine.ErrCodeProviderFailed)
	}

	src, err := init(ctx, config)
	if err != nil {
		return nil, engine.NewPermanentError(fmt.Sprintf("provider %s initialization failed", name), err).
			WithCode(engine.ErrCodeProviderFailed)
	}

	r.mu.Lock()
	r.sources[name] = src
	r.mu.Unlock()

	return src, nil
}

// List returns the registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.initializers))
	for name := range r.initializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes a provider and any cached source.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.initializers, name)
	delete(r.sources, name)
}

// Default is the process-wide registry populated at startup.
var Default = NewRegistry()

// init wires the built-in providers into the default registry.
func init() {
	if err := Default.Register("file", NewFileSource); err != nil {
		panic(err)
	}
}
