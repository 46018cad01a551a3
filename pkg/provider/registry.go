package provider

import (
	"fmt"
	"sort"
	"sync"

	"github.com/spetr/vuexref/pkg/types"
)

// StoreIndexFactory creates a StoreIndex from configuration.
type StoreIndexFactory func(config StoreIndexConfig) (StoreIndex, error)

// Registry holds factories for all provider types.
type Registry struct {
	mu sync.RWMutex

	storeIndexFactories map[string]StoreIndexFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		storeIndexFactories: make(map[string]StoreIndexFactory),
	}
}

// RegisterStoreIndex registers a store index factory.
func (r *Registry) RegisterStoreIndex(name string, factory StoreIndexFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeIndexFactories[name] = factory
}

// CreateStoreIndex creates a store index by name.
func (r *Registry) CreateStoreIndex(name string, config StoreIndexConfig) (StoreIndex, error) {
	r.mu.RLock()
	factory, ok := r.storeIndexFactories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: unknown store index %s (available: %v)", types.ErrProviderNotAvailable, name, r.ListStoreIndexes())
	}
	return factory(config)
}

// ListStoreIndexes returns all registered store index names, sorted.
func (r *Registry) ListStoreIndexes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.storeIndexFactories))
	for name := range r.storeIndexFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasStoreIndex checks if a store index is registered.
func (r *Registry) HasStoreIndex(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.storeIndexFactories[name]
	return ok
}

// DefaultRegistry is the global default registry.
var DefaultRegistry = NewRegistry()

// RegisterStoreIndex registers a store index in the default registry.
func RegisterStoreIndex(name string, factory StoreIndexFactory) {
	DefaultRegistry.RegisterStoreIndex(name, factory)
}
