// Package provider defines interfaces for pluggable components.
package provider

import (
	"github.com/spetr/vuexref/pkg/types"
)

// Store is a minimal interface for basic store operations.
type Store interface {
	// Name returns the store name (e.g., "memory", "sqlite").
	Name() string

	// Init initializes the store at the given path.
	Init(path string) error

	// Close releases resources and closes connections.
	Close() error
}

// SymbolLookup answers reference resolution queries.
type SymbolLookup interface {
	// Lookup finds a symbol of kind declared under namespace.
	Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool)

	// HasNamespace reports whether a module is registered under namespace.
	// State references are matched against module state paths.
	HasNamespace(namespace string, kind types.SymbolKind) bool

	// ModuleNamespace returns the path symbols of kind are registered under
	// (see StoreModule.NamespaceFor) for the innermost module whose
	// definition contains the byte offset of filePath.
	ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool)

	// StatePath returns the state path of the namespaced module registered
	// under namespace. The root namespace maps to the root state.
	StatePath(namespace string) (string, bool)
}

// ModelStore loads and lists the store model.
type ModelStore interface {
	// Load replaces the indexed model.
	Load(model *types.StoreModel) error

	// Symbols lists symbols matching filter, ordered by qualified name.
	Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error)

	// Modules lists registered modules, including detached ranges.
	Modules() ([]*types.StoreModule, error)
}

// MetadataStore handles index metadata.
type MetadataStore interface {
	// GetMetadata returns index metadata.
	GetMetadata() (*types.IndexMetadata, error)

	// SetMetadata stores index metadata.
	SetMetadata(meta *types.IndexMetadata) error

	// GetStats returns store statistics.
	GetStats() (*types.IndexStats, error)
}

// FileCache handles file hash caching for incremental indexing.
type FileCache interface {
	// GetAllFileHashes returns all cached file hashes.
	GetAllFileHashes() (map[string]string, error)

	// SetFileHashes replaces the cached file hashes.
	SetFileHashes(hashes map[string]string) error
}

// StoreIndex holds an extracted store model and resolves references
// against it.
type StoreIndex interface {
	Store
	SymbolLookup
	ModelStore
	MetadataStore
	FileCache
}

// StoreIndexConfig contains configuration for store indexes.
type StoreIndexConfig struct {
	Provider  string // "memory", "sqlite", "plugin"
	Path      string // Path to database file
	Plugin    string // Plugin name for the plugin provider
	PluginDir string // Directory holding plugin executables
}
