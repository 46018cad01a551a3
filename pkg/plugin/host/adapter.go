package host

import (
	"log/slog"

	"github.com/spetr/vuexref/pkg/plugin/shared"
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// StoreIndexAdapter adapts a plugin StoreIndexProvider to the
// provider.StoreIndex interface.
type StoreIndexAdapter struct {
	plugin  shared.StoreIndexProvider
	onClose func() error
}

// NewStoreIndexAdapter creates a new store index adapter. onClose, when not
// nil, runs after the plugin has been closed.
func NewStoreIndexAdapter(p shared.StoreIndexProvider, onClose func() error) *StoreIndexAdapter {
	return &StoreIndexAdapter{plugin: p, onClose: onClose}
}

// Name returns the provider name.
func (a *StoreIndexAdapter) Name() string {
	return a.plugin.Name()
}

// Init initializes the index.
func (a *StoreIndexAdapter) Init(path string) error {
	return a.plugin.Init(path)
}

// Close closes the plugin and releases its process.
func (a *StoreIndexAdapter) Close() error {
	err := a.plugin.Close()
	if a.onClose != nil {
		if cerr := a.onClose(); err == nil {
			err = cerr
		}
	}
	return err
}

// Load replaces the indexed model.
func (a *StoreIndexAdapter) Load(model *types.StoreModel) error {
	return a.plugin.Load(model)
}

// Lookup finds a symbol. Transport errors are logged and reported as a miss.
func (a *StoreIndexAdapter) Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool) {
	sym, ok, err := a.plugin.Lookup(namespace, name, kind)
	if err != nil {
		slog.Warn("plugin lookup failed", "plugin", a.plugin.Name(), "error", err)
		return nil, false
	}
	return sym, ok
}

// HasNamespace reports whether a module is registered under namespace.
func (a *StoreIndexAdapter) HasNamespace(namespace string, kind types.SymbolKind) bool {
	ok, err := a.plugin.HasNamespace(namespace, kind)
	if err != nil {
		slog.Warn("plugin namespace check failed", "plugin", a.plugin.Name(), "error", err)
		return false
	}
	return ok
}

// ModuleNamespace returns the kind's namespace of the module containing offset.
func (a *StoreIndexAdapter) ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool) {
	ns, ok, err := a.plugin.ModuleNamespace(filePath, offset, kind)
	if err != nil {
		slog.Warn("plugin module lookup failed", "plugin", a.plugin.Name(), "error", err)
		return "", false
	}
	return ns, ok
}

// StatePath returns the state path of the namespaced module under namespace.
func (a *StoreIndexAdapter) StatePath(namespace string) (string, bool) {
	path, ok, err := a.plugin.StatePath(namespace)
	if err != nil {
		slog.Warn("plugin state path lookup failed", "plugin", a.plugin.Name(), "error", err)
		return "", false
	}
	return path, ok
}

// Symbols lists symbols matching filter.
func (a *StoreIndexAdapter) Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error) {
	return a.plugin.Symbols(filter)
}

// Modules lists registered modules.
func (a *StoreIndexAdapter) Modules() ([]*types.StoreModule, error) {
	return a.plugin.Modules()
}

// GetMetadata returns index metadata.
func (a *StoreIndexAdapter) GetMetadata() (*types.IndexMetadata, error) {
	return a.plugin.GetMetadata()
}

// SetMetadata stores index metadata.
func (a *StoreIndexAdapter) SetMetadata(meta *types.IndexMetadata) error {
	return a.plugin.SetMetadata(meta)
}

// GetStats returns index statistics.
func (a *StoreIndexAdapter) GetStats() (*types.IndexStats, error) {
	return a.plugin.GetStats()
}

// GetAllFileHashes returns all cached file hashes.
func (a *StoreIndexAdapter) GetAllFileHashes() (map[string]string, error) {
	return a.plugin.GetAllFileHashes()
}

// SetFileHashes replaces the cached file hashes.
func (a *StoreIndexAdapter) SetFileHashes(hashes map[string]string) error {
	return a.plugin.SetFileHashes(hashes)
}

var _ provider.StoreIndex = (*StoreIndexAdapter)(nil)
