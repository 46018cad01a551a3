// Package memory implements StoreIndex in process memory.
package memory

import (
	"sort"
	"strings"
	"sync"

	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

type symbolKey struct {
	kind      types.SymbolKind
	namespace string
	name      string
}

// Index is a StoreIndex kept in memory. It is rebuilt on every run.
type Index struct {
	mu sync.RWMutex

	modules []*types.StoreModule
	symbols []*types.StoreSymbol // sorted by qualified name
	byKey   map[symbolKey]*types.StoreSymbol
	meta    *types.IndexMetadata
	hashes  map[string]string
}

// New creates an empty in-memory index.
func New() *Index {
	return &Index{
		byKey:  make(map[symbolKey]*types.StoreSymbol),
		hashes: make(map[string]string),
	}
}

// Name returns the store name.
func (ix *Index) Name() string {
	return "memory"
}

// Init is a no-op; the path is ignored.
func (ix *Index) Init(path string) error {
	return nil
}

// Close releases the model.
func (ix *Index) Close() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.modules = nil
	ix.symbols = nil
	ix.byKey = make(map[symbolKey]*types.StoreSymbol)
	return nil
}

// Load replaces the indexed model. The first declaration of a duplicated
// symbol wins lookups.
func (ix *Index) Load(model *types.StoreModel) error {
	modules := append([]*types.StoreModule(nil), model.Modules...)
	symbols := append([]*types.StoreSymbol(nil), model.Symbols...)

	byKey := make(map[symbolKey]*types.StoreSymbol, len(symbols))
	for _, sym := range symbols {
		key := symbolKey{sym.Kind, sym.Namespace, sym.Name}
		if _, ok := byKey[key]; !ok {
			byKey[key] = sym
		}
	}
	sort.SliceStable(symbols, func(i, j int) bool {
		qi, qj := symbols[i].QualifiedName(), symbols[j].QualifiedName()
		if qi != qj {
			return qi < qj
		}
		return symbols[i].Kind < symbols[j].Kind
	})

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.modules = modules
	ix.symbols = symbols
	ix.byKey = byKey
	return nil
}

// Lookup finds a symbol by namespace, name and kind.
func (ix *Index) Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	sym, ok := ix.byKey[symbolKey{kind, namespace, name}]
	return sym, ok
}

// HasNamespace reports whether some module path starts with namespace.
func (ix *Index) HasNamespace(namespace string, kind types.SymbolKind) bool {
	if namespace == "" {
		return true
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, m := range ix.modules {
		if kind.Valid() {
			if strings.HasPrefix(m.NamespaceFor(kind), namespace) {
				return true
			}
			continue
		}
		if strings.HasPrefix(m.Namespace, namespace) || strings.HasPrefix(m.StatePath, namespace) {
			return true
		}
	}
	return false
}

// ModuleNamespace returns the kind's namespace of the smallest module range
// containing offset.
func (ix *Index) ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var best *types.StoreModule
	for _, m := range ix.modules {
		if !m.Contains(filePath, offset) {
			continue
		}
		if best == nil || m.EndByte-m.StartByte < best.EndByte-best.StartByte {
			best = m
		}
	}
	if best == nil {
		return "", false
	}
	return best.NamespaceFor(kind), true
}

// StatePath returns the state path of the first namespaced module
// registered under namespace.
func (ix *Index) StatePath(namespace string) (string, bool) {
	if namespace == "" {
		return "", true
	}
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	for _, m := range ix.modules {
		if m.Namespaced && m.Namespace == namespace {
			return m.StatePath, true
		}
	}
	return "", false
}

// Symbols lists symbols matching filter.
func (ix *Index) Symbols(filter types.SymbolFilter) ([]*types.StoreSymbol, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	var out []*types.StoreSymbol
	for _, sym := range ix.symbols {
		if !filter.Match(sym) {
			continue
		}
		out = append(out, sym)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

// Modules lists registered modules.
func (ix *Index) Modules() ([]*types.StoreModule, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]*types.StoreModule(nil), ix.modules...), nil
}

// GetMetadata returns index metadata, nil when never set.
func (ix *Index) GetMetadata() (*types.IndexMetadata, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if ix.meta == nil {
		return nil, nil
	}
	meta := *ix.meta
	return &meta, nil
}

// SetMetadata stores index metadata.
func (ix *Index) SetMetadata(meta *types.IndexMetadata) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m := *meta
	ix.meta = &m
	return nil
}

// GetStats returns index statistics.
func (ix *Index) GetStats() (*types.IndexStats, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	stats := &types.IndexStats{
		Symbols: len(ix.symbols),
		ByKind:  make(map[types.SymbolKind]int),
		Files:   len(ix.hashes),
	}
	for _, m := range ix.modules {
		if !m.Detached {
			stats.Modules++
		}
	}
	for _, sym := range ix.symbols {
		stats.ByKind[sym.Kind]++
	}
	if ix.meta != nil {
		stats.LastIndexed = ix.meta.LastUpdated
	}
	return stats, nil
}

// GetAllFileHashes returns all cached file hashes.
func (ix *Index) GetAllFileHashes() (map[string]string, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make(map[string]string, len(ix.hashes))
	for k, v := range ix.hashes {
		out[k] = v
	}
	return out, nil
}

// SetFileHashes replaces the cached file hashes.
func (ix *Index) SetFileHashes(hashes map[string]string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.hashes = make(map[string]string, len(hashes))
	for k, v := range hashes {
		ix.hashes[k] = v
	}
	return nil
}

var _ provider.StoreIndex = (*Index)(nil)
