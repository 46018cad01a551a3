package shared

import (
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// indexProvider serves a provider.StoreIndex over the plugin interface.
type indexProvider struct {
	provider.StoreIndex
}

// FromStoreIndex wraps an in-process index so a plugin binary can serve it.
func FromStoreIndex(ix provider.StoreIndex) StoreIndexProvider {
	return &indexProvider{StoreIndex: ix}
}

func (p *indexProvider) Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool, error) {
	sym, ok := p.StoreIndex.Lookup(namespace, name, kind)
	return sym, ok, nil
}

func (p *indexProvider) HasNamespace(namespace string, kind types.SymbolKind) (bool, error) {
	return p.StoreIndex.HasNamespace(namespace, kind), nil
}

func (p *indexProvider) ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool, error) {
	ns, ok := p.StoreIndex.ModuleNamespace(filePath, offset, kind)
	return ns, ok, nil
}

func (p *indexProvider) StatePath(namespace string) (string, bool, error) {
	path, ok := p.StoreIndex.StatePath(namespace)
	return path, ok, nil
}
