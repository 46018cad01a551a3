package resolve

import (
	"github.com/spetr/vuexref/pkg/types"
)

// SymbolIndex is the read side of a store index needed to resolve
// references.
type SymbolIndex interface {
	ModuleLocator
	Lookup(namespace, name string, kind types.SymbolKind) (*types.StoreSymbol, bool)
	HasNamespace(namespace string, kind types.SymbolKind) bool
}

// Resolution is the outcome of resolving one segment reference.
type Resolution struct {
	Resolved  bool
	Module    bool   // The segment names a module rather than a symbol
	Namespace string // Namespace that was searched
	Name      string // Symbol name that was searched (final segments)
	Symbol    *types.StoreSymbol
}

// Qualified returns the path the reference was resolved against.
func (r Resolution) Qualified() string {
	return r.Namespace + r.Name
}

// Resolve looks the reference up in index. A non-final segment resolves to
// a module; the final segment resolves to a symbol of the reference kind.
func (r SegmentReference) Resolve(index SymbolIndex) Resolution {
	if index == nil {
		return Resolution{}
	}
	base := r.Namespace.ResolveFor(r.Doc, r.Literal, index, r.Kind)

	if !r.IsLast {
		ns := base + r.FullPath + "/"
		return Resolution{
			Resolved:  r.Kind.Valid() && index.HasNamespace(ns, r.Kind),
			Module:    true,
			Namespace: ns,
		}
	}

	dir, name := types.SplitQualified(r.FullPath)
	res := Resolution{Namespace: base + dir, Name: name}
	if !r.Kind.Valid() || name == "" {
		return res
	}
	if sym, ok := index.Lookup(res.Namespace, name, r.Kind); ok {
		res.Resolved = true
		res.Symbol = sym
	}
	return res
}
