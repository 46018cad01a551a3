// Package resolve maps string literals used with a Vuex store (dispatch,
// commit, mapping helpers, decorators, getters/state indexing) to the store
// symbols they name.
//
// Everything here is a pure function of the current parse tree: results are
// derived on demand, never cached, and the tree and symbol index are passed
// in explicitly.
package resolve

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// NamespaceKind tags the Namespace variants.
type NamespaceKind uint8

const (
	// NamespaceStatic is a fixed prefix.
	NamespaceStatic NamespaceKind = iota
	// NamespaceActionContext is the namespace of the enclosing store handler.
	NamespaceActionContext
	// NamespaceHelperMapping is the namespace argument of the enclosing
	// mapping helper call or decorator.
	NamespaceHelperMapping
)

// Namespace anchors a reference in the store hierarchy. It is a comparable
// value type; equality is structural.
type Namespace struct {
	Kind      NamespaceKind
	Prefix    string // NamespaceStatic only
	Decorator bool   // NamespaceHelperMapping only
}

// Static returns a namespace with a fixed prefix ("" is the root).
func Static(prefix string) Namespace {
	return Namespace{Kind: NamespaceStatic, Prefix: prefix}
}

// ActionContext returns the namespace derived from the enclosing handler.
func ActionContext() Namespace {
	return Namespace{Kind: NamespaceActionContext}
}

// HelperMapping returns the namespace derived from the enclosing mapping
// helper; decorator selects the decorator-style lookup.
func HelperMapping(decorator bool) Namespace {
	return Namespace{Kind: NamespaceHelperMapping, Decorator: decorator}
}

func (n Namespace) String() string {
	switch n.Kind {
	case NamespaceStatic:
		return fmt.Sprintf("static(%q)", n.Prefix)
	case NamespaceActionContext:
		return "action-context"
	case NamespaceHelperMapping:
		if n.Decorator {
			return "helper-mapping(decorator)"
		}
		return "helper-mapping"
	}
	return "unknown"
}

// ModuleLocator answers which store module declares the code at a position
// and where a namespaced module keeps its state.
type ModuleLocator interface {
	ModuleNamespace(filePath string, offset uint32, kind types.SymbolKind) (string, bool)
	StatePath(namespace string) (string, bool)
}

// Resolve computes the namespace prefix in effect at useSite. The result is
// "" for the root or ends with a slash. Every lookup failure resolves to the
// root.
func (n Namespace) Resolve(doc *syntax.Document, useSite *sitter.Node, locator ModuleLocator) string {
	return n.ResolveFor(doc, useSite, locator, "")
}

// ResolveFor is Resolve for references of kind. State is nested by module
// key even below non-namespaced modules, so for state the module namespace
// is mapped to the module's state path.
func (n Namespace) ResolveFor(doc *syntax.Document, useSite *sitter.Node, locator ModuleLocator, kind types.SymbolKind) string {
	switch n.Kind {
	case NamespaceStatic:
		return types.NormalizeNamespace(n.Prefix)
	case NamespaceActionContext:
		return handlerNamespace(doc, useSite, locator, kind)
	case NamespaceHelperMapping:
		var ns string
		if n.Decorator {
			ns = types.NormalizeNamespace(decoratorNamespace(doc, useSite))
		} else {
			ns = types.NormalizeNamespace(mappingNamespace(doc, useSite))
		}
		if kind == types.SymbolKindState && ns != "" && locator != nil {
			if statePath, ok := locator.StatePath(ns); ok {
				return types.NormalizeNamespace(statePath)
			}
		}
		return ns
	}
	return ""
}

// handlerNamespace returns the kind's namespace of the module declaring the
// innermost store handler around useSite.
func handlerNamespace(doc *syntax.Document, useSite *sitter.Node, locator ModuleLocator, kind types.SymbolKind) string {
	handler := EnclosingHandler(doc, useSite)
	if handler == nil || locator == nil {
		return ""
	}
	ns, ok := locator.ModuleNamespace(doc.Path, doc.FileOffset(handler), kind)
	if !ok {
		return ""
	}
	return types.NormalizeNamespace(ns)
}

// decoratorNamespace finds `const ns = namespace('cart')` behind a
// `@ns.Action('x')` decorator, or an inline `@namespace('cart').Action('x')`.
func decoratorNamespace(doc *syntax.Document, useSite *sitter.Node) string {
	dec := syntax.Enclosing(useSite, func(n *sitter.Node) bool { return n.Type() == "decorator" })
	if dec == nil {
		return ""
	}
	call := syntax.Unwrap(dec.NamedChild(0))
	qualifier := syntax.CalleeQualifier(call)
	if qualifier == nil {
		return ""
	}
	if qualifier.Type() == "identifier" {
		decl, ok := syntax.FindDeclaration(doc, dec, doc.Text(qualifier))
		if !ok || decl.Destructured {
			return ""
		}
		qualifier = decl.Value
	}
	return singleStringArgument(doc, qualifier, "namespace")
}

// mappingNamespace returns the namespace argument of the mapping helper call
// enclosing useSite.
func mappingNamespace(doc *syntax.Document, useSite *sitter.Node) string {
	call := syntax.Enclosing(useSite, func(n *sitter.Node) bool {
		_, ok := mappingHelperKind(syntax.CalleeName(doc, n))
		return ok && syntax.IsCall(n)
	})
	if call == nil {
		return ""
	}

	args := syntax.Arguments(call)
	if len(args) >= 2 {
		if ns, ok := syntax.LiteralString(doc, syntax.Unwrap(args[0])); ok {
			return ns
		}
		return ""
	}

	return namespacedHelpersPrefix(doc, call)
}

// namespacedHelpersPrefix handles helpers bound through
// createNamespacedHelpers('cart'), destructured or used as a qualifier.
func namespacedHelpersPrefix(doc *syntax.Document, call *sitter.Node) string {
	fn := syntax.Unwrap(call.ChildByFieldName("function"))
	switch fn.Type() {
	case "identifier":
		decl, ok := syntax.FindDeclaration(doc, call, doc.Text(fn))
		if !ok || !decl.Destructured {
			return ""
		}
		return singleStringArgument(doc, decl.Value, "createNamespacedHelpers")
	case "member_expression":
		q := syntax.Qualifier(fn)
		if q == nil || q.Type() != "identifier" {
			return ""
		}
		decl, ok := syntax.FindDeclaration(doc, call, doc.Text(q))
		if !ok || decl.Destructured {
			return ""
		}
		return singleStringArgument(doc, decl.Value, "createNamespacedHelpers")
	}
	return ""
}

// singleStringArgument returns the literal argument of `callee('x')`.
func singleStringArgument(doc *syntax.Document, call *sitter.Node, callee string) string {
	call = syntax.Unwrap(call)
	if !syntax.IsCall(call) || syntax.CalleeName(doc, call) != callee {
		return ""
	}
	args := syntax.Arguments(call)
	if len(args) != 1 {
		return ""
	}
	ns, _ := syntax.LiteralString(doc, syntax.Unwrap(args[0]))
	return ns
}
