package resolve

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// ContextChecker classifies the surroundings of a reference site.
type ContextChecker interface {
	// IsFrameworkComponentContext gates reference production for a node.
	IsFrameworkComponentContext(doc *syntax.Document, node *sitter.Node) bool
	// IsActionContextParameter reports whether a parameter is (part of) the
	// context argument a store handler receives.
	IsActionContextParameter(doc *syntax.Document, param *syntax.Parameter) bool
	// IsPossiblyStoreContextQualifier reports whether the qualifier of
	// `q.dispatch(...)` may denote a store or handler context.
	IsPossiblyStoreContextQualifier(doc *syntax.Document, node *sitter.Node) bool
}

// contextMembers are the properties of the context an action receives.
var contextMembers = map[string]bool{
	"commit":      true,
	"dispatch":    true,
	"state":       true,
	"getters":     true,
	"rootState":   true,
	"rootGetters": true,
}

// storeMarkers identify sources that use a Vuex store.
var storeMarkers = [][]byte{
	[]byte("vuex"),
	[]byte("$store"),
	[]byte("createNamespacedHelpers"),
	[]byte("useStore"),
}

// DefaultChecker is the ContextChecker used by the CLI and MCP server.
type DefaultChecker struct {
	// Always disables the activation gate.
	Always bool
}

// NewDefaultChecker creates a checker; always skips the activation gate.
func NewDefaultChecker(always bool) *DefaultChecker {
	return &DefaultChecker{Always: always}
}

// IsFrameworkComponentContext accepts single-file components, sources that
// mention the store library, and code inside store handlers.
func (c *DefaultChecker) IsFrameworkComponentContext(doc *syntax.Document, node *sitter.Node) bool {
	if c.Always || doc.SFC {
		return true
	}
	for _, marker := range storeMarkers {
		if bytes.Contains(doc.Source, marker) {
			return true
		}
	}
	return EnclosingHandler(doc, node) != nil
}

// IsActionContextParameter implements ContextChecker.
func (c *DefaultChecker) IsActionContextParameter(doc *syntax.Document, param *syntax.Parameter) bool {
	if param == nil {
		return false
	}
	if strings.Contains(param.TypeName, "ActionContext") {
		return true
	}

	if kind, ok := HandlerKind(doc, param.Function); ok {
		switch kind {
		case types.SymbolKindAction, types.SymbolKindMutation:
			return param.Index == 0
		case types.SymbolKindGetter:
			// (state, getters, rootState, rootGetters)
			return param.Index < 4 && !param.Destructured
		}
		return false
	}

	if _, ok := MappingCallbackOf(doc, param.Function); ok {
		return false
	}

	return param.Index == 0 && param.Destructured && param.Shorthand && contextMembers[param.Property]
}

// IsPossiblyStoreContextQualifier accepts identifiers, `this` and property
// chains such as `this.$store`.
func (c *DefaultChecker) IsPossiblyStoreContextQualifier(doc *syntax.Document, node *sitter.Node) bool {
	return syntax.IsReferenceExpression(node)
}

var _ ContextChecker = (*DefaultChecker)(nil)

// handlerContainers maps store option names to handler kinds.
var handlerContainers = map[string]types.SymbolKind{
	"actions":   types.SymbolKindAction,
	"mutations": types.SymbolKindMutation,
	"getters":   types.SymbolKindGetter,
}

// HandlerKind reports whether fn is a store handler: a member of an object
// held by an `actions`, `mutations` or `getters` property or variable.
func HandlerKind(doc *syntax.Document, fn *sitter.Node) (types.SymbolKind, bool) {
	if fn == nil || !syntax.IsFunction(fn) {
		return "", false
	}
	member, object := syntax.MemberOf(fn)
	if member == nil || object == nil {
		return "", false
	}
	name := containerName(doc, object)
	kind, ok := handlerContainers[name]
	return kind, ok
}

// containerName returns the property or variable name an object literal is
// assigned to.
func containerName(doc *syntax.Document, object *sitter.Node) string {
	parent := syntax.ParentSkippingWrappers(object)
	if parent == nil {
		return ""
	}
	switch parent.Type() {
	case "pair":
		name, _ := syntax.PropertyKey(doc, parent.ChildByFieldName("key"))
		return name
	case "variable_declarator":
		if target := parent.ChildByFieldName("name"); target != nil && target.Type() == "identifier" {
			return doc.Text(target)
		}
	}
	return ""
}

// EnclosingHandler returns the innermost store handler containing n.
func EnclosingHandler(doc *syntax.Document, n *sitter.Node) *sitter.Node {
	for fn := syntax.EnclosingFunction(n); fn != nil; fn = syntax.EnclosingFunction(fn) {
		if _, ok := HandlerKind(doc, fn); ok {
			return fn
		}
	}
	return nil
}

// mappingHelpers maps helper names to the kind of symbol they project.
var mappingHelpers = map[string]types.SymbolKind{
	"mapActions":   types.SymbolKindAction,
	"mapMutations": types.SymbolKindMutation,
	"mapGetters":   types.SymbolKindGetter,
	"mapState":     types.SymbolKindState,
}

func mappingHelperKind(name string) (types.SymbolKind, bool) {
	kind, ok := mappingHelpers[name]
	return kind, ok
}

// MappingCallbackOf reports the helper name when fn is a function member of
// an object passed to a mapping helper call, as in
// `mapActions({ add(dispatch, n) { ... } })`.
func MappingCallbackOf(doc *syntax.Document, fn *sitter.Node) (string, bool) {
	if fn == nil {
		return "", false
	}
	member, object := syntax.MemberOf(fn)
	if member == nil || object == nil {
		return "", false
	}
	call, _ := syntax.ArgumentIndex(object)
	if call == nil {
		return "", false
	}
	name := syntax.CalleeName(doc, call)
	if _, ok := mappingHelperKind(name); !ok {
		return "", false
	}
	return name, true
}
