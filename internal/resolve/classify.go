package resolve

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// Settings is the outcome of classifying a literal.
type Settings struct {
	Kind      types.SymbolKind // Empty when the accessor is undetermined
	Namespace Namespace
	Soft      bool // Unresolved references are hints rather than errors
}

// ClassifyFunc inspects a literal and either produces settings or declines.
type ClassifyFunc func(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool)

// Classifier is a named entry of the precedence list.
type Classifier struct {
	Name     string
	Classify ClassifyFunc
}

// Classifiers are tried in this order and the first match wins. Overlapping
// shapes, such as a getters index inside a mapping helper callback, rely on
// this order.
var Classifiers = []Classifier{
	{Name: "indexed-access", Classify: classifyIndexedAccess},
	{Name: "decorator-argument", Classify: classifyDecoratorArgument},
	{Name: "mapping-helper-item", Classify: classifyMappingItem},
	{Name: "call-argument", Classify: classifyCallArgument},
}

// Classify runs the classifiers in order.
func Classify(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool) {
	_, settings, ok := ClassifyNamed(doc, lit, checker)
	return settings, ok
}

// ClassifyNamed is Classify that also reports which classifier matched.
func ClassifyNamed(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (string, Settings, bool) {
	for _, c := range Classifiers {
		if settings, ok := c.Classify(doc, lit, checker); ok {
			return c.Name, settings, true
		}
	}
	return "", Settings{}, false
}

var indexedAccessKinds = map[string]types.SymbolKind{
	"getters":     types.SymbolKindGetter,
	"rootGetters": types.SymbolKindGetter,
	"state":       types.SymbolKindState,
	"rootState":   types.SymbolKindState,
}

func isRootName(name string) bool {
	return strings.HasPrefix(name, "root")
}

// classifyIndexedAccess matches getters['a/b'], rootState['x'] and
// context.getters['a/b'].
func classifyIndexedAccess(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool) {
	access := syntax.ParentSkippingWrappers(lit)
	if access == nil || access.Type() != "subscript_expression" {
		return Settings{}, false
	}
	if !syntax.Same(syntax.Unwrap(access.ChildByFieldName("index")), lit) {
		return Settings{}, false
	}

	base := syntax.Unwrap(access.ChildByFieldName("object"))
	if base == nil {
		return Settings{}, false
	}
	name := syntax.ReferenceName(doc, base)
	kind, ok := indexedAccessKinds[name]
	if !ok {
		return Settings{}, false
	}

	var ns Namespace
	switch base.Type() {
	case "identifier":
		param, ok := syntax.FindParameter(doc, base, name)
		if !ok {
			return Settings{}, false
		}
		switch {
		case checker.IsActionContextParameter(doc, param):
			ns = ActionContext()
		case inMappingHelper(doc, param.Function):
			ns = HelperMapping(false)
		default:
			return Settings{}, false
		}
		if isRootName(name) {
			ns = Static("")
		}
	case "member_expression":
		ns = Static("")
		if isContextQualifier(doc, syntax.Qualifier(base), checker) && !isRootName(name) {
			ns = ActionContext()
		}
	default:
		return Settings{}, false
	}

	return Settings{Kind: kind, Namespace: ns, Soft: true}, true
}

var decoratorKinds = map[string]types.SymbolKind{
	"Action":   types.SymbolKindAction,
	"Mutation": types.SymbolKindMutation,
	"Getter":   types.SymbolKindGetter,
	"State":    types.SymbolKindState,
}

// classifyDecoratorArgument matches @Action('increment') and
// @cart.Getter('total').
func classifyDecoratorArgument(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool) {
	call, index := syntax.ArgumentIndex(lit)
	if call == nil || index != 0 {
		return Settings{}, false
	}
	dec := syntax.ParentSkippingWrappers(call)
	if dec == nil || dec.Type() != "decorator" {
		return Settings{}, false
	}
	kind, ok := decoratorKinds[syntax.CalleeName(doc, call)]
	if !ok {
		return Settings{}, false
	}
	return Settings{Kind: kind, Namespace: HelperMapping(true)}, true
}

// classifyMappingItem matches array items and property values of the map
// argument of mapActions, mapMutations, mapGetters and mapState.
func classifyMappingItem(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool) {
	container := syntax.ParentSkippingWrappers(lit)
	if container == nil {
		return Settings{}, false
	}
	switch container.Type() {
	case "array":
	case "pair":
		if !syntax.Same(syntax.Unwrap(container.ChildByFieldName("value")), lit) {
			return Settings{}, false
		}
		container = container.Parent()
		if container == nil || container.Type() != "object" {
			return Settings{}, false
		}
	default:
		return Settings{}, false
	}

	call, index := syntax.ArgumentIndex(container)
	if call == nil {
		return Settings{}, false
	}
	kind, ok := mappingHelperKind(syntax.CalleeName(doc, call))
	if !ok {
		return Settings{}, false
	}
	if index != len(syntax.Arguments(call))-1 {
		return Settings{}, false
	}
	return Settings{Kind: kind, Namespace: HelperMapping(false)}, true
}

var callKinds = map[string]types.SymbolKind{
	"dispatch": types.SymbolKindAction,
	"commit":   types.SymbolKindMutation,
}

// callbackHelpers pairs dispatch/commit with the helper whose callbacks
// receive them.
var callbackHelpers = map[string]string{
	"dispatch": "mapActions",
	"commit":   "mapMutations",
}

// classifyCallArgument matches the type argument of dispatch and commit.
func classifyCallArgument(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) (Settings, bool) {
	call, index := syntax.ArgumentIndex(lit)
	if call == nil || index != 0 {
		return Settings{}, false
	}
	name := syntax.CalleeName(doc, call)
	kind, ok := callKinds[name]
	if !ok {
		return Settings{}, false
	}

	fn := syntax.Unwrap(call.ChildByFieldName("function"))
	var ns Namespace
	switch fn.Type() {
	case "identifier":
		param, ok := syntax.FindParameter(doc, fn, name)
		if !ok {
			return Settings{}, false
		}
		switch {
		case param.Destructured && param.Shorthand && checker.IsActionContextParameter(doc, param):
			ns = ActionContext()
			if IsRootCall(doc, call) {
				ns = Static("")
			}
		case isCallbackOf(doc, param.Function, callbackHelpers[name]):
			ns = HelperMapping(false)
		default:
			return Settings{}, false
		}
	case "member_expression":
		qualifier := syntax.CalleeQualifier(call)
		if !checker.IsPossiblyStoreContextQualifier(doc, qualifier) {
			return Settings{}, false
		}
		ns = Static("")
		if isContextQualifier(doc, qualifier, checker) &&
			!isRootName(syntax.ReferenceName(doc, qualifier)) && !IsRootCall(doc, call) {
			ns = ActionContext()
		}
	default:
		return Settings{}, false
	}

	return Settings{Kind: kind, Namespace: ns, Soft: true}, true
}

// IsRootCall reports whether the third positional argument of call is an
// object literal with `root: true`. Other shapes are not root calls.
func IsRootCall(doc *syntax.Document, call *sitter.Node) bool {
	args := syntax.Arguments(call)
	if len(args) < 3 {
		return false
	}
	options := syntax.Unwrap(args[2])
	if options == nil || options.Type() != "object" {
		return false
	}
	return syntax.IsTrue(syntax.ObjectProperty(doc, options, "root"))
}

// isContextQualifier reports whether q is an identifier bound to a handler
// context parameter, as in `context.commit` or `context.getters`.
func isContextQualifier(doc *syntax.Document, q *sitter.Node, checker ContextChecker) bool {
	if q == nil || q.Type() != "identifier" {
		return false
	}
	param, ok := syntax.FindParameter(doc, q, doc.Text(q))
	if !ok {
		return false
	}
	return checker.IsActionContextParameter(doc, param)
}

// inMappingHelper reports whether fn is a callback passed to any mapping
// helper.
func inMappingHelper(doc *syntax.Document, fn *sitter.Node) bool {
	_, ok := MappingCallbackOf(doc, fn)
	return ok
}

func isCallbackOf(doc *syntax.Document, fn *sitter.Node, helper string) bool {
	name, ok := MappingCallbackOf(doc, fn)
	return ok && name == helper
}
