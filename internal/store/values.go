package store

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
)

// follow chases identifiers, property accesses and imports to the
// expression they denote.
func (e *Extractor) follow(ctx context.Context, v value, depth int) (value, bool) {
	for ; depth <= maxDepth; depth++ {
		if v.doc == nil {
			return value{}, false
		}
		if v.node == nil {
			return v, true
		}
		n := syntax.Unwrap(v.node)
		switch n.Type() {
		case "identifier", "shorthand_property_identifier":
			next, ok := e.binding(ctx, v.doc, n, depth)
			if !ok {
				return value{}, false
			}
			v = next
		case "member_expression":
			object, ok := e.follow(ctx, value{v.doc, n.ChildByFieldName("object")}, depth+1)
			if !ok {
				return value{}, false
			}
			next, ok := e.property(ctx, object, v.doc.Text(n.ChildByFieldName("property")), depth)
			if !ok {
				return value{}, false
			}
			v = next
		default:
			return value{v.doc, n}, true
		}
	}
	return value{}, false
}

// binding resolves an identifier to the value it is bound to: a local
// declaration, a top-level function or an import.
func (e *Extractor) binding(ctx context.Context, doc *syntax.Document, ident *sitter.Node, depth int) (value, bool) {
	name := doc.Text(ident)
	if decl, ok := syntax.FindDeclaration(doc, ident, name); ok {
		if decl.Value == nil {
			return value{}, false
		}
		if !decl.Destructured {
			return value{doc, decl.Value}, true
		}
		source, ok := e.follow(ctx, value{doc, decl.Value}, depth+1)
		if !ok {
			return value{}, false
		}
		return e.property(ctx, source, decl.Property, depth+1)
	}
	if fn := functionDeclaration(doc, doc.Root(), name); fn != nil {
		return value{doc, fn}, true
	}
	return e.imported(ctx, doc, name, depth+1)
}

// property returns a member of an object literal or a file namespace.
func (e *Extractor) property(ctx context.Context, v value, name string, depth int) (value, bool) {
	if v.node == nil {
		return e.namedExport(ctx, v.doc, name, depth+1)
	}
	if v.node.Type() != "object" {
		return value{}, false
	}
	n := syntax.ObjectProperty(v.doc, v.node, name)
	if n == nil {
		return value{}, false
	}
	return value{v.doc, n}, true
}

// resolveObject resolves v to an object literal. Store constructors
// resolve to their options argument.
func (e *Extractor) resolveObject(ctx context.Context, v value, depth int) (value, bool) {
	v, ok := e.follow(ctx, v, depth)
	if !ok || v.node == nil {
		return value{}, false
	}
	switch v.node.Type() {
	case "object":
		return v, true
	case "new_expression", "call_expression":
		if arg := storeArgument(v.doc, v.node); arg != nil && depth < maxDepth {
			return e.resolveObject(ctx, value{v.doc, arg}, depth+1)
		}
	}
	return value{}, false
}

// resolveDefinition resolves v to a module definition.
func (e *Extractor) resolveDefinition(ctx context.Context, v value, depth int) (definition, bool) {
	v, ok := e.follow(ctx, v, depth)
	if !ok {
		return definition{}, false
	}
	if v.node == nil {
		return definition{doc: v.doc}, true
	}
	obj, ok := e.resolveObject(ctx, v, depth)
	if !ok {
		return definition{}, false
	}
	return definition{obj.doc, obj.node}, true
}

// resolveState resolves a state option: an object, or a function returning
// one.
func (e *Extractor) resolveState(ctx context.Context, v value, depth int) (value, bool) {
	v, ok := e.follow(ctx, v, depth)
	if !ok || v.node == nil {
		return value{}, false
	}
	switch v.node.Type() {
	case "object":
		return v, true
	case "arrow_function":
		body := syntax.Unwrap(v.node.ChildByFieldName("body"))
		if body == nil {
			return value{}, false
		}
		if body.Type() == "statement_block" {
			return e.returnedObject(ctx, value{v.doc, body}, depth)
		}
		return e.resolveObject(ctx, value{v.doc, body}, depth+1)
	case "function", "function_expression", "function_declaration", "method_definition":
		return e.returnedObject(ctx, value{v.doc, v.node.ChildByFieldName("body")}, depth)
	}
	return value{}, false
}

// returnedObject resolves the first top-level return statement of a block.
func (e *Extractor) returnedObject(ctx context.Context, block value, depth int) (value, bool) {
	for _, stmt := range syntax.NamedChildren(block.node) {
		if stmt.Type() != "return_statement" {
			continue
		}
		if stmt.NamedChildCount() == 0 {
			return value{}, false
		}
		return e.resolveObject(ctx, value{block.doc, stmt.NamedChild(0)}, depth+1)
	}
	return value{}, false
}

// resolveString resolves v to a plain string, following constants such as
// mutation type names.
func (e *Extractor) resolveString(ctx context.Context, v value, depth int) (string, bool) {
	v, ok := e.follow(ctx, v, depth)
	if !ok || v.node == nil {
		return "", false
	}
	return syntax.LiteralString(v.doc, v.node)
}

// member is one named entry of an options object.
type member struct {
	name  string
	doc   *syntax.Document
	key   *sitter.Node
	value *sitter.Node // method_definition for methods
}

// forEachMember visits the statically named members of obj, expanding
// spread elements and computed keys bound to constants.
func (e *Extractor) forEachMember(ctx context.Context, obj value, depth int, fn func(member)) {
	if depth > maxDepth {
		return
	}
	for _, child := range syntax.NamedChildren(obj.node) {
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			if name, ok := e.keyName(ctx, obj.doc, key); ok {
				fn(member{name: name, doc: obj.doc, key: key, value: child.ChildByFieldName("value")})
			}
		case "shorthand_property_identifier":
			fn(member{name: obj.doc.Text(child), doc: obj.doc, key: child, value: child})
		case "method_definition":
			key := child.ChildByFieldName("name")
			if name, ok := e.keyName(ctx, obj.doc, key); ok {
				fn(member{name: name, doc: obj.doc, key: key, value: child})
			}
		case "spread_element":
			if inner, ok := e.resolveObject(ctx, value{obj.doc, child.NamedChild(0)}, depth+1); ok {
				e.forEachMember(ctx, inner, depth+1, fn)
			}
		}
	}
}

// keyName returns the static name of a property key, resolving computed
// keys such as `[INCREMENT]` and `[types.INCREMENT]`.
func (e *Extractor) keyName(ctx context.Context, doc *syntax.Document, key *sitter.Node) (string, bool) {
	if name, ok := syntax.PropertyKey(doc, key); ok {
		return name, true
	}
	if key == nil || key.Type() != "computed_property_name" || key.NamedChildCount() == 0 {
		return "", false
	}
	return e.resolveString(ctx, value{doc, key.NamedChild(0)}, 0)
}
