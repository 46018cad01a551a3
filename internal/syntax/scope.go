package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Parameter is a function parameter binding found by FindParameter.
type Parameter struct {
	Function     *sitter.Node // Function declaring the parameter
	Index        int          // Position of the parameter in the parameter list
	Node         *sitter.Node // Top-level parameter node (pattern or identifier)
	Name         string       // Bound local name
	Destructured bool         // Bound through an object pattern
	Shorthand    bool         // `{ commit }` as opposed to `{ commit: c }`
	Property     string       // Destructured property name
	TypeName     string       // TypeScript annotation text, if any
}

// FunctionParameters returns the parameter nodes of a function.
func FunctionParameters(fn *sitter.Node) []*sitter.Node {
	if fn == nil {
		return nil
	}
	if fn.Type() == "arrow_function" {
		if p := fn.ChildByFieldName("parameter"); p != nil {
			return []*sitter.Node{p}
		}
	}
	return NamedChildren(fn.ChildByFieldName("parameters"))
}

// FindParameter resolves name as a parameter of a function enclosing from,
// walking outward through nested function scopes.
func FindParameter(doc *Document, from *sitter.Node, name string) (*Parameter, bool) {
	for fn := EnclosingFunction(from); fn != nil; fn = EnclosingFunction(fn) {
		for i, param := range FunctionParameters(fn) {
			if p, ok := matchParameter(doc, param, name); ok {
				p.Function = fn
				p.Index = i
				p.Node = param
				return p, true
			}
		}
	}
	return nil, false
}

// matchParameter checks whether a single parameter binds name.
func matchParameter(doc *Document, param *sitter.Node, name string) (*Parameter, bool) {
	var typeName string
	pattern := param
	switch param.Type() {
	case "required_parameter", "optional_parameter":
		pattern = param.ChildByFieldName("pattern")
		if ann := param.ChildByFieldName("type"); ann != nil {
			if inner := ann.NamedChild(0); inner != nil {
				typeName = doc.Text(inner)
			}
		}
	}
	if pattern != nil && pattern.Type() == "assignment_pattern" {
		pattern = pattern.ChildByFieldName("left")
	}
	if pattern == nil {
		return nil, false
	}

	switch pattern.Type() {
	case "identifier":
		if doc.Text(pattern) == name {
			return &Parameter{Name: name, TypeName: typeName}, true
		}
	case "object_pattern":
		for _, prop := range NamedChildren(pattern) {
			switch prop.Type() {
			case "shorthand_property_identifier_pattern":
				if doc.Text(prop) == name {
					return &Parameter{Name: name, Destructured: true, Shorthand: true, Property: name, TypeName: typeName}, true
				}
			case "object_assignment_pattern":
				left := prop.ChildByFieldName("left")
				if left != nil && left.Type() == "shorthand_property_identifier_pattern" && doc.Text(left) == name {
					return &Parameter{Name: name, Destructured: true, Shorthand: true, Property: name, TypeName: typeName}, true
				}
			case "pair_pattern":
				value := prop.ChildByFieldName("value")
				if value != nil && value.Type() == "assignment_pattern" {
					value = value.ChildByFieldName("left")
				}
				if value != nil && value.Type() == "identifier" && doc.Text(value) == name {
					key, _ := PropertyKey(doc, prop.ChildByFieldName("key"))
					return &Parameter{Name: name, Destructured: true, Property: key, TypeName: typeName}, true
				}
			}
		}
	}
	return nil, false
}

// Declaration is a variable declarator found by FindDeclaration.
type Declaration struct {
	Declarator   *sitter.Node // variable_declarator
	Value        *sitter.Node // Initializer, unwrapped
	Destructured bool         // Name bound through `const { name } = value`
	Property     string       // Destructured property name
}

// FindDeclaration resolves name to a variable declarator in a block or
// program scope enclosing from.
func FindDeclaration(doc *Document, from *sitter.Node, name string) (*Declaration, bool) {
	for scope := from; scope != nil; scope = scope.Parent() {
		switch scope.Type() {
		case "program", "statement_block", "class_body":
		default:
			continue
		}
		for _, stmt := range NamedChildren(scope) {
			if stmt.Type() == "export_statement" {
				if decl := stmt.ChildByFieldName("declaration"); decl != nil {
					stmt = decl
				}
			}
			switch stmt.Type() {
			case "lexical_declaration", "variable_declaration":
			default:
				continue
			}
			for _, declarator := range NamedChildren(stmt) {
				if declarator.Type() != "variable_declarator" {
					continue
				}
				if d, ok := matchDeclarator(doc, declarator, name); ok {
					return d, true
				}
			}
		}
	}
	return nil, false
}

func matchDeclarator(doc *Document, declarator *sitter.Node, name string) (*Declaration, bool) {
	target := declarator.ChildByFieldName("name")
	value := Unwrap(declarator.ChildByFieldName("value"))
	if target == nil {
		return nil, false
	}
	switch target.Type() {
	case "identifier":
		if doc.Text(target) == name {
			return &Declaration{Declarator: declarator, Value: value}, true
		}
	case "object_pattern":
		for _, prop := range NamedChildren(target) {
			switch prop.Type() {
			case "shorthand_property_identifier_pattern":
				if doc.Text(prop) == name {
					return &Declaration{Declarator: declarator, Value: value, Destructured: true, Property: name}, true
				}
			case "pair_pattern":
				v := prop.ChildByFieldName("value")
				if v != nil && v.Type() == "identifier" && doc.Text(v) == name {
					key, _ := PropertyKey(doc, prop.ChildByFieldName("key"))
					return &Declaration{Declarator: declarator, Value: value, Destructured: true, Property: key}, true
				}
			}
		}
	}
	return nil, false
}

// Walk visits every node of the tree rooted at n in document order.
// Returning false from fn skips the children of the visited node.
func Walk(n *sitter.Node, fn func(*sitter.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		Walk(n.Child(i), fn)
	}
}
