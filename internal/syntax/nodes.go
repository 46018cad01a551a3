package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Same reports whether two nodes denote the same syntax element.
func Same(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// Unwrap strips parentheses, TypeScript assertions and non-null markers.
func Unwrap(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "non_null_expression", "as_expression",
			"satisfies_expression", "type_assertion":
			inner := n.NamedChild(0)
			if n.Type() == "type_assertion" {
				inner = n.NamedChild(int(n.NamedChildCount()) - 1)
			}
			if inner == nil {
				return n
			}
			n = inner
		default:
			return n
		}
	}
	return n
}

// ParentSkippingWrappers returns the parent of n, skipping the wrappers
// Unwrap removes.
func ParentSkippingWrappers(n *sitter.Node) *sitter.Node {
	p := n.Parent()
	for p != nil {
		switch p.Type() {
		case "parenthesized_expression", "non_null_expression", "as_expression",
			"satisfies_expression", "type_assertion":
			p = p.Parent()
		default:
			return p
		}
	}
	return nil
}

// NamedChildren returns the named children of n without comments.
func NamedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// Enclosing walks outward from n (exclusive) and returns the first ancestor
// matching pred.
func Enclosing(n *sitter.Node, pred func(*sitter.Node) bool) *sitter.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if pred(p) {
			return p
		}
	}
	return nil
}

// IsFunction reports whether n introduces a function scope.
func IsFunction(n *sitter.Node) bool {
	switch n.Type() {
	case "function", "function_expression", "function_declaration", "arrow_function",
		"method_definition", "generator_function", "generator_function_declaration":
		return true
	}
	return false
}

// EnclosingFunction returns the innermost function containing n.
func EnclosingFunction(n *sitter.Node) *sitter.Node {
	return Enclosing(n, IsFunction)
}

// IsCall reports whether n is a call expression.
func IsCall(n *sitter.Node) bool {
	return n != nil && n.Type() == "call_expression"
}

// Arguments returns the argument expressions of a call.
func Arguments(call *sitter.Node) []*sitter.Node {
	if !IsCall(call) {
		return nil
	}
	return NamedChildren(call.ChildByFieldName("arguments"))
}

// ArgumentIndex returns the position of arg among the arguments of the call
// owning the arguments node, or -1.
func ArgumentIndex(arg *sitter.Node) (call *sitter.Node, index int) {
	args := arg.Parent()
	if args == nil || args.Type() != "arguments" {
		return nil, -1
	}
	call = args.Parent()
	if !IsCall(call) {
		return nil, -1
	}
	for i, a := range NamedChildren(args) {
		if Same(a, arg) {
			return call, i
		}
	}
	return nil, -1
}

// CalleeName returns the name of the called function: the identifier for
// `f()` and the property for `a.b.f()`.
func CalleeName(doc *Document, call *sitter.Node) string {
	if !IsCall(call) {
		return ""
	}
	fn := Unwrap(call.ChildByFieldName("function"))
	return ReferenceName(doc, fn)
}

// CalleeQualifier returns `a.b` for `a.b.f()` and nil for unqualified calls.
func CalleeQualifier(call *sitter.Node) *sitter.Node {
	if !IsCall(call) {
		return nil
	}
	fn := Unwrap(call.ChildByFieldName("function"))
	if fn == nil || fn.Type() != "member_expression" {
		return nil
	}
	return Unwrap(fn.ChildByFieldName("object"))
}

// ReferenceName returns the referenced name of an identifier or the property
// name of a member expression.
func ReferenceName(doc *Document, n *sitter.Node) string {
	if n == nil {
		return ""
	}
	switch n.Type() {
	case "identifier", "property_identifier", "shorthand_property_identifier", "this":
		return doc.Text(n)
	case "member_expression":
		return doc.Text(n.ChildByFieldName("property"))
	}
	return ""
}

// IsReferenceExpression reports whether n is an identifier, `this`, or a
// property access chain.
func IsReferenceExpression(n *sitter.Node) bool {
	if n == nil {
		return false
	}
	switch n.Type() {
	case "identifier", "this", "member_expression":
		return true
	}
	return false
}

// Qualifier returns the object of a member expression, or nil.
func Qualifier(n *sitter.Node) *sitter.Node {
	if n == nil || n.Type() != "member_expression" {
		return nil
	}
	return Unwrap(n.ChildByFieldName("object"))
}

// LiteralString returns the value of a plain string literal. Template strings
// with substitutions and strings with escape sequences yield false.
func LiteralString(doc *Document, n *sitter.Node) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Type() {
	case "string":
	case "template_string":
		for _, child := range NamedChildren(n) {
			if child.Type() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	for _, child := range NamedChildren(n) {
		if child.Type() == "escape_sequence" {
			return "", false
		}
	}
	text := doc.Text(n)
	if len(text) < 2 {
		return "", false
	}
	return text[1 : len(text)-1], true
}

// IsStringLiteral reports whether n is a string or template string node.
func IsStringLiteral(n *sitter.Node) bool {
	return n != nil && (n.Type() == "string" || n.Type() == "template_string")
}

// IsTrue reports whether n is the boolean literal true.
func IsTrue(n *sitter.Node) bool {
	n = Unwrap(n)
	return n != nil && n.Type() == "true"
}

// PropertyKey returns the static name of a property key node.
func PropertyKey(doc *Document, key *sitter.Node) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Type() {
	case "property_identifier", "identifier", "shorthand_property_identifier",
		"shorthand_property_identifier_pattern", "number", "private_property_identifier":
		return doc.Text(key), true
	case "string":
		return LiteralString(doc, key)
	case "computed_property_name":
		inner := Unwrap(key.NamedChild(0))
		if IsStringLiteral(inner) {
			return LiteralString(doc, inner)
		}
	}
	return "", false
}

// ObjectProperty returns the value node of the property called name in an
// object literal. Shorthand properties return the identifier itself; methods
// return the method_definition.
func ObjectProperty(doc *Document, object *sitter.Node, name string) *sitter.Node {
	object = Unwrap(object)
	if object == nil || object.Type() != "object" {
		return nil
	}
	for _, member := range NamedChildren(object) {
		switch member.Type() {
		case "pair":
			if key, ok := PropertyKey(doc, member.ChildByFieldName("key")); ok && key == name {
				return member.ChildByFieldName("value")
			}
		case "shorthand_property_identifier":
			if doc.Text(member) == name {
				return member
			}
		case "method_definition":
			if key, ok := PropertyKey(doc, member.ChildByFieldName("name")); ok && key == name {
				return member
			}
		}
	}
	return nil
}

// ObjectMember describes one named member of an object literal.
type ObjectMember struct {
	Name  string
	Node  *sitter.Node // pair, shorthand property or method definition
	Key   *sitter.Node // key node (the member itself for shorthand properties)
	Value *sitter.Node // value expression; nil for methods
}

// ObjectMembers lists the statically named members of an object literal.
func ObjectMembers(doc *Document, object *sitter.Node) []ObjectMember {
	object = Unwrap(object)
	if object == nil || object.Type() != "object" {
		return nil
	}
	var members []ObjectMember
	for _, member := range NamedChildren(object) {
		switch member.Type() {
		case "pair":
			key := member.ChildByFieldName("key")
			if name, ok := PropertyKey(doc, key); ok {
				members = append(members, ObjectMember{Name: name, Node: member, Key: key, Value: member.ChildByFieldName("value")})
			}
		case "shorthand_property_identifier":
			members = append(members, ObjectMember{Name: doc.Text(member), Node: member, Key: member, Value: member})
		case "method_definition":
			key := member.ChildByFieldName("name")
			if name, ok := PropertyKey(doc, key); ok {
				members = append(members, ObjectMember{Name: name, Node: member, Key: key})
			}
		}
	}
	return members
}

// MemberOf returns the object literal member (pair or method) that
// directly holds n as its value, together with the object.
func MemberOf(n *sitter.Node) (member, object *sitter.Node) {
	p := ParentSkippingWrappers(n)
	if p == nil {
		return nil, nil
	}
	switch p.Type() {
	case "pair":
		if !Same(Unwrap(p.ChildByFieldName("value")), n) {
			return nil, nil
		}
		return p, p.Parent()
	case "object":
		if n.Type() == "method_definition" || n.Type() == "shorthand_property_identifier" {
			return n, p
		}
	}
	return nil, nil
}
