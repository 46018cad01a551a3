package store

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// scriptExtensions are tried, in order, for extensionless import paths.
var scriptExtensions = []string{".js", ".ts", ".mjs", ".cjs", ".jsx", ".tsx"}

// importBinding finds the import declaring name. imported is "default" for
// default imports, "*" for namespace imports, otherwise the exported name.
func importBinding(doc *syntax.Document, name string) (source, imported string, ok bool) {
	for _, stmt := range syntax.NamedChildren(doc.Root()) {
		if stmt.Type() != "import_statement" {
			continue
		}
		src, ok := syntax.LiteralString(doc, stmt.ChildByFieldName("source"))
		if !ok {
			continue
		}
		for _, clause := range syntax.NamedChildren(stmt) {
			if clause.Type() != "import_clause" {
				continue
			}
			for _, c := range syntax.NamedChildren(clause) {
				switch c.Type() {
				case "identifier":
					if doc.Text(c) == name {
						return src, "default", true
					}
				case "namespace_import":
					if id := c.NamedChild(0); id != nil && doc.Text(id) == name {
						return src, "*", true
					}
				case "named_imports":
					for _, spec := range syntax.NamedChildren(c) {
						if spec.Type() != "import_specifier" {
							continue
						}
						exported := spec.ChildByFieldName("name")
						local := spec.ChildByFieldName("alias")
						if local == nil {
							local = exported
						}
						if doc.Text(local) == name {
							return src, exportName(doc, exported), true
						}
					}
				}
			}
		}
	}
	return "", "", false
}

// exportName returns the text of an export or import name, which may be a
// string in `export { x as "y" }`.
func exportName(doc *syntax.Document, n *sitter.Node) string {
	if s, ok := syntax.LiteralString(doc, n); ok {
		return s
	}
	return doc.Text(n)
}

// imported resolves a local name bound by an import declaration.
func (e *Extractor) imported(ctx context.Context, doc *syntax.Document, name string, depth int) (value, bool) {
	if depth > maxDepth {
		return value{}, false
	}
	source, imported, ok := importBinding(doc, name)
	if !ok {
		return value{}, false
	}
	target, ok := e.load(ctx, doc.Path, source)
	if !ok {
		return value{}, false
	}
	switch imported {
	case "*":
		return value{doc: target}, true
	case "default":
		return e.defaultExport(ctx, target, depth+1)
	default:
		return e.namedExport(ctx, target, imported, depth+1)
	}
}

// namedExport resolves `export const name = ...`, `export function name`,
// `export { local as name }` and re-exports from other files.
func (e *Extractor) namedExport(ctx context.Context, doc *syntax.Document, name string, depth int) (value, bool) {
	if depth > maxDepth {
		return value{}, false
	}
	for _, stmt := range syntax.NamedChildren(doc.Root()) {
		if stmt.Type() != "export_statement" {
			continue
		}
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			if v, ok := declared(doc, decl, name); ok {
				return v, true
			}
			continue
		}

		source := stmt.ChildByFieldName("source")
		for _, clause := range syntax.NamedChildren(stmt) {
			if clause.Type() != "export_clause" {
				continue
			}
			for _, spec := range syntax.NamedChildren(clause) {
				if spec.Type() != "export_specifier" {
					continue
				}
				local := spec.ChildByFieldName("name")
				exported := spec.ChildByFieldName("alias")
				if exported == nil {
					exported = local
				}
				if exportName(doc, exported) != name {
					continue
				}
				if source == nil {
					return e.follow(ctx, value{doc, local}, depth+1)
				}
				from, ok := syntax.LiteralString(doc, source)
				if !ok {
					return value{}, false
				}
				target, ok := e.load(ctx, doc.Path, from)
				if !ok {
					return value{}, false
				}
				if exportName(doc, local) == "default" {
					return e.defaultExport(ctx, target, depth+1)
				}
				return e.namedExport(ctx, target, exportName(doc, local), depth+1)
			}
		}
	}
	return value{}, false
}

// declared matches name against the bindings of a declaration statement.
func declared(doc *syntax.Document, decl *sitter.Node, name string) (value, bool) {
	switch decl.Type() {
	case "lexical_declaration", "variable_declaration":
		for _, d := range syntax.NamedChildren(decl) {
			if d.Type() != "variable_declarator" {
				continue
			}
			target := d.ChildByFieldName("name")
			if target != nil && target.Type() == "identifier" && doc.Text(target) == name {
				v := d.ChildByFieldName("value")
				return value{doc, v}, v != nil
			}
		}
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if id := decl.ChildByFieldName("name"); id != nil && doc.Text(id) == name {
			return value{doc, decl}, true
		}
	}
	return value{}, false
}

// defaultExport resolves `export default ...` and `module.exports = ...`.
func (e *Extractor) defaultExport(ctx context.Context, doc *syntax.Document, depth int) (value, bool) {
	if depth > maxDepth {
		return value{}, false
	}
	for _, stmt := range syntax.NamedChildren(doc.Root()) {
		switch stmt.Type() {
		case "export_statement":
			if !isDefaultExport(stmt) {
				continue
			}
			if v := stmt.ChildByFieldName("value"); v != nil {
				return value{doc, v}, true
			}
			if d := stmt.ChildByFieldName("declaration"); d != nil {
				return value{doc, d}, true
			}
		case "expression_statement":
			expr := stmt.NamedChild(0)
			if expr == nil || expr.Type() != "assignment_expression" {
				continue
			}
			if doc.Text(expr.ChildByFieldName("left")) == "module.exports" {
				return value{doc, expr.ChildByFieldName("right")}, true
			}
		}
	}
	return value{}, false
}

func isDefaultExport(stmt *sitter.Node) bool {
	for i := 0; i < int(stmt.ChildCount()); i++ {
		if c := stmt.Child(i); !c.IsNamed() && c.Type() == "default" {
			return true
		}
	}
	return false
}

// functionDeclaration finds a function declared at the top level of scope.
func functionDeclaration(doc *syntax.Document, scope *sitter.Node, name string) *sitter.Node {
	for _, stmt := range syntax.NamedChildren(scope) {
		if stmt.Type() == "export_statement" {
			if d := stmt.ChildByFieldName("declaration"); d != nil {
				stmt = d
			}
		}
		if stmt.Type() != "function_declaration" {
			continue
		}
		if id := stmt.ChildByFieldName("name"); id != nil && doc.Text(id) == name {
			return stmt
		}
	}
	return nil
}

// load resolves an import specifier relative to the importing file and
// returns the target document.
func (e *Extractor) load(ctx context.Context, from, spec string) (*syntax.Document, bool) {
	rel, ok := e.resolveImport(from, spec)
	if !ok {
		return nil, false
	}
	doc, err := e.document(ctx, rel)
	if err != nil {
		return nil, false
	}
	return doc, true
}

// resolveImport maps an import specifier to a project-relative file path.
// Relative specifiers and configured aliases are understood; package
// imports are not.
func (e *Extractor) resolveImport(from, spec string) (string, bool) {
	var base string
	if strings.HasPrefix(spec, ".") {
		base = path.Join(path.Dir(from), spec)
	} else {
		dir, rest, ok := e.matchAlias(spec)
		if !ok {
			return "", false
		}
		base = path.Join(dir, rest)
	}

	for _, candidate := range candidates(base) {
		if e.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// matchAlias finds the longest alias prefixing spec.
func (e *Extractor) matchAlias(spec string) (dir, rest string, ok bool) {
	keys := make([]string, 0, len(e.opts.Aliases))
	for k := range e.opts.Aliases {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	for _, k := range keys {
		alias := strings.TrimSuffix(k, "/")
		target := filepath.ToSlash(e.opts.Aliases[k])
		if spec == alias {
			return target, "", true
		}
		if strings.HasPrefix(spec, alias+"/") {
			return target, strings.TrimPrefix(spec, alias+"/"), true
		}
	}
	return "", "", false
}

func candidates(base string) []string {
	var out []string
	if syntax.SupportsFile(base) {
		out = append(out, base)
	}
	for _, ext := range scriptExtensions {
		out = append(out, base+ext)
	}
	for _, ext := range scriptExtensions {
		out = append(out, base+"/index"+ext)
	}
	return out
}

func (e *Extractor) exists(rel string) bool {
	if _, ok := e.docs[rel]; ok {
		return true
	}
	info, err := os.Stat(filepath.Join(e.opts.Root, filepath.FromSlash(rel)))
	return err == nil && info.Mode().IsRegular()
}

// document returns the parsed document for a project-relative path. Vue
// files yield their first script block.
func (e *Extractor) document(ctx context.Context, rel string) (*syntax.Document, error) {
	if doc, ok := e.docs[rel]; ok {
		return doc, nil
	}

	content, err := os.ReadFile(filepath.Join(e.opts.Root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	docs, err := e.parser.Parse(ctx, &types.SourceFile{Path: rel, Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no script in %s", types.ErrParseError, rel)
	}
	for _, extra := range docs[1:] {
		extra.Close()
	}

	e.docs[rel] = docs[0]
	e.owned = append(e.owned, docs[0])
	return docs[0], nil
}
