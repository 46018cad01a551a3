// Package store extracts the Vuex store model (modules, state, getters,
// mutations and actions) from parsed project documents.
package store

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// maxDepth bounds binding chains and module nesting.
const maxDepth = 32

// Options configures store discovery.
type Options struct {
	Root    string            // Project root; document paths are relative to it
	Entries []string          // Files whose default export is the root store options
	NuxtDir string            // Directory of Nuxt-style store modules
	Aliases map[string]string // Import alias -> directory relative to Root
}

// Extractor builds a types.StoreModel from documents. Files reached through
// imports that were not handed to Extract are read and parsed on demand.
type Extractor struct {
	opts   Options
	parser *syntax.Parser

	docs  map[string]*syntax.Document
	owned []*syntax.Document
	seen  map[string]bool
	model *types.StoreModel
}

// NewExtractor creates an extractor.
func NewExtractor(opts Options) *Extractor {
	return &Extractor{
		opts:   opts,
		parser: syntax.NewParser(),
		docs:   make(map[string]*syntax.Document),
	}
}

// Close releases documents parsed by the extractor itself.
func (e *Extractor) Close() {
	for _, doc := range e.owned {
		doc.Close()
	}
	e.owned = nil
	e.docs = make(map[string]*syntax.Document)
}

// definition is a module definition: an object literal, or a file whose
// named exports are the module options.
type definition struct {
	doc    *syntax.Document
	object *sitter.Node
}

func (d definition) span() (start, end uint32) {
	if d.object == nil {
		return d.doc.BaseOffset, d.doc.BaseOffset + uint32(len(d.doc.Source))
	}
	return d.doc.FileOffset(d.object), d.doc.BaseOffset + d.object.EndByte()
}

// value is an expression node and the document it belongs to. A nil node
// stands for the namespace object of a whole file (`import * as m`).
type value struct {
	doc  *syntax.Document
	node *sitter.Node
}

var optionKinds = []struct {
	option string
	kind   types.SymbolKind
}{
	{"actions", types.SymbolKindAction},
	{"mutations", types.SymbolKindMutation},
	{"getters", types.SymbolKindGetter},
}

// Extract discovers the store roots among docs and walks their module
// trees. When no root is found and a Nuxt store directory is configured,
// the files of that directory form the store.
func (e *Extractor) Extract(ctx context.Context, docs []*syntax.Document) (*types.StoreModel, error) {
	e.model = &types.StoreModel{}
	e.seen = make(map[string]bool)

	sorted := make([]*syntax.Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := e.docs[doc.Path]; !ok {
			e.docs[doc.Path] = doc
		}
		sorted = append(sorted, doc)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	roots := 0
	for _, doc := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, arg := range findStoreRoots(doc) {
			def, ok := e.resolveDefinition(ctx, value{doc, arg}, 0)
			if !ok {
				slog.Debug("store options not resolvable", "file", doc.Path)
				continue
			}
			slog.Debug("found store root", "file", doc.Path)
			e.walkModule(ctx, def, "", "", false, 0)
			roots++
		}
	}

	for _, entry := range e.opts.Entries {
		rel := path.Clean(filepath.ToSlash(entry))
		doc, err := e.document(ctx, rel)
		if err != nil {
			return nil, fmt.Errorf("failed to load store entry %s: %w", entry, err)
		}
		exported, ok := e.defaultExport(ctx, doc, 0)
		if !ok {
			slog.Warn("store entry has no default export", "file", rel)
			continue
		}
		def, ok := e.resolveDefinition(ctx, exported, 0)
		if !ok {
			slog.Warn("store entry default export is not a store definition", "file", rel)
			continue
		}
		e.walkModule(ctx, def, "", "", false, 0)
		roots++
	}

	if roots == 0 && e.opts.NuxtDir != "" {
		e.extractNuxt(ctx, sorted)
	}

	return e.model, nil
}

// findStoreRoots returns the options arguments of `new Vuex.Store(...)`,
// `new Store(...)` and `createStore(...)` in files that use vuex.
func findStoreRoots(doc *syntax.Document) []*sitter.Node {
	if !bytes.Contains(doc.Source, []byte("vuex")) {
		return nil
	}
	var roots []*sitter.Node
	syntax.Walk(doc.Root(), func(n *sitter.Node) bool {
		if arg := storeArgument(doc, n); arg != nil {
			roots = append(roots, arg)
			return false
		}
		return true
	})
	return roots
}

// storeArgument returns the options argument when n constructs a store.
func storeArgument(doc *syntax.Document, n *sitter.Node) *sitter.Node {
	switch n.Type() {
	case "new_expression":
		ctor := syntax.Unwrap(n.ChildByFieldName("constructor"))
		if syntax.ReferenceName(doc, ctor) != "Store" {
			return nil
		}
		args := syntax.NamedChildren(n.ChildByFieldName("arguments"))
		if len(args) == 0 {
			return nil
		}
		return args[0]
	case "call_expression":
		if syntax.CalleeName(doc, n) != "createStore" {
			return nil
		}
		if args := syntax.Arguments(n); len(args) > 0 {
			return args[0]
		}
	}
	return nil
}

// walkModule records a module and its symbols, then descends into its
// `modules` option.
func (e *Extractor) walkModule(ctx context.Context, def definition, ns, statePath string, namespaced bool, depth int) {
	if depth > maxDepth || ctx.Err() != nil {
		return
	}
	start, end := def.span()
	key := fmt.Sprintf("%s:%d|%s", def.doc.Path, start, statePath)
	if e.seen[key] {
		return
	}
	e.seen[key] = true

	e.model.Modules = append(e.model.Modules, &types.StoreModule{
		Namespace:  ns,
		StatePath:  statePath,
		Namespaced: namespaced,
		FilePath:   def.doc.Path,
		StartByte:  start,
		EndByte:    end,
	})
	module := e.model.Modules[len(e.model.Modules)-1]

	for _, o := range optionKinds {
		opt, found := e.option(ctx, def, o.option)
		if !found {
			continue
		}
		obj, found := e.resolveObject(ctx, opt, 0)
		if !found {
			slog.Debug("option not resolvable", "option", o.option, "namespace", ns, "file", def.doc.Path)
			continue
		}
		e.attach(module, obj)
		e.collect(ctx, obj, ns, o.kind)
	}

	if opt, found := e.option(ctx, def, "state"); found {
		if obj, ok := e.resolveState(ctx, opt, 0); ok {
			e.attach(module, obj)
			e.collect(ctx, obj, statePath, types.SymbolKindState)
		}
	}

	opt, found := e.option(ctx, def, "modules")
	if !found {
		return
	}
	obj, found := e.resolveObject(ctx, opt, 0)
	if !found {
		return
	}
	e.forEachMember(ctx, obj, 0, func(m member) {
		child, ok := e.resolveDefinition(ctx, value{m.doc, m.value}, 0)
		if !ok {
			slog.Debug("module not resolvable", "module", m.name, "file", m.doc.Path)
			return
		}
		childNS := ns
		childNamespaced := e.isNamespaced(ctx, child)
		if childNamespaced {
			childNS = ns + m.name + "/"
		}
		e.walkModule(ctx, child, childNS, statePath+m.name+"/", childNamespaced, depth+1)
	})
}

// attach records an extra range for option objects that live outside the
// module definition, so handlers there still map to the module.
func (e *Extractor) attach(module *types.StoreModule, obj value) {
	start := obj.doc.FileOffset(obj.node)
	if obj.doc.Path == module.FilePath && start >= module.StartByte && start < module.EndByte {
		return
	}
	e.model.Modules = append(e.model.Modules, &types.StoreModule{
		Namespace:  module.Namespace,
		StatePath:  module.StatePath,
		Namespaced: module.Namespaced,
		FilePath:   obj.doc.Path,
		StartByte:  start,
		EndByte:    obj.doc.BaseOffset + obj.node.EndByte(),
		Detached:   true,
	})
}

// collect adds one symbol per member of obj.
func (e *Extractor) collect(ctx context.Context, obj value, ns string, kind types.SymbolKind) {
	e.forEachMember(ctx, obj, 0, func(m member) {
		line, _ := m.doc.Position(m.key.StartByte())
		e.model.Symbols = append(e.model.Symbols, &types.StoreSymbol{
			Namespace: ns,
			Name:      m.name,
			Kind:      kind,
			FilePath:  m.doc.Path,
			Line:      line,
			Offset:    m.doc.FileOffset(m.key),
		})
	})
}

func (e *Extractor) isNamespaced(ctx context.Context, def definition) bool {
	opt, ok := e.option(ctx, def, "namespaced")
	if !ok {
		return false
	}
	v, ok := e.follow(ctx, opt, 0)
	return ok && v.node != nil && syntax.IsTrue(v.node)
}

// option returns the value of a module option.
func (e *Extractor) option(ctx context.Context, def definition, name string) (value, bool) {
	if def.object == nil {
		return e.namedExport(ctx, def.doc, name, 0)
	}
	n := syntax.ObjectProperty(def.doc, def.object, name)
	if n == nil {
		return value{}, false
	}
	return value{def.doc, n}, true
}

// nuxtOptionFiles are files holding one option of their directory's module.
var nuxtOptionFiles = map[string]bool{
	"state":     true,
	"getters":   true,
	"mutations": true,
	"actions":   true,
}

// extractNuxt treats every script under the Nuxt store directory as a
// namespaced module named after its path, with index as the directory
// module itself.
func (e *Extractor) extractNuxt(ctx context.Context, docs []*syntax.Document) {
	prefix := strings.Trim(path.Clean(filepath.ToSlash(e.opts.NuxtDir)), "/") + "/"
	for _, doc := range docs {
		if doc.SFC || !strings.HasPrefix(doc.Path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(doc.Path, prefix)
		parts := strings.Split(strings.TrimSuffix(rel, path.Ext(rel)), "/")
		last := parts[len(parts)-1]

		if nuxtOptionFiles[last] && len(parts) > 1 {
			e.nuxtOptionFile(ctx, doc, types.JoinNamespace(parts[:len(parts)-1]...), last)
			continue
		}
		if last == "index" {
			parts = parts[:len(parts)-1]
		}
		ns := types.JoinNamespace(parts...)

		def := definition{doc: doc}
		if exported, ok := e.defaultExport(ctx, doc, 0); ok {
			if obj, ok := e.resolveObject(ctx, exported, 0); ok {
				def = definition{obj.doc, obj.node}
			}
		}
		slog.Debug("found nuxt store module", "file", doc.Path, "namespace", ns)
		e.walkModule(ctx, def, ns, ns, ns != "", 0)
	}
}

// nuxtOptionFile handles store/<module>/<option>.js, whose default export
// is that option of the module.
func (e *Extractor) nuxtOptionFile(ctx context.Context, doc *syntax.Document, ns, option string) {
	exported, ok := e.defaultExport(ctx, doc, 0)
	if !ok {
		return
	}
	var obj value
	if option == "state" {
		obj, ok = e.resolveState(ctx, exported, 0)
	} else {
		obj, ok = e.resolveObject(ctx, exported, 0)
	}
	if !ok {
		return
	}

	e.model.Modules = append(e.model.Modules, &types.StoreModule{
		Namespace:  ns,
		StatePath:  ns,
		Namespaced: true,
		FilePath:   doc.Path,
		StartByte:  doc.BaseOffset,
		EndByte:    doc.BaseOffset + uint32(len(doc.Source)),
		Detached:   true,
	})

	kind, _ := types.ParseSymbolKind(option)
	e.collect(ctx, obj, ns, kind)
}
