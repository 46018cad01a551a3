package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func parseFiles(t *testing.T, root string, paths ...string) []*syntax.Document {
	t.Helper()
	parser := syntax.NewParser()
	var docs []*syntax.Document
	for _, rel := range paths {
		content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatal(err)
		}
		parsed, err := parser.Parse(context.Background(), &types.SourceFile{Path: rel, Content: content})
		if err != nil {
			t.Fatalf("Parse(%s) failed: %v", rel, err)
		}
		docs = append(docs, parsed...)
	}
	t.Cleanup(func() {
		for _, d := range docs {
			d.Close()
		}
	})
	return docs
}

func symbolKeys(model *types.StoreModel) []string {
	var keys []string
	for _, s := range model.Symbols {
		keys = append(keys, string(s.Kind)+":"+s.QualifiedName())
	}
	sort.Strings(keys)
	return keys
}

func findModule(model *types.StoreModel, statePath string) *types.StoreModule {
	for _, m := range model.Modules {
		if !m.Detached && m.StatePath == statePath {
			return m
		}
	}
	return nil
}

var classicStore = map[string]string{
	"src/store/index.js": `import Vue from 'vue'
import Vuex from 'vuex'
import cart from './modules/cart'
import * as account from '@/store/modules/account'

Vue.use(Vuex)

const settings = {
  state: () => ({ theme: 'dark' }),
  mutations: { setTheme(state, t) { state.theme = t } },
}

export default new Vuex.Store({
  state: { version: 1 },
  getters: { isReady: state => true },
  mutations: { increment(state) {} },
  actions: { init({ dispatch }) {} },
  modules: { cart, account, settings },
})
`,
	"src/store/modules/cart.js": `import { ADD_ITEM } from '../mutation-types'
import actions from './cart-actions'

export default {
  namespaced: true,
  state() { return { items: [] } },
  getters: { total: (state) => 0, 'item-count': () => 0 },
  mutations: { [ADD_ITEM](state, item) {} },
  actions,
  modules: {
    promo: { namespaced: true, actions: { apply() {} } },
    history: { state: { entries: [] }, getters: { lastEntry: () => null } },
  },
}
`,
	"src/store/mutation-types.js":       "export const ADD_ITEM = 'ADD_ITEM'\n",
	"src/store/modules/cart-actions.js": "export default {\n  checkout({ commit }) {},\n  add() {},\n}\n",
	"src/store/modules/account.js": `export const namespaced = true
export const state = () => ({ user: null })
export const getters = { isLoggedIn: state => !!state.user }
export const actions = { login() {} }
`,
}

func TestExtractClassicStore(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, classicStore)
	docs := parseFiles(t, root, "src/store/index.js")

	e := NewExtractor(Options{Root: root, Aliases: map[string]string{"@": "src"}})
	defer e.Close()

	model, err := e.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := []string{
		"action:account/login",
		"action:cart/add",
		"action:cart/checkout",
		"action:cart/promo/apply",
		"action:init",
		"getter:account/isLoggedIn",
		"getter:cart/item-count",
		"getter:cart/lastEntry",
		"getter:cart/total",
		"getter:isReady",
		"mutation:cart/ADD_ITEM",
		"mutation:increment",
		"mutation:setTheme",
		"state:account/user",
		"state:cart/history/entries",
		"state:cart/items",
		"state:settings/theme",
		"state:version",
	}
	got := symbolKeys(model)
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("symbols:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	tests := []struct {
		statePath  string
		namespace  string
		namespaced bool
		file       string
	}{
		{"", "", false, "src/store/index.js"},
		{"cart/", "cart/", true, "src/store/modules/cart.js"},
		{"cart/promo/", "cart/promo/", true, "src/store/modules/cart.js"},
		{"cart/history/", "cart/", false, "src/store/modules/cart.js"},
		{"account/", "account/", true, "src/store/modules/account.js"},
		{"settings/", "", false, "src/store/index.js"},
	}
	for _, tt := range tests {
		m := findModule(model, tt.statePath)
		if m == nil {
			t.Errorf("module %q not found", tt.statePath)
			continue
		}
		if m.Namespace != tt.namespace || m.Namespaced != tt.namespaced || m.FilePath != tt.file {
			t.Errorf("module %q = %+v", tt.statePath, m)
		}
	}

	var detached *types.StoreModule
	for _, m := range model.Modules {
		if m.Detached && m.FilePath == "src/store/modules/cart-actions.js" {
			detached = m
		}
	}
	if detached == nil || detached.Namespace != "cart/" {
		t.Errorf("detached actions module = %+v", detached)
	}

	for _, s := range model.Symbols {
		if s.Name == "checkout" && (s.FilePath != "src/store/modules/cart-actions.js" || s.Line != 2) {
			t.Errorf("checkout declared at %s:%d", s.FilePath, s.Line)
		}
	}
}

func TestExtractCreateStoreWithLocalOptions(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"store.ts": `import { createStore } from 'vuex'
const options = {
  state: { count: 0 },
  mutations: { inc(state: any) { state.count++ } },
}
export const store = createStore(options)
`,
	})
	docs := parseFiles(t, root, "store.ts")

	e := NewExtractor(Options{Root: root})
	defer e.Close()
	model, err := e.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	got := strings.Join(symbolKeys(model), ",")
	if got != "mutation:inc,state:count" {
		t.Errorf("symbols = %s", got)
	}
}

func TestExtractEntry(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/options.js": "module.exports = { actions: { boot() {} } }\n",
	})

	e := NewExtractor(Options{Root: root, Entries: []string{"src/options.js"}})
	defer e.Close()
	model, err := e.Extract(context.Background(), nil)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := strings.Join(symbolKeys(model), ","); got != "action:boot" {
		t.Errorf("symbols = %s", got)
	}

	missing := NewExtractor(Options{Root: root, Entries: []string{"nope.js"}})
	defer missing.Close()
	if _, err := missing.Extract(context.Background(), nil); err == nil {
		t.Error("expected error for missing entry")
	}
}

func TestExtractNuxt(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"store/index.js":        "export const state = () => ({ counter: 0 })\nexport const mutations = { increment(state) {} }\n",
		"store/todos.js":        "export default { state: () => ({ list: [] }), mutations: { add() {} } }\n",
		"store/cart/index.js":   "export const getters = { total: () => 0 }\n",
		"store/cart/actions.js": "export default { checkout() {} }\n",
	})
	docs := parseFiles(t, root, "store/index.js", "store/todos.js", "store/cart/index.js", "store/cart/actions.js")

	e := NewExtractor(Options{Root: root, NuxtDir: "store"})
	defer e.Close()
	model, err := e.Extract(context.Background(), docs)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	want := "action:cart/checkout,getter:cart/total,mutation:increment,mutation:todos/add,state:counter,state:todos/list"
	if got := strings.Join(symbolKeys(model), ","); got != want {
		t.Errorf("symbols = %s, want %s", got, want)
	}
	if m := findModule(model, "todos/"); m == nil || !m.Namespaced {
		t.Errorf("todos module = %+v", m)
	}
}

func TestResolveImport(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/store/index.ts":      "",
		"src/store/cart/index.js": "",
		"lib/util.mjs":            "",
	})
	e := NewExtractor(Options{Root: root, Aliases: map[string]string{"@": "src", "~lib": "lib"}})

	tests := []struct {
		from, spec string
		want       string
		ok         bool
	}{
		{"src/main.js", "./store", "src/store/index.ts", true},
		{"src/store/index.ts", "./cart", "src/store/cart/index.js", true},
		{"src/main.js", "@/store/cart", "src/store/cart/index.js", true},
		{"src/main.js", "~lib/util", "lib/util.mjs", true},
		{"src/main.js", "vuex", "", false},
		{"src/main.js", "./missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			got, ok := e.resolveImport(tt.from, tt.spec)
			if got != tt.want || ok != tt.ok {
				t.Errorf("resolveImport(%q, %q) = %q, %v, want %q, %v", tt.from, tt.spec, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestWriteYAML(t *testing.T) {
	model := &types.StoreModel{
		Modules: []*types.StoreModule{{Namespace: "cart/", StatePath: "cart/", Namespaced: true, FilePath: "cart.js"}},
		Symbols: []*types.StoreSymbol{
			{Namespace: "cart/", Name: "add", Kind: types.SymbolKindAction},
			{Namespace: "", Name: "count", Kind: types.SymbolKindState},
		},
	}
	var buf bytes.Buffer
	if err := WriteYAML(&buf, model); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"namespace: cart/", "actions:", "- add", "state:", "- count", "namespaced: true"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
