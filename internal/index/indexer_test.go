package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spetr/vuexref/builtin/storeindex/memory"
	"github.com/spetr/vuexref/internal/config"
	"github.com/spetr/vuexref/pkg/types"
)

var project = map[string]string{
	"src/store/index.js": `import Vue from 'vue'
import Vuex from 'vuex'
import cart from './cart'

Vue.use(Vuex)

export default new Vuex.Store({
  state: { ready: false },
  mutations: {
    setReady(state) { state.ready = true },
  },
  modules: { cart },
})
`,
	"src/store/cart.js": `export default {
  namespaced: true,
  state: () => ({ items: [] }),
  getters: {
    total: state => state.items.length,
  },
  actions: {
    add({ commit }, item) {
      commit('push', item)
      commit('missing')
    },
  },
  mutations: {
    push(state, item) { state.items.push(item) },
  },
}
`,
	"src/components/Cart.vue": `<template><div></div></template>
<script>
import { mapGetters } from 'vuex'
export default {
  computed: mapGetters('cart', ['total', 'count']),
  methods: {
    add() { this.$store.dispatch('cart/add', 1) },
  },
}
</script>
`,
	"node_modules/vuex/index.js": `export class Store {}`,
	"README.md":                  "vuex",
}

func writeProject(t *testing.T) string {
	t.Helper()
	return writeFiles(t, project)
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newIndexer(t *testing.T, root string) (*Indexer, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Index.UseGitIgnore = false
	cfg.Limits.Workers = 2
	return New(Config{ProjectDir: root, Config: cfg, Store: memory.New()}), cfg
}

func TestIndex(t *testing.T) {
	root := writeProject(t)

	var phases []string
	cfg := config.DefaultConfig()
	cfg.Index.UseGitIgnore = false
	idx := New(Config{
		ProjectDir: root,
		Config:     cfg,
		Store:      memory.New(),
		OnProgress: func(p types.IndexProgress) {
			if len(phases) == 0 || phases[len(phases)-1] != p.Phase {
				phases = append(phases, p.Phase)
			}
		},
	})

	res, err := idx.Index(context.Background(), false)
	if err != nil {
		t.Fatalf("Index failed: %v", err)
	}
	if res.Files != 3 || res.StoreFiles != 2 || res.Modules != 2 || res.Symbols != 6 {
		t.Errorf("Index() = %+v", res)
	}
	want := []string{"scanning", "parsing", "extracting", "loading"}
	if len(phases) != len(want) {
		t.Errorf("phases = %v, want %v", phases, want)
	}

	for _, q := range []struct {
		ns, name string
		kind     types.SymbolKind
	}{
		{"", "setReady", types.SymbolKindMutation},
		{"cart/", "items", types.SymbolKindState},
		{"cart/", "add", types.SymbolKindAction},
		{"cart/", "total", types.SymbolKindGetter},
	} {
		if _, ok := idx.Store().Lookup(q.ns, q.name, q.kind); !ok {
			t.Errorf("Lookup(%q, %q, %s) missing", q.ns, q.name, q.kind)
		}
	}

	meta, err := idx.Store().GetMetadata()
	if err != nil || meta == nil || meta.SchemaVersion != SchemaVersion || meta.ConfigHash != cfg.Hash() {
		t.Errorf("metadata = %+v, %v", meta, err)
	}

	again, err := idx.Index(context.Background(), false)
	if err != nil || !again.Skipped {
		t.Errorf("second Index() = %+v, %v, want skipped", again, err)
	}

	forced, err := idx.Index(context.Background(), true)
	if err != nil || forced.Skipped || forced.Symbols != 6 {
		t.Errorf("forced Index() = %+v, %v", forced, err)
	}
}

func TestCheck(t *testing.T) {
	root := writeProject(t)
	idx, cfg := newIndexer(t, root)
	ctx := context.Background()

	if _, err := idx.Index(ctx, false); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	diags, err := idx.Check(ctx, nil)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("Check() = %+v, want one diagnostic", diags)
	}
	d := diags[0]
	if d.File != "src/components/Cart.vue" || d.Line != 5 || d.Column != 43 || d.Text != "count" || d.Severity != types.SeverityError {
		t.Errorf("diagnostic = %+v", d)
	}

	cfg.Analysis.ReportSoft = true
	diags, err = idx.Check(ctx, []string{filepath.Join(root, "src/store/cart.js")})
	if err != nil {
		t.Fatalf("Check(cart.js) failed: %v", err)
	}
	if len(diags) != 1 || diags[0].Text != "missing" || diags[0].Severity != types.SeverityWarning || diags[0].Line != 10 {
		t.Errorf("Check(cart.js) = %+v", diags)
	}

	if _, err := idx.Check(ctx, []string{"src/missing.js"}); err == nil {
		t.Error("Check of a missing file should fail")
	}
	if _, err := idx.Check(ctx, []string{"../outside.js"}); err == nil {
		t.Error("Check outside the project should fail")
	}
}

func TestReferences(t *testing.T) {
	root := writeProject(t)
	idx, _ := newIndexer(t, root)
	ctx := context.Background()

	if _, err := idx.Index(ctx, false); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	refs, err := idx.References(ctx, "src/components/Cart.vue", 0)
	if err != nil {
		t.Fatalf("References failed: %v", err)
	}
	if len(refs) != 4 {
		t.Fatalf("References() = %d refs, want 4", len(refs))
	}

	onLine, err := idx.References(ctx, "src/components/Cart.vue", 7)
	if err != nil {
		t.Fatalf("References failed: %v", err)
	}
	if len(onLine) != 2 || onLine[1].Qualified() != "cart/add" || !onLine[1].Resolution.Resolved {
		t.Errorf("References(line 7) = %+v", onLine)
	}
}

func TestSelected(t *testing.T) {
	idx, _ := newIndexer(t, t.TempDir())

	tests := []struct {
		path string
		want bool
	}{
		{"src/store/index.js", true},
		{"src/App.vue", true},
		{"src/types.ts", true},
		{"src/types.d.ts", false},
		{"node_modules/vuex/index.js", false},
		{"packages/a/node_modules/x.js", false},
		{"dist/app.js", false},
		{"src/app.min.js", false},
		{"README.md", false},
	}
	for _, tt := range tests {
		if got := idx.Selected(tt.path); got != tt.want {
			t.Errorf("Selected(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1MB", 1024 * 1024},
		{"512kb", 512 * 1024},
		{"2GB", 2 * 1024 * 1024 * 1024},
		{"100B", 100},
		{"42", 42},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parseSize(tt.in); got != tt.want {
			t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
