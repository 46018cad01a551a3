package index

import (
	"context"
	"testing"

	"github.com/spetr/vuexref/pkg/types"
)

// State nests by module key below non-namespaced modules while getters,
// actions and mutations do not.
var nestedStateProject = map[string]string{
	"src/store/index.js": `import Vuex from 'vuex'

export default new Vuex.Store({
  modules: {
    cart: {
      state: { items: [] },
      mutations: {
        add(state) { return state['items'] || state['nope'] },
      },
    },
    plain: {
      modules: {
        deep: {
          namespaced: true,
          state: { color: 'red' },
        },
      },
    },
  },
})
`,
	"src/components/Deep.vue": `<template><div></div></template>
<script>
import { mapState } from 'vuex'
export default {
  computed: mapState('deep', ['color', 'shade']),
}
</script>
`,
}

func TestCheckNestedState(t *testing.T) {
	root := writeFiles(t, nestedStateProject)
	idx, cfg := newIndexer(t, root)
	cfg.Analysis.ReportSoft = true
	ctx := context.Background()

	if _, err := idx.Index(ctx, false); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	for _, q := range []string{"cart/items", "plain/deep/color"} {
		ns, name := types.SplitQualified(q)
		if _, ok := idx.Store().Lookup(ns, name, types.SymbolKindState); !ok {
			t.Fatalf("state %s not indexed", q)
		}
	}

	diags, err := idx.Check(ctx, nil)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	got := make(map[string]types.Diagnostic)
	for _, d := range diags {
		got[d.Text] = d
	}
	if len(diags) != 2 {
		t.Fatalf("Check() = %+v, want diagnostics for nope and shade only", diags)
	}

	tests := []struct {
		text     string
		file     string
		severity types.Severity
		message  string
	}{
		{"nope", "src/store/index.js", types.SeverityWarning, `unknown state "cart/nope"`},
		{"shade", "src/components/Deep.vue", types.SeverityError, `unknown state "plain/deep/shade"`},
	}
	for _, tt := range tests {
		d, ok := got[tt.text]
		if !ok {
			t.Errorf("no diagnostic for %q", tt.text)
			continue
		}
		if d.File != tt.file || d.Severity != tt.severity || d.Message != tt.message {
			t.Errorf("diagnostic %q = %+v", tt.text, d)
		}
	}
}

func TestReferencesNestedState(t *testing.T) {
	root := writeFiles(t, nestedStateProject)
	idx, _ := newIndexer(t, root)
	ctx := context.Background()

	if _, err := idx.Index(ctx, false); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	tests := []struct {
		file      string
		text      string
		qualified string
	}{
		{"src/store/index.js", "items", "cart/items"},
		{"src/components/Deep.vue", "color", "plain/deep/color"},
	}
	for _, tt := range tests {
		refs, err := idx.References(ctx, tt.file, 0)
		if err != nil {
			t.Fatalf("References(%s) failed: %v", tt.file, err)
		}
		found := false
		for i := range refs {
			r := &refs[i]
			if r.Text != tt.text {
				continue
			}
			found = true
			if !r.Resolution.Resolved || r.Qualified() != tt.qualified {
				t.Errorf("%s: resolved=%v qualified=%q, want %q", tt.text, r.Resolution.Resolved, r.Qualified(), tt.qualified)
			}
		}
		if !found {
			t.Errorf("no reference %q in %s", tt.text, tt.file)
		}
	}
}
