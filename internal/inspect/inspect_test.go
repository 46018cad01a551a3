package inspect

import (
	"context"
	"testing"

	"github.com/spetr/vuexref/builtin/storeindex/memory"
	"github.com/spetr/vuexref/internal/resolve"
	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/provider/providertest"
	"github.com/spetr/vuexref/pkg/types"
)

const component = `import { mapGetters } from 'vuex'
export default {
  computed: {
    ...mapGetters('cart', ['total', 'gone']),
  },
  methods: {
    buy() {
      this.$store.dispatch('cart/add')
      this.$store.dispatch('shop/add')
      this.$store.commit('increment')
      this.$store.commit(type)
    },
  },
}
`

func setup(t *testing.T, opts Options) (*Inspector, *syntax.Document) {
	t.Helper()

	ix := memory.New()
	if err := ix.Load(providertest.Model()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	doc, err := syntax.NewParser().ParseSource(context.Background(), "src/Cart.js", syntax.LangJavaScript, []byte(component))
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	t.Cleanup(doc.Close)

	return New(ix, resolve.NewDefaultChecker(false), opts), doc
}

func TestCollect(t *testing.T) {
	in, doc := setup(t, Options{})
	refs := in.Collect(doc)

	want := []struct {
		text     string
		kind     types.SymbolKind
		resolved bool
		module   bool
	}{
		{"total", types.SymbolKindGetter, true, false},
		{"gone", types.SymbolKindGetter, false, false},
		{"cart", types.SymbolKindAction, true, true},
		{"add", types.SymbolKindAction, true, false},
		{"shop", types.SymbolKindAction, false, true},
		{"add", types.SymbolKindAction, false, false},
		{"increment", types.SymbolKindMutation, true, false},
	}
	if len(refs) != len(want) {
		t.Fatalf("Collect() returned %d references, want %d", len(refs), len(want))
	}
	for i, w := range want {
		r := refs[i]
		if r.Text != w.text || r.Kind != w.kind || r.Resolution.Resolved != w.resolved || r.Resolution.Module != w.module {
			t.Errorf("ref %d = {%q %s resolved=%v module=%v}, want %+v",
				i, r.Text, r.Kind, r.Resolution.Resolved, r.Resolution.Module, w)
		}
	}

	if refs[0].Namespace != "cart/" || refs[0].Qualified() != "cart/total" {
		t.Errorf("mapped getter namespace = %q, qualified %q", refs[0].Namespace, refs[0].Qualified())
	}
	if refs[0].Resolution.Symbol == nil || refs[0].Resolution.Symbol.Line != 8 {
		t.Errorf("mapped getter symbol = %+v", refs[0].Resolution.Symbol)
	}
	if refs[3].Literal != "cart/add" || refs[3].Soft != true {
		t.Errorf("dispatch reference = %+v", refs[3])
	}
}

func TestDiagnostics(t *testing.T) {
	t.Run("hard only", func(t *testing.T) {
		in, doc := setup(t, Options{})
		diags := in.Diagnostics(doc)
		if len(diags) != 1 {
			t.Fatalf("Diagnostics() = %+v, want 1", diags)
		}
		d := diags[0]
		if d.Severity != types.SeverityError || d.Line != 4 || d.Column != 38 || d.EndColumn != 42 {
			t.Errorf("diagnostic = %+v", d)
		}
		if d.Message != `unknown getter "cart/gone"` || d.Namespace != "cart/" {
			t.Errorf("message = %q, namespace %q", d.Message, d.Namespace)
		}
	})

	t.Run("with soft", func(t *testing.T) {
		in, doc := setup(t, Options{ReportSoft: true})
		diags := in.Documents([]*syntax.Document{doc})
		if len(diags) != 2 {
			t.Fatalf("Documents() = %+v, want 2", diags)
		}
		d := diags[1]
		if d.Severity != types.SeverityWarning || d.Line != 9 || d.Column != 29 || d.Text != "shop" {
			t.Errorf("soft diagnostic = %+v", d)
		}
		if d.Message != `unknown store module "shop/" in action "shop/add"` {
			t.Errorf("message = %q", d.Message)
		}
	})
}

func TestFails(t *testing.T) {
	errs := []types.Diagnostic{{Severity: types.SeverityError}, {Severity: types.SeverityWarning}}
	warns := []types.Diagnostic{{Severity: types.SeverityWarning}}

	tests := []struct {
		name   string
		diags  []types.Diagnostic
		failOn string
		want   bool
	}{
		{"error with errors", errs, "error", true},
		{"error with warnings", warns, "error", false},
		{"warning with warnings", warns, "warning", true},
		{"never", errs, "never", false},
		{"empty", nil, "warning", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fails(tt.diags, tt.failOn); got != tt.want {
				t.Errorf("Fails(%q) = %v, want %v", tt.failOn, got, tt.want)
			}
		})
	}

	e, w := Count(errs)
	if e != 1 || w != 1 {
		t.Errorf("Count() = %d, %d, want 1, 1", e, w)
	}
}

func TestSortDiagnostics(t *testing.T) {
	diags := []types.Diagnostic{
		{File: "b.js", Line: 1, Column: 1},
		{File: "a.js", Line: 3, Column: 9},
		{File: "a.js", Line: 3, Column: 2},
	}
	SortDiagnostics(diags)
	if diags[0].Column != 2 || diags[1].Column != 9 || diags[2].File != "b.js" {
		t.Errorf("SortDiagnostics() = %+v", diags)
	}
}
