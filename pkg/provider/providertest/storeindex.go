// Package providertest holds conformance checks shared by provider
// implementations.
package providertest

import (
	"testing"
	"time"

	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// Model returns a small store model: a root module, a namespaced cart
// module with a nested non-namespaced history module, and a detached
// actions object in a separate file.
func Model() *types.StoreModel {
	return &types.StoreModel{
		Modules: []*types.StoreModule{
			{Namespace: "", StatePath: "", FilePath: "store/index.js", StartByte: 0, EndByte: 500},
			{Namespace: "cart/", StatePath: "cart/", Namespaced: true, FilePath: "store/index.js", StartByte: 100, EndByte: 300},
			{Namespace: "cart/", StatePath: "cart/history/", FilePath: "store/index.js", StartByte: 200, EndByte: 250},
			{Namespace: "cart/", StatePath: "cart/", Namespaced: true, FilePath: "store/cart-actions.js", StartByte: 0, EndByte: 80, Detached: true},
		},
		Symbols: []*types.StoreSymbol{
			{Namespace: "", Name: "increment", Kind: types.SymbolKindMutation, FilePath: "store/index.js", Line: 3, Offset: 40},
			{Namespace: "cart/", Name: "add", Kind: types.SymbolKindAction, FilePath: "store/cart-actions.js", Line: 2, Offset: 10},
			{Namespace: "cart/", Name: "total", Kind: types.SymbolKindGetter, FilePath: "store/index.js", Line: 8, Offset: 150},
			{Namespace: "cart/", Name: "items", Kind: types.SymbolKindState, FilePath: "store/index.js", Line: 7, Offset: 120},
			{Namespace: "cart/history/", Name: "entries", Kind: types.SymbolKindState, FilePath: "store/index.js", Line: 12, Offset: 210},
			{Namespace: "cart/", Name: "add", Kind: types.SymbolKindAction, FilePath: "store/dup.js", Line: 1, Offset: 0},
		},
	}
}

// TestStoreIndex runs the StoreIndex conformance checks against an
// initialized, empty index.
func TestStoreIndex(t *testing.T, ix provider.StoreIndex) {
	t.Helper()

	if err := ix.Load(Model()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	t.Run("Lookup", func(t *testing.T) {
		tests := []struct {
			ns, name string
			kind     types.SymbolKind
			want     bool
		}{
			{"", "increment", types.SymbolKindMutation, true},
			{"", "increment", types.SymbolKindAction, false},
			{"cart/", "add", types.SymbolKindAction, true},
			{"cart/", "items", types.SymbolKindState, true},
			{"cart/history/", "entries", types.SymbolKindState, true},
			{"cart/", "entries", types.SymbolKindState, false},
			{"cart/", "missing", types.SymbolKindGetter, false},
		}
		for _, tt := range tests {
			sym, ok := ix.Lookup(tt.ns, tt.name, tt.kind)
			if ok != tt.want {
				t.Errorf("Lookup(%q, %q, %s) = %v, want %v", tt.ns, tt.name, tt.kind, ok, tt.want)
				continue
			}
			if ok && sym.QualifiedName() != tt.ns+tt.name {
				t.Errorf("Lookup returned %s", sym.QualifiedName())
			}
		}

		sym, _ := ix.Lookup("cart/", "add", types.SymbolKindAction)
		if sym == nil || sym.FilePath != "store/cart-actions.js" {
			t.Errorf("duplicate lookup returned %+v, want first declaration", sym)
		}
	})

	t.Run("HasNamespace", func(t *testing.T) {
		tests := []struct {
			ns   string
			kind types.SymbolKind
			want bool
		}{
			{"", types.SymbolKindAction, true},
			{"cart/", types.SymbolKindAction, true},
			{"cart/history/", types.SymbolKindAction, false},
			{"cart/history/", types.SymbolKindState, true},
			{"cart/history/", "", true},
			{"shop/", types.SymbolKindGetter, false},
		}
		for _, tt := range tests {
			if got := ix.HasNamespace(tt.ns, tt.kind); got != tt.want {
				t.Errorf("HasNamespace(%q, %q) = %v, want %v", tt.ns, tt.kind, got, tt.want)
			}
		}
	})

	t.Run("ModuleNamespace", func(t *testing.T) {
		tests := []struct {
			file   string
			offset uint32
			kind   types.SymbolKind
			want   string
			ok     bool
		}{
			{"store/index.js", 50, types.SymbolKindAction, "", true},
			{"store/index.js", 150, types.SymbolKindAction, "cart/", true},
			{"store/index.js", 220, types.SymbolKindMutation, "cart/", true},
			{"store/index.js", 220, types.SymbolKindState, "cart/history/", true},
			{"store/index.js", 220, "", "cart/", true},
			{"store/cart-actions.js", 5, types.SymbolKindAction, "cart/", true},
			{"store/index.js", 600, types.SymbolKindAction, "", false},
			{"other.js", 10, types.SymbolKindState, "", false},
		}
		for _, tt := range tests {
			got, ok := ix.ModuleNamespace(tt.file, tt.offset, tt.kind)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ModuleNamespace(%s, %d, %q) = %q, %v, want %q, %v", tt.file, tt.offset, tt.kind, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("StatePath", func(t *testing.T) {
		tests := []struct {
			ns   string
			want string
			ok   bool
		}{
			{"", "", true},
			{"cart/", "cart/", true},
			{"cart/history/", "", false},
			{"shop/", "", false},
		}
		for _, tt := range tests {
			got, ok := ix.StatePath(tt.ns)
			if got != tt.want || ok != tt.ok {
				t.Errorf("StatePath(%q) = %q, %v, want %q, %v", tt.ns, got, ok, tt.want, tt.ok)
			}
		}
	})

	t.Run("Symbols", func(t *testing.T) {
		all, err := ix.Symbols(types.SymbolFilter{})
		if err != nil {
			t.Fatalf("Symbols failed: %v", err)
		}
		if len(all) != 6 {
			t.Errorf("Symbols() = %d, want 6", len(all))
		}
		if len(all) > 0 && all[0].QualifiedName() != "cart/add" {
			t.Errorf("first symbol = %s, want cart/add", all[0].QualifiedName())
		}

		state, _ := ix.Symbols(types.SymbolFilter{Kind: types.SymbolKindState})
		if len(state) != 2 {
			t.Errorf("state symbols = %d, want 2", len(state))
		}
		prefixed, _ := ix.Symbols(types.SymbolFilter{Namespace: "cart/", Prefix: true})
		if len(prefixed) != 5 {
			t.Errorf("cart/ prefixed symbols = %d, want 5", len(prefixed))
		}
		exact, _ := ix.Symbols(types.SymbolFilter{Namespace: "cart/"})
		if len(exact) != 4 {
			t.Errorf("cart/ symbols = %d, want 4", len(exact))
		}
		query, _ := ix.Symbols(types.SymbolFilter{Query: "TOT"})
		if len(query) != 1 || query[0].Name != "total" {
			t.Errorf("query symbols = %v", query)
		}
		limited, _ := ix.Symbols(types.SymbolFilter{Limit: 2})
		if len(limited) != 2 {
			t.Errorf("limited symbols = %d, want 2", len(limited))
		}
	})

	t.Run("Modules", func(t *testing.T) {
		modules, err := ix.Modules()
		if err != nil {
			t.Fatalf("Modules failed: %v", err)
		}
		if len(modules) != 4 || !modules[3].Detached || modules[2].StatePath != "cart/history/" {
			t.Errorf("Modules() = %+v", modules)
		}
	})

	t.Run("MetadataAndStats", func(t *testing.T) {
		if err := ix.SetFileHashes(map[string]string{"store/index.js": "abc", "store/cart-actions.js": "def"}); err != nil {
			t.Fatalf("SetFileHashes failed: %v", err)
		}
		hashes, err := ix.GetAllFileHashes()
		if err != nil || len(hashes) != 2 || hashes["store/index.js"] != "abc" {
			t.Errorf("GetAllFileHashes() = %v, %v", hashes, err)
		}

		now := time.Now().Truncate(time.Second)
		if err := ix.SetMetadata(&types.IndexMetadata{SchemaVersion: 1, LastUpdated: now, ToolVersion: "test"}); err != nil {
			t.Fatalf("SetMetadata failed: %v", err)
		}
		meta, err := ix.GetMetadata()
		if err != nil || meta == nil || meta.ToolVersion != "test" || !meta.LastUpdated.Equal(now) {
			t.Errorf("GetMetadata() = %+v, %v", meta, err)
		}

		stats, err := ix.GetStats()
		if err != nil {
			t.Fatalf("GetStats failed: %v", err)
		}
		if stats.Modules != 3 || stats.Symbols != 6 || stats.Files != 2 {
			t.Errorf("stats = %+v", stats)
		}
		if stats.ByKind[types.SymbolKindState] != 2 || stats.ByKind[types.SymbolKindAction] != 2 {
			t.Errorf("ByKind = %v", stats.ByKind)
		}
		if !stats.LastIndexed.Equal(now) {
			t.Errorf("LastIndexed = %v, want %v", stats.LastIndexed, now)
		}
	})

	t.Run("Reload", func(t *testing.T) {
		if err := ix.Load(&types.StoreModel{}); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if _, ok := ix.Lookup("", "increment", types.SymbolKindMutation); ok {
			t.Error("Load did not replace the previous model")
		}
		if ix.HasNamespace("cart/", types.SymbolKindAction) {
			t.Error("HasNamespace after reload should be false")
		}
	})
}
