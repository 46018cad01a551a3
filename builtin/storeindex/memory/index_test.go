package memory

import (
	"testing"

	"github.com/spetr/vuexref/pkg/provider/providertest"
	"github.com/spetr/vuexref/pkg/types"
)

func TestIndex(t *testing.T) {
	ix := New()
	if err := ix.Init(""); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer ix.Close()

	providertest.TestStoreIndex(t, ix)
}

func TestLoadCopiesModel(t *testing.T) {
	ix := New()
	model := providertest.Model()
	if err := ix.Load(model); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	model.Symbols = model.Symbols[:0]
	model.Modules = nil

	if _, ok := ix.Lookup("cart/", "total", types.SymbolKindGetter); !ok {
		t.Error("index changed when the caller reused the model slices")
	}
}
