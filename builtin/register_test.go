package builtin

import (
	"testing"

	"github.com/spetr/vuexref/pkg/provider"
)

func TestBuiltinStoreIndexes(t *testing.T) {
	for _, name := range []string{"memory", "sqlite", "plugin"} {
		if !provider.DefaultRegistry.HasStoreIndex(name) {
			t.Errorf("store index %q is not registered", name)
		}
	}

	ix, err := provider.DefaultRegistry.CreateStoreIndex("memory", provider.StoreIndexConfig{Provider: "memory"})
	if err != nil {
		t.Fatalf("CreateStoreIndex(memory) failed: %v", err)
	}
	if ix.Name() != "memory" {
		t.Errorf("Name() = %q, want memory", ix.Name())
	}

	if _, err := provider.DefaultRegistry.CreateStoreIndex("plugin", provider.StoreIndexConfig{Provider: "plugin"}); err == nil {
		t.Error("plugin store index without a plugin name should fail")
	}
}
