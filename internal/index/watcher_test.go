package index

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spetr/vuexref/pkg/types"
)

func TestWatcherDebounce(t *testing.T) {
	root := writeProject(t)
	idx, _ := newIndexer(t, root)

	w, err := NewWatcher(WatcherConfig{Indexer: idx, DebounceTime: time.Second})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "src/store/cart.js"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "src/components/Cart.vue"), Op: fsnotify.Create})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "README.md"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "node_modules/vuex/index.js"), Op: fsnotify.Write})
	w.handleEvent(fsnotify.Event{Name: filepath.Join(root, "src/store/index.js"), Op: fsnotify.Chmod})

	now := time.Now()
	if got := w.takeStable(now); len(got) != 0 {
		t.Errorf("takeStable before debounce = %v, want none", got)
	}

	got := w.takeStable(now.Add(2 * time.Second))
	want := []string{"src/components/Cart.vue", "src/store/cart.js"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("takeStable() = %v, want %v", got, want)
	}
	if again := w.takeStable(now.Add(3 * time.Second)); len(again) != 0 {
		t.Errorf("takeStable() returned files twice: %v", again)
	}
}

func TestWatcherRefresh(t *testing.T) {
	root := writeProject(t)
	idx, _ := newIndexer(t, root)
	ctx := context.Background()

	if _, err := idx.Index(ctx, false); err != nil {
		t.Fatalf("Index failed: %v", err)
	}

	var gotFiles []string
	var gotDiags []types.Diagnostic
	w, err := NewWatcher(WatcherConfig{
		Indexer: idx,
		OnDiagnostics: func(files []string, diags []types.Diagnostic) {
			gotFiles = files
			gotDiags = diags
		},
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Close()

	// Declare the getter the component asks for.
	cart := filepath.Join(root, "src/store/cart.js")
	src, err := os.ReadFile(cart)
	if err != nil {
		t.Fatal(err)
	}
	updated := strings.Replace(string(src), "total: state => state.items.length,",
		"total: state => state.items.length,\n    count: state => state.items.length,", 1)
	if err := os.WriteFile(cart, []byte(updated), 0644); err != nil {
		t.Fatal(err)
	}

	w.refresh(ctx, []string{"src/components/Cart.vue", "src/deleted.js"})

	if len(gotFiles) != 1 || gotFiles[0] != "src/components/Cart.vue" {
		t.Errorf("re-checked files = %v", gotFiles)
	}
	if len(gotDiags) != 0 {
		t.Errorf("diagnostics after fix = %+v, want none", gotDiags)
	}
	if _, ok := idx.Store().Lookup("cart/", "count", types.SymbolKindGetter); !ok {
		t.Error("refresh did not re-index the store")
	}
}
