package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/spetr/vuexref/builtin/storeindex/memory"
	"github.com/spetr/vuexref/internal/config"
	"github.com/spetr/vuexref/pkg/provider/providertest"
	"github.com/spetr/vuexref/pkg/types"
)

func request(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: args}}
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text
}

func newServer(t *testing.T, root string) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Index.UseGitIgnore = false
	s, err := New(Config{ProjectDir: root, Config: cfg, Store: memory.New()})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestIndexAndCheck(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"store.js": "import Vuex from 'vuex'\nexport default new Vuex.Store({\n  actions: { save() {} },\n})\n",
		"App.vue":  "<script>\nexport default {\n  created() { this.$store.dispatch('sav') },\n}\n</script>\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	s := newServer(t, root)
	ctx := context.Background()

	res, err := s.handleIndexStore(ctx, request(map[string]any{"force": true}))
	if err != nil || res.IsError {
		t.Fatalf("index_store failed: %v %s", err, resultText(t, res))
	}
	var indexed map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &indexed); err != nil {
		t.Fatal(err)
	}
	if indexed["symbols"] != float64(1) {
		t.Errorf("index_store = %v", indexed)
	}

	s.config.Analysis.ReportSoft = true
	res, _ = s.handleCheckFile(ctx, request(map[string]any{"path": "App.vue"}))
	var checked struct {
		Warnings    int                `json:"warnings"`
		Diagnostics []types.Diagnostic `json:"diagnostics"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &checked); err != nil {
		t.Fatal(err)
	}
	if checked.Warnings != 1 || len(checked.Diagnostics) != 1 || checked.Diagnostics[0].Text != "sav" {
		t.Errorf("check_file = %+v", checked)
	}

	res, _ = s.handleFindReferences(ctx, request(map[string]any{"path": "App.vue", "line": 3}))
	var refs []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &refs); err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0]["resolved"] != false || refs[0]["kind"] != "action" {
		t.Errorf("find_references = %v", refs)
	}

	res, _ = s.handleFindReferences(ctx, request(map[string]any{}))
	if !res.IsError {
		t.Error("find_references without path should fail")
	}
}

func TestResolvePath(t *testing.T) {
	ix := memory.New()
	if err := ix.Load(providertest.Model()); err != nil {
		t.Fatal(err)
	}

	got := ResolvePath(ix, "", "cart/total", types.SymbolKindGetter)
	if len(got) != 2 || !got[0].Resolved || !got[0].Module || !got[1].Resolved {
		t.Errorf("ResolvePath(cart/total) = %+v", got)
	}
	if got[1].Qualified != "cart/total" || got[1].DeclaredIn != "store/index.js:8" {
		t.Errorf("final segment = %+v", got[1])
	}

	got = ResolvePath(ix, "cart/", "history/entries", types.SymbolKindState)
	if len(got) != 2 || !got[0].Resolved || !got[1].Resolved {
		t.Errorf("ResolvePath(history/entries) = %+v", got)
	}

	got = ResolvePath(ix, "", "shop/add", types.SymbolKindAction)
	if got[0].Resolved || got[1].Resolved {
		t.Errorf("ResolvePath(shop/add) = %+v", got)
	}
}

func TestListStoreSymbols(t *testing.T) {
	s := newServer(t, t.TempDir())
	if err := s.store.Load(providertest.Model()); err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	res, _ := s.handleListStoreSymbols(ctx, request(map[string]any{"namespace": "cart", "kind": "actions"}))
	var symbols []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &symbols); err != nil {
		t.Fatal(err)
	}
	if len(symbols) != 2 || symbols[0]["qualified"] != "cart/add" {
		t.Errorf("list_store_symbols = %v", symbols)
	}

	res, _ = s.handleListStoreSymbols(ctx, request(map[string]any{"kind": "widget"}))
	if !res.IsError {
		t.Error("unknown kind should fail")
	}

	res, _ = s.handleResolveReference(ctx, request(map[string]any{"reference": "increment", "kind": "mutation"}))
	var segs []SegmentResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &segs); err != nil {
		t.Fatal(err)
	}
	if len(segs) != 1 || !segs[0].Resolved {
		t.Errorf("resolve_reference = %+v", segs)
	}

	res, _ = s.handleGetStatus(ctx, request(nil))
	var status map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &status); err != nil {
		t.Fatal(err)
	}
	if status["modules"] != float64(3) || status["index_store"] != "memory" {
		t.Errorf("get_status = %v", status)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{2048, "2.00 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
