package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/pkg/types"
)

func parseJS(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := NewParser().ParseSource(context.Background(), "test.js", LangJavaScript, []byte(src))
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	t.Cleanup(doc.Close)
	return doc
}

func findString(t *testing.T, doc *Document, text string) *sitter.Node {
	t.Helper()
	var found *sitter.Node
	Walk(doc.Root(), func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if IsStringLiteral(n) && doc.Text(n) == text {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		t.Fatalf("string %s not found", text)
	}
	return found
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"store/index.js", LangJavaScript},
		{"store/cart.mjs", LangJavaScript},
		{"store/cart.ts", LangTypeScript},
		{"components/Cart.tsx", LangTSX},
		{"components/Cart.vue", LangVue},
		{"components/Cart.VUE", LangVue},
		{"README.md", ""},
		{"Makefile", ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := DetectLanguage(tt.path); got != tt.want {
				t.Errorf("DetectLanguage(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestParseSourceUnsupported(t *testing.T) {
	_, err := NewParser().ParseSource(context.Background(), "x.py", "python", []byte("x = 1"))
	if err == nil {
		t.Fatal("expected error for unsupported language")
	}
}

func TestLiteralString(t *testing.T) {
	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{`'cart/add'`, "cart/add", true},
		{`"increment"`, "increment", true},
		{"`plain`", "plain", true},
		{"`cart/${name}`", "", false},
		{`'a\nb'`, "", false},
		{`''`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			doc := parseJS(t, "f("+tt.text+")")
			got, ok := LiteralString(doc, findString(t, doc, tt.text))
			if ok != tt.ok || got != tt.want {
				t.Errorf("LiteralString(%s) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestFindParameter(t *testing.T) {
	doc := parseJS(t, `
const actions = {
  add({ commit, state: s }, payload = 1) {
    return () => commit(payload, s)
  },
}
`)
	tests := []struct {
		name         string
		index        int
		destructured bool
		shorthand    bool
		property     string
	}{
		{"commit", 0, true, true, "commit"},
		{"s", 0, true, false, "state"},
		{"payload", 1, false, false, ""},
	}

	var call *sitter.Node
	Walk(doc.Root(), func(n *sitter.Node) bool {
		if n.Type() == "call_expression" {
			call = n
			return false
		}
		return true
	})
	if call == nil {
		t.Fatal("call not found")
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := FindParameter(doc, call, tt.name)
			if !ok {
				t.Fatalf("FindParameter(%q) not found", tt.name)
			}
			if p.Index != tt.index || p.Destructured != tt.destructured || p.Shorthand != tt.shorthand || p.Property != tt.property {
				t.Errorf("FindParameter(%q) = %+v", tt.name, p)
			}
			if p.Function.Type() != "method_definition" {
				t.Errorf("Function type = %q, want method_definition", p.Function.Type())
			}
		})
	}

	if _, ok := FindParameter(doc, call, "missing"); ok {
		t.Error("FindParameter(missing) should fail")
	}
}

func TestFindParameterTypeScript(t *testing.T) {
	doc, err := NewParser().ParseSource(context.Background(), "test.ts", LangTypeScript,
		[]byte("function run(ctx: ActionContext<State, Root>) { ctx.commit('x') }"))
	if err != nil {
		t.Fatalf("ParseSource failed: %v", err)
	}
	defer doc.Close()

	call := findString(t, doc, "'x'")
	p, ok := FindParameter(doc, call, "ctx")
	if !ok {
		t.Fatal("parameter not found")
	}
	if p.TypeName != "ActionContext<State, Root>" {
		t.Errorf("TypeName = %q", p.TypeName)
	}
}

func TestFindDeclaration(t *testing.T) {
	doc := parseJS(t, `
import { namespace } from 'vuex-class'
export const cart = namespace('cart')
function f() {
  const { mapState } = helpers
  return mapState
}
`)
	decl, ok := FindDeclaration(doc, findString(t, doc, "'cart'"), "cart")
	if !ok {
		t.Fatal("cart declaration not found")
	}
	if decl.Value == nil || decl.Value.Type() != "call_expression" {
		t.Errorf("cart value = %v", decl.Value)
	}

	var ret *sitter.Node
	Walk(doc.Root(), func(n *sitter.Node) bool {
		if n.Type() == "return_statement" {
			ret = n
			return false
		}
		return true
	})
	decl, ok = FindDeclaration(doc, ret, "mapState")
	if !ok || !decl.Destructured || decl.Property != "mapState" {
		t.Errorf("mapState declaration = %+v, %v", decl, ok)
	}
}

func TestObjectMembers(t *testing.T) {
	doc := parseJS(t, `x = { a: 1, 'b': 2, c, d() {}, [e]: 3 }`)
	var object *sitter.Node
	Walk(doc.Root(), func(n *sitter.Node) bool {
		if n.Type() == "object" {
			object = n
			return false
		}
		return true
	})

	var names []string
	for _, m := range ObjectMembers(doc, object) {
		names = append(names, m.Name)
	}
	want := []string{"a", "b", "c", "d"}
	if len(names) != len(want) {
		t.Fatalf("members = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("member %d = %q, want %q", i, names[i], want[i])
		}
	}

	if v := ObjectProperty(doc, object, "b"); v == nil || doc.Text(v) != "2" {
		t.Errorf("ObjectProperty(b) = %v", v)
	}
}

const component = `<template>
  <div>{{ total }}</div>
</template>

<script lang="ts">
import { mapGetters } from 'vuex'
export default { computed: mapGetters('cart', ['total']) }
</script>

<script setup>
const x = 1
</script>
`

func TestExtractScripts(t *testing.T) {
	scripts, err := ExtractScripts(context.Background(), []byte(component))
	if err != nil {
		t.Fatalf("ExtractScripts failed: %v", err)
	}
	if len(scripts) != 2 {
		t.Fatalf("scripts = %d, want 2", len(scripts))
	}
	if scripts[0].Language != LangTypeScript || scripts[0].Setup {
		t.Errorf("first script = %+v", scripts[0])
	}
	if scripts[1].Language != LangJavaScript || !scripts[1].Setup {
		t.Errorf("second script = %+v", scripts[1])
	}
	start := int(scripts[0].StartByte)
	if got := component[start : start+len(scripts[0].Content)]; got != string(scripts[0].Content) {
		t.Errorf("StartByte does not locate content: %q", got)
	}
}

func TestParseComponentPositions(t *testing.T) {
	docs, err := NewParser().Parse(context.Background(), &types.SourceFile{
		Path:    "Cart.vue",
		Content: []byte(component),
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer closeAll(docs)

	if len(docs) != 2 || !docs[0].SFC {
		t.Fatalf("docs = %d", len(docs))
	}
	doc := docs[0]
	lit := findString(t, doc, "'total'")
	line, col := doc.Position(lit.StartByte())
	// Line 7 of the component: "export default { computed: mapGetters('cart', ['total']) }"
	if line != 7 || col != 48 {
		t.Errorf("Position = %d:%d, want 7:48", line, col)
	}
	if off := int(doc.FileOffset(lit)); component[off:off+7] != "'total'" {
		t.Errorf("FileOffset = %d points at %q", off, component[off:off+7])
	}
}

func TestPositionCountsCharacters(t *testing.T) {
	doc := parseJS(t, "const s = 'čšž'; commit('add')\ncommit('ř', 'x')\n")

	tests := []struct {
		literal string
		line    int
		col     int
	}{
		{"'add'", 1, 25},
		{"'x'", 2, 13},
	}
	for _, tt := range tests {
		lit := findString(t, doc, tt.literal)
		line, col := doc.Position(lit.StartByte())
		if line != tt.line || col != tt.col {
			t.Errorf("Position(%s) = %d:%d, want %d:%d", tt.literal, line, col, tt.line, tt.col)
		}
	}

	lit := findString(t, doc, "'čšž'")
	_, start := doc.Position(lit.StartByte())
	_, end := doc.Position(lit.EndByte())
	if end-start != 5 {
		t.Errorf("literal spans %d columns, want 5", end-start)
	}
}

func TestParseComponentColumnsAfterMultibyteTag(t *testing.T) {
	src := "<!-- ünïcödé --><script>export default { computed: mapGetters(['total']) }</script>\n"
	docs, err := NewParser().Parse(context.Background(), &types.SourceFile{
		Path:    "Inline.vue",
		Content: []byte(src),
	})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer closeAll(docs)

	if len(docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(docs))
	}
	lit := findString(t, docs[0], "'total'")
	line, col := docs[0].Position(lit.StartByte())
	if line != 1 || col != 64 {
		t.Errorf("Position = %d:%d, want 1:64", line, col)
	}
}
