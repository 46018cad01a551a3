// Package syntax wraps Tree-sitter parse trees of JavaScript, TypeScript and
// Vue single-file components behind a small read-only query surface.
package syntax

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	tstype "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/spetr/vuexref/pkg/types"
)

// Languages understood by the parser.
const (
	LangJavaScript = "javascript"
	LangTypeScript = "typescript"
	LangTSX        = "tsx"
	LangVue        = "vue"
)

// Document is one parsed script: a whole JS/TS file, or one <script> block
// of a Vue single-file component.
type Document struct {
	Path       string // File the script belongs to
	Language   string // Grammar used for Source
	Source     []byte // Parsed script text
	BaseOffset uint32 // Byte offset of Source within the file
	BaseLine   int    // 0-based row of Source within the file
	BaseColumn int    // Column, in characters, of the first byte of Source on BaseLine
	SFC        bool   // Source came from a .vue file
	Setup      bool   // <script setup> block

	tree *sitter.Tree
}

// Root returns the root node of the parse tree.
func (d *Document) Root() *sitter.Node {
	return d.tree.RootNode()
}

// Text returns the source text covered by n.
func (d *Document) Text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(d.Source)
}

// FileOffset maps a node start to a byte offset in the original file.
func (d *Document) FileOffset(n *sitter.Node) uint32 {
	return d.BaseOffset + n.StartByte()
}

// Position returns the 1-based line and column of a byte offset inside
// Source, expressed in coordinates of the original file. Columns count
// characters, not bytes.
func (d *Document) Position(offset uint32) (line, column int) {
	if int(offset) > len(d.Source) {
		offset = uint32(len(d.Source))
	}
	prefix := d.Source[:offset]
	row := bytes.Count(prefix, []byte("\n"))
	var col int
	if i := bytes.LastIndexByte(prefix, '\n'); i >= 0 {
		col = utf8.RuneCount(prefix[i+1:])
	} else {
		col = d.BaseColumn + utf8.RuneCount(prefix)
	}
	return d.BaseLine + row + 1, col + 1
}

// Close releases the parse tree.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// Parser parses source files into documents. It is safe for concurrent use:
// every call creates its own Tree-sitter parser.
type Parser struct{}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// DetectLanguage detects the script language from a file extension.
// Returns empty string if the file is not a script.
func DetectLanguage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs", ".jsx":
		return LangJavaScript
	case ".ts", ".mts", ".cts":
		return LangTypeScript
	case ".tsx":
		return LangTSX
	case ".vue":
		return LangVue
	default:
		return ""
	}
}

// SupportsFile reports whether the parser handles the file.
func SupportsFile(path string) bool {
	return DetectLanguage(path) != ""
}

// getLanguage returns the grammar for a script language.
func getLanguage(lang string) (*sitter.Language, bool) {
	switch lang {
	case LangJavaScript, "js", "jsx":
		return javascript.GetLanguage(), true
	case LangTypeScript, "ts":
		return tstype.GetLanguage(), true
	case LangTSX:
		return tsx.GetLanguage(), true
	default:
		return nil, false
	}
}

// Parse parses a source file. Vue files yield one document per <script>
// block; other files yield a single document.
func (p *Parser) Parse(ctx context.Context, file *types.SourceFile) ([]*Document, error) {
	lang := file.Language
	if lang == "" {
		lang = DetectLanguage(file.Path)
	}

	if lang == LangVue {
		return p.parseSFC(ctx, file)
	}

	doc, err := p.ParseSource(ctx, file.Path, lang, file.Content)
	if err != nil {
		return nil, err
	}
	return []*Document{doc}, nil
}

// ParseSource parses a single script.
func (p *Parser) ParseSource(ctx context.Context, path, lang string, src []byte) (*Document, error) {
	language, ok := getLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedLanguage, lang)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(language)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrParseError, path, err)
	}

	return &Document{
		Path:     path,
		Language: lang,
		Source:   src,
		tree:     tree,
	}, nil
}

// parseSFC parses every <script> block of a Vue single-file component.
func (p *Parser) parseSFC(ctx context.Context, file *types.SourceFile) ([]*Document, error) {
	scripts, err := ExtractScripts(ctx, file.Content)
	if err != nil {
		return nil, err
	}

	var docs []*Document
	for _, script := range scripts {
		doc, err := p.ParseSource(ctx, file.Path, script.Language, script.Content)
		if err != nil {
			closeAll(docs)
			return nil, err
		}
		doc.BaseOffset = script.StartByte
		doc.BaseLine = script.StartRow
		doc.BaseColumn = script.StartColumn
		doc.SFC = true
		doc.Setup = script.Setup
		docs = append(docs, doc)
	}
	return docs, nil
}

func closeAll(docs []*Document) {
	for _, d := range docs {
		d.Close()
	}
}
