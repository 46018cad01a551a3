package syntax

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/html"

	"github.com/spetr/vuexref/pkg/types"
)

// Script is a <script> block extracted from a single-file component.
type Script struct {
	Content     []byte
	Language    string // javascript, typescript or tsx
	Setup       bool   // <script setup>
	StartByte   uint32
	StartRow    int // 0-based
	StartColumn int // 0-based, in characters
}

// ExtractScripts extracts the <script> blocks of a Vue single-file component.
func ExtractScripts(ctx context.Context, content []byte) ([]Script, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(html.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse component: %v", types.ErrParseError, err)
	}
	defer tree.Close()

	var scripts []Script

	var walk func(node *sitter.Node)
	walk = func(node *sitter.Node) {
		if node.Type() == "script_element" {
			if script, ok := extractScriptElement(node, content); ok {
				scripts = append(scripts, script)
			}
			return
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			walk(node.Child(i))
		}
	}

	walk(tree.RootNode())
	return scripts, nil
}

// extractScriptElement extracts content from a script_element node.
func extractScriptElement(node *sitter.Node, content []byte) (Script, bool) {
	var rawText *sitter.Node
	script := Script{Language: LangJavaScript}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "raw_text":
			rawText = child
		case "start_tag":
			for j := 0; j < int(child.ChildCount()); j++ {
				attr := child.Child(j)
				if attr.Type() != "attribute" {
					continue
				}
				name, value := attribute(attr, content)
				switch strings.ToLower(name) {
				case "lang":
					switch strings.ToLower(value) {
					case "ts", "typescript":
						script.Language = LangTypeScript
					case "tsx":
						script.Language = LangTSX
					}
				case "setup":
					script.Setup = true
				}
			}
		}
	}

	if rawText == nil || strings.TrimSpace(rawText.Content(content)) == "" {
		return Script{}, false
	}

	script.Content = []byte(rawText.Content(content))
	script.StartByte = rawText.StartByte()
	script.StartRow = int(rawText.StartPoint().Row)
	lineStart := bytes.LastIndexByte(content[:script.StartByte], '\n') + 1
	script.StartColumn = utf8.RuneCount(content[lineStart:script.StartByte])
	return script, true
}

// attribute returns the name and unquoted value of an attribute node.
func attribute(attr *sitter.Node, content []byte) (string, string) {
	var name, value string
	for i := 0; i < int(attr.ChildCount()); i++ {
		child := attr.Child(i)
		switch child.Type() {
		case "attribute_name":
			name = child.Content(content)
		case "attribute_value":
			value = child.Content(content)
		case "quoted_attribute_value":
			value = strings.Trim(child.Content(content), `"'`)
		}
	}
	return name, value
}
