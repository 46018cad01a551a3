package resolve

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// Segment is one slash-delimited part of a literal's text.
type Segment struct {
	Start    int    // Offset in the literal content (quotes excluded)
	End      int    // Exclusive end
	FullPath string // Text from the start through this segment
	IsLast   bool
}

// Split decomposes text on '/' into one segment per slash plus a final
// segment for the remainder.
func Split(text string) []Segment {
	segments := make([]Segment, 0, strings.Count(text, "/")+1)
	last := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '/' {
			continue
		}
		segments = append(segments, Segment{Start: last, End: i, FullPath: text[:i]})
		last = i + 1
	}
	return append(segments, Segment{Start: last, End: len(text), FullPath: text, IsLast: true})
}

// SegmentReference is a resolvable sub-range of a string literal.
type SegmentReference struct {
	Doc       *syntax.Document
	Literal   *sitter.Node
	Start     int // Offset in the literal node text; the opening quote is at 0
	End       int
	Kind      types.SymbolKind
	FullPath  string
	IsLast    bool
	Namespace Namespace
	Soft      bool
}

// Text returns the segment text.
func (r SegmentReference) Text() string {
	text := r.Doc.Text(r.Literal)
	if r.End > len(text) || r.Start > r.End {
		return ""
	}
	return text[r.Start:r.End]
}

// FileRange returns the segment as a byte range of the original file.
func (r SegmentReference) FileRange() (start, end uint32) {
	base := r.Doc.FileOffset(r.Literal)
	return base + uint32(r.Start), base + uint32(r.End)
}

// Severity is the severity an unresolved reference is reported with.
func (r SegmentReference) Severity() types.Severity {
	if r.Soft {
		return types.SeverityWarning
	}
	return types.SeverityError
}

// References returns the segment references of a string literal, in text
// order. Non-literals, unclassified literals and literals outside a store
// context produce none.
func References(doc *syntax.Document, lit *sitter.Node, checker ContextChecker) []SegmentReference {
	text, ok := syntax.LiteralString(doc, lit)
	if !ok || checker == nil {
		return nil
	}
	settings, ok := Classify(doc, lit, checker)
	if !ok {
		return nil
	}
	if !checker.IsFrameworkComponentContext(doc, lit) {
		return nil
	}
	return buildReferences(doc, lit, text, settings)
}

func buildReferences(doc *syntax.Document, lit *sitter.Node, text string, settings Settings) []SegmentReference {
	segments := Split(text)
	refs := make([]SegmentReference, 0, len(segments))
	for _, seg := range segments {
		refs = append(refs, SegmentReference{
			Doc:       doc,
			Literal:   lit,
			Start:     seg.Start + 1,
			End:       seg.End + 1,
			Kind:      settings.Kind,
			FullPath:  seg.FullPath,
			IsLast:    seg.IsLast,
			Namespace: settings.Namespace,
			Soft:      settings.Soft,
		})
	}
	return refs
}
