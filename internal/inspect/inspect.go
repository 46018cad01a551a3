// Package inspect turns the string references of parsed documents into
// resolved references and diagnostics.
package inspect

import (
	"fmt"
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/spetr/vuexref/internal/resolve"
	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// Options configures an Inspector.
type Options struct {
	// ReportSoft includes warnings for unresolved soft references.
	ReportSoft bool
}

// Inspector resolves references against a symbol index.
type Inspector struct {
	index   resolve.SymbolIndex
	checker resolve.ContextChecker
	opts    Options
}

// New creates an inspector.
func New(index resolve.SymbolIndex, checker resolve.ContextChecker, opts Options) *Inspector {
	return &Inspector{index: index, checker: checker, opts: opts}
}

// Reference is a segment reference together with its resolution.
type Reference struct {
	File       string
	Line       int
	Column     int
	EndColumn  int
	Start      uint32 // Byte range in the file
	End        uint32
	Text       string // Segment text
	Literal    string // Whole literal value
	FullPath   string
	Kind       types.SymbolKind
	Soft       bool
	IsLast     bool
	Namespace  string // Namespace prefix in effect at the literal
	Resolution resolve.Resolution

	literalStart uint32
}

// Qualified returns the path the reference was checked against.
func (r *Reference) Qualified() string {
	return r.Resolution.Qualified()
}

// Collect returns every segment reference of doc, in document order.
func (i *Inspector) Collect(doc *syntax.Document) []Reference {
	var refs []Reference
	syntax.Walk(doc.Root(), func(n *sitter.Node) bool {
		if !syntax.IsStringLiteral(n) {
			return true
		}
		for _, seg := range resolve.References(doc, n, i.checker) {
			refs = append(refs, i.reference(doc, seg))
		}
		return false
	})
	return refs
}

func (i *Inspector) reference(doc *syntax.Document, seg resolve.SegmentReference) Reference {
	start, end := seg.FileRange()
	line, col := doc.Position(seg.Literal.StartByte() + uint32(seg.Start))
	_, endCol := doc.Position(seg.Literal.StartByte() + uint32(seg.End))

	value, _ := syntax.LiteralString(doc, seg.Literal)
	ref := Reference{
		File:      doc.Path,
		Line:      line,
		Column:    col,
		EndColumn: endCol,
		Start:     start,
		End:       end,
		Text:      seg.Text(),
		Literal:   value,
		FullPath:  seg.FullPath,
		Kind:      seg.Kind,
		Soft:      seg.Soft,
		IsLast:    seg.IsLast,

		literalStart: doc.FileOffset(seg.Literal),
	}
	if i.index != nil {
		ref.Namespace = seg.Namespace.ResolveFor(doc, seg.Literal, i.index, seg.Kind)
		ref.Resolution = seg.Resolve(i.index)
	}
	return ref
}

// Diagnostics reports the first unresolved segment of every literal in doc.
// References of undetermined kind are never reported; soft references only
// when ReportSoft is set.
func (i *Inspector) Diagnostics(doc *syntax.Document) []types.Diagnostic {
	var diags []types.Diagnostic
	reported := make(map[uint32]bool)
	for _, ref := range i.Collect(doc) {
		if reported[ref.literalStart] || ref.Resolution.Resolved || !ref.Kind.Valid() {
			continue
		}
		if ref.Soft && !i.opts.ReportSoft {
			continue
		}
		reported[ref.literalStart] = true
		diags = append(diags, diagnostic(ref))
	}
	return diags
}

// Documents inspects several documents and returns their diagnostics sorted
// by file and position.
func (i *Inspector) Documents(docs []*syntax.Document) []types.Diagnostic {
	var diags []types.Diagnostic
	for _, doc := range docs {
		diags = append(diags, i.Diagnostics(doc)...)
	}
	SortDiagnostics(diags)
	return diags
}

func diagnostic(ref Reference) types.Diagnostic {
	severity := types.SeverityError
	if ref.Soft {
		severity = types.SeverityWarning
	}

	var msg string
	if ref.Resolution.Module {
		msg = fmt.Sprintf("unknown store module %q in %s %q", ref.Resolution.Namespace, ref.Kind, ref.Literal)
	} else {
		msg = fmt.Sprintf("unknown %s %q", ref.Kind, ref.Qualified())
	}

	return types.Diagnostic{
		File:      ref.File,
		Line:      ref.Line,
		Column:    ref.Column,
		EndColumn: ref.EndColumn,
		Severity:  severity,
		Kind:      ref.Kind,
		Text:      ref.Text,
		Namespace: ref.Namespace,
		Message:   msg,
	}
}

// SortDiagnostics orders diagnostics by file, line and column.
func SortDiagnostics(diags []types.Diagnostic) {
	sort.SliceStable(diags, func(a, b int) bool {
		if diags[a].File != diags[b].File {
			return diags[a].File < diags[b].File
		}
		if diags[a].Line != diags[b].Line {
			return diags[a].Line < diags[b].Line
		}
		return diags[a].Column < diags[b].Column
	})
}

// Count tallies diagnostics by severity.
func Count(diags []types.Diagnostic) (errors, warnings int) {
	for _, d := range diags {
		if d.Severity == types.SeverityError {
			errors++
		} else {
			warnings++
		}
	}
	return errors, warnings
}

// Fails reports whether diags trip the fail_on threshold ("error",
// "warning" or "never").
func Fails(diags []types.Diagnostic, failOn string) bool {
	errs, warns := Count(diags)
	switch failOn {
	case "never":
		return false
	case "warning":
		return errs+warns > 0
	default:
		return errs > 0
	}
}
