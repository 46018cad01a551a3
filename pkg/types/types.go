// Package types contains shared data types used across the vuexref project.
package types

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"strings"
	"time"
)

// SourceFile represents a source code file to be analyzed.
type SourceFile struct {
	Path     string // Absolute path to the file
	Content  []byte // File content
	Language string // Detected language (javascript, typescript, tsx, vue)
	Hash     string // SHA256 hash for change detection
}

// ComputeHash calculates SHA256 hash of the file content.
func (f *SourceFile) ComputeHash() string {
	h := sha256.Sum256(f.Content)
	return hex.EncodeToString(h[:])
}

// SymbolKind is the category of store symbol a string reference can name.
// The zero value means the accessor could not be determined.
type SymbolKind string

const (
	SymbolKindAction   SymbolKind = "action"
	SymbolKindMutation SymbolKind = "mutation"
	SymbolKindGetter   SymbolKind = "getter"
	SymbolKindState    SymbolKind = "state"
)

// AllSymbolKinds lists the determined kinds in declaration order.
var AllSymbolKinds = []SymbolKind{
	SymbolKindAction,
	SymbolKindMutation,
	SymbolKindGetter,
	SymbolKindState,
}

// Valid reports whether k is one of the four store symbol kinds.
func (k SymbolKind) Valid() bool {
	switch k {
	case SymbolKindAction, SymbolKindMutation, SymbolKindGetter, SymbolKindState:
		return true
	}
	return false
}

// ParseSymbolKind converts user input ("action", "actions", "Getter") to a kind.
func ParseSymbolKind(s string) (SymbolKind, bool) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s")
	k := SymbolKind(s)
	return k, k.Valid()
}

// StoreSymbol is a declared action, mutation, getter or state field.
type StoreSymbol struct {
	Namespace string     // Module namespace with trailing slash, "" for root
	Name      string     // Symbol name within the namespace
	Kind      SymbolKind // Symbol category
	FilePath  string     // File where the symbol is declared
	Line      int        // 1-based line of the declaration
	Offset    uint32     // Byte offset of the declaration in the file
}

// QualifiedName returns namespace + name, e.g. "cart/addItem".
func (s *StoreSymbol) QualifiedName() string {
	return s.Namespace + s.Name
}

// StoreModule is a module registered in the store hierarchy.
type StoreModule struct {
	Namespace  string // Namespace for actions/mutations/getters ("" = root)
	StatePath  string // Path of the module's state (always nested by key)
	Namespaced bool   // Whether the module declares namespaced: true
	FilePath   string // File containing the module definition object
	StartByte  uint32 // Start of the module definition in the file
	EndByte    uint32 // End of the module definition in the file
	Detached   bool   // Range covers an option object defined outside the module
}

// Contains reports whether a byte offset of filePath lies within the module.
func (m *StoreModule) Contains(filePath string, offset uint32) bool {
	return m.FilePath == filePath && offset >= m.StartByte && offset < m.EndByte
}

// NamespaceFor returns the path symbols of kind are registered under:
// the state path for state, the namespace otherwise.
func (m *StoreModule) NamespaceFor(kind SymbolKind) string {
	if kind == SymbolKindState {
		return m.StatePath
	}
	return m.Namespace
}

// StoreModel is the result of extracting a store from a project.
type StoreModel struct {
	Modules []*StoreModule
	Symbols []*StoreSymbol
}

// JoinNamespace joins namespace segments, normalising to a trailing slash.
func JoinNamespace(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.Trim(p, "/")
		if p == "" {
			continue
		}
		b.WriteString(p)
		b.WriteByte('/')
	}
	return b.String()
}

// NormalizeNamespace turns "cart", "cart/" or "/cart" into "cart/".
func NormalizeNamespace(ns string) string {
	return JoinNamespace(ns)
}

// SplitQualified splits "a/b/name" into ("a/b/", "name").
func SplitQualified(qualified string) (namespace, name string) {
	dir, base := path.Split(qualified)
	return dir, base
}

// SymbolFilter narrows symbol listings.
type SymbolFilter struct {
	Namespace string     // Exact namespace, ignored when empty and Prefix is false
	Prefix    bool       // Treat Namespace as a prefix
	Kind      SymbolKind // Filter by kind, empty for all
	Query     string     // Substring match on the qualified name
	Limit     int        // Maximum results, 0 for unlimited
}

// Match reports whether sym passes the filter.
func (f SymbolFilter) Match(sym *StoreSymbol) bool {
	if f.Kind != "" && sym.Kind != f.Kind {
		return false
	}
	if f.Prefix {
		if !strings.HasPrefix(sym.Namespace, f.Namespace) {
			return false
		}
	} else if f.Namespace != "" && sym.Namespace != f.Namespace {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(sym.QualifiedName()), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic reports a string reference that does not resolve.
type Diagnostic struct {
	File      string     `json:"file" yaml:"file"`
	Line      int        `json:"line" yaml:"line"`
	Column    int        `json:"column" yaml:"column"`
	EndColumn int        `json:"end_column" yaml:"end_column"`
	Severity  Severity   `json:"severity" yaml:"severity"`
	Kind      SymbolKind `json:"kind" yaml:"kind"`
	Text      string     `json:"text" yaml:"text"`
	Namespace string     `json:"namespace" yaml:"namespace"`
	Message   string     `json:"message" yaml:"message"`
}

// IndexStats summarises an index.
type IndexStats struct {
	Modules     int
	Symbols     int
	ByKind      map[SymbolKind]int
	Files       int
	LastIndexed time.Time
	DBSizeBytes int64
}

// IndexMetadata contains metadata about the index.
type IndexMetadata struct {
	SchemaVersion int       // For detecting incompatible changes
	CreatedAt     time.Time // When index was created
	LastUpdated   time.Time // Last update time
	ToolVersion   string    // Version of vuexref
	ConfigHash    string    // Hash of configuration
}

// IndexProgress represents the current state of indexing.
type IndexProgress struct {
	Phase          string // "scanning", "parsing", "extracting", "loading", "checking"
	TotalFiles     int
	ProcessedFiles int
	CurrentFile    string
	Error          error // Non-fatal error (e.g., cannot parse file)
}
