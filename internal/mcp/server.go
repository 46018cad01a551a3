// Package mcp implements the MCP server exposing store reference checks.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetr/vuexref/internal/config"
	"github.com/spetr/vuexref/internal/index"
	"github.com/spetr/vuexref/internal/inspect"
	"github.com/spetr/vuexref/internal/resolve"
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// Server implements the MCP server.
type Server struct {
	mcpServer  *server.MCPServer
	projectDir string
	config     *config.Config
	store      provider.StoreIndex
	indexer    *index.Indexer
}

// Config contains server configuration.
type Config struct {
	ProjectDir string
	Config     *config.Config
	Store      provider.StoreIndex
	Version    string
}

// New creates a new MCP server.
func New(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("%w: store index is required", types.ErrInvalidConfig)
	}

	s := &Server{
		projectDir: cfg.ProjectDir,
		config:     cfg.Config,
		store:      cfg.Store,
	}

	s.indexer = index.New(index.Config{
		ProjectDir: cfg.ProjectDir,
		Config:     cfg.Config,
		Store:      cfg.Store,
		OnProgress: func(p types.IndexProgress) {
			slog.Debug("progress", "phase", p.Phase, "files", p.ProcessedFiles, "total", p.TotalFiles)
		},
	})

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	mcpServer := server.NewMCPServer(
		cfg.Config.MCP.Name,
		version,
		server.WithLogging(),
	)

	s.registerTools(mcpServer)

	s.mcpServer = mcpServer
	return s, nil
}

// registerTools registers all MCP tools.
func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.NewTool("index_store",
		mcp.WithDescription("Extract the Vuex store model (modules, state, getters, mutations, actions) of the project"),
		mcp.WithBoolean("force", mcp.Description("Re-index even if no file changed")),
	), s.handleIndexStore)

	mcpServer.AddTool(mcp.NewTool("check_file",
		mcp.WithDescription("Report store references (dispatch, commit, map helpers, getters) that do not resolve"),
		mcp.WithString("path", mcp.Description("File to check, relative to the project; empty checks the whole project")),
	), s.handleCheckFile)

	mcpServer.AddTool(mcp.NewTool("find_references",
		mcp.WithDescription("List the store references in a file with their resolution"),
		mcp.WithString("path", mcp.Required(), mcp.Description("File relative to the project")),
		mcp.WithNumber("line", mcp.Description("Only references on this 1-based line")),
	), s.handleFindReferences)

	mcpServer.AddTool(mcp.NewTool("resolve_reference",
		mcp.WithDescription("Resolve a store path such as cart/checkout segment by segment"),
		mcp.WithString("reference", mcp.Required(), mcp.Description("Slash-delimited store path")),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Symbol kind: action, mutation, getter, state")),
		mcp.WithString("namespace", mcp.Description("Namespace prefix in effect, e.g. cart/")),
	), s.handleResolveReference)

	mcpServer.AddTool(mcp.NewTool("list_store_symbols",
		mcp.WithDescription("List declared store symbols"),
		mcp.WithString("namespace", mcp.Description("Namespace to list, e.g. cart/")),
		mcp.WithBoolean("recursive", mcp.Description("Include nested namespaces")),
		mcp.WithString("kind", mcp.Description("Symbol kind: action, mutation, getter, state")),
		mcp.WithString("query", mcp.Description("Substring of the qualified name")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 100)")),
	), s.handleListStoreSymbols)

	mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get store index status and statistics"),
	), s.handleGetStatus)
}

// ServeStdio starts the MCP server using stdio transport.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// jsonResult marshals v as an indented JSON text result.
func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

func (s *Server) handleIndexStore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := req.GetBool("force", false)

	slog.Info("starting indexing", "force", force)

	res, err := s.indexer.Index(ctx, force)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("indexing failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"success":     true,
		"skipped":     res.Skipped,
		"files":       res.Files,
		"store_files": res.StoreFiles,
		"modules":     res.Modules,
		"symbols":     res.Symbols,
		"duration":    res.Duration.String(),
	}), nil
}

func (s *Server) handleCheckFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var paths []string
	if p := req.GetString("path", ""); p != "" {
		paths = []string{p}
	}

	diags, err := s.indexer.Check(ctx, paths)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("check failed: %v", err)), nil
	}

	errs, warns := inspect.Count(diags)
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	return jsonResult(map[string]any{
		"errors":      errs,
		"warnings":    warns,
		"diagnostics": diags,
	}), nil
}

func (s *Server) handleFindReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	line := req.GetInt("line", 0)

	refs, err := s.indexer.References(ctx, path, line)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to find references: %v", err)), nil
	}

	formatted := make([]map[string]any, 0, len(refs))
	for _, ref := range refs {
		entry := map[string]any{
			"line":      ref.Line,
			"column":    ref.Column,
			"text":      ref.Text,
			"literal":   ref.Literal,
			"kind":      ref.Kind,
			"soft":      ref.Soft,
			"module":    ref.Resolution.Module,
			"resolved":  ref.Resolution.Resolved,
			"qualified": ref.Qualified(),
		}
		if sym := ref.Resolution.Symbol; sym != nil {
			entry["declared_in"] = fmt.Sprintf("%s:%d", sym.FilePath, sym.Line)
		}
		formatted = append(formatted, entry)
	}

	return jsonResult(formatted), nil
}

func (s *Server) handleResolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reference := req.GetString("reference", "")
	if reference == "" {
		return mcp.NewToolResultError("reference is required"), nil
	}
	kind, ok := types.ParseSymbolKind(req.GetString("kind", ""))
	if !ok {
		return mcp.NewToolResultError("kind must be one of: action, mutation, getter, state"), nil
	}
	base := types.NormalizeNamespace(req.GetString("namespace", ""))

	return jsonResult(ResolvePath(s.store, base, reference, kind)), nil
}

// SegmentResult is the resolution of one segment of a store path.
type SegmentResult struct {
	Segment    string `json:"segment"`
	Qualified  string `json:"qualified"`
	Module     bool   `json:"module"`
	Resolved   bool   `json:"resolved"`
	DeclaredIn string `json:"declared_in,omitempty"`
}

// ResolvePath resolves every segment of a store path under base the way
// references found in code are resolved.
func ResolvePath(index resolve.SymbolIndex, base, reference string, kind types.SymbolKind) []SegmentResult {
	if kind == types.SymbolKindState && base != "" {
		if statePath, ok := index.StatePath(base); ok {
			base = statePath
		}
	}

	var out []SegmentResult
	for _, seg := range resolve.Split(reference) {
		res := SegmentResult{Segment: reference[seg.Start:seg.End]}
		if !seg.IsLast {
			ns := base + seg.FullPath + "/"
			res.Qualified = ns
			res.Module = true
			res.Resolved = index.HasNamespace(ns, kind)
		} else {
			dir, name := types.SplitQualified(seg.FullPath)
			res.Qualified = base + dir + name
			if name != "" {
				if sym, ok := index.Lookup(base+dir, name, kind); ok {
					res.Resolved = true
					res.DeclaredIn = fmt.Sprintf("%s:%d", sym.FilePath, sym.Line)
				}
			}
		}
		out = append(out, res)
	}
	return out
}

func (s *Server) handleListStoreSymbols(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := types.SymbolFilter{
		Namespace: types.NormalizeNamespace(req.GetString("namespace", "")),
		Prefix:    req.GetBool("recursive", false),
		Query:     req.GetString("query", ""),
		Limit:     req.GetInt("limit", 100),
	}
	if k := req.GetString("kind", ""); k != "" {
		kind, ok := types.ParseSymbolKind(k)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind: %s", k)), nil
		}
		filter.Kind = kind
	}

	symbols, err := s.store.Symbols(filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list symbols: %v", err)), nil
	}

	formatted := make([]map[string]any, 0, len(symbols))
	for _, sym := range symbols {
		formatted = append(formatted, map[string]any{
			"qualified": sym.QualifiedName(),
			"kind":      sym.Kind,
			"file":      sym.FilePath,
			"line":      sym.Line,
		})
	}

	return jsonResult(formatted), nil
}

func (s *Server) handleGetStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.GetStats()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get stats: %v", err)), nil
	}

	byKind := make(map[string]int, len(stats.ByKind))
	for kind, n := range stats.ByKind {
		byKind[string(kind)] = n
	}

	status := map[string]any{
		"project":     s.projectDir,
		"index_store": s.store.Name(),
		"modules":     stats.Modules,
		"symbols":     stats.Symbols,
		"by_kind":     byKind,
		"files":       stats.Files,
		"db_size":     formatBytes(stats.DBSizeBytes),
	}
	if !stats.LastIndexed.IsZero() {
		status["last_indexed"] = stats.LastIndexed.Format("2006-01-02 15:04:05")
	}
	if p := s.indexer.Progress(); p.Phase != "" {
		status["last_phase"] = p.Phase
	}

	return jsonResult(status), nil
}

// formatBytes formats bytes to human readable string.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
