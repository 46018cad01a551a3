package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/spetr/vuexref/internal/config"
	"github.com/spetr/vuexref/internal/index"
	"github.com/spetr/vuexref/internal/inspect"
	"github.com/spetr/vuexref/internal/mcp"
	"github.com/spetr/vuexref/internal/store"
	"github.com/spetr/vuexref/pkg/plugin/host"
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// loadConfig loads the project config, or the --config file when given,
// and logs its warnings.
func loadConfig(projectDir string) *config.Config {
	var (
		cfg      *config.Config
		warnings []string
		err      error
	)
	if cfgFile != "" {
		cfg, warnings, err = config.LoadFile(cfgFile)
	} else {
		cfg, warnings, err = config.Load(projectDir)
	}
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		slog.Debug(w)
	}
	applyLogging(cfg)
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			slog.Error("invalid config", "error", e)
		}
		os.Exit(1)
	}
	return cfg
}

// applyLogging uses the config file's logging section unless the level or
// format was given on the command line.
func applyLogging(cfg *config.Config) {
	flags := rootCmd.PersistentFlags()
	changed := false
	if !flags.Changed("log-level") && cfg.Logging.Level != "" {
		logLevel = cfg.Logging.Level
		changed = true
	}
	if !flags.Changed("log-format") && cfg.Logging.Format != "" {
		logFormat = cfg.Logging.Format
		changed = true
	}
	if changed {
		setupLogging()
	}
}

// openStore creates and initializes the configured store index.
func openStore(projectDir string, cfg *config.Config) provider.StoreIndex {
	ix, err := provider.DefaultRegistry.CreateStoreIndex(cfg.IndexStore.Provider, provider.StoreIndexConfig{
		Provider:  cfg.IndexStore.Provider,
		Path:      config.IndexDBPath(projectDir),
		Plugin:    cfg.IndexStore.Plugin,
		PluginDir: config.PluginsDir(projectDir),
	})
	if err != nil {
		slog.Error("failed to create store index", "error", err)
		os.Exit(1)
	}
	if err := ix.Init(config.IndexDBPath(projectDir)); err != nil {
		ix.Close()
		slog.Error("failed to init store index", "error", err)
		os.Exit(1)
	}
	return ix
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received shutdown signal", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

func newIndexer(projectDir string, cfg *config.Config, ix provider.StoreIndex, progress bool) *index.Indexer {
	var onProgress func(types.IndexProgress)
	if progress {
		onProgress = func(p types.IndexProgress) {
			if p.Phase != "" {
				fmt.Fprintf(os.Stderr, "\r[%s] Files: %d/%d", p.Phase, p.ProcessedFiles, p.TotalFiles)
			}
		}
	}
	return index.New(index.Config{
		ProjectDir: projectDir,
		Config:     cfg,
		Store:      ix,
		OnProgress: onProgress,
	})
}

func runIndex(path string, force bool) {
	absPath, _ := filepath.Abs(path)
	slog.Info("indexing", "path", absPath, "force", force)

	cfg := loadConfig(absPath)
	ix := openStore(absPath, cfg)
	defer ix.Close()

	ctx, stop := signalContext()
	defer stop()
	if cfg.Limits.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Limits.Timeout)
		defer cancel()
	}

	indexer := newIndexer(absPath, cfg, ix, true)
	result, err := indexer.Index(ctx, force)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		if ctx.Err() != nil {
			slog.Info("indexing stopped", "reason", ctx.Err())
		} else {
			slog.Error("indexing failed", "error", err)
		}
		os.Exit(1)
	}

	if result.Skipped {
		fmt.Println("Store index is up to date.")
		return
	}
	fmt.Printf("Indexed %d files (%d store files) in %s\n", result.Files, result.StoreFiles, result.Duration.Round(time.Millisecond))
	fmt.Printf("Modules: %d, Symbols: %d\n", result.Modules, result.Symbols)
}

func runCheck(paths []string, format, failOn string, soft bool) {
	cwd, _ := os.Getwd()
	cfg := loadConfig(cwd)
	if soft {
		cfg.Analysis.ReportSoft = true
	}
	if failOn == "" {
		failOn = cfg.Analysis.FailOn
	}

	ix := openStore(cwd, cfg)
	failed := false
	defer func() {
		ix.Close()
		if failed {
			os.Exit(1)
		}
	}()

	ctx, stop := signalContext()
	defer stop()

	indexer := newIndexer(cwd, cfg, ix, false)
	if _, err := indexer.Index(ctx, false); err != nil {
		slog.Error("indexing failed", "error", err)
		failed = true
		return
	}

	diags, err := indexer.Check(ctx, paths)
	if err != nil {
		slog.Error("check failed", "error", err)
		failed = true
		return
	}

	switch format {
	case "json":
		if diags == nil {
			diags = []types.Diagnostic{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(diags); err != nil {
			slog.Error("failed to write output", "error", err)
			failed = true
			return
		}
	default:
		printDiagnostics(diags)
		errs, warns := inspect.Count(diags)
		fmt.Printf("\n%d errors, %d warnings\n", errs, warns)
	}

	failed = inspect.Fails(diags, failOn)
}

func printDiagnostics(diags []types.Diagnostic) {
	for _, d := range diags {
		fmt.Printf("%s:%d:%d: %s: %s\n", d.File, d.Line, d.Column, d.Severity, d.Message)
	}
}

func runRefs(file string, line int, format string) {
	cwd, _ := os.Getwd()
	cfg := loadConfig(cwd)
	ix := openStore(cwd, cfg)
	defer ix.Close()

	ctx, stop := signalContext()
	defer stop()

	indexer := newIndexer(cwd, cfg, ix, false)
	if _, err := indexer.Index(ctx, false); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	refs, err := indexer.References(ctx, file, line)
	if err != nil {
		slog.Error("failed to collect references", "error", err)
		os.Exit(1)
	}

	if format == "json" {
		type jsonRef struct {
			Line      int              `json:"line"`
			Column    int              `json:"column"`
			Text      string           `json:"text"`
			Literal   string           `json:"literal"`
			Qualified string           `json:"qualified"`
			Kind      types.SymbolKind `json:"kind,omitempty"`
			Soft      bool             `json:"soft,omitempty"`
			Resolved  bool             `json:"resolved"`
		}
		out := make([]jsonRef, 0, len(refs))
		for i := range refs {
			r := &refs[i]
			out = append(out, jsonRef{
				Line:      r.Line,
				Column:    r.Column,
				Text:      r.Text,
				Literal:   r.Literal,
				Qualified: r.Qualified(),
				Kind:      r.Kind,
				Soft:      r.Soft,
				Resolved:  r.Resolution.Resolved,
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(out)
		return
	}

	if len(refs) == 0 {
		fmt.Println("No store references found.")
		return
	}
	for i := range refs {
		r := &refs[i]
		status := "ok"
		if !r.Resolution.Resolved {
			status = "unresolved"
		}
		kind := string(r.Kind)
		if kind == "" {
			kind = "?"
		}
		fmt.Printf("%d:%d  %-8s %-40s %s\n", r.Line, r.Column, kind, r.Qualified(), status)
	}
}

func runSymbols(namespace string, recursive bool, kind, query string, limit int, format string) {
	cwd, _ := os.Getwd()
	cfg := loadConfig(cwd)
	ix := openStore(cwd, cfg)
	defer ix.Close()

	ctx, stop := signalContext()
	defer stop()

	indexer := newIndexer(cwd, cfg, ix, false)
	if _, err := indexer.Index(ctx, false); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}

	filter := types.SymbolFilter{
		Namespace: types.NormalizeNamespace(namespace),
		Prefix:    recursive,
		Query:     query,
		Limit:     limit,
	}
	if kind != "" {
		k, ok := types.ParseSymbolKind(kind)
		if !ok {
			slog.Error("unknown symbol kind", "kind", kind)
			os.Exit(1)
		}
		filter.Kind = k
	}

	symbols, err := ix.Symbols(filter)
	if err != nil {
		slog.Error("failed to list symbols", "error", err)
		os.Exit(1)
	}

	switch format {
	case "yaml":
		modules, err := ix.Modules()
		if err != nil {
			slog.Error("failed to list modules", "error", err)
			os.Exit(1)
		}
		if err := store.WriteYAML(os.Stdout, &types.StoreModel{Modules: modules, Symbols: symbols}); err != nil {
			slog.Error("failed to write output", "error", err)
			os.Exit(1)
		}
	case "json":
		if symbols == nil {
			symbols = []*types.StoreSymbol{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(symbols)
	default:
		if len(symbols) == 0 {
			fmt.Println("No symbols found.")
			return
		}
		for _, sym := range symbols {
			fmt.Printf("%-9s %-40s %s:%d\n", sym.Kind, sym.QualifiedName(), sym.FilePath, sym.Line)
		}
	}
}

func runWatch(path string, debounceMs int) {
	absPath, _ := filepath.Abs(path)
	slog.Info("watching for changes", "path", absPath, "debounce_ms", debounceMs)

	cfg := loadConfig(absPath)
	ix := openStore(absPath, cfg)
	defer ix.Close()

	ctx, stop := signalContext()
	defer stop()

	indexer := newIndexer(absPath, cfg, ix, false)
	if _, err := indexer.Index(ctx, false); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(1)
	}
	if diags, err := indexer.Check(ctx, nil); err == nil {
		printDiagnostics(diags)
	}

	watcher, err := index.NewWatcher(index.WatcherConfig{
		Indexer:      indexer,
		DebounceTime: time.Duration(debounceMs) * time.Millisecond,
		OnDiagnostics: func(files []string, diags []types.Diagnostic) {
			fmt.Printf("[watch] Checked %d files\n", len(files))
			printDiagnostics(diags)
		},
	})
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}
	defer watcher.Close()

	fmt.Printf("Watching %s for changes (press Ctrl+C to stop)\n", absPath)

	if err := watcher.Watch(ctx); err != nil {
		if ctx.Err() != nil {
			slog.Info("watcher stopped")
		} else {
			slog.Error("watcher error", "error", err)
			os.Exit(1)
		}
	}
}

func runServe() {
	cwd, _ := os.Getwd()
	slog.Info("starting MCP server", "project", cwd)

	cfg := loadConfig(cwd)
	ix := openStore(cwd, cfg)
	defer ix.Close()

	server, err := mcp.New(mcp.Config{
		ProjectDir: cwd,
		Config:     cfg,
		Store:      ix,
		Version:    version,
	})
	if err != nil {
		slog.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := server.ServeStdio(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func runConfigInit() {
	cwd, _ := os.Getwd()
	if _, err := os.Stat(config.ConfigPath(cwd)); err == nil {
		fmt.Printf("Config already exists at %s\n", config.ConfigPath(cwd))
		return
	}

	if err := config.Save(cwd, config.DefaultConfig()); err != nil {
		slog.Error("failed to save config", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Created config at %s\n", config.ConfigPath(cwd))
}

func runConfigValidate() {
	cwd, _ := os.Getwd()
	path := cfgFile
	if path == "" {
		path = config.ConfigPath(cwd)
	}

	cfg, warnings, err := config.LoadFile(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}

	errs := config.Validate(cfg)
	if len(errs) > 0 {
		fmt.Println("Validation errors:")
		for _, e := range errs {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	if !provider.DefaultRegistry.HasStoreIndex(cfg.IndexStore.Provider) {
		fmt.Printf("Error: index store provider %q is not registered\n", cfg.IndexStore.Provider)
		os.Exit(1)
	}

	fmt.Println("Configuration is valid.")
}

func runConfigShow() {
	cwd, _ := os.Getwd()
	cfg := loadConfig(cwd)

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	if err := enc.Encode(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
		os.Exit(1)
	}
}

func runPluginList() {
	cwd, _ := os.Getwd()
	pluginsDir := config.PluginsDir(cwd)

	manager := host.NewManager(pluginsDir)
	available, err := manager.DiscoverPlugins()
	if err != nil {
		slog.Error("failed to discover plugins", "error", err)
		os.Exit(1)
	}

	fmt.Println("=== Available Plugins ===")
	fmt.Printf("Plugins directory: %s\n\n", pluginsDir)

	if len(available) == 0 {
		fmt.Println("No plugins found.")
		fmt.Println("\nTo install a plugin:")
		fmt.Println("  1. Build a store index plugin binary")
		fmt.Println("  2. Copy it to .vuexref/plugins/")
		fmt.Println("  3. Set index_store.provider: plugin and index_store.plugin: <name>")
		return
	}

	for _, name := range available {
		fmt.Printf("  - %s\n", name)
	}
	fmt.Printf("\nRegistered index stores: %v\n", provider.DefaultRegistry.ListStoreIndexes())
}
