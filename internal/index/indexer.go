// Package index scans a project, extracts its store model into a store
// index and checks string references against it.
package index

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spetr/vuexref/internal/config"
	"github.com/spetr/vuexref/internal/inspect"
	"github.com/spetr/vuexref/internal/resolve"
	"github.com/spetr/vuexref/internal/store"
	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/provider"
	"github.com/spetr/vuexref/pkg/types"
)

// SchemaVersion of the indexed model. Bump when extraction changes shape.
const SchemaVersion = 1

// ToolVersion is recorded in index metadata. Set by the CLI.
var ToolVersion = "dev"

// Indexer handles parallel file indexing.
type Indexer struct {
	config     *config.Config
	store      provider.StoreIndex
	projectDir string
	configHash string
	parser     *syntax.Parser
	checker    resolve.ContextChecker

	// Serializes Index runs (watcher and MCP may overlap).
	runMu sync.Mutex

	// Progress tracking
	progressMu sync.Mutex
	progress   types.IndexProgress
	onProgress func(types.IndexProgress)
}

// Config contains indexer configuration.
type Config struct {
	ProjectDir string
	Config     *config.Config
	Store      provider.StoreIndex
	OnProgress func(types.IndexProgress)
}

// New creates a new indexer.
func New(cfg Config) *Indexer {
	return &Indexer{
		config:     cfg.Config,
		store:      cfg.Store,
		projectDir: cfg.ProjectDir,
		configHash: cfg.Config.Hash(),
		parser:     syntax.NewParser(),
		checker:    resolve.NewDefaultChecker(cfg.Config.Analysis.Activation == "always"),
		onProgress: cfg.OnProgress,
	}
}

// Result summarises an Index run.
type Result struct {
	Files      int  // Script files scanned
	StoreFiles int  // Files handed to the extractor
	Modules    int  // Registered modules
	Symbols    int  // Declared symbols
	Skipped    bool // Nothing changed since the last run
	Duration   time.Duration
}

// Index extracts the store model of the project and loads it into the
// store index. Unless force is set, a run whose files and configuration are
// unchanged since the last one is skipped.
func (idx *Indexer) Index(ctx context.Context, force bool) (*Result, error) {
	idx.runMu.Lock()
	defer idx.runMu.Unlock()

	startTime := time.Now()

	// Phase 1: Scan files
	idx.updateProgress("scanning", 0, 0, "")

	files, err := idx.scanFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan files: %w", err)
	}

	slog.Info("scanned files", "total", len(files))
	idx.updateProgress("scanning", len(files), 0, "")

	hashes := make(map[string]string, len(files))
	for _, file := range files {
		hashes[file.Path] = file.Hash
	}

	result := &Result{Files: len(files)}

	if !force && idx.upToDate(hashes) {
		slog.Info("store index is up to date")
		result.Skipped = true
		result.Duration = time.Since(startTime)
		return result, nil
	}

	// Phase 2: Parse candidate store files in parallel
	candidates := idx.storeCandidates(files)
	idx.updateProgress("parsing", len(candidates), 0, "")

	docs, err := idx.parseFilesParallel(ctx, candidates)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	defer closeDocs(docs)
	result.StoreFiles = len(candidates)

	// Phase 3: Extract the store model
	idx.updateProgress("extracting", len(candidates), len(candidates), "")

	extractor := store.NewExtractor(store.Options{
		Root:    idx.projectDir,
		Entries: idx.config.Store.Entries,
		NuxtDir: idx.config.Store.NuxtDir,
		Aliases: idx.config.Store.Aliases,
	})
	defer extractor.Close()

	model, err := extractor.Extract(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("extraction failed: %w", err)
	}

	// Phase 4: Load into the store index
	idx.updateProgress("loading", len(candidates), len(candidates), "")

	if err := idx.store.Load(model); err != nil {
		return nil, fmt.Errorf("%w: failed to load store model: %v", types.ErrStoreFailed, err)
	}
	if err := idx.store.SetFileHashes(hashes); err != nil {
		slog.Warn("failed to cache file hashes", "error", err)
	}

	meta := &types.IndexMetadata{
		SchemaVersion: SchemaVersion,
		CreatedAt:     time.Now(),
		LastUpdated:   time.Now(),
		ToolVersion:   ToolVersion,
		ConfigHash:    idx.configHash,
	}
	if prev, err := idx.store.GetMetadata(); err == nil && prev != nil && !prev.CreatedAt.IsZero() {
		meta.CreatedAt = prev.CreatedAt
	}
	if err := idx.store.SetMetadata(meta); err != nil {
		return nil, fmt.Errorf("failed to store metadata: %w", err)
	}

	for _, m := range model.Modules {
		if !m.Detached {
			result.Modules++
		}
	}
	result.Symbols = len(model.Symbols)
	result.Duration = time.Since(startTime)

	slog.Info("indexing complete",
		"files", result.Files,
		"store_files", result.StoreFiles,
		"modules", result.Modules,
		"symbols", result.Symbols,
		"duration", result.Duration.Round(time.Millisecond),
	)

	return result, nil
}

// upToDate reports whether the stored hashes and metadata match the
// current scan.
func (idx *Indexer) upToDate(hashes map[string]string) bool {
	meta, err := idx.store.GetMetadata()
	if err != nil || meta == nil {
		return false
	}
	if meta.SchemaVersion != SchemaVersion || meta.ConfigHash != idx.configHash {
		return false
	}

	cached, err := idx.store.GetAllFileHashes()
	if err != nil || len(cached) != len(hashes) {
		return false
	}
	for file, hash := range hashes {
		if cached[file] != hash {
			return false
		}
	}
	return true
}

// storeCandidates selects the files that can contribute to the store model:
// files mentioning vuex, configured entries and files of the Nuxt store
// directory. Imports are followed by the extractor on demand.
func (idx *Indexer) storeCandidates(files []*types.SourceFile) []*types.SourceFile {
	entries := make(map[string]bool, len(idx.config.Store.Entries))
	for _, entry := range idx.config.Store.Entries {
		entries[path.Clean(entry)] = true
	}
	nuxtPrefix := ""
	if dir := strings.Trim(path.Clean(idx.config.Store.NuxtDir), "/"); dir != "" && dir != "." {
		nuxtPrefix = dir + "/"
	}

	var out []*types.SourceFile
	for _, file := range files {
		switch {
		case entries[file.Path]:
		case nuxtPrefix != "" && strings.HasPrefix(file.Path, nuxtPrefix):
		case bytes.Contains(file.Content, []byte("vuex")):
		default:
			continue
		}
		out = append(out, file)
	}
	return out
}

// parseFilesParallel parses files in parallel. Files that fail to parse are
// logged and skipped.
func (idx *Indexer) parseFilesParallel(ctx context.Context, files []*types.SourceFile) ([]*syntax.Document, error) {
	workers := idx.workers()

	type result struct {
		docs []*syntax.Document
		err  error
	}

	// Channel for work
	fileCh := make(chan *types.SourceFile, len(files))
	resultCh := make(chan result, len(files))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileCh {
				if ctx.Err() != nil {
					resultCh <- result{err: ctx.Err()}
					return
				}

				idx.updateProgress("", 0, 0, file.Path)

				docs, err := idx.parser.Parse(ctx, file)
				if err != nil {
					slog.Warn("parsing failed", "file", file.Path, "error", err)
					idx.reportError(err)
				}
				resultCh <- result{docs: docs}
			}
		}()
	}

	// Send work
	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	// Wait for workers
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// Collect results
	var all []*syntax.Document
	var firstErr error
	processed := 0
	for res := range resultCh {
		if res.err != nil {
			if firstErr == nil {
				firstErr = res.err
			}
			continue
		}
		all = append(all, res.docs...)
		processed++
		idx.updateProgress("", 0, processed, "")
	}

	if firstErr != nil {
		closeDocs(all)
		return nil, firstErr
	}
	return all, nil
}

func (idx *Indexer) workers() int {
	if idx.config.Limits.Workers > 0 {
		return idx.config.Limits.Workers
	}
	return runtime.NumCPU()
}

func closeDocs(docs []*syntax.Document) {
	for _, doc := range docs {
		doc.Close()
	}
}

// updateProgress updates the progress state.
func (idx *Indexer) updateProgress(phase string, totalFiles, processedFiles int, currentFile string) {
	idx.progressMu.Lock()
	defer idx.progressMu.Unlock()

	if phase != "" {
		idx.progress.Phase = phase
		idx.progress.ProcessedFiles = 0
		idx.progress.Error = nil
	}
	if totalFiles > 0 {
		idx.progress.TotalFiles = totalFiles
	}
	if processedFiles > 0 {
		idx.progress.ProcessedFiles = processedFiles
	}
	if currentFile != "" {
		idx.progress.CurrentFile = currentFile
	}

	if idx.onProgress != nil {
		idx.onProgress(idx.progress)
	}
}

// reportError forwards a non-fatal error to the progress callback.
func (idx *Indexer) reportError(err error) {
	idx.progressMu.Lock()
	defer idx.progressMu.Unlock()

	idx.progress.Error = err
	if idx.onProgress != nil {
		idx.onProgress(idx.progress)
	}
	idx.progress.Error = nil
}

// Progress returns the current progress state.
func (idx *Indexer) Progress() types.IndexProgress {
	idx.progressMu.Lock()
	defer idx.progressMu.Unlock()
	return idx.progress
}

// Store returns the store index the indexer loads into.
func (idx *Indexer) Store() provider.StoreIndex {
	return idx.store
}

// Inspector returns an inspector over the indexed store model.
func (idx *Indexer) Inspector() *inspect.Inspector {
	return inspect.New(idx.store, idx.checker, inspect.Options{
		ReportSoft: idx.config.Analysis.ReportSoft,
	})
}
