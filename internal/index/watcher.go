package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spetr/vuexref/pkg/types"
)

// Watcher watches for file changes, re-indexes the store and re-checks the
// changed files.
type Watcher struct {
	indexer    *Indexer
	projectDir string

	watcher       *fsnotify.Watcher
	onDiagnostics func(files []string, diags []types.Diagnostic)

	// Debouncing
	pendingMu    sync.Mutex
	pendingFiles map[string]time.Time
	debounceTime time.Duration
}

// WatcherConfig contains watcher configuration.
type WatcherConfig struct {
	Indexer *Indexer
	// OnDiagnostics receives the re-checked files and their diagnostics.
	OnDiagnostics func(files []string, diags []types.Diagnostic)
	DebounceTime  time.Duration // Default: 500ms
}

// NewWatcher creates a new file watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceTime := cfg.DebounceTime
	if debounceTime == 0 {
		debounceTime = 500 * time.Millisecond
	}

	return &Watcher{
		indexer:       cfg.Indexer,
		projectDir:    cfg.Indexer.projectDir,
		watcher:       watcher,
		onDiagnostics: cfg.OnDiagnostics,
		pendingFiles:  make(map[string]time.Time),
		debounceTime:  debounceTime,
	}, nil
}

// Watch starts watching for file changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	if err := w.addWatchDirs(); err != nil {
		return err
	}

	slog.Info("watching for file changes", "dir", w.projectDir)

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

// addWatchDirs recursively adds directories to watch.
func (w *Watcher) addWatchDirs() error {
	return filepath.WalkDir(w.projectDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}

		relPath, _ := filepath.Rel(w.projectDir, path)
		relPath = filepath.ToSlash(relPath)
		if relPath != "." {
			if w.indexer.excluded(relPath + "/") {
				return filepath.SkipDir
			}
			// Skip hidden directories
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
		}

		if err := w.watcher.Add(path); err != nil {
			slog.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// handleEvent records a relevant file system event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	relPath, err := filepath.Rel(w.projectDir, event.Name)
	if err != nil {
		return
	}
	relPath = filepath.ToSlash(relPath)

	// New directories need a watch of their own.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.indexer.excluded(relPath + "/") {
				if err := w.watcher.Add(event.Name); err != nil {
					slog.Warn("failed to watch directory", "path", relPath, "error", err)
				}
			}
			return
		}
	}

	if !w.indexer.Selected(relPath) {
		return
	}

	w.pendingMu.Lock()
	w.pendingFiles[relPath] = time.Now()
	w.pendingMu.Unlock()

	slog.Debug("file changed", "path", relPath, "op", event.Op.String())
}

// processDebounced processes pending files after debounce period.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if files := w.takeStable(time.Now()); len(files) > 0 {
				w.refresh(ctx, files)
			}
		}
	}
}

// takeStable removes and returns the files unchanged for the debounce
// period.
func (w *Watcher) takeStable(now time.Time) []string {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	var stable []string
	for path, changedAt := range w.pendingFiles {
		if now.Sub(changedAt) >= w.debounceTime {
			stable = append(stable, path)
			delete(w.pendingFiles, path)
		}
	}
	sort.Strings(stable)
	return stable
}

// refresh re-indexes the store and re-checks the changed files that still
// exist.
func (w *Watcher) refresh(ctx context.Context, files []string) {
	slog.Info("re-indexing after changes", "count", len(files))

	if _, err := w.indexer.Index(ctx, false); err != nil {
		slog.Warn("re-indexing failed", "error", err)
		return
	}

	var existing []string
	for _, rel := range files {
		if _, err := os.Stat(filepath.Join(w.projectDir, filepath.FromSlash(rel))); err == nil {
			existing = append(existing, rel)
		}
	}
	if len(existing) == 0 {
		return
	}

	diags, err := w.indexer.Check(ctx, existing)
	if err != nil {
		slog.Warn("checking changed files failed", "error", err)
		return
	}
	if w.onDiagnostics != nil {
		w.onDiagnostics(existing, diags)
	}
}

// Close closes the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
