package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spetr/vuexref/internal/inspect"
	"github.com/spetr/vuexref/pkg/types"
)

// Check inspects files and returns their diagnostics sorted by position.
// With no paths every selected project file is checked.
func (idx *Indexer) Check(ctx context.Context, paths []string) ([]types.Diagnostic, error) {
	files, err := idx.resolveFiles(ctx, paths)
	if err != nil {
		return nil, err
	}

	idx.updateProgress("checking", len(files), 0, "")
	inspector := idx.Inspector()

	fileCh := make(chan *types.SourceFile, len(files))
	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	var (
		mu        sync.Mutex
		diags     []types.Diagnostic
		processed int
		wg        sync.WaitGroup
	)
	for i := 0; i < idx.workers(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range fileCh {
				if ctx.Err() != nil {
					return
				}

				docs, err := idx.parser.Parse(ctx, file)
				if err != nil {
					slog.Warn("parsing failed", "file", file.Path, "error", err)
					idx.reportError(err)
					continue
				}
				found := inspector.Documents(docs)
				closeDocs(docs)

				mu.Lock()
				diags = append(diags, found...)
				processed++
				n := processed
				mu.Unlock()

				idx.updateProgress("", 0, n, file.Path)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inspect.SortDiagnostics(diags)
	return diags, nil
}

// References returns the string references in a file. A line greater than
// zero keeps only references on that line.
func (idx *Indexer) References(ctx context.Context, path string, line int) ([]inspect.Reference, error) {
	rel, err := idx.relative(path)
	if err != nil {
		return nil, err
	}
	file, err := idx.readFile(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rel, err)
	}

	docs, err := idx.parser.Parse(ctx, file)
	if err != nil {
		return nil, err
	}
	defer closeDocs(docs)

	inspector := idx.Inspector()
	var refs []inspect.Reference
	for _, doc := range docs {
		for _, ref := range inspector.Collect(doc) {
			if line > 0 && ref.Line != line {
				continue
			}
			refs = append(refs, ref)
		}
	}
	return refs, nil
}

// resolveFiles reads the requested files, or scans the project when paths
// is empty.
func (idx *Indexer) resolveFiles(ctx context.Context, paths []string) ([]*types.SourceFile, error) {
	if len(paths) == 0 {
		files, err := idx.scanFiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan files: %w", err)
		}
		return files, nil
	}

	files := make([]*types.SourceFile, 0, len(paths))
	for _, p := range paths {
		rel, err := idx.relative(p)
		if err != nil {
			return nil, err
		}
		file, err := idx.readFile(rel)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", types.ErrNotFound, rel, err)
		}
		if file.Language == "" {
			return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedLanguage, rel)
		}
		files = append(files, file)
	}
	return files, nil
}
