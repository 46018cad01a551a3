package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spetr/vuexref/internal/syntax"
	"github.com/spetr/vuexref/pkg/types"
)

// scanFiles scans the project for script files. Paths are relative to the
// project directory and use forward slashes.
func (idx *Indexer) scanFiles(ctx context.Context) ([]*types.SourceFile, error) {
	var files []*types.SourceFile

	// Try to use git ls-files first
	if idx.config.Index.UseGitIgnore {
		gitFiles, err := idx.scanWithGit(ctx)
		if err == nil && len(gitFiles) > 0 {
			return gitFiles, nil
		}
		slog.Debug("git scan failed, falling back to filesystem", "error", err)
	}

	// Fall back to filesystem walk
	slog.Debug("starting filesystem walk", "dir", idx.projectDir, "include_patterns", idx.config.Index.Include)
	err := filepath.WalkDir(idx.projectDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		relPath, _ := filepath.Rel(idx.projectDir, path)
		relPath = filepath.ToSlash(relPath)

		// Skip directories in exclude list
		if d.IsDir() {
			if relPath != "." && idx.excluded(relPath+"/") {
				slog.Debug("excluding directory", "path", relPath)
				return filepath.SkipDir
			}
			return nil
		}

		if !idx.Selected(relPath) {
			return nil
		}

		file, err := idx.readFile(relPath)
		if err != nil {
			slog.Warn("failed to read file", "path", relPath, "error", err)
			return nil
		}

		files = append(files, file)

		if idx.config.Limits.MaxFiles > 0 && len(files) >= idx.config.Limits.MaxFiles {
			return fmt.Errorf("max files limit reached: %d", idx.config.Limits.MaxFiles)
		}

		return nil
	})

	return files, err
}

// scanWithGit uses git ls-files to get tracked and untracked, non-ignored
// files.
func (idx *Indexer) scanWithGit(ctx context.Context) ([]*types.SourceFile, error) {
	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = idx.projectDir

	output, err := cmd.Output()
	if err != nil {
		return nil, err
	}

	var files []*types.SourceFile
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !idx.Selected(line) {
			continue
		}

		file, err := idx.readFile(line)
		if err != nil {
			// Deleted but still in the git index, or too large.
			slog.Debug("skipping file", "path", line, "error", err)
			continue
		}

		files = append(files, file)

		if idx.config.Limits.MaxFiles > 0 && len(files) >= idx.config.Limits.MaxFiles {
			slog.Warn("max files limit reached", "limit", idx.config.Limits.MaxFiles)
			break
		}
	}

	return files, nil
}

// Selected reports whether a project-relative path is a script file matched
// by the include patterns and not by the exclude patterns.
func (idx *Indexer) Selected(relPath string) bool {
	if !syntax.SupportsFile(relPath) {
		return false
	}

	included := false
	for _, pattern := range idx.config.Index.Include {
		if matchGlob(pattern, relPath) {
			included = true
			break
		}
	}
	return included && !idx.excluded(relPath)
}

func (idx *Indexer) excluded(relPath string) bool {
	for _, pattern := range idx.config.Index.Exclude {
		if matchGlob(pattern, relPath) {
			return true
		}
	}
	return false
}

// readFile reads a project-relative file and creates a SourceFile.
func (idx *Indexer) readFile(relPath string) (*types.SourceFile, error) {
	path := filepath.Join(idx.projectDir, filepath.FromSlash(relPath))

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	maxSize := parseSize(idx.config.Limits.MaxFileSize)
	if maxSize > 0 && info.Size() > maxSize {
		return nil, fmt.Errorf("file too large: %d > %d", info.Size(), maxSize)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	file := &types.SourceFile{
		Path:     relPath,
		Content:  content,
		Language: syntax.DetectLanguage(relPath),
	}
	file.Hash = file.ComputeHash()

	return file, nil
}

// relative converts a user supplied path to a project-relative slash path.
func (idx *Indexer) relative(path string) (string, error) {
	if filepath.IsAbs(path) {
		rel, err := filepath.Rel(idx.projectDir, path)
		if err != nil {
			return "", err
		}
		path = rel
	}
	rel := filepath.ToSlash(filepath.Clean(path))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the project", path)
	}
	return rel, nil
}

// matchGlob matches a path against a glob pattern.
func matchGlob(pattern, path string) bool {
	// Handle ** for recursive matching
	if strings.Contains(pattern, "**") {
		parts := strings.Split(pattern, "**")
		if len(parts) == 2 {
			prefix := strings.TrimSuffix(parts[0], "/")
			suffix := strings.TrimPrefix(parts[1], "/")

			if prefix != "" && !strings.HasPrefix(path, prefix) {
				return false
			}

			if suffix == "" {
				return true
			}

			if strings.Contains(suffix, "*") {
				matched, _ := filepath.Match(suffix, filepath.Base(path))
				if matched {
					return true
				}
				remaining := path
				if prefix != "" {
					remaining = strings.TrimPrefix(strings.TrimPrefix(path, prefix), "/")
				}
				matched, _ = filepath.Match(suffix, remaining)
				return matched
			}

			return strings.HasSuffix(path, suffix) || strings.Contains(path, suffix)
		}
		// "**/dir/**": every component after the first ** must appear.
		inner := strings.Trim(strings.Join(parts[1:len(parts)-1], "**"), "/")
		return inner != "" && (strings.HasPrefix(path, inner+"/") || strings.Contains(path, "/"+inner+"/"))
	}

	matched, _ := filepath.Match(pattern, path)
	if matched {
		return true
	}

	matched, _ = filepath.Match(pattern, filepath.Base(path))
	return matched
}

// parseSize parses a size string like "1MB" to bytes.
func parseSize(s string) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}

	var value int64
	_, _ = fmt.Sscanf(s, "%d", &value)

	return value * multiplier
}
