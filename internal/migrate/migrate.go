// Package migrate moves a prompter home directory to a new location with
// per-file progress reporting. Individual file failures are collected, not
// fatal; the old directory is only removed by an explicit second step.
package migrate

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Progress is one streamed migration event.
type Progress struct {
	// Current counts files attempted so far, including failures.
	Current int    `json:"current"`
	Total   int    `json:"total"`
	File    string `json:"file"`
}

// FileError records one file that failed to copy.
type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result summarizes a finished migration.
type Result struct {
	// Success means the destination was prepared and the walk completed.
	// Per-file failures do not clear it; check Errors.
	Success     bool        `json:"success"`
	FilesCopied int         `json:"filesCopied"`
	Errors      []FileError `json:"errors,omitempty"`
}

// Migrator copies home directories.
type Migrator struct {
	logger *slog.Logger
}

// New creates a Migrator.
func New(logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{logger: logger}
}

// Migrate copies every regular file under src into dst, preserving the
// relative directory structure, and streams one Progress per file onto
// progress (which may be nil). Unreadable files are recorded in the result
// and skipped. The source directory is left untouched.
func (m *Migrator) Migrate(ctx context.Context, src, dst string, progress chan<- Progress) (*Result, error) {
	if progress != nil {
		defer close(progress)
	}
	srcInfo, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !srcInfo.IsDir() {
		return nil, fmt.Errorf("source %s is not a directory", src)
	}
	if same, err := samePath(src, dst); err != nil {
		return nil, err
	} else if same {
		return nil, fmt.Errorf("source and destination are the same directory")
	}
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return nil, fmt.Errorf("create destination: %w", err)
	}

	files, err := listFiles(src)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	result := &Result{Success: true}
	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			result.Success = false
			return result, err
		}
		if progress != nil {
			progress <- Progress{Current: i + 1, Total: len(files), File: rel}
		}
		if err := copyFile(filepath.Join(src, rel), filepath.Join(dst, rel)); err != nil {
			m.logger.Warn("file failed to migrate", "file", rel, "error", err)
			result.Errors = append(result.Errors, FileError{Path: rel, Error: err.Error()})
			continue
		}
		result.FilesCopied++
	}
	m.logger.Info("migration complete", "copied", result.FilesCopied, "failed", len(result.Errors), "dst", dst)
	return result, nil
}

// DeleteOldDirectory removes the old home directory after a successful
// migration. Kept separate so the caller confirms before data is destroyed.
func (m *Migrator) DeleteOldDirectory(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("old directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove old directory: %w", err)
	}
	m.logger.Info("removed old home directory", "path", path)
	return nil
}

// listFiles returns the relative paths of every regular file under root,
// in walk order.
func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	return files, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}

func samePath(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return absA == absB, nil
}
