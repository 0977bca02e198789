// Package home manages the prompter home directory layout.
package home

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

const (
	// DefaultDirName is the default name for the prompter home directory.
	DefaultDirName = ".prompter"

	// BooksDirName is the subdirectory holding one JSON file per book.
	BooksDirName = "books"

	// ImagesDirName is the subdirectory holding generated and composed images.
	ImagesDirName = "images"

	// ExportsDirName is the subdirectory for exported PDFs.
	ExportsDirName = "exports"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// AppMetadataFileName holds the active book id and user settings.
	AppMetadataFileName = "app.json"

	// lockFileName guards the home dir against concurrent server instances.
	lockFileName = ".prompter.lock"
)

// Dir represents the prompter home directory structure.
type Dir struct {
	path string
	lock *flock.Flock
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.prompter).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// BooksPath returns the directory holding persisted books.
func (d *Dir) BooksPath() string {
	return filepath.Join(d.path, BooksDirName)
}

// BookPath returns the JSON file path for a book id.
func (d *Dir) BookPath(bookID string) string {
	return filepath.Join(d.BooksPath(), bookID+".json")
}

// ImagesPath returns the directory holding image blobs.
func (d *Dir) ImagesPath() string {
	return filepath.Join(d.path, ImagesDirName)
}

// ImagePath returns the file path for an image id.
func (d *Dir) ImagePath(imageID string) string {
	return filepath.Join(d.ImagesPath(), imageID+".png")
}

// ExportsPath returns the directory for exported files.
func (d *Dir) ExportsPath() string {
	return filepath.Join(d.path, ExportsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// AppMetadataPath returns the path to the app metadata file.
func (d *Dir) AppMetadataPath() string {
	return filepath.Join(d.path, AppMetadataFileName)
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	for _, dir := range []string{d.BooksPath(), d.ImagesPath(), d.ExportsPath()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}

// Acquire takes the advisory lock guarding the home directory. A second
// server pointed at the same home fails fast instead of corrupting books.
func (d *Dir) Acquire() error {
	if d.lock == nil {
		d.lock = flock.New(filepath.Join(d.path, lockFileName))
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock home directory: %w", err)
	}
	if !ok {
		return fmt.Errorf("home directory %s is locked by another prompter instance", d.path)
	}
	return nil
}

// Release drops the advisory lock if held.
func (d *Dir) Release() error {
	if d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}
