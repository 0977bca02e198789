package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/schema"
	"github.com/jackzampolin/prompter/internal/types"
)

// FSStore persists books, images, and app metadata under a home directory.
type FSStore struct {
	home   *home.Dir
	logger *slog.Logger
}

var _ BlobStore = (*FSStore)(nil)

// NewFSStore creates a store rooted at the home directory, creating the
// directory layout if needed.
func NewFSStore(dir *home.Dir, logger *slog.Logger) (*FSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := dir.EnsureExists(); err != nil {
		return nil, fmt.Errorf("ensure home directory: %w", err)
	}
	return &FSStore{home: dir, logger: logger}, nil
}

// Home exposes the underlying directory layout for components that need
// raw paths (exports, migration).
func (s *FSStore) Home() *home.Dir { return s.home }

// SaveImage writes image bytes under the id. Writes go through a temp file
// and rename so readers never observe a torn image.
func (s *FSStore) SaveImage(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.home.ImagePath(id)
	if err := writeFileAtomic(path, data); err != nil {
		return &PersistenceError{Op: "save image", Path: path, Err: err}
	}
	return nil
}

// LoadImage reads image bytes for the id.
func (s *FSStore) LoadImage(ctx context.Context, id string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := s.home.ImagePath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "load image", Path: path, Err: err}
	}
	return data, true, nil
}

// DeleteImage removes the image file for the id.
func (s *FSStore) DeleteImage(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path := s.home.ImagePath(id)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "delete image", Path: path, Err: err}
	}
	return true, nil
}

// SaveBook serializes the book to pretty-printed JSON. Every nested field,
// including per-scene layouts, round-trips through this path; dropping the
// layout here was a historical data-loss regression.
func (s *FSStore) SaveBook(ctx context.Context, book *types.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if book == nil || book.ID == "" {
		return fmt.Errorf("book must have an id")
	}
	data, err := json.MarshalIndent(book, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal book %s: %w", book.ID, err)
	}
	path := s.home.BookPath(book.ID)
	if err := writeFileAtomic(path, data); err != nil {
		return &PersistenceError{Op: "save book", Path: path, Err: err}
	}
	return nil
}

// LoadBook reads and validates one book file.
func (s *FSStore) LoadBook(ctx context.Context, id string) (*types.Book, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := s.home.BookPath(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "load book", Path: path, Err: err}
	}
	if err := schema.ValidateBook(data); err != nil {
		return nil, false, &PersistenceError{Op: "validate book", Path: path, Err: err}
	}
	var book types.Book
	if err := json.Unmarshal(data, &book); err != nil {
		return nil, false, &PersistenceError{Op: "decode book", Path: path, Err: err}
	}
	return &book, true, nil
}

// ListBookIDs scans the books directory for persisted book ids.
func (s *FSStore) ListBookIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.home.BooksPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "list books", Path: s.home.BooksPath(), Err: err}
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	return ids, nil
}

// DeleteBook removes the book file for the id.
func (s *FSStore) DeleteBook(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	path := s.home.BookPath(id)
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &PersistenceError{Op: "delete book", Path: path, Err: err}
	}
	return true, nil
}

// SaveAppMetadata persists the app metadata file.
func (s *FSStore) SaveAppMetadata(ctx context.Context, meta *AppMetadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal app metadata: %w", err)
	}
	path := s.home.AppMetadataPath()
	if err := writeFileAtomic(path, data); err != nil {
		return &PersistenceError{Op: "save app metadata", Path: path, Err: err}
	}
	return nil
}

// LoadAppMetadata reads the app metadata file.
func (s *FSStore) LoadAppMetadata(ctx context.Context) (*AppMetadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path := s.home.AppMetadataPath()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, &PersistenceError{Op: "load app metadata", Path: path, Err: err}
	}
	var meta AppMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, false, &PersistenceError{Op: "decode app metadata", Path: path, Err: err}
	}
	return &meta, true, nil
}

// writeFileAtomic writes to a temp file in the target directory and renames
// it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
