// Package store abstracts the filesystem the app persists to. The core
// treats it as an async key-value blob store with directory semantics;
// whether the real backing is a native filesystem or a sandboxed browser
// API is invisible above this interface.
package store

import (
	"context"
	"fmt"

	"github.com/jackzampolin/prompter/internal/types"
)

// Settings are the user preferences persisted in the app metadata file.
type Settings struct {
	OpenRouterAPIKey     string `json:"openRouterApiKey,omitempty"`
	ImageGenerationModel string `json:"imageGenerationModel,omitempty"`
	AutoSaveImages       bool   `json:"autoSaveImages,omitempty"`
}

// AppMetadata is the app-level metadata file: the active book plus settings.
type AppMetadata struct {
	ActiveBookID string   `json:"activeBookId,omitempty"`
	Settings     Settings `json:"settings"`
}

// BlobStore is the persistence collaborator consumed by the core.
type BlobStore interface {
	// SaveImage persists image bytes under an opaque id.
	SaveImage(ctx context.Context, id string, data []byte) error
	// LoadImage returns the bytes for an id, or ok=false when absent.
	LoadImage(ctx context.Context, id string) (data []byte, ok bool, err error)
	// DeleteImage removes an image; returns whether it existed.
	DeleteImage(ctx context.Context, id string) (bool, error)

	// SaveBook persists a book as one JSON file.
	SaveBook(ctx context.Context, book *types.Book) error
	// LoadBook reads one book by id, or ok=false when absent.
	LoadBook(ctx context.Context, id string) (book *types.Book, ok bool, err error)
	// ListBookIDs returns the ids of every persisted book.
	ListBookIDs(ctx context.Context) ([]string, error)
	// DeleteBook removes a book file; returns whether it existed.
	DeleteBook(ctx context.Context, id string) (bool, error)

	// SaveAppMetadata persists the app metadata file.
	SaveAppMetadata(ctx context.Context, meta *AppMetadata) error
	// LoadAppMetadata reads the app metadata file, or ok=false when absent.
	LoadAppMetadata(ctx context.Context) (meta *AppMetadata, ok bool, err error)
}

// PersistenceError reports a filesystem read/write failure. The in-memory
// state stays authoritative; the operation is reported as failed to the UI
// layer and the app keeps running.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
