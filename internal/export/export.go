// Package export writes books out as PDF files, one page per scene image.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/types"
)

// Exporter renders books to PDFs under the home exports directory.
type Exporter struct {
	home   *home.Dir
	logger *slog.Logger
}

// New creates an Exporter.
func New(dir *home.Dir, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{home: dir, logger: logger}
}

// Result describes a finished export.
type Result struct {
	Path   string `json:"path"`
	Pages  int    `json:"pages"`
	BookID string `json:"bookId"`
}

// BookPDF assembles the latest image of every scene, in story order, into
// a single PDF. Scenes with no generated image yet are skipped. Fails if
// the book has no images at all.
func (e *Exporter) BookPDF(ctx context.Context, book *types.Book) (*Result, error) {
	if book == nil || book.ID == "" {
		return nil, fmt.Errorf("book must have an id")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var pages []string
	var skipped int
	for si := range book.Stories {
		story := &book.Stories[si]
		for sj := range story.Scenes {
			scene := &story.Scenes[sj]
			entry, ok := scene.LatestImage()
			if !ok {
				skipped++
				continue
			}
			path := e.home.ImagePath(entry.ImageID)
			if _, err := os.Stat(path); err != nil {
				e.logger.Warn("scene image missing on disk, skipping page",
					"scene", scene.ID, "image", entry.ImageID)
				skipped++
				continue
			}
			pages = append(pages, path)
		}
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("book %s has no scene images to export", book.ID)
	}

	if err := os.MkdirAll(e.home.ExportsPath(), 0o755); err != nil {
		return nil, fmt.Errorf("create exports directory: %w", err)
	}
	outPath := filepath.Join(e.home.ExportsPath(), book.ID+".pdf")

	// nil import config: each image becomes one full page sized to the image.
	if err := api.ImportImagesFile(pages, outPath, nil, nil); err != nil {
		return nil, fmt.Errorf("failed to build PDF: %w", err)
	}

	e.logger.Info("exported book", "book", book.ID, "pages", len(pages), "skipped", skipped, "path", outPath)
	return &Result{Path: outPath, Pages: len(pages), BookID: book.ID}, nil
}
