// Package bookcache holds every book in memory and writes mutations through
// to the blob store. Reads after the initial load never touch the disk.
package bookcache

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jackzampolin/prompter/internal/store"
	"github.com/jackzampolin/prompter/internal/types"
)

// Cache is the in-memory book collection. The map is authoritative once
// loaded; persistence failures are reported but never roll back memory.
type Cache struct {
	store  store.BlobStore
	logger *slog.Logger

	mu     sync.Mutex
	books  map[string]*types.Book
	loaded bool
	// inflight coalesces concurrent LoadAll calls onto one disk scan.
	inflight chan struct{}
	loadErr  error
}

// New creates a cache over the given store. Books are not loaded until the
// first LoadAll call.
func New(st store.BlobStore, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  st,
		logger: logger,
		books:  make(map[string]*types.Book),
	}
}

// LoadAll reads every book from the store into memory. Concurrent callers
// share a single underlying scan; later calls return the cached collection
// without touching the store again. Books that fail validation are skipped
// with a warning so one corrupt file cannot block the rest of the library.
func (c *Cache) LoadAll(ctx context.Context) error {
	c.mu.Lock()
	if c.loaded {
		c.mu.Unlock()
		return nil
	}
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()
		select {
		case <-done:
			c.mu.Lock()
			err := c.loadErr
			c.mu.Unlock()
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	err := c.loadAll(ctx)

	c.mu.Lock()
	c.loadErr = err
	if err == nil {
		c.loaded = true
	}
	c.inflight = nil
	close(done)
	c.mu.Unlock()
	return err
}

func (c *Cache) loadAll(ctx context.Context) error {
	ids, err := c.store.ListBookIDs(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	loaded := make(map[string]*types.Book, len(ids))
	for _, id := range ids {
		book, ok, err := c.store.LoadBook(ctx, id)
		if err != nil {
			c.logger.Warn("skipping unreadable book", "id", id, "error", err)
			continue
		}
		if !ok {
			continue
		}
		loaded[book.ID] = book
	}
	c.mu.Lock()
	c.books = loaded
	c.mu.Unlock()
	c.logger.Info("loaded books", "count", len(loaded))
	return nil
}

// Get returns the book with the given id, or nil.
func (c *Cache) Get(id string) *types.Book {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.books[id]
}

// List returns every cached book sorted by title, ties broken by id.
func (c *Cache) List() []*types.Book {
	c.mu.Lock()
	out := make([]*types.Book, 0, len(c.books))
	for _, b := range c.books {
		out = append(out, b)
	}
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Title != out[j].Title {
			return out[i].Title < out[j].Title
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of cached books.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.books)
}

// Loaded reports whether LoadAll has completed successfully.
func (c *Cache) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// Set updates the in-memory book synchronously, then writes through to the
// store. A persistence failure is returned but the memory update stands;
// the caller surfaces the error and the user can retry the save.
func (c *Cache) Set(ctx context.Context, book *types.Book) error {
	if book == nil || book.ID == "" {
		return fmt.Errorf("book must have an id")
	}
	c.mu.Lock()
	c.books[book.ID] = book
	c.mu.Unlock()

	if err := c.store.SaveBook(ctx, book); err != nil {
		c.logger.Error("book save failed, memory retains the update", "id", book.ID, "error", err)
		return err
	}
	return nil
}

// Delete removes the book from memory and from the store. Returns whether
// the book existed in memory.
func (c *Cache) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	_, existed := c.books[id]
	delete(c.books, id)
	c.mu.Unlock()

	if _, err := c.store.DeleteBook(ctx, id); err != nil {
		c.logger.Error("book delete failed on disk", "id", id, "error", err)
		return existed, err
	}
	return existed, nil
}
