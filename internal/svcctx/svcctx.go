// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/jackzampolin/prompter/internal/bookcache"
	"github.com/jackzampolin/prompter/internal/config"
	"github.com/jackzampolin/prompter/internal/export"
	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/imagecache"
	"github.com/jackzampolin/prompter/internal/imagegen"
	"github.com/jackzampolin/prompter/internal/migrate"
	"github.com/jackzampolin/prompter/internal/store"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Books     *bookcache.Cache
	Images    *imagecache.Cache
	Store     store.BlobStore
	Generator imagegen.Generator
	Exporter  *export.Exporter
	Migrator  *migrate.Migrator
	ConfigMgr *config.Manager
	Home      *home.Dir
	Logger    *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// BooksFrom extracts the book cache from context.
func BooksFrom(ctx context.Context) *bookcache.Cache {
	if s := ServicesFrom(ctx); s != nil {
		return s.Books
	}
	return nil
}

// ImagesFrom extracts the image cache from context.
func ImagesFrom(ctx context.Context) *imagecache.Cache {
	if s := ServicesFrom(ctx); s != nil {
		return s.Images
	}
	return nil
}

// StoreFrom extracts the blob store from context.
func StoreFrom(ctx context.Context) store.BlobStore {
	if s := ServicesFrom(ctx); s != nil {
		return s.Store
	}
	return nil
}

// GeneratorFrom extracts the image generator from context.
func GeneratorFrom(ctx context.Context) imagegen.Generator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Generator
	}
	return nil
}

// ExporterFrom extracts the PDF exporter from context.
func ExporterFrom(ctx context.Context) *export.Exporter {
	if s := ServicesFrom(ctx); s != nil {
		return s.Exporter
	}
	return nil
}

// MigratorFrom extracts the home directory migrator from context.
func MigratorFrom(ctx context.Context) *migrate.Migrator {
	if s := ServicesFrom(ctx); s != nil {
		return s.Migrator
	}
	return nil
}

// ConfigManagerFrom extracts the config manager from context.
func ConfigManagerFrom(ctx context.Context) *config.Manager {
	if s := ServicesFrom(ctx); s != nil {
		return s.ConfigMgr
	}
	return nil
}

// HomeFrom extracts the home directory from context.
func HomeFrom(ctx context.Context) *home.Dir {
	if s := ServicesFrom(ctx); s != nil {
		return s.Home
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
