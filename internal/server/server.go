package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/bookcache"
	"github.com/jackzampolin/prompter/internal/config"
	"github.com/jackzampolin/prompter/internal/export"
	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/imagecache"
	"github.com/jackzampolin/prompter/internal/imagegen"
	"github.com/jackzampolin/prompter/internal/migrate"
	"github.com/jackzampolin/prompter/internal/server/endpoints"
	"github.com/jackzampolin/prompter/internal/store"
	"github.com/jackzampolin/prompter/internal/svcctx"
	"github.com/jackzampolin/prompter/internal/textmeasure"
)

// Server is the main Prompter HTTP server. It owns the home directory
// lock, loads the book library on start, and releases both on shutdown.
type Server struct {
	httpServer *http.Server
	home       *home.Dir
	blobs      store.BlobStore
	books      *bookcache.Cache
	images     *imagecache.Cache
	generator  *reloadableGenerator
	exporter   *export.Exporter
	migrator   *migrate.Migrator
	configMgr  *config.Manager
	logger     *slog.Logger

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8090)
	Port int
	// Home is the prompter home directory
	Home *home.Dir
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Generator overrides the OpenRouter client; used in tests
	Generator imagegen.Generator
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8090
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Home == nil {
		return nil, errors.New("home directory is required")
	}

	fonts, err := textmeasure.NewFontLibrary()
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	blobs, err := store.NewFSStore(cfg.Home, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	imageCacheSize := 0
	if cfg.ConfigManager != nil {
		imageCacheSize = cfg.ConfigManager.Get().Cache.ImageCacheSize
	}

	s := &Server{
		home:      cfg.Home,
		blobs:     blobs,
		books:     bookcache.New(blobs, cfg.Logger),
		images:    imagecache.New(imagecache.Config{MaxSize: imageCacheSize, Logger: cfg.Logger}),
		generator: &reloadableGenerator{},
		exporter:  export.New(cfg.Home, cfg.Logger),
		migrator:  migrate.New(cfg.Logger),
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}

	if cfg.Generator != nil {
		s.generator.swap(cfg.Generator)
	} else if cfg.ConfigManager != nil {
		s.generator.swap(newGeneratorFromConfig(cfg.ConfigManager.Get(), cfg.Logger))

		// API key, model, and rate limit follow config file edits.
		cfg.ConfigManager.OnChange(func(c *config.Config) {
			s.generator.swap(newGeneratorFromConfig(c, cfg.Logger))
			s.images.SetMaxSize(c.Cache.ImageCacheSize)
			cfg.Logger.Info("image generator reloaded from config")
		})
	}

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{Fonts: fonts}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Image generation calls block the handler for minutes.
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// Start starts the server. It blocks until the context is cancelled or
// an error occurs. The home directory lock is held for the duration.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.home.EnsureExists(); err != nil {
		s.setNotRunning()
		return fmt.Errorf("failed to create home directory: %w", err)
	}
	if err := s.home.Acquire(); err != nil {
		s.setNotRunning()
		return err
	}
	s.logger.Info("home directory locked", "path", s.home.Path())

	// Load the book library before serving traffic that needs it.
	if err := s.books.LoadAll(ctx); err != nil {
		_ = s.home.Release()
		s.setNotRunning()
		return fmt.Errorf("failed to load book library: %w", err)
	}
	s.logger.Info("book library loaded", "books", s.books.Len())

	// Create services struct for context enrichment
	s.services = &svcctx.Services{
		Books:     s.books,
		Images:    s.images,
		Store:     s.blobs,
		Generator: s.generator,
		Exporter:  s.exporter,
		Migrator:  s.migrator,
		ConfigMgr: s.configMgr,
		Home:      s.home,
		Logger:    s.logger,
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown and releases the home lock.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.images.Clear()

	if err := s.home.Release(); err != nil {
		s.logger.Error("home lock release error", "error", err)
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Books returns the book cache.
// Returns an empty cache if the server hasn't started yet.
func (s *Server) Books() *bookcache.Cache {
	return s.books
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.services != nil {
			ctx = svcctx.WithServices(ctx, s.services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware that ensures the server is fully initialized.
// Returns 503 Service Unavailable until the book library is loaded.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.books.Loaded() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"server not fully initialized"}`))
			return
		}
		next(w, r)
	}
}

// newGeneratorFromConfig builds an OpenRouter client from config values.
func newGeneratorFromConfig(c *config.Config, logger *slog.Logger) imagegen.Generator {
	return imagegen.NewOpenRouterClient(imagegen.OpenRouterConfig{
		APIKey:            c.ResolvedAPIKey(),
		Model:             c.OpenRouter.Model,
		Timeout:           time.Duration(c.OpenRouter.TimeoutSeconds) * time.Second,
		RequestsPerMinute: c.OpenRouter.RateLimit,
		MaxRetries:        c.OpenRouter.MaxRetries,
		Logger:            logger,
	})
}

// reloadableGenerator swaps its inner generator on config reload without
// disturbing in-flight requests.
type reloadableGenerator struct {
	mu    sync.RWMutex
	inner imagegen.Generator
}

func (g *reloadableGenerator) swap(inner imagegen.Generator) {
	g.mu.Lock()
	g.inner = inner
	g.mu.Unlock()
}

func (g *reloadableGenerator) current() imagegen.Generator {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.inner
}

func (g *reloadableGenerator) Generate(ctx context.Context, req *imagegen.Request) (*imagegen.Result, error) {
	inner := g.current()
	if inner == nil {
		return nil, errors.New("image generation is not configured")
	}
	return inner.Generate(ctx, req)
}

func (g *reloadableGenerator) Model() string {
	inner := g.current()
	if inner == nil {
		return ""
	}
	return inner.Model()
}
