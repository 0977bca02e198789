package config

// Config holds prompter configuration.
// Stored at: {home}/config.yaml
type Config struct {
	Server     ServerCfg     `mapstructure:"server" yaml:"server"`
	OpenRouter OpenRouterCfg `mapstructure:"openrouter" yaml:"openrouter"`
	Cache      CacheCfg      `mapstructure:"cache" yaml:"cache"`
	Defaults   DefaultsCfg   `mapstructure:"defaults" yaml:"defaults"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// OpenRouterCfg configures the image generation client.
type OpenRouterCfg struct {
	APIKey string `mapstructure:"api_key" yaml:"api_key"` // API key (supports ${ENV_VAR} syntax)
	Model  string `mapstructure:"model" yaml:"model"`     // Image model name
	// RateLimit is requests per minute; image models are slow and expensive.
	RateLimit      int `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxRetries     int `mapstructure:"max_retries" yaml:"max_retries"`
	TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// CacheCfg configures in-memory caches.
type CacheCfg struct {
	// ImageCacheSize is the max number of decoded images kept in memory.
	ImageCacheSize int `mapstructure:"image_cache_size" yaml:"image_cache_size"`
}

// DefaultsCfg holds app-level behavior defaults.
type DefaultsCfg struct {
	// AutoSaveImages persists every generated image to disk immediately.
	AutoSaveImages bool `mapstructure:"auto_save_images" yaml:"auto_save_images"`
	// AspectRatio is the canvas aspect ratio for new books.
	AspectRatio string `mapstructure:"aspect_ratio" yaml:"aspect_ratio"`
	// Layout is the layout preset for new scenes.
	Layout string `mapstructure:"layout" yaml:"layout"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host: "127.0.0.1",
			Port: 8090,
		},
		OpenRouter: OpenRouterCfg{
			APIKey:         "${OPENROUTER_API_KEY}",
			Model:          "google/gemini-2.5-flash-image",
			RateLimit:      20,
			MaxRetries:     3,
			TimeoutSeconds: 300,
		},
		Cache: CacheCfg{
			ImageCacheSize: 100,
		},
		Defaults: DefaultsCfg{
			AutoSaveImages: true,
			AspectRatio:    "16:9",
			Layout:         "overlay",
		},
	}
}
