package endpoints

import (
	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/internal/textmeasure"
)

// Config holds dependencies needed by some endpoints.
type Config struct {
	Fonts *textmeasure.FontLibrary
}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},
		&StatusEndpoint{},

		// Book endpoints
		&ListBooksEndpoint{},
		&GetBookEndpoint{},
		&CreateBookEndpoint{},
		&UpdateBookEndpoint{},
		&DeleteBookEndpoint{},
		&ExportBookEndpoint{},

		// Scene endpoints
		&GenerateSceneEndpoint{},
		&ComposeSceneEndpoint{Fonts: cfg.Fonts},
		&SceneLayoutEndpoint{},

		// Layout and text endpoints
		&LayoutPresetsEndpoint{},
		&MeasureTextEndpoint{Fonts: cfg.Fonts},

		// Settings endpoints
		&SettingsEndpoint{},
		&UpdateSettingsEndpoint{},

		// Admin endpoints
		&CacheStatsEndpoint{},
		&CacheClearEndpoint{},
		&MigrateEndpoint{},
	}
}
