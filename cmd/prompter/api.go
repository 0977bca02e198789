package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Prompter server via HTTP.

These commands require a running server (prompter serve).
Use --server to specify a custom server URL.

Examples:
  prompter api health              # Check server health
  prompter api books list          # List all books
  prompter api books get <id>      # Get a specific book`,
}

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Book management commands",
}

var scenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "Scene generation and composition commands",
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "App settings commands",
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Image cache commands",
}

var textCmd = &cobra.Command{
	Use:   "text",
	Short: "Text measurement commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8090", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))

	// Books as subcommand group
	booksCmd.AddCommand((&endpoints.ListBooksEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.GetBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.CreateBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.UpdateBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.DeleteBookEndpoint{}).Command(getServerURL))
	booksCmd.AddCommand((&endpoints.ExportBookEndpoint{}).Command(getServerURL))

	// Scenes as subcommand group
	scenesCmd.AddCommand((&endpoints.GenerateSceneEndpoint{}).Command(getServerURL))
	scenesCmd.AddCommand((&endpoints.ComposeSceneEndpoint{}).Command(getServerURL))
	scenesCmd.AddCommand((&endpoints.SceneLayoutEndpoint{}).Command(getServerURL))

	// Layout presets at top level
	apiCmd.AddCommand((&endpoints.LayoutPresetsEndpoint{}).Command(getServerURL))

	// Text measurement as subcommand group
	textCmd.AddCommand((&endpoints.MeasureTextEndpoint{}).Command(getServerURL))

	// Settings as subcommand group
	settingsCmd.AddCommand((&endpoints.SettingsEndpoint{}).Command(getServerURL))
	settingsCmd.AddCommand((&endpoints.UpdateSettingsEndpoint{}).Command(getServerURL))

	// Cache as subcommand group
	cacheCmd.AddCommand((&endpoints.CacheStatsEndpoint{}).Command(getServerURL))
	cacheCmd.AddCommand((&endpoints.CacheClearEndpoint{}).Command(getServerURL))

	// Migration at top level
	apiCmd.AddCommand((&endpoints.MigrateEndpoint{}).Command(getServerURL))

	apiCmd.AddCommand(booksCmd)
	apiCmd.AddCommand(scenesCmd)
	apiCmd.AddCommand(textCmd)
	apiCmd.AddCommand(settingsCmd)
	apiCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(apiCmd)
}
