package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/config"
	"github.com/jackzampolin/prompter/internal/home"
	"github.com/jackzampolin/prompter/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Prompter server",
	Long: `Start the Prompter HTTP server.

The server loads the book library from the home directory on startup
and holds an advisory lock on it; a second server pointed at the same
home fails fast.

Examples:
  prompter serve                    # Start on default port 8090
  prompter serve --port 3000        # Start on custom port
  prompter serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		host := serveHost
		port := servePort
		if !cmd.Flags().Changed("host") {
			host = cm.Get().Server.Host
		}
		if !cmd.Flags().Changed("port") {
			port = cm.Get().Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "127.0.0.1", "Host to bind to")
	serveCmd.Flags().IntVar(&servePort, "port", 8090, "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
