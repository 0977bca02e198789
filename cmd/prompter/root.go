package main

import (
	"github.com/spf13/cobra"

	"github.com/jackzampolin/prompter/internal/api"
	"github.com/jackzampolin/prompter/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "prompter",
	Short: "AI-illustrated storybook builder",
	Long: `Prompter turns written stories into illustrated books with
AI-generated scene images.

Books hold stories, stories hold scenes. Each scene carries a prompt
assembled from its description, setting, and characters; generated
images accumulate in a per-scene history. Scenes are composed into
final pages with text panels and diagram overlays, and books export
to PDF.`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.prompter/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "prompter home directory (default: ~/.prompter)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
