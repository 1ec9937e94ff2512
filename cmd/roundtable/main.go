// Package main implements the roundtable CLI: running research queries
// locally, serving the HTTP API, and inspecting a running server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/seaforthlabs/roundtable/internal/config"
	"github.com/seaforthlabs/roundtable/internal/logging"
)

var (
	// configPath is the optional YAML configuration file.
	configPath string
	// serverURL is the base URL used by client commands.
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Safety-gated multi-role research assistant",
	Long: `roundtable answers research questions by passing them through a
planner, researcher, writer and critic, with safety checks on both the
query and the answer.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Environment files are optional; real environment always wins.
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "roundtable server URL")
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(safetyCmd)
	rootCmd.AddCommand(healthCmd)
}

// loadConfig loads configuration and builds the logger shared by the
// local commands.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}
