// Command allergenflow runs the allergen dataset pipeline against local files.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "allergenflow",
	Short: "Build a food allergen dataset from Open Food Facts",
	Long: `allergenflow collects food products with and without allergens from the
Open Food Facts search API, maps their raw allergen text onto nine standard
categories with Gemini and exports the result.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(os.Stderr, logLevel)
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "pipeline YAML overriding the built-in defaults (env PIPELINE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error (env LOG_LEVEL)")

	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(mapCmd)
	rootCmd.AddCommand(exportCmd)
}

func initConfig() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found or error loading it", "error", err)
	}

	if configPath == "" {
		configPath = gcp.GetEnv("PIPELINE_CONFIG", "")
	}
	if !rootCmd.PersistentFlags().Changed("log-level") {
		logLevel = gcp.GetEnv("LOG_LEVEL", logLevel)
	}
}

func loadPipeline() (*config.Config, error) {
	return config.Load(configPath)
}
