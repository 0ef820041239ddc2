package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/allergenflow/internal/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	collectOut            string
	collectTargetAllergen int
	collectTargetSafe     int
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect products into a semicolon-delimited dataset",
	RunE:  runCollect,
}

func init() {
	collectCmd.Flags().StringVarP(&collectOut, "out", "o", "", "output file (default from config, foodraw.txt)")
	collectCmd.Flags().IntVar(&collectTargetAllergen, "target-allergens", 0, "products with allergens to collect (default from config)")
	collectCmd.Flags().IntVar(&collectTargetSafe, "target-safe", 0, "products without allergens to collect (default from config)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	cfg := pipeline.Collector
	if collectTargetAllergen > 0 {
		cfg.Allergen.Target = collectTargetAllergen
	}
	if collectTargetSafe > 0 {
		cfg.Safe.Target = collectTargetSafe
	}
	out := collectOut
	if out == "" {
		out = cfg.Output.Path
	}

	logger := slog.With("runId", uuid.NewString(), "out", out)
	logger.Info("Starting collection.", "allergenTarget", cfg.Allergen.Target, "safeTarget", cfg.Safe.Target)

	// Buffer so a failed run never leaves a partial file behind.
	var buf bytes.Buffer
	summary, err := services.CollectDataset(cmd.Context(), cfg, &buf, logger)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}

	logger.Info(
		"Dataset saved.",
		"safeCount", summary.SafeCount,
		"allergenCount", summary.AllergenCount,
		"avgSafeIngredientChars", summary.AvgSafeIngredientChars,
		"avgAllergenIngredientChars", summary.AvgAllergenIngredientChars,
	)
	return nil
}
