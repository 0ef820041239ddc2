package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"github.com/Lllllllleong/allergenflow/internal/services"
	"github.com/spf13/cobra"
)

var (
	mapIn      string
	mapOut     string
	mapProject string
	mapRegion  string
)

var mapCmd = &cobra.Command{
	Use:   "map",
	Short: "Map raw allergen text onto the standard categories with Gemini",
	RunE:  runMap,
}

func init() {
	mapCmd.Flags().StringVarP(&mapIn, "in", "i", "foodraw.txt", "dataset produced by collect")
	mapCmd.Flags().StringVarP(&mapOut, "out", "o", "", "output file (default from config, foodpreprocessed.txt)")
	mapCmd.Flags().StringVar(&mapProject, "project", "", "Google Cloud project (env PROJECT_ID)")
	mapCmd.Flags().StringVar(&mapRegion, "region", "", "Vertex AI region (env VERTEX_AI_REGION)")
}

func runMap(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}
	cfg := pipeline.Mapper

	out := mapOut
	if out == "" {
		out = cfg.OutputPath
	}
	project := mapProject
	if project == "" {
		project = gcp.GetEnv("PROJECT_ID", "")
	}
	region := mapRegion
	if region == "" {
		region = gcp.GetEnv("VERTEX_AI_REGION", "us-central1")
	}

	in, err := os.Open(mapIn)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", mapIn, err)
	}
	defer in.Close()

	vertexClient, err := gcp.NewVertexClient(cmd.Context(), project, region)
	if err != nil {
		return err
	}
	defer vertexClient.Close()

	logger := slog.With("in", mapIn, "out", out)

	var buf bytes.Buffer
	_, stats, err := services.MapDataset(cmd.Context(), cfg, in, &buf, services.ModelFactory(vertexClient, cfg.Strategy), logger)
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to save %s: %w", out, err)
	}

	logger.Info("Mapping saved.", "mapped", stats.Mapped, "empty", stats.Empty, "failed", stats.Failed)
	return nil
}
