package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Lllllllleong/allergenflow/internal/dataset"
	"github.com/Lllllllleong/allergenflow/internal/export"
	"github.com/spf13/cobra"
)

var (
	exportIn string
	exportDB string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a mapped dataset into a SQLite database",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportIn, "in", "i", "foodpreprocessed.txt", "mapped dataset")
	exportCmd.Flags().StringVar(&exportDB, "db", "food.sqlite", "SQLite database to (re)create")
}

func runExport(cmd *cobra.Command, args []string) error {
	pipeline, err := loadPipeline()
	if err != nil {
		return err
	}

	in, err := os.Open(exportIn)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", exportIn, err)
	}
	defer in.Close()

	table, err := dataset.ReadTable(in, pipeline.Mapper.InputColumn, pipeline.Mapper.FallbackColumn)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", exportIn, err)
	}

	n, err := export.WriteSQLite(cmd.Context(), exportDB, table)
	if err != nil {
		return err
	}

	slog.Info("Export complete.", "db", exportDB, "table", export.TableName, "rows", n)
	return nil
}
