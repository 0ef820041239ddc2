package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Lllllllleong/allergenflow/internal/collector"
	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/dataset"
	"github.com/Lllllllleong/allergenflow/internal/foodapi"
	"github.com/Lllllllleong/allergenflow/internal/mapper"
	"github.com/Lllllllleong/allergenflow/internal/models"
)

// CollectDataset crawls the product API and writes the two-block dataset to w.
func CollectDataset(ctx context.Context, cfg config.CollectorConfig, w io.Writer, logger *slog.Logger) (collector.Summary, error) {
	c := collector.New(foodapi.NewClient(cfg, logger), cfg, logger)

	state := collector.NewState()
	if err := c.Collect(ctx, state); err != nil {
		return collector.Summary{}, fmt.Errorf("collection aborted: %w", err)
	}

	if _, err := dataset.WriteBlocks(w, dataset.LayoutFromConfig(cfg.Output), state.Safe, state.Allergen); err != nil {
		return collector.Summary{}, fmt.Errorf("failed to write dataset: %w", err)
	}

	return collector.Summarize(state), nil
}

// MapDataset reads a dataset from r, fills the mapped allergen column with the first
// working candidate model and writes the result to w.
func MapDataset(ctx context.Context, cfg config.MapperConfig, r io.Reader, w io.Writer, factory mapper.ModelFactory, logger *slog.Logger) (*dataset.Table, mapper.Stats, error) {
	table, err := dataset.ReadTable(r, cfg.InputColumn, cfg.FallbackColumn)
	if err != nil {
		return nil, mapper.Stats{}, fmt.Errorf("failed to read dataset: %w", err)
	}
	if table.RawColumn != cfg.InputColumn {
		logger.Warn("Input column not found. Using fallback.", "want", cfg.InputColumn, "using", table.RawColumn)
	}

	modelName, model, err := mapper.SelectModel(ctx, cfg.CandidateModels, factory, cfg.CallTimeout(), logger)
	if err != nil {
		return nil, mapper.Stats{}, err
	}
	logger = logger.With("model", modelName)

	m := mapper.New(mapper.NewClassifier(model, cfg, logger), cfg, logger)
	stats, err := m.MapTable(ctx, table)
	if err != nil {
		return nil, stats, fmt.Errorf("mapping aborted: %w", err)
	}

	if err := dataset.WriteTable(w, table, cfg.OutputColumns); err != nil {
		return nil, stats, fmt.Errorf("failed to write mapped dataset: %w", err)
	}

	return table, stats, nil
}

// FoodItems converts a mapped table into the documents published for downstream apps.
func FoodItems(runID string, table *dataset.Table) []models.FoodItemDoc {
	items := make([]models.FoodItemDoc, 0, table.Len())
	for i, row := range table.Rows {
		items = append(items, models.FoodItemDoc{
			RunID:           runID,
			DataID:          row.ID,
			Name:            row.Name,
			Ingredients:     row.Ingredients,
			Allergens:       table.RawAllergens(i),
			MappedAllergens: row.AllergensMapped,
		})
	}
	return items
}
