package mapper

import (
	"context"
	"log/slog"

	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/dataset"
	"golang.org/x/time/rate"
)

// Stats counts classification outcomes for a table.
type Stats struct {
	Mapped int
	Empty  int
	Failed int
}

func (s *Stats) add(r Result) {
	switch r.Outcome {
	case OutcomeMapped:
		s.Mapped++
	case OutcomeEmpty:
		s.Empty++
	default:
		s.Failed++
	}
}

// Mapper fills the mapped allergen column of a dataset table.
type Mapper struct {
	classifier *Classifier
	cfg        config.MapperConfig
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a mapper. Model calls are paced one per configured batch interval.
func New(classifier *Classifier, cfg config.MapperConfig, logger *slog.Logger) *Mapper {
	limit := rate.Inf
	if interval := cfg.BatchInterval(); interval > 0 {
		limit = rate.Every(interval)
	}

	return &Mapper{
		classifier: classifier,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, 1),
		logger:     logger,
	}
}

// MapTable classifies every row's raw allergen text and stores the result in
// AllergensMapped. Failed rows get "". Only context errors are returned.
func (m *Mapper) MapTable(ctx context.Context, table *dataset.Table) (Stats, error) {
	var stats Stats
	total := table.Len()

	logCtx := m.logger.With("rows", total, "column", table.RawColumn, "strategy", m.cfg.Strategy)
	logCtx.Info("Processing items.")

	if m.cfg.Strategy == config.StrategySingle {
		for i := range total {
			if err := m.limiter.Wait(ctx); err != nil {
				return stats, err
			}
			r := m.classifier.ClassifyOne(ctx, table.RawAllergens(i))
			table.Rows[i].AllergensMapped = r.Value
			stats.add(r)
		}
	} else {
		for start := 0; start < total; start += m.cfg.BatchSize {
			end := min(start+m.cfg.BatchSize, total)

			if err := m.limiter.Wait(ctx); err != nil {
				return stats, err
			}

			phrases := make([]string, 0, end-start)
			for i := start; i < end; i++ {
				phrases = append(phrases, table.RawAllergens(i))
			}

			logCtx.Info("Processing batch.", "from", start, "to", end)
			batch := m.classifier.ClassifyBatch(ctx, phrases)
			for j, r := range batch.Results {
				table.Rows[start+j].AllergensMapped = r.Value
				stats.add(r)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	logCtx.Info("Mapping completed.", "mapped", stats.Mapped, "empty", stats.Empty, "failed", stats.Failed)
	return stats, nil
}
