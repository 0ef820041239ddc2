package mapper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
)

// ErrNoWorkingModel is returned when no candidate model answers the probe prompt.
var ErrNoWorkingModel = errors.New("no working model found")

// ModelFactory builds a Generator for a model name.
type ModelFactory func(name string) Generator

// SelectModel probes candidates in priority order with a trivial prompt and returns the
// first one that answers. Quota-exhausted or unavailable models are skipped.
func SelectModel(ctx context.Context, candidates []string, factory ModelFactory, timeout time.Duration, logger *slog.Logger) (string, Generator, error) {
	var errs []error

	for _, name := range candidates {
		logCtx := logger.With("model", name)
		logCtx.Info("Testing model.")

		model := factory(name)

		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		_, err := model.GenerateContent(probeCtx, genai.Text(gcp.ModelProbePrompt))
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return "", nil, ctx.Err()
			}
			logCtx.Warn("Model unavailable. Skipping.", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		logCtx.Info("Model is working.")
		return name, model, nil
	}

	return "", nil, fmt.Errorf("%w: %w", ErrNoWorkingModel, errors.Join(errs...))
}
