// Package mapper maps raw allergen text onto the fixed allergen categories with a
// generative model.
package mapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/vertexai/genai"
	"github.com/Lllllllleong/allergenflow/internal/allergen"
	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/gcp"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Generator is the part of a generative model the mapper uses.
type Generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Classifier sends raw allergen phrases to a model and canonicalizes the answers.
type Classifier struct {
	model  Generator
	cfg    config.MapperConfig
	logger *slog.Logger
}

// NewClassifier creates a classifier around a pinned model.
func NewClassifier(model Generator, cfg config.MapperConfig, logger *slog.Logger) *Classifier {
	return &Classifier{model: model, cfg: cfg, logger: logger}
}

// ClassifyBatch maps every phrase in one model call. The result always has one entry per
// phrase; a call error or an unusable response fails every entry.
func (c *Classifier) ClassifyBatch(ctx context.Context, phrases []string) BatchResult {
	clean := make([]string, len(phrases))
	pending := false
	for i, p := range phrases {
		if !allergen.IsEmpty(p) {
			clean[i] = strings.TrimSpace(p)
			pending = true
		}
	}

	// Nothing to ask about.
	if !pending {
		return emptyBatch(len(phrases))
	}

	input, err := json.Marshal(clean)
	if err != nil {
		return failedBatch(len(phrases), fmt.Errorf("failed to encode batch: %w", err))
	}
	prompt := fmt.Sprintf(gcp.AllergenBatchPrompt, vocabularyList(), len(clean), input)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Error("Batch classification failed.", "size", len(phrases), "error", err)
		return failedBatch(len(phrases), err)
	}

	values, err := parseList(text)
	if err != nil {
		c.logger.Error("Failed to parse batch response.", "error", err)
		return failedBatch(len(phrases), err)
	}
	if len(values) != len(phrases) {
		err := fmt.Errorf("%w: got %d, want %d", ErrLengthMismatch, len(values), len(phrases))
		c.logger.Warn("Batch mismatch. Filling with blanks.", "error", err)
		return failedBatch(len(phrases), err)
	}

	results := make([]Result, len(phrases))
	for i, v := range values {
		if clean[i] == "" {
			results[i] = Result{Outcome: OutcomeEmpty}
			continue
		}
		results[i] = mappedResult(allergen.Canonicalize(allergen.StripArtifacts(v)))
	}

	return BatchResult{Results: results}
}

// ClassifyOne maps a single phrase with a plain-text prompt.
func (c *Classifier) ClassifyOne(ctx context.Context, phrase string) Result {
	if allergen.IsEmpty(phrase) {
		return Result{Outcome: OutcomeEmpty}
	}

	prompt := fmt.Sprintf(gcp.AllergenSinglePrompt, vocabularyList(), strings.TrimSpace(phrase))

	text, err := c.generate(ctx, prompt)
	if err != nil {
		c.logger.Error("Classification failed.", "phrase", phrase, "error", err)
		return Result{Outcome: OutcomeFailed, Err: err}
	}

	answer := strings.ToLower(strings.TrimSpace(unfence(text)))
	return mappedResult(allergen.Canonicalize(allergen.StripArtifacts(answer)))
}

// generate calls the model, retrying only rate-limit errors after a fixed delay.
func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error

	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.CallTimeout())
		resp, err := c.model.GenerateContent(callCtx, genai.Text(prompt))
		cancel()

		if err == nil {
			return responseText(resp)
		}

		if !isRateLimited(err) {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		lastErr = err
		if attempt == c.cfg.MaxAttempts {
			break
		}

		delay := c.cfg.RateLimitDelay()
		c.logger.Warn("Rate limit hit. Waiting before retry.", "attempt", attempt, "delay", delay)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", fmt.Errorf("rate limited after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

// isRateLimited reports whether err is a quota or rate-limit error from the model API.
func isRateLimited(err error) bool {
	if status.Code(err) == codes.ResourceExhausted {
		return true
	}

	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests
}

func vocabularyList() string {
	names := make([]string, len(allergen.Vocabulary))
	for i, c := range allergen.Vocabulary {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
