// Package foodapi is a small client for the Open Food Facts product search API.
package foodapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Lllllllleong/allergenflow/internal/config"
)

// Errors returned by Search.
var (
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrRetriesExhausted     = errors.New("search retries exhausted")
)

// searchFields is the field list requested for every product.
const searchFields = "code,product_name,product_name_en,ingredients_text,ingredients_text_en,allergens,allergens_tags,allergens_from_ingredients"

// maxResponseBytes bounds how much of a search response is read.
const maxResponseBytes = 8 << 20

// Product is the subset of an upstream product used by the collector.
type Product struct {
	Code                     string   `json:"code"`
	ProductName              string   `json:"product_name"`
	ProductNameEN            string   `json:"product_name_en"`
	IngredientsText          string   `json:"ingredients_text"`
	IngredientsTextEN        string   `json:"ingredients_text_en"`
	Allergens                string   `json:"allergens"`
	AllergensTags            []string `json:"allergens_tags"`
	AllergensFromIngredients string   `json:"allergens_from_ingredients"`
}

// Name prefers the English product name.
func (p Product) Name() string {
	if p.ProductNameEN != "" {
		return p.ProductNameEN
	}
	return p.ProductName
}

// Ingredients prefers the English ingredient list.
func (p Product) Ingredients() string {
	if p.IngredientsTextEN != "" {
		return p.IngredientsTextEN
	}
	return p.IngredientsText
}

type searchResponse struct {
	Products []Product `json:"products"`
}

// Client performs paginated product searches with bounded retries.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageSize   int
	retry      config.RetryPolicy
	logger     *slog.Logger
}

// NewClient creates a search client from the collector configuration.
func NewClient(cfg config.CollectorConfig, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Retry.GetTimeout()},
		baseURL:    cfg.APIURL,
		userAgent:  cfg.UserAgent,
		pageSize:   cfg.PageSize,
		retry:      cfg.Retry,
		logger:     logger,
	}
}

// Search fetches the first page of products matching term.
// Network errors and retryable statuses are retried with backoff; rate limiting (429)
// waits linearly longer on each attempt. Once the attempts are spent it returns
// an error wrapping ErrRetriesExhausted.
func (c *Client) Search(ctx context.Context, term string) ([]Product, error) {
	var lastErr error

	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		products, statusCode, err := c.searchOnce(ctx, term)
		if err == nil {
			return products, nil
		}
		lastErr = err

		if statusCode != 0 && !isRetryableStatus(statusCode) {
			return nil, err
		}

		if attempt == c.retry.MaxAttempts {
			break
		}

		delay := c.retry.GetRetryDelay(attempt)
		if statusCode == http.StatusTooManyRequests {
			delay = c.retry.GetRateLimitDelay(attempt)
		}

		c.logger.Warn(
			"Search failed, will retry.",
			"term", term,
			"attempt", attempt,
			"maxRetries", c.retry.MaxAttempts,
			"backoff", delay.String(),
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("%w for %q after %d attempts: %w", ErrRetriesExhausted, term, c.retry.MaxAttempts, lastErr)
}

// searchOnce performs a single request. A non-zero status code is returned for HTTP-level failures.
func (c *Client) searchOnce(ctx context.Context, term string) ([]Product, int, error) {
	params := url.Values{}
	params.Set("search_terms", term)
	params.Set("page_size", strconv.Itoa(c.pageSize))
	params.Set("json", "1")
	params.Set("lc", "en")
	params.Set("fields", searchFields)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&body); err != nil {
		// A malformed body is not worth retrying; the caller skips the term.
		return nil, resp.StatusCode, fmt.Errorf("failed to decode search response: %w", err)
	}

	return body.Products, 0, nil
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusRequestTimeout,      // 408
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	}

	return false
}
