// Package config provides the tunable pipeline configuration for the collector and mapper.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed pipeline.yaml
var defaultPipelineYAML []byte

// Configuration validation errors.
var (
	ErrMissingAPIURL            = errors.New("collector.api_url is required")
	ErrInvalidPageSize          = errors.New("collector.page_size must be at least 1")
	ErrInvalidTarget            = errors.New("collector target counts must be non-negative")
	ErrNoTerms                  = errors.New("collector blocks with a positive target need at least one search term")
	ErrNoAllergenKeywords       = errors.New("collector.allergen_keywords must not be empty")
	ErrMissingColumns           = errors.New("output columns must not be empty")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
	ErrInvalidBatchSize         = errors.New("mapper.batch_size must be at least 1")
	ErrInvalidStrategy          = errors.New("mapper.strategy must be 'batch' or 'single'")
	ErrNoCandidateModels        = errors.New("mapper.candidate_models must not be empty")
	ErrMissingInputColumn       = errors.New("mapper.input_column is required")
	ErrUnknownColumn            = errors.New("unknown column")
)

// Column names understood by the dataset files.
const (
	ColumnID              = "id"
	ColumnCode            = "code"
	ColumnName            = "name"
	ColumnLink            = "link"
	ColumnIngredients     = "ingredients"
	ColumnAllergensRaw    = "allergensraw"
	ColumnAllergens       = "allergens"
	ColumnAllergensMapped = "allergensmapped"
)

// CollectorColumns are the columns a collector file can carry.
var CollectorColumns = []string{
	ColumnID, ColumnCode, ColumnName, ColumnLink, ColumnIngredients, ColumnAllergensRaw, ColumnAllergens,
}

// MapperColumns are the columns a mapped file can carry.
var MapperColumns = []string{
	ColumnID, ColumnName, ColumnLink, ColumnIngredients, ColumnAllergensRaw, ColumnAllergens, ColumnAllergensMapped,
}

// Mapper strategies.
const (
	StrategyBatch  = "batch"
	StrategySingle = "single"
)

// Config represents the complete pipeline configuration.
type Config struct {
	Collector CollectorConfig `yaml:"collector"`
	Mapper    MapperConfig    `yaml:"mapper"`
}

// CollectorConfig contains settings for the product collector.
type CollectorConfig struct {
	APIURL            string        `yaml:"api_url"`
	ProductURLPrefix  string        `yaml:"product_url_prefix"`
	UserAgent         string        `yaml:"user_agent"`
	PageSize          int           `yaml:"page_size"`
	RequestIntervalMs int           `yaml:"request_interval_ms"`
	Output            OutputConfig  `yaml:"output"`
	Allergen          BlockConfig   `yaml:"allergen"`
	Safe              BlockConfig   `yaml:"safe"`
	AllergenKeywords  []string      `yaml:"allergen_keywords"`
	Quality           QualityConfig `yaml:"quality"`
	Retry             RetryPolicy   `yaml:"retry"`
}

// OutputConfig defines the collector's delimited output file.
type OutputConfig struct {
	Path        string   `yaml:"path"`
	Columns     []string `yaml:"columns"`
	EmptyMarker string   `yaml:"empty_marker"`
}

// BlockConfig describes one id block of the dataset (safe or allergen products).
type BlockConfig struct {
	Target        int      `yaml:"target"`
	PerTermCap    int      `yaml:"per_term_cap"` // 0 disables the cap
	Terms         []string `yaml:"terms"`
	FallbackTerms []string `yaml:"fallback_terms"`
}

// QualityConfig holds the ingredient and name quality heuristics.
type QualityConfig struct {
	MinNameChars            int      `yaml:"min_name_chars"`
	MinIngredientChars      int      `yaml:"min_ingredient_chars"`
	MinCleanIngredientChars int      `yaml:"min_clean_ingredient_chars"`
	MinSubstantiveWords     int      `yaml:"min_substantive_words"`
	IndicatorFreeMinChars   int      `yaml:"indicator_free_min_chars"`
	MaxForeignStopWords     int      `yaml:"max_foreign_stop_words"`
	ForeignStopWords        []string `yaml:"foreign_stop_words"`
	FoodKeywords            []string `yaml:"food_keywords"`
}

// RetryPolicy defines retry behavior for upstream HTTP calls.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	RateLimitDelayMs  int     `yaml:"rate_limit_delay_ms"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// MapperConfig contains settings for the allergen mapper.
type MapperConfig struct {
	InputColumn      string   `yaml:"input_column"`
	FallbackColumn   string   `yaml:"fallback_column"`
	OutputPath       string   `yaml:"output_path"`
	OutputColumns    []string `yaml:"output_columns"`
	Strategy         string   `yaml:"strategy"`
	BatchSize        int      `yaml:"batch_size"`
	BatchIntervalMs  int      `yaml:"batch_interval_ms"`
	RateLimitDelayMs int      `yaml:"rate_limit_delay_ms"`
	MaxAttempts      int      `yaml:"max_attempts"`
	CallTimeoutSec   int      `yaml:"call_timeout_sec"`
	CandidateModels  []string `yaml:"candidate_models"`
}

// Default returns the embedded default configuration.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultPipelineYAML, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse embedded config: %w", err)
	}

	return &cfg, nil
}

// Load returns the default configuration overlaid with the YAML file at path.
// An empty path yields the validated defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func checkColumns(key string, columns, known []string) error {
	for _, col := range columns {
		if !slices.Contains(known, col) {
			return fmt.Errorf("%w in %s: %q", ErrUnknownColumn, key, col)
		}
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	col := c.Collector
	if col.APIURL == "" {
		return ErrMissingAPIURL
	}

	if col.PageSize < 1 {
		return ErrInvalidPageSize
	}

	for name, block := range map[string]BlockConfig{"allergen": col.Allergen, "safe": col.Safe} {
		if block.Target < 0 || block.PerTermCap < 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTarget, name)
		}

		if block.Target > 0 && len(block.Terms) == 0 && len(block.FallbackTerms) == 0 {
			return fmt.Errorf("%w: %s", ErrNoTerms, name)
		}
	}

	if len(col.AllergenKeywords) == 0 {
		return ErrNoAllergenKeywords
	}

	if len(col.Output.Columns) == 0 {
		return fmt.Errorf("%w: collector.output.columns", ErrMissingColumns)
	}

	if err := checkColumns("collector.output.columns", col.Output.Columns, CollectorColumns); err != nil {
		return err
	}

	if err := col.Retry.Validate(); err != nil {
		return err
	}

	m := c.Mapper
	if m.InputColumn == "" {
		return ErrMissingInputColumn
	}

	if len(m.OutputColumns) == 0 {
		return fmt.Errorf("%w: mapper.output_columns", ErrMissingColumns)
	}

	if err := checkColumns("mapper.output_columns", m.OutputColumns, MapperColumns); err != nil {
		return err
	}

	if m.BatchSize < 1 {
		return ErrInvalidBatchSize
	}

	if m.Strategy != StrategyBatch && m.Strategy != StrategySingle {
		return ErrInvalidStrategy
	}

	if m.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if len(m.CandidateModels) == 0 {
		return ErrNoCandidateModels
	}

	return nil
}

// Validate checks the retry policy bounds.
func (rp *RetryPolicy) Validate() error {
	if rp.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if rp.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if rp.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if rp.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// GetRetryDelay calculates the exponential backoff delay after the given failed attempt (1-based).
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	return rp.capDelay(delayMs)
}

// GetRateLimitDelay returns the linear wait after a rate-limited attempt (1-based).
func (rp *RetryPolicy) GetRateLimitDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}

	return rp.capDelay(float64(rp.RateLimitDelayMs) * float64(attempt))
}

func (rp *RetryPolicy) capDelay(delayMs float64) time.Duration {
	if rp.MaxDelayMs > 0 && delayMs > float64(rp.MaxDelayMs) {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int64(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// RequestInterval is the self-imposed pause between upstream search requests.
func (c *CollectorConfig) RequestInterval() time.Duration {
	return time.Duration(c.RequestIntervalMs) * time.Millisecond
}

// BatchInterval is the pause between classification calls.
func (m *MapperConfig) BatchInterval() time.Duration {
	return time.Duration(m.BatchIntervalMs) * time.Millisecond
}

// RateLimitDelay is the fixed wait after a quota error from the model.
func (m *MapperConfig) RateLimitDelay() time.Duration {
	return time.Duration(m.RateLimitDelayMs) * time.Millisecond
}

// CallTimeout bounds a single model call.
func (m *MapperConfig) CallTimeout() time.Duration {
	return time.Duration(m.CallTimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{AllergenTarget: %d, SafeTarget: %d, MaxAttempts: %d, BatchSize: %d, Strategy: %s}",
		c.Collector.Allergen.Target,
		c.Collector.Safe.Target,
		c.Collector.Retry.MaxAttempts,
		c.Mapper.BatchSize,
		c.Mapper.Strategy,
	)
}
