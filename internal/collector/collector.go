// Package collector crawls the upstream product database and keeps the products that
// pass validation and the requested allergen-presence predicate.
package collector

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/Lllllllleong/allergenflow/internal/allergen"
	"github.com/Lllllllleong/allergenflow/internal/config"
	"github.com/Lllllllleong/allergenflow/internal/foodapi"
	"github.com/Lllllllleong/allergenflow/internal/textclean"
	"github.com/mattn/go-runewidth"
	"golang.org/x/time/rate"
)

// Searcher fetches one page of products for a search term.
type Searcher interface {
	Search(ctx context.Context, term string) ([]foodapi.Product, error)
}

// Collector runs keyword-driven fetch batches against a Searcher.
type Collector struct {
	searcher  Searcher
	extractor *allergen.Extractor
	quality   *textclean.QualityChecker
	cfg       config.CollectorConfig
	limiter   *rate.Limiter
	shuffle   func(n int, swap func(i, j int))
	logger    *slog.Logger
}

// Option customises a Collector.
type Option func(*Collector)

// WithRand makes term shuffling deterministic.
func WithRand(r *rand.Rand) Option {
	return func(c *Collector) { c.shuffle = r.Shuffle }
}

// WithLimiter replaces the request pacing limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Collector) { c.limiter = l }
}

// New creates a collector. Requests are paced one per configured interval.
func New(searcher Searcher, cfg config.CollectorConfig, logger *slog.Logger, opts ...Option) *Collector {
	limit := rate.Inf
	if interval := cfg.RequestInterval(); interval > 0 {
		limit = rate.Every(interval)
	}

	c := &Collector{
		searcher:  searcher,
		extractor: allergen.NewExtractor(cfg.AllergenKeywords),
		quality:   textclean.NewQualityChecker(cfg.Quality),
		cfg:       cfg,
		limiter:   rate.NewLimiter(limit, 1),
		shuffle:   rand.Shuffle,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchBatch searches terms in random order, appending accepted records to the block of
// state selected by req until that block holds target records. perTermCap > 0 limits how
// many records a single term may contribute. Failed searches are logged and skipped; the
// only error returned is a context or pacing error.
func (c *Collector) FetchBatch(ctx context.Context, state *State, terms []string, req Requirement, target, perTermCap int) (int, error) {
	logCtx := c.logger.With("requirement", req.String(), "target", target)
	logCtx.Info("Searching for products.", "terms", len(terms), "have", state.count(req))

	shuffled := append([]string(nil), terms...)
	c.shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	added := 0
	for _, term := range shuffled {
		if state.count(req) >= target {
			break
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return added, err
		}

		termLog := logCtx.With("term", term)
		products, err := c.searcher.Search(ctx, term)
		if err != nil {
			if ctx.Err() != nil {
				return added, ctx.Err()
			}
			termLog.Warn("Search failed, skipping term.", "error", err)
			continue
		}

		termCount := 0
		for _, p := range products {
			if state.count(req) >= target {
				break
			}
			if perTermCap > 0 && termCount >= perTermCap {
				termLog.Info("Hit quota for term. Moving to next term.", "cap", perTermCap)
				break
			}

			rec, err := c.Validate(p)
			if err != nil {
				termLog.Debug("Rejected product.", "code", p.Code, "reason", err)
				continue
			}

			if state.Seen(rec.Code) || !c.satisfies(req, rec) {
				continue
			}

			n := state.accept(req, rec)
			termCount++
			added++

			termLog.Info(
				"Accepted product.",
				"progress", n,
				"name", runewidth.Truncate(rec.Name, 30, "..."),
				"ingredients", runewidth.Truncate(rec.Ingredients, 50, "..."),
				"allergens", rec.Allergens,
			)
		}
	}

	return added, nil
}

// Collect fills both blocks of state: has-allergen products first, then safe products,
// each falling back to its secondary term list when the primary list runs dry.
func (c *Collector) Collect(ctx context.Context, state *State) error {
	blocks := []struct {
		req   Requirement
		block config.BlockConfig
	}{
		{RequireAllergens, c.cfg.Allergen},
		{RequireNoAllergens, c.cfg.Safe},
	}

	for _, b := range blocks {
		if _, err := c.FetchBatch(ctx, state, b.block.Terms, b.req, b.block.Target, b.block.PerTermCap); err != nil {
			return err
		}

		if missing := b.block.Target - state.count(b.req); missing > 0 && len(b.block.FallbackTerms) > 0 {
			c.logger.Warn("Under target, searching fallback terms.", "requirement", b.req.String(), "missing", missing)
			if _, err := c.FetchBatch(ctx, state, b.block.FallbackTerms, b.req, b.block.Target, b.block.PerTermCap); err != nil {
				return err
			}
		}
	}

	c.logger.Info(
		"Collection complete.",
		"safeCount", len(state.Safe),
		"safeTarget", c.cfg.Safe.Target,
		"allergenCount", len(state.Allergen),
		"allergenTarget", c.cfg.Allergen.Target,
		"avgSafeIngredientChars", averageIngredientLength(state.Safe),
		"avgAllergenIngredientChars", averageIngredientLength(state.Allergen),
	)
	return nil
}
