package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/Lllllllleong/allergenflow/internal/config"
)

var measurementRegex = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s*(?:mcg|mg|kg|ml|g|l)\b|\b\d+(?:[.,]\d+)?\s*%`)

var ingredientIndicators = []string{",", "and", "with", "contain", "ingredient"}

// QualityChecker applies the ingredient-list quality heuristics.
type QualityChecker struct {
	cfg       config.QualityConfig
	stopWords map[string]struct{}
}

// NewQualityChecker creates a checker from the configured thresholds.
func NewQualityChecker(cfg config.QualityConfig) *QualityChecker {
	stopWords := make(map[string]struct{}, len(cfg.ForeignStopWords))
	for _, w := range cfg.ForeignStopWords {
		stopWords[strings.ToLower(w)] = struct{}{}
	}

	return &QualityChecker{cfg: cfg, stopWords: stopWords}
}

// IsValidIngredients reports whether a normalized ingredient list is complete enough to keep.
func (q *QualityChecker) IsValidIngredients(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < q.cfg.MinIngredientChars {
		return false
	}

	words := strings.Fields(text)

	substantive := 0
	for _, w := range words {
		if len(w) > 2 {
			substantive++
		}
	}

	if substantive < q.cfg.MinSubstantiveWords {
		return false
	}

	lower := strings.ToLower(text)
	if !containsAny(lower, ingredientIndicators) && len(text) < q.cfg.IndicatorFreeMinChars {
		return false
	}

	if q.foreignStopWordCount(lower) > q.cfg.MaxForeignStopWords {
		return false
	}

	// Mineral water analyses and nutrient tables are mostly measurements.
	if measurements := len(measurementRegex.FindAllStringIndex(text, -1)); measurements > 0 {
		if !containsAny(lower, q.cfg.FoodKeywords) && float64(measurements) > float64(len(words))/3 {
			return false
		}
	}

	return true
}

// IsValidName reports whether a normalized product name is long enough to keep.
func (q *QualityChecker) IsValidName(name string) bool {
	return len(name) >= q.cfg.MinNameChars
}

// HasMinimumIngredients reports whether cleaning left enough ingredient text.
func (q *QualityChecker) HasMinimumIngredients(text string) bool {
	return len(text) >= q.cfg.MinCleanIngredientChars
}

func (q *QualityChecker) foreignStopWordCount(lower string) int {
	tokens := strings.FieldsFunc(lower, func(r rune) bool { return !unicode.IsLetter(r) })

	count := 0
	for _, tok := range tokens {
		if _, ok := q.stopWords[tok]; ok {
			count++
		}
	}

	return count
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}

	return false
}
