// Package allergen defines the fixed allergen vocabulary and the helpers that
// extract, match and canonicalize allergen text.
package allergen

import (
	"regexp"
	"strings"
)

// Category is one of the nine fixed allergen labels.
type Category string

// The fixed vocabulary, in canonical output order.
const (
	Milk      Category = "milk"
	Egg       Category = "egg"
	Peanut    Category = "peanut"
	TreeNut   Category = "tree nut"
	Wheat     Category = "wheat"
	Soy       Category = "soy"
	Fish      Category = "fish"
	Shellfish Category = "shellfish"
	Sesame    Category = "sesame"
)

// Vocabulary lists every category in canonical order.
var Vocabulary = []Category{Milk, Egg, Peanut, TreeNut, Wheat, Soy, Fish, Shellfish, Sesame}

// EmptyMarker is written to files in place of an empty allergen field.
const EmptyMarker = "EMPTY"

var categoryPatterns = compileCategoryPatterns()

// categorySuffixes overrides the default plural suffix for labels with other common spellings.
var categorySuffixes = map[Category]string{
	Soy: `(?:a|s|beans?)?`,
}

func compileCategoryPatterns() map[Category]*regexp.Regexp {
	patterns := make(map[Category]*regexp.Regexp, len(Vocabulary))
	for _, c := range Vocabulary {
		words := strings.Fields(string(c))
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		suffix, ok := categorySuffixes[c]
		if !ok {
			suffix = `(?:s|es)?`
		}
		patterns[c] = regexp.MustCompile(`\b` + strings.Join(words, `[\s-]+`) + suffix + `\b`)
	}
	return patterns
}

// Canonicalize keeps only vocabulary categories found in text and returns them
// comma-joined in vocabulary order. Plural forms are accepted.
func Canonicalize(text string) string {
	lower := strings.ToLower(text)

	var found []string
	for _, c := range Vocabulary {
		if categoryPatterns[c].MatchString(lower) {
			found = append(found, string(c))
		}
	}

	return strings.Join(found, ", ")
}

// Categories parses text into the vocabulary categories it names.
func Categories(text string) []Category {
	canonical := Canonicalize(text)
	if canonical == "" {
		return nil
	}

	parts := strings.Split(canonical, ", ")
	cats := make([]Category, len(parts))
	for i, p := range parts {
		cats[i] = Category(p)
	}
	return cats
}

var artifactReplacer = strings.NewReplacer("[", "", "]", "", "'", "", `"`, "")

// StripArtifacts removes list and quote punctuation left over from model output.
func StripArtifacts(text string) string {
	return strings.TrimSpace(artifactReplacer.Replace(text))
}

// IsEmpty reports whether a raw allergen field carries no allergen text.
func IsEmpty(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || strings.EqualFold(trimmed, EmptyMarker)
}
