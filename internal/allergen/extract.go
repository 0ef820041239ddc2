package allergen

import (
	"sort"
	"strings"
)

// englishTagPrefix marks English-namespaced allergen tags, e.g. "en:milk".
const englishTagPrefix = "en:"

// Extractor pulls allergen text out of upstream product fields using a keyword list.
type Extractor struct {
	keywords []string
}

// NewExtractor creates an extractor over the given target keywords.
func NewExtractor(keywords []string) *Extractor {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Extractor{keywords: lowered}
}

// Extract returns the sorted, de-duplicated, comma-joined allergens of a product.
// English structured tags win; free-text sources are keyword-scanned only when no
// English tag is present. It returns "" when nothing is found.
func (e *Extractor) Extract(tags []string, textSources ...string) string {
	found := make(map[string]struct{})

	for _, tag := range tags {
		if !strings.HasPrefix(tag, englishTagPrefix) {
			continue
		}
		clean := strings.TrimSpace(strings.ReplaceAll(strings.TrimPrefix(tag, englishTagPrefix), "-", " "))
		if clean != "" {
			found[clean] = struct{}{}
		}
	}

	if len(found) == 0 {
		for _, src := range textSources {
			if src == "" {
				continue
			}
			lower := strings.ToLower(src)
			for _, k := range e.keywords {
				if strings.Contains(lower, k) {
					found[k] = struct{}{}
				}
			}
		}
	}

	if len(found) == 0 {
		return ""
	}

	out := make([]string, 0, len(found))
	for a := range found {
		out = append(out, a)
	}
	sort.Strings(out)

	return strings.Join(out, ", ")
}

// MatchesTarget reports whether allergen text mentions at least one target keyword.
func (e *Extractor) MatchesTarget(allergens string) bool {
	if IsEmpty(allergens) {
		return false
	}

	lower := strings.ToLower(allergens)
	for _, k := range e.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
