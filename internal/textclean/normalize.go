// Package textclean holds the text normalization and language/quality heuristics
// applied to product names and ingredient lists before they enter the dataset.
package textclean

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// typographic maps punctuation that has no ASCII decomposition onto its plain equivalent.
var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "‚", "'",
	"“", `"`, "”", `"`, "„", `"`,
	"–", "-", "—", "-", "−", "-",
	"«", `"`, "»", `"`,
	"®", "", "©", "",
	"·", " ", "•", " ",
)

var (
	lineBreaksRegex   = regexp.MustCompile(`[\r\n\t]+`)
	controlCharsRegex = regexp.MustCompile(`[\x{0000}-\x{001F}\x{007F}-\x{009F}]`)
	markupCharsRegex  = regexp.MustCompile(`[<>]`)
)

// Normalize folds text to its ASCII base form and strips characters that break the
// delimited output: accents are removed, control characters and angle brackets are
// dropped, semicolons become commas and whitespace is collapsed.
// Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = lineBreaksRegex.ReplaceAllString(text, " ")
	text = controlCharsRegex.ReplaceAllString(text, "")
	text = markupCharsRegex.ReplaceAllString(text, "")
	text = typographic.Replace(text)

	// A fresh chain per call: transformers carry state and are not safe for concurrent use.
	fold := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(fold, text); err == nil {
		text = folded
	}

	// Compatibility forms (subscript minus, small em dash, fullwidth brackets and
	// semicolons) only surface after the fold. Anything dropped here becomes a space
	// so the fold never sees two neighbours it could compose on a later call.
	text = typographic.Replace(text)
	text = markupCharsRegex.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, ";", ",")

	return strings.Join(strings.Fields(text), " ")
}

// IsEnglish reports whether text looks like English: it must be pure ASCII (which rules
// out every non-Latin script) and, once digits and common food symbols are removed,
// at least 80% of what remains must be letters a-z.
func IsEnglish(text string) bool {
	if text == "" {
		return false
	}

	var letters, others int
	for _, r := range text {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case isFoodSymbol(r):
		case ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z'):
			letters++
		default:
			others++
		}
	}

	if letters+others == 0 {
		return true // only symbols and numbers
	}

	return float64(letters)/float64(letters+others) >= 0.8
}

func isFoodSymbol(r rune) bool {
	if '0' <= r && r <= '9' {
		return true
	}

	return unicode.IsSpace(r) || strings.ContainsRune(`,-.%()[]/+&:'"`, r)
}
