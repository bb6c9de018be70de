// Text normalization helpers shared by the prefilter, the heuristic text
// provider, and the cloud adapters (for folding provider category labels in
// to stable flag strings).
package keyword

import (
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)
	nonSlugChars  = regexp.MustCompile(`[^\pL\pN]+`)
	labelSepChars = regexp.MustCompile(`[^\pL\pN]+`)
)

// TokenizeText splits free-form text in to lower-case tokens, with unicode
// normalization and diacritic folding, so that denylist matching works on a
// canonical form ("Gdańsk" and "gdansk" produce the same token).
func TokenizeText(text string) []string {
	// the transform chain is stateful and not safe for concurrent reuse, so
	// it is built per call
	normFunc := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	bare := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(normFunc, bare)
	if err != nil {
		slog.Warn("unicode normalization error", "err", err)
		folded = bare
	}
	return strings.Fields(folded)
}

// Slugify reduces an arbitrary string to lower-case letters and digits only.
func Slugify(orig string) string {
	return strings.ToLower(nonSlugChars.ReplaceAllString(orig, ""))
}

// SlugifyLabel folds a provider category label in to a stable flag string:
// lower-case, with runs of separators collapsed to single underscores. For
// example "Explicit Nudity" becomes "explicit_nudity".
func SlugifyLabel(label string) string {
	slug := strings.ToLower(labelSepChars.ReplaceAllString(label, "_"))
	return strings.Trim(slug, "_")
}

// TokenInSet checks a single token against a list of tokens.
func TokenInSet(tok string, set []string) bool {
	return slices.Contains(set, tok)
}
