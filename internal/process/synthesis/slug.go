package synthesis

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugBaseRunes = 60
	slugFallbackBase = "topic"
	slugSeparator    = '-'
	base36           = 36
)

// stripMarks returns a fresh transformer; chained transformers keep state and
// must not be shared between goroutines.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Slug derives a URL slug from a title plus a base36 millisecond timestamp.
// It lowers collision risk but does not guarantee uniqueness.
func Slug(title string, at time.Time) string {
	return SlugBase(title) + string(slugSeparator) + strconv.FormatInt(at.UnixMilli(), base36)
}

// SlugBase reduces a title to lowercase ASCII words joined by hyphens.
// Titles with no ASCII letters or digits collapse to "topic".
func SlugBase(title string) string {
	folded, _, err := transform.String(stripMarks(), title)
	if err != nil {
		folded = title
	}

	var sb strings.Builder

	pendingSep := false

	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && sb.Len() > 0 {
				sb.WriteRune(slugSeparator)
			}

			sb.WriteRune(r)

			pendingSep = false

			continue
		}

		pendingSep = true
	}

	base := sb.String()
	if len(base) > maxSlugBaseRunes {
		base = strings.TrimRight(base[:maxSlugBaseRunes], string(slugSeparator))
	}

	if base == "" {
		return slugFallbackBase
	}

	return base
}
