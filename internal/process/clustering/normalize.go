package clustering

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// NormalizeKeyword derives a cluster key: lowercase, characters other than
// letters, digits, combining marks and spaces removed, whitespace collapsed,
// truncated to domain.MaxClusterKeyLength runes.
func NormalizeKeyword(keyword string) string {
	lowered := cases.Lower(language.Und).String(keyword)

	var b strings.Builder
	b.Grow(len(lowered))

	for _, r := range lowered {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	key := strings.Join(strings.Fields(b.String()), " ")

	runes := []rune(key)
	if len(runes) > domain.MaxClusterKeyLength {
		key = strings.TrimSpace(string(runes[:domain.MaxClusterKeyLength]))
	}

	return key
}
