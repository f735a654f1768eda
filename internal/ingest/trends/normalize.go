package trends

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

const (
	minNormalizedScore = 0.0
	maxNormalizedScore = 100.0
)

// ClampScore bounds a score to the shared 0-100 scale.
func ClampScore(v float64) float64 {
	if math.IsNaN(v) {
		return minNormalizedScore
	}

	return math.Max(minNormalizedScore, math.Min(maxNormalizedScore, v))
}

// CappedLinear maps value linearly so that ceiling and above score 100.
func CappedLinear(value, ceiling float64) float64 {
	if ceiling <= 0 || value <= 0 {
		return minNormalizedScore
	}

	return ClampScore(value / ceiling * maxNormalizedScore)
}

// RankLinear scores position rank (0-based) out of total linearly from 100 down.
func RankLinear(rank, total int) float64 {
	if total <= 0 || rank < 0 || rank >= total {
		return minNormalizedScore
	}

	return ClampScore(float64(total-rank) / float64(total) * maxNormalizedScore)
}

// RelativeLinear scores value against the largest value in the batch.
func RelativeLinear(value, maxValue float64) float64 {
	return CappedLinear(value, maxValue)
}

// ParseApproxCount parses counts like "20,000+", "1.2M" or "500K+".
func ParseApproxCount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "+"))
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return 0, false
	}

	multiplier := 1.0

	switch last := unicode.ToUpper(rune(s[len(s)-1])); last {
	case 'K':
		multiplier = 1e3
	case 'M':
		multiplier = 1e6
	case 'B':
		multiplier = 1e9
	}

	if multiplier != 1 {
		s = s[:len(s)-1]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}

	return v * multiplier, true
}

// matchesLanguage reports whether lang (ISO 639-1, possibly region tagged)
// is one of allowed. An empty allowed list or empty lang matches everything.
func matchesLanguage(lang string, allowed []string) bool {
	if len(allowed) == 0 || lang == "" {
		return true
	}

	lang = strings.ToLower(lang)
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}

	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), lang) {
			return true
		}
	}

	return false
}
