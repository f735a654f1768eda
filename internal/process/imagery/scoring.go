package imagery

import (
	"math"
	"net/url"
	"strings"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// Scoring constants.
const (
	minScore = 0.0
	maxScore = 100.0

	faceBonus        = 10.0
	aspectBonus      = 5.0
	minHeroAspect    = 1.3
	maxHeroAspect    = 1.8
	wideBonus        = 5.0
	wideMinWidth     = 1200
	narrowPenalty    = -20.0
	narrowMaxWidth   = 500
	maxEmotionBonus  = 5.0
	minUsableDimPx   = 200
	httpScheme       = "http"
	httpsScheme      = "https"
	defaultBaseScore = 50.0
)

// Score recomputes a candidate's score from its provisional base score.
// The result is always within [0, 100].
func Score(c domain.ImageCandidate, imgCtx domain.ImageContext) float64 {
	score := c.Score
	if math.IsNaN(score) {
		score = defaultBaseScore
	}

	m := c.Metadata

	if imgCtx.PreferFace && m.HasFace != nil && *m.HasFace {
		score += faceBonus
	}

	ratio := m.AspectRatio
	if ratio == 0 {
		ratio = aspect(m.Width, m.Height)
	}

	if ratio >= minHeroAspect && ratio <= maxHeroAspect {
		score += aspectBonus
	}

	switch {
	case m.Width >= wideMinWidth:
		score += wideBonus
	case m.Width > 0 && m.Width < narrowMaxWidth:
		score += narrowPenalty
	}

	score += PriorityBonus(c.Source)

	if m.EmotionMatch != nil && !math.IsNaN(*m.EmotionMatch) {
		score += math.Max(0, math.Min(1, *m.EmotionMatch)) * maxEmotionBonus
	}

	return math.Max(minScore, math.Min(maxScore, score))
}

// Validate derives the review status of a candidate. A provider may only make
// the status stricter.
func Validate(c domain.ImageCandidate) domain.ValidationStatus {
	if c.ValidationStatus == domain.ImageRejected {
		return domain.ImageRejected
	}

	u, err := url.Parse(strings.TrimSpace(c.URL))
	if err != nil || u.Host == "" || (u.Scheme != httpScheme && u.Scheme != httpsScheme) {
		return domain.ImageRejected
	}

	m := c.Metadata
	if (m.Width > 0 && m.Width < minUsableDimPx) || (m.Height > 0 && m.Height < minUsableDimPx) {
		return domain.ImageRejected
	}

	if strings.TrimSpace(m.License) == "" || c.ValidationStatus == domain.ImageNeedsReview {
		return domain.ImageNeedsReview
	}

	return domain.ImageValid
}
