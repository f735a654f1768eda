// Package imagery selects an illustrative image for a topic from a
// priority-ordered cascade of image providers.
//
// All providers are queried concurrently with a per-provider timeout. Every
// returned candidate is validated and rescored by one central scoring function,
// so downstream code never special-cases a provider.
package imagery

import (
	"context"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

// Provider returns image candidates for a context. Candidate scores are
// provisional base scores; the engine recomputes them.
type Provider interface {
	Source() domain.ImageSource
	Enabled() bool
	Search(ctx context.Context, imgCtx domain.ImageContext, limit int) ([]domain.ImageCandidate, error)
}

// Provider priority bonuses applied during scoring, highest first.
var priorityBonus = map[domain.ImageSource]float64{
	domain.ImageSourceStructuredDB:  15,
	domain.ImageSourceMediaCommons:  10,
	domain.ImageSourceEncyclopedic:  8,
	domain.ImageSourceOpenGraph:     5,
	domain.ImageSourceStockPhoto:    0,
	domain.ImageSourceAIPlaceholder: -10,
}

// PriorityBonus returns the fixed scoring bonus of a source.
func PriorityBonus(source domain.ImageSource) float64 {
	return priorityBonus[source]
}

func boolPtr(v bool) *bool {
	return &v
}

func aspect(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}

	return float64(width) / float64(height)
}
