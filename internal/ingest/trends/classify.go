package trends

import (
	"strings"
	"unicode"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

type classification struct {
	entityType string
	category   string
}

type heuristic struct {
	keywords []string
	result   classification
}

// Ordered: the first heuristic with a matching keyword wins.
var heuristics = []heuristic{
	{
		keywords: []string{"box office", "collection", "opening weekend", "crore", "day 1", "first day"},
		result:   classification{domain.EntityMovie, domain.CategoryBoxOff},
	},
	{
		keywords: []string{"netflix", "prime video", "hotstar", "jiocinema", "zee5", "sonyliv", "ott", "streaming"},
		result:   classification{domain.EntityShow, domain.CategoryOTT},
	},
	{
		keywords: []string{"song", "lyrical", "album", "music video", "full video", "audio", "concert", "singer"},
		result:   classification{domain.EntityMusic, domain.CategoryMusic},
	},
	{
		keywords: []string{"web series", "season", "episode", "serial", "tv show"},
		result:   classification{domain.EntityShow, domain.CategoryTV},
	},
	{
		keywords: []string{"trailer", "teaser", "movie", "film", "release date", "first look", "review", "cinema"},
		result:   classification{domain.EntityMovie, domain.CategoryMovies},
	},
	{
		keywords: []string{"actor", "actress", "wedding", "birthday", "dating", "star kid", "interview", "spotted"},
		result:   classification{domain.EntityPerson, domain.CategoryCelebs},
	},
	{
		keywords: []string{"awards", "festival", "premiere", "ceremony"},
		result:   classification{domain.EntityEvent, domain.CategoryGeneral},
	},
}

// Classify tags text with an entity type and category using keyword lists.
// Keywords match on word boundaries. Text matching no list is classified as an
// unknown entity in the general category.
func Classify(text string) (entityType, category string) {
	padded := " " + wordsOnly(text) + " "

	for _, h := range heuristics {
		for _, kw := range h.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return h.result.entityType, h.result.category
			}
		}
	}

	return domain.EntityUnknown, domain.CategoryGeneral
}

// applyClassification fills entity type and category when a source left them empty.
func applyClassification(s *domain.TrendSignal, text string) {
	if s.EntityType != "" && s.Category != "" {
		return
	}

	entityType, category := Classify(text)

	if s.EntityType == "" {
		s.EntityType = entityType
	}

	if s.Category == "" {
		s.Category = category
	}
}

func wordsOnly(text string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}

		return ' '
	}, text)

	return strings.Join(strings.Fields(mapped), " ")
}
