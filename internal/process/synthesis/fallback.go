package synthesis

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lueurxax/trendpulse/internal/core/domain"
)

const fallbackTitleSuffix = ": What We Know So Far"

var fallbackParagraphs = []string{
	"%s is drawing attention across entertainment circles right now, with fans and industry watchers following every new update closely.",
	"Interest around %s has been building over the past few days as searches, conversations and coverage picked up across platforms. Details are still emerging, and several reports remain unconfirmed.",
	"We are tracking official announcements and statements from the people involved with %s, and will update this story as verified information becomes available.",
	"Until then, readers should treat early claims with caution and rely on official channels for confirmed news about %s.",
}

// fallbackDraft interpolates the topic into a fixed skeleton. It is
// deterministic for a given topic.
func fallbackDraft(topic string, confidence float64) domain.ContentDraft {
	name := cases.Title(language.English, cases.NoLower).String(topic)

	paragraphs := make([]string, 0, len(fallbackParagraphs))
	for _, p := range fallbackParagraphs {
		paragraphs = append(paragraphs, fmt.Sprintf(p, name))
	}

	return domain.ContentDraft{
		Topic:      topic,
		Title:      name + fallbackTitleSuffix,
		Body:       strings.Join(paragraphs, "\n\n"),
		Tags:       normalizeTags([]string{topic}),
		Confidence: confidence,
		Source:     domain.ContentSourceFallback,
	}
}
