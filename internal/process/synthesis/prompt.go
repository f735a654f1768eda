package synthesis

import (
	"strings"
)

const (
	promptTopicPlaceholder   = "{{TOPIC}}"
	promptContextPlaceholder = "{{CONTEXT}}"
)

const draftPrompt = `You are an entertainment news writer for an Indian audience. Return STRICT JSON ONLY.
Output must be a single JSON object. Use double quotes. No trailing commas. No markdown. No extra keys.

The object must include:
- title: string. A factual headline, at most 90 characters. No clickbait, no emojis.
- body: string. 3-5 paragraphs separated by blank lines, at least 400 characters in total. Plain text only.
  Only state facts you are confident about; if details are unconfirmed, say so.
- tags: array of 3-8 lowercase strings (people, titles, languages, industries).
- confidence: number (0.0-1.0). How confident you are that the body is accurate and current.
  - 0.0-0.3 = you know little about this topic
  - 0.4-0.6 = general background only
  - 0.7-1.0 = well-known, verifiable facts

Topic: {{TOPIC}}
{{CONTEXT}}`

// Hint carries optional trend context that sharpens generation and image lookup.
type Hint struct {
	EntityType    string
	Category      string
	Keywords      []string
	ReferenceURLs []string
}

func buildPrompt(topic string, hint Hint) string {
	var ctxLines []string

	if hint.Category != "" {
		ctxLines = append(ctxLines, "Category: "+hint.Category)
	}

	if hint.EntityType != "" {
		ctxLines = append(ctxLines, "Entity type: "+hint.EntityType)
	}

	if len(hint.Keywords) > 0 {
		ctxLines = append(ctxLines, "Related searches: "+strings.Join(hint.Keywords, ", "))
	}

	prompt := strings.ReplaceAll(draftPrompt, promptTopicPlaceholder, topic)

	return strings.TrimSpace(strings.ReplaceAll(prompt, promptContextPlaceholder, strings.Join(ctxLines, "\n")))
}
