package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON returns the first valid JSON object or array embedded in text,
// stripping markdown fences and surrounding prose. If none is found text is
// returned unchanged.
func ExtractJSON(text string) string {
	trimmed := strings.TrimSpace(stripCodeFence(text))
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}

	for i := 0; i < len(trimmed); i++ {
		if trimmed[i] != '{' && trimmed[i] != '[' {
			continue
		}

		if end := matchingBracket(trimmed, i); end > i {
			candidate := trimmed[i : end+1]
			if json.Valid([]byte(candidate)) {
				return candidate
			}
		}
	}

	return text
}

func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}

	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// matchingBracket returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals, or -1.
func matchingBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}

			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}
