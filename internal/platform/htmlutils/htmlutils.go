// Package htmlutils converts markup found in third-party payloads to plain text.
//
// The package handles:
//   - Tag stripping with entity decoding
//   - Whitespace collapsing
//   - Rune-safe truncation
package htmlutils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const ellipsis = "…"

var skippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
}

// PlainText returns the visible text of an HTML fragment with entities decoded
// and whitespace collapsed. Input without markup is returned normalized.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return CollapseSpaces(fragment)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(fragment))

	var (
		sb   strings.Builder
		skip int
	)

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return CollapseSpaces(sb.String())
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] {
				skip++
			}

			sb.WriteByte(' ')
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if skippedElements[string(name)] && skip > 0 {
				skip--
			}

			sb.WriteByte(' ')
		case html.SelfClosingTagToken:
			sb.WriteByte(' ')
		case html.TextToken:
			if skip == 0 {
				sb.Write(tokenizer.Text())
			}
		case html.CommentToken, html.DoctypeToken:
		}
	}
}

// CollapseSpaces trims s and replaces every whitespace run with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate shortens s to at most maxRunes runes, appending an ellipsis when cut.
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)

	return strings.TrimSpace(string(runes[:maxRunes])) + ellipsis
}
