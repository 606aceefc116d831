package format

import (
	"strings"

	"github.com/islandworks/miyako-poi/internal/models"
)

// Snippet context sizes, in characters (runes).
const (
	snippetBefore   = 50
	snippetAfter    = 100
	snippetFallback = 150
)

// Snippet builds a short excerpt for a text-search hit. Fields are scanned
// in the given priority order for the first case-insensitive occurrence of
// the query; the excerpt keeps up to snippetBefore characters before the
// match and snippetAfter after it, with ellipses marking clipped ends and
// the match wrapped in **. When the query does not occur in any selected
// field (the store-level match may have come from elsewhere), the start of
// the content or subtitle serves as a fallback.
func Snippet(it models.Item, query string, fields []string) string {
	for _, field := range fields {
		text := textField(it, field)
		if text == "" {
			continue
		}
		if s, ok := excerpt(text, query); ok {
			return s
		}
	}

	fallback := it.Content
	if fallback == "" {
		fallback = it.Subtitle
	}
	runes := []rune(fallback)
	if len(runes) > snippetFallback {
		return string(runes[:snippetFallback]) + "..."
	}
	return fallback
}

func textField(it models.Item, name string) string {
	switch name {
	case "title":
		return it.Title
	case "subtitle":
		return it.Subtitle
	case "content":
		return it.Content
	case "address":
		return it.Address
	}
	return ""
}

// excerpt cuts the context window around the first case-insensitive
// occurrence of query in text. Offsets are computed in runes so multibyte
// text is never split mid-character.
func excerpt(text, query string) (string, bool) {
	lowerText := strings.ToLower(text)
	lowerQuery := strings.ToLower(query)
	byteIdx := strings.Index(lowerText, lowerQuery)
	if byteIdx < 0 {
		return "", false
	}

	runes := []rune(text)
	matchStart := len([]rune(lowerText[:byteIdx]))
	matchLen := len([]rune(lowerQuery))
	if matchStart+matchLen > len(runes) {
		// Case folding shifted offsets in a way we cannot map back.
		return "", false
	}

	start := matchStart - snippetBefore
	if start < 0 {
		start = 0
	}
	end := matchStart + matchLen + snippetAfter
	if end > len(runes) {
		end = len(runes)
	}

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(string(runes[start:matchStart]))
	b.WriteString("**")
	b.WriteString(string(runes[matchStart : matchStart+matchLen]))
	b.WriteString("**")
	b.WriteString(string(runes[matchStart+matchLen : end]))
	if end < len(runes) {
		b.WriteString("...")
	}
	return b.String(), true
}
