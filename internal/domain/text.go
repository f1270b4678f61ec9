package domain

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ExcerptLength is the rune budget of an excerpt, ellipsis excluded.
const ExcerptLength = 200

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Slugify lowercases s, turns every run of characters outside [a-z0-9]
// into one hyphen and trims hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// Excerpt strips markup from content, collapses whitespace and cuts the
// result to ExcerptLength runes, appending "..." when it was truncated.
func Excerpt(content string) string {
	text := tagPattern.ReplaceAllString(content, " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:ExcerptLength]), " ") + "..."
}
