package utils

import (
	"regexp"
	"strings"
)

var tagWhitespace = regexp.MustCompile(`\s+`)

// NormalizeTagName trims a user supplied tag and collapses inner whitespace.
// Control characters are dropped.
func NormalizeTagName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, name)
	return strings.TrimSpace(tagWhitespace.ReplaceAllString(cleaned, " "))
}

// TagKey is the identity of a tag name: normalized and Unicode lower-cased,
// so "Ação" and "AÇÃO" are the same tag.
func TagKey(name string) string {
	return strings.ToLower(NormalizeTagName(name))
}

// UniqueTags normalizes names and removes empty entries and case-insensitive
// duplicates, keeping the first spelling seen.
func UniqueTags(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = NormalizeTagName(n)
		if n == "" {
			continue
		}
		key := TagKey(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}
