package textutil

import (
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeContent collapses whitespace and trims a post body so that
// near-identical rows from different sources compare equal.
func NormalizeContent(content string) string {
	content = strings.Trim(content, " \n\t")
	content = whitespaceRegex.ReplaceAllString(content, " ")
	return content
}

// ContainsAny reports whether text contains at least one of the given
// terms, case insensitively. Empty terms are skipped.
func ContainsAny(text string, terms []string) bool {
	text = strings.ToLower(text)
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

// CountTerms counts how many of the given terms occur in text,
// case insensitively.
func CountTerms(text string, terms []string) int {
	text = strings.ToLower(text)
	count := 0
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			continue
		}
		if strings.Contains(text, term) {
			count++
		}
	}
	return count
}

// SplitKeywords splits a comma separated keyword string the way the
// dashboard sidebar does, dropping empty entries.
func SplitKeywords(keywords string) []string {
	parts := strings.Split(keywords, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Truncate shortens s to at most limit runes, appending an ellipsis
// when something was cut off.
func Truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
