package extract

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Normalize lowercases s, trims surrounding whitespace and collapses internal
// whitespace runs to a single space. It is pure, total and idempotent, and is
// the single normalization used by every matching policy.
func Normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.ToLower(s), " "))
}

// CollapseSpace collapses whitespace runs without changing case. Used when a
// regex must run over a row's visible text.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
