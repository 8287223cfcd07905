package utils

import (
	"regexp"
	"strings"
)

const MaxSlugLength = 60

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	notSlugChar   = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-{2,}`)
)

// NormalizeSlug turns free text into a URL-safe slug: lower case, hyphen
// separated, only [a-z0-9-], no leading or trailing hyphen, at most 60
// characters. Empty input (or input without any usable character) yields "".
func NormalizeSlug(title string) string {
	s := strings.TrimSpace(strings.ToLower(title))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = notSlugChar.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > MaxSlugLength {
		// truncation may expose a hyphen at the cut
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}
