package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripMarkup removes any HTML from short plain-text fields (titles, names,
// descriptions). Entities escaped by the policy are decoded again so that
// "R&D" stays "R&D".
func StripMarkup(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
