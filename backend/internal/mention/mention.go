// Package mention finds @name references to users in free text.
package mention

import (
	"regexp"
	"strings"

	"github.com/itchan-dev/kanaal/shared/domain"
)

// "@" followed by a greedy run of words separated by spaces or tabs.
// Display names may contain spaces, so the candidate is narrowed later.
var candidate = regexp.MustCompile(`@([\p{L}\p{N}_]+(?:[ \t]+[\p{L}\p{N}_]+)*)`)

var wordSep = regexp.MustCompile(`[ \t]+`)

// Contains is a cheap precheck before loading the user list.
func Contains(text string) bool {
	return strings.Contains(text, "@")
}

// match is one resolved or unresolved "@..." occurrence in a line.
type match struct {
	start, end int // byte span of "@"+matched words
	user       *domain.User
}

// Extract returns the ids of users mentioned in text, each once.
// When display names collide the first user in the list wins.
func Extract(text string, users []domain.User) []domain.UserId {
	idx := newIndex(users)
	var (
		ids  []domain.UserId
		seen = make(map[domain.UserId]struct{})
	)
	for _, line := range strings.Split(text, "\n") {
		for _, m := range idx.scan(line) {
			if m.user == nil {
				continue
			}
			if _, ok := seen[m.user.Id]; ok {
				continue
			}
			seen[m.user.Id] = struct{}{}
			ids = append(ids, m.user.Id)
		}
	}
	return ids
}

type index map[string]*domain.User

func newIndex(users []domain.User) index {
	idx := make(index, len(users))
	for i := range users {
		key := normalizeName(users[i].DisplayName)
		if key == "" {
			continue
		}
		if _, taken := idx[key]; !taken {
			idx[key] = &users[i]
		}
	}
	return idx
}

func normalizeName(name string) string {
	return strings.ToLower(wordSep.ReplaceAllString(strings.TrimSpace(name), " "))
}

// scan resolves every candidate in a single line. For each candidate the
// longest leading word sequence naming a known user wins. Unresolved
// candidates cover "@" plus their first word only.
func (idx index) scan(line string) []match {
	var out []match
	for _, loc := range candidate.FindAllStringSubmatchIndex(line, -1) {
		start, wordsStart, wordsEnd := loc[0], loc[2], loc[3]
		words := line[wordsStart:wordsEnd]

		// byte offsets (relative to words) where each word ends
		var ends []int
		for _, sep := range wordSep.FindAllStringIndex(words, -1) {
			ends = append(ends, sep[0])
		}
		ends = append(ends, len(words))

		m := match{start: start, end: wordsStart + ends[0]}
		for i := len(ends) - 1; i >= 0; i-- {
			if u, ok := idx[normalizeName(words[:ends[i]])]; ok {
				m.end = wordsStart + ends[i]
				m.user = u
				break
			}
		}
		out = append(out, m)
	}
	return out
}
