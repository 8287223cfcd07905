package mention

import (
	"strings"

	"github.com/itchan-dev/kanaal/shared/domain"
)

type SegmentKind string

const (
	SegmentText      SegmentKind = "text"
	SegmentMention   SegmentKind = "mention"
	SegmentInert     SegmentKind = "inert"
	SegmentLineBreak SegmentKind = "break"
)

type Segment struct {
	Kind   SegmentKind   `json:"kind"`
	Text   string        `json:"text,omitempty"`
	UserId domain.UserId `json:"user_id,omitempty"`
}

// Render splits text into literal and mention segments for display.
// Mentions of users not in the given list are kept as inert segments.
// Every "\n" becomes its own SegmentLineBreak.
func Render(text string, users []domain.User) []Segment {
	idx := newIndex(users)
	var out []Segment
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out = append(out, Segment{Kind: SegmentLineBreak})
		}
		pos := 0
		for _, m := range idx.scan(line) {
			if m.start > pos {
				out = append(out, Segment{Kind: SegmentText, Text: line[pos:m.start]})
			}
			if m.user != nil {
				out = append(out, Segment{Kind: SegmentMention, Text: line[m.start:m.end], UserId: m.user.Id})
			} else {
				out = append(out, Segment{Kind: SegmentInert, Text: line[m.start:m.end]})
			}
			pos = m.end
		}
		if pos < len(line) {
			out = append(out, Segment{Kind: SegmentText, Text: line[pos:]})
		}
	}
	return out
}
