package service

import (
	"slices"
	"strings"

	"github.com/itchan-dev/kanaal/shared/domain"
)

const (
	// Drop zones of sections are addressed as "section:<id>", the zone for
	// channels without a section is NoSectionDropTarget.
	SectionDropPrefix   = "section:"
	NoSectionDropTarget = SectionDropPrefix + "none"
)

// Layout maps a section id ("" for no section) to its channels in display order.
type Layout map[domain.SectionId][]domain.ChannelId

func (l Layout) locate(id domain.ChannelId) (domain.SectionId, int, bool) {
	for section, ids := range l {
		if i := slices.Index(ids, id); i >= 0 {
			return section, i, true
		}
	}
	return "", 0, false
}

func (l Layout) clone() Layout {
	out := make(Layout, len(l))
	for k, v := range l {
		out[k] = slices.Clone(v)
	}
	return out
}

type DropKind string

const (
	DropNone    DropKind = "none"
	DropReorder DropKind = "reorder"
	DropMove    DropKind = "move"
)

// Drop is the outcome of resolving a drag-and-drop gesture.
type Drop struct {
	Kind    DropKind           `json:"kind"`
	Channel domain.ChannelId   `json:"channel_id"`
	From    domain.SectionId   `json:"from"`
	To      domain.SectionId   `json:"to"`
	Order   []domain.ChannelId `json:"order"`
	Layout  Layout             `json:"-"`
}

// ResolveDrop computes what dropping dragged onto target does to layout,
// without touching layout itself. A target naming a channel wins over the
// section drop zone sentinel: the dragged channel takes the target's place
// in the target's section. A section sentinel appends to that section.
// Anything else, including a drop that changes nothing, resolves to DropNone.
func ResolveDrop(layout Layout, dragged domain.ChannelId, target string) Drop {
	none := Drop{Kind: DropNone, Channel: dragged, Layout: layout}

	from, fromIdx, ok := layout.locate(dragged)
	if !ok || target == dragged {
		return none
	}

	next := layout.clone()
	if to, toIdx, ok := layout.locate(target); ok {
		next[from] = slices.Delete(next[from], fromIdx, fromIdx+1)
		// same list: array move semantics, the dragged channel ends up at
		// the target's old index
		next[to] = slices.Insert(next[to], min(toIdx, len(next[to])), dragged)
		return finishDrop(layout, next, dragged, from, to)
	}

	to, ok := parseSectionTarget(layout, target)
	if !ok {
		return none
	}
	next[from] = slices.Delete(next[from], fromIdx, fromIdx+1)
	next[to] = append(next[to], dragged)
	return finishDrop(layout, next, dragged, from, to)
}

func finishDrop(before, after Layout, dragged domain.ChannelId, from, to domain.SectionId) Drop {
	if from == to && slices.Equal(before[from], after[to]) {
		return Drop{Kind: DropNone, Channel: dragged, Layout: before}
	}
	kind := DropReorder
	if from != to {
		kind = DropMove
	}
	return Drop{Kind: kind, Channel: dragged, From: from, To: to, Order: after[to], Layout: after}
}

func parseSectionTarget(layout Layout, target string) (domain.SectionId, bool) {
	if target == NoSectionDropTarget {
		return "", true
	}
	id, ok := strings.CutPrefix(target, SectionDropPrefix)
	if !ok || id == "" {
		return "", false
	}
	if _, known := layout[id]; !known {
		return "", false
	}
	return id, true
}
