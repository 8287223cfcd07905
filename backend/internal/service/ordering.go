package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
)

type OrderingService interface {
	Reorder(ctx context.Context, sectionId *domain.SectionId, ordered []domain.ChannelId) error
	Move(ctx context.Context, channelId domain.ChannelId, target *domain.SectionId, ordered []domain.ChannelId) error
	Drop(ctx context.Context, dragged domain.ChannelId, target string) (Drop, error)
	Layout(ctx context.Context) (Layout, error)
}

type OrderingStore interface {
	ChannelStorage
	SectionStorage
}

// Ordering keeps channel positions. Positions are 1-based per section and
// every reorder rewrites the full list it is given. Concurrent reorders of
// the same section are last writer wins per channel.
type Ordering struct {
	storage OrderingStore
}

func NewOrdering(storage OrderingStore) *Ordering {
	return &Ordering{storage: storage}
}

// Reorder sets order = index+1 for every listed channel. The list is taken
// as the caller's view of the section, membership is not checked.
func (s *Ordering) Reorder(ctx context.Context, sectionId *domain.SectionId, ordered []domain.ChannelId) error {
	if err := s.checkSection(ctx, sectionId); err != nil {
		return err
	}
	if err := checkDistinct(ordered); err != nil {
		return err
	}
	return s.writeOrder(ctx, ordered)
}

// Move re-parents a channel and then applies the target section's full order,
// which must contain the moved channel. The source section keeps its gap.
func (s *Ordering) Move(ctx context.Context, channelId domain.ChannelId, target *domain.SectionId, ordered []domain.ChannelId) error {
	if err := s.checkSection(ctx, target); err != nil {
		return err
	}
	if !slices.Contains(ordered, channelId) {
		return errors.InvalidArgument("target order must include the moved channel")
	}
	if err := checkDistinct(ordered); err != nil {
		return err
	}
	_, err := s.storage.UpdateChannel(ctx, channelId, func(c *domain.Channel) error {
		c.SectionId = cloneSection(target)
		return nil
	})
	if err != nil {
		return err
	}
	logger.Log.Info("moved channel", "component", "ordering", "channel_id", channelId, "section_id", sectionLabel(target))
	return s.writeOrder(ctx, ordered)
}

// Drop resolves a drag-and-drop gesture against the stored layout and applies it.
func (s *Ordering) Drop(ctx context.Context, dragged domain.ChannelId, target string) (Drop, error) {
	layout, err := s.Layout(ctx)
	if err != nil {
		return Drop{}, err
	}
	drop := ResolveDrop(layout, dragged, target)
	if drop.Kind == DropReorder {
		// Layout files channels with a dangling section under no section.
		// Moving instead of reordering rewrites the stale reference.
		channel, err := s.storage.GetChannel(ctx, drop.Channel)
		if err != nil {
			return Drop{}, err
		}
		if channel.Section() != drop.From {
			drop.Kind = DropMove
		}
	}
	switch drop.Kind {
	case DropReorder:
		err = s.Reorder(ctx, sectionRef(drop.To), drop.Order)
	case DropMove:
		err = s.Move(ctx, drop.Channel, sectionRef(drop.To), drop.Order)
	}
	return drop, err
}

// Layout reads every section (including empty ones) with its channels in
// display order.
func (s *Ordering) Layout(ctx context.Context) (Layout, error) {
	sections, err := s.storage.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := s.storage.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	layout := Layout{"": {}}
	for _, sec := range sections {
		layout[sec.Id] = []domain.ChannelId{}
	}
	SortChannels(channels)
	for _, c := range channels {
		key := c.Section()
		if _, ok := layout[key]; !ok {
			// dangling section reference, shown without a section
			key = ""
		}
		layout[key] = append(layout[key], c.Id)
	}
	return layout, nil
}

// appendToSection re-parents channels to the end of target, keeping their
// relative order.
func (s *Ordering) appendToSection(ctx context.Context, channels []domain.Channel, target *domain.SectionId) error {
	existing, err := s.storage.ListChannelsBySection(ctx, sectionKey(target))
	if err != nil {
		return err
	}
	SortChannels(existing)
	SortChannels(channels)

	ordered := make([]domain.ChannelId, 0, len(existing)+len(channels))
	for _, c := range existing {
		ordered = append(ordered, c.Id)
	}
	for _, c := range channels {
		_, err := s.storage.UpdateChannel(ctx, c.Id, func(ch *domain.Channel) error {
			ch.SectionId = cloneSection(target)
			return nil
		})
		if err := ignoreNotFound(err); err != nil {
			return err
		}
		ordered = append(ordered, c.Id)
	}
	return s.writeOrder(ctx, ordered)
}

func (s *Ordering) writeOrder(ctx context.Context, ordered []domain.ChannelId) error {
	for i, id := range ordered {
		_, err := s.storage.UpdateChannel(ctx, id, func(c *domain.Channel) error {
			c.Order = i + 1
			return nil
		})
		if err != nil {
			return fmt.Errorf("set position of channel %s: %w", id, err)
		}
	}
	return nil
}

func (s *Ordering) checkSection(ctx context.Context, id *domain.SectionId) error {
	if id == nil {
		return nil
	}
	_, err := s.storage.GetSection(ctx, *id)
	return err
}

func checkDistinct(ids []domain.ChannelId) error {
	seen := make(map[domain.ChannelId]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return errors.InvalidArgument(fmt.Sprintf("channel %s listed twice", id))
		}
		seen[id] = true
	}
	return nil
}

// SortChannels orders channels for display: positioned channels by order,
// then unpositioned ones by creation time.
func SortChannels(channels []domain.Channel) {
	slices.SortStableFunc(channels, func(a, b domain.Channel) int {
		switch {
		case a.Order == 0 && b.Order != 0:
			return 1
		case a.Order != 0 && b.Order == 0:
			return -1
		}
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Id, b.Id)
	})
}

func sectionRef(key domain.SectionId) *domain.SectionId {
	if key == "" {
		return nil
	}
	return &key
}

func sectionKey(id *domain.SectionId) domain.SectionId {
	if id == nil {
		return ""
	}
	return *id
}

func sectionLabel(id *domain.SectionId) string {
	if id == nil {
		return "none"
	}
	return *id
}

func cloneSection(id *domain.SectionId) *domain.SectionId {
	if id == nil || *id == "" {
		return nil
	}
	v := *id
	return &v
}
