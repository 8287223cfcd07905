package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/itchan-dev/kanaal/backend/internal/utils"
	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
	"github.com/itchan-dev/kanaal/shared/logger"
	sharedutils "github.com/itchan-dev/kanaal/shared/utils"
)

type ChannelService interface {
	Create(ctx context.Context, data domain.ChannelCreationData) (domain.Channel, error)
	Update(ctx context.Context, id domain.ChannelId, update domain.ChannelUpdate) (domain.Channel, error)
	Get(ctx context.Context, id domain.ChannelId) (domain.Channel, error)
	GetBySlug(ctx context.Context, slug domain.Slug) (domain.Channel, error)
	List(ctx context.Context, includeHidden bool) ([]domain.SectionChannels, error)
	Delete(ctx context.Context, id domain.ChannelId) error
}

type ChannelStore interface {
	ChannelStorage
	SectionStorage
	ThreadStorage
}

type Channel struct {
	storage   ChannelStore
	validator NameValidator
	now       func() time.Time
}

func NewChannel(storage ChannelStore, validator NameValidator) *Channel {
	return &Channel{storage: storage, validator: validator, now: time.Now}
}

func (s *Channel) Create(ctx context.Context, data domain.ChannelCreationData) (domain.Channel, error) {
	name := sharedutils.StripMarkup(data.Name)
	if err := s.validator.Name(name); err != nil {
		return domain.Channel{}, err
	}
	slugSource := data.Slug
	if slugSource == "" {
		slugSource = name
	}
	slug := utils.NormalizeSlug(slugSource)
	if slug == "" {
		return domain.Channel{}, errors.InvalidArgument("channel needs a name or slug with letters or digits")
	}
	kind := data.Kind
	if kind == "" {
		kind = domain.ChannelDiscussion
	}
	if !kind.Valid() {
		return domain.Channel{}, errors.InvalidArgument(fmt.Sprintf("unknown channel kind %q", kind))
	}

	section := cloneSection(data.SectionId)
	if section != nil {
		if _, err := s.storage.GetSection(ctx, *section); err != nil {
			return domain.Channel{}, err
		}
	}
	siblings, err := s.storage.ListChannelsBySection(ctx, sectionKey(section))
	if err != nil {
		return domain.Channel{}, err
	}
	last := 0
	for _, c := range siblings {
		last = max(last, c.Order)
	}

	channel := domain.Channel{
		Id:          sharedutils.NewId(),
		Name:        name,
		Slug:        slug,
		Description: sharedutils.StripMarkup(data.Description),
		Kind:        kind,
		SectionId:   section,
		Visible:     data.Visible,
		Order:       last + 1,
		StickyPosts: []domain.ThreadId{},
		CreatedAt:   s.now().UTC(),
	}
	if err := s.storage.CreateChannel(ctx, channel); err != nil {
		return domain.Channel{}, err
	}
	logger.Log.Info("channel created", "component", "channel", "channel_id", channel.Id, "slug", slug)
	return channel, nil
}

func (s *Channel) Update(ctx context.Context, id domain.ChannelId, update domain.ChannelUpdate) (domain.Channel, error) {
	if update.Empty() {
		return domain.Channel{}, errors.InvalidArgument("nothing to update")
	}
	if update.Name != nil {
		name := sharedutils.StripMarkup(*update.Name)
		if err := s.validator.Name(name); err != nil {
			return domain.Channel{}, err
		}
		update.Name = &name
	}
	if update.Kind != nil && !update.Kind.Valid() {
		return domain.Channel{}, errors.InvalidArgument(fmt.Sprintf("unknown channel kind %q", *update.Kind))
	}
	return s.storage.UpdateChannel(ctx, id, func(c *domain.Channel) error {
		if update.Name != nil {
			c.Name = *update.Name
		}
		if update.Description != nil {
			c.Description = sharedutils.StripMarkup(*update.Description)
		}
		if update.Kind != nil {
			c.Kind = *update.Kind
		}
		if update.Visible != nil {
			v := *update.Visible
			c.Visible = &v
		}
		return nil
	})
}

func (s *Channel) Get(ctx context.Context, id domain.ChannelId) (domain.Channel, error) {
	return s.storage.GetChannel(ctx, id)
}

func (s *Channel) GetBySlug(ctx context.Context, slug domain.Slug) (domain.Channel, error) {
	return s.storage.GetChannelBySlug(ctx, slug)
}

// List groups channels by section in display order. The group without a
// section comes last. Hidden channels and draft sections are left out
// unless includeHidden is set.
func (s *Channel) List(ctx context.Context, includeHidden bool) ([]domain.SectionChannels, error) {
	sections, err := s.storage.ListSections(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := s.storage.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	sortSections(sections)
	SortChannels(channels)

	bySection := make(map[domain.SectionId][]domain.Channel)
	known := make(map[domain.SectionId]bool, len(sections))
	for _, sec := range sections {
		known[sec.Id] = true
	}
	for _, c := range channels {
		if !includeHidden && !c.IsVisible() {
			continue
		}
		key := c.Section()
		if !known[key] {
			key = ""
		}
		bySection[key] = append(bySection[key], c)
	}

	groups := make([]domain.SectionChannels, 0, len(sections)+1)
	for i := range sections {
		if !includeHidden && sections[i].Status != domain.SectionLive {
			continue
		}
		groups = append(groups, domain.SectionChannels{
			Section:  &sections[i],
			Channels: orEmpty(bySection[sections[i].Id]),
		})
	}
	if loose := bySection[""]; len(loose) > 0 {
		groups = append(groups, domain.SectionChannels{Channels: loose})
	}
	return groups, nil
}

func orEmpty(channels []domain.Channel) []domain.Channel {
	if channels == nil {
		return []domain.Channel{}
	}
	return slices.Clip(channels)
}

// Delete refuses while the channel still owns threads. The count and the
// delete are separate reads, a thread created in between is left for the
// integrity sweeper to report.
func (s *Channel) Delete(ctx context.Context, id domain.ChannelId) error {
	if _, err := s.storage.GetChannel(ctx, id); err != nil {
		return err
	}
	n, err := s.storage.CountThreadsByChannel(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return errors.Conflict(fmt.Sprintf("channel still has %d threads", n))
	}
	return s.storage.DeleteChannel(ctx, id)
}
