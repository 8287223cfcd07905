package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/itchan-dev/kanaal/shared/domain"
	internal_errors "github.com/itchan-dev/kanaal/shared/errors"
	"github.com/redis/go-redis/v9"
)

func (s *Storage) channelKey(id domain.ChannelId) string { return s.key("channel", id) }

func (s *Storage) CreateChannel(ctx context.Context, channel domain.Channel) error {
	slugKey := s.key("channels", "slug")
	return s.watch(ctx, func(tx *redis.Tx) error {
		taken, err := tx.HExists(ctx, slugKey, channel.Slug).Result()
		if err != nil {
			return fmt.Errorf("check channel slug: %w", err)
		}
		if taken {
			return internal_errors.Conflict(fmt.Sprintf("channel slug %q is already taken", channel.Slug))
		}
		return createDoc(ctx, tx, s.channelKey(channel.Id), &channel, func(pipe redis.Pipeliner) {
			pipe.HSet(ctx, slugKey, channel.Slug, channel.Id)
			pipe.SAdd(ctx, s.key("channels"), channel.Id)
		})
	}, slugKey)
}

func (s *Storage) GetChannel(ctx context.Context, id domain.ChannelId) (domain.Channel, error) {
	return getDoc[domain.Channel](ctx, s.rdb, s.channelKey(id), "channel")
}

func (s *Storage) GetChannelBySlug(ctx context.Context, slug domain.Slug) (domain.Channel, error) {
	id, err := s.rdb.HGet(ctx, s.key("channels", "slug"), slug).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Channel{}, channelNotFound()
	}
	if err != nil {
		return domain.Channel{}, fmt.Errorf("lookup channel slug: %w", err)
	}
	return s.GetChannel(ctx, id)
}

func (s *Storage) ListChannels(ctx context.Context) ([]domain.Channel, error) {
	return listDocs[domain.Channel](ctx, s, s.key("channels"), s.channelKey)
}

// ListChannelsBySection filters the full channel list. Channel counts are
// small enough that a section index is not worth keeping in sync.
func (s *Storage) ListChannelsBySection(ctx context.Context, id domain.SectionId) ([]domain.Channel, error) {
	all, err := s.ListChannels(ctx)
	if err != nil {
		return nil, err
	}
	channels := make([]domain.Channel, 0, len(all))
	for _, c := range all {
		if c.Section() == id {
			channels = append(channels, c)
		}
	}
	return channels, nil
}

func (s *Storage) UpdateChannel(ctx context.Context, id domain.ChannelId, fn func(*domain.Channel) error) (domain.Channel, error) {
	return mutateDoc(ctx, s, s.channelKey(id), "channel", fn, nil)
}

func (s *Storage) DeleteChannel(ctx context.Context, id domain.ChannelId) error {
	return deleteDoc(ctx, s, s.channelKey(id), "channel", func(pipe redis.Pipeliner, c *domain.Channel) {
		pipe.HDel(ctx, s.key("channels", "slug"), c.Slug)
		pipe.SRem(ctx, s.key("channels"), c.Id)
	})
}
