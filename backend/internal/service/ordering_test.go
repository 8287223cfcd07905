package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itchan-dev/kanaal/shared/domain"
	"github.com/itchan-dev/kanaal/shared/errors"
)

func channelIdsInSection(t *testing.T, f *fixture, section domain.SectionId) []domain.ChannelId {
	t.Helper()
	channels, err := f.store.ListChannelsBySection(context.Background(), section)
	require.NoError(t, err)
	SortChannels(channels)
	ids := make([]domain.ChannelId, len(channels))
	for i, c := range channels {
		ids[i] = c.Id
	}
	return ids
}

func TestOrderingReorder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.section(t, "Product")
	c1 := f.channel(t, "one", &s.Id)
	c2 := f.channel(t, "two", &s.Id)
	c3 := f.channel(t, "three", &s.Id)
	require.Equal(t, []domain.ChannelId{c1.Id, c2.Id, c3.Id}, channelIdsInSection(t, f, s.Id))

	require.NoError(t, f.ordering.Reorder(ctx, &s.Id, []domain.ChannelId{c3.Id, c1.Id, c2.Id}))
	assert.Equal(t, []domain.ChannelId{c3.Id, c1.Id, c2.Id}, channelIdsInSection(t, f, s.Id))

	for i, id := range []domain.ChannelId{c3.Id, c1.Id, c2.Id} {
		c, err := f.store.GetChannel(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, i+1, c.Order)
	}

	t.Run("errors", func(t *testing.T) {
		missing := "missing"
		assert.True(t, errors.IsNotFound(f.ordering.Reorder(ctx, &missing, []domain.ChannelId{c1.Id})))
		assert.True(t, errors.IsInvalidArgument(f.ordering.Reorder(ctx, &s.Id, []domain.ChannelId{c1.Id, c1.Id})))
		assert.Error(t, f.ordering.Reorder(ctx, &s.Id, []domain.ChannelId{"ghost"}))
	})
}

func TestOrderingMove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	src := f.section(t, "Source")
	dst := f.section(t, "Target")
	a := f.channel(t, "a", &src.Id)
	b := f.channel(t, "b", &src.Id)
	d := f.channel(t, "d", &dst.Id)

	require.NoError(t, f.ordering.Move(ctx, a.Id, &dst.Id, []domain.ChannelId{a.Id, d.Id}))
	assert.Equal(t, []domain.ChannelId{a.Id, d.Id}, channelIdsInSection(t, f, dst.Id))
	assert.Equal(t, []domain.ChannelId{b.Id}, channelIdsInSection(t, f, src.Id))

	moved, err := f.store.GetChannel(ctx, a.Id)
	require.NoError(t, err)
	require.NotNil(t, moved.SectionId)
	assert.Equal(t, dst.Id, *moved.SectionId)
	assert.Equal(t, 1, moved.Order)

	t.Run("out of any section", func(t *testing.T) {
		require.NoError(t, f.ordering.Move(ctx, b.Id, nil, []domain.ChannelId{b.Id}))
		got, err := f.store.GetChannel(ctx, b.Id)
		require.NoError(t, err)
		assert.Nil(t, got.SectionId)
	})

	t.Run("target order must include the channel", func(t *testing.T) {
		err := f.ordering.Move(ctx, d.Id, &src.Id, []domain.ChannelId{a.Id})
		assert.True(t, errors.IsInvalidArgument(err))
	})

	t.Run("missing target section", func(t *testing.T) {
		missing := "missing"
		err := f.ordering.Move(ctx, d.Id, &missing, []domain.ChannelId{d.Id})
		assert.True(t, errors.IsNotFound(err))
	})
}

func TestOrderingDrop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s1 := f.section(t, "One")
	s2 := f.section(t, "Two")
	a := f.channel(t, "a", &s1.Id)
	b := f.channel(t, "b", &s1.Id)
	c := f.channel(t, "c", &s2.Id)

	drop, err := f.ordering.Drop(ctx, a.Id, b.Id)
	require.NoError(t, err)
	assert.Equal(t, DropReorder, drop.Kind)
	assert.Equal(t, []domain.ChannelId{b.Id, a.Id}, channelIdsInSection(t, f, s1.Id))

	drop, err = f.ordering.Drop(ctx, c.Id, a.Id)
	require.NoError(t, err)
	assert.Equal(t, DropMove, drop.Kind)
	assert.Equal(t, []domain.ChannelId{b.Id, c.Id, a.Id}, channelIdsInSection(t, f, s1.Id))
	assert.Empty(t, channelIdsInSection(t, f, s2.Id))

	drop, err = f.ordering.Drop(ctx, a.Id, SectionDropPrefix+s2.Id)
	require.NoError(t, err)
	assert.Equal(t, DropMove, drop.Kind)
	assert.Equal(t, []domain.ChannelId{a.Id}, channelIdsInSection(t, f, s2.Id))

	drop, err = f.ordering.Drop(ctx, a.Id, "nowhere")
	require.NoError(t, err)
	assert.Equal(t, DropNone, drop.Kind)
}

func TestOrderingDrop_ClearsDanglingSection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	loose := f.channel(t, "loose", nil)
	dangling := "gone"
	require.NoError(t, f.store.CreateChannel(ctx, domain.Channel{
		Id: "c-dangling", Name: "dangling", Slug: "dangling", Kind: domain.ChannelDiscussion,
		SectionId: &dangling, StickyPosts: []domain.ThreadId{}, CreatedAt: time.Now().UTC(),
	}))

	drop, err := f.ordering.Drop(ctx, "c-dangling", loose.Id)
	require.NoError(t, err)
	assert.Equal(t, DropMove, drop.Kind)
	assert.Equal(t, domain.SectionId(""), drop.To)

	got, err := f.store.GetChannel(ctx, "c-dangling")
	require.NoError(t, err)
	assert.Nil(t, got.SectionId)
	assert.Equal(t, []domain.ChannelId{"c-dangling", loose.Id}, channelIdsInSection(t, f, ""))
}

func TestOrderingLayout(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	s := f.section(t, "Empty")
	loose := f.channel(t, "loose", nil)

	// a channel pointing at a section that no longer exists
	dangling := "gone"
	require.NoError(t, f.store.CreateChannel(ctx, domain.Channel{
		Id: "c-dangling", Name: "dangling", Slug: "dangling", Kind: domain.ChannelDiscussion,
		SectionId: &dangling, StickyPosts: []domain.ThreadId{}, CreatedAt: time.Now().UTC(),
	}))

	layout, err := f.ordering.Layout(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ChannelId{}, layout[s.Id])
	assert.Equal(t, []domain.ChannelId{loose.Id, "c-dangling"}, layout[""])
}

func TestSortChannels(t *testing.T) {
	base := time.Now()
	channels := []domain.Channel{
		{Id: "late-unpositioned", CreatedAt: base.Add(2 * time.Second)},
		{Id: "second", Order: 2, CreatedAt: base},
		{Id: "early-unpositioned", CreatedAt: base.Add(time.Second)},
		{Id: "first", Order: 1, CreatedAt: base.Add(3 * time.Second)},
	}
	SortChannels(channels)

	var ids []domain.ChannelId
	for _, c := range channels {
		ids = append(ids, c.Id)
	}
	assert.Equal(t, []domain.ChannelId{"first", "second", "early-unpositioned", "late-unpositioned"}, ids)
}
