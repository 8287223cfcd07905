package domain

import (
	"slices"
	"time"
)

type ChannelKind string

const (
	ChannelDiscussion ChannelKind = "discussion"
	ChannelTemplate   ChannelKind = "template"
	ChannelModule     ChannelKind = "module"
)

func (k ChannelKind) Valid() bool {
	switch k {
	case ChannelDiscussion, ChannelTemplate, ChannelModule:
		return true
	}
	return false
}

// Channel is a discussion stream. Order is its 1-based position inside its
// section, 0 means no position has been assigned yet. Visible is nil until
// an admin or the curation job sets it.
type Channel struct {
	Id          ChannelId   `json:"id"`
	Name        string      `json:"name"`
	Slug        Slug        `json:"slug"`
	Description string      `json:"description,omitempty"`
	Kind        ChannelKind `json:"kind"`
	SectionId   *SectionId  `json:"section_id,omitempty"`
	Visible     *bool       `json:"visible,omitempty"`
	Order       int         `json:"order"`
	StickyPosts []ThreadId  `json:"sticky_posts"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (c *Channel) Section() SectionId {
	if c.SectionId == nil {
		return ""
	}
	return *c.SectionId
}

func (c *Channel) IsVisible() bool {
	return c.Visible == nil || *c.Visible
}

func (c *Channel) HasSticky(id ThreadId) bool {
	return slices.Contains(c.StickyPosts, id)
}

type ChannelCreationData struct {
	Name        string
	Slug        Slug
	Description string
	Kind        ChannelKind
	SectionId   *SectionId
	Visible     *bool
}

type ChannelUpdate struct {
	Name        *string
	Description *string
	Kind        *ChannelKind
	Visible     *bool
}

func (u ChannelUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Kind == nil && u.Visible == nil
}

// SectionChannels is one group of the channel sidebar.
type SectionChannels struct {
	Section  *Section  `json:"section"`
	Channels []Channel `json:"channels"`
}
