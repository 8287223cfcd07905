package api

import (
	"github.com/itchan-dev/kanaal/shared/domain"
)

// Request DTOs

type CreateSectionRequest struct {
	Name   string               `json:"name" validate:"required"`
	Emoji  string               `json:"emoji,omitempty"`
	Color  string               `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Status domain.SectionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft live"`
}

type UpdateSectionRequest struct {
	Name   *string               `json:"name,omitempty"`
	Emoji  *string               `json:"emoji,omitempty"`
	Color  *string               `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Status *domain.SectionStatus `json:"status,omitempty" validate:"omitempty,oneof=draft live"`
}

// DeleteSectionRequest picks where channels of the deleted section go.
// Without a body, deletion of a non-empty section is refused. ReparentTo
// "none" moves channels out of any section.
type DeleteSectionRequest struct {
	ReparentTo string `json:"reparent_to" validate:"required"`
}

type OrderRequest struct {
	Ids []string `json:"ids" validate:"required,dive,required"`
}

type CreateChannelRequest struct {
	Name        string             `json:"name" validate:"required"`
	Slug        string             `json:"slug,omitempty"`
	Description string             `json:"description,omitempty"`
	Kind        domain.ChannelKind `json:"kind,omitempty" validate:"omitempty,oneof=discussion template module"`
	SectionId   *domain.SectionId  `json:"section_id,omitempty"`
	Visible     *bool              `json:"visible,omitempty"`
}

type UpdateChannelRequest struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Kind        *domain.ChannelKind `json:"kind,omitempty" validate:"omitempty,oneof=discussion template module"`
	Visible     *bool               `json:"visible,omitempty"`
}

// MoveChannelRequest moves a channel into SectionId (nil leaves any section)
// and rewrites the target section order to Order.
type MoveChannelRequest struct {
	SectionId *domain.SectionId  `json:"section_id"`
	Order     []domain.ChannelId `json:"order" validate:"required"`
}

type DropRequest struct {
	Dragged domain.ChannelId `json:"dragged" validate:"required"`
	Target  string           `json:"target" validate:"required"`
}

// Response DTOs

type SectionListResponse struct {
	Sections []domain.Section `json:"sections"`
}

type ChannelListResponse struct {
	Groups []domain.SectionChannels `json:"groups"`
}
