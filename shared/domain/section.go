package domain

import "time"

type SectionStatus string

const (
	SectionDraft SectionStatus = "draft"
	SectionLive  SectionStatus = "live"
)

type Section struct {
	Id        SectionId     `json:"id"`
	Name      string        `json:"name"`
	Emoji     string        `json:"emoji,omitempty"`
	Color     string        `json:"color,omitempty"`
	Order     int           `json:"order"`
	Status    SectionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

type SectionCreationData struct {
	Name   string
	Emoji  string
	Color  string
	Status SectionStatus
}

type SectionUpdate struct {
	Name   *string
	Emoji  *string
	Color  *string
	Status *SectionStatus
}

func (u SectionUpdate) Empty() bool {
	return u.Name == nil && u.Emoji == nil && u.Color == nil && u.Status == nil
}
