package api

import "github.com/itchan-dev/kanaal/shared/domain"

// Request DTOs

type PollRequest struct {
	Question       string   `json:"question" validate:"required"`
	Options        []string `json:"options" validate:"required,min=2"`
	MultipleChoice bool     `json:"multiple_choice,omitempty"`
}

type CreateThreadRequest struct {
	Title       string              `json:"title" validate:"required"`
	Kind        domain.ThreadKind   `json:"kind,omitempty" validate:"omitempty,oneof=text poll"`
	Body        string              `json:"body,omitempty"`
	Poll        *PollRequest        `json:"poll,omitempty"`
	Mentions    *[]domain.UserId    `json:"mentions,omitempty"`
	Attachments []domain.Attachment `json:"attachments,omitempty" validate:"dive"`
}

type StickyRequest struct {
	Sticky bool `json:"sticky"`
}

type VoteRequest struct {
	OptionIndex *int `json:"option_index" validate:"required"`
}

// Response DTOs

type ThreadCreatedResponse struct {
	domain.ThreadCreated
}

type ThreadListResponse struct {
	Threads []domain.ThreadView `json:"threads"`
	Page    int                 `json:"page"`
}

type ToggleResponse struct {
	Active bool `json:"active"`
}

type SearchResponse struct {
	Query   string          `json:"query"`
	Threads []domain.Thread `json:"threads"`
}
