package api

import "github.com/itchan-dev/kanaal/shared/domain"

// Request DTOs

type CreateCommentRequest struct {
	Body     string           `json:"body" validate:"required"`
	Mentions *[]domain.UserId `json:"mentions,omitempty"`
}
