package api

import "github.com/itchan-dev/kanaal/shared/domain"

// Request DTOs

// UpdateProfileRequest is a partial update, omitted fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string   `json:"display_name,omitempty" validate:"omitempty,min=1,max=64"`
	Bio         *string   `json:"bio,omitempty" validate:"omitempty,max=1000"`
	AvatarUrl   *string   `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,max=20,dive,min=1,max=32"`
}

type OnboardingStepRequest struct {
	Step string `json:"step" validate:"required,max=64"`
}

type SetRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=member moderator admin"`
}

// Response DTOs

type UserResponse struct {
	domain.User
}
